package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"
)

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Inspect and manage the indexed documents",
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List indexed files with their chunk counts",
	RunE:  runDocsList,
}

var docsUnindexCmd = &cobra.Command{
	Use:   "unindex [pattern]",
	Short: "Remove indexed files whose path matches a regular expression",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocsUnindex,
}

func init() {
	docsListCmd.Flags().String("path", "", "only list paths containing this substring")
	docsListCmd.Flags().Int("limit", 0, "maximum number of files to list (0 = all)")
	docsCmd.AddCommand(docsListCmd)
	docsCmd.AddCommand(docsUnindexCmd)
	rootCmd.AddCommand(docsCmd)
}

func runDocsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pathFilter, _ := cmd.Flags().GetString("path")
	limit, _ := cmd.Flags().GetInt("limit")

	files, err := st.ListFiles(pathFilter, limit)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		fmt.Println("No indexed files.")
		return nil
	}

	for _, f := range files {
		fmt.Printf("%-60s %4d chunks  %s\n", f.Path, f.ChunkCount, f.IndexedAt.Format("2006-01-02 15:04"))
	}
	fmt.Printf("\n%d file(s)\n", len(files))
	return nil
}

func runDocsUnindex(cmd *cobra.Command, args []string) error {
	pattern, err := regexp.Compile(args[0])
	if err != nil {
		return fmt.Errorf("invalid pattern: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	removed, err := st.DeleteFilesMatching(pattern)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		fmt.Println("No files matched.")
		return nil
	}
	for _, path := range removed {
		fmt.Printf("removed %s\n", path)
	}
	fmt.Printf("\n%d file(s) removed\n", len(removed))
	return nil
}
