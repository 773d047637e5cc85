package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfmanIII/elara/internal/backend"
	"github.com/wolfmanIII/elara/internal/extract"
	"github.com/wolfmanIII/elara/internal/indexer"
	"github.com/wolfmanIII/elara/internal/progress"
)

var indexCmd = &cobra.Command{
	Use:   "index [directory]",
	Short: "Index a document directory into the vector store",
	Long: `Scans the directory recursively, extracts and chunks the text of every
supported file, computes embeddings through the active profile's backend and
stores everything locally. Unchanged files are skipped via content hashing.`,
	Args: cobra.ExactArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("force", false, "re-index files even when unchanged")
	indexCmd.Flags().Bool("dry-run", false, "report what would be indexed without writing or embedding")
	indexCmd.Flags().Bool("test-mode", false, "use placeholder embeddings instead of calling the backend")
	indexCmd.Flags().String("offline-fallback", "inherit", "on embedding errors keep indexing with placeholders: inherit, on or off")
	indexCmd.Flags().StringArray("path", nil, "only index paths under this relative prefix (repeatable)")
	indexCmd.Flags().StringArray("exclude-dir", nil, "skip files under directories with this name (repeatable)")
	indexCmd.Flags().StringArray("exclude-name", nil, "skip files whose name matches this glob pattern (repeatable)")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	profiles, err := newProfileManager(cfg)
	if err != nil {
		return err
	}
	active := profiles.Active()

	client, err := backend.New(active)
	if err != nil {
		return err
	}

	opts := indexer.Options{}
	opts.Force, _ = cmd.Flags().GetBool("force")
	opts.DryRun, _ = cmd.Flags().GetBool("dry-run")
	opts.PathsFilter, _ = cmd.Flags().GetStringArray("path")
	opts.ExcludedDirs, _ = cmd.Flags().GetStringArray("exclude-dir")
	opts.ExcludedNames, _ = cmd.Flags().GetStringArray("exclude-name")

	if cmd.Flags().Changed("test-mode") {
		v, _ := cmd.Flags().GetBool("test-mode")
		opts.TestMode = &v
	}

	fallback, _ := cmd.Flags().GetString("offline-fallback")
	switch fallback {
	case "inherit":
		// keep the profile's setting
	case "on":
		v := true
		opts.OfflineFallback = &v
	case "off":
		v := false
		opts.OfflineFallback = &v
	default:
		return fmt.Errorf("invalid --offline-fallback value %q: must be inherit, on or off", fallback)
	}

	reporter := progress.NewReporter()
	opts.OnStart = reporter.Start
	opts.OnFileProcessed = func(r indexer.FileResult, current, total int) {
		reporter.Update(current, r.Path)
	}

	ix := indexer.New(st, extract.NewPlainText(), client, active)
	summary, err := ix.IndexDirectory(context.Background(), args[0], opts)
	reporter.Finish()
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(s *indexer.Summary) {
	fmt.Printf("Files found:  %d\n", s.TotalFound)
	fmt.Printf("Processed:    %d\n", s.TotalProcessed)
	fmt.Printf("Indexed:      %d\n", s.TotalIndexed)
	fmt.Printf("Skipped:      %d\n", s.TotalSkipped)
	fmt.Printf("Failed:       %d\n", s.TotalFailed)
	if s.DryRun {
		fmt.Println("Dry run: nothing was written.")
	}
	if s.TestMode {
		fmt.Println("Test mode: placeholder embeddings only.")
	}

	for _, f := range s.Files {
		switch f.Status {
		case indexer.StatusFailed:
			fmt.Printf("  FAILED %s: %s\n", f.Path, f.ErrorMessage)
		case indexer.StatusIndexedWithErrors:
			fmt.Printf("  WARN   %s: %s\n", f.Path, f.ErrorMessage)
		}
	}
}
