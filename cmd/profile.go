package cmd

import (
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/wolfmanIII/elara/internal/config"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect and switch RAG profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the configured profiles",
	RunE:  runProfileList,
}

var profileShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a profile's settings (the active one by default)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileShow,
}

var profileUseCmd = &cobra.Command{
	Use:   "use [name]",
	Short: "Switch the active profile",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProfileUse,
}

func init() {
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileUseCmd)
	rootCmd.AddCommand(profileCmd)
}

func runProfileList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	profiles, err := newProfileManager(cfg)
	if err != nil {
		return err
	}

	active := profiles.ActiveName()
	for _, info := range profiles.List() {
		marker := " "
		if info.Name == active {
			marker = "*"
		}
		fmt.Printf("%s %-20s %-20s %s\n", marker, info.Name, info.Label, info.Backend)
	}
	return nil
}

func runProfileShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	profiles, err := newProfileManager(cfg)
	if err != nil {
		return err
	}

	name := profiles.ActiveName()
	if len(args) == 1 {
		name = args[0]
	}
	p, err := profiles.Get(name)
	if err != nil {
		return err
	}

	fmt.Printf("Profile:          %s\n", name)
	fmt.Printf("Label:            %s\n", p.Label)
	fmt.Printf("Backend:          %s\n", p.Backend)
	fmt.Printf("Chat model:       %s\n", p.ChatModel)
	fmt.Printf("Embed model:      %s\n", p.EmbedModel)
	fmt.Printf("Dimension:        %d\n", p.Dimension)
	fmt.Printf("Chunking:         min=%d target=%d max=%d overlap=%d\n",
		p.Chunking.Min, p.Chunking.Target, p.Chunking.Max, p.Chunking.Overlap)
	fmt.Printf("Retrieval:        top_k=%d min_score=%.2f\n", p.Retrieval.TopK, p.Retrieval.MinScore)
	fmt.Printf("Test mode:        %t\n", p.TestMode)
	fmt.Printf("Offline fallback: %t\n", p.OfflineFallback)
	return nil
}

func runProfileUse(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	profiles, err := newProfileManager(cfg)
	if err != nil {
		return err
	}

	var name string
	if len(args) == 1 {
		name = args[0]
	} else {
		list := profiles.List()
		items := make([]string, len(list))
		for i, info := range list {
			items[i] = fmt.Sprintf("%s (%s, %s)", info.Name, info.Label, info.Backend)
		}
		prompt := promptui.Select{
			Label: "Select profile",
			Items: items,
		}
		idx, _, err := prompt.Run()
		if err != nil {
			return err
		}
		name = list[idx].Name
	}

	if err := profiles.Use(name); err != nil {
		return err
	}
	fmt.Printf("Active profile: %s\n", name)

	p, err := profiles.Get(name)
	if err != nil {
		return err
	}
	warnDimensionMismatch(cfg, p)
	return nil
}

// warnDimensionMismatch compares the new profile's embedding dimension with
// the vector sizes already stored. A mismatch means retrieval returns nothing
// useful until the corpus is re-indexed.
func warnDimensionMismatch(cfg *config.Config, p config.Profile) {
	st, err := openStore(cfg)
	if err != nil {
		return
	}
	defer st.Close()

	dims, err := st.EmbeddingDimensions()
	if err != nil {
		return
	}
	for _, d := range dims {
		if d != p.Dimension {
			fmt.Printf("warning: stored vectors have dimension %d but the profile expects %d; run `elara index --force` to re-index\n",
				d, p.Dimension)
			return
		}
	}
}
