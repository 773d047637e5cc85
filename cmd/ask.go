package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wolfmanIII/elara/internal/backend"
	"github.com/wolfmanIII/elara/internal/chatbot"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question over the indexed documents",
	Args:  cobra.ExactArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().Bool("stream", false, "print the answer incrementally as it is generated")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	question := args[0]
	stream, _ := cmd.Flags().GetBool("stream")

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

	bot := chatbot.New(st, client, active)
	ctx := context.Background()

	if stream {
		sources, err := bot.AskStream(ctx, question, func(chunk string) {
			fmt.Print(chunk)
		})
		if err != nil {
			return err
		}
		fmt.Println()
		printSources(sources)
		return nil
	}

	answer, err := bot.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println(answer.Answer)
	printSources(answer.Sources)
	return nil
}

func printSources(sources []chatbot.Source) {
	if len(sources) == 0 {
		return
	}
	fmt.Println("\nSources:")
	for _, s := range sources {
		fmt.Printf("  - %s (chunk %d, similarity %s)\n", s.File, s.Chunk, s.SimilarityFormatted)
	}
}
