package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "elara",
	Short: "Local RAG engine over a document corpus",
	Long: `Elara indexes a directory of documents into a local vector store and
answers natural-language questions over it, using a configurable model
backend (Ollama, OpenAI or Gemini) for embeddings and chat.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "elara.yml", "config file path")
}
