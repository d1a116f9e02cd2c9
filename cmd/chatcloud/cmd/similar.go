package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liao/chat-cloud/internal/ai"
	"github.com/liao/chat-cloud/internal/rag"
)

var similarOpts struct {
	sender string
}

var similarCmd = &cobra.Command{
	Use:   "similar TEXT",
	Short: "Find archived messages with a similar meaning",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSimilar,
}

func init() {
	similarCmd.Flags().StringVar(&similarOpts.sender, "sender", "", "only messages from this sender")

	rootCmd.AddCommand(similarCmd)
}

func runSimilar(cmd *cobra.Command, args []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	ctx, cancel := setupContext(cmd)
	defer cancel()

	client, err := ai.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.RPMLimit)
	if err != nil {
		return err
	}
	store, err := rag.NewStore(cfg.RAG.VectorsDir, client.EmbedFunc())
	if err != nil {
		return err
	}

	pipeline := rag.NewPipeline(store, cfg.RAG.TopK, cfg.RAG.MinSimilarity)
	results, err := pipeline.Similar(ctx, strings.Join(args, " "), similarOpts.sender)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), notice.Sprint("no similar messages, run embed first?"))
		return nil
	}

	table := newTable(cmd.OutOrStdout(), "Similarity", "Date", "Sender", "Message")
	for _, r := range results {
		table.Append([]string{fmt.Sprintf("%.3f", r.Similarity), r.Date, r.SenderID, truncate(oneLine(r.Content), 60)})
	}
	table.Render()
	return nil
}
