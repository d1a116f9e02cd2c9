package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/liao/chat-cloud/internal/ai"
	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/rag"
)

const embedBatchSize = 20

var embedOpts struct {
	sender string
	limit  int
}

var embedCmd = &cobra.Command{
	Use:   "embed",
	Short: "Embed archived messages into the vector store",
	Long: `Embeds every archived message that is not in the vector store yet.
Requires a Gemini API key (gemini.api_key or GEMINI_API_KEY).`,
	RunE: runEmbed,
}

func init() {
	embedCmd.Flags().StringVar(&embedOpts.sender, "sender", "", "only embed messages from this sender")
	embedCmd.Flags().IntVar(&embedOpts.limit, "limit", 0, "embed at most N archived messages (0 = all)")

	rootCmd.AddCommand(embedCmd)
}

func runEmbed(cmd *cobra.Command, _ []string) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	ctx, cancel := setupContext(cmd)
	defer cancel()

	a, err := archive.Open(cfg.Archive.Dir)
	if err != nil {
		return err
	}
	defer a.Close()

	records, err := a.List(archive.Filter{SenderID: embedOpts.sender, Limit: embedOpts.limit})
	if err != nil {
		return err
	}

	client, err := ai.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.EmbeddingModel, cfg.Gemini.RPMLimit)
	if err != nil {
		return err
	}
	store, err := rag.NewStore(cfg.RAG.VectorsDir, client.EmbedFunc())
	if err != nil {
		return err
	}

	pending := store.Missing(ctx, records)
	slog.Info("embedding messages", "archived", len(records), "pending", len(pending))

	added := 0
	for start := 0; start < len(pending); start += embedBatchSize {
		batch := pending[start:min(start+embedBatchSize, len(pending))]
		n, err := store.AddRecords(ctx, batch)
		if err != nil {
			return fmt.Errorf("embed batch at %d: %w", start, err)
		}
		added += n
		slog.Info("vectorizing", "progress", fmt.Sprintf("%d/%d", start+len(batch), len(pending)))
	}

	fmt.Fprintln(cmd.OutOrStdout(), success.Sprintf("embedded %d messages (%d vectors total)", added, store.Count()))
	return nil
}
