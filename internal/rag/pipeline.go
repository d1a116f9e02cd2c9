package rag

import (
	"context"
	"log/slog"
)

type Pipeline struct {
	store         *Store
	topK          int
	minSimilarity float32
}

func NewPipeline(store *Store, topK int, minSimilarity float32) *Pipeline {
	return &Pipeline{
		store:         store,
		topK:          topK,
		minSimilarity: minSimilarity,
	}
}

// Similar 检索和 text 语义相近的历史消息
func (p *Pipeline) Similar(ctx context.Context, text, senderID string) ([]Result, error) {
	if p.store == nil || p.store.Count() == 0 {
		slog.Debug("no vectors in store, skipping lookup")
		return nil, nil
	}

	results, err := p.store.Query(ctx, text, p.topK, p.minSimilarity, senderID)
	if err != nil {
		return nil, err
	}

	slog.Debug("similar messages retrieved", "query", text, "sender", senderID, "count", len(results))
	return results, nil
}
