package rag

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/philippgille/chromem-go"

	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/parser"
)

const (
	collectionName = "messages"

	metaSenderID = "sender_id"
	metaDate     = "date"
	metaSource   = "source"
)

type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore 创建或加载向量存储
func NewStore(vectorsDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	db, err := chromem.NewPersistentDB(vectorsDir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create collection: %w", err)
	}

	slog.Debug("vector store loaded", "dir", vectorsDir, "count", col.Count())
	return &Store{db: db, collection: col}, nil
}

// AddRecords 嵌入并写入归档消息，空消息跳过，返回写入条数
func (s *Store) AddRecords(ctx context.Context, records []archive.Record) (int, error) {
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		if strings.TrimSpace(r.Message.Body) == "" {
			continue
		}
		docs = append(docs, chromem.Document{
			ID:      r.ID.String(),
			Content: r.Message.Body,
			Metadata: map[string]string{
				metaSenderID: r.Message.SenderID,
				metaDate:     r.Message.Timestamp.Format(parser.DateLayout),
				metaSource:   r.Source,
			},
		})
	}
	if len(docs) == 0 {
		return 0, nil
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return 0, fmt.Errorf("add documents: %w", err)
	}
	return len(docs), nil
}

// Query 检索相似消息。senderID 为空时不过滤发送者。
func (s *Store) Query(ctx context.Context, text string, topK int, minSimilarity float32, senderID string) ([]Result, error) {
	if s.collection.Count() == 0 || topK <= 0 {
		return nil, nil
	}

	k := min(topK, s.collection.Count())

	var where map[string]string
	if senderID != "" {
		where = map[string]string{metaSenderID: senderID}
	}

	docs, err := s.collection.Query(ctx, text, k, where, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	var results []Result
	for _, d := range docs {
		if d.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			ID:         d.ID,
			Content:    d.Content,
			Similarity: d.Similarity,
			SenderID:   d.Metadata[metaSenderID],
			Date:       d.Metadata[metaDate],
		})
	}
	return results, nil
}

// Missing 过滤出还没有向量化的记录，用于断点续传
func (s *Store) Missing(ctx context.Context, records []archive.Record) []archive.Record {
	var out []archive.Record
	for _, r := range records {
		if _, err := s.collection.GetByID(ctx, r.ID.String()); err != nil {
			out = append(out, r)
		}
	}
	return out
}

// Count 返回文档数量
func (s *Store) Count() int {
	return s.collection.Count()
}

type Result struct {
	ID         string
	Content    string
	Similarity float32
	SenderID   string
	Date       string
}
