package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/google/uuid"

	"github.com/liao/chat-cloud/internal/archive"
)

const (
	fieldID       = "_id"
	fieldMessage  = "message"
	fieldSenderID = "sender_id"
	fieldDate     = "date"

	defaultLimit = 20
)

var ErrEmptyQuery = errors.New("empty search query")

// Query 关键词必填，SenderID 为空时不过滤
type Query struct {
	Text     string
	SenderID string
	Limit    int
}

type Hit struct {
	ID       uuid.UUID
	SenderID string
	Date     time.Time
	Message  string
	Score    float64
}

// Index 全文索引，同一个目录同时只能被一个进程打开
type Index struct {
	writer *bluge.Writer
}

func Open(dir string) (*Index, error) {
	w, err := bluge.OpenWriter(bluge.DefaultConfig(dir))
	if err != nil {
		return nil, fmt.Errorf("open search index: %w", err)
	}
	return &Index{writer: w}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Add 批量索引，ID 相同的文档会被替换
func (i *Index) Add(records []archive.Record) error {
	if len(records) == 0 {
		return nil
	}
	batch := bluge.NewBatch()
	for _, r := range records {
		doc := bluge.NewDocument(r.ID.String()).
			AddField(bluge.NewTextField(fieldMessage, r.Message.Body).StoreValue()).
			AddField(bluge.NewKeywordField(fieldSenderID, r.Message.SenderID).StoreValue()).
			AddField(bluge.NewDateTimeField(fieldDate, r.Message.Timestamp).StoreValue())
		batch.Update(doc.ID(), doc)
	}
	if err := i.writer.Batch(batch); err != nil {
		return fmt.Errorf("index batch: %w", err)
	}
	slog.Debug("indexed records", "count", len(records))
	return nil
}

// Search 按相关度返回命中，所有关键词都要出现
func (i *Index) Search(ctx context.Context, q Query) ([]Hit, error) {
	if q.Text == "" {
		return nil, ErrEmptyQuery
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	reader, err := i.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open reader: %w", err)
	}
	defer reader.Close()

	var query bluge.Query = bluge.NewMatchQuery(q.Text).
		SetField(fieldMessage).
		SetOperator(bluge.MatchQueryOperatorAnd)
	if q.SenderID != "" {
		query = bluge.NewBooleanQuery().
			AddMust(query).
			AddMust(bluge.NewTermQuery(q.SenderID).SetField(fieldSenderID))
	}

	it, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var hits []Hit
	match, err := it.Next()
	for err == nil && match != nil {
		hit := Hit{Score: match.Score}
		var visitErr error
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case fieldID:
				hit.ID, visitErr = uuid.ParseBytes(value)
			case fieldMessage:
				hit.Message = string(value)
			case fieldSenderID:
				hit.SenderID = string(value)
			case fieldDate:
				hit.Date, visitErr = bluge.DecodeDateTime(value)
			}
			return visitErr == nil
		})
		if err == nil {
			err = visitErr
		}
		if err != nil {
			break
		}
		hits = append(hits, hit)
		match, err = it.Next()
	}
	if err != nil {
		return nil, fmt.Errorf("read hits: %w", err)
	}
	return hits, nil
}
