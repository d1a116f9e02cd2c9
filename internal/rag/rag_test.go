package rag

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/parser"
)

// letterEmbed 按字母频次生成向量，足够区分测试用的几句话
func letterEmbed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 27)
	v[26] = 0.1
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' {
			v[r-'a']++
		}
	}
	return v, nil
}

func sampleRecords() []archive.Record {
	at := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	return archive.Records("chat.txt", []parser.ChatMessage{
		{Timestamp: at, SenderID: "111111", Body: "database database database"},
		{Timestamp: at.Add(time.Minute), SenderID: "222222", Body: "zzz quiz jazz"},
		{Timestamp: at.Add(2 * time.Minute), SenderID: "111111", Body: "   "},
		{Timestamp: at.Add(3 * time.Minute), SenderID: "222222", Body: "date"},
	})
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), letterEmbed)
	require.NoError(t, err)
	return s
}

func TestStore_AddRecordsSkipsEmpty(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)

	n, err := s.AddRecords(context.Background(), sampleRecords())
	req.NoError(err)
	req.Equal(3, n)
	req.Equal(3, s.Count())

	n, err = s.AddRecords(context.Background(), nil)
	req.NoError(err)
	req.Zero(n)
}

func TestStore_Missing(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	records := sampleRecords()
	_, err := s.AddRecords(context.Background(), records[:2])
	req.NoError(err)

	missing := s.Missing(context.Background(), records)
	req.Len(missing, 2)
	req.Equal(records[2].ID, missing[0].ID)
	req.Equal(records[3].ID, missing[1].ID)
}

func TestStore_Query(t *testing.T) {
	req := require.New(t)
	s := newTestStore(t)
	records := sampleRecords()
	_, err := s.AddRecords(context.Background(), records)
	req.NoError(err)

	// topK 大于文档数时被截断
	results, err := s.Query(context.Background(), "database", 10, -1, "")
	req.NoError(err)
	req.Len(results, 3)
	req.Equal(records[0].ID.String(), results[0].ID)
	req.Equal("111111", results[0].SenderID)
	req.Equal("2021-03-01 09:00:00", results[0].Date)

	results, err = s.Query(context.Background(), "database", 10, -1, "222222")
	req.NoError(err)
	req.NotEmpty(results)
	for _, r := range results {
		req.Equal("222222", r.SenderID)
	}
	req.Equal("date", results[0].Content)

	results, err = s.Query(context.Background(), "database", 10, 0.99, "")
	req.NoError(err)
	req.Len(results, 1)
}

func TestPipeline_Similar(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	empty := NewPipeline(newTestStore(t), 5, 0)
	results, err := empty.Similar(ctx, "anything", "")
	req.NoError(err)
	req.Nil(results)

	s := newTestStore(t)
	_, err = s.AddRecords(ctx, sampleRecords())
	req.NoError(err)

	p := NewPipeline(s, 1, 0)
	results, err = p.Similar(ctx, "database", "")
	req.NoError(err)
	req.Len(results, 1)
	req.Equal("database database database", results[0].Content)
}
