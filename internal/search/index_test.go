package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/parser"
)

func openTest(t *testing.T) *Index {
	t.Helper()
	idx, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func sampleRecords() []archive.Record {
	at := time.Date(2021, 3, 1, 9, 0, 0, 0, time.UTC)
	return archive.Records("chat.txt", []parser.ChatMessage{
		{Timestamp: at, SenderID: "111111", Body: "let us migrate the database tonight"},
		{Timestamp: at.Add(time.Minute), SenderID: "222222", Body: "the database migration failed"},
		{Timestamp: at.Add(2 * time.Minute), SenderID: "111111", Body: "lunch anyone"},
	})
}

func TestIndex_Search(t *testing.T) {
	req := require.New(t)
	idx := openTest(t)
	records := sampleRecords()
	req.NoError(idx.Add(records))

	hits, err := idx.Search(context.Background(), Query{Text: "database"})
	req.NoError(err)
	req.Len(hits, 2)
	for _, h := range hits {
		req.Contains(h.Message, "database")
		req.Greater(h.Score, 0.0)
	}

	hits, err = idx.Search(context.Background(), Query{Text: "lunch"})
	req.NoError(err)
	req.Len(hits, 1)
	req.Equal(records[2].ID, hits[0].ID)
	req.Equal("111111", hits[0].SenderID)
	req.True(records[2].Message.Timestamp.Equal(hits[0].Date))
}

func TestIndex_SearchFilters(t *testing.T) {
	idx := openTest(t)
	records := sampleRecords()
	require.NoError(t, idx.Add(records))

	tests := []struct {
		name  string
		query Query
		want  int
	}{
		{"sender filter", Query{Text: "database", SenderID: "222222"}, 1},
		{"all terms required", Query{Text: "database lunch"}, 0},
		{"limit", Query{Text: "database", Limit: 1}, 1},
		{"no match", Query{Text: "weekend"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits, err := idx.Search(context.Background(), tt.query)
			require.NoError(t, err)
			require.Len(t, hits, tt.want)
		})
	}
}

func TestIndex_AddReplacesSameID(t *testing.T) {
	req := require.New(t)
	idx := openTest(t)
	records := sampleRecords()
	req.NoError(idx.Add(records))
	req.NoError(idx.Add(records))

	hits, err := idx.Search(context.Background(), Query{Text: "lunch"})
	req.NoError(err)
	req.Len(hits, 1)
}

func TestIndex_EmptyInput(t *testing.T) {
	idx := openTest(t)
	require.NoError(t, idx.Add(nil))

	_, err := idx.Search(context.Background(), Query{})
	require.ErrorIs(t, err, ErrEmptyQuery)
}
