package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"
)

const embedAttempts = 3

var ErrEmptyEmbedding = errors.New("empty embedding response")

// Client 只负责文本嵌入
type Client struct {
	client     *genai.Client
	embedModel string
	limiter    *limiter
	backoff    func(attempt int) time.Duration
}

func NewClient(ctx context.Context, apiKey, embedModel string, rpmLimit int) (*Client, error) {
	return newClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}, embedModel, rpmLimit)
}

func newClient(ctx context.Context, cc *genai.ClientConfig, embedModel string, rpmLimit int) (*Client, error) {
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client:     client,
		embedModel: embedModel,
		limiter:    newLimiter(rpmLimit, time.Minute),
		backoff:    exponentialBackoff,
	}, nil
}

// exponentialBackoff 1s, 2s, 4s ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(1<<attempt) * time.Second
}

// Embed 生成文本嵌入向量，失败时指数退避重试
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := c.limiter.wait(ctx); err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt < embedAttempts; attempt++ {
		resp, err := c.client.Models.EmbedContent(ctx, c.embedModel,
			[]*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}, nil)
		if err != nil {
			lastErr = err
			slog.Warn("embed failed, retrying", "model", c.embedModel, "attempt", attempt+1, "error", err)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
			continue
		}
		if len(resp.Embeddings) == 0 {
			return nil, ErrEmptyEmbedding
		}
		return resp.Embeddings[0].Values, nil
	}
	return nil, fmt.Errorf("embed failed after %d attempts: %w", embedAttempts, lastErr)
}

// EmbedFunc 返回一个可用于 chromem-go 的 embedding 函数
func (c *Client) EmbedFunc() func(ctx context.Context, text string) ([]float32, error) {
	return c.Embed
}
