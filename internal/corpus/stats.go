package corpus

import (
	"cmp"
	"slices"
	"time"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"github.com/liao/chat-cloud/internal/parser"
)

// WordCount 词频
type WordCount struct {
	Word  string
	Count int
}

// Frequencies 统计词频
func Frequencies(tokens []string) map[string]int {
	return lo.CountValues(tokens)
}

// Top 按次数降序、词升序取前 n 个，n <= 0 表示全部
func Top(freq map[string]int, n int) []WordCount {
	words := lo.MapToSlice(freq, func(w string, c int) WordCount {
		return WordCount{Word: w, Count: c}
	})
	slices.SortFunc(words, func(a, b WordCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Word, b.Word)
	})
	if n > 0 && len(words) > n {
		words = words[:n]
	}
	return words
}

// SenderCount 每个发送者的消息数
type SenderCount struct {
	SenderID string
	Count    int
}

func SenderStats(msgs []parser.ChatMessage) []SenderCount {
	counts := lo.CountValuesBy(msgs, func(m parser.ChatMessage) string { return m.SenderID })
	stats := lo.MapToSlice(counts, func(id string, c int) SenderCount {
		return SenderCount{SenderID: id, Count: c}
	})
	slices.SortFunc(stats, func(a, b SenderCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.SenderID, b.SenderID)
	})
	return stats
}

// UndeterminedLanguage 识别不出语言时的代码
const UndeterminedLanguage = "und"

const minLanguageConfidence = 0.5

// LanguageStats 按 ISO 639-1 统计每种语言的消息数
func LanguageStats(texts []string) map[string]int {
	stats := make(map[string]int)
	for _, t := range texts {
		stats[detectLanguage(t)]++
	}
	return stats
}

func detectLanguage(text string) string {
	info := whatlanggo.Detect(text)
	if info.Script == nil || info.Confidence < minLanguageConfidence {
		return UndeterminedLanguage
	}
	code := info.Lang.Iso6391()
	if code == "" {
		return UndeterminedLanguage
	}
	return code
}

// Session 一段连续的对话（按时间间隔切分）
type Session struct {
	Messages []parser.ChatMessage
	StartAt  time.Time
	EndAt    time.Time
}

// SplitSessions 相邻消息间隔超过 gap 时切开，少于 2 条的片段丢弃
func SplitSessions(msgs []parser.ChatMessage, gap time.Duration) []Session {
	if len(msgs) == 0 {
		return nil
	}

	var sessions []Session
	current := Session{StartAt: msgs[0].Timestamp}

	for i, msg := range msgs {
		if i > 0 && msg.Timestamp.Sub(msgs[i-1].Timestamp) > gap {
			current.EndAt = msgs[i-1].Timestamp
			if len(current.Messages) >= 2 {
				sessions = append(sessions, current)
			}
			current = Session{StartAt: msg.Timestamp}
		}
		current.Messages = append(current.Messages, msg)
	}

	if len(current.Messages) >= 2 {
		current.EndAt = current.Messages[len(current.Messages)-1].Timestamp
		sessions = append(sessions, current)
	}
	return sessions
}
