package corpus

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/liao/chat-cloud/internal/parser"
)

func TestCleaner_Clean(t *testing.T) {
	req := require.New(t)
	c, err := NewCleaner(DefaultNoisePhrases, false)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"placeholders removed", "[图片]好看[表情]", "好看"},
		{"only placeholder", "[图片]", ""},
		{"mention removed", "@张三 明天见", " 明天见"},
		{"unsupported notice strips brackets", "[请使用最新版手机QQ体验新功能]", ""},
		{"unsupported notice keeps inner text", "[戳一戳请使用最新版手机QQ体验新功能]", "戳一戳"},
		{"plain text untouched", "hello world", "hello world"},
		{"markup kept without strip", "<b>hi</b>", "<b>hi</b>"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, c.Clean(tt.input))
		})
	}
}

func TestCleaner_StripMarkup(t *testing.T) {
	req := require.New(t)
	c, err := NewCleaner(nil, true)
	req.NoError(err)

	req.Equal("hi there", c.Clean("<b>hi</b> there"))
	req.Equal("[图片]", c.Clean("[图片]"))
}

func TestCleaner_CustomPhrases(t *testing.T) {
	req := require.New(t)
	c, err := NewCleaner([]string{"[语音]", "[语音]", "", "撤回了一条消息"}, false)
	req.NoError(err)

	req.Equal("他", c.Clean("他撤回了一条消息"))
	req.Equal("ab", c.Clean("a[语音]b[语音]"))
}

func TestCorpus_SkipsSystemAndEmpty(t *testing.T) {
	req := require.New(t)
	c, err := NewCleaner(DefaultNoisePhrases, false)
	req.NoError(err)

	msgs := []parser.ChatMessage{
		{SenderID: "12345", Body: "你好"},
		{SenderID: SystemSenderID, Body: "你已被移出群聊"},
		{SenderID: "12345", Body: "[图片]"},
		{SenderID: "a@b.com", Body: "hi"},
	}
	req.Equal([]string{"你好", "hi"}, Corpus(msgs, c))
}

type splitTokenizer struct{}

func (splitTokenizer) Cut(text string) []string {
	return strings.SplitAfter(text, " ")
}

func TestTokenize(t *testing.T) {
	req := require.New(t)
	stop := Stopwords{"the ": {}}

	tokens := Tokenize([]string{"the cat  sat", "a cat"}, splitTokenizer{}, stop)
	req.Equal([]string{"cat ", "sat", "a ", "cat"}, tokens)

	req.Len(Tokenize([]string{"the cat"}, splitTokenizer{}, nil), 2)
}

func TestLoadStopwords(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "stop.txt")
	req.NoError(os.WriteFile(path, []byte("的\n  了 \n\nthe\n"), 0644))

	sw, err := LoadStopwords(path)
	req.NoError(err)
	req.True(sw.Contains("的"))
	req.True(sw.Contains("了"))
	req.True(sw.Contains("the"))
	req.False(sw.Contains("cat"))

	_, err = LoadStopwords(filepath.Join(t.TempDir(), "missing.txt"))
	req.ErrorIs(err, os.ErrNotExist)
}

func TestGseTokenizer(t *testing.T) {
	if testing.Short() {
		t.Skip("loads the full gse dictionary")
	}
	req := require.New(t)
	tok, err := NewGseTokenizer()
	req.NoError(err)

	text := "我们今天去公园散步 hello world"
	tokens := Tokenize([]string{text}, tok, nil)
	req.NotEmpty(tokens)
	req.Equal(strings.ReplaceAll(text, " ", ""), strings.ReplaceAll(strings.Join(tokens, ""), " ", ""))
}

func TestFrequenciesAndTop(t *testing.T) {
	req := require.New(t)
	freq := Frequencies([]string{"b", "a", "c", "a", "b", "a", "d"})
	req.Equal(map[string]int{"a": 3, "b": 2, "c": 1, "d": 1}, freq)

	req.Equal([]WordCount{{"a", 3}, {"b", 2}, {"c", 1}}, Top(freq, 3))
	req.Len(Top(freq, 0), 4)
	req.Empty(Top(nil, 5))
}

func TestSenderStats(t *testing.T) {
	req := require.New(t)
	msgs := []parser.ChatMessage{
		{SenderID: "22222"}, {SenderID: "11111"}, {SenderID: "22222"}, {SenderID: "33333"},
	}
	req.Equal([]SenderCount{{"22222", 2}, {"11111", 1}, {"33333", 1}}, SenderStats(msgs))
}

func TestLanguageStats(t *testing.T) {
	req := require.New(t)
	stats := LanguageStats([]string{
		"今天天气很好，我们一起去公园散步吧",
		"明天见",
		"12345",
	})
	req.Equal(2, stats["zh"])
	req.Equal(1, stats[UndeterminedLanguage])
}

func TestSplitSessions(t *testing.T) {
	req := require.New(t)
	base := time.Date(2023, 1, 1, 10, 0, 0, 0, time.UTC)
	at := func(min int) parser.ChatMessage {
		return parser.ChatMessage{Timestamp: base.Add(time.Duration(min) * time.Minute), SenderID: "12345"}
	}

	msgs := []parser.ChatMessage{at(0), at(5), at(10), at(60), at(120), at(125)}
	sessions := SplitSessions(msgs, 30*time.Minute)
	req.Len(sessions, 2)
	req.Len(sessions[0].Messages, 3)
	req.Equal(base, sessions[0].StartAt)
	req.Equal(base.Add(10*time.Minute), sessions[0].EndAt)
	req.Len(sessions[1].Messages, 2)
	req.Equal(base.Add(125*time.Minute), sessions[1].EndAt)

	req.Nil(SplitSessions(nil, time.Minute))
}
