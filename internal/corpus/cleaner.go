package corpus

import (
	"regexp"
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"

	"github.com/liao/chat-cloud/internal/parser"
)

// SystemSenderID QQ 系统消息的发送者
const SystemSenderID = "10000"

// 电脑版 QQ 不支持的表情/功能会被替换成这句提示，外面包着一对方括号
const unsupportedNotice = "请使用最新版手机QQ体验新功能"

// DefaultNoisePhrases 默认去掉的占位符
var DefaultNoisePhrases = []string{"[图片]", "[表情]"}

var mentionRe = regexp.MustCompile(`@\S+`)

// Cleaner 清洗消息正文，用于词频统计
type Cleaner struct {
	matcher     *goahocorasick.Machine
	stripMarkup bool
}

// NewCleaner 用 Aho-Corasick 自动机一次匹配所有占位符
func NewCleaner(noisePhrases []string, stripMarkup bool) (*Cleaner, error) {
	phrases := lo.Uniq(lo.Filter(noisePhrases, func(p string, _ int) bool { return p != "" }))
	slices.Sort(phrases)

	c := &Cleaner{stripMarkup: stripMarkup}
	if len(phrases) == 0 {
		return c, nil
	}

	patterns := make([][]rune, len(phrases))
	for i, p := range phrases {
		patterns[i] = []rune(p)
	}
	m := new(goahocorasick.Machine)
	if err := m.Build(patterns); err != nil {
		return nil, err
	}
	c.matcher = m
	return c, nil
}

// Clean 去掉占位符、@提及和不支持功能的提示
func (c *Cleaner) Clean(body string) string {
	s := c.removeNoise(body)
	s = mentionRe.ReplaceAllString(s, "")

	if strings.Contains(s, unsupportedNotice) {
		s = strings.ReplaceAll(s, unsupportedNotice, "")
		r := []rune(s)
		if len(r) < 2 {
			s = ""
		} else {
			s = string(r[1 : len(r)-1]) // 去掉方括号
		}
	}

	if c.stripMarkup && strings.Contains(s, "<") {
		s = plainText(s)
	}
	return s
}

func (c *Cleaner) removeNoise(s string) string {
	if c.matcher == nil || s == "" {
		return s
	}
	runes := []rune(s)
	terms := c.matcher.MultiPatternSearch(runes, false)
	if len(terms) == 0 {
		return s
	}

	drop := make([]bool, len(runes))
	for _, t := range terms {
		end := t.Pos + len(t.Word)
		if t.Pos < 0 || end > len(runes) {
			continue
		}
		for i := t.Pos; i < end; i++ {
			drop[i] = true
		}
	}

	var b strings.Builder
	for i, r := range runes {
		if !drop[i] {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// plainText 提取内嵌 HTML 的纯文本，解析失败时原样返回
func plainText(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// Corpus 过滤系统消息，返回清洗后非空的正文
func Corpus(msgs []parser.ChatMessage, c *Cleaner) []string {
	var texts []string
	for _, m := range msgs {
		if m.SenderID == SystemSenderID {
			continue
		}
		if s := c.Clean(m.Body); s != "" {
			texts = append(texts, s)
		}
	}
	return texts
}
