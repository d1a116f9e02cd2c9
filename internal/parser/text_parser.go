package parser

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// 消息头: "2023-01-01 10:00:00 张三(123456789)"，小时可以是一位
var headerRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{1,2}:\d{2}:\d{2}`)

// identityMatcher 从消息头提取发送者标识
type identityMatcher struct {
	name string
	re   *regexp.Regexp
}

// 按顺序尝试，先匹配的生效
var identityMatchers = []identityMatcher{
	{name: "qq", re: regexp.MustCompile(`\((\d{5,12})\)`)},
	{name: "email", re: regexp.MustCompile(`<([A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,7})>`)},
}

type options struct {
	loc *time.Location
}

// Option 调整解析行为
type Option func(*options)

// WithLocation 指定时间戳所在时区，默认 UTC
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// ParseTextFile 解析 QQ 导出的 txt 聊天记录
func ParseTextFile(path string, opts ...Option) ([]ChatMessage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ParseText(f, opts...)
}

// ParseText 读取全部行后逐行扫描。消息头的下一行是消息正文；
// 文件最后一行如果是消息头则直接丢弃，不报错。
func ParseText(r io.Reader, opts ...Option) ([]ChatMessage, error) {
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	s := &scan{lines: lines, loc: o.loc}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.msgs, nil
}

// readLines 按 UTF-8 解码（有 BOM 时去掉 BOM）并整体读入。
// \n、\r\n 和单独的 \r 都算换行，行长度不设上限。
func readLines(r io.Reader) ([]string, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	data, err := io.ReadAll(decoded)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	text := newlineReplacer.Replace(string(data))
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	return lines, nil
}

var newlineReplacer = strings.NewReplacer("\r\n", "\n", "\r", "\n")

type scanState int

const (
	seekingHeader scanState = iota
	consumedBody
)

// scan 单次解析的状态，不在多次调用之间共享
type scan struct {
	lines  []string
	cursor int
	state  scanState
	loc    *time.Location
	msgs   []ChatMessage
}

func (s *scan) run() error {
	for s.cursor < len(s.lines) {
		switch s.state {
		case seekingHeader:
			if isHeader(s.lines[s.cursor]) && s.hasNext() {
				msg, err := s.message()
				if err != nil {
					return err
				}
				s.msgs = append(s.msgs, msg)
				s.state = consumedBody
			}
		case consumedBody:
			// 正文行不再当作消息头检查
			s.state = seekingHeader
		}
		s.cursor++
	}
	return nil
}

func (s *scan) hasNext() bool {
	return s.cursor+1 < len(s.lines)
}

// message 解析当前消息头，正文取下一行
func (s *scan) message() (ChatMessage, error) {
	header := s.lines[s.cursor]

	ts, err := extractTimestamp(header, s.loc)
	if err != nil {
		return ChatMessage{}, &ParseError{Line: s.cursor, Content: header, Err: err}
	}
	id, err := extractSenderID(header)
	if err != nil {
		return ChatMessage{}, &ParseError{Line: s.cursor, Content: header, Err: err}
	}

	return ChatMessage{
		Timestamp: ts,
		SenderID:  id,
		Body:      strings.TrimSpace(s.lines[s.cursor+1]),
	}, nil
}

func isHeader(line string) bool {
	return headerRe.MatchString(line)
}

func extractTimestamp(line string, loc *time.Location) (time.Time, error) {
	raw := headerRe.FindString(line)
	if raw == "" {
		return time.Time{}, ErrMissingDate
	}
	ts, err := time.ParseInLocation(DateLayout, raw, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMissingDate, err)
	}
	return ts, nil
}

func extractSenderID(line string) (string, error) {
	for _, m := range identityMatchers {
		if matches := m.re.FindStringSubmatch(line); matches != nil {
			return matches[1], nil
		}
	}
	return "", ErrMissingIdentity
}
