package corpus

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/go-ego/gse"
)

// Tokenizer 分词
type Tokenizer interface {
	Cut(text string) []string
}

// GseTokenizer 基于 gse 的中文分词，HMM 模式
type GseTokenizer struct {
	seg gse.Segmenter
}

// NewGseTokenizer 不传词典文件时加载 gse 自带词典
func NewGseTokenizer(dictFiles ...string) (*GseTokenizer, error) {
	t := &GseTokenizer{}
	if err := t.seg.LoadDict(dictFiles...); err != nil {
		return nil, fmt.Errorf("load dictionary: %w", err)
	}
	return t, nil
}

func (t *GseTokenizer) Cut(text string) []string {
	return t.seg.Cut(text, true)
}

// Stopwords 停用词集合
type Stopwords map[string]struct{}

func (s Stopwords) Contains(word string) bool {
	_, ok := s[word]
	return ok
}

// LoadStopwords 每行一个停用词
func LoadStopwords(path string) (Stopwords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stopwords: %w", err)
	}
	defer f.Close()

	words := make(Stopwords)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		words[strings.TrimSpace(scanner.Text())] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan stopwords: %w", err)
	}
	return words, nil
}

// Tokenize 分词并去掉空白和停用词，stopwords 可以为 nil
func Tokenize(texts []string, t Tokenizer, stopwords Stopwords) []string {
	var tokens []string
	for _, text := range texts {
		for _, tok := range t.Cut(text) {
			if strings.TrimSpace(tok) == "" || stopwords.Contains(tok) {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
