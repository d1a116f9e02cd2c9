package parser

import (
	"errors"
	"fmt"
)

var (
	ErrMissingDate     = errors.New("missing date")
	ErrMissingIdentity = errors.New("missing sender identity")
)

// ParseError 标记出错的行（从 0 开始）和原始内容
type ParseError struct {
	Line    int
	Content string
	Err     error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, e.Content)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
