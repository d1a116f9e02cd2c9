package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// DateLayout 导出时使用的时间格式
const DateLayout = "2006-01-02 15:04:05"

// ChatMessage 单条聊天消息
type ChatMessage struct {
	Timestamp time.Time
	SenderID  string // QQ 号或邮箱
	Body      string
}

// chatMessageJSON 序列化格式: {"date", "sender_id", "message"}
type chatMessageJSON struct {
	Date     string `json:"date"`
	SenderID string `json:"sender_id"`
	Message  string `json:"message"`
}

func (m ChatMessage) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	err := enc.Encode(chatMessageJSON{
		Date:     m.Timestamp.Format(DateLayout),
		SenderID: m.SenderID,
		Message:  m.Body,
	})
	if err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (m *ChatMessage) UnmarshalJSON(data []byte) error {
	var raw chatMessageJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ts, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", raw.Date, err)
	}
	*m = ChatMessage{
		Timestamp: ts,
		SenderID:  raw.SenderID,
		Body:      raw.Message,
	}
	return nil
}

// WriteJSON 以 4 空格缩进写出消息列表，不转义 HTML 字符，末尾不加换行
func WriteJSON(w io.Writer, msgs []ChatMessage) error {
	if msgs == nil {
		msgs = []ChatMessage{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(msgs); err != nil {
		return err
	}
	_, err := w.Write(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return err
}
