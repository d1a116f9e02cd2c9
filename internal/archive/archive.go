package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/liao/chat-cloud/internal/parser"
)

var ErrNotFound = errors.New("record not found")

const (
	msgPrefix = "msg:"
	idPrefix  = "id:"
)

// recordNamespace 用于生成确定性的记录 ID
var recordNamespace = uuid.MustParse("6f1c0a52-9a1e-4f3b-8c51-2d7c3e1b9a40")

// Record 一条归档消息。同一文件同一位置的消息 ID 固定，重复导入会覆盖。
type Record struct {
	ID      uuid.UUID
	Source  string
	Seq     int
	Message parser.ChatMessage
}

type recordValue struct {
	ID      uuid.UUID          `json:"id"`
	Source  string             `json:"source"`
	Seq     int                `json:"seq"`
	At      time.Time          `json:"at"`
	Message parser.ChatMessage `json:"message"`
}

// Filter List 的过滤条件，零值表示不过滤。Since 包含，Until 不包含。
type Filter struct {
	SenderID string
	Since    time.Time
	Until    time.Time
	Limit    int
}

type Archive struct {
	db *badger.DB
}

// Open 打开或创建 dir 下的 badger 数据库
func Open(dir string) (*Archive, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

func (a *Archive) Close() error {
	return a.db.Close()
}

func RecordID(source string, seq int, msg parser.ChatMessage) uuid.UUID {
	name := source + "\x00" + strconv.Itoa(seq) + "\x00" +
		msg.Timestamp.Format(parser.DateLayout) + "\x00" + msg.SenderID
	return uuid.NewSHA1(recordNamespace, []byte(name))
}

func primaryKey(r Record) []byte {
	return fmt.Appendf(nil, "%s%019d:%s", msgPrefix, r.Message.Timestamp.Unix(), r.ID)
}

func secondaryKey(id uuid.UUID) []byte {
	return []byte(idPrefix + id.String())
}

// Import 批量写入一个文件解析出的消息，返回写入条数
func (a *Archive) Import(source string, msgs []parser.ChatMessage) (int, error) {
	wb := a.db.NewWriteBatch()
	defer wb.Cancel()

	for _, r := range Records(source, msgs) {
		data, err := json.Marshal(recordValue{
			ID: r.ID, Source: r.Source, Seq: r.Seq, At: r.Message.Timestamp, Message: r.Message,
		})
		if err != nil {
			return 0, fmt.Errorf("encode record %d: %w", r.Seq, err)
		}
		key := primaryKey(r)
		if err := wb.Set(key, data); err != nil {
			return 0, fmt.Errorf("write record %d: %w", r.Seq, err)
		}
		if err := wb.Set(secondaryKey(r.ID), key); err != nil {
			return 0, fmt.Errorf("write index %d: %w", r.Seq, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, fmt.Errorf("flush import: %w", err)
	}

	slog.Debug("archived messages", "source", source, "count", len(msgs))
	return len(msgs), nil
}

// Records 把消息包装成 Record，不写库
func Records(source string, msgs []parser.ChatMessage) []Record {
	out := make([]Record, len(msgs))
	for i, msg := range msgs {
		out[i] = Record{ID: RecordID(source, i, msg), Source: source, Seq: i, Message: msg}
	}
	return out
}

func (a *Archive) Get(id uuid.UUID) (Record, error) {
	var r Record
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(secondaryKey(id))
		if err != nil {
			return err
		}
		key, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		item, err = txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(v []byte) error {
			r, err = decodeRecord(v)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get record %s: %w", id, err)
	}
	return r, nil
}

// List 按时间顺序扫描
func (a *Archive) List(f Filter) ([]Record, error) {
	var records []Record
	prefix := []byte(msgPrefix)

	err := a.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		seek := prefix
		if !f.Since.IsZero() {
			seek = fmt.Appendf(nil, "%s%019d", msgPrefix, f.Since.Unix())
		}

		for it.Seek(seek); it.ValidForPrefix(prefix); it.Next() {
			if f.Limit > 0 && len(records) == f.Limit {
				break
			}
			var r Record
			err := it.Item().Value(func(v []byte) error {
				var err error
				r, err = decodeRecord(v)
				return err
			})
			if err != nil {
				return err
			}
			if !f.Until.IsZero() && !r.Message.Timestamp.Before(f.Until) {
				break
			}
			if f.SenderID != "" && r.Message.SenderID != f.SenderID {
				continue
			}
			records = append(records, r)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (a *Archive) Count() (int, error) {
	n := 0
	prefix := []byte(msgPrefix)
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

func decodeRecord(data []byte) (Record, error) {
	var v recordValue
	if err := json.Unmarshal(data, &v); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	msg := v.Message
	// date 字段不带时区，用 at 还原
	msg.Timestamp = v.At
	return Record{ID: v.ID, Source: v.Source, Seq: v.Seq, Message: msg}, nil
}

// badgerLogger 把 badger 的日志转到 slog，info 降为 debug
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error("badger: " + trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn("badger: " + trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug("badger: " + trimNewline(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...any) {
	slog.Debug("badger: " + trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(s string) string {
	return strings.TrimSuffix(s, "\n")
}
