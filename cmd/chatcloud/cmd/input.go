package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/liao/chat-cloud/internal/parser"
)

var (
	errNotText         = errors.New("input is not a text file")
	errUnsupportedMask = errors.New("mask must be a PNG or JPEG image")
	errNegativeCount   = errors.New("count must not be negative")
)

var (
	success = color.New(color.FgGreen)
	notice  = color.New(color.FgYellow)
)

// checkTextInput 聊天记录必须是 text/plain 或其子类型
func checkTextInput(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect %s: %w", path, err)
	}
	for m := mt; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return nil
		}
	}
	return fmt.Errorf("%s (%s): %w", path, mt.String(), errNotText)
}

func checkMaskInput(path string) error {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return fmt.Errorf("detect %s: %w", path, err)
	}
	if !mt.Is("image/png") && !mt.Is("image/jpeg") {
		return fmt.Errorf("%s (%s): %w", path, mt.String(), errUnsupportedMask)
	}
	return nil
}

// parseChat 检查类型后按配置的时区解析
func parseChat(path string) ([]parser.ChatMessage, error) {
	if err := checkTextInput(path); err != nil {
		return nil, err
	}
	loc, err := cfg.Parser.Location()
	if err != nil {
		return nil, err
	}
	msgs, err := parser.ParseTextFile(path, parser.WithLocation(loc))
	if err != nil {
		return nil, err
	}
	slog.Debug("parsed chat history", "file", path, "messages", len(msgs))
	return msgs, nil
}

func writeDump(path string, msgs []parser.ChatMessage) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dump: %w", err)
	}
	if err := parser.WriteJSON(f, msgs); err != nil {
		f.Close()
		return fmt.Errorf("write dump: %w", err)
	}
	return f.Close()
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

// truncate 表格里的长消息截断显示
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
