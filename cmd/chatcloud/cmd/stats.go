package cmd

import (
	"cmp"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/liao/chat-cloud/internal/corpus"
	"github.com/liao/chat-cloud/internal/parser"
)

var statsOpts struct {
	inputs     []string
	gap        time.Duration
	topSenders int
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print message, sender, language and session statistics",
	RunE:  runStats,
}

func init() {
	f := statsCmd.Flags()
	f.StringSliceVarP(&statsOpts.inputs, "input", "i", nil, "chat history txt files (repeatable)")
	f.DurationVar(&statsOpts.gap, "gap", 30*time.Minute, "silence that starts a new session")
	f.IntVar(&statsOpts.topSenders, "top-senders", 10, "number of senders to list")
	_ = statsCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(statsCmd)
}

type fileStats struct {
	path     string
	msgs     []parser.ChatMessage
	sessions int
	err      error
}

// parseAll 每个文件一个 goroutine，结果按输入顺序返回
func parseAll(paths []string, gap time.Duration) []fileStats {
	results := make([]fileStats, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func() {
			defer wg.Done()
			msgs, err := parseChat(path)
			results[i] = fileStats{
				path:     path,
				msgs:     msgs,
				sessions: len(corpus.SplitSessions(msgs, gap)),
				err:      err,
			}
		}()
	}
	wg.Wait()
	return results
}

func runStats(cmd *cobra.Command, _ []string) error {
	if statsOpts.topSenders < 0 {
		return fmt.Errorf("--top-senders %d: %w", statsOpts.topSenders, errNegativeCount)
	}
	out := cmd.OutOrStdout()
	results := parseAll(statsOpts.inputs, statsOpts.gap)

	var errs []error
	var all []parser.ChatMessage
	files := newTable(out, "File", "Messages", "Sessions")
	for _, r := range results {
		if r.err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.path, r.err))
			continue
		}
		all = append(all, r.msgs...)
		files.Append([]string{r.path, strconv.Itoa(len(r.msgs)), strconv.Itoa(r.sessions)})
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	files.Render()
	fmt.Fprintln(out)

	senders := newTable(out, "Sender", "Messages")
	stats := corpus.SenderStats(all)
	for _, s := range stats[:min(len(stats), statsOpts.topSenders)] {
		senders.Append([]string{s.SenderID, strconv.Itoa(s.Count)})
	}
	senders.Render()
	fmt.Fprintln(out)

	cleaner, err := corpus.NewCleaner(cfg.Cloud.NoisePhrases, cfg.Cloud.StripMarkup)
	if err != nil {
		return err
	}
	langs := corpus.LanguageStats(corpus.Corpus(all, cleaner))
	codes := slices.SortedFunc(maps.Keys(langs), func(a, b string) int {
		return cmp.Or(cmp.Compare(langs[b], langs[a]), cmp.Compare(a, b))
	})
	languages := newTable(out, "Language", "Messages")
	for _, code := range codes {
		languages.Append([]string{code, strconv.Itoa(langs[code])})
	}
	languages.Render()
	return nil
}
