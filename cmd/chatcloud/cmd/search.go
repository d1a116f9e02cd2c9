package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/parser"
	"github.com/liao/chat-cloud/internal/search"
)

var searchOpts struct {
	sender string
	limit  int
}

var searchCmd = &cobra.Command{
	Use:   "search TERMS...",
	Short: "Keyword search over imported messages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchOpts.sender, "sender", "", "only messages from this QQ number or email")
	searchCmd.Flags().IntVar(&searchOpts.limit, "limit", 20, "maximum number of hits")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx, cancel := setupContext(cmd)
	defer cancel()

	idx, err := search.Open(cfg.Search.Dir)
	if err != nil {
		return err
	}
	defer idx.Close()

	hits, err := idx.Search(ctx, search.Query{
		Text:     strings.Join(args, " "),
		SenderID: searchOpts.sender,
		Limit:    searchOpts.limit,
	})
	if err != nil {
		return err
	}
	if len(hits) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), notice.Sprint("no matches"))
		return nil
	}

	a, err := archive.Open(cfg.Archive.Dir)
	if err != nil {
		return err
	}
	defer a.Close()

	table := newTable(cmd.OutOrStdout(), "Date", "Sender", "Score", "Message")
	for _, h := range hits {
		date, sender, body := h.Date.Format(parser.DateLayout), h.SenderID, h.Message
		// 档案里的时间带原始时区
		r, err := a.Get(h.ID)
		switch {
		case err == nil:
			date, sender, body = r.Message.Timestamp.Format(parser.DateLayout), r.Message.SenderID, r.Message.Body
		case !errors.Is(err, archive.ErrNotFound):
			return err
		}
		table.Append([]string{date, sender, fmt.Sprintf("%.3f", h.Score), truncate(oneLine(body), 60)})
	}
	table.Render()
	return nil
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
