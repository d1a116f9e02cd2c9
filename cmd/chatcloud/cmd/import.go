package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/liao/chat-cloud/internal/archive"
	"github.com/liao/chat-cloud/internal/search"
)

var importOpts struct {
	input string
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Archive a chat history file and index it for search",
	Long: `Parses the file, stores every message in the archive and adds it to the
full-text index. Importing the same file again overwrites the earlier copy.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importOpts.input, "input", "i", "", "chat history txt file")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	msgs, err := parseChat(importOpts.input)
	if err != nil {
		return err
	}
	source := filepath.Base(importOpts.input)

	a, err := archive.Open(cfg.Archive.Dir)
	if err != nil {
		return err
	}
	defer a.Close()

	n, err := a.Import(source, msgs)
	if err != nil {
		return err
	}

	idx, err := search.Open(cfg.Search.Dir)
	if err != nil {
		return err
	}
	defer idx.Close()

	if err := idx.Add(archive.Records(source, msgs)); err != nil {
		return err
	}

	total, err := a.Count()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), success.Sprintf("imported %d messages from %s (%d archived)", n, source, total))
	return nil
}
