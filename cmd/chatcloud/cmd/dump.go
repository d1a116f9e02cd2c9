package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dumpOpts struct {
	input  string
	output string
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Parse a chat history file and write it as JSON",
	RunE:  runDump,
}

func init() {
	dumpCmd.Flags().StringVarP(&dumpOpts.input, "input", "i", "", "chat history txt file")
	dumpCmd.Flags().StringVarP(&dumpOpts.output, "output", "o", "dump.json", "path for json output")
	_ = dumpCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(dumpCmd)
}

func runDump(cmd *cobra.Command, _ []string) error {
	msgs, err := parseChat(dumpOpts.input)
	if err != nil {
		return err
	}
	if err := writeDump(dumpOpts.output, msgs); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d messages\n", len(msgs))
	fmt.Fprintln(cmd.OutOrStdout(), success.Sprintf("json file saved to %s", dumpOpts.output))
	return nil
}
