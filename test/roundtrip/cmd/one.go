package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"github.com/zostay/go-mailstream/message"
	"github.com/zostay/go-mailstream/newline"
	"github.com/zostay/go-mailstream/transport"
)

var (
	oneCmd = &cobra.Command{
		Use:   "one message",
		Short: "Shows the diff of a single message before and after normalization",
		Args:  cobra.ExactArgs(1),
		RunE:  RunOne,
	}

	style string
)

// ErrModeMismatch is returned when stream mode and buffer mode disagree about
// the normalized message.
var ErrModeMismatch = errors.New("stream and buffer output differ")

// visible spells out line endings so they show up in a diff.
var visible = strings.NewReplacer(
	"\r\n", "\\r\\n\n",
	"\r", "\\r\n",
	"\n", "\\n\n",
)

func init() {
	oneCmd.Flags().StringVarP(&style, "newline", "n", string(newline.Unix), "line ending style: unix or windows")
	rootCmd.AddCommand(oneCmd)
}

// send parses raw and sends it through a transport in the given mode,
// returning the normalized bytes.
func send(ctx context.Context, raw []byte, c transport.Config) ([]byte, error) {
	t, err := transport.New(c)
	if err != nil {
		return nil, err
	}

	m, err := message.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}

	res, err := t.Send(ctx, &transport.Request{Message: m})
	if err != nil {
		return nil, err
	}

	if res.Buffered() {
		return res.Buffer, nil
	}

	defer func() { _ = res.Stream.Close() }()
	return io.ReadAll(res.Stream)
}

// lineDiff returns a line by line diff of a and b.
func lineDiff(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lines := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lines)
}

// printDiff writes the diff with a -, +, or space in front of every line.
func printDiff(w io.Writer, diffs []diffmatchpatch.Diff) {
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			_, _ = fmt.Fprint(w, prefix, line)
		}
	}
}

func RunOne(cmd *cobra.Command, args []string) error {
	path := args[0]
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	s, err := newline.ParseStyle(style)
	if err != nil {
		return err
	}

	streamed, err := send(cmd.Context(), raw, transport.Config{Newline: s})
	if err != nil {
		return err
	}

	buffered, err := send(cmd.Context(), raw, transport.Config{Newline: s, Buffer: true})
	if err != nil {
		return err
	}

	if !bytes.Equal(streamed, buffered) {
		return ErrModeMismatch
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "path    = %s\n", path)
	_, _ = fmt.Fprintf(out, "newline = %s\n", s)
	printDiff(out, lineDiff(visible.Replace(string(raw)), visible.Replace(string(streamed))))

	return nil
}
