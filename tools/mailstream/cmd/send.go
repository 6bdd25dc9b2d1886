package cmd

import (
	"fmt"
	"io"
	"os"

	units "github.com/docker/go-units"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/zostay/go-mailstream/message"
	"github.com/zostay/go-mailstream/newline"
	"github.com/zostay/go-mailstream/transport"
)

var (
	sendCmd = &cobra.Command{
		Use:   "send [message]",
		Short: "Normalize the line endings of a message and write it to stdout",
		Long: `Reads a message from the named file, or from stdin when no file is
given, rewrites every line ending to the chosen style, and writes the
message to stdout.`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunSend,
	}

	configPath   string
	newlineStyle string
	bufferMode   bool
	chunkSize    string
	showEnvelope bool
)

func init() {
	sendCmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML file holding the transport config")
	sendCmd.Flags().StringVarP(&newlineStyle, "newline", "n", string(newline.Unix), "line ending style: unix or windows")
	sendCmd.Flags().BoolVarP(&bufferMode, "buffer", "b", false, "read the whole message before writing any of it")
	sendCmd.Flags().StringVar(&chunkSize, "chunk-size", "16k", "bytes to read from the message at a time")
	sendCmd.Flags().BoolVarP(&showEnvelope, "envelope", "e", false, "print the envelope and Message-ID to stderr")
}

// sendConfig builds the transport config from the config file, if any, and
// then applies the flags that were set on the command line.
func sendConfig(cmd *cobra.Command) (transport.Config, error) {
	var c transport.Config
	if configPath != "" {
		f, err := os.Open(configPath)
		if err != nil {
			return c, fmt.Errorf("unable to open config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		c, err = transport.LoadConfig(f)
		if err != nil {
			return c, fmt.Errorf("unable to read config file %s: %w", configPath, err)
		}
	}

	flags := cmd.Flags()
	if configPath == "" || flags.Changed("newline") {
		style, err := newline.ParseStyle(newlineStyle)
		if err != nil {
			return c, err
		}
		c.Newline = style
	}

	if configPath == "" || flags.Changed("buffer") {
		c.Buffer = bufferMode
	}

	if configPath == "" || flags.Changed("chunk-size") {
		n, err := units.RAMInBytes(chunkSize)
		if err != nil {
			return c, fmt.Errorf("bad chunk size %q: %w", chunkSize, err)
		}
		if err := transport.CheckChunkSize(n); err != nil {
			return c, err
		}
		c.ChunkSize = int(n)
	}

	c.Logger = &log.Logger
	return c, nil
}

func RunSend(cmd *cobra.Command, args []string) error {
	c, err := sendConfig(cmd)
	if err != nil {
		return err
	}

	t, err := transport.New(c)
	if err != nil {
		return err
	}

	in := cmd.InOrStdin()
	if len(args) > 0 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		in = f
	}

	m, err := message.Parse(in)
	if err != nil {
		return fmt.Errorf("unable to parse message: %w", err)
	}

	res, err := t.Send(cmd.Context(), &transport.Request{Message: m})
	if err != nil {
		return err
	}

	if showEnvelope {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Envelope: %s\nMessage-ID: %s\n",
			res.Envelope, res.MessageID)
	}

	out := cmd.OutOrStdout()
	if res.Buffered() {
		_, err = out.Write(res.Buffer)
		return err
	}

	defer func() { _ = res.Stream.Close() }()
	_, err = io.Copy(out, res.Stream)
	return err
}
