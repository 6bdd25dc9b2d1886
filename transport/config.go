package transport

import (
	"errors"
	"fmt"
	"io"

	units "github.com/docker/go-units"
	"github.com/rs/zerolog"
	yaml "gopkg.in/yaml.v2"

	"github.com/zostay/go-mailstream/newline"
)

// DefaultChunkSize is the number of bytes read from a message source at a time
// when the Config does not say otherwise.
const DefaultChunkSize = newline.DefaultChunkSize

// MaxChunkSize is the largest chunk size a Transport accepts.
const MaxChunkSize = 64 * units.MiB

// ErrChunkSize is returned by New when the configured chunk size is negative
// or larger than MaxChunkSize.
var ErrChunkSize = errors.New("chunk size must be between 0 and 64MiB")

// CheckChunkSize returns an error wrapping ErrChunkSize if n may not be used
// as a chunk size. It takes an int64 so sizes parsed by go-units can be checked
// before they are converted to int.
func CheckChunkSize(n int64) error {
	if n < 0 || n > MaxChunkSize {
		return fmt.Errorf("%w: got %d", ErrChunkSize, n)
	}
	return nil
}

// Config holds the settings of a Transport. The zero value is a working
// configuration: Unix line endings, stream mode, DefaultChunkSize, and no
// logging.
type Config struct {
	// Newline is the line ending style every line ending is rewritten to.
	Newline newline.Style `yaml:"newline"`

	// Buffer selects buffer mode, where Send reads the whole message before
	// returning it in Result.Buffer. Otherwise, Result.Stream is returned right
	// away.
	Buffer bool `yaml:"buffer"`

	// ChunkSize is the number of bytes read from the message source at a time.
	// Zero means DefaultChunkSize.
	ChunkSize int `yaml:"chunk_size"`

	// Logger receives a debug entry for every message sent and an error entry
	// for every message source that fails. Nil disables logging.
	Logger *zerolog.Logger `yaml:"-"`
}

// UnmarshalYAML reads the config from YAML. The chunk_size may be given as a
// plain number of bytes or as a size such as "16k" or "1MB".
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw struct {
		Newline   string `yaml:"newline"`
		Buffer    bool   `yaml:"buffer"`
		ChunkSize string `yaml:"chunk_size"`
	}

	err := unmarshal(&raw)
	if err != nil {
		return fmt.Errorf("can't parse the transport config: %w", err)
	}

	style, err := newline.ParseStyle(raw.Newline)
	if err != nil {
		return err
	}

	var chunkSize int64
	if raw.ChunkSize != "" {
		chunkSize, err = units.RAMInBytes(raw.ChunkSize)
		if err != nil {
			return fmt.Errorf("can't parse chunk_size %q: %w", raw.ChunkSize, err)
		}
		if err := CheckChunkSize(chunkSize); err != nil {
			return err
		}
	}

	c.Newline = style
	c.Buffer = raw.Buffer
	c.ChunkSize = int(chunkSize)
	return nil
}

// LoadConfig reads a Config from YAML. An empty document results in the
// default Config.
func LoadConfig(r io.Reader) (Config, error) {
	var c Config
	err := yaml.NewDecoder(r).Decode(&c)
	if err != nil && !errors.Is(err, io.EOF) {
		return Config{}, err
	}
	return c, nil
}
