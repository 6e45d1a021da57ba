package tributary

import (
	"log/slog"

	"github.com/birdayz/tributary/internal/execution"
)

// Option is a function that configures a run
type Option func(*config)

type config struct {
	log        *slog.Logger
	bufferSize int
	output     OutputHandler
}

func newConfig(opts []Option) *config {
	c := &config{
		log:        NullLogger(),
		bufferSize: execution.DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OutputHandler receives every value of a root node as it is produced.
// Returning an error fails the run.
type OutputHandler = execution.OutputHandler

// WithLog sets the logger for the run
var WithLog = func(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithBufferSize sets how many unread values a node may queue for its fastest
// consumer before it waits. Slower consumers queue whatever they have not
// read yet. Values below one use the default of one.
var WithBufferSize = func(n int) Option {
	return func(c *config) {
		c.bufferSize = n
	}
}

// WithOutputHandler streams root values to fn instead of collecting them.
var WithOutputHandler = func(fn OutputHandler) Option {
	return func(c *config) {
		c.output = fn
	}
}

// NullWriter is a writer that discards all data
type NullWriter struct{}

func (NullWriter) Write(p []byte) (int, error) { return len(p), nil }

// NullLogger creates a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
