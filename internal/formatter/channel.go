package formatter

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Channel names an output stream.
type Channel int

const (
	// Primary carries normal output.
	Primary Channel = iota
	// Failure carries diagnostics about failed results.
	Failure
	// Error carries errors from the formatter or the run itself.
	Error

	// All is a CaptureSink read key selecting the aggregate buffer. It is
	// not a writable channel.
	All
)

func (c Channel) String() string {
	switch c {
	case Primary:
		return "primary"
	case Failure:
		return "failure"
	case Error:
		return "error"
	case All:
		return "all"
	default:
		return fmt.Sprintf("Channel(%d)", int(c))
	}
}

func (c Channel) writable() bool {
	return c >= Primary && c <= Error
}

// Sink receives rendered output.
type Sink interface {
	Write(ch Channel, p []byte) error
}

// StreamSink writes each channel to an io.Writer. By default Primary and
// Failure go to stdout and Error to stderr.
type StreamSink struct {
	writers [3]io.Writer
}

// NewStreamSink returns a StreamSink with the default stdout/stderr split.
func NewStreamSink() *StreamSink {
	return &StreamSink{writers: [3]io.Writer{os.Stdout, os.Stdout, os.Stderr}}
}

// Redirect sends ch to w from now on.
func (s *StreamSink) Redirect(ch Channel, w io.Writer) {
	if !ch.writable() {
		panic(fmt.Sprintf("formatter: cannot redirect %s", ch))
	}
	s.writers[ch] = w
}

// Write implements Sink.
func (s *StreamSink) Write(ch Channel, p []byte) error {
	if !ch.writable() {
		return fmt.Errorf("formatter: write to %s", ch)
	}
	w := s.writers[ch]
	if w == nil {
		return nil
	}
	_, err := w.Write(p)
	return err
}

// CaptureSink accumulates output in memory: one buffer per channel plus an
// aggregate of everything in write order.
type CaptureSink struct {
	bufs [3]bytes.Buffer
	all  bytes.Buffer
}

// Write implements Sink.
func (c *CaptureSink) Write(ch Channel, p []byte) error {
	if !ch.writable() {
		return fmt.Errorf("formatter: write to %s", ch)
	}
	c.bufs[ch].Write(p)
	c.all.Write(p)
	return nil
}

// Read returns and clears the buffer named by key. Reading All returns the
// aggregate and clears all four buffers.
func (c *CaptureSink) Read(key Channel) string {
	if key == All {
		out := c.all.String()
		c.all.Reset()
		for i := range c.bufs {
			c.bufs[i].Reset()
		}
		return out
	}
	if !key.writable() {
		return ""
	}
	out := c.bufs[key].String()
	c.bufs[key].Reset()
	return out
}
