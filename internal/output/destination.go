// Package output delivers prediction events to outside systems and writes
// parquet exports.
package output

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Destination is a topic-addressed message sink. Kafka producers and the
// console implement it.
type Destination interface {
	WriteMessage(topic string, msg []byte) error
	Close() error
}

type ConsoleOutput struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleOutput writes to w, or to stdout when w is nil.
func NewConsoleOutput(w io.Writer) *ConsoleOutput {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleOutput{w: w}
}

func (c *ConsoleOutput) WriteMessage(topic string, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := fmt.Fprintf(c.w, "[%s] %s\n", topic, msg); err != nil {
		return fmt.Errorf("failed to write to console: %w", err)
	}
	return nil
}

func (c *ConsoleOutput) Close() error {
	return nil
}
