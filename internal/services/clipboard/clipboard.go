// Package clipboard copies rendered change trees to the system clipboard.
package clipboard

import (
	"strings"

	"github.com/atotto/clipboard"
)

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct{}

// NewService constructs a Clipboard service implementation.
func NewService() *Service {
	return &Service{}
}

// Copy writes text to the system clipboard with a single trailing newline.
func (service *Service) Copy(text string) error {
	return clipboard.WriteAll(strings.TrimRight(text, "\n") + "\n")
}

// Recorder is a Copier that keeps the copied text in memory.
type Recorder struct {
	Copied []string
}

// Copy records text.
func (recorder *Recorder) Copy(text string) error {
	recorder.Copied = append(recorder.Copied, text)
	return nil
}

var (
	_ Copier = (*Service)(nil)
	_ Copier = (*Recorder)(nil)
)
