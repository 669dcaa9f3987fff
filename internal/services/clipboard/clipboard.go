// Package clipboard copies rendered trees to the system clipboard.
package clipboard

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrUnsupported is returned when the platform offers no clipboard utility.
var ErrUnsupported = errors.New("no clipboard utility available")

// Copier copies textual data to the system clipboard.
type Copier interface {
	Copy(text string) error
}

// Service implements Copier using github.com/atotto/clipboard.
type Service struct {
	unsupported bool
	write       func(string) error
}

// NewService constructs a Service backed by the system clipboard.
func NewService() *Service {
	return &Service{unsupported: clipboard.Unsupported, write: clipboard.WriteAll}
}

// Copy writes text to the system clipboard.
func (service *Service) Copy(text string) error {
	if service.unsupported {
		return ErrUnsupported
	}
	if err := service.write(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

var _ Copier = (*Service)(nil)
