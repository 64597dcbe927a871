package ops

import (
	"github.com/hpungsan/jot/internal/capture"
)

// ParseInput contains parameters for the Parse operation.
type ParseInput struct {
	Text string
}

// Parse previews how a capture line would be stored. Nothing is written.
func Parse(input ParseInput) capture.Parsed {
	return capture.Parse(input.Text)
}
