package ingest

import (
	"fmt"
	"strings"
)

// ValidationError reports required columns missing from an input dataset.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required column(s): %s", strings.Join(e.Missing, ", "))
}
