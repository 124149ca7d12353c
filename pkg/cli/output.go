package cli

import (
	"encoding/json"
	"fmt"
	"io"
)

// OutputFormat selects how a command renders its report.
type OutputFormat string

const (
	// FormatText is the human readable default.
	FormatText OutputFormat = "text"
	// FormatJSON renders the report as indented JSON.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat validates an --output flag value. The empty string
// means text.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case FormatText, "":
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected text or json)", s)
}

// WriteJSON writes v to w as indented JSON, terminated by a newline.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
