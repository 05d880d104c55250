package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/alecthomas/chroma/v2/quick"
)

// DefaultTheme is the chroma style used for terminal output.
const DefaultTheme = "dracula"

// RenderJSON pretty-prints value as JSON. When highlight is set the output is
// colored for a 256-color terminal.
func RenderJSON(out io.Writer, value interface{}, highlight bool) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}

	if !highlight {
		_, err := fmt.Fprintln(out, string(data))
		return err
	}

	var buf bytes.Buffer
	if err := quick.Highlight(&buf, string(data)+"\n", "json", "terminal256", DefaultTheme); err != nil {
		return err
	}
	_, err = out.Write(buf.Bytes())
	return err
}
