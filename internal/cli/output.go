package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// write renders v in the requested format; text falls back to text when given
func write(w io.Writer, format string, v any, text string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	if text == "" {
		return write(w, "yaml", v, "")
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
