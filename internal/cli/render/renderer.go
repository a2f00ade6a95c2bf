package render

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

type Renderer[T any] interface {
	Render(result T) error
}

// Output formats accepted by --output
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// IsStructured reports whether format bypasses the human-readable renderers
func IsStructured(format string) bool {
	return format == FormatJSON || format == FormatYAML
}

// Structured writes v as indented json or as yaml. The yaml form is derived
// from the json encoding so both share field names and big numbers keep
// their exact digits.
func Structured(out io.Writer, format string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	switch format {
	case FormatJSON:
		_, err = fmt.Fprintln(out, string(data))
		return err
	case FormatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(data, &node); err != nil {
			return fmt.Errorf("failed to convert output: %w", err)
		}
		blockStyle(&node)
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q (valid: table, json, yaml)", format)
	}
}

// blockStyle drops the flow and quoting styles inherited from json
func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}
