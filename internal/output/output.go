package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

var Writer io.Writer = os.Stdout

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	_, err = fmt.Fprintln(Writer, string(data))
	return err
}

// YAML renders v with the same field names its JSON encoding uses.
func YAML(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("json unmarshal: %w", err)
	}

	out, err := yaml.Marshal(generic)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}
	_, err = Writer.Write(out)
	return err
}

func Write(format string, v interface{}) error {
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return JSON(v)
	case FormatYAML, "yml":
		return YAML(v)
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
