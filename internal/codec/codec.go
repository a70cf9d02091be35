// Package codec encodes reports and records for export in JSON, YAML or
// canonical CBOR.
package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for an unknown export format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// Supported formats.
const (
	JSON = "json"
	YAML = "yaml"
	CBOR = "cbor"
)

// encMode is deterministic so equal values always encode to equal bytes.
var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case YAML:
		return "application/yaml"
	case CBOR:
		return "application/cbor"
	default:
		return "application/json"
	}
}

// Encode writes v to w in the given format.
func Encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "", JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		return encodeYAML(w, v)
	case CBOR:
		return encMode.NewEncoder(w).Encode(v)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// encodeYAML goes through JSON so that json struct tags and field order
// carry over unchanged.
func encodeYAML(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal: %w", err)
	}

	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return fmt.Errorf("failed to convert to yaml: %w", err)
	}
	clearStyle(&node)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return err
	}
	return enc.Close()
}

// clearStyle drops the flow and quoting style inherited from the JSON input.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

// DecodeCBOR decodes canonical CBOR data into v.
func DecodeCBOR(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
