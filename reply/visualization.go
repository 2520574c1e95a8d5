package reply

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyVisualization is returned for a json response tag with no body.
var ErrEmptyVisualization = errors.New("empty visualization payload")

// Visualization is a validated chart payload. Raw is the decoded JSON passed
// through unchanged; ChartType is lifted out when the payload is an object
// with a non-empty string chartType field.
type Visualization struct {
	Raw       json.RawMessage
	ChartType string
}

// DecodeVisualization strictly decodes a fragment claimed to be JSON. A JSON
// null decodes to a zero Visualization with a nil Raw.
func DecodeVisualization(fragment string) (Visualization, error) {
	body := strings.TrimSpace(fragment)
	if body == "" {
		return Visualization{}, ErrEmptyVisualization
	}

	var decoded any
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		return Visualization{}, fmt.Errorf("decode visualization: %w", err)
	}
	if decoded == nil {
		return Visualization{}, nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, []byte(body)); err != nil {
		return Visualization{}, fmt.Errorf("compact visualization: %w", err)
	}

	v := Visualization{Raw: json.RawMessage(compact.Bytes())}
	if obj, ok := decoded.(map[string]any); ok {
		if ct, ok := obj["chartType"].(string); ok {
			v.ChartType = ct
		}
	}
	return v, nil
}
