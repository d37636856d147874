package query

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/stateview/internal/ir"
)

// ParseJSON decodes a JSON query object. Blank input is the empty query.
func ParseJSON(data []byte) (ir.IRObject, error) {
	if strings.TrimSpace(string(data)) == "" {
		return ir.IRObject{}, nil
	}
	v, err := ir.DecodeValue(data)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return asObject(v)
}

// ParseYAML decodes a YAML query object. JSON is valid YAML, so this also
// accepts JSON input. Blank input is the empty query.
func ParseYAML(data []byte) (ir.IRObject, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	if raw == nil {
		return ir.IRObject{}, nil
	}
	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, fmt.Errorf("decode query: %w", err)
	}
	return asObject(v)
}

func asObject(v ir.IRValue) (ir.IRObject, error) {
	obj, ok := v.(ir.IRObject)
	if !ok {
		return nil, fmt.Errorf("query must be an object, got %s", ir.TypeName(v))
	}
	return obj, nil
}
