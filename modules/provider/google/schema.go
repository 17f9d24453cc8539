package google

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/flemzord/gemgate/internal/provider"
)

// Schema is the OpenAPI subset accepted by the Generative Language API for
// responseSchema and function parameters.
type Schema struct {
	// Type is a type name, or a list of names for a multi-type schema
	// without null.
	Type        any                `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Required    []string           `json:"required,omitempty"`
	Format      string             `json:"format,omitempty"`
	Nullable    bool               `json:"nullable,omitempty"`
	Enum        []any              `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitzero"`
	// Items is a *Schema, or a []*Schema for tuple schemas.
	Items     any       `json:"items,omitempty"`
	AllOf     []*Schema `json:"allOf,omitempty"`
	AnyOf     []*Schema `json:"anyOf,omitempty"`
	OneOf     []*Schema `json:"oneOf,omitempty"`
	MinLength any       `json:"minLength,omitempty"`
}

// convertJSONSchema converts a JSON Schema document. It returns nil when
// raw is empty, null, or an object schema without properties.
func convertJSONSchema(raw json.RawMessage) (*Schema, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON schema: %v", provider.ErrInvalidArgument, err)
	}
	return convertSchemaValue(v), nil
}

// convertSchemaValue converts a decoded JSON Schema node.
func convertSchemaValue(v any) *Schema {
	if v == nil || isEmptyObjectSchema(v) {
		return nil
	}
	if _, ok := v.(bool); ok {
		return &Schema{Type: "boolean", Properties: map[string]*Schema{}}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return &Schema{}
	}

	s := &Schema{}
	if d, ok := m["description"].(string); ok {
		s.Description = d
	}
	if req, ok := m["required"].([]any); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				s.Required = append(s.Required, name)
			}
		}
	}
	if f, ok := m["format"].(string); ok {
		s.Format = f
	}
	if c, ok := m["const"]; ok {
		s.Enum = []any{c}
	}

	switch t := m["type"].(type) {
	case string:
		if t != "" {
			s.Type = t
		}
	case []any:
		if containsNull(t) {
			s.Nullable = true
			for _, name := range t {
				if name != "null" {
					s.Type = name
					break
				}
			}
		} else {
			s.Type = t
		}
	}

	if e, ok := m["enum"].([]any); ok {
		s.Enum = e
	}

	if props, ok := m["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*Schema, len(props))
		for key, pv := range props {
			if ps := convertSchemaValue(pv); ps != nil {
				s.Properties[key] = ps
			}
		}
	}

	switch items := m["items"].(type) {
	case []any:
		s.Items = convertSchemaList(items)
	case nil:
	case bool:
		if items {
			s.Items = convertSchemaValue(true)
		}
	default:
		if is := convertSchemaValue(items); is != nil {
			s.Items = is
		}
	}

	if all, ok := m["allOf"].([]any); ok {
		s.AllOf = convertSchemaList(all)
	}

	if anyOf, ok := m["anyOf"].([]any); ok {
		convertAnyOf(s, anyOf)
	}

	if one, ok := m["oneOf"].([]any); ok {
		s.OneOf = convertSchemaList(one)
	}

	if ml, ok := m["minLength"]; ok && ml != nil {
		s.MinLength = ml
	}

	return s
}

// convertAnyOf removes {type: "null"} branches. A single remaining branch
// is flattened into s; several remain as anyOf. Either way s becomes
// nullable. Without a null branch every branch is converted as-is.
func convertAnyOf(s *Schema, branches []any) {
	var nonNull []any
	for _, b := range branches {
		if !isNullSchema(b) {
			nonNull = append(nonNull, b)
		}
	}

	if len(nonNull) == len(branches) {
		s.AnyOf = convertSchemaList(branches)
		return
	}

	if len(nonNull) == 1 {
		if converted := convertSchemaValue(nonNull[0]); converted != nil {
			s.Nullable = true
			s.merge(converted)
		}
		return
	}

	s.AnyOf = convertSchemaList(nonNull)
	s.Nullable = true
}

// merge copies every field set in o onto s.
func (s *Schema) merge(o *Schema) {
	if o.Type != nil {
		s.Type = o.Type
	}
	if o.Description != "" {
		s.Description = o.Description
	}
	if o.Required != nil {
		s.Required = o.Required
	}
	if o.Format != "" {
		s.Format = o.Format
	}
	if o.Nullable {
		s.Nullable = true
	}
	if o.Enum != nil {
		s.Enum = o.Enum
	}
	if o.Properties != nil {
		s.Properties = o.Properties
	}
	if o.Items != nil {
		s.Items = o.Items
	}
	if o.AllOf != nil {
		s.AllOf = o.AllOf
	}
	if o.AnyOf != nil {
		s.AnyOf = o.AnyOf
	}
	if o.OneOf != nil {
		s.OneOf = o.OneOf
	}
	if o.MinLength != nil {
		s.MinLength = o.MinLength
	}
}

// convertSchemaList converts element-wise. Elements that convert to no
// schema stay in place as nil.
func convertSchemaList(list []any) []*Schema {
	out := make([]*Schema, len(list))
	for i, v := range list {
		out[i] = convertSchemaValue(v)
	}
	return out
}

func isEmptyObjectSchema(v any) bool {
	m, ok := v.(map[string]any)
	if !ok || m["type"] != "object" {
		return false
	}
	props, ok := m["properties"].(map[string]any)
	return !ok || len(props) == 0
}

func isNullSchema(v any) bool {
	m, ok := v.(map[string]any)
	return ok && m["type"] == "null"
}

func containsNull(types []any) bool {
	for _, t := range types {
		if t == "null" {
			return true
		}
	}
	return false
}
