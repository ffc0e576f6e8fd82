// Package models defines the type-mapping schema: a named, ordered set of
// field-level transformation rules converting records of one logical type
// into another.
package models

import (
	"encoding/json"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Record is one untyped input or output record. Values are whatever
// encoding/json or a database driver produced.
type Record = map[string]interface{}

// TransformKind identifies the evaluation strategy of a rule.
type TransformKind string

const (
	KindDirect    TransformKind = "direct"
	KindCustom    TransformKind = "custom"
	KindNested    TransformKind = "nested"
	KindArray     TransformKind = "array"
	KindReference TransformKind = "reference"
)

// Transform is the closed set of per-field transformation strategies.
// Nested and Array carry further Transforms, so a flat rule description
// can express tree-shaped transformations.
type Transform interface {
	Kind() TransformKind
	transform()
}

// Direct copies the source value unchanged.
type Direct struct{}

// Custom evaluates a sandboxed expression against the source value.
// The expression sees the input as `value` plus a small set of date/time
// and JSON helpers; its result becomes the target value.
type Custom struct {
	Expression string
}

// Nested maps the entries of a sub-object through its own rules.
type Nested struct {
	Mappings []TransformationRule
}

// Array applies one item-level transform to every element of a sequence.
// A nil Item is treated as Direct.
type Array struct {
	Item Transform
}

// Reference wraps the source value in an unresolved reference descriptor
// {type, id, ref_field}. No lookup is performed.
type Reference struct {
	RefType  string
	RefField string
}

func (Direct) Kind() TransformKind    { return KindDirect }
func (Custom) Kind() TransformKind    { return KindCustom }
func (Nested) Kind() TransformKind    { return KindNested }
func (Array) Kind() TransformKind     { return KindArray }
func (Reference) Kind() TransformKind { return KindReference }

func (Direct) transform()    {}
func (Custom) transform()    {}
func (Nested) transform()    {}
func (Array) transform()     {}
func (Reference) transform() {}

// TransformationRule maps one source field to one target field.
type TransformationRule struct {
	SourceField string
	TargetField string
	Transform   Transform
}

// TypeMapping is the root of the mapping schema. It is immutable for the
// duration of an evaluation pass; the engine only borrows it.
type TypeMapping struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	SourceType  string                 `json:"source_type"`
	TargetType  string                 `json:"target_type"`
	Rules       []TransformationRule   `json:"transformation_rules"`
	Active      bool                   `json:"is_active"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}

// LoadMapping parses and validates a type mapping from JSON. Rule configs
// missing a kind-required key are rejected here, before any record is
// processed.
func LoadMapping(data []byte) (*TypeMapping, error) {
	var m TypeMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the parts the JSON codec cannot: identifying fields
// present, field names non-empty, custom expressions non-empty. It recurses
// into nested and array rules.
func (m *TypeMapping) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("mapping name is required")
	}
	if m.SourceType == "" || m.TargetType == "" {
		return fmt.Errorf("mapping %q: source_type and target_type are required", m.Name)
	}
	for _, r := range m.Rules {
		if err := r.validate(); err != nil {
			return fmt.Errorf("mapping %q: %w", m.Name, err)
		}
	}
	return nil
}

func (r TransformationRule) validate() error {
	if r.SourceField == "" || r.TargetField == "" {
		return fmt.Errorf("rule must declare source_field and target_field")
	}
	return validateTransform(r.Transform)
}

func validateTransform(t Transform) error {
	switch t := t.(type) {
	case nil, Direct, Reference:
		return nil
	case Custom:
		if t.Expression == "" {
			return fmt.Errorf("custom transformations require 'transform_function' in config")
		}
	case Nested:
		for _, sub := range t.Mappings {
			if err := sub.validate(); err != nil {
				return fmt.Errorf("nested mapping: %w", err)
			}
		}
	case Array:
		if t.Item != nil {
			return validateTransform(t.Item)
		}
	}
	return nil
}

// Wire representation. The on-disk form keeps the flat
// {transformation_type, transformation_config} shape used by the ontology
// platform, while the in-memory form is the typed Transform variant.

type ruleWire struct {
	SourceField string                 `json:"source_field"`
	TargetField string                 `json:"target_field"`
	Type        TransformKind          `json:"transformation_type"`
	Config      map[string]interface{} `json:"transformation_config,omitempty"`
}

type ruleSpec struct {
	Type   TransformKind          `mapstructure:"transformation_type"`
	Config map[string]interface{} `mapstructure:"transformation_config"`
}

type nestedEntry struct {
	SourceField string   `mapstructure:"source_field"`
	TargetField string   `mapstructure:"target_field"`
	Rule        ruleSpec `mapstructure:"rule"`
}

type referenceConfig struct {
	RefType  string `mapstructure:"ref_type"`
	RefField string `mapstructure:"ref_field"`
}

func (r *TransformationRule) UnmarshalJSON(data []byte) error {
	var w ruleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	t, err := decodeTransform(w.Type, w.Config)
	if err != nil {
		return fmt.Errorf("field %q: %w", w.SourceField, err)
	}
	r.SourceField = w.SourceField
	r.TargetField = w.TargetField
	r.Transform = t
	return nil
}

func (r TransformationRule) MarshalJSON() ([]byte, error) {
	w := ruleWire{
		SourceField: r.SourceField,
		TargetField: r.TargetField,
		Type:        KindDirect,
	}
	if r.Transform != nil {
		w.Type = r.Transform.Kind()
		cfg, err := encodeTransformConfig(r.Transform)
		if err != nil {
			return nil, err
		}
		w.Config = cfg
	}
	return json.Marshal(w)
}

// decodeTransform turns a wire-level kind plus untyped config into a typed
// Transform, enforcing the kind-required config keys.
func decodeTransform(kind TransformKind, config map[string]interface{}) (Transform, error) {
	switch kind {
	case KindDirect, "":
		return Direct{}, nil

	case KindCustom:
		fn, ok := config["transform_function"]
		if !ok {
			return nil, fmt.Errorf("custom transformations require 'transform_function' in config")
		}
		expr, ok := fn.(string)
		if !ok || expr == "" {
			return nil, fmt.Errorf("'transform_function' must be a non-empty string")
		}
		return Custom{Expression: expr}, nil

	case KindNested:
		raw, ok := config["nested_mappings"]
		if !ok {
			return nil, fmt.Errorf("nested transformations require 'nested_mappings' in config")
		}
		var entries []nestedEntry
		if err := mapstructure.Decode(raw, &entries); err != nil {
			return nil, fmt.Errorf("invalid nested_mappings: %w", err)
		}
		mappings := make([]TransformationRule, 0, len(entries))
		for _, e := range entries {
			sub, err := decodeTransform(e.Rule.Type, e.Rule.Config)
			if err != nil {
				return nil, fmt.Errorf("nested field %q: %w", e.SourceField, err)
			}
			mappings = append(mappings, TransformationRule{
				SourceField: e.SourceField,
				TargetField: e.TargetField,
				Transform:   sub,
			})
		}
		return Nested{Mappings: mappings}, nil

	case KindArray:
		var cfg struct {
			ItemTransform *ruleSpec `mapstructure:"item_transform"`
		}
		if raw, ok := config["array_config"]; ok {
			if err := mapstructure.Decode(raw, &cfg); err != nil {
				return nil, fmt.Errorf("invalid array_config: %w", err)
			}
		}
		if cfg.ItemTransform == nil {
			return Array{Item: Direct{}}, nil
		}
		item, err := decodeTransform(cfg.ItemTransform.Type, cfg.ItemTransform.Config)
		if err != nil {
			return nil, fmt.Errorf("array item transform: %w", err)
		}
		return Array{Item: item}, nil

	case KindReference:
		var cfg referenceConfig
		if raw, ok := config["reference_config"]; ok {
			if err := mapstructure.Decode(raw, &cfg); err != nil {
				return nil, fmt.Errorf("invalid reference_config: %w", err)
			}
		}
		if cfg.RefField == "" {
			cfg.RefField = "id"
		}
		return Reference{RefType: cfg.RefType, RefField: cfg.RefField}, nil

	default:
		return nil, fmt.Errorf("unsupported transformation type: %s", kind)
	}
}

func encodeTransformConfig(t Transform) (map[string]interface{}, error) {
	switch t := t.(type) {
	case Direct:
		return nil, nil

	case Custom:
		return map[string]interface{}{"transform_function": t.Expression}, nil

	case Nested:
		entries := make([]interface{}, 0, len(t.Mappings))
		for _, sub := range t.Mappings {
			spec, err := encodeRuleSpec(sub.Transform)
			if err != nil {
				return nil, err
			}
			entries = append(entries, map[string]interface{}{
				"source_field": sub.SourceField,
				"target_field": sub.TargetField,
				"rule":         spec,
			})
		}
		return map[string]interface{}{"nested_mappings": entries}, nil

	case Array:
		item := t.Item
		if item == nil {
			item = Direct{}
		}
		spec, err := encodeRuleSpec(item)
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"array_config": map[string]interface{}{"item_transform": spec},
		}, nil

	case Reference:
		return map[string]interface{}{
			"reference_config": map[string]interface{}{
				"ref_type":  t.RefType,
				"ref_field": t.RefField,
			},
		}, nil

	default:
		return nil, fmt.Errorf("unsupported transformation type: %T", t)
	}
}

func encodeRuleSpec(t Transform) (map[string]interface{}, error) {
	if t == nil {
		t = Direct{}
	}
	cfg, err := encodeTransformConfig(t)
	if err != nil {
		return nil, err
	}
	spec := map[string]interface{}{"transformation_type": string(t.Kind())}
	if cfg != nil {
		spec["transformation_config"] = cfg
	}
	return spec, nil
}
