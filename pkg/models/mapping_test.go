package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleMapping = `{
  "name": "person-to-employee",
  "source_type": "Person",
  "target_type": "Employee",
  "is_active": true,
  "transformation_rules": [
    {"source_field": "full_name", "target_field": "name", "transformation_type": "direct"},
    {
      "source_field": "email",
      "target_field": "contact_email",
      "transformation_type": "custom",
      "transformation_config": {"transform_function": "lower(value)"}
    },
    {
      "source_field": "addr",
      "target_field": "address",
      "transformation_type": "nested",
      "transformation_config": {
        "nested_mappings": [
          {"source_field": "city", "target_field": "town_name", "rule": {"transformation_type": "direct"}}
        ]
      }
    },
    {
      "source_field": "skills",
      "target_field": "skills",
      "transformation_type": "array",
      "transformation_config": {
        "array_config": {"item_transform": {"transformation_type": "direct"}}
      }
    },
    {
      "source_field": "dept_id",
      "target_field": "department",
      "transformation_type": "reference",
      "transformation_config": {
        "reference_config": {"ref_type": "Department"}
      }
    }
  ]
}`

func TestLoadMappingDecodesTypedRules(t *testing.T) {
	m, err := LoadMapping([]byte(sampleMapping))
	require.NoError(t, err)

	require.Len(t, m.Rules, 5)
	assert.Equal(t, "person-to-employee", m.Name)
	assert.True(t, m.Active)

	assert.IsType(t, Direct{}, m.Rules[0].Transform)

	custom, ok := m.Rules[1].Transform.(Custom)
	require.True(t, ok)
	assert.Equal(t, "lower(value)", custom.Expression)

	nested, ok := m.Rules[2].Transform.(Nested)
	require.True(t, ok)
	require.Len(t, nested.Mappings, 1)
	assert.Equal(t, "city", nested.Mappings[0].SourceField)
	assert.Equal(t, "town_name", nested.Mappings[0].TargetField)
	assert.IsType(t, Direct{}, nested.Mappings[0].Transform)

	array, ok := m.Rules[3].Transform.(Array)
	require.True(t, ok)
	assert.IsType(t, Direct{}, array.Item)

	ref, ok := m.Rules[4].Transform.(Reference)
	require.True(t, ok)
	assert.Equal(t, "Department", ref.RefType)
	assert.Equal(t, "id", ref.RefField, "ref_field defaults to id")
}

func TestCustomRequiresTransformFunction(t *testing.T) {
	_, err := LoadMapping([]byte(`{
	  "name": "m", "source_type": "A", "target_type": "B",
	  "transformation_rules": [
	    {"source_field": "a", "target_field": "b", "transformation_type": "custom", "transformation_config": {}}
	  ]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform_function")
}

func TestNestedRequiresNestedMappings(t *testing.T) {
	_, err := LoadMapping([]byte(`{
	  "name": "m", "source_type": "A", "target_type": "B",
	  "transformation_rules": [
	    {"source_field": "a", "target_field": "b", "transformation_type": "nested", "transformation_config": {}}
	  ]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nested_mappings")
}

func TestUnknownTransformationTypeRejected(t *testing.T) {
	_, err := LoadMapping([]byte(`{
	  "name": "m", "source_type": "A", "target_type": "B",
	  "transformation_rules": [
	    {"source_field": "a", "target_field": "b", "transformation_type": "teleport"}
	  ]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported transformation type")
}

func TestInvalidNestedSubRuleRejected(t *testing.T) {
	_, err := LoadMapping([]byte(`{
	  "name": "m", "source_type": "A", "target_type": "B",
	  "transformation_rules": [
	    {
	      "source_field": "a", "target_field": "b", "transformation_type": "nested",
	      "transformation_config": {
	        "nested_mappings": [
	          {"source_field": "x", "target_field": "y",
	           "rule": {"transformation_type": "custom", "transformation_config": {}}}
	        ]
	      }
	    }
	  ]
	}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform_function")
}

func TestValidateRequiresIdentifyingFields(t *testing.T) {
	m := &TypeMapping{SourceType: "A", TargetType: "B"}
	require.Error(t, m.Validate())

	m = &TypeMapping{Name: "m", TargetType: "B"}
	require.Error(t, m.Validate())

	m = &TypeMapping{Name: "m", SourceType: "A", TargetType: "B"}
	require.NoError(t, m.Validate())
}

func TestValidateRejectsEmptyCustomExpression(t *testing.T) {
	m := &TypeMapping{
		Name: "m", SourceType: "A", TargetType: "B",
		Rules: []TransformationRule{
			{SourceField: "a", TargetField: "b", Transform: Custom{}},
		},
	}
	require.Error(t, m.Validate())
}

func TestRuleRoundTrip(t *testing.T) {
	m, err := LoadMapping([]byte(sampleMapping))
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)

	again, err := LoadMapping(data)
	require.NoError(t, err)
	assert.Equal(t, m, again)
}
