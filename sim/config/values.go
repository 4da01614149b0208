package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// IntValues is a single integer parameter or a list of experiment values.
// In YAML it is written as a scalar or as a sequence.
type IntValues []int

// FloatValues is the float counterpart of IntValues.
type FloatValues []float64

// First returns the first value, or 0 when empty.
func (v IntValues) First() int {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

// First returns the first value, or 0 when empty.
func (v FloatValues) First() float64 {
	if len(v) == 0 {
		return 0
	}
	return v[0]
}

func (v *IntValues) UnmarshalYAML(node *yaml.Node) error {
	var out []int
	if err := decodeValues(node, &out); err != nil {
		return err
	}
	*v = out
	return nil
}

func (v *FloatValues) UnmarshalYAML(node *yaml.Node) error {
	var out []float64
	if err := decodeValues(node, &out); err != nil {
		return err
	}
	*v = out
	return nil
}

// decodeValues decodes a scalar or a non-empty sequence into out, a pointer to a slice.
func decodeValues[T int | float64](node *yaml.Node, out *[]T) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if err := checkIntTag[T](node); err != nil {
			return err
		}
		var x T
		if err := node.Decode(&x); err != nil {
			return err
		}
		*out = []T{x}
	case yaml.SequenceNode:
		if len(node.Content) == 0 {
			return fmt.Errorf("line %d: empty value list", node.Line)
		}
		for _, item := range node.Content {
			if err := checkIntTag[T](item); err != nil {
				return err
			}
		}
		if err := node.Decode(out); err != nil {
			return err
		}
	default:
		return fmt.Errorf("line %d: expected a number or a list of numbers", node.Line)
	}
	return nil
}

// checkIntTag rejects non-integer scalars when T is int; node.Decode would
// otherwise truncate 1.5 to 1.
func checkIntTag[T int | float64](node *yaml.Node) error {
	var zero T
	if _, isInt := any(zero).(int); !isInt {
		return nil
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return fmt.Errorf("line %d: %q is not an integer", node.Line, node.Value)
	}
	return nil
}

func (v IntValues) MarshalYAML() (any, error) {
	return encodeValues(v)
}

func (v FloatValues) MarshalYAML() (any, error) {
	return encodeValues(v)
}

// encodeValues writes one value as a scalar and several as a flow sequence.
func encodeValues[T int | float64](v []T) (any, error) {
	switch len(v) {
	case 0:
		return nil, nil
	case 1:
		return v[0], nil
	}
	var node yaml.Node
	if err := node.Encode([]T(v)); err != nil {
		return nil, err
	}
	node.Style = yaml.FlowStyle
	return &node, nil
}
