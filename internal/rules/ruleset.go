package rules

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// QuantitySync derives an item's quantity from a single configuration field.
type QuantitySync struct {
	Field      string  `json:"field" yaml:"field"`
	Multiplier float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
}

// RuleSet is the administrator-editable auto-add table kept alongside the
// catalog: field id -> triggered item ids, and item id -> quantity sync rule.
type RuleSet struct {
	Triggers     map[string][]string     `json:"triggers,omitempty" yaml:"triggers,omitempty"`
	QuantitySync map[string]QuantitySync `json:"quantitySync,omitempty" yaml:"quantity_sync,omitempty"`
}

// Empty reports whether the rule set carries no rules.
func (rs RuleSet) Empty() bool {
	return len(rs.Triggers) == 0 && len(rs.QuantitySync) == 0
}

// LoadFile reads a rule set from a YAML document. An empty path yields an empty set.
func LoadFile(path string) (RuleSet, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return RuleSet{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return RuleSet{}, nil
		}
		return RuleSet{}, fmt.Errorf("rules: read %s: %w", path, err)
	}
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	return rs, nil
}
