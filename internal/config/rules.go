package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"purissima/internal/mapping"
)

// RuleFile is the on-disk form of the item rule table and extra header labels.
//
//	mode: extend        # or "replace"
//	rules:
//	  - pattern: 'pouch\s+vital'
//	    label: Vital
//	    period: DIA
//	labels:
//	  "Nº do pedido": ord_id
type RuleFile struct {
	Mode   string            `yaml:"mode"`
	Rules  []mapping.Rule    `yaml:"rules"`
	Labels map[string]string `yaml:"labels"`
}

// Rules is the resolved rule configuration handed to the mapping engine and the
// field normalizer.
type Rules struct {
	Items  []mapping.Rule
	Labels map[string]string
}

// LoadRules returns the built-in tables when path is empty. In extend mode file
// rules are tried before the built-ins; in replace mode they are the whole table.
func LoadRules(path string) (Rules, error) {
	out := Rules{Items: mapping.DefaultRules, Labels: map[string]string{}}
	if strings.TrimSpace(path) == "" {
		return out, nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}
	var file RuleFile
	if err := yaml.Unmarshal(blob, &file); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}

	switch strings.ToLower(strings.TrimSpace(file.Mode)) {
	case "", "extend":
		items := make([]mapping.Rule, 0, len(file.Rules)+len(mapping.DefaultRules))
		items = append(items, file.Rules...)
		out.Items = append(items, mapping.DefaultRules...)
	case "replace":
		if len(file.Rules) == 0 {
			return Rules{}, fmt.Errorf("rules %s: replace mode with no rules", path)
		}
		out.Items = file.Rules
	default:
		return Rules{}, fmt.Errorf("rules %s: unknown mode %q", path, file.Mode)
	}
	for k, v := range file.Labels {
		out.Labels[k] = v
	}

	if _, err := mapping.NewEngine(out.Items); err != nil {
		return Rules{}, fmt.Errorf("rules %s: %w", path, err)
	}
	return out, nil
}
