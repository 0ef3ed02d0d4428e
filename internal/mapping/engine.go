// Package mapping canonicalizes scraped item names through an ordered rule table.
package mapping

import (
	"fmt"
	"regexp"
	"strings"
)

type compiledRule struct {
	re *regexp.Regexp
	Rule
}

// Engine is immutable once built and safe for concurrent use.
type Engine struct {
	rules []compiledRule
}

type Match struct {
	Label   string
	Period  string
	Matched bool
}

func NewEngine(rules []Rule) (*Engine, error) {
	compiled := make([]compiledRule, 0, len(rules))
	for i, r := range rules {
		if strings.TrimSpace(r.Pattern) == "" {
			return nil, fmt.Errorf("rule %d: empty pattern", i)
		}
		if strings.TrimSpace(r.Label) == "" {
			return nil, fmt.Errorf("rule %d (%s): empty label", i, r.Pattern)
		}
		re, err := regexp.Compile(`(?i)` + r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		if r.Period == "" {
			r.Period = PeriodDay
		}
		compiled = append(compiled, compiledRule{re: re, Rule: r})
	}
	return &Engine{rules: compiled}, nil
}

// Default builds an engine over DefaultRules.
func Default() *Engine {
	e, err := NewEngine(DefaultRules)
	if err != nil {
		panic(err)
	}
	return e
}

// Canonicalize returns the label of the first matching rule, or text unchanged.
func (e *Engine) Canonicalize(text string) string {
	return e.Resolve(text).Label
}

func (e *Engine) Resolve(text string) Match {
	if text == "" {
		return Match{Label: "", Period: PeriodDay}
	}
	for _, r := range e.rules {
		if r.re.MatchString(text) {
			return Match{Label: r.Label, Period: r.Period, Matched: true}
		}
	}
	return Match{Label: text, Period: PeriodDay}
}

func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.rules))
	for _, r := range e.rules {
		out = append(out, r.Rule)
	}
	return out
}

var (
	reSeverity    = regexp.MustCompile(`\s*–?\s*(Leve|Moderado|Moderada|Severo|Severa|Grave)\s*`)
	reParenthesis = regexp.MustCompile(`\s*\([^)]*\)`)
	reFlavor      = regexp.MustCompile(`\s*-\s*(Baunilha do Tahiti|Frutas Vermelhas|Limonada Suíça|Mousse de maracujá)$`)
)

// BaseName drops severity levels, parenthetical notes and flavor suffixes.
func BaseName(name string) string {
	s := reSeverity.ReplaceAllString(name, "")
	s = reParenthesis.ReplaceAllString(s, "")
	s = reFlavor.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// UniqueBaseNames returns the distinct base names of names in first-seen order.
func UniqueBaseNames(names []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(names))
	for _, n := range names {
		base := BaseName(n)
		if _, ok := seen[base]; ok {
			continue
		}
		seen[base] = struct{}{}
		out = append(out, base)
	}
	return out
}
