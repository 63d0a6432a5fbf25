// Package redact applies regex-based redaction rules to result cell
// values before they are formatted, so configured patterns (emails,
// card numbers, internal hostnames) never reach the agent.
package redact

import (
	"fmt"
	"regexp"
)

// Rule maps a regex pattern to its replacement text.
type Rule struct {
	Pattern     string
	Replacement string
}

type compiledRule struct {
	pattern     *regexp.Regexp
	replacement string
}

// Redactor rewrites string cells in fetched rows.
type Redactor struct {
	rules []compiledRule
}

// New compiles the rule set. Returns an error on invalid regex patterns.
func New(rules []Rule) (*Redactor, error) {
	compiled := make([]compiledRule, len(rules))
	for i, r := range rules {
		re, err := regexp.Compile(r.Pattern)
		if err != nil {
			return nil, fmt.Errorf("redact: invalid regex pattern %q: %v", r.Pattern, err)
		}
		compiled[i] = compiledRule{pattern: re, replacement: r.Replacement}
	}
	return &Redactor{rules: compiled}, nil
}

// HasRules returns true if any rules are configured.
func (r *Redactor) HasRules() bool {
	return len(r.rules) > 0
}

// Apply rewrites string cells in place and returns rows. Non-string
// cells (numbers, timestamps, NULL) pass through untouched — rules
// target rendered text, not driver values.
func (r *Redactor) Apply(rows [][]any) [][]any {
	if len(r.rules) == 0 {
		return rows
	}
	for _, row := range rows {
		for i, cell := range row {
			if s, ok := cell.(string); ok {
				for _, rule := range r.rules {
					s = rule.pattern.ReplaceAllString(s, rule.replacement)
				}
				row[i] = s
			}
		}
	}
	return rows
}
