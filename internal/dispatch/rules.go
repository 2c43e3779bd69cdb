package dispatch

import (
	"fmt"
	"sort"
	"strings"
)

// Rule maps a repository path prefix to the pipelines that must run when any
// changed file falls under it. A shared prefix may fan out to several pipelines.
type Rule struct {
	Prefix    string
	Pipelines []string
}

// RuleSet evaluates prefix rules against a change-set. It is immutable after
// construction, making Decide a pure function.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet validates and normalizes rules. Prefixes are stored without a
// trailing slash; matching re-adds the path boundary.
func NewRuleSet(rules []Rule) (*RuleSet, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no dispatch rules configured")
	}

	normalized := make([]Rule, 0, len(rules))
	for i, r := range rules {
		prefix := strings.Trim(strings.TrimSpace(r.Prefix), "/")
		if prefix == "" {
			return nil, fmt.Errorf("rule %d: empty prefix", i)
		}
		if len(r.Pipelines) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no pipelines", i, prefix)
		}
		for _, p := range r.Pipelines {
			if strings.TrimSpace(p) == "" {
				return nil, fmt.Errorf("rule %d (%s): empty pipeline name", i, prefix)
			}
		}
		normalized = append(normalized, Rule{Prefix: prefix, Pipelines: r.Pipelines})
	}

	return &RuleSet{rules: normalized}, nil
}

// Pipelines returns every pipeline referenced by any rule, sorted and unique.
func (rs *RuleSet) Pipelines() []string {
	seen := make(map[string]struct{})
	for _, r := range rs.rules {
		for _, p := range r.Pipelines {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Decide returns the pipelines to trigger for a change-set: the union of
// pipelines across every rule with at least one matching path, each pipeline
// at most once, sorted for deterministic output.
func (rs *RuleSet) Decide(paths []string) []string {
	selected := make(map[string]struct{})
	for _, r := range rs.rules {
		for _, path := range paths {
			if matchesPrefix(path, r.Prefix) {
				for _, p := range r.Pipelines {
					selected[p] = struct{}{}
				}
				break
			}
		}
	}

	decision := make([]string, 0, len(selected))
	for p := range selected {
		decision = append(decision, p)
	}
	sort.Strings(decision)
	return decision
}

// matchesPrefix reports whether path falls under prefix, respecting path
// boundaries: "lambda1/app.py" is under "lambda1", "lambda10/app.py" is not.
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
