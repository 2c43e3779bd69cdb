package dispatch

import (
	"reflect"
	"testing"
)

func testRules(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := NewRuleSet([]Rule{
		{Prefix: "lambda1", Pipelines: []string{"lambda1-pipeline"}},
		{Prefix: "lambda2", Pipelines: []string{"lambda2-pipeline"}},
		{Prefix: "layers/shared", Pipelines: []string{"lambda1-pipeline", "lambda2-pipeline"}},
	})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	return rs
}

func TestDecide(t *testing.T) {
	rs := testRules(t)

	tests := []struct {
		name  string
		paths []string
		want  []string
	}{
		{
			name:  "no matching paths",
			paths: []string{"README.md"},
			want:  []string{},
		},
		{
			name:  "lambda1 only",
			paths: []string{"lambda1/app.py"},
			want:  []string{"lambda1-pipeline"},
		},
		{
			name:  "lambda2 only",
			paths: []string{"lambda2/requirements.txt"},
			want:  []string{"lambda2-pipeline"},
		},
		{
			name:  "shared layer triggers everything",
			paths: []string{"layers/shared/python/logger.py"},
			want:  []string{"lambda1-pipeline", "lambda2-pipeline"},
		},
		{
			name:  "both lambdas changed",
			paths: []string{"lambda1/app.py", "lambda2/app.py"},
			want:  []string{"lambda1-pipeline", "lambda2-pipeline"},
		},
		{
			name:  "shared plus lambda1 collapses duplicates",
			paths: []string{"layers/shared/python/utils.py", "lambda1/app.py"},
			want:  []string{"lambda1-pipeline", "lambda2-pipeline"},
		},
		{
			name:  "prefix respects path boundary",
			paths: []string{"lambda10/app.py", "lambda1x/y.py"},
			want:  []string{},
		},
		{
			name:  "prefix as exact path",
			paths: []string{"lambda1"},
			want:  []string{"lambda1-pipeline"},
		},
		{
			name:  "empty change set",
			paths: nil,
			want:  []string{},
		},
		{
			name:  "many files one pipeline",
			paths: []string{"lambda1/a.py", "lambda1/b.py", "lambda1/sub/c.py"},
			want:  []string{"lambda1-pipeline"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rs.Decide(tt.paths)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Decide(%v) = %v, want %v", tt.paths, got, tt.want)
			}
		})
	}
}

func TestDecide_Deterministic(t *testing.T) {
	rs := testRules(t)
	paths := []string{"layers/shared/x.py", "lambda2/y.py", "lambda1/z.py"}

	first := rs.Decide(paths)
	for i := 0; i < 10; i++ {
		if got := rs.Decide(paths); !reflect.DeepEqual(got, first) {
			t.Fatalf("Decide() not deterministic: %v vs %v", got, first)
		}
	}
}

func TestNewRuleSet_Validation(t *testing.T) {
	tests := []struct {
		name  string
		rules []Rule
	}{
		{name: "no rules", rules: nil},
		{name: "empty prefix", rules: []Rule{{Prefix: "  ", Pipelines: []string{"p"}}}},
		{name: "no pipelines", rules: []Rule{{Prefix: "lambda1"}}},
		{name: "blank pipeline name", rules: []Rule{{Prefix: "lambda1", Pipelines: []string{" "}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRuleSet(tt.rules); err == nil {
				t.Error("NewRuleSet() expected error")
			}
		})
	}
}

func TestNewRuleSet_NormalizesPrefix(t *testing.T) {
	rs, err := NewRuleSet([]Rule{{Prefix: "layers/shared/", Pipelines: []string{"p1"}}})
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}

	if got := rs.Decide([]string{"layers/shared/logger.py"}); !reflect.DeepEqual(got, []string{"p1"}) {
		t.Errorf("Decide() = %v, want [p1]", got)
	}
}

func TestPipelines(t *testing.T) {
	rs := testRules(t)
	want := []string{"lambda1-pipeline", "lambda2-pipeline"}
	if got := rs.Pipelines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Pipelines() = %v, want %v", got, want)
	}
}
