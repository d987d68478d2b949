package db

import (
	"testing"
)

func TestParseOptions(t *testing.T) {
	options, err := parseOptions([]string{"block_size=8192", "paranoid_checks=true", "name=x", "max_open_files=1"})
	if err != nil {
		t.Fatalf("parseOptions failed: %v", err)
	}

	expected := map[string]any{
		"block_size":      int64(8192),
		"paranoid_checks": true,
		"name":            "x",
		"max_open_files":  int64(1),
	}
	for k, v := range expected {
		if options[k] != v {
			t.Errorf("option %s: expected %v (%T), got %v (%T)", k, v, v, options[k], options[k])
		}
	}

	if options, err := parseOptions(nil); err != nil || options != nil {
		t.Errorf("expected nil options without arguments, got %v (%v)", options, err)
	}

	for _, invalid := range []string{"block_size", "=1"} {
		if _, err := parseOptions([]string{invalid}); err == nil {
			t.Errorf("expected error for %q", invalid)
		}
	}
}

func TestFormatMap(t *testing.T) {
	got := formatMap(map[string]any{"writes": int64(2), "reads": int64(1)})
	if got != "reads=1 writes=2" {
		t.Errorf("unexpected output %q", got)
	}
}
