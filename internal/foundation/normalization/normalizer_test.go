package normalization

import (
	"testing"
)

type backend string

const (
	backendJSON   backend = "json"
	backendSQLite backend = "sqlite"
	backendNATS   backend = "nats"
)

func newBackendNormalizer() *Normalizer[backend] {
	return NewNormalizer(map[string]backend{
		"json":    backendJSON,
		"file":    backendJSON,
		"sqlite":  backendSQLite,
		"sqlite3": backendSQLite,
		"nats":    backendNATS,
	}, backendJSON)
}

func TestNormalizer_Normalize(t *testing.T) {
	n := newBackendNormalizer()

	tests := []struct {
		name     string
		input    string
		expected backend
	}{
		{"exact match", "sqlite", backendSQLite},
		{"case insensitive", "NATS", backendNATS},
		{"with spaces", "  json  ", backendJSON},
		{"alias", "SQLite3", backendSQLite},
		{"unknown falls back to default", "redis", backendJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizer_ValidKeysSorted(t *testing.T) {
	keys := newBackendNormalizer().ValidKeys()
	want := []string{"file", "json", "nats", "sqlite", "sqlite3"}
	if len(keys) != len(want) {
		t.Fatalf("ValidKeys() = %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("ValidKeys()[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}
