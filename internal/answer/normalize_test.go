package answer

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want []string
	}{
		{"single letter", "A", []string{"A"}},
		{"lowercase", "bca", []string{"A", "B", "C"}},
		{"interleaved noise", "答案是 A 和 c。", []string{"A", "C"}},
		{"duplicates collapse", "AABBA", []string{"A", "B"}},
		{"string slice", []string{"A", "C"}, []string{"A", "C"}},
		{"combined entry", []string{"BC"}, []string{"B", "C"}},
		{"slice unions elements", []string{"AB", "bd"}, []string{"A", "B", "D"}},
		{"json decoded slice", []any{"A", "D"}, []string{"A", "D"}},
		{"non-string elements ignored", []any{"A", 3.0, nil}, []string{"A"}},
		{"no letters", "123 456", []string{}},
		{"empty string", "", []string{}},
		{"nil", nil, []string{}},
		{"unsupported type", 42, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeCaseInvariance(t *testing.T) {
	upper := Normalize("ACD")
	lower := Normalize("acd")
	if !reflect.DeepEqual(upper, lower) {
		t.Errorf("case should not matter: %v vs %v", upper, lower)
	}
}
