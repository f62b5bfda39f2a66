package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_WellFormed(t *testing.T) {
	d := Descriptor{}.
		Where(AndOf(Eq("A", 1), OrOf(Null("B"), Contains("C", "x")))).
		OrderBy("A").
		Skip(1).
		Take(2)

	result := Validate(d)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Problems)
}

func TestValidate_Problems(t *testing.T) {
	tests := []struct {
		name string
		d    Descriptor
		node string
	}{
		{"where after take", Descriptor{}.Take(1).Where(Eq("A", 1)), "Where"},
		{"order after skip", Descriptor{}.Skip(1).OrderBy("A"), "OrderBy(A)"},
		{"negative take", Descriptor{}.Take(-1), "Take(-1)"},
		{"nil predicate", Descriptor{}.Where(nil), "<nil>"},
		{"empty and", Descriptor{}.Where(AndOf()), "()"},
		{"empty bind name", Descriptor{}.Bind("", 1), "Bind"},
		{"empty member", Descriptor{}.Where(Eq("", 1)), "Member"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.d)
			assert.False(t, result.Valid)
			require.NotEmpty(t, result.Problems)
			assert.Equal(t, tt.node, result.Problems[0].Node)
		})
	}
}
