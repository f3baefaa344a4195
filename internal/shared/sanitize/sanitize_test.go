package sanitize_test

import (
	"testing"

	"go-hr-portal/internal/shared/sanitize"

	"github.com/stretchr/testify/assert"
)

func TestReason(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text unchanged", "Family event", "Family event"},
		{"trims edges", "  dentist visit  ", "dentist visit"},
		{"collapses whitespace runs", "long \t\t  trip", "long trip"},
		{"drops control characters", "a\x00b\x1bc", "abc"},
		{"newlines become single spaces", "line one\n\nline two", "line one line two"},
		{"keeps unicode letters", "visite médicale", "visite médicale"},
		{"empty stays empty", "", ""},
		{"whitespace only collapses to empty", " \t\n ", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, sanitize.Reason(tc.in))
		})
	}
}
