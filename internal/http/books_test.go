package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mrlokans/librarian/internal/database/integrity"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  int
		valid bool
	}{
		{name: "missing", input: nil, want: 0, valid: true},
		{name: "whole number", input: float64(1965), want: 1965, valid: true},
		{name: "numeric string", input: " 1813 ", want: 1813, valid: true},
		{name: "empty string", input: "", want: 0, valid: true},
		{name: "fractional number", input: 1999.7, valid: false},
		{name: "huge number", input: 1e20, valid: false},
		{name: "word", input: "eighteen", valid: false},
		{name: "boolean", input: true, valid: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseYear(tt.input)
			if tt.valid {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, got)
				return
			}
			assert.Equal(t, integrity.KindValidation, integrity.KindOf(err))
			typed, ok := integrity.As(err)
			if assert.True(t, ok) {
				assert.Equal(t, "must be a number", typed.Fields["publication_year"])
			}
		})
	}
}
