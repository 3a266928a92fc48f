package core

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceError(t *testing.T) {
	err := fmt.Errorf("join items: %w", &ReferenceError{Alias: "table3"})

	assert.True(t, IsReferenceError(err))
	assert.False(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "the table table3 was not identified")
}

func TestValidationError(t *testing.T) {
	tests := []struct {
		name     string
		err      *ValidationError
		expected string
	}{
		{"with field", NewValidationError("alias", "duplicate alias %q", "o"), `alias: duplicate alias "o"`},
		{"without field", &ValidationError{Message: "join target must be a table"}, "join target must be a table"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", tt.err)))
		})
	}
}

func TestNotFoundError(t *testing.T) {
	tests := []struct {
		name     string
		err      *NotFoundError
		expected string
	}{
		{"no key", &NotFoundError{Table: "orders"}, "registry not found in orders"},
		{"composite key", &NotFoundError{Table: "lines", Key: []any{1, "a"}}, "registry not found in lines (key 1:a)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
			assert.True(t, IsNotFound(tt.err))
		})
	}
	assert.False(t, IsNotFound(fmt.Errorf("plain")))
}

func TestTableMetadata_PrimaryKey(t *testing.T) {
	md := &TableMetadata{
		Name: "lines",
		Columns: []Column{
			{Name: "order_id", PrimaryKey: true, Position: 1},
			{Name: "qty", Position: 2},
			{Name: "line_no", PrimaryKey: true, Position: 3},
		},
	}
	assert.Equal(t, []string{"order_id", "line_no"}, md.PrimaryKey())
}
