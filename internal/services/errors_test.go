package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "single validation error",
			err:  NewValidationError("answers", "duplicate answer for question", uint(3)),
			want: true,
		},
		{
			name: "validation error slice",
			err:  ValidationErrors{{Field: "title", Message: "is required"}},
			want: true,
		},
		{
			name: "wrapped reconciliation sentinel",
			err:  fmt.Errorf("%w: question 7", ErrUnknownQuestion),
			want: true,
		},
		{
			name: "conflict sentinel",
			err:  ErrDuplicateSubmission,
			want: false,
		},
		{
			name: "plain error",
			err:  fmt.Errorf("connection refused"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidation(tt.err))
		})
	}
}
