package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name        string
		header      string
		expected    string
		expectedErr error
	}{
		{name: "valid", header: "Bearer abc.def", expected: "abc.def"},
		{name: "lowercase scheme", header: "bearer abc", expected: "abc"},
		{name: "surrounding spaces", header: "  Bearer abc  ", expected: "abc"},
		{name: "empty", header: "", expectedErr: ErrEmptyHeader},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", expectedErr: ErrInvalidFormat},
		{name: "missing token", header: "Bearer", expectedErr: ErrInvalidFormat},
		{name: "blank token", header: "Bearer    ", expectedErr: ErrInvalidFormat},
		{name: "too many parts", header: "Bearer abc def", expectedErr: ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := ExtractBearerToken(tt.header)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, token)
		})
	}
}
