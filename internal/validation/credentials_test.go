package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "valid simple", username: "alice", wantErr: false},
		{name: "valid with digits and underscore", username: "alice_42", wantErr: false},
		{name: "valid minimal length", username: "abc", wantErr: false},
		{name: "valid maximal length", username: strings.Repeat("a", MaxUsernameLen), wantErr: false},
		{name: "empty", username: "", wantErr: true},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", MaxUsernameLen+1), wantErr: true},
		{name: "spaces", username: "ali ce", wantErr: true},
		{name: "unicode", username: "алиса", wantErr: true},
		{name: "punctuation", username: "alice!", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword(""))
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("long enough pass"))
}

func TestValidateCredentials(t *testing.T) {
	assert.NoError(t, ValidateCredentials("alice", "long enough pass"))
	assert.Error(t, ValidateCredentials("ab", "long enough pass"))
	assert.Error(t, ValidateCredentials("alice", "short"))
}
