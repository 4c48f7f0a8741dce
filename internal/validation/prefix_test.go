package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		prefix  string
		wantErr bool
	}{
		{name: "simple", prefix: "synckeeper"},
		{name: "with digits and underscore", prefix: "keeper_2"},
		{name: "single char", prefix: "k"},
		{name: "empty", prefix: "", wantErr: true},
		{name: "too long", prefix: strings.Repeat("a", MaxPrefixLen+1), wantErr: true},
		{name: "dash is reserved as key separator", prefix: "my-keeper", wantErr: true},
		{name: "space", prefix: "my keeper", wantErr: true},
		{name: "cyrillic", prefix: "ключи", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefix(tt.prefix)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "long enough", password: "correct horse battery"},
		{name: "exactly minimum", password: "123456789012"},
		{name: "empty", password: "", wantErr: true},
		{name: "too short", password: "short", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)

			if tt.wantErr {
				require.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
