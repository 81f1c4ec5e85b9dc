package runner

import (
	"strings"
	"testing"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizer_Text(t *testing.T) {
	s := Sanitizer{MaxSize: 16}

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"Plain", "Hello World", "Hello World", nil},
		{"Safe Controls", "a\nb\tc\r", "a\nb\tc\r", nil},
		{"ANSI Escape", "\x1b[31mRed", "[31mRed", nil},
		{"Null And Bell", "N\x00u\x07l", "Nul", nil},
		{"Exact Limit", strings.Repeat("a", 16), strings.Repeat("a", 16), nil},
		{"Over Limit", strings.Repeat("a", 17), "", ErrInputTooLarge},
		{"Invalid UTF-8", "\xbd\xb2\x3d", "", ErrInvalidUTF8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Text(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizer_Action(t *testing.T) {
	s := Sanitizer{MaxSize: 64}

	t.Run("Cleans Copy", func(t *testing.T) {
		in := &domain.UserAction{IntentName: " book ", Entities: map[string]string{"location": "Ro\x07me"}}
		out, err := s.Action(in)
		require.NoError(t, err)
		assert.Equal(t, "book", out.IntentName)
		assert.Equal(t, "Rome", out.Entities["location"])
		assert.Equal(t, "Ro\x07me", in.Entities["location"])
	})

	t.Run("Nil", func(t *testing.T) {
		out, err := s.Action(nil)
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("Intent With Spaces", func(t *testing.T) {
		_, err := s.Action(&domain.UserAction{IntentName: "book now"})
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("Empty Role", func(t *testing.T) {
		_, err := s.Action(&domain.UserAction{IntentName: "book", Entities: map[string]string{" ": "x"}})
		assert.ErrorIs(t, err, ErrInvalidName)
	})

	t.Run("Oversized Value", func(t *testing.T) {
		_, err := s.Action(&domain.UserAction{IntentName: "book", Entities: map[string]string{"city": strings.Repeat("x", 65)}})
		assert.ErrorIs(t, err, ErrInputTooLarge)
	})
}

func TestNewSanitizer(t *testing.T) {
	assert.Equal(t, DefaultMaxInputSize, NewSanitizer().MaxSize)

	t.Setenv(EnvMaxInputSize, "10")
	_, err := SanitizeInput("12345678901")
	assert.ErrorIs(t, err, ErrInputTooLarge)
	_, err = SanitizeInput("12345")
	assert.NoError(t, err)

	t.Setenv(EnvMaxInputSize, "bogus")
	assert.Equal(t, DefaultMaxInputSize, NewSanitizer().MaxSize)
}
