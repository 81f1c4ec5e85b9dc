package runner

import (
	"testing"

	"github.com/aretw0/tickstory/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseInput(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    *domain.UserAction
		wantErr bool
	}{
		{"Intent only", "book", &domain.UserAction{IntentName: "book"}, false},
		{"Entities", "  book location=Paris date=monday ", &domain.UserAction{
			IntentName: "book",
			Entities:   map[string]string{"location": "Paris", "date": "monday"},
		}, false},
		{"Empty value", "book location=", &domain.UserAction{
			IntentName: "book",
			Entities:   map[string]string{"location": ""},
		}, false},
		{"JSON", `{"intent":"book","entities":{"location":"New York"}}`, &domain.UserAction{
			IntentName: "book",
			Entities:   map[string]string{"location": "New York"},
		}, false},
		{"Blank", "   ", nil, true},
		{"Entity first", "location=Paris", nil, true},
		{"Bare word entity", "book Paris", nil, true},
		{"JSON without intent", `{"entities":{}}`, nil, true},
		{"Broken JSON", `{"intent":`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInput(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
