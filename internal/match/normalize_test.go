package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"name", []string{"name"}},
		{"XMLParser", []string{"xml", "parser"}},
		{"getHTTPResponse", []string{"get", "http", "response"}},
		{"schemaLocation", []string{"schema", "location"}},
		{"firing_temp", []string{"firing", "temp"}},
		{"Firing-Temp", []string{"firing", "temp"}},
		{"meta.name", []string{"meta", "name"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokens(tt.in))
		})
	}
}

func TestNormalize(t *testing.T) {
	for _, in := range []string{"firing_temp", "firingTemp", "Firing-Temp", "FIRING_TEMP"} {
		assert.Equal(t, "firingtemp", Normalize(in), in)
	}

	assert.Equal(t, "title", Normalize("dc:title"))
}
