package normalize_test

import (
	"testing"

	"github.com/UnknownOlympus/pscgeo/internal/normalize"
	"github.com/stretchr/testify/assert"
)

func TestNormalizer_Normalize(t *testing.T) {
	n := normalize.New()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "listing security name", input: "Acme Corp., Inc. Class A Common Stock", want: "acme a"},
		{name: "llc suffix", input: "Spire Global, LLC", want: "spire global"},
		{name: "series token", input: "Invesco Series Trust", want: "invesco trust"},
		{name: "token inside a word is kept", input: "Incorporated Holdings", want: "incorporated holdings"},
		{name: "accents folded", input: "Société Générale S.A.", want: "societe generale sa"},
		{name: "whitespace collapsed", input: "  Big\t\tBlue   Ltd ", want: "big blue"},
		{name: "only tokens", input: "Inc.", want: ""},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNew_CustomTokens(t *testing.T) {
	n := normalize.New("plc", " GmbH ")

	assert.Equal(t, "vodafone group", n.Normalize("Vodafone Group PLC"))
	assert.Equal(t, "siemens", n.Normalize("Siemens GmbH"))
	assert.Equal(t, "acme inc", n.Normalize("Acme Inc"))
}

func TestNormalizer_NormalizeAll(t *testing.T) {
	n := normalize.New()

	assert.Equal(t, []string{"alpha", "beta"}, n.NormalizeAll([]string{"Alpha Inc", "BETA LTD."}))
}
