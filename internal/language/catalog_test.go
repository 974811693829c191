package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInstruction(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"swiss german uses ss", "de-CH", instructions["de-CH"]},
		{"lower case region", "de-ch", instructions["de-CH"]},
		{"swiss label", "Deutsch (Schweiz)", instructions["de-CH"]},
		{"germany outside catalog", "de-DE", instructions["de-DE"]},
		{"french code", "fr", "French (Français)"},
		{"plain name passes through", "French", "French"},
		{"catalog code without rule", "ja", "Japanese"},
		{"empty", "  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Instruction(tt.value))
		})
	}
	assert.Contains(t, Instruction("de-CH"), "'Strasse' not 'Straße'")
}

func TestLookupAndNormalize(t *testing.T) {
	o, ok := Lookup("ZH-hant")
	assert.True(t, ok)
	assert.Equal(t, "Chinese (Traditional)", o.Label)

	label, ok := Normalize("english")
	assert.True(t, ok)
	assert.Equal(t, "English", label)

	_, ok = Normalize("Klingon")
	assert.False(t, ok)
}

func TestOptions(t *testing.T) {
	opts := Options()
	assert.Equal(t, "English", Default().Label)
	assert.Equal(t, Default(), opts[0])
	var rtl []string
	for _, o := range opts {
		if o.RTL() {
			rtl = append(rtl, o.Code)
		}
	}
	assert.ElementsMatch(t, []string{"ar", "he", "fa", "ur"}, rtl)

	opts[0].Label = "changed"
	assert.Equal(t, "English", Default().Label)
}
