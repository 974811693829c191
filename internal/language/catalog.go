// Package language knows the supported generation languages and how to phrase
// a language requirement for an LLM.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Option is one selectable language.
type Option struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	Direction string `json:"direction"`
}

// RTL reports whether the language is written right to left.
func (o Option) RTL() bool { return o.Direction == "rtl" }

var options = []Option{
	{"en", "English", "ltr"},
	{"de", "Deutsch (German)", "ltr"},
	{"de-CH", "Deutsch (Schweiz)", "ltr"},
	{"fr", "Français (French)", "ltr"},
	{"it", "Italiano (Italian)", "ltr"},
	{"es", "Español (Spanish)", "ltr"},
	{"pt", "Português (Portuguese)", "ltr"},
	{"gsw", "Svizzeru / Schweizerdeutsch (Swiss German)", "ltr"},
	{"rm", "Rumantsch (Romansh)", "ltr"},
	{"sq", "Albanian", "ltr"},
	{"bs", "Bosnian", "ltr"},
	{"bg", "Bulgarian", "ltr"},
	{"hr", "Croatian", "ltr"},
	{"sr", "Serbian", "ltr"},
	{"sl", "Slovenian", "ltr"},
	{"ro", "Romanian", "ltr"},
	{"ru", "Russian", "ltr"},
	{"uk", "Ukrainian", "ltr"},
	{"pl", "Polish", "ltr"},
	{"cs", "Czech", "ltr"},
	{"sk", "Slovak", "ltr"},
	{"hu", "Hungarian", "ltr"},
	{"tr", "Turkish", "ltr"},
	{"ar", "Arabic", "rtl"},
	{"he", "Hebrew", "rtl"},
	{"fa", "Persian (Farsi)", "rtl"},
	{"ku", "Kurdish", "ltr"},
	{"el", "Greek", "ltr"},
	{"fil", "Filipino (Tagalog)", "ltr"},
	{"th", "Thai", "ltr"},
	{"vi", "Vietnamese", "ltr"},
	{"ms", "Malay / Indonesian", "ltr"},
	{"zh-Hans", "Chinese (Simplified)", "ltr"},
	{"zh-Hant", "Chinese (Traditional)", "ltr"},
	{"ja", "Japanese", "ltr"},
	{"ko", "Korean", "ltr"},
	{"hi", "Hindi", "ltr"},
	{"ur", "Urdu", "rtl"},
	{"bn", "Bengali", "ltr"},
	{"pa", "Punjabi", "ltr"},
	{"ta", "Tamil", "ltr"},
	{"te", "Telugu", "ltr"},
	{"kn", "Kannada", "ltr"},
	{"ml", "Malayalam", "ltr"},
	{"si", "Sinhala", "ltr"},
	{"ne", "Nepali", "ltr"},
	{"am", "Amharic", "ltr"},
	{"ti", "Tigrinya", "ltr"},
	{"so", "Somali", "ltr"},
	{"sw", "Swahili", "ltr"},
	{"yo", "Yoruba", "ltr"},
	{"ig", "Igbo", "ltr"},
	{"ha", "Hausa", "ltr"},
	{"wo", "Wolof", "ltr"},
	{"bm", "Bambara", "ltr"},
	{"rw", "Kinyarwanda", "ltr"},
	{"rn", "Kirundi", "ltr"},
	{"ln", "Lingala", "ltr"},
	{"zu", "Zulu", "ltr"},
	{"xh", "Xhosa", "ltr"},
	{"sn", "Shona", "ltr"},
}

// Regional rules the model must follow verbatim.
var instructions = map[string]string{
	"de-CH": "Swiss German (Schweizerdeutsch) - CRITICAL: Use 'ss' instead of 'ß' (e.g., 'Strasse' not 'Straße', 'Grüsse' not 'Grüße', 'dass' not 'daß'). This is Swiss Standard German orthography.",
	"de":    "German (Standard German / Hochdeutsch) - Use standard German orthography including 'ß' where appropriate.",
	"de-DE": "German (Germany) - Use standard German orthography including 'ß' where appropriate.",
	"en":    "English",
	"fr":    "French (Français)",
	"it":    "Italian (Italiano)",
	"es":    "Spanish (Español)",
	"pt":    "Portuguese (Português)",
}

var (
	byCode  = make(map[string]Option, len(options))
	byLabel = make(map[string]Option, len(options))
)

func init() {
	for _, o := range options {
		byCode[strings.ToLower(o.Code)] = o
		byLabel[strings.ToLower(o.Label)] = o
	}
}

// Options returns the supported languages, English first.
func Options() []Option {
	out := make([]Option, len(options))
	copy(out, options)
	return out
}

// Default is the language used when a user has not configured one.
func Default() Option { return options[0] }

// Lookup finds a supported language by code (any BCP 47 casing) or label.
func Lookup(value string) (Option, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Option{}, false
	}
	if o, ok := byCode[v]; ok {
		return o, true
	}
	if o, ok := byLabel[v]; ok {
		return o, true
	}
	if tag, err := language.Parse(v); err == nil {
		if o, ok := byCode[strings.ToLower(tag.String())]; ok {
			return o, true
		}
	}
	return Option{}, false
}

// Normalize maps a code or label to the canonical label.
func Normalize(value string) (string, bool) {
	o, ok := Lookup(value)
	if !ok {
		return "", false
	}
	return o.Label, true
}

// DisplayName returns the English name of a BCP 47 code, or "" when the code
// does not parse.
func DisplayName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return ""
	}
	return display.English.Tags().Name(tag)
}

// Instruction renders value as the language requirement placed into prompts.
// Codes with regional orthography rules get the full rule. Other supported
// languages become their English name. Free text is passed through unchanged.
func Instruction(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	if o, ok := Lookup(v); ok {
		if s, ok := instructions[o.Code]; ok {
			return s
		}
		if name := DisplayName(o.Code); name != "" {
			return name
		}
		return o.Label
	}
	if tag, err := language.Parse(v); err == nil {
		if s, ok := instructions[tag.String()]; ok {
			return s
		}
	}
	return v
}
