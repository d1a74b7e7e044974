// Package language holds the fixed set of dictation languages the
// classifier carries keyword tables for.
package language

import "sort"

// names maps each supported BCP-47 tag to its display name. Extending this
// set requires a matching keyword table in the parser package.
var names = map[string]string{
	"en-US": "English (US)",
	"es-ES": "Spanish (Spain)",
	"fr-FR": "French (France)",
	"it-IT": "Italian (Italy)",
	"tr-TR": "Turkish (Turkey)",
	"de-DE": "German (Germany)",
}

// Default is the language assumed when none is given.
const Default = "en-US"

// IsSupported reports whether code is in the supported set.
func IsSupported(code string) bool {
	_, ok := names[code]
	return ok
}

// Display returns the human-readable name for code, or code itself when unknown.
func Display(code string) string {
	if n, ok := names[code]; ok {
		return n
	}
	return code
}

// Codes returns the supported language codes in sorted order.
func Codes() []string {
	out := make([]string, 0, len(names))
	for c := range names {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
