// Package parser classifies encounter transcripts into SOAP sections using
// per-language keyword tables.
package parser

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ashwell/soapnote/internal/apperr"
)

// Section identifies one of the four SOAP buckets.
type Section string

const (
	Subjective Section = "subjective"
	Objective  Section = "objective"
	Assessment Section = "assessment"
	Plan       Section = "plan"
)

// priority is the tie-break order: a unit goes to the first section whose
// keyword set matches. The order is the same for every language.
var priority = []Section{Plan, Assessment, Objective, Subjective}

//go:embed keywords.yaml
var keywordsYAML []byte

// tables maps language code -> section -> keywords. Loaded once at package
// init and immutable afterward.
var tables map[string]map[Section][]string

func init() {
	if err := yaml.Unmarshal(keywordsYAML, &tables); err != nil {
		panic(fmt.Sprintf("parser: invalid embedded keyword tables: %v", err))
	}
}

// Sections holds classified transcript units in arrival order.
type Sections struct {
	Subjective []string
	Objective  []string
	Assessment []string
	Plan       []string
}

// Classify partitions transcript text into SOAP sections using the keyword
// table for lang. Empty input yields all-empty sections without error. The
// result carries no note identity; the caller attaches patient and physician
// metadata afterward.
func Classify(text, lang string) (*Sections, error) {
	table, ok := tables[lang]
	if !ok {
		return nil, fmt.Errorf("parser: %w: %s", apperr.ErrUnsupportedLanguage, lang)
	}

	out := &Sections{}
	for _, unit := range segment(text) {
		switch categorize(unit, table) {
		case Plan:
			out.Plan = append(out.Plan, unit)
		case Assessment:
			out.Assessment = append(out.Assessment, unit)
		case Objective:
			out.Objective = append(out.Objective, unit)
		default:
			out.Subjective = append(out.Subjective, unit)
		}
	}
	return out, nil
}

// categorize returns the first section in priority order with a keyword
// contained in the unit. Matching is case-insensitive substring containment.
// Units matching nothing default to Subjective: unmarked narration is most
// often patient-reported.
func categorize(unit string, table map[Section][]string) Section {
	lower := strings.ToLower(unit)
	for _, sec := range priority {
		for _, kw := range table[sec] {
			if strings.Contains(lower, kw) {
				return sec
			}
		}
	}
	return Subjective
}

// segment splits text into sentence-like units on terminal punctuation and
// newlines. Terminal punctuation stays attached to its unit. A period
// between two digits (decimal point) does not terminate a unit.
func segment(text string) []string {
	runes := []rune(text)
	var units []string
	var b strings.Builder

	flush := func() {
		u := strings.TrimSpace(b.String())
		b.Reset()
		if u != "" {
			units = append(units, u)
		}
	}

	for i, r := range runes {
		switch r {
		case '\n', '\r':
			flush()
		case '.':
			if i > 0 && i+1 < len(runes) && isDigit(runes[i-1]) && isDigit(runes[i+1]) {
				b.WriteRune(r)
				continue
			}
			b.WriteRune(r)
			flush()
		case '!', '?':
			b.WriteRune(r)
			flush()
		default:
			b.WriteRune(r)
		}
	}
	flush()
	return units
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }
