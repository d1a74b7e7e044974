package parser

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ashwell/soapnote/internal/apperr"
)

func TestClassify_EncounterScenario(t *testing.T) {
	text := "Patient complains of chest pain for 3 days. " +
		"Blood pressure 130 over 85, heart rate 78. " +
		"Diagnosis likely costochondritis. " +
		"Will prescribe ibuprofen 400mg three times daily."

	got, err := Classify(text, "en-US")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}

	want := &Sections{
		Subjective: []string{"Patient complains of chest pain for 3 days."},
		Objective:  []string{"Blood pressure 130 over 85, heart rate 78."},
		Assessment: []string{"Diagnosis likely costochondritis."},
		Plan:       []string{"Will prescribe ibuprofen 400mg three times daily."},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Classify =\n%+v\nwant\n%+v", got, want)
	}
}

func TestClassify_TieBreakPriority(t *testing.T) {
	// Contains both a plan marker ("prescribe") and a subjective marker
	// ("complains"); plan wins by priority order.
	got, err := Classify("Patient complains, so I will prescribe rest.", "en-US")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Plan) != 1 || len(got.Subjective) != 0 {
		t.Errorf("expected plan assignment, got %+v", got)
	}
}

func TestClassify_EmptyInput(t *testing.T) {
	got, err := Classify("", "en-US")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Subjective)+len(got.Objective)+len(got.Assessment)+len(got.Plan) != 0 {
		t.Errorf("expected all-empty sections, got %+v", got)
	}
}

func TestClassify_DefaultBucket(t *testing.T) {
	got, err := Classify("The weather was cold that morning.", "en-US")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(got.Subjective) != 1 {
		t.Errorf("unmatched unit should default to subjective, got %+v", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	text := "Reports fatigue. BP 120 over 80. Likely viral. Recommend rest."
	first, err := Classify(text, "en-US")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, err := Classify(text, "en-US")
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs: %+v vs %+v", i, first, again)
		}
	}
}

func TestClassify_UnsupportedLanguage(t *testing.T) {
	_, err := Classify("text", "pt-BR")
	if !errors.Is(err, apperr.ErrUnsupportedLanguage) {
		t.Errorf("err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestClassify_OtherLanguages(t *testing.T) {
	cases := []struct {
		lang string
		text string
		want Section
	}{
		{"es-ES", "El paciente refiere dolor de cabeza.", Subjective},
		{"es-ES", "Recetar paracetamol cada ocho horas.", Plan},
		{"fr-FR", "Tension artérielle 120 sur 80.", Objective},
		{"fr-FR", "Diagnostic probable de bronchite.", Assessment},
		{"it-IT", "Il paziente lamenta tosse persistente.", Subjective},
		{"tr-TR", "Tansiyon 120 80 ölçüldü.", Objective},
		{"de-DE", "Patient klagt über Husten.", Subjective},
		{"de-DE", "Verdacht auf Bronchitis.", Assessment},
		{"de-DE", "Paracetamol verschreiben.", Plan},
	}
	for _, tc := range cases {
		got, err := Classify(tc.text, tc.lang)
		if err != nil {
			t.Fatalf("Classify(%s): %v", tc.lang, err)
		}
		var bucket []string
		switch tc.want {
		case Subjective:
			bucket = got.Subjective
		case Objective:
			bucket = got.Objective
		case Assessment:
			bucket = got.Assessment
		case Plan:
			bucket = got.Plan
		}
		if len(bucket) != 1 {
			t.Errorf("%s %q: expected %s assignment, got %+v", tc.lang, tc.text, tc.want, got)
		}
	}
}

func TestSegment_DecimalsAndNewlines(t *testing.T) {
	units := segment("Temp 99.2 on arrival.\nNo wheezing noted!")
	want := []string{"Temp 99.2 on arrival.", "No wheezing noted!"}
	if !reflect.DeepEqual(units, want) {
		t.Errorf("segment = %v, want %v", units, want)
	}
}

func TestTables_CoverAllLanguagesAndSections(t *testing.T) {
	langs := []string{"en-US", "es-ES", "fr-FR", "it-IT", "tr-TR", "de-DE"}
	for _, l := range langs {
		table, ok := tables[l]
		if !ok {
			t.Errorf("no keyword table for %s", l)
			continue
		}
		for _, sec := range priority {
			if len(table[sec]) == 0 {
				t.Errorf("%s: empty keyword set for %s", l, sec)
			}
		}
	}
}
