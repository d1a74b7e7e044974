package language

import "testing"

func TestIsSupported(t *testing.T) {
	for _, code := range []string{"en-US", "es-ES", "fr-FR", "it-IT", "tr-TR", "de-DE"} {
		if !IsSupported(code) {
			t.Errorf("IsSupported(%q) = false, want true", code)
		}
	}
	for _, code := range []string{"", "en", "en-GB", "pt-BR", "EN-US"} {
		if IsSupported(code) {
			t.Errorf("IsSupported(%q) = true, want false", code)
		}
	}
}

func TestDisplay(t *testing.T) {
	if got := Display("de-DE"); got != "German (Germany)" {
		t.Errorf("Display(de-DE) = %q", got)
	}
	// Unknown codes pass through unchanged.
	if got := Display("xx-XX"); got != "xx-XX" {
		t.Errorf("Display(xx-XX) = %q", got)
	}
}

func TestCodesSortedAndComplete(t *testing.T) {
	codes := Codes()
	if len(codes) != 6 {
		t.Fatalf("len(Codes()) = %d, want 6", len(codes))
	}
	for i := 1; i < len(codes); i++ {
		if codes[i-1] >= codes[i] {
			t.Errorf("codes not sorted: %v", codes)
		}
	}
}
