package i18n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestParseTagSupported(t *testing.T) {
	tag, ok := ParseTag("fr")
	if !ok {
		t.Fatal("expected fr to be supported")
	}
	if tag != language.French {
		t.Fatalf("tag = %v, want %v", tag, language.French)
	}
}

func TestParseTagRegionalVariant(t *testing.T) {
	tag, ok := ParseTag("fr-CA")
	if !ok {
		t.Fatal("expected fr-CA to map to a supported tag")
	}
	if tag != language.French {
		t.Fatalf("tag = %v, want %v", tag, language.French)
	}
}

func TestParseTagUnsupported(t *testing.T) {
	if _, ok := ParseTag("pt-BR"); ok {
		t.Fatal("expected pt-BR to be unsupported")
	}
	if _, ok := ParseTag("not-a-lang"); ok {
		t.Fatal("expected garbage value to be unsupported")
	}
	if _, ok := ParseTag(""); ok {
		t.Fatal("expected empty value to be unsupported")
	}
}

func TestMatchTagsPrefersFrench(t *testing.T) {
	got := MatchTags([]language.Tag{language.MustParse("fr-CA"), language.English})
	if got != language.French {
		t.Fatalf("MatchTags = %v, want %v", got, language.French)
	}
}

func TestMatchTagsFallsBackToDefault(t *testing.T) {
	got := MatchTags(nil)
	if got != DefaultTag() {
		t.Fatalf("MatchTags = %v, want default %v", got, DefaultTag())
	}
}

func TestSupportedTagsCopy(t *testing.T) {
	tags := SupportedTags()
	if len(tags) != 2 {
		t.Fatalf("len(SupportedTags) = %d, want 2", len(tags))
	}
	tags[0] = language.German
	if SupportedTags()[0] != language.English {
		t.Fatal("SupportedTags must return a copy")
	}
}
