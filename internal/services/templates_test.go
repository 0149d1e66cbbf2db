package services

import (
	"errors"
	"testing"

	"github.com/checkfox/lead_engage/internal/models"
)

func TestTemplateStore_Builtin(t *testing.T) {
	s := NewTemplateStore()

	variants, err := s.Templates(CategoryGreeting, "en")
	if err != nil {
		t.Fatalf("Expected greeting templates, got error: %v", err)
	}
	if len(variants) != 3 {
		t.Errorf("Expected 3 greeting variants, got %d", len(variants))
	}
}

func TestTemplateStore_LanguageFallback(t *testing.T) {
	s := NewTemplateStore()

	es, err := s.Templates(CategoryGreeting, "es")
	if err != nil {
		t.Fatalf("Expected es greeting, got %v", err)
	}
	if es[0] == mustTemplates(t, s, CategoryGreeting, "en")[0] {
		t.Error("Expected es greeting to differ from en")
	}

	// es has no trade_in templates
	tradeIn, err := s.Templates("trade_in", "es")
	if err != nil {
		t.Fatalf("Expected fallback to en, got %v", err)
	}
	if tradeIn[0] != mustTemplates(t, s, "trade_in", "en")[0] {
		t.Error("Expected trade_in to fall back to en variants")
	}

	if _, err := s.Templates(CategoryGreeting, ""); err != nil {
		t.Errorf("Expected empty language to use default, got %v", err)
	}
}

func TestTemplateStore_UnknownCategory(t *testing.T) {
	_, err := NewTemplateStore().Templates("warranty", "en")
	if !errors.Is(err, models.ErrTemplateNotFound) {
		t.Errorf("Expected ErrTemplateNotFound, got %v", err)
	}
}

func TestTemplateStore_RegisterReplaces(t *testing.T) {
	s := NewEmptyTemplateStore()
	if s.HasCategory(CategoryGreeting) {
		t.Fatal("Expected empty store")
	}

	s.Register(CategoryGreeting, "en", "one", "two")
	s.Register(CategoryGreeting, "en", "three")

	variants := mustTemplates(t, s, CategoryGreeting, "en")
	if len(variants) != 1 || variants[0] != "three" {
		t.Errorf("Expected variants replaced with [three], got %v", variants)
	}
}

func TestTemplateStore_ReturnsCopy(t *testing.T) {
	s := NewTemplateStore()

	variants := mustTemplates(t, s, CategoryGreeting, "en")
	variants[0] = "mutated"

	if mustTemplates(t, s, CategoryGreeting, "en")[0] == "mutated" {
		t.Error("Expected store to be isolated from caller mutation")
	}
}

func mustTemplates(t *testing.T, s *TemplateStore, category, language string) []string {
	t.Helper()
	variants, err := s.Templates(category, language)
	if err != nil {
		t.Fatalf("Templates(%s, %s): %v", category, language, err)
	}
	return variants
}
