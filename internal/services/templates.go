package services

import (
	"sync"

	"github.com/checkfox/lead_engage/internal/models"
)

// Template categories known to the built-in catalog
const (
	CategoryGreeting           = "greeting"
	CategoryFollowUpInterested = "follow_up_interested"
)

// DefaultLanguage is used when the sender's language has no templates
const DefaultLanguage = "en"

// TemplateStore is a catalog of reply templates keyed by language and category.
// Variants are kept in declaration order; the composer rotates through them.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]map[string][]string
}

// NewTemplateStore creates a store preloaded with the built-in catalog
func NewTemplateStore() *TemplateStore {
	s := NewEmptyTemplateStore()
	for lang, categories := range builtinTemplates {
		for category, variants := range categories {
			s.Register(category, lang, variants...)
		}
	}
	return s
}

// NewEmptyTemplateStore creates a store with no templates
func NewEmptyTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]map[string][]string),
	}
}

// Register replaces the variants of a category for a language
func (s *TemplateStore) Register(category, language string, variants ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[language]; !ok {
		s.templates[language] = make(map[string][]string)
	}
	s.templates[language][category] = append([]string(nil), variants...)
}

// Templates returns the variants for a category, falling back to the default language.
// Returns models.ErrTemplateNotFound when neither language has the category.
func (s *TemplateStore) Templates(category, language string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if language == "" {
		language = DefaultLanguage
	}
	if variants := s.templates[language][category]; len(variants) > 0 {
		return append([]string(nil), variants...), nil
	}
	if variants := s.templates[DefaultLanguage][category]; len(variants) > 0 {
		return append([]string(nil), variants...), nil
	}
	return nil, models.ErrTemplateNotFound
}

// HasCategory reports whether the category exists in the default language
func (s *TemplateStore) HasCategory(category string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates[DefaultLanguage][category]) > 0
}

var builtinTemplates = map[string]map[string][]string{
	"en": {
		CategoryGreeting: {
			"Hi {name}! Thanks for reaching out. I'd be happy to help you with {vehicle}. What would you like to know?",
			"Hello {name}, great to hear from you! Are you looking for more details on {vehicle}?",
			"Hey {name}! Thanks for your message. How can I help you find the right vehicle today?",
		},
		"pricing_inquiry": {
			"Great question, {name}! I can put together current pricing and any available incentives for {vehicle}. Would a quick call work for you?",
			"{name}, pricing on {vehicle} depends on trim and options. I'll send over a detailed price sheet right away.",
			"Thanks {name}! We have competitive offers on {vehicle} this month. Want me to break down the monthly payment options?",
		},
		"vehicle_inquiry": {
			"Good news, {name}! Let me check availability on {vehicle} and send you the full details.",
			"{name}, {vehicle} is a popular choice. I'll send photos, features and specs shortly.",
			"Thanks for asking about {vehicle}, {name}! Would you like to see it in person?",
		},
		"test_drive": {
			"I'd love to set up a test drive of {vehicle} for you, {name}. What day and time work best?",
			"{name}, let's get you behind the wheel of {vehicle}! We have openings today and tomorrow.",
		},
		"trade_in": {
			"{name}, we'd be glad to look at your trade-in. Could you share the year, make, model and mileage?",
			"Trade-ins are easy with us, {name}. Send a few photos and we'll get you an estimate.",
		},
		"financing": {
			"{name}, we work with several lenders to find the best rate for you. Want me to send a quick credit application?",
			"Financing {vehicle} is simple, {name}. I can walk you through lease and loan options.",
		},
		"service": {
			"Thanks {name}! I'll connect you with our service department to book your appointment.",
			"{name}, our service team can help with that. What day works best for you?",
		},
		"hours_location": {
			"{name}, we're open Monday to Saturday 9am to 8pm. I'll send you directions right away.",
			"Happy to help, {name}! I'll text you our address and today's hours.",
		},
		CategoryFollowUpInterested: {
			"Welcome back, {name}! Are you still interested in {vehicle}? I can check the latest offers for you.",
			"Hi again {name}! Just following up on {vehicle}. Would you like to schedule a visit?",
		},
	},
	"es": {
		CategoryGreeting: {
			"¡Hola {name}! Gracias por escribirnos. Con gusto te ayudo con {vehicle}. ¿Qué te gustaría saber?",
			"Hola {name}, ¡qué gusto saludarte! ¿Buscas más detalles sobre {vehicle}?",
		},
		"pricing_inquiry": {
			"¡Buena pregunta, {name}! Te preparo los precios actuales y promociones de {vehicle}. ¿Te llamo?",
			"{name}, el precio de {vehicle} depende de la versión. Te envío la lista de precios ahora mismo.",
		},
		CategoryFollowUpInterested: {
			"¡Bienvenido de nuevo, {name}! ¿Sigues interesado en {vehicle}?",
		},
	},
}
