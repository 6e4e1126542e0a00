package ingest

import "strings"

// CategoryRule pairs a category label with the trigger words that select it.
type CategoryRule struct {
	Label    string
	Triggers []string
}

// TagConfig carries the keyword vocabulary and category rules applied to each
// chunk. Both are deployment configuration, not code: a different vocabulary
// can be injected without touching the tagger.
type TagConfig struct {
	// Vocabulary terms are matched as case-insensitive substrings, so a
	// term also matches inside a longer word containing it.
	Vocabulary  []string
	MaxKeywords int
	// Categories are tested in order; the first rule with a matching
	// trigger wins.
	Categories      []CategoryRule
	DefaultCategory string
}

// DefaultTagConfig returns the vocabulary and category rules used for the
// Lesli book corpus.
func DefaultTagConfig() TagConfig {
	return TagConfig{
		Vocabulary: []string{
			"фрейм", "доминирование", "притяжение", "соблазнение", "пуш-пул",
			"кокетство", "эскалация", "тест", "отказ", "свидание", "переписка",
			"психология", "женщина", "мужчина", "отношения", "секс", "страсть",
			"уверенность", "харизма", "статус", "ценность", "интерес", "эмоции",
		},
		MaxKeywords: 10,
		Categories: []CategoryRule{
			{Label: "свидания", Triggers: []string{"свидание", "встреча", "ресторан", "кафе"}},
			{Label: "переписка", Triggers: []string{"переписка", "сообщение", "текст", "чат"}},
			{Label: "психология", Triggers: []string{"психология", "типаж", "характер", "личность"}},
			{Label: "интимность", Triggers: []string{"секс", "интимность", "постель", "близость"}},
		},
		DefaultCategory: "общее",
	}
}

// Tagger computes keyword and category tags for chunks.
type Tagger struct {
	cfg TagConfig
}

func NewTagger(cfg TagConfig) *Tagger {
	defaults := DefaultTagConfig()
	if len(cfg.Vocabulary) == 0 {
		cfg.Vocabulary = defaults.Vocabulary
	}
	if cfg.MaxKeywords <= 0 {
		cfg.MaxKeywords = defaults.MaxKeywords
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = defaults.Categories
	}
	if cfg.DefaultCategory == "" {
		cfg.DefaultCategory = defaults.DefaultCategory
	}

	// Matching is lowercase-to-lowercase; normalize configured terms once.
	vocabulary := make([]string, len(cfg.Vocabulary))
	for i, term := range cfg.Vocabulary {
		vocabulary[i] = strings.ToLower(term)
	}
	cfg.Vocabulary = vocabulary

	categories := make([]CategoryRule, len(cfg.Categories))
	for i, rule := range cfg.Categories {
		triggers := make([]string, len(rule.Triggers))
		for j, trigger := range rule.Triggers {
			triggers[j] = strings.ToLower(trigger)
		}
		categories[i] = CategoryRule{Label: rule.Label, Triggers: triggers}
	}
	cfg.Categories = categories

	return &Tagger{cfg: cfg}
}

// Keywords returns the vocabulary terms present in text, in vocabulary order,
// capped at MaxKeywords and joined with commas. Returns "" when nothing
// matches.
func (t *Tagger) Keywords(text string) string {
	lower := strings.ToLower(text)

	var found []string
	for _, term := range t.cfg.Vocabulary {
		if strings.Contains(lower, term) {
			found = append(found, term)
			if len(found) >= t.cfg.MaxKeywords {
				break
			}
		}
	}

	return strings.Join(found, ", ")
}

// Category returns the label of the first category rule whose trigger words
// match the text, or the default category. Exactly one category is assigned.
func (t *Tagger) Category(text string) string {
	lower := strings.ToLower(text)

	for _, rule := range t.cfg.Categories {
		for _, trigger := range rule.Triggers {
			if strings.Contains(lower, trigger) {
				return rule.Label
			}
		}
	}

	return t.cfg.DefaultCategory
}
