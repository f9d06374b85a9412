// Package content produces template-based blog drafts and title ideas.
// Nothing here calls an external generation service.
package content

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
)

const (
	defaultMainKeyword   = "topic"
	defaultSecondKeyword = "industry"
	defaultTitleKeyword  = "Topic"

	// TitleSuggestionCount is how many titles GenerateTitleSuggestions returns.
	TitleSuggestionCount = 5
)

// Generator renders blog content and title suggestions. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator creates a Generator. A nil rng gets a time-seeded source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		seed := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{rng: rng}
}

var defaultGenerator = NewGenerator(nil)

// GenerateBlogContent renders the fixed seven-section draft using the package generator.
func GenerateBlogContent(title string, primaryKeywords, secondaryKeywords []string) string {
	return defaultGenerator.GenerateBlogContent(title, primaryKeywords, secondaryKeywords)
}

// GenerateTitleSuggestions returns five shuffled titles using the package generator.
func GenerateTitleSuggestions(keywords []string) []string {
	return defaultGenerator.GenerateTitleSuggestions(keywords)
}

// GenerateBlogContent returns an HTML document with seven <h2> sections. The first primary
// keyword and the second keyword (second primary, else first secondary) are substituted
// into fixed sentences. All substituted values are HTML-escaped.
func (g *Generator) GenerateBlogContent(title string, primaryKeywords, secondaryKeywords []string) string {
	data := struct {
		Title, Main, Second string
	}{
		Title:  title,
		Main:   firstNonEmpty(defaultMainKeyword, at(primaryKeywords, 0)),
		Second: firstNonEmpty(defaultSecondKeyword, at(primaryKeywords, 1), at(secondaryKeywords, 0)),
	}

	var sb strings.Builder
	// Execute only fails on writer errors or template bugs; a Builder never errors.
	if err := blogTemplate.Execute(&sb, data); err != nil {
		panic(fmt.Sprintf("content: blog template: %v", err))
	}
	return sb.String()
}

// GenerateTitleSuggestions fills every title template with keywords[0] (or "Topic"),
// shuffles them and returns the first five.
func (g *Generator) GenerateTitleSuggestions(keywords []string) []string {
	keyword := firstNonEmpty(defaultTitleKeyword, at(keywords, 0))

	titles := make([]string, len(titleTemplates))
	for i, tmpl := range titleTemplates {
		titles[i] = fmt.Sprintf(tmpl, keyword)
	}

	g.mu.Lock()
	g.rng.Shuffle(len(titles), func(i, j int) { titles[i], titles[j] = titles[j], titles[i] })
	g.mu.Unlock()

	return titles[:TitleSuggestionCount]
}

func at(values []string, i int) string {
	if i < len(values) {
		return strings.TrimSpace(values[i])
	}
	return ""
}

// firstNonEmpty returns the first non-empty candidate, or fallback.
func firstNonEmpty(fallback string, candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	return fallback
}
