package classifier

import (
	"context"
	"sort"
	"strings"

	"github.com/raymondclowe/RememBot/pkg/types"
)

// deweyClass groups keywords under one Dewey Decimal class
type deweyClass struct {
	code     string
	label    string
	keywords []string
}

// Coarse top-level classes are enough for grouping saved content
var deweyClasses = []deweyClass{
	{"005", "Computer programming", []string{
		"software", "programming", "code", "algorithm", "database",
		"golang", "python", "javascript", "compiler", "debugging", "api",
	}},
	{"006", "Artificial intelligence", []string{
		"machine learning", "neural", "llm", "artificial intelligence",
		"deep learning", "model training", "chatbot",
	}},
	{"150", "Psychology", []string{
		"psychology", "cognitive", "behavior", "emotion", "mindfulness",
	}},
	{"330", "Economics", []string{
		"economics", "economy", "inflation", "market", "investment",
		"finance", "stock", "trade",
	}},
	{"340", "Law", []string{
		"law", "legal", "court", "regulation", "contract", "copyright",
	}},
	{"500", "Natural sciences", []string{
		"physics", "chemistry", "biology", "mathematics", "astronomy",
		"experiment", "quantum", "genome",
	}},
	{"610", "Medicine and health", []string{
		"medicine", "health", "disease", "clinical", "vaccine",
		"nutrition", "therapy",
	}},
	{"641", "Food and cooking", []string{
		"recipe", "cooking", "baking", "ingredients", "cuisine", "sourdough",
	}},
	{"700", "Arts and recreation", []string{
		"music", "painting", "photography", "film", "design", "sports", "game",
	}},
	{"800", "Literature", []string{
		"novel", "poetry", "fiction", "literature", "essay",
	}},
	{"910", "Geography and travel", []string{
		"travel", "itinerary", "tourism", "hiking", "destination",
	}},
	{"900", "History", []string{
		"history", "historical", "ancient", "empire", "revolution", "war",
	}},
}

// Keyword is the offline classifier: it scores text against a fixed
// vocabulary per Dewey class. Crude, but it works with no network and no
// key, which keeps taxonomy assignment alive when the LLM path is down.
type Keyword struct{}

// NewKeyword creates the heuristic classifier
func NewKeyword() *Keyword {
	return &Keyword{}
}

func (k *Keyword) Classify(_ context.Context, text string) (types.Blob, error) {
	lowered := strings.ToLower(text)
	if strings.TrimSpace(lowered) == "" {
		return unclassified()
	}

	type scored struct {
		class deweyClass
		hits  int
	}
	var matches []scored
	for _, class := range deweyClasses {
		hits := 0
		for _, kw := range class.keywords {
			hits += strings.Count(lowered, kw)
		}
		if hits > 0 {
			matches = append(matches, scored{class, hits})
		}
	}

	if len(matches) == 0 {
		return unclassified()
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].hits > matches[j].hits
	})

	subjects := make([]string, 0, 3)
	for i, m := range matches {
		if i == 3 {
			break
		}
		subjects = append(subjects, m.class.label)
	}

	// More distinct hits means more confidence, capped well below certainty
	confidence := 0.3 + 0.1*float64(matches[0].hits)
	if confidence > 0.8 {
		confidence = 0.8
	}

	return (&types.TaxonomyView{
		DeweyDecimal: matches[0].class.code,
		Subjects:     subjects,
		Confidence:   confidence,
		Method:       "keyword",
	}).Encode()
}
