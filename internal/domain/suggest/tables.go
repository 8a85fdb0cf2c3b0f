package suggest

import (
	"sort"
	"strings"

	"github.com/okian/alsip/internal/domain/model"
)

// GeneralCategory is used when neither the category nor the title matches a
// keyword table entry.
const GeneralCategory = "general"

// Tables maps free-text goals onto a suggestion category and holds the
// fallback set for every category. It is configuration, not global state.
type Tables struct {
	// Keywords lists, per category, lower-case words that select it when
	// found in a goal title.
	Keywords map[string][]string
	// Fallbacks is the static suggestion set per category.
	Fallbacks map[string][]model.Suggestion
}

// DefaultTables returns the built-in keyword and fallback tables.
func DefaultTables() Tables {
	return Tables{
		Keywords: map[string][]string{
			"programming": {"code", "coding", "program", "developer", "software", "python", "go", "javascript", "backend", "frontend"},
			"data":        {"data", "analytics", "sql", "machine learning", "statistics", "ml"},
			"language":    {"spanish", "french", "german", "english", "japanese", "language", "fluent"},
			"design":      {"design", "ui", "ux", "figma", "illustration"},
		},
		Fallbacks: map[string][]model.Suggestion{
			"programming": {
				{Name: "Version control with Git", Importance: model.ImportanceCritical, FutureProof: true, Reason: "Every codebase is shared through it."},
				{Name: "Testing fundamentals", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Lets you change code with confidence."},
				{Name: "Debugging techniques", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Most time is spent reading and fixing code."},
			},
			"data": {
				{Name: "SQL querying", Importance: model.ImportanceCritical, FutureProof: true, Reason: "The common language of stored data."},
				{Name: "Descriptive statistics", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Needed to read any result correctly."},
				{Name: "Data visualization", Importance: model.ImportanceNiceToHave, FutureProof: true, Reason: "Makes findings easy to share."},
			},
			"language": {
				{Name: "Core vocabulary", Importance: model.ImportanceCritical, FutureProof: true, Reason: "The most frequent words cover most conversations."},
				{Name: "Listening practice", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Comprehension precedes speaking."},
				{Name: "Grammar basics", Importance: model.ImportanceImportant, FutureProof: false, Reason: "Gives structure to what you already know."},
			},
			"design": {
				{Name: "Visual hierarchy", Importance: model.ImportanceCritical, FutureProof: true, Reason: "Decides what users notice first."},
				{Name: "Typography", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Most interfaces are mostly text."},
				{Name: "Prototyping tools", Importance: model.ImportanceNiceToHave, FutureProof: false, Reason: "Tools change; the workflow stays."},
			},
			GeneralCategory: {
				{Name: "Fundamentals review", Importance: model.ImportanceCritical, FutureProof: true, Reason: "Everything else builds on the basics."},
				{Name: "Deliberate practice routine", Importance: model.ImportanceImportant, FutureProof: true, Reason: "Short daily sessions beat occasional long ones."},
				{Name: "Project-based learning", Importance: model.ImportanceNiceToHave, FutureProof: true, Reason: "Applying a skill shows what is missing."},
			},
		},
	}
}

// Resolve picks the category for a goal. An explicit category that has a
// fallback set wins; otherwise the first category, in name order, whose
// keyword appears in the title is used.
func (t Tables) Resolve(title, category string) string {
	if c := strings.ToLower(strings.TrimSpace(category)); c != "" {
		if _, ok := t.Fallbacks[c]; ok {
			return c
		}
	}

	words := tokenize(title)
	lowered := " " + strings.Join(words, " ") + " "
	names := make([]string, 0, len(t.Keywords))
	for name := range t.Keywords {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, kw := range t.Keywords[name] {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lowered, " "+kw+" ") {
				return name
			}
		}
	}
	return GeneralCategory
}

// Fallback returns a copy of the fallback set for category, or the general
// set when the category has none.
func (t Tables) Fallback(category string) []model.Suggestion {
	set, ok := t.Fallbacks[category]
	if !ok {
		set = t.Fallbacks[GeneralCategory]
	}
	return append([]model.Suggestion(nil), set...)
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}
