package category

import "strings"

// Category is one of the fixed life-categories journal entries are filed under.
type Category string

const (
	Work          Category = "Work"
	Health        Category = "Health"
	Relationships Category = "Relationships"
	Purpose       Category = "Purpose"
)

// All lists every category in rendering order. Code that iterates categories
// must range over this slice, never over a map.
var All = []Category{Work, Health, Relationships, Purpose}

// definitions steer the summarization prompt for each category. Changing a
// definition changes summary tone, not which entries belong to the category.
var definitions = map[Category]string{
	Work:          "Professional life: projects, tasks, career progress, workplace events and ambitions.",
	Health:        "Physical and mental wellbeing: exercise, sleep, diet, energy levels, illness and recovery.",
	Relationships: "Connections with other people: family, friends, partners, colleagues as people.",
	Purpose:       "Meaning and direction: values, long-term goals, reflection, spirituality, personal growth.",
}

// Definition returns the human-readable definition for a category.
func Definition(c Category) string {
	return definitions[c]
}

// Delimiter separates category tokens in the stored entry field.
const Delimiter = ","

// Normalize trims and title-cases a category token. It is the single
// normalization rule shared by the aggregation read path and the
// classification write path; upstream writers are not trusted to have
// normalized consistently.
func Normalize(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return strings.ToUpper(token[:1]) + strings.ToLower(token[1:])
}

// ParseList splits a stored delimited category string into normalized tokens.
// Empty tokens are dropped; unrecognized tokens are kept (matching against
// the vocabulary is the caller's concern).
func ParseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tokens []string
	for _, raw := range strings.Split(s, Delimiter) {
		if t := Normalize(raw); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// Lookup reports whether a normalized token names a vocabulary category.
func Lookup(token string) (Category, bool) {
	c := Category(Normalize(token))
	_, ok := definitions[c]
	return c, ok
}

// FormatList joins categories back into the stored delimited representation.
func FormatList(cats []Category) string {
	parts := make([]string, len(cats))
	for i, c := range cats {
		parts[i] = string(c)
	}
	return strings.Join(parts, Delimiter+" ")
}
