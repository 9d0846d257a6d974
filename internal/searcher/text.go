package searcher

import "strings"

// stopwords are removed during keyword extraction. Capitalization is
// ignored for membership but capitalized non-stopwords are kept since
// they are likely proper nouns or technical terms.
var stopwords = map[string]struct{}{
	// Question words
	"what": {}, "which": {}, "who": {}, "whom": {}, "where": {},
	"when": {}, "why": {}, "how": {},
	// Prepositions and articles
	"to": {}, "of": {}, "in": {}, "for": {}, "on": {}, "with": {},
	"at": {}, "by": {}, "from": {}, "as": {}, "into": {}, "about": {},
	"a": {}, "an": {}, "the": {},
	// Conjunctions
	"and": {}, "or": {}, "but": {}, "if": {}, "then": {},
	// Pronouns
	"this": {}, "that": {}, "these": {}, "those": {}, "i": {}, "you": {},
	"he": {}, "she": {}, "it": {}, "we": {}, "they": {}, "my": {},
	"your": {}, "his": {}, "her": {}, "its": {}, "our": {}, "their": {},
	// Common verbs
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"being": {}, "have": {}, "has": {}, "had": {}, "do": {}, "does": {},
	"did": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"may": {}, "might": {}, "must": {},
	// Fillers
	"some": {}, "any": {}, "all": {}, "both": {}, "each": {}, "every": {},
	"other": {}, "another": {}, "such": {}, "only": {}, "own": {},
	"same": {}, "so": {}, "than": {}, "too": {}, "very": {}, "just": {},
	"also": {},
	// Query phrasing
	"include": {}, "includes": {}, "including": {}, "contain": {},
	"contains": {}, "show": {}, "shows": {}, "find": {}, "search": {},
	"look": {}, "looking": {}, "tell": {}, "explain": {}, "describe": {},
	"give": {}, "get": {}, "know": {}, "somehow": {}, "something": {},
	"anything": {}, "everything": {}, "please": {}, "help": {},
	"need": {}, "want": {},
}

// ExtractKeywords strips stopwords from a natural language query,
// returning a space-separated keyword string. An empty result means the
// query was all stopwords.
func ExtractKeywords(query string) string {
	words := strings.Fields(query)
	keywords := make([]string, 0, len(words))

	for _, word := range words {
		if _, stop := stopwords[strings.ToLower(word)]; !stop {
			keywords = append(keywords, word)
		}
	}

	return strings.Join(keywords, " ")
}

// TruncateText shortens text to maxLength at a word boundary, appending
// "..." when truncation occurred
func TruncateText(text string, maxLength int) string {
	const suffix = "..."
	if text == "" || len(text) <= maxLength {
		return text
	}

	cut := maxLength - len(suffix)
	if cut < 0 {
		cut = 0
	}
	truncated := text[:cut]

	if lastSpace := strings.LastIndex(truncated, " "); lastSpace > maxLength/2 {
		truncated = truncated[:lastSpace]
	}

	return truncated + suffix
}
