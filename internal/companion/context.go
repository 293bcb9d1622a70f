package companion

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/wolfman30/wellness-companion/internal/catalog"
)

const (
	maxKeywords   = 10
	minKeywordLen = 3
	topMatches    = 5
)

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {}, "your": {},
	"with": {}, "this": {}, "that": {}, "have": {}, "has": {}, "had": {}, "was": {}, "were": {},
	"been": {}, "from": {}, "they": {}, "them": {}, "their": {}, "what": {}, "when": {},
	"where": {}, "who": {}, "how": {}, "can": {}, "could": {}, "would": {}, "should": {},
	"will": {}, "just": {}, "about": {}, "into": {}, "there": {}, "then": {}, "than": {},
	"some": {}, "any": {}, "all": {}, "its": {}, "our": {}, "out": {}, "get": {}, "got": {},
	"feel": {}, "feeling": {}, "really": {}, "very": {}, "like": {}, "know": {}, "want": {},
	"need": {}, "did": {}, "does": {}, "doing": {}, "too": {}, "also": {}, "more": {},
	"much": {}, "lot": {}, "even": {}, "still": {}, "because": {}, "why": {}, "myself": {},
	"today": {}, "lately": {}, "im": {}, "ive": {}, "dont": {}, "cant": {},
}

// extractKeywords returns up to maxKeywords distinct, ordered query terms.
func extractKeywords(query string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.ToLower(query))

	seen := make(map[string]struct{})
	var keywords []string
	for _, token := range strings.Fields(cleaned) {
		if len([]rune(token)) < minKeywordLen {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
		if len(keywords) == maxKeywords {
			break
		}
	}
	return keywords
}

func relevance(keywords []string, haystack string) int {
	score := 0
	for _, k := range keywords {
		if strings.Contains(haystack, k) {
			score++
		}
	}
	return score
}

type scored[T any] struct {
	item  T
	score int
}

// rank orders items by descending score. Ties keep catalog order.
func rank[T any](items []T, keywords []string, text func(T) string) []T {
	ranked := make([]scored[T], len(items))
	for i, item := range items {
		ranked[i] = scored[T]{item: item, score: relevance(keywords, text(item))}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	n := len(ranked)
	if n > topMatches {
		n = topMatches
	}
	out := make([]T, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].item
	}
	return out
}

// BuildContext renders the catalog records most relevant to query. It returns
// "" when both catalogs are empty.
func BuildContext(query string, staff []catalog.StaffRecord, articles []catalog.ArticleRecord) string {
	keywords := extractKeywords(query)
	topStaff := rank(staff, keywords, catalog.StaffRecord.SearchText)
	topArticles := rank(articles, keywords, catalog.ArticleRecord.SearchText)

	var sections []string
	if len(topStaff) > 0 {
		var b strings.Builder
		b.WriteString("Psychiatrists:")
		for _, s := range topStaff {
			b.WriteString("\n- ")
			b.WriteString(formatStaff(s))
		}
		sections = append(sections, b.String())
	}
	if len(topArticles) > 0 {
		var b strings.Builder
		b.WriteString("Resources:")
		for _, a := range topArticles {
			b.WriteString("\n- ")
			b.WriteString(formatArticle(a))
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, "\n\n")
}

func formatStaff(s catalog.StaffRecord) string {
	var details []string
	if s.Specialty != "" {
		details = append(details, s.Specialty)
	}
	if s.YearsExperience > 0 {
		details = append(details, fmt.Sprintf("%d years experience", s.YearsExperience))
	}
	if s.Fee > 0 {
		details = append(details, "fee $"+strconv.FormatFloat(s.Fee, 'f', -1, 64))
	}
	line := s.Name
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	if bio := strings.TrimSpace(s.Bio); bio != "" {
		line += ": " + bio
	}
	return line
}

func formatArticle(a catalog.ArticleRecord) string {
	line := a.Title
	if a.Category != "" {
		line += " [" + a.Category + "]"
	}
	if desc := strings.TrimSpace(a.Description); desc != "" {
		line += ": " + desc
	}
	return line
}
