package text

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/cloudflare/ahocorasick"
)

// Category is a group of promotional keywords with a fixed weight.
type Category struct {
	Name     string
	Weight   float64
	Keywords []string
}

// Categories are the promotional keyword groups. Weights sum to 1.
var Categories = []Category{
	{
		Name:   "urgency",
		Weight: 0.30,
		Keywords: []string{
			"urgent sale", "urgent", "hurry", "limited time", "dont miss", "don't miss",
			"act now", "last chance", "going fast", "wont last", "won't last",
			"grab now", "book now", "immediate", "asap",
		},
	},
	{
		Name:   "superlative",
		Weight: 0.25,
		Keywords: []string{
			"best deal", "best price", "lowest price", "unbeatable", "cheapest",
			"finest", "greatest", "ultimate", "supreme", "perfect", "ideal",
			"amazing", "incredible", "unbelievable", "fantastic", "fabulous",
			"never before", "one of a kind", "unique opportunity",
		},
	},
	{
		Name:   "luxury",
		Weight: 0.15,
		Keywords: []string{
			"luxury", "premium", "world-class", "ultra-modern", "lavish", "opulent",
			"exquisite", "prestigious", "exclusive", "elite", "deluxe", "magnificent",
			"spectacular", "stunning", "breathtaking", "extraordinary", "exceptional",
		},
	},
	{
		Name:   "emotion",
		Weight: 0.20,
		Keywords: []string{
			"dream home", "dream property", "paradise", "heaven", "bliss",
			"once in a lifetime", "rare opportunity", "golden opportunity",
		},
	},
	{
		Name:   "money",
		Weight: 0.10,
		Keywords: []string{
			"steal", "bargain", "giveaway", "hot deal", "super deal", "mega deal",
			"price reduced", "must sell", "distress sale", "bank sale",
			"high returns", "quick profit", "easy money", "risk-free",
		},
	},
}

const (
	occurrenceBonusStep = 0.1
	occurrenceBonusCap  = 0.3
	keywordsShown       = 5
)

// CategoryHit reports the keywords matched in one category.
type CategoryHit struct {
	Category     string
	Keywords     []string
	Occurrences  int
	Contribution float64
}

type keyword struct {
	category int
	text     string
	pattern  *regexp.Regexp
}

// KeywordMatcher finds whole-word keyword occurrences. Aho-Corasick narrows
// the candidates, then a word-boundary regexp confirms and counts them.
type KeywordMatcher struct {
	mu       sync.Mutex
	ac       *ahocorasick.Matcher
	keywords []keyword
}

// NewKeywordMatcher compiles keyword lists indexed by group.
func NewKeywordMatcher(groups [][]string) *KeywordMatcher {
	m := &KeywordMatcher{}
	var dictionary []string
	for gi, group := range groups {
		for _, kw := range group {
			kw = strings.ToLower(kw)
			m.keywords = append(m.keywords, keyword{
				category: gi,
				text:     kw,
				pattern:  regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`),
			})
			dictionary = append(dictionary, kw)
		}
	}
	m.ac = ahocorasick.NewStringMatcher(dictionary)
	return m
}

// Match is one keyword with its whole-word occurrence count.
type Match struct {
	Group   int
	Keyword string
	Count   int
}

// Find returns the whole-word matches in s (already lowercased), ordered by
// group then keyword declaration order.
func (m *KeywordMatcher) Find(s string) []Match {
	m.mu.Lock()
	hits := m.ac.Match([]byte(s))
	m.mu.Unlock()

	sort.Ints(hits)
	var out []Match
	for _, idx := range hits {
		kw := m.keywords[idx]
		n := len(kw.pattern.FindAllStringIndex(s, -1))
		if n == 0 {
			continue
		}
		out = append(out, Match{Group: kw.category, Keyword: kw.text, Count: n})
	}
	return out
}

// PromotionalScorer scores manipulative marketing language.
type PromotionalScorer struct {
	matcher *KeywordMatcher
}

// NewPromotionalScorer builds a scorer over Categories.
func NewPromotionalScorer() *PromotionalScorer {
	groups := make([][]string, len(Categories))
	for i, c := range Categories {
		groups[i] = c.Keywords
	}
	return &PromotionalScorer{matcher: NewKeywordMatcher(groups)}
}

// Score returns the weighted category score in [0, 1] and the per-category
// hits in category order.
func (p *PromotionalScorer) Score(s string) (float64, []CategoryHit) {
	matches := p.matcher.Find(normalizeForKeywords(s))

	byCategory := make([]CategoryHit, len(Categories))
	for _, m := range matches {
		h := &byCategory[m.Group]
		h.Keywords = append(h.Keywords, m.Keyword)
		h.Occurrences += m.Count
	}

	var total float64
	var hits []CategoryHit
	for i, c := range Categories {
		h := byCategory[i]
		unique := len(h.Keywords)
		if unique == 0 {
			continue
		}
		fraction := float64(unique) / float64(len(c.Keywords))
		bonus := math.Min(occurrenceBonusStep*float64(h.Occurrences-unique), occurrenceBonusCap)
		h.Category = c.Name
		h.Contribution = (fraction + bonus) * c.Weight
		total += h.Contribution
		hits = append(hits, h)
	}

	return math.Min(total, 1.0), hits
}

func describePromotional(score float64, hits []CategoryHit) string {
	parts := make([]string, 0, len(hits))
	for _, h := range hits {
		shown := h.Keywords
		if len(shown) > keywordsShown {
			shown = shown[:keywordsShown]
		}
		parts = append(parts, fmt.Sprintf("%s [%s] (%d occurrences)", h.Category, strings.Join(shown, ", "), h.Occurrences))
	}
	return fmt.Sprintf("Promotional language (score %.2f): %s.", score, strings.Join(parts, "; "))
}
