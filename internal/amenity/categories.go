// Package amenity checks a listing's "near the metro"-style claims against
// points of interest around its coordinates.
package amenity

import (
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/text"
)

// TagFilter selects OpenStreetMap elements with Key=Value.
type TagFilter struct {
	Key   string
	Value string
}

// Category is one kind of amenity a listing can claim.
type Category struct {
	Name     string
	Keywords []string
	Tags     []TagFilter
}

// Categories are matched in this order and reported in this order.
var Categories = []Category{
	{
		Name:     "transit",
		Keywords: []string{"metro", "metro station", "subway", "railway station", "train station", "mmts"},
		Tags: []TagFilter{
			{"railway", "station"},
			{"railway", "subway_entrance"},
			{"public_transport", "station"},
		},
	},
	{
		Name:     "education",
		Keywords: []string{"school", "schools", "college", "university", "educational institution"},
		Tags: []TagFilter{
			{"amenity", "school"},
			{"amenity", "college"},
			{"amenity", "university"},
		},
	},
	{
		Name:     "healthcare",
		Keywords: []string{"hospital", "hospitals", "clinic", "medical center", "medical centre", "health center"},
		Tags: []TagFilter{
			{"amenity", "hospital"},
			{"amenity", "clinic"},
			{"healthcare", "hospital"},
		},
	},
	{
		Name:     "retail",
		Keywords: []string{"mall", "malls", "shopping center", "shopping centre", "shopping complex", "supermarket"},
		Tags: []TagFilter{
			{"shop", "mall"},
			{"shop", "supermarket"},
			{"amenity", "marketplace"},
		},
	},
	{
		Name:     "recreation",
		Keywords: []string{"park", "parks", "green space", "playground", "gym", "fitness center", "fitness centre", "sports complex"},
		Tags: []TagFilter{
			{"leisure", "park"},
			{"leisure", "garden"},
			{"leisure", "playground"},
			{"leisure", "fitness_centre"},
			{"leisure", "sports_centre"},
		},
	},
	{
		Name:     "transport-hub",
		Keywords: []string{"airport", "international airport", "bus station", "bus stand", "bus terminal"},
		Tags: []TagFilter{
			{"aeroway", "aerodrome"},
			{"amenity", "bus_station"},
		},
	},
	{
		Name:     "commerce",
		Keywords: []string{"it park", "tech park", "software park", "it hub", "hitech city", "hi-tech city", "business district", "sez"},
		Tags: []TagFilter{
			{"office", "it"},
			{"landuse", "commercial"},
			{"office", "company"},
		},
	},
	{
		Name:     "food",
		Keywords: []string{"food court", "dining", "cafe", "cafes", "eateries"},
		Tags: []TagFilter{
			{"amenity", "food_court"},
			{"amenity", "cafe"},
			{"amenity", "fast_food"},
		},
	},
	{
		Name:     "restaurant",
		Keywords: []string{"restaurant", "restaurants"},
		Tags: []TagFilter{
			{"amenity", "restaurant"},
		},
	},
	{
		Name:     "finance",
		Keywords: []string{"bank", "banks", "atm", "atms"},
		Tags: []TagFilter{
			{"amenity", "bank"},
			{"amenity", "atm"},
		},
	},
}

// ClaimDetector finds which categories a listing text claims.
type ClaimDetector struct {
	matcher *text.KeywordMatcher
}

// NewClaimDetector compiles the keyword lists of Categories.
func NewClaimDetector() *ClaimDetector {
	groups := make([][]string, len(Categories))
	for i, c := range Categories {
		groups[i] = c.Keywords
	}
	return &ClaimDetector{matcher: text.NewKeywordMatcher(groups)}
}

// Claim is a claimed category and the first keyword that claimed it.
type Claim struct {
	Category Category
	Keyword  string
}

// Detect returns the claimed categories in Categories order. Keywords
// match whole words only.
func (d *ClaimDetector) Detect(s string) []Claim {
	seen := make([]bool, len(Categories))
	var claims []Claim
	for _, m := range d.matcher.Find(strings.ToLower(s)) {
		if seen[m.Group] {
			continue
		}
		seen[m.Group] = true
		claims = append(claims, Claim{Category: Categories[m.Group], Keyword: m.Keyword})
	}
	return claims
}
