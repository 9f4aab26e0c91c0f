// Package fusion combines detector scores into one fraud probability with
// fraud-type labels and ranked explanations.
package fusion

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Madhu097/realestate-fraud-detection/internal/scoring"
	"github.com/Madhu097/realestate-fraud-detection/pkg/i18n"
)

const (
	// LabelThreshold is the score a module must exceed to be labeled.
	LabelThreshold = 0.6
	// ExplanationThreshold is the score a module must exceed for its
	// explanation to be reported.
	ExplanationThreshold = 0.3
)

// Weights are the fixed module weights. They sum to 1.
var Weights = map[scoring.Module]float64{
	scoring.ModulePrice:            0.25,
	scoring.ModuleImage:            0.20,
	scoring.ModuleText:             0.20,
	scoring.ModuleLocation:         0.15,
	scoring.ModuleExternalLocation: 0.15,
	scoring.ModuleAmenity:          0.05,
}

var labels = map[scoring.Module]string{
	scoring.ModulePrice:            "Price Fraud",
	scoring.ModuleImage:            "Image Fraud",
	scoring.ModuleText:             "Text Fraud",
	scoring.ModuleLocation:         "Location Fraud",
	scoring.ModuleExternalLocation: "External Location Fraud",
	scoring.ModuleAmenity:          "Amenity Fraud",
}

var displayNames = map[scoring.Module]string{
	scoring.ModulePrice:            "Price",
	scoring.ModuleImage:            "Image",
	scoring.ModuleText:             "Text",
	scoring.ModuleLocation:         "Location",
	scoring.ModuleExternalLocation: "External Location",
	scoring.ModuleAmenity:          "Amenity",
}

// Label returns the fraud-type label of m.
func Label(m scoring.Module) string {
	return labels[m]
}

// Result is the fused verdict.
type Result struct {
	FinalProbability float64                    `json:"final_probability"`
	FraudTypes       []string                   `json:"fraud_types"`
	Explanations     []string                   `json:"explanations"`
	ModuleScores     map[scoring.Module]float64 `json:"module_scores"`
}

// Fuse combines scores. Modules missing from scores count as 0. The first
// explanation is always the summary line.
func Fuse(scores map[scoring.Module]scoring.Score) Result {
	clean := make(map[scoring.Module]scoring.Score, len(scoring.Modules))
	for _, m := range scoring.Modules {
		s := scores[m]
		clean[m] = scoring.Score{Value: scoring.Clamp(s.Value), Explanation: strings.TrimSpace(s.Explanation)}
	}

	var final float64
	for _, m := range scoring.Modules {
		final += Weights[m] * clean[m].Value
	}
	final = scoring.Clamp(final)

	res := Result{
		FinalProbability: final,
		FraudTypes:       []string{},
		ModuleScores:     make(map[scoring.Module]float64, len(scoring.Modules)),
	}
	for _, m := range scoring.Modules {
		res.ModuleScores[m] = clean[m].Value
		if clean[m].Value > LabelThreshold {
			res.FraudTypes = append(res.FraudTypes, labels[m])
		}
	}

	res.Explanations = append([]string{Summary(final, res.FraudTypes, res.ModuleScores)}, rank(clean)...)
	return res
}

type weighted struct {
	module     scoring.Module
	importance float64
	text       string
}

// rank keeps explanations of modules above ExplanationThreshold, highest
// score×weight first. Ties keep canonical module order.
func rank(scores map[scoring.Module]scoring.Score) []string {
	var items []weighted
	for _, m := range scoring.Modules {
		s := scores[m]
		if s.Value <= ExplanationThreshold || s.Explanation == "" {
			continue
		}
		items = append(items, weighted{
			module:     m,
			importance: s.Value * Weights[m],
			text:       "[" + displayNames[m] + "] " + s.Explanation,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].importance > items[j].importance
	})

	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.text
	}
	return out
}

// RiskBand names the qualitative band of a fraud probability.
func RiskBand(p float64) string {
	switch {
	case p < 0.2:
		return "MINIMAL"
	case p < 0.4:
		return "LOW"
	case p < 0.6:
		return "MODERATE"
	case p < 0.8:
		return "HIGH"
	default:
		return "CRITICAL"
	}
}

// Summary is the synthesis line: risk band, probability, labels and every
// module score with its weight.
func Summary(final float64, fraudTypes []string, scores map[scoring.Module]float64) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s RISK: overall fraud probability %s.", RiskBand(final), i18n.FormatPercent(final))
	if len(fraudTypes) > 0 {
		fmt.Fprintf(&b, " Detected fraud types: %s.", strings.Join(fraudTypes, ", "))
	} else {
		b.WriteString(" No high-confidence fraud indicators detected.")
	}

	parts := make([]string, len(scoring.Modules))
	for i, m := range scoring.Modules {
		parts[i] = fmt.Sprintf("%s %s (weight %.0f%%)", displayNames[m], i18n.FormatPercent(scores[m]), Weights[m]*100)
	}
	fmt.Fprintf(&b, " Module scores: %s.", strings.Join(parts, ", "))
	return b.String()
}
