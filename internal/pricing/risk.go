package pricing

import "strings"

var diseaseRiskScores = map[string]float64{
	"diabetes":            6,
	"heart disease":       8,
	"high blood pressure": 6,
	"thyroid":             5,
	"no disease":          0,
	"none":                0,
}

const (
	// heart disease (8) plus the next highest single score (6)
	maxRiskScore float64 = 14
	minRiskScore float64 = 0

	diseaseSeparator = " & "
)

// NormalizedRiskScore sums the per-disease risk of a medical history such
// as "Diabetes & Heart disease" and scales it into [0, 1]. Unknown
// diseases contribute nothing.
func NormalizedRiskScore(medicalHistory string) float64 {
	total := 0.0
	for _, disease := range strings.Split(strings.ToLower(medicalHistory), diseaseSeparator) {
		total += diseaseRiskScores[disease]
	}
	return (total - minRiskScore) / (maxRiskScore - minRiskScore)
}
