package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		history  string
		expected float64
	}{
		{name: "no disease", history: "No Disease", expected: 0},
		{name: "none", history: "none", expected: 0},
		{name: "single diabetes", history: "Diabetes", expected: 6.0 / 14},
		{name: "single heart disease", history: "Heart disease", expected: 8.0 / 14},
		{name: "single thyroid", history: "Thyroid", expected: 5.0 / 14},
		{name: "pair diabetes and high blood pressure", history: "Diabetes & High blood pressure", expected: 12.0 / 14},
		{name: "pair high blood pressure and heart disease", history: "High blood pressure & Heart disease", expected: 1},
		{name: "pair diabetes and thyroid", history: "Diabetes & Thyroid", expected: 11.0 / 14},
		{name: "maximum pair", history: "Diabetes & Heart disease", expected: 1},
		{name: "case insensitive", history: "DIABETES & heart DISEASE", expected: 1},
		{name: "unknown disease contributes nothing", history: "Asthma", expected: 0},
		{name: "unknown paired with known", history: "Asthma & Thyroid", expected: 5.0 / 14},
		{name: "empty string", history: "", expected: 0},
		{name: "separator without spaces is one unknown name", history: "Diabetes&Thyroid", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, NormalizedRiskScore(tt.history), 1e-12)
		})
	}
}

func TestNormalizedRiskScoreIsOrderIndependent(t *testing.T) {
	assert.Equal(t,
		NormalizedRiskScore("Diabetes & Heart disease"),
		NormalizedRiskScore("Heart disease & Diabetes"))
	assert.Equal(t, 1.0, NormalizedRiskScore("Heart disease & Diabetes"))
}

func TestNormalizedRiskScoreStaysInUnitIntervalForFormOptions(t *testing.T) {
	for _, history := range Options().Categorical[AttrMedicalHistory] {
		score := NormalizedRiskScore(history)
		assert.GreaterOrEqual(t, score, 0.0, history)
		assert.LessOrEqual(t, score, 1.0, history)
	}
}
