package pricing

import (
	"encoding/json"
	"strconv"
)

// Attribute names as collected by the input form.
const (
	AttrAge                = "Age"
	AttrNumberOfDependants = "Number of Dependants"
	AttrIncomeLakhs        = "Income in Lakhs"
	AttrIncomeLevel        = "Income Level"
	AttrGeneticalRisk      = "Genetical Risk"
	AttrInsurancePlan      = "Insurance Plan"
	AttrEmploymentStatus   = "Employment Status"
	AttrGender             = "Gender"
	AttrMaritalStatus      = "Marital Status"
	AttrBMICategory        = "BMI Category"
	AttrSmokingStatus      = "Smoking Status"
	AttrRegion             = "Region"
	AttrMedicalHistory     = "Medical History"
)

// RawInput maps attribute names to the values a collector gathered.
// Numeric attributes may hold any Go number, a json.Number or a numeric
// string; categorical attributes hold strings. Any key may be absent.
type RawInput map[string]any

// Number returns the numeric value of key. ok is false when the key is
// absent or does not hold a number. Numeric strings are parsed, so the
// pipeline reads "30" the same as 30; Validate does not accept them.
func (in RawInput) Number(key string) (float64, bool) {
	v, exists := in[key]
	if !exists {
		return 0, false
	}
	if s, isString := v.(string); isString {
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return number(v)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// String returns the string value of key. ok is false when the key is
// absent or does not hold a string.
func (in RawInput) String(key string) (string, bool) {
	v, exists := in[key]
	if !exists {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Has reports whether key was supplied at all.
func (in RawInput) Has(key string) bool {
	_, exists := in[key]
	return exists
}

// AgeBand selects which scaler and model pair serves a prediction.
type AgeBand string

const (
	BandYoung AgeBand = "young"
	BandRest  AgeBand = "rest"
)

// YoungAgeLimit is the last age routed to the young band.
const YoungAgeLimit = 25

// BandFor returns the age band for age.
func BandFor(age float64) AgeBand {
	if age <= YoungAgeLimit {
		return BandYoung
	}
	return BandRest
}

// Estimate is a prediction together with the band that produced it.
type Estimate struct {
	Cost int     `json:"predicted_cost"`
	Band AgeBand `json:"age_band"`
}
