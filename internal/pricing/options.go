package pricing

import (
	"fmt"
	"sort"
	"strings"
)

// NumericRange bounds a numeric form field.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FormOptions describes every field of the input form.
type FormOptions struct {
	Numeric     map[string]NumericRange `json:"numeric"`
	Categorical map[string][]string     `json:"categorical"`
}

var numericRanges = map[string]NumericRange{
	AttrAge:                {Min: 18, Max: 100},
	AttrNumberOfDependants: {Min: 0, Max: 20},
	AttrIncomeLakhs:        {Min: 0, Max: 200},
	AttrGeneticalRisk:      {Min: 0, Max: 5},
}

var categoricalOptions = map[string][]string{
	AttrGender:           {"Male", "Female"},
	AttrMaritalStatus:    {"Unmarried", "Married"},
	AttrBMICategory:      {"Normal", "Obesity", "Overweight", "Underweight"},
	AttrSmokingStatus:    {"No Smoking", "Regular", "Occasional"},
	AttrEmploymentStatus: {"Salaried", "Self-Employed", "Freelancer", ""},
	AttrRegion:           {"Northwest", "Southeast", "Northeast", "Southwest"},
	AttrMedicalHistory: {
		"No Disease", "Diabetes", "High blood pressure", "Diabetes & High blood pressure",
		"Thyroid", "Heart disease", "High blood pressure & Heart disease", "Diabetes & Thyroid",
		"Diabetes & Heart disease",
	},
	AttrInsurancePlan: {"Bronze", "Silver", "Gold"},
}

// Options returns a copy of the form's fields, ranges and choices.
func Options() FormOptions {
	opts := FormOptions{
		Numeric:     make(map[string]NumericRange, len(numericRanges)),
		Categorical: make(map[string][]string, len(categoricalOptions)),
	}
	for k, v := range numericRanges {
		opts.Numeric[k] = v
	}
	for k, v := range categoricalOptions {
		opts.Categorical[k] = append([]string(nil), v...)
	}
	return opts
}

// ValidationErrors maps attribute names to what is wrong with them.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, v[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Validate checks in against the form's ranges and choices. Age is
// required; other attributes are checked only when present. Numeric
// attributes must hold numbers, not numeric strings. The prediction
// pipeline does not call this.
func (in RawInput) Validate() error {
	problems := ValidationErrors{}

	if !in.Has(AttrAge) {
		problems[AttrAge] = "is required"
	}

	for key, bounds := range numericRanges {
		if !in.Has(key) {
			continue
		}
		v, ok := number(in[key])
		switch {
		case !ok:
			problems[key] = "must be a number"
		case v != float64(int64(v)):
			problems[key] = "must be a whole number"
		case v < bounds.Min || v > bounds.Max:
			problems[key] = fmt.Sprintf("must be between %g and %g", bounds.Min, bounds.Max)
		}
	}

	for key, choices := range categoricalOptions {
		if !in.Has(key) {
			continue
		}
		v, ok := in.String(key)
		if !ok {
			problems[key] = "must be a string"
			continue
		}
		if !contains(choices, v) {
			problems[key] = fmt.Sprintf("must be one of %q", choices)
		}
	}

	if len(problems) > 0 {
		return problems
	}
	return nil
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
