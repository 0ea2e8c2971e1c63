package pricing

import "fmt"

// Column is one entry of the feature schema. Derive reports the column's
// value for an input, or false to keep Default.
type Column struct {
	Name    string
	Default float64
	Derive  func(in RawInput) (float64, bool)
}

var insurancePlanEncoding = map[string]float64{
	"Bronze": 1,
	"Silver": 2,
	"Gold":   3,
}

// unknown plans are treated as Bronze
const defaultInsurancePlan float64 = 1

// Schema is the ordered feature layout both models were trained on.
// Reference levels (Female, Married, Northeast, Normal, Freelancer or
// empty, No Smoking) have no indicator column.
var Schema = []Column{
	{Name: "age", Derive: numeric(AttrAge)},
	{Name: "number_of_dependants", Derive: numeric(AttrNumberOfDependants)},
	{Name: "income_level", Derive: numeric(AttrIncomeLevel)},
	{Name: "income_lakhs", Derive: numeric(AttrIncomeLakhs)},
	{Name: "insurance_plan", Derive: insurancePlan},
	{Name: "genetical_risk", Derive: numeric(AttrGeneticalRisk)},
	{Name: "normalized_health_risk_score", Derive: healthRisk},
	{Name: "gender_Male", Derive: oneHot(AttrGender, "Male")},
	{Name: "marital_status_Unmarried", Derive: oneHot(AttrMaritalStatus, "Unmarried")},
	{Name: "region_Northwest", Derive: oneHot(AttrRegion, "Northwest")},
	{Name: "region_Southeast", Derive: oneHot(AttrRegion, "Southeast")},
	{Name: "region_Southwest", Derive: oneHot(AttrRegion, "Southwest")},
	{Name: "bmi_category_Obesity", Derive: oneHot(AttrBMICategory, "Obesity")},
	{Name: "bmi_category_Overweight", Derive: oneHot(AttrBMICategory, "Overweight")},
	{Name: "bmi_category_Underweight", Derive: oneHot(AttrBMICategory, "Underweight")},
	{Name: "employment_status_Salaried", Derive: oneHot(AttrEmploymentStatus, "Salaried")},
	{Name: "employment_status_Self-Employed", Derive: oneHot(AttrEmploymentStatus, "Self-Employed")},
	{Name: "smoking_status_Occasional", Derive: oneHot(AttrSmokingStatus, "Occasional")},
	{Name: "smoking_status_Regular", Derive: oneHot(AttrSmokingStatus, "Regular")},
}

var columnIndex = func() map[string]int {
	idx := make(map[string]int, len(Schema))
	for i, col := range Schema {
		idx[col.Name] = i
	}
	return idx
}()

// ColumnNames returns the schema's column names in order.
func ColumnNames() []string {
	names := make([]string, len(Schema))
	for i, col := range Schema {
		names[i] = col.Name
	}
	return names
}

// ColumnIndex returns the position of a named column.
func ColumnIndex(name string) (int, bool) {
	i, ok := columnIndex[name]
	return i, ok
}

// FeatureVector is a single row laid out according to Schema.
type FeatureVector []float64

// Get returns the value of a named column, or 0 for unknown names.
func (fv FeatureVector) Get(name string) float64 {
	if i, ok := columnIndex[name]; ok && i < len(fv) {
		return fv[i]
	}
	return 0
}

// Map returns the row keyed by column name.
func (fv FeatureVector) Map() map[string]float64 {
	m := make(map[string]float64, len(fv))
	for i, v := range fv {
		m[Schema[i].Name] = v
	}
	return m
}

// Encode builds a fresh feature row for in. It never fails: absent or
// unrecognized attributes leave their columns at the default.
func Encode(in RawInput) FeatureVector {
	fv := make(FeatureVector, len(Schema))
	for i, col := range Schema {
		fv[i] = col.Default
		if v, ok := col.Derive(in); ok {
			fv[i] = v
		}
	}
	return fv
}

func numeric(key string) func(RawInput) (float64, bool) {
	return func(in RawInput) (float64, bool) {
		return in.Number(key)
	}
}

func oneHot(key, level string) func(RawInput) (float64, bool) {
	return func(in RawInput) (float64, bool) {
		if v, ok := in.String(key); ok && v == level {
			return 1, true
		}
		return 0, false
	}
}

func insurancePlan(in RawInput) (float64, bool) {
	if !in.Has(AttrInsurancePlan) {
		return 0, false
	}
	plan, _ := in.String(AttrInsurancePlan)
	if v, ok := insurancePlanEncoding[plan]; ok {
		return v, true
	}
	return defaultInsurancePlan, true
}

func healthRisk(in RawInput) (float64, bool) {
	if !in.Has(AttrMedicalHistory) {
		return 0, false
	}
	history, ok := in.String(AttrMedicalHistory)
	if !ok {
		history = fmt.Sprint(in[AttrMedicalHistory])
	}
	return NormalizedRiskScore(history), true
}
