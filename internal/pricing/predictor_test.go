package pricing

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingModel struct {
	mu    sync.Mutex
	value float64
	err   error
	rows  [][]float64
}

func (m *recordingModel) Predict(rows [][]float64) ([]float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, rows...)
	if m.err != nil {
		return nil, m.err
	}
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = m.value
	}
	return out, nil
}

func (m *recordingModel) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type emptyModel struct{}

func (emptyModel) Predict([][]float64) ([]float64, error) { return nil, nil }

func identityScaler(cols ...string) *ScalerArtifact {
	mins := make([]float64, len(cols))
	scale := make([]float64, len(cols))
	for i := range scale {
		scale[i] = 1
	}
	return &ScalerArtifact{Columns: cols, Scaler: &MinMaxScaler{Min: mins, Scale: scale}}
}

func testArtifacts() (*Artifacts, *recordingModel, *recordingModel) {
	young := &recordingModel{value: 1000.9}
	rest := &recordingModel{value: 2000.4}
	return &Artifacts{
		ScalerYoung: &ScalerArtifact{
			Columns: []string{"age", "income_lakhs"},
			Scaler:  &MinMaxScaler{Min: []float64{0, 0}, Scale: []float64{0.5, 0.1}},
		},
		ScalerRest: identityScaler("age", "number_of_dependants", "income_level", "income_lakhs", "insurance_plan"),
		ModelYoung: young,
		ModelRest:  rest,
	}, young, rest
}

func TestPredictorDispatchesByAgeBand(t *testing.T) {
	tests := []struct {
		name     string
		age      any
		band     AgeBand
		expected int
	}{
		{name: "minimum form age", age: 18, band: BandYoung, expected: 1000},
		{name: "boundary age is young", age: 25, band: BandYoung, expected: 1000},
		{name: "first rest age", age: 26, band: BandRest, expected: 2000},
		{name: "fractional above boundary", age: 25.5, band: BandRest, expected: 2000},
		{name: "old", age: 100, band: BandRest, expected: 2000},
		{name: "numeric string", age: "25", band: BandYoung, expected: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artifacts, young, rest := testArtifacts()
			p := NewPredictor(artifacts)

			in := sampleInput(0)
			in[AttrAge] = tt.age

			est, err := p.Estimate(in)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, est.Cost)
			assert.Equal(t, tt.band, est.Band)

			if tt.band == BandYoung {
				assert.Equal(t, 1, young.calls())
				assert.Zero(t, rest.calls())
			} else {
				assert.Equal(t, 1, rest.calls())
				assert.Zero(t, young.calls())
			}
		})
	}
}

func TestPredictorScalesWithBandScaler(t *testing.T) {
	artifacts, young, _ := testArtifacts()
	p := NewPredictor(artifacts)

	_, err := p.Predict(sampleInput(20))
	require.NoError(t, err)

	require.Len(t, young.rows, 1)
	row := FeatureVector(young.rows[0])
	assert.Len(t, row, len(Schema))
	assert.InDelta(t, 10.0, row.Get("age"), 1e-12)
	assert.InDelta(t, 1.0, row.Get("income_lakhs"), 1e-12)
	assert.Equal(t, 2.0, row.Get("number_of_dependants"))
	assert.Equal(t, 2.0, row.Get("insurance_plan"))
}

func TestPredictorFeaturesMatchesModelInput(t *testing.T) {
	artifacts, _, rest := testArtifacts()
	p := NewPredictor(artifacts)
	in := sampleInput(40)

	fv, err := p.Features(in)
	require.NoError(t, err)

	_, err = p.Predict(in)
	require.NoError(t, err)
	assert.Equal(t, []float64(fv), rest.rows[0])
}

func TestPredictorIsIdempotent(t *testing.T) {
	artifacts, _, _ := testArtifacts()
	p := NewPredictor(artifacts)
	in := sampleInput(45)

	first, err := p.Predict(in)
	require.NoError(t, err)
	second, err := p.Predict(in)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 45, in[AttrAge])
}

func TestPredictorTruncatesTowardZero(t *testing.T) {
	tests := []struct {
		raw      float64
		expected int
	}{
		{raw: 12345.99, expected: 12345},
		{raw: 12345.0, expected: 12345},
		{raw: 0.7, expected: 0},
		{raw: -3.7, expected: -3},
	}

	for _, tt := range tests {
		artifacts, _, rest := testArtifacts()
		rest.value = tt.raw
		got, err := NewPredictor(artifacts).Predict(sampleInput(60))
		require.NoError(t, err)
		assert.Equal(t, tt.expected, got, "raw %v", tt.raw)
	}
}

func TestPredictorMissingAge(t *testing.T) {
	artifacts, young, rest := testArtifacts()
	p := NewPredictor(artifacts)

	in := sampleInput(0)
	delete(in, AttrAge)
	_, err := p.Predict(in)
	assert.ErrorIs(t, err, ErrMissingAge)

	for _, bad := range []any{"thirty", true, nil} {
		in[AttrAge] = bad
		_, err = p.Predict(in)
		assert.ErrorIs(t, err, ErrInvalidAge, "age %v", bad)
		assert.NotErrorIs(t, err, ErrMissingAge)
	}

	assert.Zero(t, young.calls())
	assert.Zero(t, rest.calls())
}

func TestPredictorInvalidScaler(t *testing.T) {
	artifacts, _, rest := testArtifacts()
	artifacts.ScalerRest = &ScalerArtifact{Columns: []string{"age"}}

	_, err := NewPredictor(artifacts).Predict(sampleInput(50))
	assert.ErrorIs(t, err, ErrInvalidScaler)
	assert.Zero(t, rest.calls())

	artifacts.ScalerRest = nil
	_, err = NewPredictor(artifacts).Predict(sampleInput(50))
	assert.ErrorIs(t, err, ErrInvalidScaler)
}

func TestPredictorModelFailures(t *testing.T) {
	artifacts, _, rest := testArtifacts()
	rest.err = errors.New("model exploded")
	_, err := NewPredictor(artifacts).Predict(sampleInput(50))
	assert.ErrorContains(t, err, "model exploded")

	artifacts, _, _ = testArtifacts()
	artifacts.ModelRest = emptyModel{}
	_, err = NewPredictor(artifacts).Predict(sampleInput(50))
	assert.Error(t, err)

	artifacts, _, _ = testArtifacts()
	artifacts.ModelYoung = nil
	_, err = NewPredictor(artifacts).Predict(sampleInput(20))
	assert.Error(t, err)
}

func TestPredictorConcurrentUse(t *testing.T) {
	artifacts, young, rest := testArtifacts()
	p := NewPredictor(artifacts)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(age int) {
			defer wg.Done()
			_, err := p.Predict(sampleInput(age))
			assert.NoError(t, err)
		}(18 + i)
	}
	wg.Wait()

	assert.Equal(t, 8, young.calls())
	assert.Equal(t, 42, rest.calls())
}

func TestBandFor(t *testing.T) {
	tests := []struct {
		age      float64
		expected AgeBand
	}{
		{age: 18, expected: BandYoung},
		{age: 25, expected: BandYoung},
		{age: 25.5, expected: BandRest},
		{age: 26, expected: BandRest},
		{age: 100, expected: BandRest},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BandFor(tt.age), "age %v", tt.age)
	}
}
