package pricing

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrMissingAge is returned when an input carries no Age.
	ErrMissingAge = errors.New("input is missing required attribute \"Age\"")
	// ErrInvalidAge is returned when Age is present but not a number.
	ErrInvalidAge = errors.New("attribute \"Age\" is not a number")
)

// Artifacts holds the fitted scalers and models for both age bands. It is
// loaded once and shared read-only.
type Artifacts struct {
	ScalerYoung *ScalerArtifact
	ScalerRest  *ScalerArtifact
	ModelYoung  Model
	ModelRest   Model
}

func (a *Artifacts) scaler(band AgeBand) *ScalerArtifact {
	if band == BandYoung {
		return a.ScalerYoung
	}
	return a.ScalerRest
}

func (a *Artifacts) model(band AgeBand) Model {
	if band == BandYoung {
		return a.ModelYoung
	}
	return a.ModelRest
}

// Predictor runs the encode, scale and predict pipeline
type Predictor struct {
	artifacts *Artifacts
}

// NewPredictor creates a predictor over loaded artifacts
func NewPredictor(artifacts *Artifacts) *Predictor {
	return &Predictor{artifacts: artifacts}
}

// Scale applies the scaler of age's band to fv in place.
func (p *Predictor) Scale(age float64, fv FeatureVector) error {
	band := BandFor(age)
	if err := p.artifacts.scaler(band).Apply(fv); err != nil {
		return fmt.Errorf("%s scaler: %w", band, err)
	}
	return nil
}

// Features returns the encoded and scaled row the model would see.
func (p *Predictor) Features(in RawInput) (FeatureVector, error) {
	if !in.Has(AttrAge) {
		return nil, ErrMissingAge
	}
	age, ok := in.Number(AttrAge)
	if !ok {
		return nil, ErrInvalidAge
	}
	fv := Encode(in)
	if err := p.Scale(age, fv); err != nil {
		return nil, err
	}
	return fv, nil
}

// Estimate predicts the cost for in and reports the band used.
func (p *Predictor) Estimate(in RawInput) (Estimate, error) {
	fv, err := p.Features(in)
	if err != nil {
		return Estimate{}, err
	}

	age, _ := in.Number(AttrAge)
	band := BandFor(age)
	model := p.artifacts.model(band)
	if model == nil {
		return Estimate{}, fmt.Errorf("no model loaded for %s band", band)
	}

	out, err := model.Predict([][]float64{fv})
	if err != nil {
		return Estimate{}, fmt.Errorf("%s model: %w", band, err)
	}
	if len(out) == 0 {
		return Estimate{}, fmt.Errorf("%s model returned no prediction", band)
	}

	return Estimate{Cost: int(math.Trunc(out[0])), Band: band}, nil
}

// Predict returns the estimated cost for in, truncated toward zero.
func (p *Predictor) Predict(in RawInput) (int, error) {
	est, err := p.Estimate(in)
	if err != nil {
		return 0, err
	}
	return est.Cost, nil
}
