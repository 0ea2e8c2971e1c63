package pricing

import (
	"errors"
	"fmt"
)

// ErrInvalidScaler reports a scaler artifact without its column list or
// transform.
var ErrInvalidScaler = errors.New("invalid scaler artifact: expected cols_to_scale and scaler")

// Transformer rescales rows whose columns follow the order it was fitted
// on.
type Transformer interface {
	Transform(rows [][]float64) ([][]float64, error)
}

// ScalerArtifact pairs a fitted transform with the columns it applies to.
type ScalerArtifact struct {
	Columns []string
	Scaler  Transformer
}

// Validate checks the artifact's structure against Schema.
func (s *ScalerArtifact) Validate() error {
	if s == nil || s.Columns == nil || s.Scaler == nil {
		return ErrInvalidScaler
	}
	for _, name := range s.Columns {
		if _, ok := columnIndex[name]; !ok {
			return fmt.Errorf("%w: unknown column %q", ErrInvalidScaler, name)
		}
	}
	return nil
}

// Apply transforms the artifact's columns of fv in place.
func (s *ScalerArtifact) Apply(fv FeatureVector) error {
	if err := s.Validate(); err != nil {
		return err
	}

	row := make([]float64, len(s.Columns))
	for i, name := range s.Columns {
		row[i] = fv[columnIndex[name]]
	}

	out, err := s.Scaler.Transform([][]float64{row})
	if err != nil {
		return fmt.Errorf("failed to transform features: %w", err)
	}
	if len(out) != 1 || len(out[0]) != len(s.Columns) {
		return fmt.Errorf("scaler returned a %d-row result for %d columns", len(out), len(s.Columns))
	}

	for i, name := range s.Columns {
		fv[columnIndex[name]] = out[0][i]
	}
	return nil
}

// MinMaxScaler applies x*Scale + Min per column.
type MinMaxScaler struct {
	Min   []float64 `json:"min"`
	Scale []float64 `json:"scale"`
}

func (m *MinMaxScaler) Transform(rows [][]float64) ([][]float64, error) {
	if len(m.Min) != len(m.Scale) {
		return nil, fmt.Errorf("minmax scaler has %d minimums and %d scales", len(m.Min), len(m.Scale))
	}
	out := make([][]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(m.Scale) {
			return nil, fmt.Errorf("minmax scaler fitted on %d columns, got %d", len(m.Scale), len(row))
		}
		out[r] = make([]float64, len(row))
		for i, x := range row {
			out[r][i] = x*m.Scale[i] + m.Min[i]
		}
	}
	return out, nil
}

// StandardScaler applies (x - Mean) / Scale per column. A zero scale is
// treated as 1.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

func (s *StandardScaler) Transform(rows [][]float64) ([][]float64, error) {
	if len(s.Mean) != len(s.Scale) {
		return nil, fmt.Errorf("standard scaler has %d means and %d scales", len(s.Mean), len(s.Scale))
	}
	out := make([][]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(s.Scale) {
			return nil, fmt.Errorf("standard scaler fitted on %d columns, got %d", len(s.Scale), len(row))
		}
		out[r] = make([]float64, len(row))
		for i, x := range row {
			scale := s.Scale[i]
			if scale == 0 {
				scale = 1
			}
			out[r][i] = (x - s.Mean[i]) / scale
		}
	}
	return out, nil
}
