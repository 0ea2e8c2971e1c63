package types

import "github.com/ZanzyTHEbar/insurance-cost-estimator/internal/pricing"

// PredictResponse is the body of a successful POST /predict
type PredictResponse struct {
	PredictedCost int    `json:"predicted_cost" example:"12345"`
	FormattedCost string `json:"formatted_cost" example:"₹12345.00"`
	Currency      string `json:"currency" example:"INR"`
	AgeBand       string `json:"age_band" example:"rest"`
}

// NewPredictResponse builds the response for an estimate
func NewPredictResponse(est pricing.Estimate) PredictResponse {
	return PredictResponse{
		PredictedCost: est.Cost,
		FormattedCost: est.Formatted(),
		Currency:      pricing.Currency,
		AgeBand:       string(est.Band),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status      string                 `json:"status" example:"ok"`
	Timestamp   string                 `json:"timestamp"`
	Version     string                 `json:"version" example:"1.0.0"`
	ArtifactDir string                 `json:"artifact_dir"`
	Services    map[string]string      `json:"services"`
	Metrics     map[string]interface{} `json:"metrics"`
}
