package pricing

import (
	"errors"
	"fmt"
)

// Model is a fitted regressor over rows laid out according to Schema.
type Model interface {
	Predict(rows [][]float64) ([]float64, error)
}

// LinearModel is an ordinary least squares fit.
type LinearModel struct {
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
}

func (m *LinearModel) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(m.Coefficients) {
			return nil, fmt.Errorf("linear model expects %d features, got %d", len(m.Coefficients), len(row))
		}
		y := m.Intercept
		for i, x := range row {
			y += m.Coefficients[i] * x
		}
		out[r] = y
	}
	return out, nil
}

// TreeNode is one node of a regression tree. Rows with
// x[Feature] < Threshold follow Yes, the rest follow No.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Yes       int     `json:"yes"`
	No        int     `json:"no"`
	Leaf      float64 `json:"leaf"`
	IsLeaf    bool    `json:"is_leaf"`
}

// Tree is a regression tree rooted at Nodes[0].
type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeEnsemble is a gradient boosted tree regressor: the prediction is
// BaseScore plus the leaf value reached in every tree.
type TreeEnsemble struct {
	BaseScore float64 `json:"base_score"`
	Trees     []Tree  `json:"trees"`
}

var errTreeCycle = errors.New("tree walk did not reach a leaf")

func (e *TreeEnsemble) Predict(rows [][]float64) ([]float64, error) {
	out := make([]float64, len(rows))
	for r, row := range rows {
		y := e.BaseScore
		for t := range e.Trees {
			leaf, err := e.Trees[t].walk(row)
			if err != nil {
				return nil, fmt.Errorf("tree %d: %w", t, err)
			}
			y += leaf
		}
		out[r] = y
	}
	return out, nil
}

func (t *Tree) walk(row []float64) (float64, error) {
	if len(t.Nodes) == 0 {
		return 0, nil
	}
	i := 0
	// a well-formed tree reaches a leaf in fewer steps than it has nodes
	for steps := 0; steps <= len(t.Nodes); steps++ {
		if i < 0 || i >= len(t.Nodes) {
			return 0, fmt.Errorf("node index %d out of range", i)
		}
		node := t.Nodes[i]
		if node.IsLeaf {
			return node.Leaf, nil
		}
		if node.Feature < 0 || node.Feature >= len(row) {
			return 0, fmt.Errorf("split on feature %d outside %d-column row", node.Feature, len(row))
		}
		if row[node.Feature] < node.Threshold {
			i = node.Yes
		} else {
			i = node.No
		}
	}
	return 0, errTreeCycle
}
