package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearModelPredict(t *testing.T) {
	m := &LinearModel{Coefficients: []float64{2, -1, 0.5}, Intercept: 10}

	out, err := m.Predict([][]float64{{1, 2, 4}, {0, 0, 0}})
	require.NoError(t, err)
	assert.Equal(t, []float64{12, 10}, out)

	_, err = m.Predict([][]float64{{1}})
	assert.Error(t, err)
}

// stump splits on feature 0 at 5: below goes to leaf 1, otherwise leaf 2.
func stump(below, above float64) Tree {
	return Tree{Nodes: []TreeNode{
		{Feature: 0, Threshold: 5, Yes: 1, No: 2},
		{IsLeaf: true, Leaf: below},
		{IsLeaf: true, Leaf: above},
	}}
}

func TestTreeEnsemblePredict(t *testing.T) {
	e := &TreeEnsemble{
		BaseScore: 100,
		Trees:     []Tree{stump(1, 10), stump(-3, 30)},
	}

	tests := []struct {
		name     string
		row      []float64
		expected float64
	}{
		{name: "below threshold", row: []float64{4.9}, expected: 98},
		{name: "at threshold goes right", row: []float64{5}, expected: 140},
		{name: "above threshold", row: []float64{6}, expected: 140},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.Predict([][]float64{tt.row})
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, out[0], 1e-12)
		})
	}
}

func TestTreeEnsembleEmptyTreeContributesNothing(t *testing.T) {
	e := &TreeEnsemble{BaseScore: 7, Trees: []Tree{{}}}
	out, err := e.Predict([][]float64{{1}})
	require.NoError(t, err)
	assert.Equal(t, []float64{7}, out)
}

func TestTreeEnsembleMalformedTrees(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
	}{
		{
			name: "child index out of range",
			tree: Tree{Nodes: []TreeNode{{Feature: 0, Threshold: 1, Yes: 9, No: 9}}},
		},
		{
			name: "feature out of range",
			tree: Tree{Nodes: []TreeNode{{Feature: 4, Threshold: 1, Yes: 1, No: 1}, {IsLeaf: true}}},
		},
		{
			name: "cycle",
			tree: Tree{Nodes: []TreeNode{{Feature: 0, Threshold: 1, Yes: 0, No: 0}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&TreeEnsemble{Trees: []Tree{tt.tree}}).Predict([][]float64{{0}})
			assert.Error(t, err)
		})
	}

	_, err := (&TreeEnsemble{Trees: []Tree{{Nodes: []TreeNode{{Yes: 0, No: 0}}}}}).Predict([][]float64{{0}})
	assert.ErrorIs(t, err, errTreeCycle)
}
