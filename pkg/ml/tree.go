package ml

import (
	"cmp"
	"fmt"
	"slices"
)

// leafFeature marks a TreeNode with no split.
const leafFeature = -1

// TreeNode is one node of a flattened regression tree. Rows with
// x[Feature] <= Threshold go to Left, the rest to Right.
type TreeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t,omitempty"`
	Left      int     `json:"l,omitempty"`
	Right     int     `json:"r,omitempty"`
	Value     float64 `json:"v"`
}

// RegressionTree is a CART tree minimizing squared error. Nodes[0] is the root.
type RegressionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

// TreeParams bounds tree growth. MaxDepth <= 0 means unlimited.
type TreeParams struct {
	MaxDepth       int
	MinSamplesLeaf int
}

type treeBuilder struct {
	x      [][]float64
	y      []float64
	params TreeParams
	nodes  []TreeNode
}

// fitTree grows a tree over the rows listed in idx (duplicates allowed, as in
// a bootstrap sample).
func fitTree(x [][]float64, y []float64, idx []int, params TreeParams) *RegressionTree {
	if params.MinSamplesLeaf < 1 {
		params.MinSamplesLeaf = 1
	}
	b := &treeBuilder{x: x, y: y, params: params}
	b.grow(idx, 0)
	return &RegressionTree{Nodes: b.nodes}
}

func (b *treeBuilder) grow(idx []int, depth int) int {
	var sum, sumSq float64
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	id := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: leafFeature, Value: sum / n})

	if len(idx) < 2*b.params.MinSamplesLeaf {
		return id
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return id
	}
	// pure node
	if sumSq-sum*sum/n <= 1e-12 {
		return id
	}

	feature, threshold, ok := b.bestSplit(idx)
	if !ok {
		return id
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = feature
	b.nodes[id].Threshold = threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

// bestSplit scans every feature for the threshold maximizing
// sumL²/nL + sumR²/nR, which is the same as minimizing the children's SSE.
func (b *treeBuilder) bestSplit(idx []int) (int, float64, bool) {
	minLeaf := b.params.MinSamplesLeaf
	n := len(idx)
	sorted := make([]int, n)

	var total float64
	for _, i := range idx {
		total += b.y[i]
	}

	bestFeature, bestThreshold, found := 0, 0.0, false
	bestScore := 0.0

	for f := 0; f < len(b.x[idx[0]]); f++ {
		copy(sorted, idx)
		slices.SortStableFunc(sorted, func(a, c int) int {
			return cmp.Compare(b.x[a][f], b.x[c][f])
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += b.y[sorted[k-1]]
			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[k-1]][f], b.x[sorted[k]][f]
			if lo == hi {
				continue
			}
			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if !found || score > bestScore {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				bestFeature, bestThreshold, bestScore, found = f, threshold, score, true
			}
		}
	}

	return bestFeature, bestThreshold, found
}

// Predict walks the tree for a single (already scaled) row.
func (t *RegressionTree) Predict(v []float64) float64 {
	node := t.Nodes[0]
	for node.Feature != leafFeature {
		if v[node.Feature] <= node.Threshold {
			node = t.Nodes[node.Left]
		} else {
			node = t.Nodes[node.Right]
		}
	}
	return node.Value
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *RegressionTree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		node := t.Nodes[i]
		if node.Feature == leafFeature {
			return 0
		}
		return 1 + max(walk(node.Left), walk(node.Right))
	}
	return walk(0)
}

func (t *RegressionTree) validate(features int) error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, node := range t.Nodes {
		if node.Feature == leafFeature {
			continue
		}
		if node.Feature < 0 || node.Feature >= features {
			return fmt.Errorf("node %d splits on feature %d, want [0,%d)", i, node.Feature, features)
		}
		// children are always appended after their parent
		if node.Left <= i || node.Left >= len(t.Nodes) || node.Right <= i || node.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has out-of-range children %d/%d", i, node.Left, node.Right)
		}
	}
	return nil
}
