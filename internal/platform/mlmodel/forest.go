// Package mlmodel loads and evaluates the offline-trained model artifacts:
// the ensemble tree classifier and the categorical label encoder. Artifacts
// are produced by the batch training job and exported to JSON; a missing or
// corrupt artifact is a startup failure, never a per-request one.
package mlmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is one split or leaf in a decision tree. Leaves carry Feature == -1
// and a per-class sample count in Values; split nodes route a sample left
// when x[Feature] <= Threshold.
type Node struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Values    []float64 `json:"values"`
}

// IsLeaf reports whether the node terminates a path.
func (n Node) IsLeaf() bool {
	return n.Feature < 0
}

// Tree is a single estimator of the forest, stored as a flat node array
// rooted at index 0.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Forest is the trained multi-class ensemble classifier. Prediction averages
// the per-tree class distributions and takes the argmax, matching the
// training pipeline's predict semantics.
type Forest struct {
	Features []string `json:"features"`
	Classes  []int    `json:"classes"`
	Trees    []Tree   `json:"trees"`
}

// LoadForest reads and validates a forest artifact from disk.
func LoadForest(path string) (*Forest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var f Forest
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode model artifact %s: %w", path, err)
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model artifact %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the structural invariants every evaluation relies on.
func (f *Forest) Validate() error {
	if len(f.Features) == 0 {
		return fmt.Errorf("no feature columns")
	}
	if len(f.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(f.Trees) == 0 {
		return fmt.Errorf("no trees")
	}
	for ti, tree := range f.Trees {
		if len(tree.Nodes) == 0 {
			return fmt.Errorf("tree %d is empty", ti)
		}
		for ni, n := range tree.Nodes {
			if len(n.Values) != len(f.Classes) {
				return fmt.Errorf("tree %d node %d: %d class values, want %d", ti, ni, len(n.Values), len(f.Classes))
			}
			if n.IsLeaf() {
				continue
			}
			if n.Feature >= len(f.Features) {
				return fmt.Errorf("tree %d node %d: feature index %d out of range", ti, ni, n.Feature)
			}
			if n.Left < 0 || n.Left >= len(tree.Nodes) || n.Right < 0 || n.Right >= len(tree.Nodes) {
				return fmt.Errorf("tree %d node %d: child index out of range", ti, ni)
			}
			if n.Left == ni || n.Right == ni {
				return fmt.Errorf("tree %d node %d: self-referencing child", ti, ni)
			}
		}
	}
	return nil
}

// distribution returns the normalized class distribution at a node.
func distribution(n Node, classes int) []float64 {
	dist := make([]float64, classes)
	var total float64
	for _, v := range n.Values {
		total += v
	}
	if total == 0 {
		return dist
	}
	for i, v := range n.Values {
		dist[i] = v / total
	}
	return dist
}

// Probabilities returns the mean class distribution across all trees for
// one ordered feature vector.
func (f *Forest) Probabilities(x []float64) ([]float64, error) {
	if len(x) != len(f.Features) {
		return nil, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(f.Features))
	}
	probs := make([]float64, len(f.Classes))
	for _, tree := range f.Trees {
		node := tree.Nodes[0]
		for !node.IsLeaf() {
			if x[node.Feature] <= node.Threshold {
				node = tree.Nodes[node.Left]
			} else {
				node = tree.Nodes[node.Right]
			}
		}
		for i, p := range distribution(node, len(f.Classes)) {
			probs[i] += p
		}
	}
	for i := range probs {
		probs[i] /= float64(len(f.Trees))
	}
	return probs, nil
}

// Predict returns the class label with the highest mean probability. Ties
// resolve to the lowest class index, matching the trainer's argmax.
func (f *Forest) Predict(x []float64) (int, error) {
	probs, err := f.Probabilities(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}
	return f.Classes[best], nil
}

// ClassIndex maps a class label back to its column in the probability and
// contribution matrices.
func (f *Forest) ClassIndex(class int) (int, bool) {
	for i, c := range f.Classes {
		if c == class {
			return i, true
		}
	}
	return 0, false
}

// Contributions decomposes the forest's prediction for x into additive
// per-feature, per-class terms. For each tree the sample's root-to-leaf path
// is walked; every split transfers probability mass from parent to child and
// that delta is credited to the split feature. Summing a class column plus
// the ensemble bias reproduces that class's predicted probability exactly,
// so the decomposition is consistent with the model's internals.
func (f *Forest) Contributions(x []float64) ([][]float64, error) {
	if len(x) != len(f.Features) {
		return nil, fmt.Errorf("feature vector has %d values, model expects %d", len(x), len(f.Features))
	}
	contrib := make([][]float64, len(f.Features))
	for i := range contrib {
		contrib[i] = make([]float64, len(f.Classes))
	}
	for _, tree := range f.Trees {
		idx := 0
		node := tree.Nodes[0]
		parent := distribution(node, len(f.Classes))
		for !node.IsLeaf() {
			if x[node.Feature] <= node.Threshold {
				idx = node.Left
			} else {
				idx = node.Right
			}
			child := tree.Nodes[idx]
			childDist := distribution(child, len(f.Classes))
			for ci := range f.Classes {
				contrib[node.Feature][ci] += childDist[ci] - parent[ci]
			}
			node = child
			parent = childDist
		}
	}
	for fi := range contrib {
		for ci := range contrib[fi] {
			contrib[fi][ci] /= float64(len(f.Trees))
		}
	}
	return contrib, nil
}
