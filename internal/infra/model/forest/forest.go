// Package forest serves a pre-trained tree ensemble exported as JSON.
//
// The artifact lists the ordered feature columns, the class labels and every
// tree in array form (children_left, children_right, feature, threshold,
// value), the layout scikit-learn keeps in tree_. A node is a leaf when its
// left child is -1; an input goes left when x[feature] <= threshold.
package forest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/bryanwahyu/phishy/internal/domain/classification"
)

// ErrInvalidArtifact wraps every structural problem found while loading.
var ErrInvalidArtifact = errors.New("invalid model artifact")

const leaf = -1

type artifact struct {
	Features []string   `json:"features"`
	Classes  []int      `json:"classes"`
	Trees    []treeJSON `json:"trees"`
}

type treeJSON struct {
	ChildrenLeft  []int       `json:"children_left"`
	ChildrenRight []int       `json:"children_right"`
	Feature       []int       `json:"feature"`
	Threshold     []float64   `json:"threshold"`
	Value         [][]float64 `json:"value"`
}

type tree struct {
	left, right []int
	feature     []int
	threshold   []float64
	// per-node class probabilities, normalized at load
	proba [][]float64
}

var _ classification.Model = (*Forest)(nil)

// Forest is immutable after Load and safe for concurrent use.
type Forest struct {
	columns  []string
	classes  []int
	positive int
	trees    []tree
}

// LoadFile reads an artifact from disk.
func LoadFile(path string) (*Forest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates an artifact. The class list must contain 1, the
// phishing label.
func Load(r io.Reader) (*Forest, error) {
	var a artifact
	if err := json.NewDecoder(r).Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArtifact, err)
	}
	if len(a.Features) == 0 {
		return nil, fmt.Errorf("%w: no feature columns", ErrInvalidArtifact)
	}
	if len(a.Trees) == 0 {
		return nil, fmt.Errorf("%w: no trees", ErrInvalidArtifact)
	}
	positive := -1
	for i, c := range a.Classes {
		if c == 1 {
			positive = i
		}
	}
	if positive < 0 {
		return nil, fmt.Errorf("%w: classes %v lack the positive label 1", ErrInvalidArtifact, a.Classes)
	}

	f := &Forest{
		columns:  append([]string(nil), a.Features...),
		classes:  append([]int(nil), a.Classes...),
		positive: positive,
		trees:    make([]tree, 0, len(a.Trees)),
	}
	for i, tj := range a.Trees {
		t, err := buildTree(tj, len(a.Features), len(a.Classes))
		if err != nil {
			return nil, fmt.Errorf("%w: tree %d: %v", ErrInvalidArtifact, i, err)
		}
		f.trees = append(f.trees, t)
	}
	return f, nil
}

func buildTree(tj treeJSON, nFeatures, nClasses int) (tree, error) {
	n := len(tj.ChildrenLeft)
	if n == 0 {
		return tree{}, errors.New("empty tree")
	}
	if len(tj.ChildrenRight) != n || len(tj.Feature) != n || len(tj.Threshold) != n || len(tj.Value) != n {
		return tree{}, errors.New("node arrays differ in length")
	}

	t := tree{
		left:      tj.ChildrenLeft,
		right:     tj.ChildrenRight,
		feature:   tj.Feature,
		threshold: tj.Threshold,
		proba:     make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		l, r := t.left[i], t.right[i]
		if (l == leaf) != (r == leaf) {
			return tree{}, fmt.Errorf("node %d has a single child", i)
		}
		if l != leaf {
			// children always come after their parent, so traversal terminates
			if l <= i || l >= n || r <= i || r >= n {
				return tree{}, fmt.Errorf("node %d has out-of-range children", i)
			}
			if t.feature[i] < 0 || t.feature[i] >= nFeatures {
				return tree{}, fmt.Errorf("node %d splits on unknown feature %d", i, t.feature[i])
			}
		}
		p, err := normalize(tj.Value[i], nClasses)
		if err != nil {
			return tree{}, fmt.Errorf("node %d: %v", i, err)
		}
		t.proba[i] = p
	}
	return t, nil
}

func normalize(v []float64, nClasses int) ([]float64, error) {
	if len(v) != nClasses {
		return nil, fmt.Errorf("value has %d entries, want %d", len(v), nClasses)
	}
	var sum float64
	for _, x := range v {
		if x < 0 {
			return nil, errors.New("negative class weight")
		}
		sum += x
	}
	out := make([]float64, len(v))
	if sum == 0 {
		return out, nil
	}
	for i, x := range v {
		out[i] = x / sum
	}
	return out, nil
}

func (t *tree) predict(x []float64) []float64 {
	node := 0
	for t.left[node] != leaf {
		if x[t.feature[node]] <= t.threshold[node] {
			node = t.left[node]
		} else {
			node = t.right[node]
		}
	}
	return t.proba[node]
}

// Columns returns a copy of the feature order the trees were trained on.
func (f *Forest) Columns() []string {
	return append([]string(nil), f.columns...)
}

// Proba averages the per-tree class probabilities.
func (f *Forest) Proba(aligned []float64) ([]float64, error) {
	if len(aligned) != len(f.columns) {
		return nil, fmt.Errorf("forest: got %d features, want %d", len(aligned), len(f.columns))
	}
	sum := make([]float64, len(f.classes))
	for i := range f.trees {
		for c, p := range f.trees[i].predict(aligned) {
			sum[c] += p
		}
	}
	for c := range sum {
		sum[c] /= float64(len(f.trees))
	}
	return sum, nil
}

// Classify returns the most probable class (first wins a tie) and the
// probability of the positive class.
func (f *Forest) Classify(aligned []float64) (int, float64, error) {
	proba, err := f.Proba(aligned)
	if err != nil {
		return 0, 0, err
	}
	best := 0
	for c := 1; c < len(proba); c++ {
		if proba[c] > proba[best] {
			best = c
		}
	}
	return f.classes[best], proba[f.positive], nil
}

func (f *Forest) Loaded() bool { return f != nil && len(f.trees) > 0 }

// Trees reports the ensemble size.
func (f *Forest) Trees() int { return len(f.trees) }
