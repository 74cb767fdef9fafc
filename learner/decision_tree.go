package learner

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"

	"unskewed/dataset"
)

// DecisionTree is a seeded gini-split binary classifier usable as the
// wrapped base learner. Split thresholds are feature medians; ties between
// equally good splits are broken with the configured seed.
type DecisionTree struct {
	MaxDepth int

	nodes []TreeNode
	seed  int64
}

// TreeNode is one flattened tree node. Leaf nodes carry the class counts
// observed during training, which become the predicted distribution.
type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	Counts     [2]int  `json:"counts"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree returns a tree limited to the given depth (default 3).
func NewDecisionTree(maxDepth int) *DecisionTree {
	if maxDepth <= 0 {
		maxDepth = 3
	}
	return &DecisionTree{MaxDepth: maxDepth, seed: 1}
}

// SetSeed pins the tree's tie-breaking randomness.
func (dt *DecisionTree) SetSeed(seed int64) {
	dt.seed = seed
}

// CheckCapabilities verifies the dataset is trainable: a valid schema, a
// binary label domain, and at least one labeled record.
func (dt *DecisionTree) CheckCapabilities(ds *dataset.Dataset) error {
	if err := ds.Validate(); err != nil {
		return err
	}
	for _, record := range ds.Records {
		if record.Label != "" {
			return nil
		}
	}
	return errors.New("no labeled records")
}

// Train builds the tree from a labeled dataset.
func (dt *DecisionTree) Train(ds *dataset.Dataset) error {
	if ds.Len() == 0 {
		return errors.New("training set is empty")
	}

	features := make([][]float64, 0, ds.Len())
	labels := make([]int, 0, ds.Len())
	for i, record := range ds.Records {
		idx, ok := ds.Schema.LabelIndex(record.Label)
		if !ok {
			return fmt.Errorf("record %d: label %q outside schema domain", i, record.Label)
		}
		features = append(features, record.Features)
		labels = append(labels, idx)
	}

	rnd := rand.New(rand.NewSource(dt.seed))
	dt.nodes = dt.buildNode(features, labels, 0, rnd)
	return nil
}

// DistributionFor walks the tree and returns the leaf's class distribution,
// one probability per schema label value.
func (dt *DecisionTree) DistributionFor(record dataset.Record) ([]float64, error) {
	if len(dt.nodes) == 0 {
		return nil, ErrNotBuilt
	}
	idx := 0
	for {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return leafDistribution(node), nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(record.Features) {
			return nil, errors.New("feature index out of range")
		}
		if record.Features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return nil, errors.New("invalid tree state")
		}
	}
}

// Measures lists the tree's additional metrics.
func (dt *DecisionTree) Measures() []string {
	return []string{"measureTreeSize", "measureTreeDepth", "measureNumLeaves"}
}

// Measure returns one of the tree's additional metrics by name.
func (dt *DecisionTree) Measure(name string) (float64, error) {
	switch name {
	case "measureTreeSize":
		return float64(len(dt.nodes)), nil
	case "measureTreeDepth":
		return float64(dt.depth(0)), nil
	case "measureNumLeaves":
		leaves := 0
		for _, node := range dt.nodes {
			if node.IsLeaf {
				leaves++
			}
		}
		return float64(leaves), nil
	}
	return 0, fmt.Errorf("unknown measure %q", name)
}

// Save writes the trained tree as JSON.
func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotBuilt
	}
	payload, err := json.Marshal(dt.nodes)
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// Load reads a tree saved with Save.
func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []TreeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return err
	}
	dt.nodes = nodes
	return nil
}

// String describes the tree.
func (dt *DecisionTree) String() string {
	if len(dt.nodes) == 0 {
		return "DecisionTree: no model built yet"
	}
	return fmt.Sprintf("DecisionTree: %d nodes, depth %d", len(dt.nodes), dt.depth(0))
}

func (dt *DecisionTree) depth(idx int) int {
	if idx < 0 || idx >= len(dt.nodes) || dt.nodes[idx].IsLeaf {
		return 0
	}
	left := dt.depth(dt.nodes[idx].LeftChild)
	right := dt.depth(dt.nodes[idx].RightChild)
	if left > right {
		return 1 + left
	}
	return 1 + right
}

func (dt *DecisionTree) buildNode(features [][]float64, labels []int, depth int, rnd *rand.Rand) []TreeNode {
	if depth >= dt.MaxDepth || isPure(labels) {
		return []TreeNode{leafNode(labels)}
	}

	bestFeature, threshold, ok := findBestSplit(features, labels, rnd)
	if !ok {
		return []TreeNode{leafNode(labels)}
	}

	leftFeatures, leftLabels, rightFeatures, rightLabels := splitData(features, labels, bestFeature, threshold)
	if len(leftLabels) == 0 || len(rightLabels) == 0 {
		return []TreeNode{leafNode(labels)}
	}

	leftNodes := dt.buildNode(leftFeatures, leftLabels, depth+1, rnd)
	rightNodes := dt.buildNode(rightFeatures, rightLabels, depth+1, rnd)

	root := TreeNode{
		FeatureIdx: bestFeature,
		Threshold:  threshold,
		LeftChild:  1,
		RightChild: 1 + len(leftNodes),
		ClassLabel: majorityClass(labels),
		Counts:     classCounts(labels),
		IsLeaf:     false,
	}

	nodes := make([]TreeNode, 0, 1+len(leftNodes)+len(rightNodes))
	nodes = append(nodes, root)
	nodes = appendSubtree(nodes, leftNodes)
	nodes = appendSubtree(nodes, rightNodes)
	return nodes
}

// appendSubtree flattens a subtree into nodes. Child indices inside a subtree
// are relative to its own root, so every internal node is rebased onto the
// subtree's position in the combined slice.
func appendSubtree(nodes, subtree []TreeNode) []TreeNode {
	base := len(nodes)
	for _, node := range subtree {
		if !node.IsLeaf {
			node.LeftChild += base
			node.RightChild += base
		}
		nodes = append(nodes, node)
	}
	return nodes
}

func leafNode(labels []int) TreeNode {
	return TreeNode{
		FeatureIdx: -1,
		LeftChild:  -1,
		RightChild: -1,
		ClassLabel: majorityClass(labels),
		Counts:     classCounts(labels),
		IsLeaf:     true,
	}
}

func leafDistribution(node TreeNode) []float64 {
	total := node.Counts[0] + node.Counts[1]
	if total == 0 {
		if node.ClassLabel == 1 {
			return []float64{0, 1}
		}
		return []float64{1, 0}
	}
	return []float64{
		float64(node.Counts[0]) / float64(total),
		float64(node.Counts[1]) / float64(total),
	}
}

func findBestSplit(features [][]float64, labels []int, rnd *rand.Rand) (int, float64, bool) {
	featureCount := len(features[0])
	bestFeatures := make([]int, 0, featureCount)
	thresholds := make([]float64, featureCount)
	bestImpurity := math.MaxFloat64

	for featureIdx := 0; featureIdx < featureCount; featureIdx++ {
		values := make([]float64, len(features))
		for i := range features {
			values[i] = features[i][featureIdx]
		}
		threshold := median(values)
		thresholds[featureIdx] = threshold

		leftLabels, rightLabels := splitLabels(features, labels, featureIdx, threshold)
		if len(leftLabels) == 0 || len(rightLabels) == 0 {
			continue
		}
		impurity := weightedGini(leftLabels, rightLabels)
		switch {
		case impurity < bestImpurity:
			bestImpurity = impurity
			bestFeatures = append(bestFeatures[:0], featureIdx)
		case impurity == bestImpurity:
			bestFeatures = append(bestFeatures, featureIdx)
		}
	}
	if len(bestFeatures) == 0 {
		return -1, 0, false
	}
	// seeded tie-break between equally good splits
	chosen := bestFeatures[0]
	if len(bestFeatures) > 1 {
		chosen = bestFeatures[rnd.Intn(len(bestFeatures))]
	}
	return chosen, thresholds[chosen], true
}

func splitData(features [][]float64, labels []int, featureIdx int, threshold float64) ([][]float64, []int, [][]float64, []int) {
	leftFeatures := make([][]float64, 0)
	leftLabels := make([]int, 0)
	rightFeatures := make([][]float64, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftFeatures = append(leftFeatures, feature)
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightFeatures = append(rightFeatures, feature)
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftFeatures, leftLabels, rightFeatures, rightLabels
}

func splitLabels(features [][]float64, labels []int, featureIdx int, threshold float64) ([]int, []int) {
	leftLabels := make([]int, 0)
	rightLabels := make([]int, 0)
	for i, feature := range features {
		if feature[featureIdx] <= threshold {
			leftLabels = append(leftLabels, labels[i])
		} else {
			rightLabels = append(rightLabels, labels[i])
		}
	}
	return leftLabels, rightLabels
}

func weightedGini(leftLabels, rightLabels []int) float64 {
	leftWeight := float64(len(leftLabels))
	rightWeight := float64(len(rightLabels))
	total := leftWeight + rightWeight
	return (leftWeight/total)*gini(leftLabels) + (rightWeight/total)*gini(rightLabels)
}

func gini(labels []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	counts := classCounts(labels)
	impurity := 1.0
	for _, count := range counts {
		prob := float64(count) / float64(len(labels))
		impurity -= prob * prob
	}
	return impurity
}

func classCounts(labels []int) [2]int {
	var counts [2]int
	for _, label := range labels {
		if label == 0 || label == 1 {
			counts[label]++
		}
	}
	return counts
}

func majorityClass(labels []int) int {
	counts := classCounts(labels)
	if counts[1] > counts[0] {
		return 1
	}
	return 0
}

func isPure(labels []int) bool {
	if len(labels) == 0 {
		return true
	}
	first := labels[0]
	for _, label := range labels[1:] {
		if label != first {
			return false
		}
	}
	return true
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
