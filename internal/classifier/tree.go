package classifier

import (
	"math/rand"
	"sort"

	"github.com/chrisdamba/orderly/internal/features"
)

// Node is one split or leaf of a decision tree. Leaves keep the class counts
// of the training rows that reached them.
type Node struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *Node     `json:"l,omitempty"`
	Right     *Node     `json:"r,omitempty"`
	Counts    []float64 `json:"c,omitempty"`
	IsLeaf    bool      `json:"leaf,omitempty"`
}

// leaf walks v down to its leaf.
func (n *Node) leaf(v features.Vector) *Node {
	node := n
	for !node.IsLeaf {
		if v[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

type treeBuilder struct {
	x           []features.Vector
	y           []int // class index per row
	numClasses  int
	maxDepth    int
	minSplit    int
	maxFeatures int
	rng         *rand.Rand
	importance  [features.NumFeatures]float64
	total       float64
}

func (b *treeBuilder) build(rows []int) *Node {
	b.total = float64(len(rows))
	return b.grow(rows, 0)
}

func (b *treeBuilder) grow(rows []int, depth int) *Node {
	counts := b.classCounts(rows)
	if depth >= b.maxDepth || len(rows) < b.minSplit || isPure(counts) {
		return &Node{IsLeaf: true, Counts: counts}
	}

	feature, threshold, gain := b.findBestSplit(rows, counts)
	if gain <= 0 {
		return &Node{IsLeaf: true, Counts: counts}
	}

	left, right := splitRows(b.x, rows, feature, threshold)
	b.importance[feature] += gain * float64(len(rows)) / b.total

	return &Node{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.grow(left, depth+1),
		Right:     b.grow(right, depth+1),
	}
}

// findBestSplit tries maxFeatures randomly chosen features and every midpoint
// between consecutive distinct values, returning the largest Gini decrease.
func (b *treeBuilder) findBestSplit(rows []int, parentCounts []float64) (int, float64, float64) {
	bestFeature, bestThreshold, bestGain := 0, 0.0, 0.0
	parentImpurity := giniImpurity(parentCounts)
	n := float64(len(rows))

	sorted := make([]int, len(rows))
	left := make([]float64, b.numClasses)
	right := make([]float64, b.numClasses)

	for _, feature := range b.rng.Perm(features.NumFeatures)[:b.maxFeatures] {
		copy(sorted, rows)
		sort.Slice(sorted, func(i, j int) bool {
			return b.x[sorted[i]][feature] < b.x[sorted[j]][feature]
		})
		for c := range left {
			left[c] = 0
			right[c] = parentCounts[c]
		}

		for i := 0; i < len(sorted)-1; i++ {
			cls := b.y[sorted[i]]
			left[cls]++
			right[cls]--

			cur, next := b.x[sorted[i]][feature], b.x[sorted[i+1]][feature]
			if cur == next {
				continue
			}
			nl := float64(i + 1)
			nr := n - nl
			gain := parentImpurity - (nl/n)*giniImpurity(left) - (nr/n)*giniImpurity(right)
			if gain > bestGain {
				bestGain = gain
				bestFeature = feature
				bestThreshold = cur + (next-cur)/2
				if bestThreshold >= next {
					bestThreshold = cur
				}
			}
		}
	}
	return bestFeature, bestThreshold, bestGain
}

func (b *treeBuilder) classCounts(rows []int) []float64 {
	counts := make([]float64, b.numClasses)
	for _, r := range rows {
		counts[b.y[r]]++
	}
	return counts
}

func splitRows(x []features.Vector, rows []int, feature int, threshold float64) ([]int, []int) {
	var left, right []int
	for _, r := range rows {
		if x[r][feature] <= threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	return left, right
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func giniImpurity(counts []float64) float64 {
	var total float64
	for _, c := range counts {
		total += c
	}
	if total == 0 {
		return 0
	}
	impurity := 1.0
	for _, c := range counts {
		p := c / total
		impurity -= p * p
	}
	return impurity
}
