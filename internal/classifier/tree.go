package classifier

import (
	"math/rand"
	"sort"

	"mltrader/internal/model"
)

const numClasses = len(model.Classes)

// node is a CART split or leaf. Leaves hold class probabilities.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	proba     [numClasses]float64
	leaf      bool
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int
}

// tree is a gini-split decision tree over a sample of row indices.
type tree struct {
	root *node
}

func buildTree(X [][]float64, y []int, idx []int, cfg treeConfig, rng *rand.Rand) *tree {
	return &tree{root: grow(X, y, idx, cfg, rng, 0)}
}

func (t *tree) proba(x []float64) [numClasses]float64 {
	n := t.root
	for !n.leaf {
		if x[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.proba
}

func grow(X [][]float64, y []int, idx []int, cfg treeConfig, rng *rand.Rand, depth int) *node {
	counts := classCounts(y, idx)
	if (cfg.maxDepth > 0 && depth >= cfg.maxDepth) || len(idx) < 2*cfg.minLeaf || pure(counts) {
		return leaf(counts, len(idx))
	}

	feat, thr, ok := bestSplit(X, y, idx, counts, cfg, rng)
	if !ok {
		return leaf(counts, len(idx))
	}

	var left, right []int
	for _, i := range idx {
		if X[i][feat] <= thr {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return &node{
		feature:   feat,
		threshold: thr,
		left:      grow(X, y, left, cfg, rng, depth+1),
		right:     grow(X, y, right, cfg, rng, depth+1),
	}
}

// bestSplit searches a random feature subset for the split with the lowest
// weighted gini impurity.
func bestSplit(X [][]float64, y []int, idx []int, total [numClasses]int, cfg treeConfig, rng *rand.Rand) (int, float64, bool) {
	width := len(X[idx[0]])
	features := rng.Perm(width)
	if cfg.maxFeatures > 0 && cfg.maxFeatures < width {
		features = features[:cfg.maxFeatures]
	}

	n := len(idx)
	bestScore := gini(total, n)
	bestFeat, bestThr, found := -1, 0.0, false

	sorted := make([]int, n)
	for _, f := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, b int) bool { return X[sorted[a]][f] < X[sorted[b]][f] })

		var left [numClasses]int
		right := total
		for k := 0; k < n-1; k++ {
			c := y[sorted[k]]
			left[c]++
			right[c]--

			lo, hi := X[sorted[k]][f], X[sorted[k+1]][f]
			if lo == hi || k+1 < cfg.minLeaf || n-k-1 < cfg.minLeaf {
				continue
			}
			nl, nr := k+1, n-k-1
			score := (float64(nl)*gini(left, nl) + float64(nr)*gini(right, nr)) / float64(n)
			if score < bestScore-1e-12 {
				bestScore = score
				bestFeat = f
				bestThr = lo + (hi-lo)/2
				found = true
			}
		}
	}
	return bestFeat, bestThr, found
}

func classCounts(y []int, idx []int) [numClasses]int {
	var c [numClasses]int
	for _, i := range idx {
		c[y[i]]++
	}
	return c
}

func gini(c [numClasses]int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, k := range c {
		p := float64(k) / float64(n)
		g -= p * p
	}
	return g
}

func pure(c [numClasses]int) bool {
	nonzero := 0
	for _, k := range c {
		if k > 0 {
			nonzero++
		}
	}
	return nonzero <= 1
}

func leaf(c [numClasses]int, n int) *node {
	l := &node{leaf: true}
	if n == 0 {
		return l
	}
	for i, k := range c {
		l.proba[i] = float64(k) / float64(n)
	}
	return l
}
