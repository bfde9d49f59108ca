package ensemble

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Gradient boosted decision trees with a multiclass softmax objective.
// Models are plain data so a trained ensemble serializes to JSON and
// reloads bit-identically.

// Config holds the boosting hyperparameters of one ensemble member.
type Config struct {
	Rounds        int     `json:"rounds" validate:"gt=0"`
	MaxDepth      int     `json:"max_depth" validate:"gt=0"`
	LearningRate  float64 `json:"learning_rate" validate:"gt=0,lte=1"`
	MinLeaf       int     `json:"min_leaf" validate:"gt=0"`
	SubsampleRows float64 `json:"subsample_rows" validate:"gt=0,lte=1"`
	SubsampleCols float64 `json:"subsample_cols" validate:"gt=0,lte=1"`
	Seed          int64   `json:"seed"`
}

// TreeNode is one node of a regression tree in flat array form. Left
// and Right index into the same node slice.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Leaf      bool    `json:"leaf"`
	Value     float64 `json:"value"`
}

type Tree struct {
	Nodes []TreeNode `json:"nodes"`
}

func (t Tree) predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf {
		n := t.Nodes[i]
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// GBDT is a trained boosted-tree model. Trees[r][k] is the tree fitted
// in round r for class k; leaf values already include the learning
// rate, so prediction is a plain sum.
type GBDT struct {
	Config      Config   `json:"config"`
	NumClasses  int      `json:"num_classes"`
	NumFeatures int      `json:"num_features"`
	Trees       [][]Tree `json:"trees"`
}

const hessianRegularizer = 1.0

// Fit trains a model on row-major features X, class labels y and
// per-sample weights w.
func Fit(X [][]float64, y []int, w []float64, numClasses int, cfg Config) (*GBDT, error) {
	n := len(X)
	if n == 0 {
		return nil, fmt.Errorf("gbdt: empty training set")
	}
	if len(y) != n || len(w) != n {
		return nil, fmt.Errorf("gbdt: labels and weights must match feature rows")
	}
	numFeatures := len(X[0])

	model := &GBDT{
		Config:      cfg,
		NumClasses:  numClasses,
		NumFeatures: numFeatures,
		Trees:       make([][]Tree, 0, cfg.Rounds),
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	// Raw scores per sample per class, updated after every round.
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, numClasses)
	}
	grad := make([]float64, n)
	hess := make([]float64, n)
	leafFactor := float64(numClasses-1) / float64(numClasses)

	for round := 0; round < cfg.Rounds; round++ {
		rows := sampleIndices(rng, n, cfg.SubsampleRows)
		cols := sampleIndices(rng, numFeatures, cfg.SubsampleCols)

		roundTrees := make([]Tree, numClasses)
		for k := 0; k < numClasses; k++ {
			for _, i := range rows {
				p := softmaxAt(scores[i], k)
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				grad[i] = w[i] * (target - p)
				hess[i] = w[i] * p * (1 - p)
			}
			b := treeBuilder{X: X, grad: grad, hess: hess, cols: cols, cfg: cfg, leafFactor: leafFactor}
			b.build(rows, 0)
			roundTrees[k] = Tree{Nodes: b.nodes}
		}
		model.Trees = append(model.Trees, roundTrees)

		for i := 0; i < n; i++ {
			for k := 0; k < numClasses; k++ {
				scores[i][k] += roundTrees[k].predict(X[i])
			}
		}
	}
	return model, nil
}

// PredictProba returns the softmax class distribution for one row.
func (m *GBDT) PredictProba(x []float64) []float64 {
	scores := make([]float64, m.NumClasses)
	for _, round := range m.Trees {
		for k, t := range round {
			scores[k] += t.predict(x)
		}
	}
	return softmax(scores)
}

type treeBuilder struct {
	X          [][]float64
	grad, hess []float64
	cols       []int
	cfg        Config
	leafFactor float64
	nodes      []TreeNode
}

// build grows the subtree for the given rows and returns its node index.
func (b *treeBuilder) build(rows []int, depth int) int {
	var g, h float64
	for _, i := range rows {
		g += b.grad[i]
		h += b.hess[i]
	}

	if depth >= b.cfg.MaxDepth || len(rows) < 2*b.cfg.MinLeaf {
		return b.leaf(g, h)
	}

	feat, threshold, ok := b.bestSplit(rows, g, h)
	if !ok {
		return b.leaf(g, h)
	}

	var left, right []int
	for _, i := range rows {
		if b.X[i][feat] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: feat, Threshold: threshold})
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	b.nodes[idx].Left = l
	b.nodes[idx].Right = r
	return idx
}

func (b *treeBuilder) leaf(g, h float64) int {
	value := b.cfg.LearningRate * b.leafFactor * g / (h + 1e-9)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Leaf: true, Value: value})
	return idx
}

// bestSplit scans the sampled feature columns for the split with the
// highest gradient gain.
func (b *treeBuilder) bestSplit(rows []int, gTotal, hTotal float64) (feat int, threshold float64, ok bool) {
	parent := gTotal * gTotal / (hTotal + hessianRegularizer)
	bestGain := 1e-12

	order := make([]int, len(rows))
	for _, f := range b.cols {
		copy(order, rows)
		sort.Slice(order, func(i, j int) bool { return b.X[order[i]][f] < b.X[order[j]][f] })

		var gl, hl float64
		for pos := 0; pos < len(order)-1; pos++ {
			i := order[pos]
			gl += b.grad[i]
			hl += b.hess[i]

			cur, next := b.X[i][f], b.X[order[pos+1]][f]
			if cur == next {
				continue
			}
			if pos+1 < b.cfg.MinLeaf || len(order)-pos-1 < b.cfg.MinLeaf {
				continue
			}
			gr, hr := gTotal-gl, hTotal-hl
			gain := gl*gl/(hl+hessianRegularizer) + gr*gr/(hr+hessianRegularizer) - parent
			if gain > bestGain {
				bestGain = gain
				feat = f
				threshold = (cur + next) / 2
				ok = true
			}
		}
	}
	return feat, threshold, ok
}

func sampleIndices(rng *rand.Rand, n int, fraction float64) []int {
	k := int(math.Ceil(fraction * float64(n)))
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := rng.Perm(n)
	out := perm[:k]
	sort.Ints(out)
	return out
}

func softmax(scores []float64) []float64 {
	max := scores[0]
	for _, s := range scores[1:] {
		if s > max {
			max = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - max)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func softmaxAt(scores []float64, k int) float64 {
	return softmax(scores)[k]
}
