package hnsw

import (
	"math/rand"
	"sort"

	"github.com/weave-lab/weave-chatbot-reference/internal/adapters/driven/vector"
)

// Graph parameters.
const (
	maxLevel       = 16
	maxNeighbors   = 16 // per node on layers above 0
	maxNeighbors0  = 32 // per node on layer 0
	efConstruction = 64
	efSearch       = 64

	// levelSeed makes level assignment, and so the rebuilt graph, reproducible.
	levelSeed = 42
)

type node struct {
	level     int
	neighbors [][]int // [layer][neighbour ids]
}

type candidate struct {
	id   int
	dist float64
}

// graph is a hierarchical navigable small world graph over unit vectors.
// Distance is 1 - cosine similarity. Node ids are insertion positions.
// It is not safe for concurrent use; Index serialises access.
type graph struct {
	vecs  [][]float32
	nodes []*node
	entry int
	top   int // highest layer, -1 when empty
	rng   *rand.Rand
}

func newGraph() *graph {
	return &graph{
		top: -1,
		rng: rand.New(rand.NewSource(levelSeed)), //nolint:gosec // layout only, not security
	}
}

func (g *graph) len() int {
	return len(g.nodes)
}

func (g *graph) distance(q []float32, id int) float64 {
	return 1 - vector.Dot(q, g.vecs[id])
}

func (g *graph) randomLevel() int {
	lvl := 0
	for g.rng.Float64() < 0.5 && lvl < maxLevel {
		lvl++
	}
	return lvl
}

// add inserts a vector and returns its node id.
func (g *graph) add(vec []float32) int {
	id := len(g.nodes)
	level := g.randomLevel()
	n := &node{
		level:     level,
		neighbors: make([][]int, level+1),
	}
	g.nodes = append(g.nodes, n)
	g.vecs = append(g.vecs, vector.Normalize(vec))
	q := g.vecs[id]

	if g.top == -1 {
		g.entry, g.top = id, level
		return id
	}

	// Descend greedily to the node's top layer.
	ep := g.entry
	for l := g.top; l > level; l-- {
		ep = g.greedy(q, ep, l)
	}

	for l := min(level, g.top); l >= 0; l-- {
		found := g.searchLayer(q, ep, efConstruction, l)

		limit := maxNeighbors
		if l == 0 {
			limit = maxNeighbors0
		}
		selected := found
		if len(selected) > limit {
			selected = selected[:limit]
		}

		n.neighbors[l] = make([]int, len(selected))
		for i, c := range selected {
			n.neighbors[l][i] = c.id
			g.connect(c.id, id, l, limit)
		}
		ep = found[0].id
	}

	if level > g.top {
		g.entry, g.top = id, level
	}
	return id
}

// connect links from -> to on a layer, pruning from's list to its closest limit neighbours.
func (g *graph) connect(from, to, layer, limit int) {
	nb := append(g.nodes[from].neighbors[layer], to)
	if len(nb) > limit {
		base := g.vecs[from]
		sort.SliceStable(nb, func(i, j int) bool {
			return g.distance(base, nb[i]) < g.distance(base, nb[j])
		})
		nb = nb[:limit]
	}
	g.nodes[from].neighbors[layer] = nb
}

// greedy walks to the closest node reachable on a layer.
func (g *graph) greedy(q []float32, ep, layer int) int {
	curr := ep
	currDist := g.distance(q, curr)
	for changed := true; changed; {
		changed = false
		for _, nb := range g.layer(curr, layer) {
			if d := g.distance(q, nb); d < currDist {
				curr, currDist = nb, d
				changed = true
			}
		}
	}
	return curr
}

func (g *graph) layer(id, layer int) []int {
	n := g.nodes[id]
	if layer > n.level {
		return nil
	}
	return n.neighbors[layer]
}

// searchLayer returns up to ef candidates nearest to q on a layer, closest first.
func (g *graph) searchLayer(q []float32, ep, ef, layer int) []candidate {
	start := candidate{id: ep, dist: g.distance(q, ep)}
	visited := map[int]bool{ep: true}
	frontier := []candidate{start}
	results := []candidate{start}

	for len(frontier) > 0 {
		c := frontier[0]
		frontier = frontier[1:]

		if len(results) >= ef && c.dist > results[len(results)-1].dist {
			break
		}

		for _, nb := range g.layer(c.id, layer) {
			if visited[nb] {
				continue
			}
			visited[nb] = true

			d := g.distance(q, nb)
			if len(results) < ef || d < results[len(results)-1].dist {
				cand := candidate{id: nb, dist: d}
				frontier = insertSorted(frontier, cand)
				results = insertSorted(results, cand)
				if len(results) > ef {
					results = results[:ef]
				}
			}
		}
	}
	return results
}

// insertSorted keeps s ordered by distance, then id.
func insertSorted(s []candidate, c candidate) []candidate {
	i := sort.Search(len(s), func(i int) bool {
		if s[i].dist != c.dist {
			return s[i].dist > c.dist
		}
		return s[i].id > c.id
	})
	s = append(s, candidate{})
	copy(s[i+1:], s[i:])
	s[i] = c
	return s
}

// search returns up to k approximate nearest node ids, closest first.
func (g *graph) search(q []float32, k int) []candidate {
	if g.top == -1 || k <= 0 {
		return nil
	}

	qn := vector.Normalize(q)
	ep := g.entry
	for l := g.top; l > 0; l-- {
		ep = g.greedy(qn, ep, l)
	}

	found := g.searchLayer(qn, ep, max(efSearch, k), 0)
	if len(found) > k {
		found = found[:k]
	}
	return found
}
