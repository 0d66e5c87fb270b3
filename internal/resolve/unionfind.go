package resolve

import "sort"

// unionFind is a disjoint-set forest with path compression and member
// tracking for diameter checks.
type unionFind struct {
	parent  []int
	rank    []int
	members map[int][]int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent:  make([]int, n),
		rank:    make([]int, n),
		members: make(map[int][]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.members[i] = []int{i}
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return
	}
	if uf.rank[ra] < uf.rank[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	if uf.rank[ra] == uf.rank[rb] {
		uf.rank[ra]++
	}
	uf.members[ra] = append(uf.members[ra], uf.members[rb]...)
	delete(uf.members, rb)
}

func (uf *unionFind) memberOf(x int) []int {
	return uf.members[uf.find(x)]
}

// groups returns each component's indices sorted, ordered by smallest index.
func (uf *unionFind) groups() [][]int {
	out := make([][]int, 0, len(uf.members))
	for _, m := range uf.members {
		g := append([]int(nil), m...)
		sort.Ints(g)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}
