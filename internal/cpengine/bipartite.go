package cpengine

// MaximumBipartiteMatching finds a maximum matching between left nodes
// 0..len(adj)-1 and right nodes 0..rightCount-1, where adj[l] lists the
// right nodes l may match to. It models room assignment for one hour:
// left nodes are the room slots (one per distinct subject/teacher pair)
// of the blocks scheduled that hour, right nodes are rooms compatible
// with each slot's subject. It augments the
// implicit unit-capacity source/sink flow network one augmenting path
// at a time, which for a 0/1 bipartite graph produces exactly a maximum
// matching.
//
// It returns matchLeft, where matchLeft[l] is the right node matched to
// l, or -1 if l is unmatched. The day scheduler's leaf check rejects an
// hour whose matching leaves any room slot unmatched.
func MaximumBipartiteMatching(adj [][]int, rightCount int) []int {
	left := len(adj)
	matchLeft := make([]int, left)
	matchRight := make([]int, rightCount)
	for i := range matchLeft {
		matchLeft[i] = -1
	}
	for i := range matchRight {
		matchRight[i] = -1
	}

	for l := 0; l < left; l++ {
		visited := make([]bool, rightCount)
		augment(l, adj, visited, matchRight, matchLeft)
	}
	return matchLeft
}

// augment attempts to find an augmenting path starting from left node l
// via depth-first search, the standard Kuhn-style traversal used to
// realize each BFS-free augmentation step of the underlying flow network.
func augment(l int, adj [][]int, visited []bool, matchRight, matchLeft []int) bool {
	for _, r := range adj[l] {
		if visited[r] {
			continue
		}
		visited[r] = true
		if matchRight[r] == -1 || augment(matchRight[r], adj, visited, matchRight, matchLeft) {
			matchRight[r] = l
			matchLeft[l] = r
			return true
		}
	}
	return false
}
