package memory

import "math/rand/v2"

// Treap ordered by score DESC, then member ASC. In-order traversal yields
// the ranking from best to worst. Priorities are random, which keeps the
// expected depth logarithmic whatever the insertion order.

type node struct {
	member string
	score  float64
	prio   uint64
	left   *node
	right  *node
	size   int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less reports whether (aScore, aMember) ranks before (bScore, bMember).
func less(aScore float64, aMember string, bScore float64, bMember string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aMember < bMember
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n *node, member string, score float64) *node {
	if n == nil {
		return &node{member: member, score: score, prio: rand.Uint64(), size: 1}
	}
	if less(score, member, n.score, n.member) {
		n.left = insert(n.left, member, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, member, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func remove(n *node, member string, score float64) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && member == n.member:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = remove(n.right, member, score)
		} else {
			n = rotateLeft(n)
			n.left = remove(n.left, member, score)
		}
	case less(score, member, n.score, n.member):
		n.left = remove(n.left, member, score)
	default:
		n.right = remove(n.right, member, score)
	}
	fix(n)
	return n
}

// collectTop appends up to limit members in rank order.
func collectTop(n *node, limit int, out *[]Member) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTop(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Member{Member: n.member, Score: n.score})
	}
	if len(*out) < limit {
		collectTop(n.right, limit, out)
	}
}

// rankOf returns the zero-based position of (member, score).
func rankOf(n *node, member string, score float64) int {
	rank := 0
	for n != nil {
		switch {
		case score == n.score && member == n.member:
			return rank + nsize(n.left)
		case less(score, member, n.score, n.member):
			n = n.left
		default:
			rank += nsize(n.left) + 1
			n = n.right
		}
	}
	return -1
}
