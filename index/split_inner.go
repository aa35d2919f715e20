package index

import "btreeidx/storage/page"

// splitInner implements §4.4's analogous overflow-slot split for a full
// parent. A non-leaf's Keys[i] pairs with Children[i+1] exactly the way a
// leaf's Keys[i] pairs with RIDs[i] -- Children[0] is the one fixed
// "leftmost" pointer never touched by any insertion -- so the same
// snapshot/shrink/reinsert/compare-and-swap trick from splitLeaf applies
// to (Keys, Children[1:]) unchanged.
//
// Unlike a leaf split, the middle separator is promoted to the
// grandparent and excluded from both halves: the left node keeps
// Keys[0:k]/Children[0:k+1] (already in place, no data movement needed),
// the right node receives Keys[k+1:cap]/Children[k+1:cap+1] plus the
// overflow pair, and extKeys[k] becomes the key handed upward.
func (t *tree[K]) splitInner(pg *page.Page, n *NonLeafNode[K], sepKey K, childPage int64) (K, int64, error) {
	capK := len(n.Keys)

	savedKey := n.Keys[capK-1]
	savedChild := n.Children[capK]
	n.NumKeys = int32(capK - 1)

	insertSortedInner(n, sepKey, childPage)

	if keyLess(savedKey, n.Keys[capK-1]) {
		n.Keys[capK-1], savedKey = savedKey, n.Keys[capK-1]
		n.Children[capK], savedChild = savedChild, n.Children[capK]
	}

	k := (capK + 1) / 2

	extKey := func(idx int) K {
		if idx < capK {
			return n.Keys[idx]
		}
		return savedKey
	}
	extChild := func(idx int) int64 {
		if idx <= capK {
			return n.Children[idx]
		}
		return savedChild
	}

	promoted := extKey(k)

	newPg, err := t.newNodePage()
	if err != nil {
		return sepKey, 0, err
	}
	right := newNonLeafNode[K]()
	right.Level = n.Level

	rightKeyCount := capK - k
	for j := 0; j < rightKeyCount; j++ {
		right.Keys[j] = extKey(k + 1 + j)
	}
	for j := 0; j <= rightKeyCount; j++ {
		right.Children[j] = extChild(k + 1 + j)
	}
	right.NumKeys = int32(rightKeyCount)

	n.NumKeys = int32(k)

	writeNonLeaf(pg, n)
	writeNonLeaf(newPg, right)

	newLocal := t.localOf(newPg)
	if err := t.unpin(newPg, true); err != nil {
		return sepKey, 0, err
	}

	return promoted, newLocal, nil
}
