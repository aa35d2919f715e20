package index

import "btreeidx/storage/page"

// descendResult carries everything a mutating or scanning descent needs:
// the leaf reached (pinned, caller must unpin), the stack of ancestor page
// numbers to pop when propagating a split, and whether the tree was found
// completely empty (the level-0 placeholder root with no leaf yet).
// rightSiblingHint is the child one slot past the descent edge in the
// last non-leaf visited, or 0 if the edge was that node's last child.
type descendResult struct {
	leafLocal        int64
	leafPg           *page.Page
	pathStack        []int64
	empty            bool
	rightSiblingHint int64
}

// descend walks from the root to the leaf that would contain key, per
// §4.2. It pins every node it inspects and unpins each one before
// following its child pointer, except the leaf it finally reaches, which
// is returned still pinned for the caller to read or mutate.
//
// rightSiblingHint (the child one slot past the descent edge at each
// level) is computed during the walk the way the original tracked it, but
// nothing downstream consults it: a leaf's own RightSib field is the
// authoritative source once the leaf is in hand.
func (t *tree[K]) descend(key K) (descendResult, error) {
	rootPg, err := t.fetchPage(t.rootPageNo)
	if err != nil {
		return descendResult{}, err
	}
	cur := readNonLeaf[K](rootPg)

	if cur.Level == 0 && cur.Children[0] == 0 {
		if err := t.unpin(rootPg, false); err != nil {
			return descendResult{}, err
		}
		return descendResult{empty: true}, nil
	}

	curPg := rootPg
	curLocal := t.rootPageNo
	var pathStack []int64
	var rightSiblingHint int64

	for {
		i := 0
		for i < int(cur.NumKeys) && !keyLess(key, cur.Keys[i]) {
			i++
		}
		pathStack = append(pathStack, curLocal)

		rightSiblingHint = 0
		if i+1 <= int(cur.NumKeys) {
			rightSiblingHint = cur.Children[i+1]
		}

		childLocal := cur.Children[i]
		childIsLeaf := cur.Level <= 1

		if err := t.unpin(curPg, false); err != nil {
			return descendResult{}, err
		}

		childPg, err := t.fetchPage(childLocal)
		if err != nil {
			return descendResult{}, err
		}

		if childIsLeaf {
			return descendResult{leafLocal: childLocal, leafPg: childPg, pathStack: pathStack, rightSiblingHint: rightSiblingHint}, nil
		}

		cur = readNonLeaf[K](childPg)
		curPg = childPg
		curLocal = childLocal
	}
}
