package index

import (
	"btreeidx/relation"
	"btreeidx/storage/page"
)

// splitLeaf implements §4.3's overflow-slot split. leaf is already full
// (NumKeys == cap) when this is called. It snapshots the leaf's last
// entry aside, shrinks NumKeys by one, does the normal sorted insert of
// (key, rid), then compares the resulting last slot against the snapshot
// and swaps if the snapshot sorts lower -- leaving Keys/RIDs[0:cap)
// holding the cap smallest of the cap+1 total entries and the snapshot
// holding the single largest. That virtual cap+1 sequence is then cut at
// k=(cap+1)/2: the left (original) leaf keeps [0:k), the new right leaf
// gets [k:cap) plus the overflow entry. The right leaf's first key is
// copied up as the separator -- it stays resident in the right leaf too,
// unlike a non-leaf split's promoted key.
func (t *tree[K]) splitLeaf(pg *page.Page, leaf *LeafNode[K], key K, rid relation.RID) (K, int64, error) {
	cap := len(leaf.Keys)

	savedKey := leaf.Keys[cap-1]
	savedRID := leaf.RIDs[cap-1]
	leaf.NumKeys = int32(cap - 1)

	insertSortedLeaf(leaf, key, rid)

	if keyLess(savedKey, leaf.Keys[cap-1]) || (keyEqual(savedKey, leaf.Keys[cap-1]) && savedRID.Less(leaf.RIDs[cap-1])) {
		leaf.Keys[cap-1], savedKey = savedKey, leaf.Keys[cap-1]
		leaf.RIDs[cap-1], savedRID = savedRID, leaf.RIDs[cap-1]
	}

	k := (cap + 1) / 2
	rightCount := cap + 1 - k

	newPg, err := t.newNodePage()
	if err != nil {
		return key, 0, err
	}
	right := newLeafNode[K]()
	for j := 0; j < rightCount; j++ {
		srcIdx := k + j
		if srcIdx < cap {
			right.Keys[j] = leaf.Keys[srcIdx]
			right.RIDs[j] = leaf.RIDs[srcIdx]
		} else {
			right.Keys[j] = savedKey
			right.RIDs[j] = savedRID
		}
	}
	right.NumKeys = int32(rightCount)
	right.RightSib = leaf.RightSib

	leaf.NumKeys = int32(k)
	leaf.RightSib = t.localOf(newPg)

	writeLeaf(pg, leaf)
	writeLeaf(newPg, right)

	newLocal := t.localOf(newPg)
	if err := t.unpin(newPg, true); err != nil {
		return key, 0, err
	}

	return right.Keys[0], newLocal, nil
}
