package index

import "btreeidx/relation"

// insertSortedLeaf performs the in-place sorted insertion described in
// §4.3 ("insert into non-full leaf"): it finds the first index whose key
// is strictly greater than the new one and shifts everything from there
// rightward by one slot. Equal keys tie-break by RID ascending, resolving
// the source's duplicate-key ambiguity per §9's recommendation.
func insertSortedLeaf[K Key](leaf *LeafNode[K], key K, rid relation.RID) {
	n := int(leaf.NumKeys)
	i := 0
	for i < n && (keyLess(leaf.Keys[i], key) || (keyEqual(leaf.Keys[i], key) && leaf.RIDs[i].Less(rid))) {
		i++
	}
	for j := n; j > i; j-- {
		leaf.Keys[j] = leaf.Keys[j-1]
		leaf.RIDs[j] = leaf.RIDs[j-1]
	}
	leaf.Keys[i] = key
	leaf.RIDs[i] = rid
	leaf.NumKeys++
}

// insertSortedInner performs the non-full-parent insertion from §4.4:
// find the first index whose separator exceeds sepKey, shift keys and the
// child pointers one slot past it rightward, and write the new pair in.
// Children[0] is never touched -- every insertion lands at i+1 or later.
func insertSortedInner[K Key](n *NonLeafNode[K], sepKey K, childPage int64) {
	cnt := int(n.NumKeys)
	i := 0
	for i < cnt && !keyLess(sepKey, n.Keys[i]) {
		i++
	}
	for j := cnt; j > i; j-- {
		n.Keys[j] = n.Keys[j-1]
	}
	for j := cnt + 1; j > i+1; j-- {
		n.Children[j] = n.Children[j-1]
	}
	n.Keys[i] = sepKey
	n.Children[i+1] = childPage
	n.NumKeys++
}
