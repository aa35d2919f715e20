package index

import (
	"fmt"

	"btreeidx/relation"
)

// insert is the tree-level entry point for §4.1/§4.3/§4.4: descend to the
// target leaf, insert directly if there is room, otherwise split and
// propagate the new separator up the path stack descend recorded.
func (t *tree[K]) insert(key K, rid relation.RID) error {
	dr, err := t.descend(key)
	if err != nil {
		return err
	}
	if dr.empty {
		return t.insertFirstLeaf(key, rid)
	}

	leaf := readLeaf[K](dr.leafPg)
	if int(leaf.NumKeys) < len(leaf.Keys) {
		insertSortedLeaf(leaf, key, rid)
		writeLeaf(dr.leafPg, leaf)
		return t.unpin(dr.leafPg, true)
	}

	sepKey, newLeafLocal, err := t.splitLeaf(dr.leafPg, leaf, key, rid)
	if err != nil {
		t.unpin(dr.leafPg, false)
		return err
	}
	if err := t.unpin(dr.leafPg, true); err != nil {
		return err
	}

	return t.propagateSplit(dr.pathStack, sepKey, newLeafLocal)
}

// insertFirstLeaf handles the one-time transition out of the empty-tree
// degenerate root (§4.4, last paragraph): allocate the first leaf and
// point the root's sentinel Children[0] at it. The root's Level stays 0
// until that leaf itself overflows and propagateSplit upgrades it in
// place -- a genuinely empty single-leaf tree has no separators to host.
func (t *tree[K]) insertFirstLeaf(key K, rid relation.RID) error {
	leafPg, err := t.newNodePage()
	if err != nil {
		return err
	}
	leaf := newLeafNode[K]()
	leaf.NumKeys = 1
	leaf.Keys[0] = key
	leaf.RIDs[0] = rid
	writeLeaf(leafPg, leaf)
	leafLocal := t.localOf(leafPg)
	if err := t.unpin(leafPg, true); err != nil {
		return err
	}

	rootPg, err := t.fetchPage(t.rootPageNo)
	if err != nil {
		return err
	}
	root := readNonLeaf[K](rootPg)
	root.Children[0] = leafLocal
	writeNonLeaf(rootPg, root)
	return t.unpin(rootPg, true)
}

// propagateSplit walks pathStack from the immediate parent back up to the
// root, inserting (sepKey, newChildLocal) into the first ancestor with
// room, splitting and continuing upward when it doesn't. If the root
// itself has to split, growRoot allocates a fresh page above it.
func (t *tree[K]) propagateSplit(pathStack []int64, sepKey K, newChildLocal int64) error {
	if len(pathStack) == 0 {
		return fmt.Errorf("index: split propagation with no ancestors on the path")
	}

	for i := len(pathStack) - 1; i >= 0; i-- {
		parentLocal := pathStack[i]
		parentPg, err := t.fetchPage(parentLocal)
		if err != nil {
			return err
		}
		parent := readNonLeaf[K](parentPg)

		if int(parent.NumKeys) < len(parent.Keys) {
			insertSortedInner(parent, sepKey, newChildLocal)
			if parent.Level == 0 {
				parent.Level = 1
			}
			writeNonLeaf(parentPg, parent)
			return t.unpin(parentPg, true)
		}

		promotedKey, newNodeLocal, err := t.splitInner(parentPg, parent, sepKey, newChildLocal)
		if err != nil {
			t.unpin(parentPg, false)
			return err
		}
		if err := t.unpin(parentPg, true); err != nil {
			return err
		}

		if i == 0 {
			return t.growRoot(parentLocal, parent.Level, promotedKey, newNodeLocal)
		}
		sepKey, newChildLocal = promotedKey, newNodeLocal
	}
	return nil
}

// growRoot implements §4.4's root-split case: the old root (now the left
// half of its own split) and its new sibling become the two children of a
// brand-new root page one level higher, and the metadata page's root
// pointer is updated to match.
func (t *tree[K]) growRoot(oldRootLocal int64, oldRootLevel int32, sepKey K, newSiblingLocal int64) error {
	newRootPg, err := t.newNodePage()
	if err != nil {
		return err
	}
	newRoot := newNonLeafNode[K]()
	newRoot.Level = oldRootLevel + 1
	newRoot.NumKeys = 1
	newRoot.Keys[0] = sepKey
	newRoot.Children[0] = oldRootLocal
	newRoot.Children[1] = newSiblingLocal
	writeNonLeaf(newRootPg, newRoot)

	newRootLocal := t.localOf(newRootPg)
	if err := t.unpin(newRootPg, true); err != nil {
		return err
	}

	t.rootPageNo = newRootLocal
	return writeMeta(t.disk, t.fileID, metaInfo{
		RelationName:   t.relationName,
		AttrByteOffset: t.attrByteOffset,
		AttrType:       t.attrType,
		RootPageNo:     newRootLocal,
	})
}
