package index

import "btreeidx/relation"

// findFirstQualifying scans a leaf's keys left-to-right for the first one
// satisfying lowOp against lowVal, returning -1 if none do.
func findFirstQualifying[K Key](leaf *LeafNode[K], lowVal K, lowOp Operator) int {
	for i := 0; i < int(leaf.NumKeys); i++ {
		if satisfiesLow(leaf.Keys[i], lowVal, lowOp) {
			return i
		}
	}
	return -1
}

// startScan implements §4.5's validation and positioning. If a scan is
// already in progress it is ended first.
func (t *tree[K]) startScan(lowVal K, lowOp Operator, highVal K, highOp Operator) error {
	if t.scanState != scanIdle {
		_ = t.endScan()
	}

	if lowOp != GT && lowOp != GTE {
		return ErrBadOpcodes
	}
	if highOp != LT && highOp != LTE {
		return ErrBadOpcodes
	}
	if keyLess(highVal, lowVal) {
		return ErrBadScanrange
	}

	dr, err := t.descend(lowVal)
	if err != nil {
		return err
	}
	if dr.empty {
		return ErrNoSuchKeyFound
	}

	leafPg := dr.leafPg
	leaf := readLeaf[K](leafPg)
	idx := findFirstQualifying(leaf, lowVal, lowOp)

	if idx == -1 {
		rightSib := leaf.RightSib
		if err := t.unpin(leafPg, false); err != nil {
			return err
		}
		if rightSib == 0 {
			return ErrNoSuchKeyFound
		}
		nextPg, err := t.fetchPage(rightSib)
		if err != nil {
			return err
		}
		nextLeaf := readLeaf[K](nextPg)
		idx = findFirstQualifying(nextLeaf, lowVal, lowOp)
		if idx == -1 {
			if err := t.unpin(nextPg, false); err != nil {
				return err
			}
			return ErrNoSuchKeyFound
		}
		leafPg, leaf = nextPg, nextLeaf
	}

	if !satisfiesHigh(leaf.Keys[idx], highVal, highOp) {
		if err := t.unpin(leafPg, false); err != nil {
			return err
		}
		return ErrNoSuchKeyFound
	}

	t.lowVal, t.lowOp = lowVal, lowOp
	t.highVal, t.highOp = highVal, highOp
	t.curLeaf = leaf
	t.curLeafPg = leafPg
	t.nextEntry = int32(idx)
	t.scanState = scanScanning
	return nil
}

// scanNext implements §4.5's advance logic. The leaf held by the cursor
// is pinned across calls and only unpinned when advancing off its end.
func (t *tree[K]) scanNext() (relation.RID, error) {
	if t.scanState == scanIdle {
		return relation.RID{}, ErrScanNotInitialized
	}
	if t.nextEntry == -1 {
		t.scanState = scanExhausted
		return relation.RID{}, ErrIndexScanCompleted
	}
	if !satisfiesHigh(t.curLeaf.Keys[t.nextEntry], t.highVal, t.highOp) {
		t.scanState = scanExhausted
		return relation.RID{}, ErrIndexScanCompleted
	}

	rid := t.curLeaf.RIDs[t.nextEntry]

	if t.nextEntry+1 < t.curLeaf.NumKeys {
		t.nextEntry++
		return rid, nil
	}

	rightSib := t.curLeaf.RightSib
	if err := t.unpin(t.curLeafPg, false); err != nil {
		return relation.RID{}, err
	}
	if rightSib == 0 {
		t.nextEntry = -1
		t.curLeaf, t.curLeafPg = nil, nil
		return rid, nil
	}

	nextPg, err := t.fetchPage(rightSib)
	if err != nil {
		return relation.RID{}, err
	}
	t.curLeaf = readLeaf[K](nextPg)
	t.curLeafPg = nextPg
	t.nextEntry = 0
	return rid, nil
}

// endScan implements §4.5: unpin any pinned leaf and return the cursor to
// Idle. Failing with ScanNotInitialized when nothing is in flight lets
// destroy's best-effort call and an explicit double-call both behave
// predictably.
func (t *tree[K]) endScan() error {
	if t.scanState == scanIdle {
		return ErrScanNotInitialized
	}
	if t.curLeafPg != nil {
		if err := t.unpin(t.curLeafPg, false); err != nil {
			return err
		}
	}
	t.curLeaf, t.curLeafPg = nil, nil
	t.nextEntry = 0
	t.scanState = scanIdle
	return nil
}
