// Package index implements the disk-resident B+ tree secondary index: a
// single attribute's worth of (key, RID) pairs over a relation file,
// built and queried through the buffer manager and disk manager in
// storage/bufferpool and storage/diskmanager.
package index

import (
	"fmt"
	"path/filepath"

	"btreeidx/relation"
	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
)

// Index is the type-erased public surface. NewBTreeIndex picks exactly
// one of the three key variants at construction and returns a value
// satisfying this interface; every call after that point dispatches
// through the single generic tree[K] chosen then.
type Index interface {
	Insert(key any, rid relation.RID) error
	BuildFromRelation(rel *relation.Relation) error
	StartScan(lowVal any, lowOp Operator, highVal any, highOp Operator) error
	ScanNext() (relation.RID, error)
	EndScan() error
	Destroy(remove bool) error
	RootPageNo() int64
}

// indexImpl is the single generic implementation of Index; it is
// instantiated once per key variant by NewBTreeIndex's dispatch switch.
// Apart from that switch, only InspectIndexFileTo's debug dump branches on
// AttrType to pick a tree[K].
type indexImpl[K Key] struct {
	t *tree[K]
}

func (idx *indexImpl[K]) Insert(key any, rid relation.RID) error {
	return idx.t.insert(mustKey[K](key), rid)
}

// BuildFromRelation implements §4.1's Build step: drain the relation's
// scanner, extracting the key at attrByteOffset from each record and
// inserting (key, rid). relation.ErrEndOfFile is the scanner's normal
// termination signal and is swallowed here, never surfaced.
func (idx *indexImpl[K]) BuildFromRelation(rel *relation.Relation) error {
	scanner, err := rel.Scan()
	if err != nil {
		return fmt.Errorf("index: build: %w", err)
	}
	for {
		record, rid, err := scanner.Next()
		if err == relation.ErrEndOfFile {
			return nil
		}
		if err != nil {
			return fmt.Errorf("index: build: %w", err)
		}
		key := extractKey[K](record, int(idx.t.attrByteOffset))
		if err := idx.t.insert(key, rid); err != nil {
			return fmt.Errorf("index: build: %w", err)
		}
	}
}

func (idx *indexImpl[K]) StartScan(lowVal any, lowOp Operator, highVal any, highOp Operator) error {
	return idx.t.startScan(mustKey[K](lowVal), lowOp, mustKey[K](highVal), highOp)
}

func (idx *indexImpl[K]) ScanNext() (relation.RID, error) {
	return idx.t.scanNext()
}

func (idx *indexImpl[K]) EndScan() error {
	return idx.t.endScan()
}

func (idx *indexImpl[K]) Destroy(remove bool) error {
	return idx.t.destroy(remove)
}

func (idx *indexImpl[K]) RootPageNo() int64 {
	return idx.t.rootPageNo
}

// mustKey asserts v's dynamic type against K. A mismatch is a caller
// contract violation -- the attrType fixed at construction must agree
// with every key value passed afterward -- not a data-dependent failure,
// so it panics rather than returning one of the taxonomy's errors.
func mustKey[K Key](v any) K {
	k, ok := v.(K)
	if !ok {
		panic(fmt.Sprintf("index: key value %v does not match this index's key variant", v))
	}
	return k
}

// extractKey reads the raw bytes of a record at offset and decodes them
// as K, mirroring the on-disk encoding writeLeaf/readLeaf use for node
// payloads -- a record's indexed attribute is stored in the same binary
// shape a node stores its keys in.
func extractKey[K Key](record []byte, offset int) K {
	return getKey[K](record[offset:])
}

// NewBTreeIndex implements §4.1's open-or-create and §9's single
// dispatch switch: the index file name is derived from (relationName,
// attrByteOffset); if it exists its metadata is validated against the
// arguments given here (ErrBadIndexInfo on mismatch), otherwise a fresh
// metadata page and degenerate root are allocated. created reports which
// branch was taken so the caller knows whether to call BuildFromRelation.
func NewBTreeIndex(dir, relationName string, attrByteOffset int32, attrType AttrType, fileID uint32, disk *diskmanager.Manager, pool *bufferpool.Pool) (idx Index, created bool, err error) {
	filePath := filepath.Join(dir, indexFileName(relationName, attrByteOffset))
	exists := disk.Exists(filePath)

	switch attrType {
	case AttrInt32:
		if exists {
			t, err := openTree[int32](filePath, relationName, attrByteOffset, attrType, fileID, disk, pool)
			return wrap(t, err)
		}
		t, _, err := createTree[int32](dir, relationName, attrByteOffset, attrType, fileID, disk, pool)
		return wrapCreated(t, err)

	case AttrFloat64:
		if exists {
			t, err := openTree[float64](filePath, relationName, attrByteOffset, attrType, fileID, disk, pool)
			return wrap(t, err)
		}
		t, _, err := createTree[float64](dir, relationName, attrByteOffset, attrType, fileID, disk, pool)
		return wrapCreated(t, err)

	case AttrString10:
		if exists {
			t, err := openTree[StringKey](filePath, relationName, attrByteOffset, attrType, fileID, disk, pool)
			return wrap(t, err)
		}
		t, _, err := createTree[StringKey](dir, relationName, attrByteOffset, attrType, fileID, disk, pool)
		return wrapCreated(t, err)

	default:
		return nil, false, ErrBadIndexInfo
	}
}

func wrap[K Key](t *tree[K], err error) (Index, bool, error) {
	if err != nil {
		return nil, false, err
	}
	return &indexImpl[K]{t: t}, false, nil
}

func wrapCreated[K Key](t *tree[K], err error) (Index, bool, error) {
	if err != nil {
		return nil, false, err
	}
	return &indexImpl[K]{t: t}, true, nil
}
