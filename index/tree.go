package index

import (
	"fmt"
	"os"
	"path/filepath"

	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
	"btreeidx/storage/page"
)

// scanCursorState is the Idle/Scanning/Exhausted state machine driving
// startScan/scanNext/endScan.
type scanCursorState uint8

const (
	scanIdle scanCursorState = iota
	scanScanning
	scanExhausted
)

// tree is the generic B+ tree engine for exactly one key variant K. The
// public, type-erased API in btreeindex.go picks one of int32, float64, or
// StringKey at construction and forwards every call into the matching
// tree[K]. NewBTreeIndex's switch makes that choice for a live index;
// InspectIndexFileTo has a matching switch for its debug dump.
type tree[K Key] struct {
	fileID         uint32
	filePath       string
	relationName   string
	attrByteOffset int32
	attrType       AttrType

	disk *diskmanager.Manager
	pool *bufferpool.Pool

	rootPageNo int64 // local page number

	// Range-scan cursor. Only one scan may be in flight at a time per the
	// single-writer, single-reader-at-a-time contract.
	scanState scanCursorState
	lowVal    K
	lowOp     Operator
	highVal   K
	highOp    Operator
	curLeaf   *LeafNode[K]
	curLeafPg *page.Page
	nextEntry int32
}

func indexFileName(relationName string, attrByteOffset int32) string {
	return fmt.Sprintf("%s_%d.idx", relationName, attrByteOffset)
}

// createTree allocates a brand-new index file: a metadata page and an
// empty degenerate-root NonLeafNode (level 0, numKeys 0, child 0 = sentinel
// 0), per §4.1.
func createTree[K Key](dir, relationName string, attrByteOffset int32, attrType AttrType, fileID uint32, disk *diskmanager.Manager, pool *bufferpool.Pool) (*tree[K], string, error) {
	filePath := filepath.Join(dir, indexFileName(relationName, attrByteOffset))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, "", fmt.Errorf("index: create dir: %w", err)
	}
	if _, err := disk.OpenFileWithID(filePath, fileID); err != nil {
		return nil, "", fmt.Errorf("index: open file: %w", err)
	}

	// Reserve local page 0 for metadata -- it is written directly by the
	// disk manager, never through the buffer pool, so it must never be
	// handed out by AllocatePage again.
	if _, err := disk.AllocatePage(fileID, page.TypeIndexMeta); err != nil {
		return nil, "", fmt.Errorf("index: reserve metadata page: %w", err)
	}

	rootPg, err := pool.NewPage(fileID, page.TypeIndexNode)
	if err != nil {
		return nil, "", fmt.Errorf("index: allocate root page: %w", err)
	}
	root := newNonLeafNode[K]()
	writeNonLeaf(rootPg, root)
	rootLocal := disk.LocalPageID(rootPg.ID)
	if err := pool.UnpinPage(rootPg.ID, true); err != nil {
		return nil, "", err
	}

	m := metaInfo{
		RelationName:   relationName,
		AttrByteOffset: attrByteOffset,
		AttrType:       attrType,
		RootPageNo:     rootLocal,
	}
	if err := writeMeta(disk, fileID, m); err != nil {
		return nil, "", fmt.Errorf("index: write metadata: %w", err)
	}

	t := &tree[K]{
		fileID:         fileID,
		filePath:       filePath,
		relationName:   relationName,
		attrByteOffset: attrByteOffset,
		attrType:       attrType,
		disk:           disk,
		pool:           pool,
		rootPageNo:     rootLocal,
	}
	return t, filePath, nil
}

// openTree attaches to an existing index file and validates its metadata
// matches the constructor arguments exactly, failing with ErrBadIndexInfo
// on any mismatch.
func openTree[K Key](filePath, relationName string, attrByteOffset int32, attrType AttrType, fileID uint32, disk *diskmanager.Manager, pool *bufferpool.Pool) (*tree[K], error) {
	if _, err := disk.OpenFileWithID(filePath, fileID); err != nil {
		return nil, fmt.Errorf("index: open file: %w", err)
	}

	numPages, err := disk.FileSize(fileID)
	if err != nil {
		return nil, err
	}
	for local := int64(0); local < numPages; local++ {
		disk.RegisterPage(fileID, local)
	}

	m, err := readMeta(disk, fileID)
	if err != nil {
		return nil, fmt.Errorf("index: read metadata: %w", err)
	}
	if m.RelationName != relationName || m.AttrByteOffset != attrByteOffset || m.AttrType != attrType {
		return nil, ErrBadIndexInfo
	}

	return &tree[K]{
		fileID:         fileID,
		filePath:       filePath,
		relationName:   relationName,
		attrByteOffset: attrByteOffset,
		attrType:       attrType,
		disk:           disk,
		pool:           pool,
		rootPageNo:     m.RootPageNo,
	}, nil
}

func (t *tree[K]) fetchPage(local int64) (*page.Page, error) {
	return t.pool.FetchPage(t.disk.GlobalPageID(t.fileID, local))
}

func (t *tree[K]) newNodePage() (*page.Page, error) {
	return t.pool.NewPage(t.fileID, page.TypeIndexNode)
}

func (t *tree[K]) unpin(pg *page.Page, dirty bool) error {
	return t.pool.UnpinPage(pg.ID, dirty)
}

func (t *tree[K]) localOf(pg *page.Page) int64 {
	return t.disk.LocalPageID(pg.ID)
}

// destroy flushes every dirty page, closes the file, and -- unless remove
// is false -- deletes it. There is no default at the public API boundary:
// every caller of Destroy passes remove explicitly, and the file is kept
// whenever remove is false.
func (t *tree[K]) destroy(remove bool) error {
	if t.scanState != scanIdle {
		t.endScan()
	}
	if err := t.pool.FlushFile(t.fileID); err != nil {
		return fmt.Errorf("index: flush on teardown: %w", err)
	}
	t.pool.DropFile(t.fileID)
	if remove {
		return t.disk.RemoveFile(t.fileID, t.filePath)
	}
	return t.disk.CloseFile(t.fileID)
}
