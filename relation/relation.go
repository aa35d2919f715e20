// Package relation implements a disk-resident fixed-record relation: the
// collaborator the index package builds an index over and scans when
// asked to find a record. It is deliberately the minimum needed to drive
// and test an index -- no catalog, no query layer, no transactions.
package relation

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
	"btreeidx/storage/page"
)

// RID identifies a record by its physical location: (page, slot). Two RIDs
// are compared by identity only -- PageNo/SlotNo have no meaning outside
// their own relation file. RID additionally orders by (PageNo, SlotNo)
// ascending so index build/insert has a deterministic duplicate-key
// tie-break.
type RID struct {
	PageNo uint32
	SlotNo uint16
}

func (r RID) Less(other RID) bool {
	if r.PageNo != other.PageNo {
		return r.PageNo < other.PageNo
	}
	return r.SlotNo < other.SlotNo
}

func (r RID) Equal(other RID) bool {
	return r.PageNo == other.PageNo && r.SlotNo == other.SlotNo
}

// Relation is a single fixed-record file on disk, organized as slotted
// pages of page.Size bytes.
type Relation struct {
	fileID     uint32
	recordSize int
	filePath   string
	disk       *diskmanager.Manager
	pool       *bufferpool.Pool
	mu         sync.RWMutex
}

// Create makes a new, empty relation file with one initialized page.
func Create(dir string, fileID uint32, recordSize int, disk *diskmanager.Manager, pool *bufferpool.Pool) (*Relation, error) {
	if recordSize <= 0 || recordSize+slotSize > page.Size-headerSize {
		return nil, fmt.Errorf("record size %d does not fit a page", recordSize)
	}

	filePath := filepath.Join(dir, fmt.Sprintf("%d.rel", fileID))
	if _, err := os.Stat(filePath); err == nil {
		return nil, fmt.Errorf("relation file %s already exists", filePath)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create relation dir: %w", err)
	}

	if _, err := disk.OpenFileWithID(filePath, fileID); err != nil {
		return nil, fmt.Errorf("open relation file: %w", err)
	}

	pg, err := pool.NewPage(fileID, page.TypeRelationData)
	if err != nil {
		return nil, fmt.Errorf("allocate first relation page: %w", err)
	}
	initPage(pg, 0)
	if err := pool.UnpinPage(pg.ID, true); err != nil {
		return nil, err
	}

	return &Relation{
		fileID:     fileID,
		recordSize: recordSize,
		filePath:   filePath,
		disk:       disk,
		pool:       pool,
	}, nil
}

// Open reattaches to an existing relation file, replaying its page
// registrations into the disk manager's global page map.
func Open(dir string, fileID uint32, recordSize int, disk *diskmanager.Manager, pool *bufferpool.Pool) (*Relation, error) {
	filePath := filepath.Join(dir, fmt.Sprintf("%d.rel", fileID))
	if _, err := os.Stat(filePath); err != nil {
		return nil, fmt.Errorf("relation file %s not found: %w", filePath, err)
	}
	if _, err := disk.OpenFileWithID(filePath, fileID); err != nil {
		return nil, fmt.Errorf("open relation file: %w", err)
	}

	numPages, err := disk.FileSize(fileID)
	if err != nil {
		return nil, err
	}
	for localPage := int64(0); localPage < numPages; localPage++ {
		disk.RegisterPage(fileID, localPage)
	}

	return &Relation{
		fileID:     fileID,
		recordSize: recordSize,
		filePath:   filePath,
		disk:       disk,
		pool:       pool,
	}, nil
}

func (r *Relation) RecordSize() int { return r.recordSize }
func (r *Relation) FileID() uint32  { return r.fileID }

// Insert appends a record and returns its RID.
func (r *Relation) Insert(record []byte) (RID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(record) != r.recordSize {
		return RID{}, fmt.Errorf("record is %d bytes, relation stores %d", len(record), r.recordSize)
	}

	pageNo, pg, err := r.findSuitablePage()
	if err != nil {
		return RID{}, err
	}

	slotIdx, err := insertRecord(pg, record)
	if err != nil {
		r.pool.UnpinPage(pg.ID, false)
		return RID{}, err
	}
	if err := r.pool.UnpinPage(pg.ID, true); err != nil {
		return RID{}, err
	}

	return RID{PageNo: pageNo, SlotNo: slotIdx}, nil
}

// Get returns the record identified by rid.
func (r *Relation) Get(rid RID) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	pg, err := r.pool.FetchPage(r.disk.GlobalPageID(r.fileID, int64(rid.PageNo)))
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", rid.PageNo, err)
	}
	defer r.pool.UnpinPage(pg.ID, false)

	pg.RLock()
	defer pg.RUnlock()
	return getRecord(pg, rid.SlotNo)
}

// findSuitablePage returns a pinned page with room for one more record of
// r.recordSize bytes, allocating a fresh page if every existing one is full.
func (r *Relation) findSuitablePage() (uint32, *page.Page, error) {
	numPages, err := r.disk.FileSize(r.fileID)
	if err != nil {
		return 0, nil, err
	}

	needed := r.recordSize + slotSize
	for localPage := int64(0); localPage < numPages; localPage++ {
		pg, err := r.pool.FetchPage(r.disk.GlobalPageID(r.fileID, localPage))
		if err != nil {
			continue
		}
		pg.RLock()
		full := getIsPageFull(pg)
		has := freeSpace(pg) >= needed
		pg.RUnlock()
		if !full && has {
			return uint32(localPage), pg, nil
		}
		r.pool.UnpinPage(pg.ID, false)
	}

	pg, err := r.pool.NewPage(r.fileID, page.TypeRelationData)
	if err != nil {
		return 0, nil, err
	}
	initPage(pg, uint32(numPages))
	return uint32(numPages), pg, nil
}

// Close flushes every dirty page of the relation and closes its file.
func (r *Relation) Close() error {
	if err := r.pool.FlushFile(r.fileID); err != nil {
		return err
	}
	return r.disk.CloseFile(r.fileID)
}
