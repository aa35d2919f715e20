// Package diskmanager owns OS file handles and the global page ID space
// shared by the relation store and the index store.
//
// Page ID encoding: globalPageID = int64(fileID)<<32 | localPageNum. This
// makes global IDs deterministic -- no counter needed, same result on every
// restart regardless of which files get reopened first.
//
// The buffer pool calls here only on a miss; DiskManager never caches a
// page itself, it just moves bytes between a *page.Page and the file at the
// right offset.
package diskmanager

import (
	"fmt"
	"os"
	"sync"

	"btreeidx/storage/page"
)

type fileKey struct {
	fileID   uint32
	localNum int64
}

type fileDescriptor struct {
	fileID     uint32
	filePath   string
	file       *os.File
	nextPageID int64
	mu         sync.RWMutex
}

// Manager manages all disk I/O operations and file handles.
type Manager struct {
	files         map[uint32]*fileDescriptor
	nextFileID    uint32
	globalPageMap map[int64]uint32
	localToGlobal map[fileKey]int64
	mu            sync.RWMutex
}

func New() *Manager {
	return &Manager{
		files:         make(map[uint32]*fileDescriptor),
		globalPageMap: make(map[int64]uint32),
		localToGlobal: make(map[fileKey]int64),
		nextFileID:    1,
	}
}

func NewPage(pageID int64, fileID uint32, typ page.Type) *page.Page {
	return page.New(pageID, fileID, typ)
}

// OpenFileWithID opens (or creates) filePath under a caller-supplied stable
// file ID. Used for relation files and index files, whose IDs must survive
// a restart so that global page IDs stay deterministic.
func (dm *Manager) OpenFileWithID(filePath string, fileID uint32) (uint32, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	for id, fd := range dm.files {
		if fd.filePath == filePath {
			return id, nil
		}
	}

	f, err := os.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", filePath, err)
	}

	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return 0, err
	}

	fd := &fileDescriptor{
		fileID:     fileID,
		filePath:   filePath,
		file:       f,
		nextPageID: stat.Size() / int64(page.Size),
	}

	dm.files[fileID] = fd
	if fileID >= dm.nextFileID {
		dm.nextFileID = fileID + 1
	}

	return fileID, nil
}

// ReadPage reads a page from disk by its global page ID.
func (dm *Manager) ReadPage(globalPageID int64) (*page.Page, error) {
	dm.mu.RLock()
	fileID, ok := dm.globalPageMap[globalPageID]
	dm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("page %d not registered", globalPageID)
	}

	dm.mu.RLock()
	fd, ok := dm.files[fileID]
	dm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()
	if fd.file == nil {
		return nil, fmt.Errorf("file %d is closed", fileID)
	}

	localPageID := dm.localPageID(globalPageID)
	offset := localPageID * int64(page.Size)

	pg := page.New(globalPageID, fileID, page.TypeUnknown)
	n, err := fd.file.ReadAt(pg.Data, offset)
	if err != nil && n == 0 {
		return nil, fmt.Errorf("read page %d of file %d: %w", localPageID, fileID, err)
	}
	for i := n; i < page.Size; i++ {
		pg.Data[i] = 0
	}

	pg.Type = page.Type(pg.Data[page.TypeOffset])
	return pg, nil
}

// WritePage writes a page to disk at its file-relative offset, stamping the
// page's Type byte first.
func (dm *Manager) WritePage(pg *page.Page) error {
	dm.mu.RLock()
	fd, ok := dm.files[pg.FileID]
	dm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("file %d not found", pg.FileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.file == nil {
		return fmt.Errorf("file %d is closed", pg.FileID)
	}
	if len(pg.Data) != page.Size {
		return fmt.Errorf("page data size %d != %d", len(pg.Data), page.Size)
	}

	pg.Data[page.TypeOffset] = byte(pg.Type)

	localPageID := dm.localPageID(pg.ID)
	offset := localPageID * int64(page.Size)

	if _, err := fd.file.WriteAt(pg.Data, offset); err != nil {
		return fmt.Errorf("write page %d of file %d: %w", localPageID, pg.FileID, err)
	}
	if localPageID >= fd.nextPageID {
		fd.nextPageID = localPageID + 1
	}

	pg.IsDirty = false
	return nil
}

// AllocatePage reserves the next page ID for fileID. It does not touch disk
// -- the page hits disk only when the buffer pool later flushes it.
func (dm *Manager) AllocatePage(fileID uint32, typ page.Type) (int64, error) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, ok := dm.files[fileID]
	if !ok {
		return 0, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.file == nil {
		return 0, fmt.Errorf("file %d is closed", fileID)
	}

	localPageNum := fd.nextPageID
	fd.nextPageID++

	globalPageID := int64(fileID)<<32 | localPageNum
	dm.globalPageMap[globalPageID] = fileID
	dm.localToGlobal[fileKey{fileID: fileID, localNum: localPageNum}] = globalPageID

	return globalPageID, nil
}

func (dm *Manager) localPageID(globalPageID int64) int64 {
	return globalPageID & 0xFFFFFFFF
}

// LocalPageID is the exported form of localPageID, used by callers that
// store page numbers relative to their own file (e.g. an index's node
// fields) rather than carrying global IDs everywhere.
func (dm *Manager) LocalPageID(globalPageID int64) int64 {
	return dm.localPageID(globalPageID)
}

func (dm *Manager) GlobalPageID(fileID uint32, localPageNum int64) int64 {
	return int64(fileID)<<32 | localPageNum
}

// RegisterPage records an existing on-disk page into the global page map.
// Called while replaying an existing file's pages after reopening it.
func (dm *Manager) RegisterPage(fileID uint32, localPageNum int64) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	key := fileKey{fileID: fileID, localNum: localPageNum}
	if _, ok := dm.localToGlobal[key]; ok {
		return
	}
	globalPageID := int64(fileID)<<32 | localPageNum
	dm.globalPageMap[globalPageID] = fileID
	dm.localToGlobal[key] = globalPageID
}

func (dm *Manager) FileSize(fileID uint32) (int64, error) {
	dm.mu.RLock()
	fd, ok := dm.files[fileID]
	dm.mu.RUnlock()
	if !ok {
		return 0, fmt.Errorf("file %d not found", fileID)
	}
	fd.mu.RLock()
	defer fd.mu.RUnlock()
	return fd.nextPageID, nil
}

func (dm *Manager) CloseFile(fileID uint32) error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	fd, ok := dm.files[fileID]
	if !ok {
		return nil
	}
	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.file == nil {
		return nil
	}
	if err := fd.file.Sync(); err != nil {
		return fmt.Errorf("sync before close: %w", err)
	}
	if err := fd.file.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	fd.file = nil
	delete(dm.files, fileID)
	return nil
}

func (dm *Manager) CloseAll() error {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	var lastErr error
	for fileID, fd := range dm.files {
		fd.mu.Lock()
		if fd.file != nil {
			if err := fd.file.Sync(); err != nil {
				lastErr = err
			}
			if err := fd.file.Close(); err != nil {
				lastErr = err
			}
			fd.file = nil
		}
		fd.mu.Unlock()
		delete(dm.files, fileID)
	}
	return lastErr
}

// RemoveFile closes fileID if open and deletes its backing file, swallowing
// a not-exist error -- mirrors File::remove semantics for a Destroy call
// that may run against an already-missing file.
func (dm *Manager) RemoveFile(fileID uint32, filePath string) error {
	_ = dm.CloseFile(fileID)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (dm *Manager) Exists(filePath string) bool {
	_, err := os.Stat(filePath)
	return err == nil
}

// WriteMetadata writes fixed-size metadata directly to page 0 of a file,
// bypassing the buffer pool -- the metadata page is read once at open and
// written only at creation and when the index root changes, so caching it
// buys nothing.
func (dm *Manager) WriteMetadata(fileID uint32, metadata []byte) error {
	dm.mu.RLock()
	fd, ok := dm.files[fileID]
	dm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.Lock()
	defer fd.mu.Unlock()
	if fd.file == nil {
		return fmt.Errorf("file %d is closed", fileID)
	}

	buf := make([]byte, page.Size)
	buf[page.TypeOffset] = byte(page.TypeIndexMeta)
	copy(buf[page.TypeOffset+1:], metadata)

	_, err := fd.file.WriteAt(buf, 0)
	return err
}

func (dm *Manager) ReadMetadata(fileID uint32) ([]byte, error) {
	dm.mu.RLock()
	fd, ok := dm.files[fileID]
	dm.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("file %d not found", fileID)
	}

	fd.mu.RLock()
	defer fd.mu.RUnlock()
	if fd.file == nil {
		return nil, fmt.Errorf("file %d is closed", fileID)
	}

	buf := make([]byte, page.Size)
	if _, err := fd.file.ReadAt(buf, 0); err != nil {
		return nil, err
	}
	return buf[page.TypeOffset+1:], nil
}
