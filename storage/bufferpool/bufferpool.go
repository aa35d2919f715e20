// Package bufferpool is the buffer manager shared by the relation store and
// the index store. It caches *page.Page frames in memory under LRU
// eviction, pins/unpins them for callers, and asks the disk manager to read
// or write a frame only on a miss or a flush.
//
// A page evicted from the hot set while clean is not necessarily gone: it
// is handed to a ristretto cache first, so a page that falls out of the hot
// LRU but is requested again shortly after comes back without a disk read.
// Dirty pages are flushed before being offered to ristretto -- the warm
// tier only ever holds bytes that already match disk.
package bufferpool

import (
	"fmt"

	"github.com/dgraph-io/ristretto/v2"

	"btreeidx/storage/diskmanager"
	"btreeidx/storage/page"
)

// Pool manages cached pages in memory with LRU eviction over a hot set,
// backed by a ristretto warm cache of recently-evicted clean pages.
type Pool struct {
	hot         map[int64]*page.Page
	capacity    int
	disk        *diskmanager.Manager
	warm        *ristretto.Cache[int64, []byte]
	accessOrder []int64 // LRU order, most recently used at the end
}

func New(capacity int, disk *diskmanager.Manager) (*Pool, error) {
	warm, err := ristretto.NewCache(&ristretto.Config[int64, []byte]{
		NumCounters: int64(capacity) * 100,
		MaxCost:     int64(capacity) * int64(page.Size) * 8,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create warm page cache: %w", err)
	}

	return &Pool{
		hot:         make(map[int64]*page.Page, capacity),
		capacity:    capacity,
		disk:        disk,
		warm:        warm,
		accessOrder: make([]int64, 0, capacity),
	}, nil
}

// FetchPage returns a pinned page, checking the hot set, then the warm
// cache, then falling back to disk.
func (p *Pool) FetchPage(pageID int64) (*page.Page, error) {
	if pg, ok := p.hot[pageID]; ok {
		p.touch(pageID)
		pg.Lock()
		pg.PinCount++
		pg.Unlock()
		return pg, nil
	}

	if data, ok := p.warm.Get(pageID); ok {
		pg := page.New(pageID, fileIDOf(pageID), page.Type(data[page.TypeOffset]))
		copy(pg.Data, data)
		pg.PinCount = 1
		if err := p.addToHot(pg); err != nil {
			return nil, err
		}
		p.warm.Del(pageID)
		return pg, nil
	}

	pg, err := p.disk.ReadPage(pageID)
	if err != nil {
		return nil, fmt.Errorf("fetch page %d: %w", pageID, err)
	}
	pg.PinCount = 1
	if err := p.addToHot(pg); err != nil {
		return nil, err
	}
	return pg, nil
}

// NewPage allocates a fresh page for fileID and returns it pinned.
func (p *Pool) NewPage(fileID uint32, typ page.Type) (*page.Page, error) {
	pageID, err := p.disk.AllocatePage(fileID, typ)
	if err != nil {
		return nil, fmt.Errorf("allocate page: %w", err)
	}

	pg := page.New(pageID, fileID, typ)
	pg.IsDirty = true
	pg.PinCount = 1

	if err := p.addToHot(pg); err != nil {
		return nil, err
	}
	return pg, nil
}

// UnpinPage decrements a page's pin count, optionally marking it dirty.
func (p *Pool) UnpinPage(pageID int64, isDirty bool) error {
	pg, ok := p.hot[pageID]
	if !ok {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}
	pg.Lock()
	defer pg.Unlock()
	if pg.PinCount > 0 {
		pg.PinCount--
	}
	if isDirty {
		pg.IsDirty = true
	}
	return nil
}

// FlushPage writes a page to disk if dirty.
func (p *Pool) FlushPage(pageID int64) error {
	pg, ok := p.hot[pageID]
	if !ok {
		return fmt.Errorf("page %d not in buffer pool", pageID)
	}
	pg.Lock()
	defer pg.Unlock()
	if !pg.IsDirty {
		return nil
	}
	if err := p.disk.WritePage(pg); err != nil {
		return fmt.Errorf("flush page %d: %w", pageID, err)
	}
	return nil
}

// FlushFile writes every dirty page belonging to fileID to disk. Used when
// closing or destroying an index or relation file.
func (p *Pool) FlushFile(fileID uint32) error {
	for pageID, pg := range p.hot {
		if pg.FileID != fileID {
			continue
		}
		pg.Lock()
		if pg.IsDirty {
			if err := p.disk.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("flush page %d: %w", pageID, err)
			}
		}
		pg.Unlock()
	}
	return nil
}

func (p *Pool) addToHot(pg *page.Page) error {
	if _, ok := p.hot[pg.ID]; ok {
		p.touch(pg.ID)
		return nil
	}
	if len(p.hot) >= p.capacity {
		if err := p.evictLRU(); err != nil {
			return fmt.Errorf("evict for new page: %w", err)
		}
	}
	p.hot[pg.ID] = pg
	p.touch(pg.ID)
	return nil
}

// evictLRU evicts the least recently used unpinned page from the hot set,
// flushing it first if dirty, and offers its bytes to the warm cache.
func (p *Pool) evictLRU() error {
	for i := 0; i < len(p.accessOrder); i++ {
		pageID := p.accessOrder[i]
		pg, ok := p.hot[pageID]
		if !ok {
			p.accessOrder = append(p.accessOrder[:i], p.accessOrder[i+1:]...)
			i--
			continue
		}

		pg.Lock()
		if pg.PinCount > 0 {
			pg.Unlock()
			continue
		}
		if pg.IsDirty {
			if err := p.disk.WritePage(pg); err != nil {
				pg.Unlock()
				return fmt.Errorf("write page %d during eviction: %w", pageID, err)
			}
		}
		snapshot := make([]byte, len(pg.Data))
		copy(snapshot, pg.Data)
		pg.Unlock()

		p.warm.Set(pageID, snapshot, int64(len(snapshot)))

		delete(p.hot, pageID)
		p.accessOrder = append(p.accessOrder[:i], p.accessOrder[i+1:]...)
		return nil
	}
	return fmt.Errorf("all pages pinned, cannot evict")
}

func (p *Pool) touch(pageID int64) {
	for i, id := range p.accessOrder {
		if id == pageID {
			p.accessOrder = append(p.accessOrder[:i], p.accessOrder[i+1:]...)
			break
		}
	}
	p.accessOrder = append(p.accessOrder, pageID)
}

// DropFile evicts every page of fileID from both the hot set and the warm
// cache without flushing -- used when a file is being destroyed. Warm
// entries are found through the disk manager's page count for fileID, so
// they are only dropped while the file is still open there.
func (p *Pool) DropFile(fileID uint32) {
	for pageID, pg := range p.hot {
		if pg.FileID == fileID {
			delete(p.hot, pageID)
			p.warm.Del(pageID)
		}
	}
	if numPages, err := p.disk.FileSize(fileID); err == nil {
		for local := int64(0); local < numPages; local++ {
			p.warm.Del(p.disk.GlobalPageID(fileID, local))
		}
	}
	for i := 0; i < len(p.accessOrder); i++ {
		if pg, ok := p.hot[p.accessOrder[i]]; !ok || pg.FileID == fileID {
			p.accessOrder = append(p.accessOrder[:i], p.accessOrder[i+1:]...)
			i--
		}
	}
}

func fileIDOf(globalPageID int64) uint32 {
	return uint32(globalPageID >> 32)
}
