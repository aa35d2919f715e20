// Package page defines the in-memory representation of a fixed-size disk
// page shared by the relation store and the index store. Both stores hand
// pages to the same buffer pool, so they share one struct even though the
// byte layout each writes into Data is entirely their own.
package page

import "sync"

const (
	Size = 4096

	// TypeOffset is the byte offset at which the disk manager stamps the
	// page's Type on every write, and reads it back on every load. Every
	// page layout must leave this byte alone.
	TypeOffset = 8
)

// Type identifies what a page's payload contains. The disk manager stamps
// this into byte TypeOffset of every page it writes so a page can be
// classified without the buffer pool knowing any layout details.
type Type uint8

const (
	TypeUnknown Type = iota
	TypeRelationData
	TypeIndexNode
	TypeIndexMeta
)

// Page is a single pinned, possibly-dirty frame of Size bytes.
type Page struct {
	ID       int64 // global page ID, see diskmanager.GlobalPageID
	FileID   uint32
	Data     []byte
	IsDirty  bool
	PinCount int32
	Type     Type
	mu       sync.RWMutex
}

func New(id int64, fileID uint32, typ Type) *Page {
	return &Page{
		ID:     id,
		FileID: fileID,
		Data:   make([]byte, Size),
		Type:   typ,
	}
}

func (p *Page) Lock()    { p.mu.Lock() }
func (p *Page) Unlock()  { p.mu.Unlock() }
func (p *Page) RLock()   { p.mu.RLock() }
func (p *Page) RUnlock() { p.mu.RUnlock() }
