package relation

import (
	"errors"
	"fmt"
)

// ErrEndOfFile is returned by Scanner.Next once every page of the relation
// has been visited. It is an internal control-flow signal, not a surfaced
// error -- callers building an index from a full scan catch it and stop.
var ErrEndOfFile = errors.New("relation: end of file")

// Scanner performs a full sequential scan of a relation, in RID order,
// skipping tombstoned slots.
type Scanner struct {
	rel      *Relation
	numPages int64
	curPage  int64
	curSlot  uint16
}

func (r *Relation) Scan() (*Scanner, error) {
	numPages, err := r.disk.FileSize(r.fileID)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return &Scanner{rel: r, numPages: numPages}, nil
}

// Next returns the next live (record, RID) pair, or ErrEndOfFile when the
// scan is exhausted.
func (s *Scanner) Next() ([]byte, RID, error) {
	for s.curPage < s.numPages {
		pg, err := s.rel.pool.FetchPage(s.rel.disk.GlobalPageID(s.rel.fileID, s.curPage))
		if err != nil {
			return nil, RID{}, fmt.Errorf("scan page %d: %w", s.curPage, err)
		}

		pg.RLock()
		slotCount := getSlotCount(pg)
		for s.curSlot < slotCount {
			idx := s.curSlot
			s.curSlot++
			if !isSlotLive(pg, idx) {
				continue
			}
			rec, err := getRecord(pg, idx)
			pg.RUnlock()
			s.rel.pool.UnpinPage(pg.ID, false)
			if err != nil {
				return nil, RID{}, err
			}
			return rec, RID{PageNo: uint32(s.curPage), SlotNo: idx}, nil
		}
		pg.RUnlock()
		s.rel.pool.UnpinPage(pg.ID, false)

		s.curPage++
		s.curSlot = 0
	}
	return nil, RID{}, ErrEndOfFile
}
