package relation

import (
	"encoding/binary"
	"fmt"

	"btreeidx/storage/page"
)

// Relation pages use the same slotted layout as any heap-organized page:
// records grow forward from the header, the slot directory grows backward
// from the end of the page, and free space is whatever sits between them.
//
//	[ header ][ records -> ][ free space ][ <- slot directory ]
//	0         headerSize    recordEndPtr  slotRegionStart      page.Size
//
// A slot is 4 bytes: offset uint16, length uint16. length == 0 marks a
// tombstone -- the slot stays allocated so existing RIDs keep pointing at
// something (even if Get on it now fails), it is just no longer live.
const (
	offFileID          = 0  // uint32
	offPageNo          = 4  // uint32
	offRecordEndPtr    = 9  // uint16, byte 8 is page.TypeOffset
	offSlotRegionStart = 11 // uint16
	offNumRecords      = 13 // uint16
	offNumRecordsFree  = 15 // uint16
	offIsPageFull      = 17 // uint16
	offSlotCount       = 19 // uint16

	headerSize = 21
	slotSize   = 4
)

func initPage(pg *page.Page, pageNo uint32) {
	for i := range pg.Data {
		pg.Data[i] = 0
	}
	binary.LittleEndian.PutUint32(pg.Data[offFileID:], pg.FileID)
	binary.LittleEndian.PutUint32(pg.Data[offPageNo:], pageNo)
	binary.LittleEndian.PutUint16(pg.Data[offRecordEndPtr:], headerSize)
	binary.LittleEndian.PutUint16(pg.Data[offSlotRegionStart:], page.Size)
	pg.Type = page.TypeRelationData
	pg.IsDirty = true
}

func getRecordEndPtr(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[offRecordEndPtr:]) }
func setRecordEndPtr(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offRecordEndPtr:], v)
}

func getSlotRegionStart(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[offSlotRegionStart:])
}
func setSlotRegionStart(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offSlotRegionStart:], v)
}

func getNumRecords(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[offNumRecords:]) }
func setNumRecords(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offNumRecords:], v)
}

func getNumRecordsFree(pg *page.Page) uint16 {
	return binary.LittleEndian.Uint16(pg.Data[offNumRecordsFree:])
}
func setNumRecordsFree(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offNumRecordsFree:], v)
}

func getIsPageFull(pg *page.Page) bool {
	return binary.LittleEndian.Uint16(pg.Data[offIsPageFull:]) == 1
}
func setIsPageFull(pg *page.Page, full bool) {
	v := uint16(0)
	if full {
		v = 1
	}
	binary.LittleEndian.PutUint16(pg.Data[offIsPageFull:], v)
}

func getSlotCount(pg *page.Page) uint16 { return binary.LittleEndian.Uint16(pg.Data[offSlotCount:]) }
func setSlotCount(pg *page.Page, v uint16) {
	binary.LittleEndian.PutUint16(pg.Data[offSlotCount:], v)
}

func slotByteOffset(i uint16) int {
	return page.Size - (int(i)+1)*slotSize
}

func readSlot(pg *page.Page, i uint16) (offset, length uint16) {
	base := slotByteOffset(i)
	return binary.LittleEndian.Uint16(pg.Data[base:]), binary.LittleEndian.Uint16(pg.Data[base+2:])
}

func writeSlot(pg *page.Page, i uint16, offset, length uint16) {
	base := slotByteOffset(i)
	binary.LittleEndian.PutUint16(pg.Data[base:], offset)
	binary.LittleEndian.PutUint16(pg.Data[base+2:], length)
}

func isSlotLive(pg *page.Page, i uint16) bool {
	if i >= getSlotCount(pg) {
		return false
	}
	offset, length := readSlot(pg, i)
	return offset != 0 && length != 0
}

// freeSpace returns the bytes available for one more record, including the
// slot entry it would consume.
func freeSpace(pg *page.Page) int {
	available := int(getSlotRegionStart(pg)) - int(getRecordEndPtr(pg)) - slotSize
	if available < 0 {
		return 0
	}
	return available
}

// insertRecord writes data at recordEndPtr and appends (or recycles) a slot
// entry for it, returning the slot index.
func insertRecord(pg *page.Page, data []byte) (uint16, error) {
	recordLen := uint16(len(data))
	if recordLen == 0 {
		return 0, fmt.Errorf("insertRecord: record must not be empty")
	}
	if freeSpace(pg) < int(recordLen) {
		return 0, fmt.Errorf("insertRecord: need %d bytes, have %d", recordLen, freeSpace(pg))
	}

	slotIdx := getSlotCount(pg)
	for i := uint16(0); i < getSlotCount(pg); i++ {
		if _, l := readSlot(pg, i); l == 0 {
			slotIdx = i
			break
		}
	}

	offset := getRecordEndPtr(pg)
	copy(pg.Data[offset:], data)
	setRecordEndPtr(pg, offset+recordLen)
	writeSlot(pg, slotIdx, offset, recordLen)

	if slotIdx == getSlotCount(pg) {
		setSlotRegionStart(pg, getSlotRegionStart(pg)-slotSize)
		setSlotCount(pg, getSlotCount(pg)+1)
	} else {
		setNumRecordsFree(pg, getNumRecordsFree(pg)-1)
	}
	setNumRecords(pg, getNumRecords(pg)+1)
	if freeSpace(pg) <= 0 {
		setIsPageFull(pg, true)
	}
	pg.IsDirty = true
	return slotIdx, nil
}

func getRecord(pg *page.Page, slotIdx uint16) ([]byte, error) {
	if slotIdx >= getSlotCount(pg) {
		return nil, fmt.Errorf("getRecord: slot %d out of range (count=%d)", slotIdx, getSlotCount(pg))
	}
	offset, length := readSlot(pg, slotIdx)
	if length == 0 {
		return nil, fmt.Errorf("getRecord: slot %d is a tombstone", slotIdx)
	}
	out := make([]byte, length)
	copy(out, pg.Data[offset:offset+length])
	return out, nil
}
