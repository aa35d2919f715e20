package index

import "btreeidx/storage/page"

// On-disk sizes of the fixed-width fields making up a node. Children and
// the right-sibling pointer are stored as local (within-file) page numbers,
// 8 bytes each; RIDs are (uint32 page, uint16 slot), 6 bytes.
const (
	ridSize        = 6
	childSize      = 8
	leafHeaderSize = 4 + childSize // numKeys int32 + rightSib pageNo
	innerHeaderSize = 4 + 4        // level int32 + numKeys int32
)

func sizeOfKey[K Key]() int {
	var zero K
	switch any(zero).(type) {
	case int32:
		return 4
	case float64:
		return 8
	case StringKey:
		return 10
	default:
		panic("index: unreachable key variant")
	}
}

// leafCapacity is the maximum number of (key, RID) entries a leaf holds.
// The node is written starting at payloadOffset, so:
// payloadOffset + leafHeaderSize + leafCap*(keySize+ridSize) <= page.Size.
func leafCapacity[K Key]() int {
	keySize := sizeOfKey[K]()
	return (page.Size - payloadOffset - leafHeaderSize) / (keySize + ridSize)
}

// innerCapacity is the maximum number of separator keys a non-leaf holds;
// it has innerCap+1 children and is written starting at payloadOffset, so:
// payloadOffset + innerHeaderSize + innerCap*(keySize+childSize) + childSize <= page.Size.
func innerCapacity[K Key]() int {
	keySize := sizeOfKey[K]()
	return (page.Size - payloadOffset - innerHeaderSize - childSize) / (keySize + childSize)
}
