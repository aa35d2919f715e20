package index

import (
	"encoding/binary"
	"math"

	"btreeidx/relation"
	"btreeidx/storage/page"
)

// Every node page reserves byte page.TypeOffset for the buffer manager's
// own stamp and the following byte for a leaf/non-leaf self-description
// tag, so a page can be classified by an inspection tool without tree
// context. Descent itself never needs the tag -- it knows from the parent's
// level whether the child it is about to follow is a leaf.
const (
	nodeKindOffset = page.TypeOffset + 1
	payloadOffset  = nodeKindOffset + 1

	nodeKindNonLeaf = 0
	nodeKindLeaf    = 1
)

// LeafNode holds up to leafCapacity[K]() (key, RID) pairs in ascending key
// order, plus the page number of the next leaf in the sibling chain.
type LeafNode[K Key] struct {
	NumKeys  int32
	Keys     []K
	RIDs     []relation.RID
	RightSib int64
}

func newLeafNode[K Key]() *LeafNode[K] {
	cap := leafCapacity[K]()
	return &LeafNode[K]{
		Keys: make([]K, cap),
		RIDs: make([]relation.RID, cap),
	}
}

// NonLeafNode holds up to innerCapacity[K]() separator keys and exactly one
// more child pointer than it has keys. Level 0 marks the degenerate
// placeholder root whose children are leaves (or the single sentinel-0
// child before the first insert).
type NonLeafNode[K Key] struct {
	Level    int32
	NumKeys  int32
	Keys     []K
	Children []int64
}

func newNonLeafNode[K Key]() *NonLeafNode[K] {
	cap := innerCapacity[K]()
	return &NonLeafNode[K]{
		Keys:     make([]K, cap),
		Children: make([]int64, cap+1),
	}
}

func putKey[K Key](buf []byte, k K) {
	switch v := any(k).(type) {
	case int32:
		binary.LittleEndian.PutUint32(buf, uint32(v))
	case float64:
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
	case StringKey:
		copy(buf, v[:])
	default:
		panic("index: unreachable key variant")
	}
}

func getKey[K Key](buf []byte) K {
	var zero K
	switch any(zero).(type) {
	case int32:
		v := int32(binary.LittleEndian.Uint32(buf))
		return any(v).(K)
	case float64:
		v := math.Float64frombits(binary.LittleEndian.Uint64(buf))
		return any(v).(K)
	case StringKey:
		var sk StringKey
		copy(sk[:], buf[:10])
		return any(sk).(K)
	default:
		panic("index: unreachable key variant")
	}
}

func putRID(buf []byte, r relation.RID) {
	binary.LittleEndian.PutUint32(buf, r.PageNo)
	binary.LittleEndian.PutUint16(buf[4:], r.SlotNo)
}

func getRID(buf []byte) relation.RID {
	return relation.RID{
		PageNo: binary.LittleEndian.Uint32(buf),
		SlotNo: binary.LittleEndian.Uint16(buf[4:]),
	}
}

// writeLeaf serializes n into pg's payload region.
func writeLeaf[K Key](pg *page.Page, n *LeafNode[K]) {
	keySize := sizeOfKey[K]()
	cap := len(n.Keys)

	pg.Data[nodeKindOffset] = nodeKindLeaf
	binary.LittleEndian.PutUint32(pg.Data[payloadOffset:], uint32(n.NumKeys))
	binary.LittleEndian.PutUint64(pg.Data[payloadOffset+4:], uint64(n.RightSib))

	keysOff := payloadOffset + leafHeaderSize
	ridsOff := keysOff + cap*keySize
	for i := 0; i < cap; i++ {
		putKey(pg.Data[keysOff+i*keySize:], n.Keys[i])
		putRID(pg.Data[ridsOff+i*ridSize:], n.RIDs[i])
	}
	pg.IsDirty = true
}

func readLeaf[K Key](pg *page.Page) *LeafNode[K] {
	n := newLeafNode[K]()
	keySize := sizeOfKey[K]()
	cap := len(n.Keys)

	n.NumKeys = int32(binary.LittleEndian.Uint32(pg.Data[payloadOffset:]))
	n.RightSib = int64(binary.LittleEndian.Uint64(pg.Data[payloadOffset+4:]))

	keysOff := payloadOffset + leafHeaderSize
	ridsOff := keysOff + cap*keySize
	for i := 0; i < cap; i++ {
		n.Keys[i] = getKey[K](pg.Data[keysOff+i*keySize:])
		n.RIDs[i] = getRID(pg.Data[ridsOff+i*ridSize:])
	}
	return n
}

func writeNonLeaf[K Key](pg *page.Page, n *NonLeafNode[K]) {
	keySize := sizeOfKey[K]()
	keyCap := len(n.Keys)

	pg.Data[nodeKindOffset] = nodeKindNonLeaf
	binary.LittleEndian.PutUint32(pg.Data[payloadOffset:], uint32(n.Level))
	binary.LittleEndian.PutUint32(pg.Data[payloadOffset+4:], uint32(n.NumKeys))

	keysOff := payloadOffset + innerHeaderSize
	childrenOff := keysOff + keyCap*keySize
	for i := 0; i < keyCap; i++ {
		putKey(pg.Data[keysOff+i*keySize:], n.Keys[i])
	}
	for i := 0; i < len(n.Children); i++ {
		binary.LittleEndian.PutUint64(pg.Data[childrenOff+i*childSize:], uint64(n.Children[i]))
	}
	pg.IsDirty = true
}

func readNonLeaf[K Key](pg *page.Page) *NonLeafNode[K] {
	n := newNonLeafNode[K]()
	keySize := sizeOfKey[K]()
	keyCap := len(n.Keys)

	n.Level = int32(binary.LittleEndian.Uint32(pg.Data[payloadOffset:]))
	n.NumKeys = int32(binary.LittleEndian.Uint32(pg.Data[payloadOffset+4:]))

	keysOff := payloadOffset + innerHeaderSize
	childrenOff := keysOff + keyCap*keySize
	for i := 0; i < keyCap; i++ {
		n.Keys[i] = getKey[K](pg.Data[keysOff+i*keySize:])
	}
	for i := 0; i < len(n.Children); i++ {
		n.Children[i] = int64(binary.LittleEndian.Uint64(pg.Data[childrenOff+i*childSize:]))
	}
	return n
}

// isLeafPage reports the self-description tag of a fetched node page.
func isLeafPage(pg *page.Page) bool {
	return pg.Data[nodeKindOffset] == nodeKindLeaf
}
