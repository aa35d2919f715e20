package index

import (
	"encoding/binary"
	"fmt"

	"btreeidx/storage/diskmanager"
)

const relationNameSize = 32

// metaInfo is the page-1 (local page 0, written through the disk manager's
// direct metadata path rather than the buffer pool) header of an index
// file: relation name, attribute byte offset, key variant tag, and the
// current root's page number.
type metaInfo struct {
	RelationName   string
	AttrByteOffset int32
	AttrType       AttrType
	RootPageNo     int64
}

func (m metaInfo) encode() []byte {
	buf := make([]byte, relationNameSize+4+1+8)
	copy(buf[:relationNameSize], m.RelationName)
	binary.LittleEndian.PutUint32(buf[relationNameSize:], uint32(m.AttrByteOffset))
	buf[relationNameSize+4] = byte(m.AttrType)
	binary.LittleEndian.PutUint64(buf[relationNameSize+5:], uint64(m.RootPageNo))
	return buf
}

func decodeMeta(buf []byte) (metaInfo, error) {
	if len(buf) < relationNameSize+4+1+8 {
		return metaInfo{}, fmt.Errorf("index: truncated metadata page")
	}
	name := buf[:relationNameSize]
	n := 0
	for n < len(name) && name[n] != 0 {
		n++
	}
	return metaInfo{
		RelationName:   string(name[:n]),
		AttrByteOffset: int32(binary.LittleEndian.Uint32(buf[relationNameSize:])),
		AttrType:       AttrType(buf[relationNameSize+4]),
		RootPageNo:     int64(binary.LittleEndian.Uint64(buf[relationNameSize+5:])),
	}, nil
}

func writeMeta(disk *diskmanager.Manager, fileID uint32, m metaInfo) error {
	return disk.WriteMetadata(fileID, m.encode())
}

func readMeta(disk *diskmanager.Manager, fileID uint32) (metaInfo, error) {
	buf, err := disk.ReadMetadata(fileID)
	if err != nil {
		return metaInfo{}, err
	}
	return decodeMeta(buf)
}
