package index

import (
	"fmt"
	"io"
	"os"

	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
)

// keyString renders a key for debug output, grounded on the teacher's
// inspect.go formatKey: every variant but StringKey prints via %v
// naturally, and StringKey trims its NUL padding first.
func keyString[K Key](k K) string {
	if sk, ok := any(k).(StringKey); ok {
		return fmt.Sprintf("%q", sk.String())
	}
	return fmt.Sprintf("%v", k)
}

// InspectIndexFile opens filePath through the disk manager (which creates
// the file if it does not exist), trusts its own metadata page for
// relationName/attrByteOffset/attrType, and prints a level-by-level BFS
// dump of every node without writing any page back, mirroring the
// teacher's inspect.go layout for its own tree.
func InspectIndexFile(disk *diskmanager.Manager, pool *bufferpool.Pool, filePath string, fileID uint32) error {
	return InspectIndexFileTo(os.Stdout, disk, pool, filePath, fileID)
}

func InspectIndexFileTo(w io.Writer, disk *diskmanager.Manager, pool *bufferpool.Pool, filePath string, fileID uint32) error {
	if _, err := disk.OpenFileWithID(filePath, fileID); err != nil {
		return fmt.Errorf("inspect: open %s: %w", filePath, err)
	}
	numPages, err := disk.FileSize(fileID)
	if err != nil {
		return err
	}
	for local := int64(0); local < numPages; local++ {
		disk.RegisterPage(fileID, local)
	}

	m, err := readMeta(disk, fileID)
	if err != nil {
		return fmt.Errorf("inspect: read metadata: %w", err)
	}

	fmt.Fprintf(w, "Index file: %s\n", filePath)
	fmt.Fprintf(w, "  relation=%s attrByteOffset=%d attrType=%s rootPageNo=%d\n",
		m.RelationName, m.AttrByteOffset, m.AttrType, m.RootPageNo)

	switch m.AttrType {
	case AttrInt32:
		return dumpTree[int32](w, disk, pool, fileID, m.RootPageNo)
	case AttrFloat64:
		return dumpTree[float64](w, disk, pool, fileID, m.RootPageNo)
	case AttrString10:
		return dumpTree[StringKey](w, disk, pool, fileID, m.RootPageNo)
	default:
		return ErrBadIndexInfo
	}
}

func dumpTree[K Key](w io.Writer, disk *diskmanager.Manager, pool *bufferpool.Pool, fileID uint32, rootLocal int64) error {
	t := &tree[K]{fileID: fileID, disk: disk, pool: pool, rootPageNo: rootLocal}

	queue := []int64{rootLocal}
	level := 0
	for len(queue) > 0 {
		fmt.Fprintf(w, "\n  Level %d:\n", level)
		var next []int64
		for _, local := range queue {
			pg, err := t.fetchPage(local)
			if err != nil {
				fmt.Fprintf(w, "    [page %d] read error: %v\n", local, err)
				continue
			}
			if isLeafPage(pg) {
				leaf := readLeaf[K](pg)
				fmt.Fprintf(w, "    [page %d] LEAF numKeys=%d rightSib=%d\n", local, leaf.NumKeys, leaf.RightSib)
				for i := 0; i < int(leaf.NumKeys); i++ {
					fmt.Fprintf(w, "      %s -> (page=%d slot=%d)\n", keyString(leaf.Keys[i]), leaf.RIDs[i].PageNo, leaf.RIDs[i].SlotNo)
				}
			} else {
				n := readNonLeaf[K](pg)
				keys := make([]string, n.NumKeys)
				for i := range keys {
					keys[i] = keyString(n.Keys[i])
				}
				children := n.Children[:n.NumKeys+1]
				fmt.Fprintf(w, "    [page %d] NONLEAF level=%d keys=%v children=%v\n", local, n.Level, keys, children)
				for _, c := range children {
					if c != 0 {
						next = append(next, c)
					}
				}
			}
			if err := t.unpin(pg, false); err != nil {
				return err
			}
		}
		queue = next
		level++
	}
	return nil
}
