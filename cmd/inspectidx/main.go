// inspectidx prints a level-by-level dump of a B+ tree index file.
// Usage: go run ./cmd/inspectidx <path-to.idx>
package main

import (
	"fmt"
	"os"

	"btreeidx/index"
	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <index.idx>\n", os.Args[0])
		os.Exit(1)
	}
	path := os.Args[1]

	disk := diskmanager.New()
	pool, err := bufferpool.New(64, disk)
	if err != nil {
		fmt.Fprintf(os.Stderr, "new buffer pool: %v\n", err)
		os.Exit(1)
	}
	defer disk.CloseAll()

	if err := index.InspectIndexFile(disk, pool, path, 1); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
