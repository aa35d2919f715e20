// buildindex creates a relation of fixed-width int32 records, inserts a
// run of sample rows, and builds a B+ tree secondary index over them.
// Run: go run ./cmd/buildindex <dir>
package main

import (
	"fmt"
	"log"
	"os"

	"btreeidx/index"
	"btreeidx/relation"
	"btreeidx/storage/bufferpool"
	"btreeidx/storage/diskmanager"
)

func main() {
	dir := "databases/sample"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatalf("mkdir %s: %v", dir, err)
	}

	disk := diskmanager.New()
	pool, err := bufferpool.New(64, disk)
	if err != nil {
		log.Fatalf("new buffer pool: %v", err)
	}
	defer disk.CloseAll()

	rel, err := relation.Create(dir, 1, 4, disk, pool)
	if err != nil {
		log.Fatalf("create relation: %v", err)
	}

	const n = 1000
	fmt.Printf("Inserting %d records into the relation...\n", n)
	for i := 1; i <= n; i++ {
		buf := make([]byte, 4)
		buf[0] = byte(i)
		buf[1] = byte(i >> 8)
		buf[2] = byte(i >> 16)
		buf[3] = byte(i >> 24)
		if _, err := rel.Insert(buf); err != nil {
			log.Fatalf("insert record %d: %v", i, err)
		}
	}

	idx, created, err := index.NewBTreeIndex(dir, "sample", 0, index.AttrInt32, 2, disk, pool)
	if err != nil {
		log.Fatalf("new index: %v", err)
	}
	if created {
		fmt.Println("Building index from the relation scan...")
		if err := idx.BuildFromRelation(rel); err != nil {
			log.Fatalf("build index: %v", err)
		}
	} else {
		fmt.Println("Reopened an existing index; skipping build.")
	}

	if err := idx.StartScan(int32(1), index.GTE, int32(n), index.LTE); err != nil {
		log.Fatalf("start scan: %v", err)
	}
	count := 0
	for {
		if _, err := idx.ScanNext(); err != nil {
			if err == index.ErrIndexScanCompleted {
				break
			}
			log.Fatalf("scan next: %v", err)
		}
		count++
	}
	idx.EndScan()
	fmt.Printf("Scan confirmed %d entries in ascending key order.\n", count)

	fmt.Printf("Index file kept at: %s\n", dir+"/sample_0.idx")

	if err := idx.Destroy(false); err != nil {
		log.Fatalf("destroy index: %v", err)
	}
	if err := rel.Close(); err != nil {
		log.Fatalf("close relation: %v", err)
	}
}
