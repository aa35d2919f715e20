package diskmanager

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"btreeidx/storage/page"
)

func newTestFile(t *testing.T, name string) (*Manager, uint32, string) {
	t.Helper()
	dir := filepath.Join(os.TempDir(), "diskmanager_test_"+name)
	os.RemoveAll(dir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	filePath := filepath.Join(dir, "test.dat")
	dm := New()
	fileID, err := dm.OpenFileWithID(filePath, 1)
	if err != nil {
		t.Fatalf("open file: %v", err)
	}
	return dm, fileID, filePath
}

func TestAllocateWriteReadRoundTrip(t *testing.T) {
	dm, fileID, _ := newTestFile(t, "roundtrip")

	globalID, err := dm.AllocatePage(fileID, page.TypeRelationData)
	if err != nil {
		t.Fatalf("allocate: %v", err)
	}
	if dm.LocalPageID(globalID) != 0 {
		t.Errorf("first allocated page should be local 0, got %d", dm.LocalPageID(globalID))
	}

	pg := page.New(globalID, fileID, page.TypeRelationData)
	copy(pg.Data[page.TypeOffset+1:], []byte("payload"))
	if err := dm.WritePage(pg); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := dm.ReadPage(globalID)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got.Type != page.TypeRelationData {
		t.Errorf("type not preserved across write/read: got %v", got.Type)
	}
	if !bytes.Equal(got.Data[page.TypeOffset+1:page.TypeOffset+8], []byte("payload")) {
		t.Errorf("payload bytes not preserved across write/read")
	}
}

func TestGlobalPageIDEncodesFileAndLocal(t *testing.T) {
	dm := New()
	got := dm.GlobalPageID(7, 42)
	if dm.LocalPageID(got) != 42 {
		t.Errorf("LocalPageID(GlobalPageID(7, 42)) = %d, want 42", dm.LocalPageID(got))
	}
	if uint32(got>>32) != 7 {
		t.Errorf("fileID bits = %d, want 7", uint32(got>>32))
	}
}

func TestAllocatePageNumbersIncreaseSequentially(t *testing.T) {
	dm, fileID, _ := newTestFile(t, "sequential")

	var locals []int64
	for i := 0; i < 5; i++ {
		g, err := dm.AllocatePage(fileID, page.TypeIndexNode)
		if err != nil {
			t.Fatalf("allocate %d: %v", i, err)
		}
		locals = append(locals, dm.LocalPageID(g))
	}
	for i, l := range locals {
		if l != int64(i) {
			t.Errorf("allocation %d got local page %d, want %d", i, l, i)
		}
	}
}

func TestReopenReplaysFileSize(t *testing.T) {
	dm, fileID, filePath := newTestFile(t, "reopen")

	for i := 0; i < 3; i++ {
		g, err := dm.AllocatePage(fileID, page.TypeRelationData)
		if err != nil {
			t.Fatalf("allocate: %v", err)
		}
		pg := page.New(g, fileID, page.TypeRelationData)
		if err := dm.WritePage(pg); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := dm.CloseFile(fileID); err != nil {
		t.Fatalf("close: %v", err)
	}

	dm2 := New()
	reopenedID, err := dm2.OpenFileWithID(filePath, 1)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	size, err := dm2.FileSize(reopenedID)
	if err != nil {
		t.Fatalf("file size: %v", err)
	}
	if size != 3 {
		t.Errorf("reopened file size = %d pages, want 3", size)
	}
}

func TestRemoveFileDeletesBackingFile(t *testing.T) {
	dm, fileID, filePath := newTestFile(t, "remove")

	if err := dm.RemoveFile(fileID, filePath); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := os.Stat(filePath); !os.IsNotExist(err) {
		t.Errorf("expected backing file to be gone, stat err = %v", err)
	}
	if dm.Exists(filePath) {
		t.Errorf("Exists reported true for a removed file")
	}
}

func TestWriteReadMetadata(t *testing.T) {
	dm, fileID, _ := newTestFile(t, "metadata")

	meta := []byte("fixed-size-metadata-blob")
	if err := dm.WriteMetadata(fileID, meta); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	got, err := dm.ReadMetadata(fileID)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if !bytes.Equal(got[:len(meta)], meta) {
		t.Errorf("metadata round trip mismatch: got %q, want %q", got[:len(meta)], meta)
	}
}
