package ghostfs

import (
	"bytes"
	"testing"
)

func TestTruncateGrowZeroesAndAllocates(t *testing.T) {
	fs := newTestFS(t, 10)
	r, k := fs.createEntry("/f", false)
	if k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	if k := fs.truncate(&r, 100); k != KindOK {
		t.Fatalf("truncate: %v", k)
	}
	if r.Size() != 100 {
		t.Fatalf("size = %d, want 100", r.Size())
	}
	if r.Cluster() == 0 {
		t.Fatal("growing past size 0 should allocate a cluster")
	}
	buf := make([]byte, 100)
	n, k := fs.readFile(r, buf, 0)
	if k != KindOK {
		t.Fatalf("readFile: %v", k)
	}
	if n != 100 {
		t.Fatalf("read %d bytes, want 100", n)
	}
	for _, b := range buf {
		if b != 0 {
			t.Fatal("grown region should read back as zero")
		}
	}
}

func TestTruncateShrinkFreesClusters(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/f", false)
	if k := fs.truncate(&r, 10000); k != KindOK { // 3 clusters (ceil(10000/4092))
		t.Fatalf("truncate grow: %v", k)
	}
	before := fs.freeClusters
	if k := fs.truncate(&r, 100); k != KindOK { // 1 cluster
		t.Fatalf("truncate shrink: %v", k)
	}
	if fs.freeClusters != before+2 {
		t.Fatalf("freeClusters = %d, want %d", fs.freeClusters, before+2)
	}
	if r.Size() != 100 {
		t.Fatalf("size = %d, want 100", r.Size())
	}
}

func TestTruncateToZeroClearsCluster(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/f", false)
	if k := fs.truncate(&r, 50); k != KindOK {
		t.Fatalf("truncate: %v", k)
	}
	if k := fs.truncate(&r, 0); k != KindOK {
		t.Fatalf("truncate to 0: %v", k)
	}
	if r.Cluster() != 0 {
		t.Fatal("truncating to 0 should clear the starting cluster")
	}
}

func TestTruncateRejectsDirectory(t *testing.T) {
	fs := newTestFS(t, 4)
	r, _ := fs.createEntry("/d", true)
	if k := fs.truncate(&r, 10); k != KindIsADirectory {
		t.Fatalf("truncate on directory = %v, want KindIsADirectory", k)
	}
}

func TestWriteReadAcrossClusterChain(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/big", false)
	data := bytes.Repeat([]byte("0123456789"), 1000) // 10000 bytes, spans 3 clusters
	n, k := fs.writeFile(&r, data, 0)
	if k != KindOK {
		t.Fatalf("writeFile: %v", k)
	}
	if n != len(data) {
		t.Fatalf("wrote %d bytes, want %d", n, len(data))
	}
	if r.Size() != uint32(len(data)) {
		t.Fatalf("size = %d, want %d", r.Size(), len(data))
	}

	buf := make([]byte, len(data))
	n, k = fs.readFile(r, buf, 0)
	if k != KindOK {
		t.Fatalf("readFile: %v", k)
	}
	if n != len(data) || !bytes.Equal(buf, data) {
		t.Fatal("read back data does not match what was written")
	}
}

func TestWriteAtOffsetExtendsFile(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/f", false)
	if _, k := fs.writeFile(&r, []byte("hello"), 0); k != KindOK {
		t.Fatalf("writeFile: %v", k)
	}
	if _, k := fs.writeFile(&r, []byte("world"), 10); k != KindOK {
		t.Fatalf("writeFile at offset: %v", k)
	}
	if r.Size() != 15 {
		t.Fatalf("size = %d, want 15", r.Size())
	}
	buf := make([]byte, 15)
	if _, k := fs.readFile(r, buf, 0); k != KindOK {
		t.Fatalf("readFile: %v", k)
	}
	want := append([]byte("hello"), []byte{0, 0, 0, 0, 0}...)
	want = append(want, []byte("world")...)
	if !bytes.Equal(buf, want) {
		t.Fatalf("readback = %q, want %q", buf, want)
	}
}

func TestReadPastEndOfFileReturnsZero(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/f", false)
	fs.writeFile(&r, []byte("abc"), 0)
	buf := make([]byte, 10)
	n, k := fs.readFile(r, buf, 100)
	if k != KindOK {
		t.Fatalf("readFile: %v", k)
	}
	if n != 0 {
		t.Fatalf("read %d bytes past EOF, want 0", n)
	}
}

func TestRenameMovesFileContents(t *testing.T) {
	fs := newTestFS(t, 10)
	r, _ := fs.createEntry("/old", false)
	fs.writeFile(&r, []byte("payload"), 0)

	if k := fs.rename("/old", "/new"); k != KindOK {
		t.Fatalf("rename: %v", k)
	}
	if _, k := fs.lookup("/old", false); k != KindNotFound {
		t.Fatalf("lookup(/old) after rename = %v, want KindNotFound", k)
	}
	nr, k := fs.lookup("/new", false)
	if k != KindOK {
		t.Fatalf("lookup(/new): %v", k)
	}
	if nr.Size() != 7 {
		t.Fatalf("renamed file size = %d, want 7", nr.Size())
	}
	buf := make([]byte, 7)
	fs.readFile(nr, buf, 0)
	if string(buf) != "payload" {
		t.Fatalf("renamed file contents = %q, want payload", buf)
	}
}

func TestRenameRejectsRoot(t *testing.T) {
	fs := newTestFS(t, 4)
	if k := fs.rename("/", "/new"); k != KindInvalid {
		t.Fatalf("rename(/) = %v, want KindInvalid", k)
	}
}

func TestRenameOntoDirectoryFails(t *testing.T) {
	fs := newTestFS(t, 6)
	fs.createEntry("/src", false)
	fs.createEntry("/dst", true)
	if k := fs.rename("/src", "/dst"); k != KindIsADirectory {
		t.Fatalf("rename onto directory = %v, want KindIsADirectory", k)
	}
}
