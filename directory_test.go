package ghostfs

import "testing"

func TestCreateAndLookupFile(t *testing.T) {
	fs := newTestFS(t, 4)
	if _, k := fs.createEntry("/hello.txt", false); k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	r, k := fs.lookup("/hello.txt", false)
	if k != KindOK {
		t.Fatalf("lookup: %v", k)
	}
	if r.IsDir() {
		t.Fatal("file should not resolve as a directory")
	}
	if r.Size() != 0 {
		t.Fatalf("fresh file size = %d, want 0", r.Size())
	}
}

func TestCreateEntryRejectsDuplicateName(t *testing.T) {
	fs := newTestFS(t, 4)
	if _, k := fs.createEntry("/a", false); k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	if _, k := fs.createEntry("/a", false); k != KindExists {
		t.Fatalf("createEntry duplicate = %v, want KindExists", k)
	}
}

func TestCreateEntryNestedDirectories(t *testing.T) {
	fs := newTestFS(t, 6)
	if _, k := fs.createEntry("/dir", true); k != KindOK {
		t.Fatalf("createEntry /dir: %v", k)
	}
	if _, k := fs.createEntry("/dir/file.txt", false); k != KindOK {
		t.Fatalf("createEntry /dir/file.txt: %v", k)
	}
	r, k := fs.lookup("/dir/file.txt", false)
	if k != KindOK {
		t.Fatalf("lookup: %v", k)
	}
	if r.IsDir() {
		t.Fatal("nested file resolved as a directory")
	}
}

func TestLookupMissingParentIsNotFound(t *testing.T) {
	fs := newTestFS(t, 4)
	if _, k := fs.lookup("/nope/file.txt", false); k != KindNotFound {
		t.Fatalf("lookup = %v, want KindNotFound", k)
	}
}

func TestLookupThroughFileIsNotADirectory(t *testing.T) {
	fs := newTestFS(t, 4)
	if _, k := fs.createEntry("/plain", false); k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	if _, k := fs.lookup("/plain/child", false); k != KindNotADirectory {
		t.Fatalf("lookup through a file = %v, want KindNotADirectory", k)
	}
}

func TestLookupRoot(t *testing.T) {
	fs := newTestFS(t, 4)
	r, k := fs.lookup("/", false)
	if k != KindOK {
		t.Fatalf("lookup(/): %v", k)
	}
	if !r.IsRoot() || !r.IsDir() {
		t.Fatal("lookup(/) should resolve to the synthetic root")
	}
}

func TestRemoveEntryRejectsNonEmptyDirectory(t *testing.T) {
	fs := newTestFS(t, 6)
	if _, k := fs.createEntry("/dir", true); k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	if _, k := fs.createEntry("/dir/child", false); k != KindOK {
		t.Fatalf("createEntry child: %v", k)
	}
	if k := fs.removeEntry("/dir", true); k != KindNotEmpty {
		t.Fatalf("removeEntry on non-empty dir = %v, want KindNotEmpty", k)
	}
}

func TestRemoveEntryFreesSpaceAndName(t *testing.T) {
	fs := newTestFS(t, 6)
	before := fs.freeClusters
	if _, k := fs.createEntry("/dir", true); k != KindOK {
		t.Fatalf("createEntry: %v", k)
	}
	if k := fs.removeEntry("/dir", true); k != KindOK {
		t.Fatalf("removeEntry: %v", k)
	}
	if fs.freeClusters != before {
		t.Fatalf("freeClusters after removal = %d, want %d", fs.freeClusters, before)
	}
	if _, k := fs.lookup("/dir", false); k != KindNotFound {
		t.Fatalf("lookup after removal = %v, want KindNotFound", k)
	}
}

func TestRemoveEntryRejectsRoot(t *testing.T) {
	fs := newTestFS(t, 4)
	if k := fs.removeEntry("/", true); k != KindInvalid {
		t.Fatalf("removeEntry(/) = %v, want KindInvalid", k)
	}
}

func TestDirectoryCreateAcrossClusterChain(t *testing.T) {
	fs := newTestFS(t, 200)
	for i := 0; i < 80; i++ {
		name := "/f" + string(rune('a'+(i%26))) + string(rune('0'+(i/26)))
		if _, k := fs.createEntry(name, false); k != KindOK {
			t.Fatalf("createEntry(%s) at i=%d: %v", name, i, k)
		}
	}
	d, k := fs.newDirWalker(rootClusterNr)
	if k != KindOK {
		t.Fatalf("newDirWalker: %v", k)
	}
	seen := 0
	if !d.entry().Empty() {
		seen++
	}
	for {
		if k := d.nextUsed(); k != KindOK {
			break
		}
		seen++
	}
	if seen != 80 {
		t.Fatalf("directory walk found %d entries, want 80 (root cluster chained to hold > 65)", seen)
	}
}
