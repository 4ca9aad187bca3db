package lcfs

import (
	"encoding/binary"
	"testing"
)

func TestBuildDirentBlockSortedAndPacked(t *testing.T) {
	root := dirNode()
	b := fileNode()
	a := fileNode()
	root.AddChild(b, "banana")
	root.AddChild(a, "apple")

	if _, err := canonicalize(root); err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	data, err := buildDirentBlock(root)
	if err != nil {
		t.Fatalf("buildDirentBlock: %v", err)
	}

	count := binary.LittleEndian.Uint32(data[0:4])
	if count != 2 {
		t.Fatalf("count = %d, want 2", count)
	}

	rec0 := data[dirHeaderSize : dirHeaderSize+direntSize]
	nameLen := rec0[5]
	nameOff := binary.LittleEndian.Uint32(rec0[6:10])
	namesStart := dirHeaderSize + direntSize*2
	name := string(data[namesStart+int(nameOff) : namesStart+int(nameOff)+int(nameLen)])
	if name != "apple" {
		t.Fatalf("first dirent name = %q, want apple (sorted order)", name)
	}
}

func TestBuildDirentBlockRejectsLongName(t *testing.T) {
	root := dirNode()
	child := fileNode()
	name := make([]byte, MaxNameLength+1)
	for i := range name {
		name[i] = 'x'
	}
	root.children = append(root.children, child)
	child.name = string(name)

	if _, err := buildDirentBlock(root); err != ErrNameTooLong {
		t.Fatalf("buildDirentBlock = %v, want ErrNameTooLong", err)
	}
}

func TestComputeVariableDataSkipsEmptyFilePayload(t *testing.T) {
	root := dirNode()
	f := fileNode()
	f.SetPayload("ignored-because-size-zero")
	f.SetSize(0)
	root.AddChild(f, "empty")

	order, err := canonicalize(root)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	a := newArena()
	if err := computeVariableData(a, order); err != nil {
		t.Fatalf("computeVariableData: %v", err)
	}

	if f.variable.Len != 0 {
		t.Fatalf("empty file got a variable-data reference: %+v", f.variable)
	}
}

func TestComputeVariableDataDedupsIdenticalPayloads(t *testing.T) {
	root := dirNode()
	f1 := fileNode()
	f1.SetPayload("identical content")
	f1.SetSize(uint64(len("identical content")))
	f2 := fileNode()
	f2.SetPayload("identical content")
	f2.SetSize(uint64(len("identical content")))
	root.AddChild(f1, "f1")
	root.AddChild(f2, "f2")

	order, err := canonicalize(root)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	a := newArena()
	if err := computeVariableData(a, order); err != nil {
		t.Fatalf("computeVariableData: %v", err)
	}

	if f1.variable != f2.variable {
		t.Fatalf("identical payloads not deduped: f1=%+v f2=%+v", f1.variable, f2.variable)
	}
}

func TestComputeXattrsSortedByKey(t *testing.T) {
	root := dirNode()
	root.SetXattr("user.z", []byte("1"))
	root.SetXattr("user.a", []byte("22"))

	order, err := canonicalize(root)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	a := newArena()
	if err := computeXattrs(a, order); err != nil {
		t.Fatalf("computeXattrs: %v", err)
	}

	if root.xattrData.Len == 0 {
		t.Fatalf("root.xattrData not populated")
	}

	buf := a.bytes()[root.xattrData.Off : root.xattrData.Off+uint64(root.xattrData.Len)]
	count := binary.LittleEndian.Uint16(buf[0:2])
	if count != 2 {
		t.Fatalf("xattr count = %d, want 2", count)
	}

	firstKeyLen := binary.LittleEndian.Uint16(buf[xattrHeaderSize : xattrHeaderSize+2])
	dataStart := xattrHeaderSize + xattrEntrySize*2
	firstKey := string(buf[dataStart : dataStart+int(firstKeyLen)])
	if firstKey != "user.a" {
		t.Fatalf("first xattr key = %q, want user.a (sorted order)", firstKey)
	}
}

func TestComputeXattrsSortedByKeyOnRegularFile(t *testing.T) {
	root := dirNode()
	f := fileNode()
	root.AddChild(f, "f")
	f.SetXattr("user.z", []byte("1"))
	f.SetXattr("user.a", []byte("22"))

	order, err := canonicalize(root)
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}

	a := newArena()
	if err := computeXattrs(a, order); err != nil {
		t.Fatalf("computeXattrs: %v", err)
	}

	buf := a.bytes()[f.xattrData.Off : f.xattrData.Off+uint64(f.xattrData.Len)]
	firstKeyLen := binary.LittleEndian.Uint16(buf[xattrHeaderSize : xattrHeaderSize+2])
	dataStart := xattrHeaderSize + xattrEntrySize*2
	firstKey := string(buf[dataStart : dataStart+int(firstKeyLen)])
	if firstKey != "user.a" {
		t.Fatalf("first xattr key on file = %q, want user.a (sorted order)", firstKey)
	}
}
