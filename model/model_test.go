package model

import "testing"

func TestFileEqualComparesIDOnly(t *testing.T) {
	a := File{ID: 7, Size: 1024}
	b := File{ID: 7, Size: 4096}
	if !a.Equal(b) {
		t.Fatalf("files with same id should be equal: %+v vs %+v", a, b)
	}
	if a.Equal(File{ID: 8, Size: 1024}) {
		t.Fatalf("files with different ids should not be equal")
	}
}

func TestNewContactCanonicalOrder(t *testing.T) {
	c := NewContact(9, 3)
	if c.A != 3 || c.B != 9 {
		t.Fatalf("NewContact(9, 3) = (%d, %d), want (3, 9)", c.A, c.B)
	}
	if peer, ok := c.Peer(9); !ok || peer != 3 {
		t.Fatalf("Peer(9) = %d, %v; want 3, true", peer, ok)
	}
	if _, ok := c.Peer(4); ok {
		t.Fatalf("Peer(4) should report false for a non-endpoint")
	}
}

func TestNodeOwnedFilesSorted(t *testing.T) {
	n := NewNode(1)
	for _, id := range []int{5, 2, 9} {
		n.Files[id] = File{ID: id, Size: int64(id)}
	}
	got := n.OwnedFiles()
	if len(got) != 3 || got[0].ID != 2 || got[1].ID != 5 || got[2].ID != 9 {
		t.Fatalf("OwnedFiles() = %+v, want ids [2 5 9]", got)
	}
	if !n.HasFile(5) || n.HasFile(3) {
		t.Fatalf("HasFile mismatch for inventory %+v", n.Files)
	}
}

func TestRectangleContains(t *testing.T) {
	r := Rectangle{MinX: -100, MaxX: 100, MinY: -100, MaxY: 100}
	if !r.Valid() {
		t.Fatalf("expected rectangle to be valid")
	}
	if !r.Contains(Vec2{X: 100, Y: -100}) {
		t.Fatalf("corner should be inside")
	}
	if r.Contains(Vec2{X: 100.01, Y: 0}) {
		t.Fatalf("point beyond MaxX should be outside")
	}
	if (Rectangle{MinX: 1, MaxX: 0}).Valid() {
		t.Fatalf("inverted rectangle should be invalid")
	}
}
