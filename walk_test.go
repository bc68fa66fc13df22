package frep

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func opSequence(t Tree) []string {
	var ops []string
	w := t.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		ops = append(ops, cur.Op().String())
	}
	return ops
}

func TestWalkPostOrder(t *testing.T) {
	x, y := X(), Y()
	k := Constant(2)
	sum := Add(x, k)
	root := Min(sum, y)
	defer release(x, y, k, sum, root)

	got := opSequence(root)
	want := []string{"var-x", "const", "add", "var-y", "min"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkVisitsSharedSubtreeOnce(t *testing.T) {
	x := X()
	k := Constant(1)
	sum := Add(x, k)
	sq := Square(sum)
	// Mul(a, a) does not collapse at construction, so the root has the same
	// node on both sides; the walk must still emit it once.
	root := Mul(sq, sq)
	defer release(x, k, sum, sq, root)
	got := opSequence(root)
	want := []string{"var-x", "const", "add", "square", "mul"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkParentsAfterChildren(t *testing.T) {
	x, y, z := X(), Y(), Z()
	a := Add(x, y)
	b := Mul(a, z)
	c := Sub(b, a) // a is shared below two parents at different depths
	defer release(x, y, z, a, b, c)

	pos := make(map[ID]int)
	i := 0
	w := c.Walk()
	for cur, ok := w.Next(); ok; cur, ok = w.Next() {
		for j := 0; j < cur.Op().Args(); j++ {
			kid := cur.Arg(j)
			if _, seen := pos[kid.ID()]; !seen {
				t.Fatalf("node %s emitted before its child %s", cur.Op(), kid.Op())
			}
		}
		pos[cur.ID()] = i
		i++
	}
	if i != 6 {
		t.Errorf("walked %d nodes, want 6", i)
	}
}

func TestSize(t *testing.T) {
	x := X()
	k := Constant(1)
	sum := Add(x, k)
	root := Mul(sum, sum)
	defer release(x, k, sum, root)

	if got := root.Size(); got != 4 {
		t.Errorf("Size = %d, want 4 (shared operand counted once)", got)
	}
	if got := (Tree{}).Size(); got != 0 {
		t.Errorf("Size of invalid tree = %d, want 0", got)
	}
}
