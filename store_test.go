package frep

import (
	"sync"
	"testing"
)

func TestInterningDedup(t *testing.T) {
	base := DefaultStore().Len()

	a := Constant(5)
	b := Constant(5)
	if a.ID() != b.ID() {
		t.Fatalf("equal constants interned to distinct nodes")
	}
	if got := a.RefCount(); got != 2 {
		t.Errorf("RefCount = %d, want 2", got)
	}
	if got := DefaultStore().Len(); got != base+1 {
		t.Errorf("table grew by %d entries, want 1", got-base)
	}

	x1 := Add(a, b)
	x2 := Add(a, b)
	if x1.ID() != x2.ID() {
		t.Fatalf("structurally equal sums interned to distinct nodes")
	}

	x1.Release()
	x2.Release()
	a.Release()
	b.Release()
	if got := DefaultStore().Len(); got != base {
		t.Errorf("table has %d entries after release, want %d", got, base)
	}
}

func TestAxisSingletons(t *testing.T) {
	x1 := X()
	x2 := X()
	if x1.ID() != x2.ID() {
		t.Fatalf("X() returned distinct nodes")
	}
	if x1.ID() == Y().ID() {
		t.Fatalf("X and Y share a node")
	}
	before := x1.RefCount()
	x1.Release()
	x2.Release()

	// The baseline hold keeps the singleton alive through any number of
	// handle cycles.
	x3 := X()
	defer x3.Release()
	if got := x3.RefCount(); got != before-1 {
		t.Errorf("RefCount = %d, want %d", got, before-1)
	}
	if !x3.Flags().Has(FlagHasXYZ) {
		t.Errorf("axis leaf missing FlagHasXYZ")
	}
}

func TestReleaseRemovesSubtree(t *testing.T) {
	base := DefaultStore().Len()

	x := X()
	k := Constant(3)
	sum := Add(x, k)
	x.Release()
	k.Release()

	// The sum's counted references keep its children alive.
	if got := DefaultStore().Len(); got != base+2 {
		t.Fatalf("table grew by %d entries, want 2", got-base)
	}
	sum.Release()
	if got := DefaultStore().Len(); got != base {
		t.Errorf("table has %d entries after release, want %d", got, base)
	}
	if err := DefaultStore().CheckIntegrity(); err != nil {
		t.Errorf("CheckIntegrity: %v", err)
	}
}

func TestDeepChainTeardown(t *testing.T) {
	base := DefaultStore().Len()
	const depth = 50000

	one := Constant(1)
	acc := X()
	for i := 0; i < depth; i++ {
		next := Add(acc, one)
		acc.Release()
		acc = next
	}
	one.Release()

	// Releasing the root must tear down the whole chain without recursing.
	acc.Release()
	if got := DefaultStore().Len(); got != base {
		t.Errorf("table has %d entries after teardown, want %d", got, base)
	}
}

func TestConcurrentConstruction(t *testing.T) {
	base := DefaultStore().Len()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 2000; i++ {
				x := X()
				k := Constant(float64(i % 10))
				sum := Add(x, k)
				sq := Square(sum)
				sq.Release()
				sum.Release()
				k.Release()
				x.Release()
			}
		}(g)
	}
	wg.Wait()

	if got := DefaultStore().Len(); got != base {
		t.Errorf("table has %d entries after concurrent churn, want %d", got, base)
	}
	if err := DefaultStore().CheckIntegrity(); err != nil {
		t.Errorf("CheckIntegrity: %v", err)
	}
}

func TestConcurrentRescue(t *testing.T) {
	// Hammers the remove/re-intern race on a single key: a releasing
	// goroutine may reach zero while another interns the same constant.
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 5000; i++ {
				c := Constant(7)
				c.Release()
			}
		}()
	}
	wg.Wait()

	if err := DefaultStore().CheckIntegrity(); err != nil {
		t.Errorf("CheckIntegrity: %v", err)
	}
}

func TestFreeVariablesNeverMerge(t *testing.T) {
	a := Var()
	defer a.Release()
	b := Var()
	defer b.Release()
	if a.ID() == b.ID() {
		t.Fatalf("distinct Var() calls produced the same node")
	}
	if !a.Flags().Has(FlagHasVar) {
		t.Errorf("free variable missing FlagHasVar")
	}
}
