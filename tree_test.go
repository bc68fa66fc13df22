package frep

import "testing"

func TestAccessors(t *testing.T) {
	x := X()
	k := Constant(4)
	sum := Add(x, k)
	defer release(x, k, sum)

	if !sum.IsValid() {
		t.Fatalf("IsValid = false")
	}
	if sum.Op() != OpAdd {
		t.Errorf("Op = %s, want add", sum.Op())
	}
	if sum.Lhs().ID() != x.ID() || sum.Rhs().ID() != k.ID() {
		t.Errorf("children misplaced")
	}
	if v, ok := sum.Value(); ok || v != 0 {
		t.Errorf("Value on non-constant = (%g, %t), want (0, false)", v, ok)
	}
	if v, ok := k.Value(); !ok || v != 4 {
		t.Errorf("Value = (%g, %t), want (4, true)", v, ok)
	}
	if sum.Arg(2).IsValid() {
		t.Errorf("out-of-range Arg is valid")
	}

	var zero Tree
	if zero.IsValid() || zero.Op() != OpInvalid || zero.Size() != 0 {
		t.Errorf("zero Tree misbehaves")
	}
	zero.Release() // no-op
}

func TestOptimizedPipeline(t *testing.T) {
	x, y := X(), Y()
	two, three := Constant(2), Constant(3)
	a := Add(x, two)
	b := Add(x, three)
	sum := Add(a, b)
	defer release(x, y, two, three, a, b, sum)

	// Remap x -> y, then optimize: flatten resolves the substitution and
	// affine collection merges the like terms.
	r, err := sum.Remap(y, y, y)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	defer r.Release()

	opt := r.Optimized()
	defer opt.Release()

	coeff := Constant(2)
	five := Constant(5)
	scaled := Mul(y, coeff)
	want := Add(scaled, five)
	defer release(coeff, five, scaled, want)
	if opt.ID() != want.ID() {
		t.Errorf("optimized form mismatch: got %s over %d nodes", opt.Op(), opt.Size())
	}
	if opt.Flags().Has(FlagHasRemap) {
		t.Errorf("optimized tree still reports FlagHasRemap")
	}
}

func TestOptimizedSlabDistanceField(t *testing.T) {
	z := Z()
	ten, hundred := Constant(10), Constant(100)
	nz := Neg(z)
	a := Sub(z, ten)
	b := Sub(z, hundred)
	m1 := Max(nz, a)
	m2 := Max(nz, b)
	root := Min(m1, m2)
	defer release(z, ten, hundred, nz, a, b, m1, m2, root)

	opt := root.Optimized()
	defer opt.Release()

	// Affine collection rewrites z-k as z+(-k); the shared -z leaf stays a
	// single node on both branches.
	if opt.Op() != OpMin {
		t.Fatalf("root is %s, want min", opt.Op())
	}
	if opt.Lhs().Lhs().ID() != opt.Rhs().Lhs().ID() {
		t.Errorf("shared -z operand duplicated")
	}

	negTen, negHundred := Constant(-10), Constant(-100)
	wa := Add(z, negTen)
	wb := Add(z, negHundred)
	wm1 := Max(nz, wa)
	wm2 := Max(nz, wb)
	want := Min(wm1, wm2)
	defer release(negTen, negHundred, wa, wb, wm1, wm2, want)
	if opt.ID() != want.ID() {
		t.Errorf("optimized form mismatch")
	}
}

func TestRetainReleaseCounts(t *testing.T) {
	k := Constant(11)
	if got := k.RefCount(); got != 1 {
		t.Fatalf("RefCount = %d, want 1", got)
	}
	k2 := k.Retain()
	if got := k.RefCount(); got != 2 {
		t.Errorf("RefCount after Retain = %d, want 2", got)
	}
	if k2.ID() != k.ID() {
		t.Errorf("Retain returned a different node")
	}
	k2.Release()
	if got := k.RefCount(); got != 1 {
		t.Errorf("RefCount after Release = %d, want 1", got)
	}
	k.Release()
}
