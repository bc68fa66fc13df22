package eval

import (
	"math"
	"testing"

	"github.com/spatialkit/frep"
)

func TestPoint(t *testing.T) {
	x, y, z := frep.X(), frep.Y(), frep.Z()
	defer x.Release()
	defer y.Release()
	defer z.Release()

	tests := []struct {
		name    string
		build   func() frep.Tree
		px, py  float64
		pz      float64
		want    float64
	}{
		{"axis", func() frep.Tree { return frep.X() }, 3, 0, 0, 3},
		{"constant", func() frep.Tree { return frep.Constant(7) }, 1, 2, 3, 7},
		{"sum", func() frep.Tree { return frep.Add(x, y) }, 2, 5, 0, 7},
		{"circle", func() frep.Tree {
			sx := frep.Square(x)
			defer sx.Release()
			sy := frep.Square(y)
			defer sy.Release()
			sum := frep.Add(sx, sy)
			defer sum.Release()
			r := frep.Sqrt(sum)
			defer r.Release()
			one := frep.Constant(1)
			defer one.Release()
			return frep.Sub(r, one)
		}, 3, 4, 0, 4},
		{"min", func() frep.Tree { return frep.Min(x, z) }, 2, 0, -1, -1},
		{"mod", func() frep.Tree {
			k := frep.Constant(3)
			defer k.Release()
			return frep.Mod(x, k)
		}, 7, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := tt.build()
			defer tr.Release()
			got, err := Point(tr, tt.px, tt.py, tt.pz)
			if err != nil {
				t.Fatalf("Point: %v", err)
			}
			if got != tt.want {
				t.Errorf("Point = %g, want %g", got, tt.want)
			}
		})
	}
}

func TestPointSharedSubtree(t *testing.T) {
	x := frep.X()
	defer x.Release()
	one := frep.Constant(1)
	defer one.Release()
	a := frep.Add(x, one)
	defer a.Release()
	prod := frep.Mul(a, a)
	defer prod.Release()

	got, err := Point(prod, 2, 0, 0)
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if got != 9 {
		t.Errorf("Point = %g, want 9", got)
	}
}

func TestPointResolvesRemap(t *testing.T) {
	x, y := frep.X(), frep.Y()
	defer x.Release()
	defer y.Release()
	one := frep.Constant(1)
	defer one.Release()
	body := frep.Add(x, one)
	defer body.Release()

	r, err := body.Remap(y, y, y)
	if err != nil {
		t.Fatalf("Remap: %v", err)
	}
	defer r.Release()

	got, err := Point(r, 100, 5, 0)
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if got != 6 {
		t.Errorf("Point = %g, want 6 (x substituted by y)", got)
	}
}

func TestPointVars(t *testing.T) {
	v := frep.Var()
	defer v.Release()
	x := frep.X()
	defer x.Release()
	sum := frep.Add(v, x)
	defer sum.Release()

	got, err := PointVars(sum, 2, 0, 0, Vars{v.ID(): 40})
	if err != nil {
		t.Fatalf("PointVars: %v", err)
	}
	if got != 42 {
		t.Errorf("PointVars = %g, want 42", got)
	}

	if _, err := Point(sum, 2, 0, 0); err == nil {
		t.Errorf("unbound variable did not error")
	}
}

func TestPointConstVarWrapper(t *testing.T) {
	v := frep.Var()
	defer v.Release()
	frozen := v.WithConstVars()
	defer frozen.Release()

	// Freezing affects flags, not evaluation: the binding is still used.
	got, err := PointVars(frozen, 0, 0, 0, Vars{v.ID(): 5})
	if err != nil {
		t.Fatalf("PointVars: %v", err)
	}
	if got != 5 {
		t.Errorf("PointVars = %g, want 5", got)
	}
}

type planeClause struct{ d float64 }

func (c planeClause) Name() string                     { return "plane" }
func (c planeClause) Evaluate(x, y, z float64) float64 { return z - c.d }

func TestPointOracle(t *testing.T) {
	o, err := frep.Oracle(planeClause{d: 2})
	if err != nil {
		t.Fatalf("Oracle: %v", err)
	}
	defer o.Release()
	x := frep.X()
	defer x.Release()
	m := frep.Min(o, x)
	defer m.Release()

	got, err := Point(m, 10, 0, 5)
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if got != 3 {
		t.Errorf("Point = %g, want 3", got)
	}
}

func TestPointInvalidTree(t *testing.T) {
	if _, err := Point(frep.Tree{}, 0, 0, 0); err == nil {
		t.Errorf("invalid tree did not error")
	}
}

func TestPointNaNPropagates(t *testing.T) {
	nan := frep.Constant(math.NaN())
	defer nan.Release()
	x := frep.X()
	defer x.Release()
	sum := frep.Add(x, nan)
	defer sum.Release()

	got, err := Point(sum, 1, 0, 0)
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if !math.IsNaN(got) {
		t.Errorf("Point = %g, want NaN", got)
	}
}
