package table

import (
	"testing"
)

func TestFrame_AddAndLookup(t *testing.T) {
	f := NewFrame(3)
	if err := f.AddNumeric("x", []float64{1, 2, 3}); err != nil {
		t.Fatalf("AddNumeric failed: %v", err)
	}
	if err := f.AddLabel("group", []string{"a", "b", "a"}); err != nil {
		t.Fatalf("AddLabel failed: %v", err)
	}

	col, ok := f.Numeric("x")
	if !ok || col[1] != 2 {
		t.Errorf("Expected numeric column x with value 2 at row 1, got %v (ok=%v)", col, ok)
	}
	lab, ok := f.Label("group")
	if !ok || lab[2] != "a" {
		t.Errorf("Expected label column group with value a at row 2, got %v (ok=%v)", lab, ok)
	}

	if err := f.AddNumeric("x", []float64{9, 9, 9}); err == nil {
		t.Error("Expected error when re-adding existing column without Bind")
	}
	if err := f.AddNumeric("short", []float64{1}); err == nil {
		t.Error("Expected error for length mismatch")
	}
}

func TestFrame_BindOverwrite(t *testing.T) {
	f := NewFrame(2)
	if err := f.AddNumeric("pred", []float64{1, 2}); err != nil {
		t.Fatalf("AddNumeric failed: %v", err)
	}

	over, err := f.Bind("pred", []float64{5, 6})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if !over {
		t.Error("Expected Bind to report overwrite of existing column")
	}
	col, _ := f.Numeric("pred")
	if col[0] != 5 || col[1] != 6 {
		t.Errorf("Expected overwritten values [5 6], got %v", col)
	}

	over, err = f.Bind("lcb0.025", []float64{0, 1})
	if err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if over {
		t.Error("Expected no overwrite for a fresh column name")
	}

	// Column order must reflect insertion order, with no duplicate for
	// the overwritten name.
	names := f.Names()
	if len(names) != 2 || names[0] != "pred" || names[1] != "lcb0.025" {
		t.Errorf("Unexpected column order: %v", names)
	}
}

func TestFrame_Subset(t *testing.T) {
	f := NewFrame(4)
	_ = f.AddNumeric("x", []float64{10, 20, 30, 40})
	_ = f.AddLabel("g", []string{"a", "b", "c", "d"})

	sub, err := f.Subset([]int{3, 1, 1})
	if err != nil {
		t.Fatalf("Subset failed: %v", err)
	}
	if sub.Len() != 3 {
		t.Fatalf("Expected 3 rows, got %d", sub.Len())
	}
	x, _ := sub.Numeric("x")
	if x[0] != 40 || x[1] != 20 || x[2] != 20 {
		t.Errorf("Expected resampled values [40 20 20], got %v", x)
	}
	g, _ := sub.Label("g")
	if g[0] != "d" || g[2] != "b" {
		t.Errorf("Expected resampled labels [d b b], got %v", g)
	}

	if _, err := f.Subset([]int{4}); err == nil {
		t.Error("Expected out-of-range index to fail")
	}
}

func TestFrame_CloneIsolation(t *testing.T) {
	f := NewFrame(2)
	_ = f.AddNumeric("x", []float64{1, 2})

	c := f.Clone()
	col, _ := c.Numeric("x")
	col[0] = 99

	orig, _ := f.Numeric("x")
	if orig[0] != 1 {
		t.Errorf("Clone shares storage with original: got %v", orig)
	}
}
