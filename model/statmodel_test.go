package model

import (
	"strings"
	"testing"

	"predband/family"
	"predband/table"
)

func backendFrame(t *testing.T) *table.Frame {
	t.Helper()
	f := table.NewFrame(6)
	if err := f.AddNumeric("y", []float64{1, 0, 2, 3, 1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddNumeric("x", []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddLabel("group", []string{"b", "a", "b", "c", "a", "c"}); err != nil {
		t.Fatal(err)
	}
	return f
}

func TestBuildDatasetFactorExpansion(t *testing.T) {
	f := backendFrame(t)
	spec := StatmodelSpec{
		Response:   "y",
		Covariates: []string{"x", "group"},
		Family:     family.Poisson,
		Link:       family.LogLink,
	}

	ds, terms, levels, err := buildDataset(f, spec)
	if err != nil {
		t.Fatalf("buildDataset: %v", err)
	}

	// Intercept, x, and two indicators for the non-baseline levels of a
	// three-level factor sorted a < b < c.
	wantX := []string{"icept", "x", "group=b", "group=c"}
	if len(ds.Xnames()) != len(wantX) {
		t.Fatalf("xnames = %v, want %v", ds.Xnames(), wantX)
	}
	for i, name := range wantX {
		if ds.Xnames()[i] != name {
			t.Errorf("xnames[%d] = %q, want %q", i, ds.Xnames()[i], name)
		}
	}

	wantLevels := []string{"a", "b", "c"}
	if got := levels["group"]; len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Errorf("levels[group] = %v, want %v", got, wantLevels)
	}

	if terms[0].Column != "" {
		t.Errorf("first term should be the intercept, got %+v", terms[0])
	}
	if terms[2].Column != "group" || terms[2].Level != "b" {
		t.Errorf("third term = %+v, want group=b indicator", terms[2])
	}

	// Data is laid out [y, icept, x, group=b, group=c]; the group=b
	// indicator marks rows 0 and 2.
	ind := ds.Data()[3]
	for i, want := range []float64{1, 0, 1, 0, 0, 0} {
		if float64(ind[i]) != want {
			t.Errorf("group=b indicator[%d] = %v, want %v", i, ind[i], want)
		}
	}
}

func TestBuildDatasetErrors(t *testing.T) {
	f := backendFrame(t)

	_, _, _, err := buildDataset(f, StatmodelSpec{Response: "missing", Covariates: []string{"x"}})
	if err == nil || !strings.Contains(err.Error(), "response") {
		t.Errorf("missing response: got %v", err)
	}

	_, _, _, err = buildDataset(f, StatmodelSpec{Response: "y", Covariates: []string{"nope"}})
	if err == nil || !strings.Contains(err.Error(), "nope") {
		t.Errorf("missing covariate: got %v", err)
	}
}

func TestStatmodelConfigRejectsUnsupported(t *testing.T) {
	_, err := statmodelConfig(StatmodelSpec{Family: family.Gamma, Link: family.InverseLink})
	if err == nil {
		t.Error("inverse link should be rejected by the backend")
	}

	_, err = statmodelConfig(StatmodelSpec{Family: family.NegBinom, Link: family.LogLink, Theta: 0})
	if err == nil {
		t.Error("negative binomial without theta should be rejected")
	}

	if _, err := statmodelConfig(StatmodelSpec{Family: family.NegBinom, Link: family.LogLink, Theta: 1.5}); err != nil {
		t.Errorf("negative binomial with theta: %v", err)
	}
}

func TestDispersionFor(t *testing.T) {
	if got := dispersionFor(family.Poisson, 1.7); got != 1 {
		t.Errorf("fixed-dispersion family reported %v, want 1", got)
	}
	if got := dispersionFor(family.Gaussian, 1.7); got != 1.7 {
		t.Errorf("gaussian dispersion = %v, want 1.7", got)
	}
}
