package visibility

import (
	"testing"

	"indexstoredb/internal/idcode"
)

func TestDisabledCheckerAlwaysVisible(t *testing.T) {
	c := New(false)
	if !c.IsVisible(idcode.Of("/out/a.o")) {
		t.Errorf("disabled checker should report every unit visible")
	}
}

func TestEnabledCheckerGatesOnAcceptedSet(t *testing.T) {
	c := New(true)
	outFile := "/out/a.o"
	code := idcode.Of(outFile)

	if c.IsVisible(code) {
		t.Errorf("unit should not be visible before being accepted")
	}

	c.AddUnitOutFilePaths([]string{outFile}, false, nil)
	if !c.IsVisible(code) {
		t.Errorf("unit should be visible after AddUnitOutFilePaths")
	}

	c.RemoveUnitOutFilePaths([]string{outFile})
	if c.IsVisible(code) {
		t.Errorf("unit should not be visible after RemoveUnitOutFilePaths")
	}
}

type fakeDrainer struct {
	waitedFor []string
}

func (f *fakeDrainer) WaitForUnitsProcessed(outFilePaths []string) {
	f.waitedFor = append(f.waitedFor, outFilePaths...)
}

func TestAddUnitOutFilePathsWaitsForProcessing(t *testing.T) {
	c := New(true)
	drainer := &fakeDrainer{}

	c.AddUnitOutFilePaths([]string{"/out/a.o", "/out/b.o"}, true, drainer)

	if len(drainer.waitedFor) != 2 {
		t.Errorf("expected drainer to be asked about 2 out-files, got %v", drainer.waitedFor)
	}
}
