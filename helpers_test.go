package selections

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-selections/pkg/volume"
)

var (
	testResponses  = []string{"STOIIP", "GIIP", "BULK"}
	testSelectors  = []string{"ENSEMBLE", "SOURCE", "SENSNAME", "FIPNUM", "REGION", "ZONE"}
	testParameters = []string{"MULTZ"}
)

func loadVolumes(t *testing.T) *volume.Frame {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "volumes.csv"))
	if err != nil {
		t.Fatalf("open fixture: %v", err)
	}
	defer f.Close()
	frame, err := volume.ReadCSV(f,
		volume.WithResponses(testResponses...),
		volume.WithSelectors(testSelectors...),
		volume.WithParameters(testParameters...),
	)
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	return frame
}

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	engine, err := New(loadVolumes(t), opts...)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return engine
}

func loadPolicyFixture(t *testing.T, name string) *PolicyTables {
	t.Helper()
	f, err := os.Open(filepath.Join("testdata", "policies", name))
	if err != nil {
		t.Fatalf("open policy fixture: %v", err)
	}
	defer f.Close()
	tables, err := LoadPolicyTables(f)
	if err != nil {
		t.Fatalf("load policy fixture %s: %v", name, err)
	}
	return tables
}

func voldistSelector(name string) ComponentID {
	return ComponentID{Group: GroupSelections, Tab: TabVolumeDistribution, Name: name}
}

func filterID(tab TabID, name string) ComponentID {
	return ComponentID{Group: GroupFilters, Tab: tab, Name: name, Kind: KindCategorical}
}

func optionValues(options []SelectOption) []any {
	out := make([]any, 0, len(options))
	for _, option := range options {
		out = append(out, option.Value)
	}
	return out
}

func anyStrings(values ...string) []any {
	out := make([]any, 0, len(values))
	for _, value := range values {
		out = append(out, value)
	}
	return out
}
