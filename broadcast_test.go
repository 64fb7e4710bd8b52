package selections

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBroadcastAlignsToTargets(t *testing.T) {
	targets := []ComponentID{
		voldistSelector("Y Response"),
		{Group: GroupSelections, Tab: TabTornado, Name: "Response left"},
		voldistSelector("X Response"),
	}
	updates := []Update[string]{
		{Value: SetTo("y"), Match: Match{Tab: TabVolumeDistribution, Name: "Y Response"}},
		{Value: SetTo("x"), Match: Match{Tab: TabVolumeDistribution, Name: "X Response"}},
	}

	got := Broadcast(targets, updates)
	want := []Patch[string]{SetTo("y"), NoChange[string](), SetTo("x")}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected broadcast (-want +got):\n%s", diff)
	}
}

func TestBroadcastFirstMatchWins(t *testing.T) {
	targets := []ComponentID{voldistSelector("Color by")}
	updates := []Update[int]{
		{Value: NoChange[int](), Match: Match{Name: "Color by"}},
		{Value: SetTo(2), Match: Match{Tab: TabVolumeDistribution}},
	}
	got := Broadcast(targets, updates)
	if len(got) != 1 || got[0].Set {
		t.Fatalf("expected the first matching update to win with no change, got %+v", got)
	}
}

func TestBroadcastEmptyTargets(t *testing.T) {
	got := Broadcast(nil, []Update[bool]{{Value: SetTo(true)}})
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %+v", got)
	}
}

func TestPatchSetToKeepsEmptyValues(t *testing.T) {
	patch := SetTo[any](nil)
	if !patch.Set {
		t.Fatalf("expected nil write to be a set patch")
	}
	if NoChange[any]().Set {
		t.Fatalf("expected no-change sentinel to be unset")
	}
}

func TestMatchConstrainsOnlySetFields(t *testing.T) {
	id := ComponentID{Group: GroupFilters, Tab: TabTable, Name: "REGION", Kind: KindRegion, Wrapper: "REGION"}
	cases := []struct {
		name  string
		match Match
		want  bool
	}{
		{name: "empty", match: Match{}, want: true},
		{name: "tab", match: Match{Tab: TabTable}, want: true},
		{name: "tab and wrapper", match: Match{Tab: TabTable, Wrapper: "REGION"}, want: true},
		{name: "other tab", match: Match{Tab: TabTornado, Name: "REGION"}, want: false},
		{name: "other kind", match: Match{Kind: KindRealization}, want: false},
		{name: "setting", match: Match{Setting: "multi"}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.match.Matches(id); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
