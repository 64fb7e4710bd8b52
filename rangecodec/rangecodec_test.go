package rangecodec

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"
)

type encodeFixture struct {
	Description string              `json:"description"`
	Cases       []encodeFixtureCase `json:"cases"`
}

type encodeFixtureCase struct {
	Name   string `json:"name"`
	Input  []int  `json:"input"`
	Expect string `json:"expect"`
}

func TestEncodeFromFixture(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("testdata", "encode.json"))
	if err != nil {
		t.Fatalf("read fixture: %v", err)
	}
	var fx encodeFixture
	if err := json.Unmarshal(raw, &fx); err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	for _, tc := range fx.Cases {
		tc := tc
		t.Run(tc.Name, func(t *testing.T) {
			if got := Encode(tc.Input); got != tc.Expect {
				t.Fatalf("Encode(%v) = %q, want %q", tc.Input, got, tc.Expect)
			}
		})
	}
}

func TestEncodeDoesNotMutateInput(t *testing.T) {
	input := []int{9, 1, 2}
	_ = Encode(input)
	if !slices.Equal(input, []int{9, 1, 2}) {
		t.Fatalf("expected input untouched, got %v", input)
	}
}

func TestSpanAndExpand(t *testing.T) {
	if got := Span(3, 7); got != "3-7" {
		t.Fatalf("expected 3-7, got %q", got)
	}
	if got := Expand(3, 6); !slices.Equal(got, []int{3, 4, 5, 6}) {
		t.Fatalf("unexpected expansion %v", got)
	}
	if got := Expand(6, 6); !slices.Equal(got, []int{6}) {
		t.Fatalf("unexpected single expansion %v", got)
	}
	if got := Expand(2, 0); !slices.Equal(got, []int{0, 1, 2}) {
		t.Fatalf("expected inverted interval to be normalised, got %v", got)
	}
}
