package media

import (
	"math"
	"testing"
)

func TestNewSourceRequiresFields(t *testing.T) {
	if _, err := NewSource("", "name", "uri"); err == nil {
		t.Error("empty provider accepted")
	}
	if _, err := NewSource("mock", "", "uri"); err == nil {
		t.Error("empty name accepted")
	}
	if _, err := NewSource("mock", "name", ""); err == nil {
		t.Error("empty uri accepted")
	}
}

func TestShareRatioBoundaries(t *testing.T) {
	cases := []struct {
		seeds, leechers int
		want            float64
		defined         bool
	}{
		{0, 0, 0, false},
		{5, 0, math.Inf(1), true},
		{0, 5, 0, true},
		{10, 5, 2.0, true},
	}
	for _, tc := range cases {
		src := &Source{Seeds: tc.seeds, Leechers: tc.leechers}
		got, ok := src.ShareRatio()
		if ok != tc.defined {
			t.Errorf("ratio(%d,%d) defined = %v, want %v", tc.seeds, tc.leechers, ok, tc.defined)
			continue
		}
		if tc.defined && got != tc.want {
			t.Errorf("ratio(%d,%d) = %v, want %v", tc.seeds, tc.leechers, got, tc.want)
		}
	}
}

func TestSetLanguage(t *testing.T) {
	src, _ := NewSource("mock", "name", "magnet:?xt=1")
	if err := src.SetLanguage("swe-sv"); err != nil {
		t.Fatalf("valid compound code rejected: %v", err)
	}
	if err := src.SetLanguage("eng"); err != nil {
		t.Fatalf("bare 3-letter code rejected: %v", err)
	}
	if err := src.SetLanguage("english"); err == nil {
		t.Fatal("word form accepted")
	}
	if err := src.SetLanguage(""); err != nil {
		t.Fatalf("clearing language: %v", err)
	}
}

func TestSetEntityTypeCompatibility(t *testing.T) {
	src, _ := NewSource("mock", "name", "magnet:?xt=2")
	ep, _ := NewEpisode("lost", "", 1, 1)
	movie, _ := NewMovie("dark city", "")

	if err := src.SetEntity(ep); err != nil {
		t.Fatalf("attach to untyped source: %v", err)
	}
	if src.Type != "episode" {
		t.Fatalf("type = %q after episode attach", src.Type)
	}
	if src.NeedsPostprocessing() {
		t.Fatal("entity attached, postprocessing must be done")
	}

	if err := src.SetEntity(movie); err == nil {
		t.Fatal("movie entity attached to episode source")
	}

	if err := src.SetEntity(nil); err != nil {
		t.Fatalf("detach: %v", err)
	}
	if !src.NeedsPostprocessing() {
		t.Fatal("detached source must need postprocessing")
	}
}
