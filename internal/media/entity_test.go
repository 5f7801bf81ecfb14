package media

import "testing"

func TestNewEpisodeNormalizes(t *testing.T) {
	ep, err := NewEpisode(" Lost ", "", 1, 2)
	if err != nil {
		t.Fatalf("NewEpisode: %v", err)
	}
	if ep.Series != "lost" {
		t.Fatalf("series = %q, want lowercased %q", ep.Series, "lost")
	}
	if ep.Modifier != "" {
		t.Fatalf("modifier = %q, want empty", ep.Modifier)
	}
}

func TestNewEpisodeRejectsBadArguments(t *testing.T) {
	if _, err := NewEpisode("", "", 1, 1); err == nil {
		t.Error("empty series accepted")
	}
	if _, err := NewEpisode("lost", "", -1, 1); err == nil {
		t.Error("negative season accepted")
	}
	if _, err := NewEpisode("lost", "", 1, -1); err == nil {
		t.Error("negative number accepted")
	}
}

func TestNewMovieNormalizes(t *testing.T) {
	m, err := NewMovie("Dark City", "1998")
	if err != nil {
		t.Fatalf("NewMovie: %v", err)
	}
	if m.Title != "dark city" {
		t.Fatalf("title = %q, want %q", m.Title, "dark city")
	}
}

func TestNaturalKeyEquality(t *testing.T) {
	a, _ := NewEpisode("Lost", "", 1, 2)
	b, _ := NewEpisode("lost", "", 1, 2)
	c, _ := NewEpisode("lost", "2004", 1, 2)
	if !SameEntity(a, b) {
		t.Error("case-normalized episodes must share a natural key")
	}
	if SameEntity(a, c) {
		t.Error("modifier must participate in the natural key")
	}

	m, _ := NewMovie("lost", "")
	if SameEntity(a, m) {
		t.Error("episode and movie natural keys must never collide")
	}
}

func TestDisplayString(t *testing.T) {
	ep, _ := NewEpisode("fargo", "2014", 2, 3)
	if got := ep.DisplayString(); got != "fargo (2014) S02E03" {
		t.Fatalf("episode display = %q", got)
	}
	m, _ := NewMovie("dark city", "1998")
	if got := m.DisplayString(); got != "dark city (1998)" {
		t.Fatalf("movie display = %q", got)
	}
}
