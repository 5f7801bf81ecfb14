package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// runCLI executes one root command invocation against the given config
// file and returns captured stdout.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	if configPath != "" {
		args = append([]string{"--config", configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

// writeTestConfig builds a config file rooted in a temp dir, pointing a
// single feed provider at the given endpoint.
func writeTestConfig(t *testing.T, feedURL string) string {
	t.Helper()

	base := t.TempDir()
	body := fmt.Sprintf(`[paths]
data_dir = %q
cache_dir = %q
log_dir = %q

[scanner]
cache_enabled = false

[parser]
cache_enabled = false

[logging]
level = "error"

[providers.testfeed]
url = %q
default_type = "episode"
`, base, filepath.Join(base, "cache"), filepath.Join(base, "logs"), feedURL)

	path := filepath.Join(base, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func newFeedServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, `{"results":[]}`)
			return
		}
		fmt.Fprint(w, `{"results":[
			{"name":"Lost.S01E01.720p.HDTV.x264-FOO.mkv","uri":"magnet:lost-a","seeds":50,"leechers":10},
			{"name":"Lost.S01E01.HDTV.XviD-BAR.avi","uri":"magnet:lost-b","seeds":5,"leechers":1}
		]}`)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func requireContains(t *testing.T, out, want string) {
	t.Helper()
	if !strings.Contains(out, want) {
		t.Fatalf("output missing %q:\n%s", want, out)
	}
}

func TestSearchCommand(t *testing.T) {
	srv := newFeedServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, err := runCLI(t, configPath, "search", "type=episode", "series=lost", "season=1", "number=1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Lost.S01E01.720p.HDTV.x264-FOO.mkv")
	requireContains(t, out, "2 candidates in 1 groups")
}

func TestSearchCommandFiltersByTag(t *testing.T) {
	srv := newFeedServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, err := runCLI(t, configPath, "search", "type=episode", "series=lost", "quality=720p")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "Lost.S01E01.720p.HDTV.x264-FOO.mkv")
	requireContains(t, out, "1 candidates in 1 groups")
	if strings.Contains(out, "XviD-BAR") {
		t.Fatalf("filtered source survived:\n%s", out)
	}
}

func TestSearchCommandRejectsBareArgument(t *testing.T) {
	_, err := runCLI(t, "", "search", "lost")
	if err == nil || !strings.Contains(err.Error(), "field=value") {
		t.Fatalf("expected field=value error, got %v", err)
	}
}

func TestDownloadLifecycle(t *testing.T) {
	srv := newFeedServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, err := runCLI(t, configPath, "download", "type=episode", "series=lost", "season=1", "number=1")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "Queued Lost.S01E01.720p.HDTV.x264-FOO.mkv")

	out, err = runCLI(t, configPath, "downloads", "list")
	if err != nil {
		t.Fatalf("downloads list: %v", err)
	}
	requireContains(t, out, "QUEUED")

	out, err = runCLI(t, configPath, "downloads", "cancel", "1")
	if err != nil {
		t.Fatalf("downloads cancel: %v", err)
	}
	requireContains(t, out, "Cancelled download 1")

	out, err = runCLI(t, configPath, "downloads", "list")
	if err != nil {
		t.Fatalf("downloads list: %v", err)
	}
	requireContains(t, out, "CANCELLED")
}

func TestDownloadNoCandidates(t *testing.T) {
	srv := newFeedServer(t)
	configPath := writeTestConfig(t, srv.URL)

	out, err := runCLI(t, configPath, "download", "type=episode", "series=nonesuch")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "No candidates found")
}

func TestConfigInit(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")

	out, err := runCLI(t, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")

	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}
