package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/litescript/ls-orrery/internal/body"
	"github.com/litescript/ls-orrery/internal/dataset"
	"github.com/litescript/ls-orrery/internal/logging"
	"github.com/litescript/ls-orrery/internal/observability"
	"github.com/litescript/ls-orrery/internal/scene"
	"github.com/litescript/ls-orrery/internal/state"
)

// execute runs the root command with args in an isolated $HOME.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	err = root.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestParseAdvance(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"3600", 3600, false},
		{"90m", 5400, false},
		{"12h", 43200, false},
		{"30d", 30 * 86400, false},
		{"2w", 14 * 86400, false},
		{"1y", 365.25 * 86400, false},
		{"-1.5d", -1.5 * 86400, false},
		{"soon", 0, true},
		{"xd", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseAdvance(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseAdvance(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("parseAdvance(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestSummaryTable(t *testing.T) {
	out, _, err := execute(t, "summary", "--advance", "30d", "--realism", "0.5")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	for _, want := range []string{"ls-orrery summary", "Earth", "Jupiter", "Realism: 0.50", "Total:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestSummaryJSON(t *testing.T) {
	out, _, err := execute(t, "summary", "--json", "--realism", "1", "--focus", "earth")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}

	var export state.SnapshotExport
	if err := json.Unmarshal([]byte(out), &export); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if export.Realism != 1 {
		t.Errorf("realism = %v, want 1", export.Realism)
	}
	if export.FocusedBody != "earth" || export.Mode != "focus" {
		t.Errorf("focus = %q mode = %q, want earth/focus", export.FocusedBody, export.Mode)
	}
	if len(export.Bodies) == 0 || export.Bodies[0].ID != "sun" {
		t.Errorf("bodies = %+v", export.Bodies)
	}
}

func TestSummaryUnknownFocus(t *testing.T) {
	if _, _, err := execute(t, "summary", "--focus", "vulcan"); err == nil {
		t.Error("focusing an unknown body should fail")
	}
}

func TestSummaryDatasetFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bodies.json")
	doc := `{"bodies":[
  {"id":"star","category":"star","reference":true,"physical":{"radius_km":500000}},
  {"id":"rock","category":"planet","primary":"star","order":1,
   "orbit":{"semi_major_axis":0.5,"semi_major_axis_unit":"au","period":120,"period_unit":"days"},
   "physical":{"radius_km":3000}},
  {"id":"lost","category":"moon","primary":"nowhere",
   "orbit":{"semi_major_axis":1000,"semi_major_axis_unit":"km","period":1,"period_unit":"days"},
   "physical":{"radius_km":10}}
]}`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := execute(t, "summary", "--dataset", path)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if !strings.Contains(out, "Total: 2 bodies") {
		t.Errorf("expected the dangling moon to be excluded:\n%s", out)
	}
	if !strings.Contains(out, "Issues (") || !strings.Contains(out, "lost") {
		t.Errorf("expected the exclusion to be listed:\n%s", out)
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	out, _, err := execute(t, "config", "init", "--path", path)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out, path) {
		t.Errorf("output = %q", out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if !strings.Contains(string(data), "km_per_unit") {
		t.Error("config file missing visual section")
	}

	if _, _, err := execute(t, "config", "init", "--path", path); err == nil {
		t.Error("second init without --force should fail")
	}
	if _, _, err := execute(t, "config", "init", "--path", path, "--force"); err != nil {
		t.Errorf("init --force: %v", err)
	}
}

func TestConfigShowUsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("simulation:\n  initial_realism: 0.3\n"), 0644); err != nil {
		t.Fatal(err)
	}
	out, _, err := execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if !strings.Contains(out, "initial_realism: 0.3") {
		t.Errorf("effective config does not reflect the file:\n%s", out)
	}
}

func TestMetricsMux(t *testing.T) {
	collector, err := observability.NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	a := &app{
		log:     logging.Discard(),
		metrics: collector,
		state:   state.NewManager(state.DefaultConfig()),
	}
	srv := httptest.NewServer(a.metricsMux())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("/snapshot before publish = %d, want 503", resp.StatusCode)
	}

	cat, err := dataset.Default(body.Discard)
	if err != nil {
		t.Fatal(err)
	}
	s := scene.New(cat, scene.DefaultConfig(), body.Discard)
	s.SetObserver(collector)
	s.Frame(0.1)
	a.state.Publish(state.FrameFromScene(s), 0)

	resp, err = http.Get(srv.URL + "/snapshot")
	if err != nil {
		t.Fatal(err)
	}
	var export state.SnapshotExport
	err = json.NewDecoder(resp.Body).Decode(&export)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("decode /snapshot: %v", err)
	}
	if len(export.Bodies) != cat.Len() {
		t.Errorf("/snapshot bodies = %d, want %d", len(export.Bodies), cat.Len())
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	if !strings.Contains(buf.String(), "orrery_frames_total") {
		t.Error("/metrics missing orrery_frames_total")
	}
}
