package client

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	cfgpkg "github.com/osamaakb/tempo/internal/config"
	"github.com/osamaakb/tempo/internal/runtime"
	httpserver "github.com/osamaakb/tempo/internal/server/http"
	linesvc "github.com/osamaakb/tempo/internal/services/lines"
	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
)

func newTestAPI(t *testing.T) *httptest.Server {
	t.Helper()
	rt, err := runtime.Open(runtime.Options{DataDir: t.TempDir(), Fsync: pebblestore.FsyncModeNever, Config: cfgpkg.Default()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	lines := linesvc.New(rt, linesvc.Options{})
	t.Cleanup(lines.Close)
	ts := httptest.NewServer(httpserver.New(rt, lines).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func runCommand(t *testing.T, base string, args ...string) string {
	t.Helper()
	root := NewRoot(func() string { return base })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("command %v: %v", args, err)
	}
	return out.String()
}

func TestLineCreateAndStats(t *testing.T) {
	ts := newTestAPI(t)
	out := runCommand(t, ts.URL, "line", "create", "--name", "orders", "--delay-ms", "30")
	if !strings.Contains(out, "OK") {
		t.Fatalf("create output: %q", out)
	}
	out = runCommand(t, ts.URL, "line", "stats", "--line", "orders")
	var st struct {
		Line    string `json:"line"`
		DelayMs int64  `json:"delay_ms"`
	}
	if err := json.Unmarshal([]byte(out), &st); err != nil {
		t.Fatalf("stats output %q: %v", out, err)
	}
	if st.Line != "orders" || st.DelayMs != 30 {
		t.Fatalf("stats: %+v", st)
	}
}

func TestLinePublishAndSubscribe(t *testing.T) {
	ts := newTestAPI(t)
	// delay long enough for the subscribe below to attach before release
	runCommand(t, ts.URL, "line", "create", "--name", "orders", "--delay-ms", "300")

	out := runCommand(t, ts.URL, "line", "publish", "--line", "orders", "--data", `{"n":1}`, "--header", "kind=test")
	var pr struct {
		ID    string `json:"id"`
		DueMs int64  `json:"due_ms"`
	}
	if err := json.Unmarshal([]byte(out), &pr); err != nil {
		t.Fatalf("publish output %q: %v", out, err)
	}
	if pr.ID == "" || pr.DueMs == 0 {
		t.Fatalf("publish: %+v", pr)
	}

	// close after drain so subscribe terminates on its own
	go func() {
		time.Sleep(600 * time.Millisecond)
		root := NewRoot(func() string { return ts.URL })
		root.SetArgs([]string{"line", "close", "--line", "orders"})
		_ = root.Execute()
	}()
	out = runCommand(t, ts.URL, "line", "subscribe", "--line", "orders")
	if !strings.Contains(out, `"payload_json"`) {
		t.Fatalf("subscribe output: %q", out)
	}
}

func TestLineList(t *testing.T) {
	ts := newTestAPI(t)
	runCommand(t, ts.URL, "line", "create", "--name", "a", "--delay-ms", "10")
	runCommand(t, ts.URL, "line", "create", "--name", "b", "--delay-ms", "10")
	out := runCommand(t, ts.URL, "line", "list")
	if !strings.Contains(out, `"a"`) || !strings.Contains(out, `"b"`) {
		t.Fatalf("list output: %q", out)
	}
}

func TestParseHeaderFlags(t *testing.T) {
	h, err := parseHeaderFlags([]string{"a=1", "b=2"}, `{"c":"3"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if h["a"] != "1" || h["b"] != "2" || h["c"] != "3" {
		t.Fatalf("headers: %v", h)
	}
	if _, err := parseHeaderFlags([]string{"broken"}, ""); err == nil {
		t.Fatalf("want error for malformed pair")
	}
}
