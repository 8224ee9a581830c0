package serverrun

import (
	"bytes"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"testing"
	"time"

	cfgpkg "github.com/osamaakb/tempo/internal/config"
	pebblestore "github.com/osamaakb/tempo/internal/storage/pebble"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func startServer(t *testing.T, dir, addr string) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			DataDir:  dir,
			HTTPAddr: addr,
			Fsync:    pebblestore.FsyncModeNever,
			Config:   cfgpkg.Default(),
		})
	}()
	waitHealthy(t, addr)
	return cancel, done
}

func waitHealthy(t *testing.T, addr string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get("http://" + addr + "/v1/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("server never became healthy at %s", addr)
}

func stopServer(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("server did not shut down")
	}
}

func post(t *testing.T, addr, path string, body any) *http.Response {
	t.Helper()
	b, _ := json.Marshal(body)
	resp, err := http.Post("http://"+addr+path, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp
}

func TestRunServesAndShutsDown(t *testing.T) {
	dir := t.TempDir()
	addr := freeAddr(t)
	cancel, done := startServer(t, dir, addr)
	stopServer(t, cancel, done)
}

func TestRunRecoversParkedEvents(t *testing.T) {
	dir := t.TempDir()
	addr := freeAddr(t)
	cancel, done := startServer(t, dir, addr)

	resp := post(t, addr, "/v1/lines/create", map[string]any{"namespace": "default", "line": "orders", "delay_ms": 60000})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: %d", resp.StatusCode)
	}
	resp.Body.Close()
	resp = post(t, addr, "/v1/lines/publish", map[string]any{"namespace": "default", "line": "orders", "payload": []byte("x")})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("publish: %d", resp.StatusCode)
	}
	resp.Body.Close()
	stopServer(t, cancel, done)

	// A fresh process over the same data dir still owes the event.
	addr2 := freeAddr(t)
	cancel2, done2 := startServer(t, dir, addr2)
	defer stopServer(t, cancel2, done2)

	r, err := http.Get("http://" + addr2 + "/v1/lines/stats?namespace=default&line=orders")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	defer r.Body.Close()
	var st struct {
		Parked int `json:"parked"`
	}
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if st.Parked != 1 {
		t.Fatalf("parked after restart: %d", st.Parked)
	}
}
