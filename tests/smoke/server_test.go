//go:build smoke

package smoke

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"
)

func TestServerStartup(t *testing.T) {
	repoRoot := findRepoRoot(t)
	tempDir := t.TempDir()

	binPath := filepath.Join(tempDir, "gateway-server")
	buildCmd := exec.Command("go", "build", "-o", binPath, "./cmd/server")
	buildCmd.Dir = repoRoot
	buildOutput, err := buildCmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build server: %v\n%s", err, buildOutput)
	}

	upstreamSrv := newFakeUpstream(t)

	port := reservePort(t)
	configPath := filepath.Join(tempDir, "config.yaml")
	configBody := fmt.Sprintf(`app:
  name: "trailhop-gateway"
  environment: "development"
  port: %d

upstream:
  base_url: "%s"
  timeout_seconds: 2

refresh:
  cron: "*/5 * * * *"
`, port, upstreamSrv.URL)

	if err := os.WriteFile(configPath, []byte(configBody), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cmd := exec.Command(binPath, "-config", configPath)
	cmd.Dir = tempDir
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start server: %v", err)
	}

	waitDone := make(chan struct{})
	var waitErr error
	go func() {
		waitErr = cmd.Wait()
		close(waitDone)
	}()

	t.Cleanup(func() {
		if cmd.Process == nil {
			return
		}
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-waitDone:
			return
		case <-time.After(5 * time.Second):
		}
		_ = cmd.Process.Kill()
		select {
		case <-waitDone:
		case <-time.After(5 * time.Second):
			t.Logf("server process did not exit after kill")
		}
	})

	baseURL := fmt.Sprintf("http://localhost:%d", port)
	client := &http.Client{Timeout: 500 * time.Millisecond}
	deadline := time.Now().Add(10 * time.Second)

	for {
		select {
		case <-waitDone:
			t.Fatalf("server exited before health check: %v\nstdout:\n%s\nstderr:\n%s", waitErr, stdout.String(), stderr.String())
		default:
		}

		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				break
			}
		}

		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for health check\nstdout:\n%s\nstderr:\n%s", stdout.String(), stderr.String())
		}

		time.Sleep(100 * time.Millisecond)
	}

	// Exercise the badge pipeline end to end against the fake upstream.
	req, err := http.NewRequest(http.MethodGet, baseURL+"/api/v1/my-activities/7/calendar?year=2025&month=6", nil)
	if err != nil {
		t.Fatalf("build calendar request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer smoke-token")

	resp, err := (&http.Client{Timeout: 5 * time.Second}).Do(req)
	if err != nil {
		t.Fatalf("calendar request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("calendar status %d: %s", resp.StatusCode, body)
	}

	var badges map[string][]struct {
		Status string `json:"status"`
		Count  int    `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&badges); err != nil {
		t.Fatalf("decode calendar response: %v", err)
	}
	if len(badges["2025-06-10"]) == 0 {
		t.Fatalf("expected badges for 2025-06-10, got %v", badges)
	}

	select {
	case <-waitDone:
		t.Fatalf("server exited unexpectedly: %v\nstdout:\n%s\nstderr:\n%s", waitErr, stdout.String(), stderr.String())
	default:
	}
}

// newFakeUpstream serves the two endpoints the calendar pipeline needs.
func newFakeUpstream(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/my-activities/7/reservation-dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"date":"2025-06-10","reservations":{"pending":1,"confirmed":2,"completed":0}}]`)
	})
	mux.HandleFunc("/my-activities/7/reserved-schedule", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[{"scheduleId":3,"startTime":"10:00","endTime":"23:59","count":{"pending":1,"confirmed":2,"declined":0}}]`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func reservePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func findRepoRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get working directory: %v", err)
	}

	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	t.Fatal("failed to locate repo root with go.mod")
	return ""
}
