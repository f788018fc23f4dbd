package renderfarm_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tidwall/gjson"

	"libretto/internal/services"
	"libretto/internal/services/renderfarm"
	"libretto/internal/testsupport"
)

func newClient(t *testing.T, handler http.Handler) *renderfarm.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := testsupport.NewConfig(t, testsupport.WithWorkerURL(server.URL))
	return renderfarm.New(cfg, nil)
}

func TestStartSendsWindowAndCaptions(t *testing.T) {
	var requestBody []byte
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
	}))

	err := client.Start(context.Background(), renderfarm.StartRequest{
		EditionID:      12,
		Lang:           "de",
		SourceURL:      "https://video.example/x",
		WindowStartSec: 12.3,
		WindowEndSec:   187.9,
		CaptionsJSON:   `[{"position":0,"text_final":"zeile"}]`,
	})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	sent := gjson.ParseBytes(requestBody)
	if sent.Get("lang").String() != "de" {
		t.Fatalf("unexpected body: %s", requestBody)
	}
	if sent.Get("window_end_sec").Float() != 187.9 {
		t.Fatalf("window not forwarded: %s", requestBody)
	}
	if sent.Get("captions.0.text_final").String() != "zeile" {
		t.Fatalf("captions not forwarded: %s", requestBody)
	}
}

func TestJobStatusUnknownJobIsTransient(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	_, err := client.JobStatus(context.Background(), 12, "de")
	if err == nil {
		t.Fatal("expected error for unknown job")
	}
	if !services.IsRetryable(err) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestJobStatusParsesTerminalState(t *testing.T) {
	client := newClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/renders/12/de" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"state": "completed", "output_path": "/renders/12/de.mp4", "size_bytes": 1048576}`))
	}))

	state, err := client.JobStatus(context.Background(), 12, "de")
	if err != nil {
		t.Fatalf("JobStatus failed: %v", err)
	}
	if state.State != renderfarm.StateCompleted {
		t.Fatalf("unexpected state %q", state.State)
	}
	if state.OutputPath != "/renders/12/de.mp4" || state.SizeBytes != 1048576 {
		t.Fatalf("unexpected job state: %#v", state)
	}
}
