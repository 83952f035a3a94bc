package civitai

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetWithRetries_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		io.WriteString(w, "ok")
	}))
	defer srv.Close()

	resp, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, nil, 3, time.Millisecond)
	if err != nil {
		t.Fatalf("GetWithRetries() error = %v; want nil", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "ok" {
		t.Errorf("body = %q; want %q", body, "ok")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server calls = %d; want 3", got)
	}
}

func TestGetWithRetries_ExhaustsRetries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, nil, 3, time.Millisecond)
	if err == nil {
		t.Fatal("GetWithRetries() error = nil; want server error")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server calls = %d; want 3", got)
	}
}

func TestGetWithRetries_UserNotFoundIsImmediate(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error": "User not found"}`)
	}))
	defer srv.Close()

	_, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, nil, 5, time.Millisecond)
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("GetWithRetries() error = %v; want ErrUserNotFound", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d; want 1 (sentinel must not be retried)", got)
	}
}

func TestGetWithRetries_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, nil, 5, time.Millisecond)
	if err == nil {
		t.Fatal("GetWithRetries() error = nil; want status error")
	}
	if errors.Is(err, ErrUserNotFound) {
		t.Errorf("error = ErrUserNotFound; want a plain status error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server calls = %d; want 1 (4xx must not be retried)", got)
	}
}

func TestGetWithRetries_JSONBodySurvivesProbe(t *testing.T) {
	payload := `{"items": [{"id": 1}, {"id": 2}], "metadata": {"nextCursor": "abc"}}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, payload)
	}))
	defer srv.Close()

	resp, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, nil, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("GetWithRetries() error = %v; want nil", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(body) != payload {
		t.Errorf("body = %q; want the untouched payload", body)
	}
}

func TestGetWithRetries_SendsHeaders(t *testing.T) {
	var gotAuth, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	headers := map[string]string{
		"Authorization": "Bearer secret",
		"User-Agent":    UserAgent,
	}
	resp, err := GetWithRetries(context.Background(), srv.Client(), srv.URL, headers, 1, time.Millisecond)
	if err != nil {
		t.Fatalf("GetWithRetries() error = %v; want nil", err)
	}
	resp.Body.Close()
	if gotAuth != "Bearer secret" {
		t.Errorf("Authorization = %q; want %q", gotAuth, "Bearer secret")
	}
	if gotUA != UserAgent {
		t.Errorf("User-Agent = %q; want %q", gotUA, UserAgent)
	}
}

func TestGetWithRetries_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := GetWithRetries(ctx, srv.Client(), srv.URL, nil, 3, time.Second)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("GetWithRetries() error = %v; want context.Canceled", err)
	}
}
