package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/BrandonQQ/ocp-apac-2025-downloader/models"
	"github.com/BrandonQQ/ocp-apac-2025-downloader/pkg/mirror"
)

func testClient(t *testing.T, opts Options) *Client {
	t.Helper()
	if opts.BackoffUnit == 0 {
		opts.BackoffUnit = time.Millisecond
	}
	return New(opts)
}

func TestFetch_PDFSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.7 fake document body")
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := testClient(t, Options{})
	out := c.Fetch(context.Background(), Request{
		URL:          srv.URL,
		Provider:     mirror.Direct,
		DestDir:      dir,
		FallbackBase: "01_Flash Roadmap",
	})

	if !out.OK {
		t.Fatalf("Fetch() = %+v, want success", out)
	}
	if out.SavedName != "01_Flash Roadmap.pdf" {
		t.Errorf("SavedName = %q, want fallback with .pdf", out.SavedName)
	}
	info, err := os.Stat(out.SavedPath)
	if err != nil {
		t.Fatalf("saved file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("saved file is empty")
	}
}

func TestFetch_DispositionNameWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="keynote.pdf"`)
		fmt.Fprint(w, "%PDF-1.4 body")
	}))
	defer srv.Close()

	c := testClient(t, Options{})
	out := c.Fetch(context.Background(), Request{
		URL: srv.URL, Provider: mirror.Direct, DestDir: t.TempDir(), FallbackBase: "01_x",
	})
	if !out.OK || out.SavedName != "keynote.pdf" {
		t.Errorf("Fetch() = %+v, want saved name keynote.pdf", out)
	}
}

func TestFetch_ConfirmationFlow(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/share", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, `<html><body><a href="/confirmed?confirm=tok&amp;id=abc">Download anyway</a></body></html>`)
	})
	mux.HandleFunc("/confirmed", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("confirm") != "tok" {
			http.Error(w, "missing token", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.presentationml.presentation")
		w.Write([]byte("PK\x03\x04 deck bytes"))
	})

	dir := t.TempDir()
	c := testClient(t, Options{})
	out := c.Fetch(context.Background(), Request{
		URL:          srv.URL + "/share",
		Provider:     mirror.GDrive,
		DestDir:      dir,
		FallbackBase: "02_Storage Keynote",
	})

	if !out.OK {
		t.Fatalf("Fetch() = %+v, want success through confirm flow", out)
	}
	if out.SavedName != "02_Storage Keynote.pptx" {
		t.Errorf("SavedName = %q, want .pptx extension", out.SavedName)
	}
}

func TestFetch_HTMLDeadEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><p>You need permission to access this file.</p></body></html>`)
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := testClient(t, Options{})
	out := c.Fetch(context.Background(), Request{
		URL: srv.URL, Provider: mirror.GDrive, DestDir: dir, FallbackBase: "03_x",
	})

	if out.OK || out.Kind != models.FailHTMLNotFile {
		t.Fatalf("Fetch() = %+v, want html_not_file failure", out)
	}

	entries, err := os.ReadDir(filepath.Join(dir, DebugHTMLDir))
	if err != nil {
		t.Fatalf("debug HTML dir missing: %v", err)
	}
	if len(entries) != 1 || !strings.HasSuffix(entries[0].Name(), "_gdrive.html") {
		t.Errorf("debug dir entries = %v, want one <hash>_gdrive.html", entries)
	}
}

func TestFetch_ZeroByte(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		// Declared payload, empty body.
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := testClient(t, Options{})
	out := c.Fetch(context.Background(), Request{
		URL: srv.URL, Provider: mirror.Direct, DestDir: dir, FallbackBase: "04_x",
	})

	if out.OK || out.Kind != models.FailZeroByte {
		t.Fatalf("Fetch() = %+v, want zero_byte failure", out)
	}
	if _, err := os.Stat(filepath.Join(dir, "04_x.pdf")); !os.IsNotExist(err) {
		t.Error("empty file left on disk after zero_byte failure")
	}
}

func TestFetchWithRetry_TransportExhaustion(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		conn, _, err := w.(http.Hijacker).Hijack()
		if err != nil {
			t.Errorf("hijack failed: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	c := testClient(t, Options{Retries: 3})
	out := c.FetchWithRetry(context.Background(), Request{
		URL: srv.URL, Provider: mirror.Direct, DestDir: t.TempDir(), FallbackBase: "05_x",
	})

	if got := attempts.Load(); got != 3 {
		t.Errorf("attempts = %d, want exactly the retry budget of 3", got)
	}
	if out.OK || out.Kind != models.FailTransport {
		t.Errorf("outcome = %+v, want transport_error", out)
	}
	if !strings.HasPrefix(out.Note, models.FailTransport+":") {
		t.Errorf("note = %q, want transport_error:<detail>", out.Note)
	}
}

func TestFetchWithRetry_SucceedsAfterFailure(t *testing.T) {
	var attempts atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) == 1 {
			conn, _, _ := w.(http.Hijacker).Hijack()
			conn.Close()
			return
		}
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.7 second try")
	}))
	defer srv.Close()

	c := testClient(t, Options{Retries: 3})
	out := c.FetchWithRetry(context.Background(), Request{
		URL: srv.URL, Provider: mirror.Direct, DestDir: t.TempDir(), FallbackBase: "06_x",
	})

	if !out.OK {
		t.Fatalf("FetchWithRetry() = %+v, want success on second attempt", out)
	}
	if attempts.Load() != 2 {
		t.Errorf("attempts = %d, want 2", attempts.Load())
	}
}

type recorderStub struct {
	calls atomic.Int32
}

func (r *recorderStub) RecordAttempt(itemID int64, url, provider, kind, note string, ok bool) {
	r.calls.Add(1)
}

func TestFetchWithRetry_RecordsEveryAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html>quota page</html>")
	}))
	defer srv.Close()

	rec := &recorderStub{}
	c := testClient(t, Options{Retries: 2, Recorder: rec})
	c.FetchWithRetry(context.Background(), Request{
		URL: srv.URL, Provider: mirror.Direct, DestDir: t.TempDir(), FallbackBase: "07_x",
	})

	if got := rec.calls.Load(); got != 2 {
		t.Errorf("recorded attempts = %d, want 2", got)
	}
}
