package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	t.Parallel()

	stdin := strings.NewReader("x")
	tests := []struct {
		arg  string
		want Input
		name string
	}{
		{arg: "-", want: Input{Stdin: stdin}, name: "stdin"},
		{arg: "https://example.com/a.csv", want: Input{URL: "https://example.com/a.csv"}, name: "https://example.com/a.csv"},
		{arg: "data/a.csv", want: Input{Path: "data/a.csv"}, name: "data/a.csv"},
	}
	for _, tt := range tests {
		got := Parse(tt.arg, stdin)
		if got != tt.want {
			t.Fatalf("Parse(%q)=%+v want=%+v", tt.arg, got, tt.want)
		}
		if got.Name() != tt.name {
			t.Fatalf("Name()=%q want=%q", got.Name(), tt.name)
		}
	}
}

func TestLoader_FileAndStdin(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(p, []byte("a\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := NewLoader(nil, 0)
	b, err := l.Load(context.Background(), Input{Path: p})
	if err != nil || string(b) != "a\n1\n" {
		t.Fatalf("Load(file)=%q err=%v", b, err)
	}

	b, err = l.Load(context.Background(), Input{Stdin: strings.NewReader("<p>x</p>")})
	if err != nil || string(b) != "<p>x</p>" {
		t.Fatalf("Load(stdin)=%q err=%v", b, err)
	}

	if _, err := l.Load(context.Background(), Input{Path: filepath.Join(t.TempDir(), "missing")}); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoader_URL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			_, _ = w.Write([]byte(`[{"a":1}]`))
			return
		}
		http.Error(w, "nope", http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)

	l := NewLoader(&http.Client{Timeout: 2 * time.Second}, 2*time.Second)

	b, err := l.Load(context.Background(), Input{URL: srv.URL + "/ok"})
	if err != nil || string(b) != `[{"a":1}]` {
		t.Fatalf("Load(url)=%q err=%v", b, err)
	}

	_, err = l.Load(context.Background(), Input{URL: srv.URL + "/denied"})
	if err == nil || !strings.Contains(err.Error(), "http status 403") || !strings.Contains(err.Error(), "nope") {
		t.Fatalf("unexpected error: %v", err)
	}
}
