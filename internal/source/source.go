// Package source reads pipeline input from a file, stdin or an HTTP(S) URL.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Input describes where bytes come from. URL wins over Path; with neither
// set, Stdin is read.
type Input struct {
	URL   string
	Path  string
	Stdin io.Reader
}

// Parse maps a command-line argument to an Input: "-" is stdin, http:// and
// https:// are URLs, anything else is a file path.
func Parse(arg string, stdin io.Reader) Input {
	switch {
	case arg == "-" || arg == "":
		return Input{Stdin: stdin}
	case strings.HasPrefix(arg, "http://"), strings.HasPrefix(arg, "https://"):
		return Input{URL: arg}
	default:
		return Input{Path: arg}
	}
}

// Name is a short description for logs.
func (in Input) Name() string {
	switch {
	case in.URL != "":
		return in.URL
	case in.Path != "":
		return in.Path
	default:
		return "stdin"
	}
}

// Loader reads inputs with a consistent timeout policy for URLs.
type Loader struct {
	client  *http.Client
	timeout time.Duration
}

// NewLoader creates a Loader. A nil client means http.DefaultClient; a
// non-positive timeout means 30s.
func NewLoader(client *http.Client, timeout time.Duration) *Loader {
	if client == nil {
		client = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Loader{client: client, timeout: timeout}
}

// Load returns the full input. Non-2xx responses become errors carrying the
// status code and up to 4KB of the body.
func (l *Loader) Load(ctx context.Context, in Input) ([]byte, error) {
	switch {
	case strings.TrimSpace(in.URL) != "":
		return l.fetch(ctx, in.URL)
	case in.Path != "":
		b, err := os.ReadFile(in.Path)
		if err != nil {
			return nil, fmt.Errorf("read input: %w", err)
		}
		return b, nil
	case in.Stdin != nil:
		b, err := io.ReadAll(in.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

func (l *Loader) fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", "datavitals/1.0")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return b, nil
}
