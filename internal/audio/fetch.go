package audio

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/dustin/go-humanize"
)

const (
	fetchTimeout = 10 * time.Minute
	userAgent    = "earshot/1.0 (https://github.com/tlemoine/earshot)"
)

// Fetcher downloads remote episode audio to a local spool file so the
// decoder can seek freely. Episodes are large; the body is streamed to
// disk, never held in memory.
type Fetcher struct {
	httpClient *http.Client

	// Progress, if set, receives a human-readable transfer status line
	// while a download is in flight. Sends are non-blocking.
	Progress chan<- string
}

// NewFetcher creates a fetcher with a long timeout suitable for full
// episode downloads.
func NewFetcher() *Fetcher {
	return &Fetcher{
		httpClient: &http.Client{
			Timeout: fetchTimeout,
		},
	}
}

// Fetch downloads url to a temp file and returns its path.
// The caller owns the file and must remove it when done.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	spool, err := os.CreateTemp("", "earshot-spool-*.audio")
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}

	written, err := f.copyWithProgress(spool, resp.Body, resp.ContentLength)
	if closeErr := spool.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(spool.Name())
		return "", fmt.Errorf("download: %w", err)
	}
	if written == 0 {
		os.Remove(spool.Name())
		return "", fmt.Errorf("download: empty body from %s", url)
	}

	return spool.Name(), nil
}

func (f *Fetcher) copyWithProgress(dst io.Writer, src io.Reader, total int64) (int64, error) {
	buf := make([]byte, 128*1024)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
			f.report(written, total)
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

func (f *Fetcher) report(written, total int64) {
	if f.Progress == nil {
		return
	}
	var msg string
	if total > 0 {
		msg = fmt.Sprintf("%s / %s", humanize.Bytes(uint64(written)), humanize.Bytes(uint64(total)))
	} else {
		msg = humanize.Bytes(uint64(written))
	}
	select {
	case f.Progress <- msg:
	default:
		// Drop if nobody is reading
	}
}
