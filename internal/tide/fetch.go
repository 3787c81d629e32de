package tide

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Fetcher downloads station observation files into a data directory.
type Fetcher struct {
	Client  *http.Client
	DataDir string
	Now     func() time.Time
	Logger  *slog.Logger
}

// ErrNoFilename is returned when a response carries no usable
// Content-Disposition file name.
var ErrNoFilename = errors.New("tide: response has no attachment filename")

// Fetch downloads the SourceURL of every station. Failures are logged per
// station and do not stop the others. It returns the paths written.
func (f *Fetcher) Fetch(ctx context.Context, stations []*Station) []string {
	var written []string
	for _, st := range stations {
		if st.SourceURL == "" {
			continue
		}
		path, err := f.FetchStation(ctx, st)
		if err != nil {
			f.logger().Warn("could not retrieve station data", "station", st.Name, "url", st.SourceURL, "error", err)
			continue
		}
		written = append(written, path)
	}
	return written
}

// FetchStation downloads one station file and stores it as
// DataDir/YYYY-MM-DD-<attachment name>.
func (f *Fetcher) FetchStation(ctx context.Context, st *Station) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, st.SourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %s", resp.Status)
	}
	name, err := attachmentName(resp.Header.Get("Content-Disposition"))
	if err != nil {
		return "", err
	}

	f.logger().Info("fetching station data", "station", st.Name, "file", name, "host", req.URL.Host)

	if err := os.MkdirAll(f.DataDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(f.DataDir, f.now().Format("2006-01-02-")+name)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}
	return path, nil
}

func attachmentName(disposition string) (string, error) {
	if disposition == "" {
		return "", ErrNoFilename
	}
	_, params, err := mime.ParseMediaType(disposition)
	if err != nil {
		return "", fmt.Errorf("content-disposition %q: %w", disposition, err)
	}
	name := filepath.Base(params["filename"])
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", ErrNoFilename
	}
	return name, nil
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (f *Fetcher) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *Fetcher) logger() *slog.Logger {
	if f.Logger != nil {
		return f.Logger
	}
	return slog.Default()
}
