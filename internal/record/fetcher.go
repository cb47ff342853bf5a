package record

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

// DefaultPhysioNetURL root of the 12-lead arrhythmia database
const DefaultPhysioNetURL = "https://physionet.org/files/ecg-arrhythmia/1.0.0"

// Fetcher downloads a record (header plus signal files) into dataDir.
// On success <dataDir>/<recordID>.hea exists together with every file it names.
type Fetcher interface {
	Fetch(ctx context.Context, recordID, dataDir string) error
}

// PhysioNetFetcher fetches records over HTTP from a PhysioNet-style file tree
type PhysioNetFetcher struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewPhysioNetFetcher creates a fetcher for baseURL
func NewPhysioNetFetcher(baseURL string, timeout time.Duration, retries int, logger *zap.Logger) *PhysioNetFetcher {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(retries).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r != nil && (r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500)
		})

	return &PhysioNetFetcher{
		httpClient: client,
		logger:     logger,
	}
}

// Fetch implements Fetcher. Signal files are written first and the header last, each through
// a temp file and rename, so a visible header always means complete data.
func (f *PhysioNetFetcher) Fetch(ctx context.Context, recordID, dataDir string) error {
	start := time.Now()
	hea, err := f.download(ctx, recordID+".hea")
	if err != nil {
		return err
	}
	h, err := ParseHeader(bytes.NewReader(hea))
	if err != nil {
		return fmt.Errorf("%w: remote header for %s: %v", models.ErrFetch, recordID, err)
	}

	headerPath := filepath.Join(dataDir, filepath.FromSlash(recordID)+".hea")
	dir := filepath.Dir(headerPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	remoteDir := path.Dir(recordID)
	for _, name := range h.SignalFiles() {
		if !validFileName(name) {
			return fmt.Errorf("%w: remote header for %s names %q", models.ErrFetch, recordID, name)
		}
		data, err := f.download(ctx, path.Join(remoteDir, name))
		if err != nil {
			return err
		}
		if err := writeFileAtomic(filepath.Join(dir, name), data); err != nil {
			return err
		}
	}
	if err := writeFileAtomic(headerPath, hea); err != nil {
		return err
	}

	f.logger.Info("Fetched record",
		zap.String("record_id", recordID),
		zap.Int("signal_files", len(h.SignalFiles())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

func (f *PhysioNetFetcher) download(ctx context.Context, remotePath string) ([]byte, error) {
	resp, err := f.httpClient.R().
		SetContext(ctx).
		Get("/" + remotePath)
	if err != nil {
		f.logger.Error("Record download failed",
			zap.String("path", remotePath),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetch, remotePath, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s not found on remote", models.ErrFetch, remotePath)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s: status %d", models.ErrFetch, remotePath, resp.StatusCode())
	}
	return resp.Body(), nil
}

// writeFileAtomic writes to a unique temp file beside dst then renames it into place
func writeFileAtomic(dst string, data []byte) error {
	tmp := dst + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename %s: %w", tmp, err)
	}
	return nil
}
