package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/floudata/pucp-time-series/internal/models"
)

// Store resolves record IDs to in-memory records, reading the local WFDB cache and
// fetching missing records through an optional Fetcher
type Store struct {
	dataDir string
	fetcher Fetcher
	locker  Locker
	lockTTL time.Duration
	group   singleflight.Group
	logger  *zap.Logger
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithFetcher enables fetch-on-miss
func WithFetcher(f Fetcher) StoreOption {
	return func(s *Store) { s.fetcher = f }
}

// WithLocker adds cross-process fetch deduplication
func WithLocker(l Locker, ttl time.Duration) StoreOption {
	return func(s *Store) {
		s.locker = l
		s.lockTTL = ttl
	}
}

// NewStore creates a Store rooted at dataDir
func NewStore(dataDir string, logger *zap.Logger, opts ...StoreOption) *Store {
	s := &Store{
		dataDir: dataDir,
		locker:  nopLocker{},
		lockTTL: 2 * time.Minute,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DataDir local cache root
func (s *Store) DataDir() string {
	return s.dataDir
}

// Resolve returns the record for recordID. A cached record is read without network access.
// Concurrent misses for the same ID share one fetch; a caller whose ctx ends stops waiting
// without affecting the fetch other callers are waiting on.
func (s *Store) Resolve(ctx context.Context, recordID string) (*models.Record, error) {
	headerPath, err := s.headerPath(recordID)
	if err != nil {
		return nil, err
	}
	if fileExists(headerPath) {
		return s.load(recordID, headerPath)
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("%w: %s", models.ErrNotFound, recordID)
	}

	ch := s.group.DoChan(recordID, func() (interface{}, error) {
		// shared by every waiter, so not bound to the first caller's cancellation
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.lockTTL)
		defer cancel()
		return nil, s.fetch(fetchCtx, recordID, headerPath)
	})
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", models.ErrFetch, recordID, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
	}
	return s.load(recordID, headerPath)
}

func (s *Store) fetch(ctx context.Context, recordID, headerPath string) error {
	release, err := s.locker.Acquire(ctx, "ecg:fetch:"+recordID, s.lockTTL)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", models.ErrFetch, recordID, err)
	}
	defer release()

	// another process may have completed it while we waited
	if fileExists(headerPath) {
		return nil
	}

	s.logger.Info("Record not cached, fetching",
		zap.String("record_id", recordID),
	)
	if err := s.fetcher.Fetch(ctx, recordID, s.dataDir); err != nil {
		s.logger.Error("Failed to fetch record",
			zap.String("record_id", recordID),
			zap.Error(err),
		)
		if errors.Is(err, models.ErrFetch) {
			return err
		}
		return fmt.Errorf("%w: %s: %v", models.ErrFetch, recordID, err)
	}
	return nil
}

func (s *Store) load(recordID, headerPath string) (*models.Record, error) {
	f, err := os.Open(headerPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", models.ErrNotFound, recordID)
		}
		return nil, fmt.Errorf("failed to open header %s: %w", headerPath, err)
	}
	defer f.Close()

	h, err := ParseHeader(f)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", recordID, err)
	}
	samples, err := readSamples(filepath.Dir(headerPath), h)
	if err != nil {
		return nil, fmt.Errorf("record %s: %w", recordID, err)
	}

	channels := make([]models.Channel, len(h.Signals))
	for i, sig := range h.Signals {
		name := sig.Description
		if name == "" {
			name = models.LeadName(i)
		}
		channels[i] = models.Channel{
			Name:     name,
			Units:    sig.Units,
			Gain:     sig.Gain,
			Baseline: sig.Baseline,
		}
	}

	rec := &models.Record{
		ID:           recordID,
		SamplingRate: h.SamplingRate,
		ChannelCount: h.SignalCount,
		SampleCount:  len(samples),
		Channels:     channels,
		Samples:      samples,
		Comments:     h.Comments,
	}
	if err := rec.Validate(); err != nil {
		return nil, err
	}

	s.logger.Debug("Loaded record",
		zap.String("record_id", recordID),
		zap.Int("channels", rec.ChannelCount),
		zap.Int("samples", rec.SampleCount),
		zap.Float64("sampling_rate", rec.SamplingRate),
	)
	return rec, nil
}

// headerPath maps a record ID to its header inside dataDir. IDs that could escape dataDir
// are reported as not found.
func (s *Store) headerPath(recordID string) (string, error) {
	if recordID == "" || strings.HasPrefix(recordID, "/") || strings.Contains(recordID, `\`) ||
		filepath.IsAbs(recordID) {
		return "", fmt.Errorf("%w: invalid record id %q", models.ErrNotFound, recordID)
	}
	for _, part := range strings.Split(recordID, "/") {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("%w: invalid record id %q", models.ErrNotFound, recordID)
		}
	}
	return filepath.Join(s.dataDir, filepath.FromSlash(recordID)+".hea"), nil
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}
