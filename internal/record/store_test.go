package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/floudata/pucp-time-series/internal/models"
)

// fakeFetcher materializes the test record after an optional delay
type fakeFetcher struct {
	calls   atomic.Int32
	delay   time.Duration
	err     error
	blockCh chan struct{}
}

func (f *fakeFetcher) Fetch(ctx context.Context, recordID, dataDir string) error {
	f.calls.Add(1)
	if f.blockCh != nil {
		<-f.blockCh
	}
	time.Sleep(f.delay)
	if f.err != nil {
		return f.err
	}
	return buildRecordFiles(dataDir, recordID, 500, 1000, testLeads(12, 10))
}

func TestStore_Resolve_Cached(t *testing.T) {
	dataDir := t.TempDir()
	writeRecord(t, dataDir, testRecordID)
	store := NewStore(dataDir, zap.NewNop())

	rec, err := store.Resolve(context.Background(), testRecordID)
	require.NoError(t, err)

	assert.Equal(t, testRecordID, rec.ID)
	assert.Equal(t, 500.0, rec.SamplingRate)
	assert.Equal(t, 12, rec.ChannelCount)
	assert.Equal(t, 10, rec.SampleCount)
	assert.Equal(t, "II", rec.Channels[1].Name)
	assert.Equal(t, "mV", rec.Channels[1].Units)
	assert.InDelta(t, 0.203, rec.Samples[3][2], 1e-12)
	assert.InDelta(t, 1.109, rec.Samples[9][11], 1e-12)
	assert.Equal(t, []string{"Age: 59", "Sex: Female", "Dx: 426177001,164934002", "Rx: Unknown"}, rec.Comments)
	assert.NoError(t, rec.Validate())
}

func TestStore_Resolve_NotCachedWithoutFetcher(t *testing.T) {
	store := NewStore(t.TempDir(), zap.NewNop())

	_, err := store.Resolve(context.Background(), testRecordID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestStore_Resolve_InvalidIDs(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := NewStore(t.TempDir(), zap.NewNop(), WithFetcher(fetcher))

	for _, id := range []string{"", "../etc/passwd", "/abs/JS00001", "a/../b", "a//b", `a\b`, "./a"} {
		_, err := store.Resolve(context.Background(), id)
		assert.ErrorIs(t, err, models.ErrNotFound, "id %q", id)
	}
	assert.Zero(t, fetcher.calls.Load())
}

func TestStore_Resolve_FetchOnMiss(t *testing.T) {
	dataDir := t.TempDir()
	fetcher := &fakeFetcher{}
	store := NewStore(dataDir, zap.NewNop(), WithFetcher(fetcher))

	rec, err := store.Resolve(context.Background(), testRecordID)
	require.NoError(t, err)
	assert.Equal(t, 12, rec.ChannelCount)

	// second resolution is served from the cache
	_, err = store.Resolve(context.Background(), testRecordID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestStore_Resolve_ConcurrentMissesShareOneFetch(t *testing.T) {
	fetcher := &fakeFetcher{delay: 50 * time.Millisecond}
	store := NewStore(t.TempDir(), zap.NewNop(), WithFetcher(fetcher))

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.Resolve(context.Background(), testRecordID)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestStore_Resolve_FetchError(t *testing.T) {
	dataDir := t.TempDir()
	fetcher := &fakeFetcher{err: fmt.Errorf("%w: JS00001.hea not found on remote", models.ErrFetch)}
	store := NewStore(dataDir, zap.NewNop(), WithFetcher(fetcher))

	rec, err := store.Resolve(context.Background(), testRecordID)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, models.ErrFetch)

	// failures are not cached
	_, err = store.Resolve(context.Background(), testRecordID)
	assert.ErrorIs(t, err, models.ErrFetch)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}

func TestStore_Resolve_FetcherErrorIsWrapped(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("disk full")}
	store := NewStore(t.TempDir(), zap.NewNop(), WithFetcher(fetcher))

	_, err := store.Resolve(context.Background(), testRecordID)
	assert.ErrorIs(t, err, models.ErrFetch)
	assert.Contains(t, err.Error(), "disk full")
}

func TestStore_Resolve_CallerCancellation(t *testing.T) {
	fetcher := &fakeFetcher{blockCh: make(chan struct{})}
	store := NewStore(t.TempDir(), zap.NewNop(), WithFetcher(fetcher))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := store.Resolve(ctx, testRecordID)
	assert.ErrorIs(t, err, models.ErrFetch)

	// the shared fetch keeps running and completes for later callers
	close(fetcher.blockCh)
	require.Eventually(t, func() bool {
		_, err := store.Resolve(context.Background(), testRecordID)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), fetcher.calls.Load())
}

func TestStore_Resolve_Malformed(t *testing.T) {
	dataDir := t.TempDir()
	writeRecord(t, dataDir, testRecordID)
	// header claims more samples than the data file holds
	hea := filepath.Join(dataDir, filepath.FromSlash(testRecordID)+".hea")
	require.NoError(t, os.WriteFile(hea, []byte("JS00001 1 500 999\nJS00001.mat 16+24 1000/mV 16 0 0 0 0 I\n"), 0o644))
	store := NewStore(dataDir, zap.NewNop())

	_, err := store.Resolve(context.Background(), testRecordID)
	assert.ErrorIs(t, err, models.ErrMalformedRecord)
}

// completingLocker simulates another process finishing the fetch while we waited
type completingLocker struct {
	dataDir string
	keys    []string
}

func (l *completingLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	l.keys = append(l.keys, key)
	if err := buildRecordFiles(l.dataDir, testRecordID, 500, 1000, testLeads(12, 10)); err != nil {
		return nil, err
	}
	return func() {}, nil
}

func TestStore_Resolve_RechecksCacheAfterLock(t *testing.T) {
	dataDir := t.TempDir()
	fetcher := &fakeFetcher{}
	locker := &completingLocker{dataDir: dataDir}
	store := NewStore(dataDir, zap.NewNop(), WithFetcher(fetcher), WithLocker(locker, time.Minute))

	rec, err := store.Resolve(context.Background(), testRecordID)
	require.NoError(t, err)
	assert.Equal(t, testRecordID, rec.ID)
	assert.Zero(t, fetcher.calls.Load())
	assert.Equal(t, []string{"ecg:fetch:" + testRecordID}, locker.keys)
}
