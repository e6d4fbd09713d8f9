package content

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	appErr "github.com/abnzrdev/trainer/pkg/errors"
)

const packFileSuffix = ".json.zst"

// Store is the local sample cache: one compressed pack file per
// (contest, problem) under the cache root.
type Store struct {
	rootDir string
	fetcher *Fetcher // nil when running offline

	mu sync.Mutex
}

// NewStore creates a sample store rooted at rootDir. fetcher may be nil;
// then only already-cached samples are served.
func NewStore(rootDir string, fetcher *Fetcher) *Store {
	return &Store{rootDir: rootDir, fetcher: fetcher}
}

// Samples returns the ordered samples for a problem. Cached packs are served
// from disk; on a miss the remote fetcher is consulted and the result cached.
// A miss with no fetcher (or a remote 404) surfaces as a SamplesNotCached
// error that callers must treat as a setup failure before verification.
func (s *Store) Samples(ctx context.Context, contest, problemID string) ([]Sample, error) {
	if contest == "" || problemID == "" {
		return nil, appErr.ValidationError("contest/problem_id", "required")
	}

	pack, err := s.readPack(contest, problemID)
	if err == nil {
		return pack.Samples, nil
	}
	if !appErr.Is(err, appErr.SamplesNotCached) {
		return nil, err
	}

	if s.fetcher == nil {
		return nil, appErr.Newf(appErr.SamplesNotCached,
			"no cached samples for contest=%q problem=%q", contest, problemID)
	}

	fetched, err := s.fetcher.Fetch(ctx, contest, problemID)
	if err != nil {
		return nil, err
	}
	if err := s.Put(fetched); err != nil {
		return nil, err
	}
	return fetched.Samples, nil
}

// Put caches a pack on disk, replacing any previous version atomically.
func (s *Store) Put(pack *SamplePack) error {
	if pack == nil || pack.Contest == "" || pack.ProblemID == "" {
		return appErr.ValidationError("pack", "required")
	}

	data, err := encodePack(pack)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.packPath(pack.Contest, pack.ProblemID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "create cache directory failed")
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return appErr.Wrapf(err, appErr.CacheError, "write sample pack failed")
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return appErr.Wrapf(err, appErr.CacheError, "commit sample pack failed")
	}
	return nil
}

// Cached reports whether a pack exists locally for the problem.
func (s *Store) Cached(contest, problemID string) bool {
	_, err := os.Stat(s.packPath(contest, problemID))
	return err == nil
}

func (s *Store) readPack(contest, problemID string) (*SamplePack, error) {
	data, err := os.ReadFile(s.packPath(contest, problemID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, appErr.Newf(appErr.SamplesNotCached,
				"no cached samples for contest=%q problem=%q", contest, problemID)
		}
		return nil, appErr.Wrapf(err, appErr.CacheError, "read sample pack failed")
	}
	return decodePack(data)
}

func (s *Store) packPath(contest, problemID string) string {
	return filepath.Join(s.rootDir, contest, problemID+packFileSuffix)
}
