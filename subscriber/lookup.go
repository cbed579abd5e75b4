package subscriber

import (
	"context"
	"encoding/json"
	"fmt"

	"meeting-analysis-api/analyzer"
	valkeystore "meeting-analysis-api/valkey"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/valkey-io/valkey-go"
)

// RunLookup finds a run record by id. found is false when the record is
// unknown or has expired.
type RunLookup interface {
	Lookup(ctx context.Context, runID string) (rec analyzer.RunRecord, found bool, err error)
}

// CacheLookup reads the records StoreRunRecord puts into valkey.
type CacheLookup struct{}

func (CacheLookup) Lookup(ctx context.Context, runID string) (analyzer.RunRecord, bool, error) {
	var rec analyzer.RunRecord
	data, err := valkeystore.Client.Get(ctx, RunCacheKey(runID)).Result()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return rec, false, nil
		}
		return rec, false, err
	}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return rec, false, fmt.Errorf("decode cached run %s: %w", runID, err)
	}
	return rec, true, nil
}

// RecentRuns keeps the last few run records in process memory. It is the
// lookup used when no valkey is configured.
type RecentRuns struct {
	cache *lru.Cache[string, analyzer.RunRecord]
}

func NewRecentRuns(size int) (*RecentRuns, error) {
	c, err := lru.New[string, analyzer.RunRecord](size)
	if err != nil {
		return nil, err
	}
	return &RecentRuns{cache: c}, nil
}

func (r *RecentRuns) AnalysisCompleted(_ context.Context, rec analyzer.RunRecord) {
	r.cache.Add(rec.RunID, rec)
}

func (r *RecentRuns) Lookup(_ context.Context, runID string) (analyzer.RunRecord, bool, error) {
	rec, ok := r.cache.Get(runID)
	return rec, ok, nil
}
