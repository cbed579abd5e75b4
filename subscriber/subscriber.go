package subscriber

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"meeting-analysis-api/analyzer"
	"meeting-analysis-api/utils"
	valkeystore "meeting-analysis-api/valkey"

	"github.com/valkey-io/valkey-go"
	"go.uber.org/zap"
)

const (
	RunCompleteChannel = "analysis_complete"
	RunCachePrefix     = "analysis_run"
	RunCacheTTL        = 24 * time.Hour

	statePathSeparator = ">"
)

// RunCacheKey is where a run record is cached in valkey.
func RunCacheKey(runID string) string {
	return fmt.Sprintf("%s:%s", RunCachePrefix, runID)
}

// Publisher announces finished runs on the analysis_complete channel.
type Publisher struct {
	logger *zap.Logger
}

func NewPublisher(logger *zap.Logger) *Publisher {
	return &Publisher{logger: logger}
}

func (p *Publisher) AnalysisCompleted(ctx context.Context, rec analyzer.RunRecord) {
	sugar := p.logger.Sugar()

	payload, err := json.Marshal(rec)
	if err != nil {
		sugar.Errorw("Run event marshaling failed", "run_id", rec.RunID, "error", err)
		utils.RunEventsTotal.WithLabelValues("publish", "error").Inc()
		return
	}

	vk := valkeystore.RawClient
	if vk == nil {
		utils.RunEventsTotal.WithLabelValues("publish", "skipped").Inc()
		return
	}
	cmd := vk.B().Publish().Channel(RunCompleteChannel).Message(string(payload)).Build()
	if err := vk.Do(ctx, cmd).Error(); err != nil {
		sugar.Errorw("Run event publish failed", "run_id", rec.RunID, "error", err)
		utils.RunEventsTotal.WithLabelValues("publish", "error").Inc()
		return
	}
	utils.RunEventsTotal.WithLabelValues("publish", "ok").Inc()
}

// DirectRecorder stores run records synchronously. It is used when Postgres
// is configured but there is no valkey to carry events.
type DirectRecorder struct {
	logger *zap.Logger
}

func NewDirectRecorder(logger *zap.Logger) *DirectRecorder {
	return &DirectRecorder{logger: logger}
}

func (d *DirectRecorder) AnalysisCompleted(ctx context.Context, rec analyzer.RunRecord) {
	if err := StoreRunRecord(ctx, d.logger, rec); err != nil {
		d.logger.Sugar().Errorw("Run record storage failed", "run_id", rec.RunID, "error", err)
	}
}

// Start consumes run events until ctx is cancelled. It resubscribes after a
// connection error.
func Start(ctx context.Context, logger *zap.Logger) {
	sugar := logger.Sugar()
	sugar.Infow("Message subscriber started", "channel", RunCompleteChannel)

	vk := valkeystore.RawClient
	for {
		err := vk.Receive(ctx, vk.B().Subscribe().Channel(RunCompleteChannel).Build(), func(msg valkey.PubSubMessage) {
			if err := processRunEvent(ctx, logger, msg.Message); err != nil {
				sugar.Errorw("Run event processing failed", "error", err)
			}
		})
		if ctx.Err() != nil {
			sugar.Info("Message subscriber stopped")
			return
		}
		sugar.Errorw("Subscription interrupted", "channel", RunCompleteChannel, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func processRunEvent(ctx context.Context, logger *zap.Logger, message string) error {
	if strings.TrimSpace(message) == "" {
		return errors.New("empty run event")
	}
	var rec analyzer.RunRecord
	if err := json.Unmarshal([]byte(message), &rec); err != nil {
		return fmt.Errorf("decode run event: %w", err)
	}
	if rec.RunID == "" {
		return errors.New("run event without run_id")
	}
	return StoreRunRecord(ctx, logger, rec)
}

// StoreRunRecord upserts rec into analysis_runs and caches it for a day.
// Backends that were not initialized are skipped.
func StoreRunRecord(ctx context.Context, logger *zap.Logger, rec analyzer.RunRecord) error {
	sugar := logger.Sugar()

	if utils.DB != nil {
		if err := upsertRun(ctx, rec); err != nil {
			sugar.Errorw("Database storage failed", "run_id", rec.RunID, "error", err)
			utils.RunEventsTotal.WithLabelValues("store", "error").Inc()
			return err
		}
	}

	if valkeystore.Client != nil {
		jsonData, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal run record: %w", err)
		}
		if err := valkeystore.Client.Set(ctx, RunCacheKey(rec.RunID), string(jsonData), RunCacheTTL).Err(); err != nil {
			sugar.Errorw("Cache storage failed", "run_id", rec.RunID, "error", err)
			utils.RunEventsTotal.WithLabelValues("store", "error").Inc()
			return err
		}
	}

	utils.RunEventsTotal.WithLabelValues("store", "ok").Inc()
	sugar.Debugw("Run record stored", "run_id", rec.RunID)
	return nil
}

func upsertRun(ctx context.Context, rec analyzer.RunRecord) error {
	_, err := utils.DB.ExecContext(ctx, `
		INSERT INTO analysis_runs (run_id, file_name, size_bytes, mime_type, analysis_type,
			fallback_reason, state_path, segment_count, engagement_score, duration_ms, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (run_id) DO UPDATE SET
			analysis_type = EXCLUDED.analysis_type,
			fallback_reason = EXCLUDED.fallback_reason,
			state_path = EXCLUDED.state_path,
			segment_count = EXCLUDED.segment_count,
			engagement_score = EXCLUDED.engagement_score,
			duration_ms = EXCLUDED.duration_ms,
			finished_at = EXCLUDED.finished_at
	`,
		rec.RunID, rec.Filename, rec.SizeBytes, rec.MIMEType, rec.AnalysisType,
		nullString(rec.FallbackReason), JoinStatePath(rec.StatePath), rec.SegmentCount,
		rec.EngagementScore, rec.DurationMillis, rec.FinishedAt)
	return err
}

// JoinStatePath is the column encoding of a state path, e.g. "RECEIVED>VALIDATED>...".
func JoinStatePath(path []analyzer.State) string {
	parts := make([]string, len(path))
	for i, s := range path {
		parts[i] = string(s)
	}
	return strings.Join(parts, statePathSeparator)
}

// SplitStatePath reverses JoinStatePath.
func SplitStatePath(s string) []analyzer.State {
	if s == "" {
		return []analyzer.State{}
	}
	parts := strings.Split(s, statePathSeparator)
	path := make([]analyzer.State, len(parts))
	for i, p := range parts {
		path[i] = analyzer.State(p)
	}
	return path
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
