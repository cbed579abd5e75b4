package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"meeting-analysis-api/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ObjectAPI is the part of the S3 client the janitor needs. *s3.Client
// satisfies it.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Janitor periodically deletes staged uploads older than the retention
// period, either from a local folder or from a bucket prefix.
type Janitor struct {
	retention time.Duration
	logger    *zap.Logger
	cron      *cron.Cron
	now       func() time.Time

	dir string

	objects ObjectAPI
	bucket  string
	prefix  string
}

// NewJanitor sweeps the local folder dir.
func NewJanitor(logger *zap.Logger, dir string, retention time.Duration) *Janitor {
	j := newJanitor(logger, retention)
	j.dir = dir
	return j
}

// NewBucketJanitor sweeps objects under prefix in bucket.
func NewBucketJanitor(logger *zap.Logger, api ObjectAPI, bucket, prefix string, retention time.Duration) *Janitor {
	j := newJanitor(logger, retention)
	j.objects = api
	j.bucket = bucket
	j.prefix = prefix
	return j
}

func newJanitor(logger *zap.Logger, retention time.Duration) *Janitor {
	cl := CronLogger(logger)
	return &Janitor{
		retention: retention,
		logger:    logger,
		cron:      cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		now:       time.Now,
	}
}

func (j *Janitor) storeName() string {
	if j.objects != nil {
		return "s3"
	}
	return "local"
}

func (j *Janitor) location() string {
	if j.objects != nil {
		return fmt.Sprintf("s3://%s/%s", j.bucket, j.prefix)
	}
	return j.dir
}

// Start schedules sweeps on spec (standard cron syntax or descriptors such as
// "@every 10m").
func (j *Janitor) Start(spec string) error {
	_, err := j.cron.AddFunc(spec, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.logger.Warn("Upload sweep failed", zap.String("location", j.location()), zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to add sweep job: %w", err)
	}
	j.cron.Start()
	j.logger.Info("Upload janitor started",
		zap.String("location", j.location()),
		zap.String("schedule", spec),
		zap.Duration("retention", j.retention))
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	<-j.cron.Stop().Done()
}

// Sweep removes expired uploads and returns how many were deleted.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	cutoff := j.now().Add(-j.retention)

	var removed int
	var err error
	if j.objects != nil {
		removed, err = j.sweepBucket(ctx, cutoff)
	} else {
		removed, err = j.sweepDir(cutoff)
	}

	if removed > 0 {
		utils.UploadsSweptTotal.WithLabelValues(j.storeName()).Add(float64(removed))
		j.logger.Info("Expired uploads removed",
			zap.String("location", j.location()),
			zap.Int("count", removed))
	}
	return removed, err
}

func (j *Janitor) sweepDir(cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(j.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read upload folder: %w", err)
	}

	removed := 0
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(j.dir, e.Name())); err != nil && !os.IsNotExist(err) {
			j.logger.Warn("Failed to remove staged upload", zap.String("file", e.Name()), zap.Error(err))
			continue
		}
		removed++
	}
	return removed, nil
}

// sweepBucket deletes one listing page at a time; a page holds at most 1000
// keys, which is also the DeleteObjects limit.
func (j *Janitor) sweepBucket(ctx context.Context, cutoff time.Time) (int, error) {
	pages := s3.NewListObjectsV2Paginator(j.objects, &s3.ListObjectsV2Input{
		Bucket: aws.String(j.bucket),
		Prefix: aws.String(j.prefix),
	})

	removed := 0
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return removed, fmt.Errorf("list staged objects: %w", err)
		}

		var expired []types.ObjectIdentifier
		for _, obj := range page.Contents {
			if obj.Key == nil || obj.LastModified == nil || obj.LastModified.After(cutoff) {
				continue
			}
			expired = append(expired, types.ObjectIdentifier{Key: obj.Key})
		}
		if len(expired) == 0 {
			continue
		}

		out, err := j.objects.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(j.bucket),
			Delete: &types.Delete{Objects: expired, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return removed, fmt.Errorf("delete staged objects: %w", err)
		}
		for _, e := range out.Errors {
			j.logger.Warn("Failed to remove staged upload",
				zap.String("key", aws.ToString(e.Key)),
				zap.String("code", aws.ToString(e.Code)),
				zap.String("message", aws.ToString(e.Message)))
		}
		removed += len(expired) - len(out.Errors)
	}
	return removed, nil
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

// CronLogger routes the scheduler's own messages through zap. Routine
// scheduler chatter goes to debug.
func CronLogger(logger *zap.Logger) cron.Logger {
	return cronLogger{sugar: logger.Sugar()}
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
