package utils

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

var S3Client *s3.Client

func InitS3(logger *zap.Logger, cfg S3Config) error {
	sugar := logger.Sugar()
	sugar.Info("Initializing cloud storage service")

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	s3Options := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = true
		},
	}

	if cfg.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
		sugar.Info("Using custom storage endpoint configuration")
	} else {
		sugar.Info("Using default cloud storage configuration")
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	if _, err := client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return fmt.Errorf("failed to reach bucket %s: %w", cfg.Bucket, err)
	}

	S3Client = client
	sugar.Infow("Cloud storage service initialized successfully", "bucket", cfg.Bucket)
	return nil
}

// UploadFile streams src to bucket/key.
func UploadFile(ctx context.Context, src io.Reader, bucket, key string, size int64, contentType string) error {
	if S3Client == nil {
		return errors.New("s3Client is nil; call InitS3 first")
	}
	_, err := S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          src,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("put object failed: %w", err)
	}
	return nil
}
