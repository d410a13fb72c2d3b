package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/zfogg/snapshare/internal/config"
	"github.com/zfogg/snapshare/internal/logger"
	"go.uber.org/zap"
)

// s3API is the subset of the S3 client used here
type s3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, params *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Backend stores media in an S3-compatible object store (MinIO in development)
type S3Backend struct {
	client  s3API
	bucket  string
	region  string
	baseURL string
}

// NewS3Backend creates an S3 backend addressed by endpoint and port with
// static credentials and path-style URLs
func NewS3Backend(ctx context.Context, cfg config.StorageConfig) (*S3Backend, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	baseURL := endpointURL(cfg)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(baseURL)
		o.UsePathStyle = true
	})

	return newS3Backend(client, cfg.Bucket, cfg.Region, baseURL), nil
}

func newS3Backend(client s3API, bucket, region, baseURL string) *S3Backend {
	return &S3Backend{
		client:  client,
		bucket:  bucket,
		region:  region,
		baseURL: baseURL,
	}
}

// endpointURL builds http[s]://endpoint:port
func endpointURL(cfg config.StorageConfig) string {
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, cfg.Endpoint, cfg.Port)
}

// Put uploads the object and returns its absolute URL
func (b *S3Backend) Put(ctx context.Context, data []byte, name, contentType string) (string, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		// Objects are immutable; names are never reused
		CacheControl: aws.String("max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", b.baseURL, b.bucket, name), nil
}

// EnsureContainerExists creates the bucket if absent and applies a
// public-read policy. A bucket created by a concurrent caller counts as success.
func (b *S3Backend) EnsureContainerExists(ctx context.Context, name string) error {
	if _, err := b.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)}); err != nil {
		input := &s3.CreateBucketInput{Bucket: aws.String(name)}
		if b.region != "" && b.region != "us-east-1" {
			input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
				LocationConstraint: types.BucketLocationConstraint(b.region),
			}
		}

		if _, err := b.client.CreateBucket(ctx, input); err != nil {
			if !isBucketExists(err) {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
			logger.Log.Debug("Bucket created concurrently", zap.String("bucket", name))
		} else {
			logger.Log.Info("Created bucket", zap.String("bucket", name))
		}
	}

	_, err := b.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(publicReadPolicy(name)),
	})
	if err != nil {
		return fmt.Errorf("failed to set bucket policy on %s: %w", name, err)
	}

	return nil
}

// ContainerName returns the bucket
func (b *S3Backend) ContainerName() string {
	return b.bucket
}

// Name returns "s3"
func (b *S3Backend) Name() string {
	return "s3"
}

func isBucketExists(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if errors.As(err, &owned) || errors.As(err, &exists) {
		return true
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
			return true
		}
	}
	return false
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, bucket)
}
