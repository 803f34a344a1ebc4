package target

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"dashcamtransporter/internal/config"
	"dashcamtransporter/internal/logging"
)

// s3API is the S3 surface used by the target: the uploader's calls plus HeadObject.
type s3API interface {
	manager.UploadAPIClient
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 uploads to an S3-compatible bucket.
type S3 struct {
	bucket   string
	prefix   string
	client   s3API
	uploader *manager.Uploader
	logger   *slog.Logger
}

// NewS3 builds an S3 target with static credentials. A custom endpoint enables
// MinIO and other S3-compatible stores.
func NewS3(ctx context.Context, cfg config.S3, logger *slog.Logger) (*S3, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.PathStyle || cfg.Endpoint != ""
	})
	return newS3WithClient(cfg, client, logger), nil
}

func newS3WithClient(cfg config.S3, client s3API, logger *slog.Logger) *S3 {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &S3{
		bucket:   cfg.Bucket,
		prefix:   lockedDir(cfg.Prefix),
		client:   client,
		uploader: manager.NewUploader(client),
		logger:   logger,
	}
}

func (s *S3) Name() string { return "S3" }

// Upload streams the file with the multipart uploader and confirms ContentLength.
func (s *S3) Upload(ctx context.Context, file LocalFile) error {
	key := path.Join(s.prefix, file.Name)

	f, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", file.Path, err)
	}
	defer f.Close()

	s.logger.Debug("uploading file to s3",
		logging.File(file.Name),
		logging.String("key", key),
	)
	if _, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(file.Name)),
	}); err != nil {
		return fmt.Errorf("s3 upload %s: %w", key, err)
	}

	head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 head %s: %v", ErrVerify, key, err)
	}
	return verifySize(key, file.Size, aws.ToInt64(head.ContentLength))
}

func contentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".mp4":
		return "video/mp4"
	case ".mov":
		return "video/quicktime"
	case ".avi":
		return "video/x-msvideo"
	case ".mkv":
		return "video/x-matroska"
	case ".ts":
		return "video/mp2t"
	default:
		return "application/octet-stream"
	}
}
