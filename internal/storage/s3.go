package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/valter-silva-au/hooklens/pkg/models"
	"go.uber.org/zap"
)

const defaultS3Region = "us-east-1"

// s3API is the subset of the S3 client the adapter calls.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Adapter reads log objects from an S3-compatible bucket.
type S3Adapter struct {
	client s3API
	bucket string
	prefix string
	opts   Options
}

// NewS3Adapter builds an S3 client. Credentials come from the default AWS
// chain; inline keys in cfg are used only when the environment has none.
func NewS3Adapter(ctx context.Context, cfg models.StorageConfig, opts Options) (*S3Adapter, error) {
	opts = opts.withDefaults()
	if cfg.Bucket == "" {
		return nil, newError(KindInvalid, "s3://", fmt.Errorf("bucket is required"))
	}

	region := cfg.Region
	if region == "" {
		region = opts.Getenv("AWS_REGION")
	}
	if region == "" {
		region = defaultS3Region
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if opts.Getenv("AWS_ACCESS_KEY_ID") == "" && cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts.Logger.Warn("using inline S3 credentials from storage config; prefer environment credentials",
			zap.String("bucket", cfg.Bucket))
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, newError(KindInvalid, "s3://"+cfg.Bucket, fmt.Errorf("loading AWS config: %w", err))
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3AdapterWithClient(client, cfg.Bucket, cfg.Prefix, opts), nil
}

func newS3AdapterWithClient(client s3API, bucket, prefix string, opts Options) *S3Adapter {
	return &S3Adapter{client: client, bucket: bucket, prefix: strings.TrimPrefix(prefix, "/"), opts: opts.withDefaults()}
}

func (a *S3Adapter) Location() string {
	if a.prefix == "" {
		return "s3://" + a.bucket
	}
	return "s3://" + a.bucket + "/" + a.prefix
}

func (a *S3Adapter) ListFiles(ctx context.Context) ([]models.FileDescriptor, error) {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(a.bucket)}
	if a.prefix != "" {
		input.Prefix = aws.String(a.prefix)
	}

	var files []models.FileDescriptor
	paginator := s3.NewListObjectsV2Paginator(a.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, classifyS3(a.Location(), err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			name := path.Base(key)
			if strings.HasSuffix(key, "/") || !hasExtension(name, a.opts.Extensions) {
				continue
			}
			size := aws.ToInt64(obj.Size)
			files = append(files, models.FileDescriptor{
				Path:                key,
				Name:                name,
				Size:                size,
				Modified:            aws.ToTime(obj.LastModified),
				Type:                fileType(name),
				EstimatedEntryCount: EstimateEntries(size),
			})
		}
	}
	sortNewestFirst(files)
	return files, nil
}

// ReadLines streams an object. path is an object key or a full s3:// URL.
func (a *S3Adapter) ReadLines(ctx context.Context, key string) iter.Seq2[string, error] {
	key = strings.TrimPrefix(key, "s3://"+a.bucket+"/")
	location := "s3://" + a.bucket + "/" + key
	return scanLines(ctx, location, a.opts.MaxLineBytes, func(ctx context.Context) (io.ReadCloser, error) {
		out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(a.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, classifyS3(location, err)
		}
		return out.Body, nil
	})
}

func (a *S3Adapter) TestConnection(ctx context.Context) models.ConnectionResult {
	input := &s3.ListObjectsV2Input{Bucket: aws.String(a.bucket), MaxKeys: aws.Int32(1)}
	if a.prefix != "" {
		input.Prefix = aws.String(a.prefix)
	}
	if _, err := a.client.ListObjectsV2(ctx, input); err != nil {
		err = classifyS3(a.Location(), err)
		return models.ConnectionResult{Message: err.Error(), Kind: string(KindOf(err))}
	}
	return models.ConnectionResult{
		Success: true,
		Message: fmt.Sprintf("connected to S3 bucket %s", a.bucket),
	}
}

func classifyS3(location string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket", "NoSuchKey", "NotFound":
			return newError(KindNotFound, location, err)
		case "AccessDenied", "Forbidden", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return newError(KindAccessDenied, location, err)
		}
	}
	if code := httpStatus(err); code != 0 {
		return newError(kindForStatus(code), location, err)
	}
	if strings.Contains(err.Error(), "failed to retrieve credentials") {
		return newError(KindAccessDenied, location, err)
	}
	return newError(KindNetwork, location, err)
}
