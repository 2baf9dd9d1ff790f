package archive

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"vthell-api/pkg/models"
)

// S3Options configures an S3-compatible bucket as the archive feed
type S3Options struct {
	Bucket          string
	Prefix          string
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// S3Lister lists archive categories stored as key prefixes in a bucket
type S3Lister struct {
	client s3.ListObjectsV2APIClient
	bucket string
	prefix string
}

// NewS3Lister creates a lister from static credentials. An empty endpoint
// uses AWS; set it for R2, MinIO and other compatible stores.
func NewS3Lister(ctx context.Context, opts S3Options) (*S3Lister, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is required")
	}
	region := opts.Region
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if opts.AccessKeyID != "" || opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	if opts.Endpoint != "" {
		endpoint := opts.Endpoint
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{URL: endpoint}, nil
		})
		loadOpts = append(loadOpts, awsconfig.WithEndpointResolverWithOptions(resolver))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.Endpoint != ""
	})
	return newS3ListerWithClient(client, opts.Bucket, opts.Prefix), nil
}

func newS3ListerWithClient(client s3.ListObjectsV2APIClient, bucket, prefix string) *S3Lister {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Lister{client: client, bucket: bucket, prefix: prefix}
}

// List pages through every object under the category prefix. Keys ending in
// "/" are folder markers.
func (l *S3Lister) List(ctx context.Context, category string) ([]models.Entry, error) {
	prefix := l.prefix + category + "/"
	paginator := s3.NewListObjectsV2Paginator(l.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	})

	var entries []models.Entry
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", l.bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			rel := strings.TrimPrefix(key, prefix)
			if rel == "" {
				continue
			}

			isDir := strings.HasSuffix(rel, "/")
			rel = strings.TrimSuffix(rel, "/")

			entry := models.Entry{
				Path:  rel,
				Name:  path.Base(rel),
				Size:  aws.ToInt64(obj.Size),
				IsDir: isDir,
				ID:    strings.Trim(aws.ToString(obj.ETag), `"`),
			}
			if entry.ID == "" {
				entry.ID = key
			}
			if obj.LastModified != nil {
				entry.ModTime = obj.LastModified.UTC().Format(time.RFC3339Nano)
			}
			if isDir {
				entry.Size = -1
				entry.MimeType = "inode/directory"
			} else {
				entry.MimeType = mimeTypeOf(rel)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

func mimeTypeOf(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
