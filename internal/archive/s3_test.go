package archive

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	pages  []*s3.ListObjectsV2Output
	err    error
	inputs []*s3.ListObjectsV2Input
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	page := f.pages[0]
	f.pages = f.pages[1:]
	return page, nil
}

func TestS3Lister_List(t *testing.T) {
	modified := time.Date(2023, 5, 1, 19, 0, 0, 0, time.FixedZone("JST", 9*3600))
	client := &fakeS3{pages: []*s3.ListObjectsV2Output{
		{
			Contents: []types.Object{
				{Key: aws.String("vthell/Archival/"), Size: aws.Int64(0), ETag: aws.String(`"root"`)},
				{Key: aws.String("vthell/Archival/2023/"), Size: aws.Int64(0), ETag: aws.String(`"d1"`), LastModified: &modified},
			},
			IsTruncated:           aws.Bool(true),
			NextContinuationToken: aws.String("page-2"),
		},
		{
			Contents: []types.Object{
				{Key: aws.String("vthell/Archival/2023/a.mkv"), Size: aws.Int64(42), ETag: aws.String(`"abc123"`), LastModified: &modified},
				{Key: aws.String("vthell/Archival/2023/notes"), Size: aws.Int64(7), LastModified: &modified},
			},
		},
	}}

	lister := newS3ListerWithClient(client, "archive", "vthell")
	entries, err := lister.List(context.Background(), "Archival")
	require.NoError(t, err)

	require.Len(t, client.inputs, 2)
	require.Equal(t, "archive", aws.ToString(client.inputs[0].Bucket))
	require.Equal(t, "vthell/Archival/", aws.ToString(client.inputs[0].Prefix))
	require.Equal(t, "page-2", aws.ToString(client.inputs[1].ContinuationToken))

	require.Len(t, entries, 3)

	require.Equal(t, "2023", entries[0].Path)
	require.True(t, entries[0].IsDir)
	require.Equal(t, int64(-1), entries[0].Size)
	require.Equal(t, "inode/directory", entries[0].MimeType)
	require.Equal(t, "d1", entries[0].ID)
	require.Equal(t, "2023-05-01T10:00:00Z", entries[0].ModTime)

	require.Equal(t, "2023/a.mkv", entries[1].Path)
	require.Equal(t, "a.mkv", entries[1].Name)
	require.Equal(t, int64(42), entries[1].Size)
	require.Equal(t, "abc123", entries[1].ID)
	require.False(t, entries[1].IsDir)

	require.Equal(t, "application/octet-stream", entries[2].MimeType)
	require.Equal(t, "vthell/Archival/2023/notes", entries[2].ID)
}

func TestS3Lister_FeedsBuilder(t *testing.T) {
	modified := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	client := &fakeS3{pages: []*s3.ListObjectsV2Output{{
		Contents: []types.Object{
			{Key: aws.String("Stream Archive/a.txt"), Size: aws.Int64(100), ETag: aws.String(`"X1"`), LastModified: &modified},
			{Key: aws.String("Stream Archive/sub/b.txt"), Size: aws.Int64(50), ETag: aws.String(`"X2"`), LastModified: &modified},
		},
	}}}

	entries, err := Collect(context.Background(), newS3ListerWithClient(client, "bucket", ""), []string{"Stream Archive"})
	require.NoError(t, err)

	_, total, err := newTestBuilder().Build(entries)
	require.NoError(t, err)
	require.Equal(t, int64(150), total)
}

func TestS3Lister_ListError(t *testing.T) {
	client := &fakeS3{err: errors.New("access denied")}

	_, err := newS3ListerWithClient(client, "archive", "").List(context.Background(), "Archival")
	require.Error(t, err)
	require.Contains(t, err.Error(), "s3://archive/Archival/")
}

func TestNewS3Lister_RequiresBucket(t *testing.T) {
	_, err := NewS3Lister(context.Background(), S3Options{})
	require.Error(t, err)
}

func TestNewS3Lister_CustomEndpoint(t *testing.T) {
	lister, err := NewS3Lister(context.Background(), S3Options{
		Bucket:          "archive",
		Prefix:          "vthell",
		Endpoint:        "http://127.0.0.1:9000",
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
	})
	require.NoError(t, err)
	require.Equal(t, "vthell/", lister.prefix)
	require.Equal(t, "archive", lister.bucket)
}
