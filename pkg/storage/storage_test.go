package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubS3 struct {
	headErr  error
	putInput *s3.PutObjectInput
	putErr   error
	pages    []*s3.ListObjectsV2Output
	listErr  error
	calls    int
}

func (s *stubS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if s.headErr != nil {
		return nil, s.headErr
	}
	return &s3.HeadObjectOutput{ContentLength: aws.Int64(42)}, nil
}

func (s *stubS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.putInput = params
	if s.putErr != nil {
		return nil, s.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := s.pages[s.calls]
	s.calls++
	return out, nil
}

func TestHead(t *testing.T) {
	c := NewWithAPI(&stubS3{})

	size, err := c.Head(context.Background(), "bucket", "nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, int64(42), size)
}

func TestHeadNotFound(t *testing.T) {
	c := NewWithAPI(&stubS3{headErr: &s3types.NotFound{}})

	_, err := c.Head(context.Background(), "bucket", "missing.ipynb")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	var stErr *StorageError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "Head", stErr.Op)
	assert.Equal(t, "bucket", stErr.Bucket)
}

func TestPut(t *testing.T) {
	stub := &stubS3{}
	c := NewWithAPI(stub)

	body := strings.NewReader("content")
	err := c.Put(context.Background(), "bucket", "nb/nb.ipynb", body, 7)
	require.NoError(t, err)

	assert.Equal(t, "bucket", aws.ToString(stub.putInput.Bucket))
	assert.Equal(t, "nb/nb.ipynb", aws.ToString(stub.putInput.Key))
	assert.Equal(t, int64(7), aws.ToInt64(stub.putInput.ContentLength))
}

func TestListKeysFollowsContinuation(t *testing.T) {
	stub := &stubS3{
		pages: []*s3.ListObjectsV2Output{
			{
				Contents: []s3types.Object{
					{Key: aws.String("nb/a.ipynb")},
					{Key: aws.String("nb/b.ipynb")},
				},
				IsTruncated:           aws.Bool(true),
				NextContinuationToken: aws.String("t1"),
			},
			{
				Contents: []s3types.Object{
					{Key: aws.String("nb/c.ipynb")},
				},
				IsTruncated: aws.Bool(false),
			},
		},
	}
	c := NewWithAPI(stub)

	keys, err := c.ListKeys(context.Background(), "bucket", "nb/")
	require.NoError(t, err)

	assert.Equal(t, []string{"nb/a.ipynb", "nb/b.ipynb", "nb/c.ipynb"}, keys)
	assert.Equal(t, 2, stub.calls)
}
