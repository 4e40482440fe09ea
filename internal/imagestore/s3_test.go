package imagestore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeObject struct {
	data []byte
	mime string
}

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]fakeObject
	failGet error
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string]fakeObject{}}
}

func (f *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = fakeObject{data: data, mime: aws.ToString(in.ContentType)}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.failGet != nil {
		return nil, f.failGet
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: aws.String(obj.mime),
	}, nil
}

func (f *fakeBucket) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3RoundTrip(t *testing.T) {
	ctx := context.Background()
	bucket := newFakeBucket()
	s := newS3(bucket, "catalog", "")

	require.NoError(t, s.Put(ctx, 7, Image{Data: []byte("jpeg"), MIME: "image/jpeg"}))
	assert.Contains(t, bucket.objects, "catalog/species/7")

	img, err := s.Get(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, img)
	assert.Equal(t, []byte("jpeg"), img.Data)
	assert.Equal(t, "image/jpeg", img.MIME)

	require.NoError(t, s.Delete(ctx, 7))
	img, err = s.Get(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, img)
}

func TestS3CustomPrefix(t *testing.T) {
	bucket := newFakeBucket()
	s := newS3(bucket, "b", "photos")

	require.NoError(t, s.Put(context.Background(), 3, Image{Data: []byte{1}, MIME: "image/jpeg"}))
	assert.Contains(t, bucket.objects, "b/photos/3")
}

func TestS3GetError(t *testing.T) {
	bucket := newFakeBucket()
	bucket.failGet = errors.New("connection reset")
	s := newS3(bucket, "b", "")

	_, err := s.Get(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{Region: "us-east-1"})
	assert.Error(t, err)
}
