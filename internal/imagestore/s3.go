package imagestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config describes an S3 compatible bucket (AWS or MinIO).
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	Prefix    string
}

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3 stores photos as objects in a bucket.
type S3 struct {
	client objectAPI
	bucket string
	prefix string
}

// NewS3 builds an S3 client from static credentials. A custom endpoint
// switches to path-style addressing, which MinIO needs.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3(client objectAPI, bucket, prefix string) *S3 {
	if prefix == "" {
		prefix = "species"
	}
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) key(speciesID int64) string {
	return fmt.Sprintf("%s/%d", s.prefix, speciesID)
}

func (s *S3) Put(ctx context.Context, speciesID int64, img Image) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key(speciesID)),
		Body:          bytes.NewReader(img.Data),
		ContentType:   aws.String(img.MIME),
		ContentLength: aws.Int64(int64(len(img.Data))),
	})
	if err != nil {
		return fmt.Errorf("uploading species image: %w", err)
	}
	return nil
}

func (s *S3) Get(ctx context.Context, speciesID int64) (*Image, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(speciesID)),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, nil
		}
		return nil, fmt.Errorf("downloading species image: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading species image: %w", err)
	}

	mime := aws.ToString(out.ContentType)
	if mime == "" {
		mime = "application/octet-stream"
	}
	return &Image{Data: data, MIME: mime}, nil
}

func (s *S3) Delete(ctx context.Context, speciesID int64) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(speciesID)),
	})
	if err != nil {
		return fmt.Errorf("deleting species image: %w", err)
	}
	return nil
}
