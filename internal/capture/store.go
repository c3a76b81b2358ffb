package capture

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Store reads and writes capture data in one bucket.
type Store struct {
	s3     S3API
	bucket string
	newID  func() string
}

func NewStore(cfg aws.Config, bucket string) *Store {
	return NewStoreWithClient(s3.NewFromConfig(cfg), bucket)
}

func NewStoreWithClient(c S3API, bucket string) *Store {
	return &Store{s3: c, bucket: bucket, newID: uuid.NewString}
}

func (s *Store) Bucket() string { return s.bucket }

func (s *Store) Client() S3API { return s.s3 }

// List returns the keys under prefix in lexical order.
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	p := s3.NewListObjectsV2Paginator(s.s3, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	var keys []string
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]Record, error) {
	out, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	recs, err := ParseRecords(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return recs, nil
}

// ReadHour loads every record captured for an endpoint variant in one hour.
func (s *Store) ReadHour(ctx context.Context, prefix, endpoint, variant string, hour time.Time) ([]Record, error) {
	keys, err := s.List(ctx, HourPrefix(prefix, endpoint, variant, hour))
	if err != nil {
		return nil, err
	}
	var all []Record
	for _, k := range keys {
		recs, err := s.Read(ctx, k)
		if err != nil {
			return nil, err
		}
		all = append(all, recs...)
	}
	return all, nil
}

// PutGroundTruth uploads labels as one JSON Lines object and returns its key.
func (s *Store) PutGroundTruth(ctx context.Context, prefix string, at time.Time, records ...GroundTruth) (string, error) {
	if len(records) == 0 {
		return "", fmt.Errorf("no ground truth records")
	}
	body, err := EncodeGroundTruth(records)
	if err != nil {
		return "", err
	}
	key := GroundTruthKey(prefix, at, s.newID())
	if err := s.Put(ctx, key, body, "application/jsonl"); err != nil {
		return "", err
	}
	return key, nil
}

func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}
