package s3infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-event-notifier/internal/domain"
)

// ObjectPutter is the subset of *s3.Client the archive writes through.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RunArchive stores one JSON document per completed run summary.
type RunArchive struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewRunArchive(client ObjectPutter, bucket, prefix string) *RunArchive {
	if prefix == "" {
		prefix = "runs"
	}
	return &RunArchive{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for a summary: <prefix>/YYYY/MM/DD/<run_id>.json,
// dated by the run's start in UTC.
func (a *RunArchive) Key(s *domain.RunSummary) string {
	return path.Join(a.prefix, s.StartedAt.UTC().Format("2006/01/02"), s.RunID+".json")
}

func (a *RunArchive) Put(ctx context.Context, s *domain.RunSummary) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal run summary: %w", err)
	}
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(a.Key(s)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("s3 put object: %w", err)
	}
	return nil
}
