package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/shataken-source/progno/internal/domain"
)

// minPartSize is the minimum part size for S3 multipart uploads (5 MiB).
const minPartSize int64 = 5 * 1024 * 1024

// Mirror uploads run artifacts and opportunity archives to the object store.
// Keys follow the local layout:
//
//	runs/<sport>/<timestamp>.json
//	runs/<sport>/latest.json
//	archive/opportunities/<year-month>.jsonl
type Mirror struct {
	client *s3.Client
	bucket string
}

// NewMirror creates a Mirror against the given client's bucket.
func NewMirror(c *Client) *Mirror {
	return &Mirror{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// MirrorRun uploads one sport's run artifact, both as a timestamped object
// and as the overwritten latest pointer.
func (m *Mirror) MirrorRun(ctx context.Context, sport domain.Sport, at time.Time, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("s3blob: encode run for %s: %w", sport, err)
	}

	ts := at.UTC().Format("20060102-150405")
	for _, key := range []string{
		fmt.Sprintf("runs/%s/%s.json", sport, ts),
		fmt.Sprintf("runs/%s/latest.json", sport),
	} {
		if err := m.put(ctx, key, data, "application/json"); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveOpportunities serialises opportunities as JSONL and uploads the
// batch under the year-month of the cutoff. The upload manager splits large
// batches into concurrent parts and handles small ones in a single request.
func (m *Mirror) ArchiveOpportunities(ctx context.Context, opps []domain.ArbitrageOpportunity, at time.Time) (int, error) {
	if len(opps) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, opp := range opps {
		if err := enc.Encode(opp); err != nil {
			return 0, fmt.Errorf("s3blob: encode opportunity %d: %w", i, err)
		}
	}

	key := fmt.Sprintf("archive/opportunities/%s.jsonl", at.UTC().Format("2006-01"))

	uploader := manager.NewUploader(m.client, func(u *manager.Uploader) {
		u.PartSize = minPartSize
	})
	_, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        &buf,
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return 0, fmt.Errorf("s3blob: upload archive %s: %w", key, err)
	}
	return len(opps), nil
}

func (m *Mirror) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3blob: put object %s: %w", key, err)
	}
	return nil
}
