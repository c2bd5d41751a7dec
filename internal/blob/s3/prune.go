package s3blob

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Pruner deletes old run objects so the mirror does not grow without bound.
type Pruner struct {
	client *s3.Client
	bucket string
}

// NewPruner creates a Pruner against the given client's bucket.
func NewPruner(c *Client) *Pruner {
	return &Pruner{
		client: c.S3(),
		bucket: c.Bucket(),
	}
}

// PruneRuns deletes timestamped run objects last modified before the cutoff.
// The latest.json pointers are never deleted. Returns the number of objects
// removed.
func (p *Pruner) PruneRuns(ctx context.Context, before time.Time) (int, error) {
	paginator := s3.NewListObjectsV2Paginator(p.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(p.bucket),
		Prefix: aws.String("runs/"),
	})

	deleted := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("s3blob: list runs: %w", err)
		}

		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/latest.json") {
				continue
			}
			if obj.LastModified == nil || !obj.LastModified.Before(before) {
				continue
			}

			_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(p.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return deleted, fmt.Errorf("s3blob: delete %s: %w", key, err)
			}
			deleted++
		}
	}

	return deleted, nil
}
