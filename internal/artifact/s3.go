package artifact

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/ignite/customer-intelligence/internal/dataset"
)

// S3Publisher writes CSV artifacts to S3. Each run lands under
// <prefix>/runs/<runID>/ and a latest pointer object is written last, so
// consumers following the pointer only ever see complete runs.
type S3Publisher struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Publisher creates an S3 publisher. An empty profile uses the default
// credential chain (IAM role on ECS).
func NewS3Publisher(ctx context.Context, bucket, prefix, region, profile string) (*S3Publisher, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &S3Publisher{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		prefix: prefix,
	}, nil
}

func (p *S3Publisher) Publish(ctx context.Context, runID string, tables []dataset.Table) error {
	for _, table := range tables {
		data, err := table.EncodeCSV()
		if err != nil {
			return err
		}
		key := path.Join(p.prefix, "runs", runID, table.Name+".csv")
		if err := p.put(ctx, key, data, "text/csv"); err != nil {
			return fmt.Errorf("uploading %s: %w", table.Name, err)
		}
	}

	// The pointer goes last so it never references a partial run.
	pointerKey := path.Join(p.prefix, "latest")
	if err := p.put(ctx, pointerKey, []byte(runID+"\n"), "text/plain"); err != nil {
		return fmt.Errorf("updating latest pointer: %w", err)
	}

	return nil
}

func (p *S3Publisher) put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	return err
}
