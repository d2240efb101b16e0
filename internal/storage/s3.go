package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"

	"alcyxob/coach-orchestrator/internal/config"
	"alcyxob/coach-orchestrator/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Archive implements SessionArchive using an S3-compatible backend.
type s3Archive struct {
	client     *s3.Client
	bucketName string
}

// NewS3Archive creates a new S3-backed session archive.
func NewS3Archive(cfg config.ArchiveConfig) (SessionArchive, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		log.Printf("ERROR: Failed to load AWS SDK config for S3: %v", err)
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services (like MinIO)
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	log.Printf("Session archive initialized for endpoint: %s, bucket: %s", cfg.Endpoint, cfg.BucketName)

	return &s3Archive{
		client:     s3Client,
		bucketName: cfg.BucketName,
	}, nil
}

// ArchiveSession serializes the session and writes it to the bucket.
func (s *s3Archive) ArchiveSession(ctx context.Context, session *domain.ConversationSession) error {
	body, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("serializing session for archive: %w", err)
	}

	objectKey := fmt.Sprintf("sessions/%s/%s.json", session.UserID.Hex(), session.ID.Hex())

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		log.Printf("ERROR: Failed to archive session '%s': %v", objectKey, err)
		return err
	}

	return nil
}
