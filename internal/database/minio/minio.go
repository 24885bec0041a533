package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"claims-service/internal/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioClient wraps the MinIO client with claims service specific functionality
type MinioClient struct {
	client *minio.Client
	config config.MinioConfig
}

// Storage defines bucket names for different data types in claims service
var Storage = struct {
	ClaimDocuments string
	DecisionDumps  string
}{
	ClaimDocuments: "claim-documents",
	DecisionDumps:  "decision-dumps",
}

// BucketNames contains all bucket names for claims service
var BucketNames = []string{
	Storage.ClaimDocuments,
	Storage.DecisionDumps,
}

// NewMinioClient initializes a new MinIO client with the provided configuration
func NewMinioClient(cfg config.MinioConfig) (*MinioClient, error) {
	endpoint := strings.TrimPrefix(cfg.MinioURL, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	isSecure, err := strconv.ParseBool(cfg.MinioSecure)
	if err != nil {
		log.Printf("Invalid value for MinIO secure flag: %v. Defaulting to false.", err)
		isSecure = false
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: isSecure,
		Region: cfg.MinioLocation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	mc := &MinioClient{client: client, config: cfg}
	if err := mc.ensureBuckets(context.Background()); err != nil {
		return nil, err
	}

	return mc, nil
}

// ensureBuckets creates every claims-service bucket that does not exist yet
func (m *MinioClient) ensureBuckets(ctx context.Context) error {
	for _, bucket := range BucketNames {
		exists, err := m.client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("failed to check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}
		err = m.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: m.config.MinioLocation})
		if err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
		}
		log.Printf("Created MinIO bucket: %s", bucket)
	}
	return nil
}

// UploadFile stores raw bytes under the given bucket and object key
func (m *MinioClient) UploadFile(ctx context.Context, bucket, objectKey string, data []byte, contentType string) error {
	_, err := m.client.PutObject(ctx, bucket, objectKey,
		bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("failed to upload object %s/%s: %w", bucket, objectKey, err)
	}
	return nil
}

// GetFile retrieves an object as a reader; the caller must close it
func (m *MinioClient) GetFile(ctx context.Context, bucket, objectKey string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s/%s: %w", bucket, objectKey, err)
	}
	return obj, nil
}

// RemoveFile deletes an object from a bucket
func (m *MinioClient) RemoveFile(ctx context.Context, bucket, objectKey string) error {
	err := m.client.RemoveObject(ctx, bucket, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object %s/%s: %w", bucket, objectKey, err)
	}
	return nil
}
