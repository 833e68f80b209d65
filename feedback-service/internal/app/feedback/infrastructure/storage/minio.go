package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"feedbackhub/feedback-service/internal/app/feedback/entity"
	"feedbackhub/feedback-service/internal/app/feedback/infrastructure"
)

var _ infrastructure.RawArchiver = (*RawArchive)(nil)

// RawArchive складывает сырые ответы провайдеров в бакет MinIO
type RawArchive struct {
	client *minio.Client
	bucket string
}

// NewRawArchive подключается к MinIO и создает бакет при необходимости
func NewRawArchive(ctx context.Context, endpoint, region, bucket, accessKey, secretKey string, useSSL bool) (*RawArchive, error) {
	cli, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := cli.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := cli.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return &RawArchive{client: cli, bucket: bucket}, nil
}

type archivedFetch struct {
	OwnerID     string            `json:"owner_id"`
	Source      entity.SourceKind `json:"source"`
	Identifier  string            `json:"identifier"`
	ServedBy    string            `json:"served_by"`
	ProductName string            `json:"product_name,omitempty"`
	FetchedAt   time.Time         `json:"fetched_at"`
	Items       []entity.RawItem  `json:"items"`
}

// Archive сохраняет результат выборки и возвращает ключ объекта
func (a *RawArchive) Archive(ctx context.Context, ownerID string, src entity.SourceKind, identifier, servedBy string, result *entity.FetchResult, at time.Time) (string, error) {
	doc := archivedFetch{
		OwnerID:     ownerID,
		Source:      src,
		Identifier:  identifier,
		ServedBy:    servedBy,
		ProductName: result.ProductName,
		FetchedAt:   at.UTC(),
		Items:       result.Items,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to marshal archive: %w", err)
	}

	key := ObjectKey(ownerID, src, identifier, at)
	_, err = a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}

	return key, nil
}

// ObjectKey - raw/<owner>/<source>/<identifier>/<unix>.json
func ObjectKey(ownerID string, src entity.SourceKind, identifier string, at time.Time) string {
	return fmt.Sprintf("raw/%s/%s/%s/%d.json",
		url.PathEscape(ownerID), src, url.PathEscape(identifier), at.Unix())
}
