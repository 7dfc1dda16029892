package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mfbox/config"
	"mfbox/logger"
)

const backupPrefix = "backups/"

// ErrNoRemoteBackup is returned when the bucket holds no backup objects.
var ErrNoRemoteBackup = errors.New("no backup found in object storage")

// Replicator mirrors backup archives into an S3-compatible bucket, so a
// machine loss does not take the backups with it.
type Replicator struct {
	client *minio.Client
	bucket string
}

// NewReplicator connects to the configured MinIO endpoint and makes sure
// the bucket exists.
func NewReplicator(ctx context.Context, cfg *config.Config) (*Replicator, error) {
	if cfg.MinioEndpoint == "" {
		return nil, errors.New("MINIO_ENDPOINT not configured")
	}

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	bctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(bctx, cfg.MinioBucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(bctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
		logger.Info("created bucket", logger.String("bucket", cfg.MinioBucket))
	}

	return &Replicator{client: client, bucket: cfg.MinioBucket}, nil
}

// UploadBackup puts a local archive into the bucket under backups/.
func (r *Replicator) UploadBackup(ctx context.Context, localPath string) error {
	objectName := backupPrefix + filepath.Base(localPath)

	info, err := r.client.FPutObject(ctx, r.bucket, objectName, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
	})
	if err != nil {
		return fmt.Errorf("upload backup %q: %w", objectName, err)
	}

	logger.Info("backup replicated",
		logger.String("object", objectName),
		logger.Int64("size", info.Size))
	return nil
}

// LatestBackup returns the object name of the most recently modified
// backup in the bucket.
func (r *Replicator) LatestBackup(ctx context.Context) (string, error) {
	var (
		newest    string
		newestMod time.Time
	)

	for object := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: backupPrefix}) {
		if object.Err != nil {
			return "", fmt.Errorf("list backups: %w", object.Err)
		}
		if !strings.HasSuffix(object.Key, ".zip") {
			continue
		}
		if object.LastModified.After(newestMod) {
			newestMod = object.LastModified
			newest = object.Key
		}
	}
	if newest == "" {
		return "", ErrNoRemoteBackup
	}
	return newest, nil
}

// DownloadBackup fetches an object into destDir and returns the local
// path.
func (r *Replicator) DownloadBackup(ctx context.Context, objectName, destDir string) (string, error) {
	localPath := filepath.Join(destDir, filepath.Base(objectName))
	if err := r.client.FGetObject(ctx, r.bucket, objectName, localPath, minio.GetObjectOptions{}); err != nil {
		return "", fmt.Errorf("download backup %q: %w", objectName, err)
	}
	return localPath, nil
}
