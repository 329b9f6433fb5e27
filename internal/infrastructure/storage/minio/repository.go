package minio

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/rxnguard/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/rxnguard/pkg/errors"
)

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRequest = errors.New(errors.ErrCodeValidation, "invalid request")
)

// BackupArchive stores backup directories as objects under
// <prefix><backup name>/<file name>.
type BackupArchive interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
	UploadDir(ctx context.Context, backupName, dir string) ([]*UploadResult, error)
	Download(ctx context.Context, objectKey string) ([]byte, error)
	Exists(ctx context.Context, objectKey string) (bool, error)
	Delete(ctx context.Context, objectKey string) error
	ListBackups(ctx context.Context) ([]string, error)
	List(ctx context.Context, backupName string) ([]*ObjectMetadata, error)
}

type UploadRequest struct {
	ObjectKey   string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type UploadResult struct {
	Bucket     string
	ObjectKey  string
	ETag       string
	Size       int64
	UploadedAt time.Time
}

type ObjectMetadata struct {
	ObjectKey    string
	Size         int64
	ContentType  string
	ETag         string
	LastModified time.Time
}

type minioArchive struct {
	client *MinIOClient
	logger logging.Logger
	now    func() time.Time
}

func NewBackupArchive(client *MinIOClient, log logging.Logger) BackupArchive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &minioArchive{client: client, logger: log, now: time.Now}
}

// ObjectKey is where a file of a backup lives in the bucket.
func (r *minioArchive) ObjectKey(backupName, file string) string {
	return r.client.Prefix() + path.Join(backupName, file)
}

func (r *minioArchive) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	if req == nil || req.ObjectKey == "" {
		return nil, ErrInvalidRequest
	}
	if req.ContentType == "" && len(req.Data) > 0 {
		req.ContentType = http.DetectContentType(req.Data[:min(512, len(req.Data))])
	}

	opts := minio.PutObjectOptions{
		ContentType:  req.ContentType,
		UserMetadata: req.Metadata,
		PartSize:     uint64(r.client.config.PartSize),
	}
	info, err := r.client.GetClient().PutObject(ctx, r.client.Bucket(), req.ObjectKey, bytes.NewReader(req.Data), int64(len(req.Data)), opts)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBackupFailed, "upload failed").WithDetail(req.ObjectKey)
	}
	return &UploadResult{
		Bucket:     r.client.Bucket(),
		ObjectKey:  req.ObjectKey,
		ETag:       info.ETag,
		Size:       info.Size,
		UploadedAt: r.now(),
	}, nil
}

// UploadDir uploads every regular file directly inside dir.
func (r *minioArchive) UploadDir(ctx context.Context, backupName, dir string) ([]*UploadResult, error) {
	if backupName == "" || strings.Contains(backupName, "/") {
		return nil, ErrInvalidRequest
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeBackupFailed, "read backup dir")
	}

	var results []*UploadResult
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return results, errors.Wrap(err, errors.ErrCodeBackupFailed, "read backup file")
		}
		contentType := "application/octet-stream"
		if strings.HasSuffix(e.Name(), ".json") {
			contentType = "application/json"
		}
		res, err := r.Upload(ctx, &UploadRequest{
			ObjectKey:   r.ObjectKey(backupName, e.Name()),
			Data:        data,
			ContentType: contentType,
			Metadata:    map[string]string{"backup": backupName},
		})
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	r.logger.Info("Backup uploaded",
		logging.String("backup", backupName),
		logging.String("bucket", r.client.Bucket()),
		logging.Int("objects", len(results)))
	return results, nil
}

func (r *minioArchive) Download(ctx context.Context, objectKey string) ([]byte, error) {
	if r.client.isClosed() {
		return nil, ErrMinIOClientClosed
	}
	obj, err := r.client.GetClient().GetObject(ctx, r.client.Bucket(), objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapNotFound(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return data, nil
}

func (r *minioArchive) Exists(ctx context.Context, objectKey string) (bool, error) {
	_, err := r.client.GetClient().StatObject(ctx, r.client.Bucket(), objectKey, minio.StatObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *minioArchive) Delete(ctx context.Context, objectKey string) error {
	return r.client.GetClient().RemoveObject(ctx, r.client.Bucket(), objectKey, minio.RemoveObjectOptions{})
}

// ListBackups returns backup names under the prefix, oldest first.
func (r *minioArchive) ListBackups(ctx context.Context) ([]string, error) {
	prefix := r.client.Prefix()
	seen := make(map[string]struct{})
	for obj := range r.client.GetClient().ListObjects(ctx, r.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		rest := strings.TrimPrefix(obj.Key, prefix)
		if i := strings.Index(rest, "/"); i > 0 {
			seen[rest[:i]] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	// backup_YYYYMMDD_HHMMSS sorts chronologically
	sort.Strings(names)
	return names, nil
}

func (r *minioArchive) List(ctx context.Context, backupName string) ([]*ObjectMetadata, error) {
	prefix := r.client.Prefix() + backupName + "/"
	var out []*ObjectMetadata
	for obj := range r.client.GetClient().ListObjects(ctx, r.client.Bucket(), minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, obj.Err
		}
		out = append(out, &ObjectMetadata{
			ObjectKey:    obj.Key,
			Size:         obj.Size,
			ContentType:  obj.ContentType,
			ETag:         obj.ETag,
			LastModified: obj.LastModified,
		})
	}
	return out, nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

func mapNotFound(err error) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound
	}
	return err
}

//Personal.AI order the ending
