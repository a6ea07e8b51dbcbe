package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/julien-sobczak/mermaid-export/internal/medias"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	ErrParentNotExist = errors.New("parent folder does not exist")
)

// Vault provides an abstraction in front of the storage of the note application.
//
// Paths are slash-separated and relative to the vault root.
// CreateFolder is not recursive: the parent folder must already exist.
type Vault interface {
	Exists(path string) (bool, error)
	CreateFolder(path string) error
	WriteBinary(path string, data []byte) error
}

/* FS */

type FSVault struct {
	path string
}

func NewFSVault(dirpath string) (*FSVault, error) {
	stat, err := os.Stat(dirpath)
	if err != nil {
		return nil, err
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dirpath)
	}

	return &FSVault{
		path: dirpath,
	}, nil
}

func (v *FSVault) abs(key string) string {
	return filepath.Join(v.path, filepath.FromSlash(key))
}

func (v *FSVault) Exists(key string) (bool, error) {
	_, err := os.Stat(v.abs(key))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *FSVault) CreateFolder(key string) error {
	err := os.Mkdir(v.abs(key), 0755)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrParentNotExist, key)
	}
	return err
}

func (v *FSVault) WriteBinary(key string, data []byte) error {
	return os.WriteFile(v.abs(key), data, 0644)
}

/* S3 */

// S3Vault stores exports in a bucket.
// Folders are materialized by zero-byte objects whose key ends with "/".
type S3Vault struct {
	// Settings
	endpoint   string
	bucketName string
	// Client
	minioClient *minio.Client
}

func NewS3VaultWithCredentials(endpoint string, bucketName string, accessKey, secretKey string, secure bool) (*S3Vault, error) {
	// Initialize minio client object.
	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: secure,
	})
	if err != nil {
		return nil, err
	}

	return &S3Vault{
		endpoint:    endpoint,
		bucketName:  bucketName,
		minioClient: minioClient,
	}, nil
}

func (v *S3Vault) Exists(key string) (bool, error) {
	key = strings.Trim(key, "/")
	if key == "" {
		return true, nil
	}
	for _, candidate := range []string{key, key + "/"} {
		_, err := v.minioClient.StatObject(context.Background(), v.bucketName, candidate, minio.StatObjectOptions{})
		if err == nil {
			return true, nil
		}
		if minio.ToErrorResponse(err).Code != "NoSuchKey" {
			return false, err
		}
	}
	return false, nil
}

func (v *S3Vault) CreateFolder(key string) error {
	key = strings.Trim(key, "/")
	if parent := path.Dir(key); parent != "." {
		exists, err := v.Exists(parent)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %s", ErrParentNotExist, key)
		}
	}
	_, err := v.minioClient.PutObject(context.Background(), v.bucketName, key+"/", bytes.NewReader(nil), 0, minio.PutObjectOptions{})
	return err
}

func (v *S3Vault) WriteBinary(key string, data []byte) error {
	_, err := v.minioClient.PutObject(context.Background(), v.bucketName, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: medias.MimeType(path.Ext(key)),
	})
	return err
}
