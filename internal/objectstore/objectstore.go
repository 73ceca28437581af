// Package objectstore keeps uploaded project files in a JetStream object
// store bucket under "<owner>/<file id>_<name>" keys.
package objectstore

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/cognicore/annotator/pkg/annotator/internalerr"
)

// Metadata keys stored with every object.
const (
	MetaOriginalName = "original_name"
	MetaFileID       = "file_id"
	MetaFileHash     = "file_hash"
	MetaProjectID    = "project_id"
)

// Bucket is the subset of jetstream.ObjectStore used here.
type Bucket interface {
	Put(ctx context.Context, obj jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error)
	GetBytes(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) ([]byte, error)
	GetInfo(ctx context.Context, name string, opts ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error)
	List(ctx context.Context, opts ...jetstream.ListObjectsOpt) ([]*jetstream.ObjectInfo, error)
}

// Store uploads and downloads project files.
type Store struct {
	bucket Bucket
	logger *slog.Logger
}

// Uploaded describes a stored file.
type Uploaded struct {
	FileID    string
	ObjectKey string
	FileHash  string
}

// Open binds to the named bucket, creating it when missing.
func Open(ctx context.Context, js jetstream.JetStream, bucket string, logger *slog.Logger) (*Store, error) {
	obs, err := js.ObjectStore(ctx, bucket)
	if errors.Is(err, jetstream.ErrBucketNotFound) {
		obs, err = js.CreateObjectStore(ctx, jetstream.ObjectStoreConfig{Bucket: bucket})
	}
	if err != nil {
		return nil, fmt.Errorf("object store %s: %w", bucket, err)
	}
	return New(obs, logger), nil
}

// New wraps an existing bucket.
func New(b Bucket, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{bucket: b, logger: logger}
}

// Hash returns the hex SHA-256 of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// asciiName drops the non-ASCII characters of a file name.
func asciiName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < 0x80 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Upload stores data for owner. A file with the same hash already uploaded
// by owner is reported in the log but does not stop the upload.
func (s *Store) Upload(ctx context.Context, owner, projectID, name string, data []byte) (Uploaded, error) {
	if owner == "" {
		return Uploaded{}, fmt.Errorf("%w: empty owner", internalerr.ErrInvalidInput)
	}
	safe := asciiName(name)
	hash := Hash(data)

	dups, err := s.Duplicates(ctx, owner, hash)
	if err != nil {
		s.logger.Warn("duplicate check failed", "owner", owner, "error", err)
	} else if len(dups) > 0 {
		s.logger.Warn("duplicate upload", "owner", owner, "file", safe, "existing", dups)
	}

	fileID := uuid.NewString()
	key := fmt.Sprintf("%s/%s_%s", owner, fileID, safe)
	meta := map[string]string{
		MetaOriginalName: safe,
		MetaFileID:       fileID,
		MetaFileHash:     hash,
	}
	if projectID != "" {
		meta[MetaProjectID] = projectID
	}

	if _, err := s.bucket.Put(ctx, jetstream.ObjectMeta{Name: key, Metadata: meta}, bytes.NewReader(data)); err != nil {
		return Uploaded{}, fmt.Errorf("upload %s: %w", key, err)
	}
	s.logger.Info("file uploaded", "key", key)
	return Uploaded{FileID: fileID, ObjectKey: key, FileHash: hash}, nil
}

// Duplicates lists owner's objects whose stored hash equals hash.
func (s *Store) Duplicates(ctx context.Context, owner, hash string) ([]string, error) {
	infos, err := s.list(ctx, owner+"/")
	if err != nil {
		return nil, err
	}
	var out []string
	for _, info := range infos {
		if info.Metadata[MetaFileHash] == hash {
			out = append(out, info.Name)
		}
	}
	return out, nil
}

// Download returns the content of the object stored under key.
func (s *Store) Download(ctx context.Context, key string) ([]byte, error) {
	data, err := s.bucket.GetBytes(ctx, key)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, fmt.Errorf("object %s: %w", key, internalerr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", key, err)
	}
	return data, nil
}

// Metadata returns the stored metadata of owner's file with the given id.
func (s *Store) Metadata(ctx context.Context, owner, fileID string) (map[string]string, error) {
	keys, err := s.List(ctx, owner, fileID+"_")
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("file %s of %s: %w", fileID, owner, internalerr.ErrNotFound)
	}
	if len(keys) > 1 {
		s.logger.Warn("several objects share a file id", "owner", owner, "file_id", fileID, "keys", keys)
	}
	info, err := s.bucket.GetInfo(ctx, keys[0])
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", keys[0], err)
	}
	return info.Metadata, nil
}

// List returns the sorted keys of owner's objects starting with prefix.
func (s *Store) List(ctx context.Context, owner, prefix string) ([]string, error) {
	infos, err := s.list(ctx, owner+"/"+prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(infos))
	for _, info := range infos {
		keys = append(keys, info.Name)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *Store) list(ctx context.Context, prefix string) ([]*jetstream.ObjectInfo, error) {
	all, err := s.bucket.List(ctx)
	if errors.Is(err, jetstream.ErrNoObjectsFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	var out []*jetstream.ObjectInfo
	for _, info := range all {
		if strings.HasPrefix(info.Name, prefix) {
			out = append(out, info)
		}
	}
	return out, nil
}
