// Package storage keeps uploaded binaries out of the document store.
// Every backend addresses objects by a slash-separated key and returns a public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/classroom-backend/internal/config"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidKey is returned for keys that are empty or escape the store root.
var ErrInvalidKey = errors.New("invalid object key")

// BlobStore stores and removes uploaded objects.
type BlobStore interface {
	// Put writes r under key and returns the object's public URL.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	// Delete removes key. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg.StorageDriver.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (BlobStore, error) {
	switch cfg.StorageDriver {
	case config.StorageLocal, "":
		log.Info().Str("dir", cfg.UploadDir).Msg("Using local blob storage")
		return NewLocalStore(cfg.UploadDir, cfg.PublicBaseURL+"/uploads"), nil
	case config.StorageGCS:
		log.Info().Str("bucket", cfg.GCSBucket).Msg("Using Google Cloud Storage")
		return NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
	case config.StorageS3:
		log.Info().Str("bucket", cfg.S3Bucket).Str("endpoint", cfg.S3Endpoint).Msg("Using S3 blob storage")
		return NewS3Store(ctx, S3Options{
			Bucket:          cfg.S3Bucket,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			PublicURL:       cfg.S3PublicURL,
		})
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}

// ObjectKey builds a collision-free key under prefix that keeps a readable form of filename.
func ObjectKey(prefix, filename string) string {
	return path.Join(prefix, uuid.New().String()+"-"+SafeName(filename))
}

// SafeName folds filename to lowercase ASCII letters, digits, dashes and a single extension.
func SafeName(filename string) string {
	filename = path.Base(strings.ReplaceAll(filename, "\\", "/"))
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(filename, path.Ext(filename))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, base)
	if err != nil {
		folded = base
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}

	name := strings.Trim(b.String(), "-")
	if name == "" {
		name = "file"
	}
	if !validExt(ext) {
		ext = ""
	}
	return name + ext
}

func validExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 10 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func cleanKey(key string) (string, error) {
	key = strings.TrimPrefix(path.Clean("/"+key), "/")
	if key == "" || key == "." {
		return "", ErrInvalidKey
	}
	return key, nil
}
