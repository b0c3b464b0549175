package service

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PhotoService stores record photo blobs on disk under the upload directory,
// keyed by an opaque relative path. The sync engine never sees the bytes;
// synchronized RecordPhoto rows carry only the key this service hands out.
type PhotoService struct {
	uploadDir string
	maxSize   int64
}

func NewPhotoService(uploadDir string, maxSize int64) *PhotoService {
	return &PhotoService{
		uploadDir: uploadDir,
		maxSize:   maxSize,
	}
}

// Save writes an uploaded photo to yyyy/mm/dd/<hhmmss>-<rand><ext> and
// returns that relative path as the blob key.
func (s *PhotoService) Save(filename string, r io.Reader) (string, int64, error) {
	now := time.Now().UTC()
	dateDir := now.Format("2006/01/02")
	dir := filepath.Join(s.uploadDir, dateDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("failed to create upload dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	name := fmt.Sprintf("%s-%s%s", now.Format("150405"), uuid.New().String()[:8], ext)

	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create photo file: %w", err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, io.LimitReader(r, s.maxSize+1))
	if err != nil {
		return "", 0, fmt.Errorf("failed to write photo: %w", err)
	}
	if written > s.maxSize {
		os.Remove(dst.Name())
		return "", 0, fmt.Errorf("photo exceeds max size %d", s.maxSize)
	}

	return path.Join(dateDir, name), written, nil
}

// Path resolves a blob key to the file on disk, rejecting keys that escape
// the upload directory.
func (s *PhotoService) Path(key string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid photo key %q", key)
	}

	full := filepath.Join(s.uploadDir, cleaned)
	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("photo not found: %s", key)
	}
	return full, nil
}
