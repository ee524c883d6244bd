package rawfs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/pkg/utils"
)

const filePrefix = "tariffs-box-"

// ArchiveImpl stores raw payloads as sibling .json/.txt files under a base directory.
type ArchiveImpl struct {
	baseDir string
	logger  *zap.Logger
	now     func() time.Time
}

// NewArchive creates a new instance of ArchiveImpl.
func NewArchive(baseDir string, logger *zap.Logger) *ArchiveImpl {
	return &ArchiveImpl{
		baseDir: baseDir,
		logger:  logger.Named("raw-storage"),
		now:     time.Now,
	}
}

// Persist writes the pretty-printed payload and the original text. When rawText
// is empty the serialized JSON is written in its place. The hash covers the
// bytes of the text file.
func (a *ArchiveImpl) Persist(ctx context.Context, payload any, rawText string) (*entity.ArchivedPayload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pretty, err := marshalPretty(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	base, err := filepath.Abs(a.baseDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}

	name := a.fileBase()
	jsonPath := filepath.Join(base, name+".json")
	textPath := filepath.Join(base, name+".txt")

	text := []byte(rawText)
	if rawText == "" {
		text = pretty
	}

	if err := os.WriteFile(jsonPath, pretty, 0o644); err != nil {
		return nil, err
	}
	if err := os.WriteFile(textPath, text, 0o644); err != nil {
		return nil, err
	}

	return &entity.ArchivedPayload{
		JSONPath:     jsonPath,
		TextPath:     textPath,
		BytesWritten: len(text),
		PayloadHash:  utils.HashBytes(text),
	}, nil
}

// PurgeModifiedBefore removes regular files whose modification time is strictly
// before cutoff. Subdirectories are left alone.
func (a *ArchiveImpl) PurgeModifiedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := os.ReadDir(a.baseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			a.logger.Warn("raw storage dir not found; skipping cleanup", zap.String("dir", a.baseDir))
			return 0, nil
		}
		return 0, err
	}

	deleted := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return deleted, err
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(a.baseDir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// fileBase is a UTC timestamp safe for file names plus a random suffix, so two
// runs within the same instant never share a name.
func (a *ArchiveImpl) fileBase() string {
	ts := a.now().UTC().Format(time.RFC3339Nano)
	ts = strings.NewReplacer(":", "-", ".", "-").Replace(ts)
	return filePrefix + ts + "-" + uuid.NewString()[:8]
}

func marshalPretty(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
