package orchestrate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FSArtifactStore складывает файловые части ответов агентов на диск.
// Имена нормализуются: только базовое имя, без обхода каталога.
type FSArtifactStore struct {
	dir    string
	logger *zap.Logger
}

func NewFSArtifactStore(dir string, logger *zap.Logger) (*FSArtifactStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact dir %s: %w", dir, err)
	}
	return &FSArtifactStore{dir: dir, logger: logger.Named("artifacts")}, nil
}

func (s *FSArtifactStore) SaveArtifact(ctx context.Context, name, mimeType string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	safe := filepath.Base(strings.TrimSpace(name))
	if safe == "" || safe == "." || safe == string(filepath.Separator) {
		return fmt.Errorf("artifact name %q is not usable", name)
	}

	path := filepath.Join(s.dir, safe)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", safe, err)
	}
	s.logger.Info("artifact saved",
		zap.String("name", safe),
		zap.String("mime_type", mimeType),
		zap.Int("bytes", len(data)))
	return nil
}
