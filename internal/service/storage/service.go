package storage

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/dseditor/AIStudioFloorPlan/internal/infra/logger"
	"github.com/dseditor/AIStudioFloorPlan/pkg/errors"
)

// Service persists exported decks under a local base path and hands back the
// URL the static file route serves them from. This is a delivery artifact
// directory, not a persistence layer: nothing is read back into session state.
type Service struct {
	basePath string
	baseURL  string
	logger   *logger.Logger
}

func New(basePath, baseURL string, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		basePath: basePath,
		baseURL:  baseURL,
		logger:   log,
	}
}

// BasePath exposes the export directory for the static file route.
func (s *Service) BasePath() string {
	return s.basePath
}

// SaveDeck encodes every slide as PNG, writes slide_NN.png files plus a zip
// archive bundling them, and returns the archive URL.
func (s *Service) SaveDeck(id string, slides []*image.RGBA) (string, error) {
	if len(slides) == 0 {
		return "", errors.New(errors.ErrCodeInvalidInput, "no slides to export")
	}

	dir := filepath.Join(s.basePath, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(err, errors.ErrCodeStorage, "create export directory")
	}

	// PNG encoding dominates export time, so slides encode in parallel.
	encoded := make([][]byte, len(slides))
	var g errgroup.Group
	for i, slide := range slides {
		i, slide := i, slide
		g.Go(func() error {
			var buf bytes.Buffer
			if err := png.Encode(&buf, slide); err != nil {
				return errors.Wrap(err, errors.ErrCodeStorage, fmt.Sprintf("encode slide %d", i+1))
			}
			encoded[i] = buf.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	for i, data := range encoded {
		name := fmt.Sprintf("slide_%02d.png", i+1)
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeStorage, "write "+name)
		}
	}

	archiveName := fmt.Sprintf("%s.zip", id)
	archivePath := filepath.Join(s.basePath, archiveName)
	if err := writeArchive(archivePath, encoded); err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/%s", s.baseURL, archiveName)
	s.logger.Info("deck exported", "slides", len(slides), "dir", dir, "url", url)
	return url, nil
}

func writeArchive(path string, slides [][]byte) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "create archive")
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for i, data := range slides {
		w, err := zw.Create(fmt.Sprintf("slide_%02d.png", i+1))
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "add archive entry")
		}
		if _, err := w.Write(data); err != nil {
			return errors.Wrap(err, errors.ErrCodeStorage, "write archive entry")
		}
	}
	if err := zw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorage, "finalize archive")
	}
	return nil
}
