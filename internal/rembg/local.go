package rembg

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/josuedeavila/rmbg"
)

// LocalRemover runs a U2Net ONNX model in-process. The engine holds
// native resources and must be closed.
type LocalRemover struct {
	removeFn func(image.Image) (image.Image, error)
	closeFn  func()
	log      *slog.Logger
}

func NewLocalRemover(modelPath string, logger *slog.Logger) (*LocalRemover, error) {
	engine, err := rmbg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", modelPath, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &LocalRemover{
		removeFn: func(img image.Image) (image.Image, error) { return engine.RemoveBackground(img) },
		closeFn:  func() { engine.Close() },
		log:      logger,
	}, nil
}

func (l *LocalRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.log.Debug("running local model")
	out, err := l.removeFn(img)
	if err != nil {
		return nil, fmt.Errorf("run local model: %w", err)
	}
	return out, nil
}

func (l *LocalRemover) Close() {
	l.closeFn()
}
