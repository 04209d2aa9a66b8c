package rembg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// DefaultTimeout bounds one removal round trip.
const DefaultTimeout = 60 * time.Second

// HTTPRemover talks to a rembg-compatible HTTP server.
type HTTPRemover struct {
	endpoint string
	model    string
	apiKey   string
	client   *http.Client
	log      *slog.Logger
}

type HTTPOptions struct {
	Model   string
	APIKey  string
	Timeout time.Duration
	Logger  *slog.Logger
}

func NewHTTPRemover(endpoint string, opts HTTPOptions) *HTTPRemover {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &HTTPRemover{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    opts.Model,
		apiKey:   opts.APIKey,
		client:   &http.Client{Timeout: timeout},
		log:      logger,
	}
}

func (r *HTTPRemover) Remove(ctx context.Context, img image.Image) (image.Image, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", "image.png")
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if err := imaging.Encode(part, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish form: %w", err)
	}

	reqURL := r.endpoint + "/api/remove"
	if r.model != "" {
		reqURL += "?model=" + url.QueryEscape(r.model)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, &body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if r.apiKey != "" {
		req.Header.Set("X-Api-Key", r.apiKey)
	}

	r.log.Debug("calling removal endpoint", "url", reqURL, "bytes", body.Len())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call removal endpoint: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("removal request failed with status %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	out, err := imaging.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode removal response: %w", err)
	}
	return out, nil
}
