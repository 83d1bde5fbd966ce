package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

type implPublisher struct {
	url    string
	limit  int
	client *http.Client
	logger logger.Logger
}

// New creates a Publisher that posts to a webhook URL.
func New(cfg config.PublishConfig, log logger.Logger) Publisher {
	return &implPublisher{
		url:    cfg.WebhookURL,
		limit:  cfg.Limit,
		client: &http.Client{},
		logger: log,
	}
}

// Publish splits text at the display limit and posts the parts in order,
// stopping at the first delivery failure so receivers never see a gap in
// the middle of a recap.
func (p *implPublisher) Publish(ctx context.Context, text string) error {
	parts := Split(text, p.limit)
	for i, part := range parts {
		if err := p.post(ctx, part); err != nil {
			return fmt.Errorf("%w: part %d/%d: %v", ErrPublish, i+1, len(parts), err)
		}
	}
	return nil
}

func (p *implPublisher) post(ctx context.Context, content string) error {
	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}

// PublishFile uploads a file as a multipart attachment.
func (p *implPublisher) PublishFile(ctx context.Context, path, filename string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrPublish, filepath.Base(path), err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, &buf)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPublish, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status %d: %s", ErrPublish, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return nil
}
