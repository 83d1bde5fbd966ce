package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/nguyentantai21042004/recap-flow/internal/config"
	"github.com/nguyentantai21042004/recap-flow/internal/logger"
)

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Options generateOptions `json:"options"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
}

// generateFragment is one line of the NDJSON response stream. Only the
// response field matters; fragments without it are skipped.
type generateFragment struct {
	Response *string `json:"response"`
	Done     bool    `json:"done"`
}

type ollamaCompleter struct {
	host        string
	model       string
	temperature float64
	client      *http.Client
	logger      logger.Logger
}

func newOllama(cfg config.LLMConfig, log logger.Logger) *ollamaCompleter {
	return &ollamaCompleter{
		host:        strings.TrimRight(cfg.Host, "/"),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		client:      &http.Client{},
		logger:      log,
	}
}

func (o *ollamaCompleter) Endpoint() string {
	return o.host
}

// Complete posts to /api/generate and concatenates the streamed response
// fragments in arrival order. A fragment that fails to parse or lacks the
// response field is skipped, not fatal.
func (o *ollamaCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Model:   o.model,
		Prompt:  prompt,
		Options: generateOptions{Temperature: o.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshal generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.host+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("send generate request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("generate: unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var frag generateFragment
		if err := json.Unmarshal(line, &frag); err != nil {
			o.logger.Debug(ctx, "Skipping unparseable stream fragment: %v", err)
			continue
		}
		if frag.Response != nil {
			out.WriteString(*frag.Response)
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("read generate stream: %w", err)
	}

	return out.String(), nil
}
