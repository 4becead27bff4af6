package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/ragscout/ragscout/internal/domain/repository"
)

// OllamaClient implements repository.LLMClient by calling a local
// Ollama server. Token usage is not reported by the API and comes back
// zeroed.
type OllamaClient struct {
	host  string
	model string
}

// NewOllamaClient initializes a client for a local Ollama instance.
func NewOllamaClient(host, model string) *OllamaClient {
	if host == "" {
		host = "http://localhost:11434"
	}
	if model == "" {
		model = "llama3"
	}
	return &OllamaClient{host: host, model: model}
}

type ollamaGenerateRequest struct {
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	System  string                 `json:"system,omitempty"`
	Stream  bool                   `json:"stream"`
	Options map[string]interface{} `json:"options,omitempty"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (c *OllamaClient) Generate(ctx context.Context, system, user string, temperature float32, maxTokens int) (string, repository.TokenUsage, error) {
	log.Printf("[Ollama] Sending request to local model %s", c.model)

	options := map[string]interface{}{"temperature": temperature}
	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:   c.model,
		Prompt:  user,
		System:  system,
		Stream:  false,
		Options: options,
	})
	if err != nil {
		return "", repository.TokenUsage{}, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/generate", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", repository.TokenUsage{}, fmt.Errorf("failed to create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", repository.TokenUsage{}, fmt.Errorf("ollama request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", repository.TokenUsage{}, fmt.Errorf("ollama returned error status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", repository.TokenUsage{}, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	return parsed.Response, repository.TokenUsage{}, nil
}

func (c *OllamaClient) Name() string {
	return fmt.Sprintf("Ollama (%s) [Local]", c.model)
}
