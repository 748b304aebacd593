package ai

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	defaultOllamaURL   = "http://127.0.0.1:11434"
	defaultOllamaModel = "llama3:8b"
)

// OllamaProvider implements the Provider interface for a local Ollama server.
type OllamaProvider struct {
	model   string
	baseURL string
	client  *http.Client
}

// NewOllamaProvider creates a new provider for Ollama.
// baseURL defaults to http://127.0.0.1:11434 and model to llama3:8b if empty.
func NewOllamaProvider(model, baseURL string, client *http.Client) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = defaultOllamaModel
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaProvider{
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

func (p *OllamaProvider) ID() string {
	return "ollama:" + p.model
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

// ollamaGenerateChunk is one line of the streamed /api/generate reply.
type ollamaGenerateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// Generate sends a prompt to the Ollama API and assembles the streamed chunks
// into a single reply. The text is returned exactly as the model produced it.
func (p *OllamaProvider) Generate(ctx context.Context, prompt string) (string, error) {
	reqBody, err := json.Marshal(ollamaGenerateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: true,
	})
	if err != nil {
		return "", fmt.Errorf("could not marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("could not create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", ollamaStatusError(resp)
	}

	var out strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaGenerateChunk
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			// Ignore lines that are not valid JSON
			continue
		}
		if chunk.Error != "" {
			return "", fmt.Errorf("ollama: %s", chunk.Error)
		}
		out.WriteString(chunk.Response)
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("error reading ollama stream: %w", err)
	}
	if out.Len() == 0 {
		return "", errors.New("ollama returned an empty response")
	}

	return out.String(), nil
}

// ollamaStatusError builds an error from a non-200 reply, preferring the
// server's own {"error": "..."} message when it sends one.
func ollamaStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("ollama returned %s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("ollama returned non-200 status: %s", resp.Status)
}
