package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	ollamaDefaultBaseURL = "http://localhost:11434"
	ollamaDefaultModel   = "llama3.2"
)

// OllamaGenerator generates answers through a local Ollama server.
// Useful for development without provider spend; its token counts come
// from Ollama's eval counters and its cost is always zero.
type OllamaGenerator struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count,omitempty"`
	EvalCount       int    `json:"eval_count,omitempty"`
}

// NewOllamaGenerator creates an Ollama-backed generator.
func NewOllamaGenerator(cfg Config) *OllamaGenerator {
	if cfg.BaseURL == "" {
		cfg.BaseURL = ollamaDefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = ollamaDefaultModel
	}
	return &OllamaGenerator{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
	}
}

// Generate produces an answer under the given system prompt.
func (g *OllamaGenerator) Generate(ctx context.Context, systemPrompt, question string) (*Reply, error) {
	reqBody := ollamaGenerateRequest{
		Model:  g.model,
		Prompt: question,
		System: systemPrompt,
		Stream: false,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/generate", g.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error: %d - %s", resp.StatusCode, string(body))
	}

	var (
		text    strings.Builder
		inTok   int
		outTok  int
		decoder = json.NewDecoder(resp.Body)
	)
	for {
		var genResp ollamaGenerateResponse
		if err := decoder.Decode(&genResp); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}
		text.WriteString(genResp.Response)
		if genResp.PromptEvalCount > 0 {
			inTok = genResp.PromptEvalCount
		}
		if genResp.EvalCount > 0 {
			outTok = genResp.EvalCount
		}
		if genResp.Done {
			break
		}
	}

	return &Reply{
		Text:         text.String(),
		Model:        g.model,
		InputTokens:  inTok,
		OutputTokens: outTok,
	}, nil
}
