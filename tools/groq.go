package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

const groqAPIURL = "https://api.groq.com/openai/v1/chat/completions"
const groqModel = "llama3-8b-8192"

// GroqClient chama a API de chat completions da Groq (formato OpenAI).
type GroqClient struct {
	APIKey string
	Model  string
	HTTP   *http.Client
}

func NewGroqClient() *GroqClient {
	return &GroqClient{
		APIKey: strings.TrimSpace(os.Getenv("GROQ_API_KEY")),
		Model:  getenv("GROQ_MODEL", groqModel),
		HTTP:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Complete envia system prompt + texto do usuário e devolve a resposta do
// assistente. Chamada única, sem retry: falha vira erro e o caller decide
// (em geral "sem resposta").
func (g *GroqClient) Complete(ctx context.Context, systemPrompt, userText string) (string, error) {
	if g.APIKey == "" {
		return "", fmt.Errorf("GROQ_API_KEY not set")
	}

	reqBody := map[string]any{
		"model": g.Model,
		"messages": []map[string]string{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userText},
		},
		"temperature": 0.7,
		"max_tokens":  1024,
	}

	b, _ := json.Marshal(reqBody)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, groqAPIURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("groq error %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", err
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}

func getenv(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}
