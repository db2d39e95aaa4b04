package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"endorsement/internal/domain"
	"endorsement/internal/encoder"
	"endorsement/internal/infra"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash-image"

	modalityImage = "IMAGE"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the Gemini generateContent endpoint over plain JSON/HTTP and
// turns the first inline image of the response into a data URI.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiCandidate struct {
	Content      geminiContent `json:"content"`
	FinishReason string        `json:"finishReason,omitempty"`
}

type geminiPromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates     []geminiCandidate     `json:"candidates"`
	PromptFeedback *geminiPromptFeedback `json:"promptFeedback,omitempty"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a Gemini client with sane defaults. Callers may provide
// a nil HTTP client; a reusable one with a bounded timeout will be created.
// A missing API key is not an error here: every Generate call reports it.
func NewClient(opts Options) (*Client, error) {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("genai: parse base url: %w", err)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     loggerOrDiscard(opts.Logger),
	}, nil
}

// Model returns the configured Gemini model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether an API key was configured.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

// Generate sends the prompt with both photos and returns the generated image
// as a data URI. One attempt, no retry.
func (c *Client) Generate(ctx context.Context, prompt string, model, product encoder.SourceImage) (string, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("genai: api key is not set: %w", domain.ErrConfiguration)
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{{
			Role: "user",
			Parts: []geminiPart{
				{Text: prompt},
				{InlineData: &geminiInlineData{MimeType: model.MIMEType, Data: model.Base64()}},
				{InlineData: &geminiInlineData{MimeType: product.MIMEType, Data: product.Base64()}},
			},
		}},
		GenerationConfig: &geminiGenerationConfig{ResponseModalities: []string{modalityImage}},
	}

	var response geminiGenerateContentResponse
	if err := c.invokeGemini(ctx, fmt.Sprintf("/models/%s:generateContent", url.PathEscape(c.model)), payload, &response); err != nil {
		return "", err
	}

	uri, err := firstInlineImage(response)
	if err != nil {
		return "", err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("bytes", len(uri)).
		Msg("genai: received endorsement image")
	return uri, nil
}

func (c *Client) invokeGemini(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("genai: marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("genai: create request: %w: %w", domain.ErrTransport, err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke gemini: %w: %w", domain.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		var apiErr geminiErrorResponse
		if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("genai: status %d: %s: %w", resp.StatusCode, apiErr.Error.Message, domain.ErrTransport)
		}
		if msg := strings.TrimSpace(string(data)); msg != "" {
			return fmt.Errorf("genai: status %d: %s: %w", resp.StatusCode, msg, domain.ErrTransport)
		}
		return fmt.Errorf("genai: status %d: %w", resp.StatusCode, domain.ErrTransport)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w: %w", domain.ErrResponseFormat, err)
	}
	return nil
}

func firstInlineImage(response geminiGenerateContentResponse) (string, error) {
	for _, candidate := range response.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || part.InlineData.Data == "" {
				continue
			}
			if _, err := base64.StdEncoding.DecodeString(part.InlineData.Data); err != nil {
				return "", fmt.Errorf("genai: decode inline data: %w: %w", domain.ErrResponseFormat, err)
			}
			return encoder.DataURI(part.InlineData.MimeType, part.InlineData.Data), nil
		}
	}
	if response.PromptFeedback != nil && response.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("genai: prompt blocked (%s): %w", response.PromptFeedback.BlockReason, domain.ErrResponseFormat)
	}
	return "", fmt.Errorf("genai: no image data received: %w", domain.ErrResponseFormat)
}

func loggerOrDiscard(l *infra.Logger) *infra.Logger {
	if l != nil {
		return l
	}
	discard := infra.Logger(zerolog.New(io.Discard))
	return &discard
}
