package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"strings"

	gsdk "google.golang.org/genai"

	"endorsement/internal/domain"
	"endorsement/internal/encoder"
	"endorsement/internal/infra"
)

// SDKClient is the Generate backend built on the official Google Gen AI SDK.
type SDKClient struct {
	client *gsdk.Client
	model  string
	logger *infra.Logger
}

// NewSDKClient builds the SDK backend. Without an API key no SDK client is
// created and every Generate call fails with domain.ErrConfiguration.
func NewSDKClient(ctx context.Context, opts Options) (*SDKClient, error) {
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	c := &SDKClient{model: model, logger: loggerOrDiscard(opts.Logger)}

	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return c, nil
	}
	client, err := gsdk.NewClient(ctx, &gsdk.ClientConfig{
		APIKey:      apiKey,
		Backend:     gsdk.BackendGeminiAPI,
		HTTPClient:  opts.HTTPClient,
		HTTPOptions: sdkHTTPOptions(opts.BaseURL),
	})
	if err != nil {
		return nil, fmt.Errorf("genai: create sdk client: %w", err)
	}
	c.client = client
	return c, nil
}

// sdkHTTPOptions splits a base URL such as ".../v1beta" into the endpoint
// and API version the SDK joins itself. An empty base URL keeps SDK defaults.
func sdkHTTPOptions(baseURL string) gsdk.HTTPOptions {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return gsdk.HTTPOptions{}
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return gsdk.HTTPOptions{BaseURL: baseURL + "/"}
	}
	dir, last := path.Split(u.Path)
	if len(last) > 1 && last[0] == 'v' && last[1] >= '0' && last[1] <= '9' {
		u.Path = dir
		return gsdk.HTTPOptions{BaseURL: u.String(), APIVersion: last}
	}
	return gsdk.HTTPOptions{BaseURL: baseURL + "/"}
}

// Model returns the configured Gemini model identifier.
func (c *SDKClient) Model() string {
	return c.model
}

// HasCredentials reports whether the SDK client was created with a key.
func (c *SDKClient) HasCredentials() bool {
	return c != nil && c.client != nil
}

// Generate mirrors Client.Generate using the SDK request types.
func (c *SDKClient) Generate(ctx context.Context, prompt string, model, product encoder.SourceImage) (string, error) {
	if !c.HasCredentials() {
		return "", fmt.Errorf("genai: api key is not set: %w", domain.ErrConfiguration)
	}

	parts := []*gsdk.Part{
		gsdk.NewPartFromText(prompt),
		gsdk.NewPartFromBytes(model.Data, model.MIMEType),
		gsdk.NewPartFromBytes(product.Data, product.MIMEType),
	}
	contents := []*gsdk.Content{gsdk.NewContentFromParts(parts, gsdk.RoleUser)}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, &gsdk.GenerateContentConfig{
		ResponseModalities: []string{modalityImage},
	})
	if err != nil {
		return "", fmt.Errorf("genai: sdk generate: %w: %w", domain.ErrTransport, err)
	}
	if resp == nil {
		return "", fmt.Errorf("genai: empty sdk response: %w", domain.ErrResponseFormat)
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			c.logger.Debug().
				Str("model", c.model).
				Int("bytes", len(part.InlineData.Data)).
				Msg("genai: received endorsement image via sdk")
			return encoder.DataURI(part.InlineData.MIMEType, base64.StdEncoding.EncodeToString(part.InlineData.Data)), nil
		}
	}
	return "", fmt.Errorf("genai: no image data received: %w", domain.ErrResponseFormat)
}
