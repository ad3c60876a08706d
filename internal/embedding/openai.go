package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"

	"readest-ai-core/internal/ragerr"
)

// OpenAICompatClient speaks the OpenAI-compatible embeddings HTTP
// contract: POST {baseURL}/embeddings with Bearer auth, JSON body
// {model, input, encoding_format:"float"}, expecting
// {data:[{embedding,index}...]} sorted by index before use.
type OpenAICompatClient struct {
	BaseURL   string
	APIKey    string
	Model     string
	dimension int

	httpClient *http.Client
}

// NewOpenAICompatClient constructs a client. baseURL and apiKey are
// required; a missing value is a ConfigError raised at construction,
// never retried.
func NewOpenAICompatClient(baseURL, apiKey, model string) (*OpenAICompatClient, error) {
	if baseURL == "" {
		return nil, ragerr.Config("embedding.NewOpenAICompatClient", fmt.Errorf("missing base URL"))
	}
	if apiKey == "" {
		return nil, ragerr.Config("embedding.NewOpenAICompatClient", fmt.Errorf("missing API key"))
	}
	return &OpenAICompatClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		httpClient: http.DefaultClient,
	}, nil
}

type embeddingsRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	EncodingFormat string   `json:"encoding_format"`
}

type embeddingDatum struct {
	Embedding []float64 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingsResponse struct {
	Data []embeddingDatum `json:"data"`
}

func (c *OpenAICompatClient) Dimension() int  { return c.dimension }
func (c *OpenAICompatClient) ModelName() string { return c.Model }

// Embed embeds a single piece of text.
func (c *OpenAICompatClient) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedMany(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedMany embeds a batch of texts in one round trip, sorting the
// response by index before returning so callers can assume
// result[i] corresponds to texts[i] regardless of transport ordering.
func (c *OpenAICompatClient) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ragerr.Embedding("embedding.EmbedMany", fmt.Errorf("empty input"))
	}

	url := c.BaseURL + "/embeddings"
	payload := embeddingsRequest{Model: c.Model, Input: texts, EncodingFormat: "float"}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ragerr.Embedding("embedding.EmbedMany", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, ragerr.Embedding("embedding.EmbedMany", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, ragerr.Embedding("embedding.EmbedMany", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, ragerr.Embedding("embedding.EmbedMany", fmt.Errorf("bad status %d: %s", resp.StatusCode, raw))
	}

	var decoded embeddingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, ragerr.Embedding("embedding.EmbedMany", err)
	}
	if len(decoded.Data) != len(texts) {
		return nil, ragerr.Embedding("embedding.EmbedMany",
			fmt.Errorf("expected %d embeddings, got %d", len(texts), len(decoded.Data)))
	}

	sort.Slice(decoded.Data, func(i, j int) bool { return decoded.Data[i].Index < decoded.Data[j].Index })

	result := make([][]float32, len(decoded.Data))
	for i, d := range decoded.Data {
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		result[i] = vec
	}
	if len(result) > 0 && c.dimension == 0 {
		c.dimension = len(result[0])
	}
	return result, nil
}
