// Package tinify proxies image compression through the Tinify API so the
// API key never reaches the browser.
package tinify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"solidum/pkg/apierror"
)

const (
	shrinkURL = "https://api.tinify.com/shrink"

	// MaxImageSize is the Tinify upload cap.
	MaxImageSize = 5 << 20
)

// Compression is one shrunk image.
type Compression struct {
	OriginalSize   int
	CompressedSize int
	MimeType       string
	Data           []byte
}

// Client calls the Tinify shrink API.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

// NewClient creates a Tinify client. The key comes from the TINIFY_API_KEY
// environment variable.
func NewClient(apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    shrinkURL,
	}
}

type shrinkResponse struct {
	Output struct {
		URL string `json:"url"`
	} `json:"output"`
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Compress shrinks one image and downloads the result.
func (c *Client) Compress(ctx context.Context, content []byte, mimeType string) (*Compression, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("building shrink request: %w", err)
	}
	req.SetBasicAuth("api", c.apiKey)
	req.Header.Set("Content-Type", mimeType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling shrink API: %w", err)
	}
	defer resp.Body.Close()

	var shrunk shrinkResponse
	if err := json.NewDecoder(resp.Body).Decode(&shrunk); err != nil && resp.StatusCode < 300 {
		return nil, fmt.Errorf("decoding shrink response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apierror.New(apierror.CodeUnauthorized, "API key inválida ou expirada", "")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apierror.New(apierror.CodeTooMany, "Limite de 500 compressions/mês excedido", "")
	case resp.StatusCode >= 300:
		message := shrunk.Error
		if message == "" {
			message = fmt.Sprintf("Erro %d", resp.StatusCode)
		}
		return nil, apierror.New(apierror.CodeInternal, message, shrunk.Message)
	}

	if shrunk.Output.URL == "" {
		return nil, apierror.New(apierror.CodeInternal, "Resposta inválida do Tinify", "")
	}

	return c.download(ctx, shrunk.Output.URL, mimeType, len(content))
}

func (c *Client) download(ctx context.Context, url, fallbackMime string, originalSize int) (*Compression, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}
	req.SetBasicAuth("api", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading compressed image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, apierror.New(apierror.CodeInternal, "Erro ao baixar imagem comprimida", "")
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading compressed image: %w", err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = fallbackMime
	}
	return &Compression{
		OriginalSize:   originalSize,
		CompressedSize: len(data),
		MimeType:       mimeType,
		Data:           data,
	}, nil
}
