package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/wookiisky/think-bot/internal/errors"
)

const jinaBaseURL = "https://r.jina.ai/"

// JinaExtractor extracts pages through the Jina reader API, which returns
// ready-made markdown. An API key raises the rate limit but is optional.
type JinaExtractor struct {
	Client  *http.Client
	BaseURL string
	APIKey  string
}

func NewJinaExtractor(apiKey string) *JinaExtractor {
	return &JinaExtractor{
		Client:  &http.Client{Timeout: 60 * time.Second},
		BaseURL: jinaBaseURL,
		APIKey:  apiKey,
	}
}

func (e *JinaExtractor) Name() string { return MethodJina }

func (e *JinaExtractor) Extract(ctx context.Context, pageURL string) (string, error) {
	if isRestrictedURL(pageURL) {
		return "", errors.PageRestricted(pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.BaseURL+pageURL, nil)
	if err != nil {
		return "", errors.ExtractFailed(MethodJina, pageURL, err)
	}
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}
	req.Header.Set("Accept", "text/plain")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", errors.ExtractFailed(MethodJina, pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", errors.ExtractFailed(MethodJina, pageURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", errors.ExtractFailed(MethodJina, pageURL, err)
	}
	if len(body) == 0 {
		return "", errors.ExtractFailed(MethodJina, pageURL, fmt.Errorf("empty response"))
	}
	return string(body), nil
}
