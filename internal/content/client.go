package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"ringside/internal/config"
	"ringside/internal/domain"
)

// ErrUnavailable wraps every failure talking to the content API.
var ErrUnavailable = errors.New("content api unavailable")

const (
	productsQuery = `*[_type == "product"] | order(name asc) {
  "id": _id, name, "slug": slug.current, description,
  "category": category->title, price, originalPrice,
  "image": image.asset->url, colors, sizes, customizable, inStock
}`
	categoriesQuery = `*[_type == "category"] | order(title asc) {
  "id": _id, title, "slug": slug.current
}`
)

// Client runs read-only queries against a hosted content dataset.
type Client struct {
	baseURL    string
	dataset    string
	apiVersion string
	token      string
	client     *http.Client
	log        *zap.Logger
}

func New(cfg config.ContentConfig, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		dataset:    cfg.Dataset,
		apiVersion: strings.TrimPrefix(cfg.APIVersion, "v"),
		token:      cfg.Token,
		client:     &http.Client{Timeout: timeout},
		log:        log,
	}
}

type queryResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *struct {
		Description string `json:"description"`
	} `json:"error,omitempty"`
}

// Query runs a query with optional $params and decodes the result field into out.
func (c *Client) Query(ctx context.Context, query string, params map[string]any, out any) error {
	q := url.Values{}
	q.Set("query", query)
	for k, v := range params {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode param %s: %w", k, err)
		}
		q.Set("$"+k, string(raw))
	}
	endpoint := fmt.Sprintf("%s/v%s/data/query/%s?%s", c.baseURL, c.apiVersion, url.PathEscape(c.dataset), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	c.log.Debug("content query",
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
		zap.Int("bytes", len(body)),
	)

	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("%w: status %d: decode response: %v", ErrUnavailable, resp.StatusCode, err)
	}
	if qr.Error != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, qr.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if len(qr.Result) == 0 || string(qr.Result) == "null" {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("%w: decode result: %v", ErrUnavailable, err)
	}
	return nil
}

// Products fetches every product document.
func (c *Client) Products(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	if err := c.Query(ctx, productsQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Categories fetches every category document.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.Query(ctx, categoriesQuery, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
