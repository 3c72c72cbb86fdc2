// Package rates Клиент внешнего API курсов валют.
package rates

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/shoksin/expenseBot/internal/models/bottypes"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ErrRateUnavailable Курс получить не удалось: сеть, ответ API или отсутствие валюты в ответе.
var ErrRateUnavailable = errors.New("exchange rate unavailable")

// ratesResponse Ответ API в формате {"rates": {"EUR": 0.92, ...}}.
type ratesResponse struct {
	Success *bool                 `json:"success"`
	Base    string                `json:"base"`
	Rates   bottypes.ExchangeRate `json:"rates"`
	Error   *struct {
		Code int    `json:"code"`
		Type string `json:"type"`
		Info string `json:"info"`
	} `json:"error"`
}

type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout Таймаут задаётся на копии клиента, переданный или общий http.Client не меняется.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		cl := *c.httpClient
		cl.Timeout = timeout
		c.httpClient = &cl
	}
}

func New(baseURL, accessKey string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		accessKey:  accessKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Rate Множитель для перевода суммы из base в target. Один запрос на вызов, без кэша и повторов.
func (c *Client) Rate(ctx context.Context, base, target string) (rate float64, err error) {
	ctx, span := otel.Tracer("rates").Start(ctx, "GetExchangeRate")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("currency.base", base),
		attribute.String("currency.target", target),
	)

	rates, err := c.fetch(ctx, base)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrRateUnavailable, err)
	}

	rate, ok := rates[target]
	if !ok {
		return 0, fmt.Errorf("%w: no rate for %s in response for base %s", ErrRateUnavailable, target, base)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("%w: invalid rate %v for %s", ErrRateUnavailable, rate, target)
	}
	return rate, nil
}

func (c *Client) requestURL(base string) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("access_key", c.accessKey)
	q.Set("base", base)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) fetch(ctx context.Context, base string) (bottypes.ExchangeRate, error) {
	reqURL, err := c.requestURL(base)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// URL содержит ключ доступа, в текст ошибки он попасть не должен.
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			err = urlErr.Err
		}
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body ratesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if body.Success != nil && !*body.Success {
		if body.Error != nil {
			return nil, fmt.Errorf("api error %d (%s): %s", body.Error.Code, body.Error.Type, body.Error.Info)
		}
		return nil, errors.New("api reported failure")
	}
	return body.Rates, nil
}
