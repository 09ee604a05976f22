// Package client talks to the storefront API on behalf of a seller: it submits
// product drafts and pulls server state into mirror slices.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storefront/internal/catalog"
	"storefront/internal/mirror"
)

var (
	ErrUnexpectedStatus = errors.New("unexpected response status")
	ErrMissingToken     = errors.New("no access token available")
	ErrTransport        = errors.New("request failed")
)

// TokenSource supplies the bearer token for authenticated requests.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a fixed token.
type StaticToken string

func (t StaticToken) Token() (string, error) { return string(t), nil }

// TokenFunc adapts a function to TokenSource.
type TokenFunc func() (string, error)

func (f TokenFunc) Token() (string, error) { return f() }

// Client is the storefront API client. It is safe for concurrent use.
type Client struct {
	baseURL string
	agents  *fiber.Client
	tokens  TokenSource
	store   *mirror.Store
	logger  *zap.Logger
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTokenSource sets where bearer tokens come from.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithLogger sets the logger; failures are reported there.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTimeout bounds each request. Requests have no deadline by default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// New returns a client for the server at baseURL that writes fetched state
// into store.
func New(baseURL string, store *mirror.Store, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		agents:  &fiber.Client{UserAgent: "storefront-client"},
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store returns the mirror store the fetch actions write into.
func (c *Client) Store() *mirror.Store { return c.store }

// SubmitProduct posts a draft to /api/product/add. An incomplete draft is
// refused without a request. Transport failures and non-2xx answers are
// logged and returned; nothing is retried. The response body is returned on
// success.
func (c *Client) SubmitProduct(d *catalog.Draft) (json.RawMessage, error) {
	payload, err := d.Payload()
	if err != nil {
		return nil, err
	}

	a := c.agents.Post(c.url("/api/product/add")).JSON(payload)
	if token, _ := c.optionalToken(); token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrTransport, errors.Join(errs...))
		c.logger.Error("failed to register item", zap.Error(err))
		return nil, err
	}
	if code < 200 || code > 299 {
		c.logger.Error("failed to register item", zap.Int("status", code), zap.ByteString("body", body))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	c.logger.Info("item registered", zap.Int("status", code), zap.String("name", payload.Name))
	return body, nil
}

// FetchRegisteredProducts loads the caller's products currently on sale into
// the productRegistered slice.
func (c *Client) FetchRegisteredProducts() error {
	return c.fetchInto("/api/sale/current", c.store.ProductRegistered)
}

// FetchCart loads the caller's cart into the cart slice.
func (c *Client) FetchCart() error {
	return c.fetchInto("/api/cart", c.store.Cart)
}

// FetchPurchases loads the caller's purchases into the purchase slice.
func (c *Client) FetchPurchases() error {
	return c.fetchInto("/api/purchase", c.store.Purchase)
}

// FetchUser loads the caller's profile into the user slice.
func (c *Client) FetchUser() error {
	return c.fetchInto("/api/user/me", c.store.User)
}

// FetchProductDetail loads one product into the productDetail slice.
func (c *Client) FetchProductDetail(id string) error {
	return c.fetchInto("/api/product/"+url.PathEscape(id), c.store.ProductDetail)
}

// fetchInto issues one authenticated GET and replaces s with the body on 200.
// On any failure s keeps its previous value.
func (c *Client) fetchInto(path string, s *mirror.Slice) error {
	log := c.logger.With(zap.String("slice", s.Name()), zap.String("path", path))

	token, err := c.optionalToken()
	if err != nil {
		log.Error("failed to read access token", zap.Error(err))
		return err
	}
	if token == "" {
		log.Error("fetch skipped", zap.Error(ErrMissingToken))
		return ErrMissingToken
	}

	a := c.agents.Get(c.url(path)).Set(fiber.HeaderAuthorization, "Bearer "+token)
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		err := fmt.Errorf("%w: %w", ErrTransport, errors.Join(errs...))
		log.Error("fetch failed", zap.Error(err))
		return err
	}
	if code != fiber.StatusOK {
		log.Error("fetch failed", zap.Int("status", code))
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}

	s.Replace(body)
	log.Debug("slice replaced", zap.Int("bytes", len(body)))
	return nil
}

func (c *Client) optionalToken() (string, error) {
	if c.tokens == nil {
		return "", nil
	}
	return c.tokens.Token()
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}
