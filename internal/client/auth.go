package client

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Credentials is the login body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Signup is the registration body.
type Signup struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account.
func (c *Client) Signup(s Signup) error {
	code, body, err := c.postJSON("/api/auth/signup", s)
	if err != nil {
		c.logger.Error("signup failed", zap.Error(err))
		return err
	}
	if code != fiber.StatusCreated {
		c.logger.Error("signup failed", zap.Int("status", code), zap.ByteString("body", body))
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	return nil
}

// Login exchanges credentials for an access token.
func (c *Client) Login(creds Credentials) (string, error) {
	code, body, err := c.postJSON("/api/auth/login", creds)
	if err != nil {
		c.logger.Error("login failed", zap.Error(err))
		return "", err
	}
	if code != fiber.StatusOK {
		c.logger.Error("login failed", zap.Int("status", code))
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatus, code)
	}
	var resp struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if resp.Token == "" {
		return "", ErrMissingToken
	}
	return resp.Token, nil
}

func (c *Client) postJSON(path string, v any) (int, []byte, error) {
	a := c.agents.Post(c.url(path)).JSON(v)
	if c.timeout > 0 {
		a.Timeout(c.timeout)
	}
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return 0, nil, fmt.Errorf("%w: %w", ErrTransport, errors.Join(errs...))
	}
	return code, body, nil
}
