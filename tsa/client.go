// Package tsa requests RFC 3161 timestamp tokens over HTTP.
package tsa

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/digitorus/timestamp"
	"github.com/inkseal/pdfsign/cms"
)

// DefaultTimeout applies when Client.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// maxResponseSize bounds the response body read from a TSA.
const maxResponseSize = 1 << 20

var ErrImprintMismatch = errors.New("timestamp imprint does not match the request")

// Client talks to one timestamp authority.
type Client struct {
	URL      string
	Username string
	Password string
	Timeout  time.Duration

	// HTTPClient is used for requests; http.DefaultClient when nil.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Timestamp requests a token over the SHA-256 digest of message and returns
// the DER encoded TimeStampToken.
func (c *Client) Timestamp(ctx context.Context, message []byte) ([]byte, error) {
	if c.URL == "" {
		return nil, errors.New("no timestamp authority URL configured")
	}

	nonce, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 64))
	if err != nil {
		return nil, fmt.Errorf("failed to create nonce: %w", err)
	}
	tsRequest, err := timestamp.CreateRequest(bytes.NewReader(message), &timestamp.RequestOptions{
		Hash:         crypto.SHA256,
		Certificates: true,
		Nonce:        nonce,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, bytes.NewReader(tsRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare request (%s): %w", c.URL, err)
	}
	req.Header.Add("Content-Type", "application/timestamp-query")
	req.Header.Add("Content-Transfer-Encoding", "binary")
	if c.Username != "" && c.Password != "" {
		req.SetBasicAuth(c.Username, c.Password)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	started := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("timestamp request to %s failed: %w", c.URL, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.New("non success response (" + strconv.Itoa(resp.StatusCode) + "): " + string(body))
	}

	ts, err := timestamp.ParseResponse(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp response: %w", err)
	}
	if err := checkResponse(ts, message, nonce); err != nil {
		return nil, err
	}

	c.logger().Debug("timestamp received",
		"url", c.URL,
		"time", ts.Time,
		"token_bytes", len(ts.RawToken),
		"elapsed", time.Since(started),
	)
	return ts.RawToken, nil
}

func checkResponse(ts *timestamp.Timestamp, message []byte, nonce *big.Int) error {
	h := ts.HashAlgorithm.New()
	h.Write(message)
	if !bytes.Equal(h.Sum(nil), ts.HashedMessage) {
		return ErrImprintMismatch
	}
	if ts.Nonce != nil && ts.Nonce.Cmp(nonce) != 0 {
		return errors.New("timestamp nonce does not match the request")
	}
	return nil
}

// TimestampFunc adapts the client to the container builder's hook.
func (c *Client) TimestampFunc(ctx context.Context) cms.TimestampFunc {
	return func(signature []byte) ([]byte, error) {
		return c.Timestamp(ctx, signature)
	}
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
