package wbapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/user/tariffs-service/internal/entity"
	"github.com/user/tariffs-service/pkg/utils"
)

// Config describes how to reach the tariffs API.
type Config struct {
	BaseURL      string
	Endpoint     string
	PingEndpoint string
	Token        string
	Timeout      time.Duration
	// RequestGap is waited after every call so a tight caller loop does not
	// hammer the remote API.
	RequestGap time.Duration
}

// Client implements repository.TariffsAPI over HTTP.
type Client struct {
	cfg    Config
	http   *http.Client
	logger *zap.Logger
}

// NewClient creates a new instance of Client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	return &Client{
		cfg:    cfg,
		http:   newHTTPClient(),
		logger: logger.Named("tariffs-api"),
	}
}

func newHTTPClient() *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	// Per-request deadlines come from the context.
	return &http.Client{Transport: tr}
}

// Ping calls the liveness endpoint.
func (c *Client) Ping(ctx context.Context) error {
	target, err := utils.ToAbsoluteURL(c.cfg.BaseURL, c.cfg.PingEndpoint)
	if err != nil {
		return &ExternalAPIError{Message: "Invalid ping URL", StatusCode: http.StatusInternalServerError, Cause: err}
	}
	c.logger.Debug("pinging tariffs API", zap.String("url", target))

	status, body, _, err := c.get(ctx, target)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return &ExternalAPIError{
			Message:    fmt.Sprintf("Ping failed. Status %d", status),
			StatusCode: status,
			RawBody:    body,
		}
	}
	return nil
}

// FetchTariffs downloads the dataset. An empty body decodes to a nil payload.
func (c *Client) FetchTariffs(ctx context.Context) (*entity.APIResponse, error) {
	target, err := utils.ToAbsoluteURL(c.cfg.BaseURL, c.cfg.Endpoint)
	if err != nil {
		return nil, &ExternalAPIError{Message: "Invalid tariffs URL", StatusCode: http.StatusInternalServerError, Cause: err}
	}
	c.logger.Info("fetching tariffs", zap.String("url", target))

	status, body, finalURL, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, &ExternalAPIError{
			Message:    fmt.Sprintf("Failed to fetch tariffs. Status %d", status),
			StatusCode: status,
			RawBody:    body,
		}
	}

	var payload any
	if len(body) > 0 {
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, &ExternalAPIError{
				Message:    "Tariffs response is not valid JSON",
				StatusCode: status,
				RawBody:    body,
				Cause:      err,
			}
		}
	}

	return &entity.APIResponse{
		Payload:   payload,
		RawBody:   body,
		Status:    status,
		URL:       finalURL,
		FetchedAt: time.Now(),
	}, nil
}

func (c *Client) get(ctx context.Context, target string) (status int, body string, finalURL string, err error) {
	defer c.pause(ctx)

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, target, nil)
	if err != nil {
		return 0, "", "", &ExternalAPIError{Message: "Unexpected error while calling tariffs API", StatusCode: http.StatusInternalServerError, Cause: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", "", classifyTransportError(err)
	}
	return resp.StatusCode, string(b), resp.Request.URL.String(), nil
}

func classifyTransportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ExternalAPIError{Message: "Tariffs request timed out", StatusCode: StatusTimeout, Cause: err}
	}
	return &ExternalAPIError{Message: "Unexpected error while calling tariffs API", StatusCode: http.StatusInternalServerError, Cause: err}
}

func (c *Client) pause(ctx context.Context) {
	if c.cfg.RequestGap <= 0 {
		return
	}
	t := time.NewTimer(c.cfg.RequestGap)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
