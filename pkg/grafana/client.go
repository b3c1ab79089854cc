package grafana

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTimeout       = 60 * time.Second
	DefaultRetryCount    = 3
	DefaultRetryWaitTime = 500 * time.Millisecond

	// disableProvenanceHeader keeps provisioned resources editable in the UI.
	disableProvenanceHeader = "X-Disable-Provenance"
)

// Config describes how to reach and authenticate against a Grafana server.
type Config struct {
	URL      string
	User     string
	Password string
	// Token is a service account or API token. It takes precedence over
	// basic auth.
	Token string
	// Verify enables TLS certificate verification.
	Verify bool
	// CACert is the path of a PEM bundle used to verify the server. It wins
	// over Verify when the file exists.
	CACert  string
	Timeout time.Duration

	RetryCount    int
	RetryWaitTime time.Duration
}

// Client is a retrying session against the Grafana HTTP API.
type Client struct {
	client *resty.Client
}

// New builds a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.URL == "" {
		return nil, errors.New("grafana URL must be set")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryCount < 0 {
		cfg.RetryCount = 0
	}
	if cfg.RetryWaitTime <= 0 {
		cfg.RetryWaitTime = DefaultRetryWaitTime
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.URL, "/")).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetRetryMaxWaitTime(8 * cfg.RetryWaitTime).
		AddRetryCondition(retryPolicy).
		SetLogger(&restyLogger{}).
		SetDisableWarn(true)

	switch {
	case cfg.CACert != "" && fileExists(cfg.CACert):
		client.SetRootCertificate(cfg.CACert)
	case !cfg.Verify:
		log.Warn("TLS certificate verification is disabled")
		client.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	}

	switch {
	case cfg.Token != "":
		client.SetAuthToken(cfg.Token)
	case cfg.User != "" && cfg.Password != "":
		if !strings.HasPrefix(strings.ToLower(cfg.URL), "https") {
			log.Warnf("Sending basic auth credentials to %s over plain HTTP", cfg.URL)
		}
		client.SetBasicAuth(cfg.User, cfg.Password)
	default:
		log.Debug("No Grafana credentials configured, sending anonymous requests")
	}

	return &Client{client: client}, nil
}

// retryPolicy retries connection errors, throttling and gateway failures.
func retryPolicy(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}

	switch r.StatusCode() {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func (c *Client) request(ctx context.Context) *resty.Request {
	return c.client.R().SetContext(ctx)
}

// execute runs req and turns transport failures and non-2xx responses into
// *TransportError and *APIError.
func (c *Client) execute(req *resty.Request, method, path string) (*resty.Response, error) {
	response, err := req.Execute(method, path)
	if err != nil {
		return response, &TransportError{Method: method, Path: path, Err: err}
	}

	log.Debugf("%s %s %s", method, response.Request.URL, response.Status())

	if !response.IsSuccess() {
		return response, &APIError{
			Method:     method,
			Path:       response.Request.URL,
			StatusCode: response.StatusCode(),
			Body:       strings.TrimSpace(string(response.Body())),
		}
	}

	return response, nil
}

func decode(response *resty.Response, out any) error {
	body := response.Body()
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response of %s %s: %w", response.Request.Method, response.Request.URL, err)
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
