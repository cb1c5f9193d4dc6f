package google

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/searchconsole/v1"
)

// CredentialError means the service account key could not be read or the API
// session could not be established. It aborts the whole run.
type CredentialError struct {
	Err error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("credential error: %v", e.Err)
}

func (e *CredentialError) Unwrap() error { return e.Err }

// Client wraps an authenticated Search Console service. One client is built
// at startup and shared by all report fetches; token refresh happens inside
// the oauth2 transport.
type Client struct {
	logger      *zap.Logger
	service     *searchconsole.Service
	maxAttempts int
	retryDelay  time.Duration
}

// NewClient authenticates with a service account key file and returns a
// ready client.
func NewClient(ctx context.Context, logger *zap.Logger, serviceAccountPath string) (*Client, error) {
	b, err := os.ReadFile(serviceAccountPath)
	if err != nil {
		return nil, &CredentialError{Err: fmt.Errorf("unable to read service account file: %w", err)}
	}

	cfg, err := google.JWTConfigFromJSON(b, searchconsole.WebmastersReadonlyScope)
	if err != nil {
		return nil, &CredentialError{Err: fmt.Errorf("unable to parse service account file: %w", err)}
	}

	srv, err := searchconsole.NewService(ctx, option.WithHTTPClient(cfg.Client(ctx)))
	if err != nil {
		return nil, &CredentialError{Err: fmt.Errorf("unable to create search console service: %w", err)}
	}

	return NewClientForService(logger, srv), nil
}

// NewClientForService wraps an already constructed service. Useful when the
// API endpoint is overridden.
func NewClientForService(logger *zap.Logger, srv *searchconsole.Service) *Client {
	return &Client{
		logger:      logger,
		service:     srv,
		maxAttempts: 3,
		retryDelay:  500 * time.Millisecond,
	}
}
