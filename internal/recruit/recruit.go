// Package recruit is a client for the recruitment service that stores postings and
// applications and performs the AI processing behind the selection pipeline.
package recruit

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultAPIURL  = "http://localhost:5000"
	defaultTimeout = 10 * time.Minute
	userAgent      = "spigell/hr-selection"
)

type Client struct {
	token      string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client for the service at apiURL. An empty token disables the
// Authorization header.
func New(logger *zap.Logger, apiURL, token string) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	apiURL = strings.TrimRight(strings.TrimSpace(apiURL), "/")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	return &Client{
		token:  strings.TrimSpace(token),
		APIURL: apiURL,
		// AI stages run synchronously on the service side and can take minutes.
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

// GetPostings returns all job postings.
func (c *Client) GetPostings(ctx context.Context) ([]*Posting, error) {
	return c.getPostings(ctx)
}

// GetApplications returns all applications, newest first.
func (c *Client) GetApplications(ctx context.Context) ([]*Application, error) {
	return c.getApplications(ctx)
}

// GetSelectedCandidates returns the candidates picked by the last selection.
func (c *Client) GetSelectedCandidates(ctx context.Context) ([]*SelectedCandidate, error) {
	return c.getSelectedCandidates(ctx)
}
