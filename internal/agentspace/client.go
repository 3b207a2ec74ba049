// Package agentspace is a client for the Agentspace (Discovery Engine)
// REST API covering authorizations and agent registrations.
package agentspace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"

	"github.com/soyeahso/jsmdeploy/internal/logging"
	"github.com/soyeahso/jsmdeploy/internal/version"
)

// Scope is the OAuth scope requested from Application Default Credentials.
const Scope = "https://www.googleapis.com/auth/cloud-platform"

const (
	apiVersion      = "v1alpha"
	defaultLocation = "global"
	requestTimeout  = 60 * time.Second
)

// BaseURL returns the API root for a location.
func BaseURL(location string) string {
	if location == "" || location == defaultLocation {
		return "https://discoveryengine.googleapis.com/" + apiVersion
	}
	return fmt.Sprintf("https://%s-discoveryengine.googleapis.com/%s", location, apiVersion)
}

// Options configures a Client.
type Options struct {
	Project       string
	ProjectNumber string
	Location      string
	// Endpoint overrides the API root derived from Location.
	Endpoint string
	// HTTPClient must attach credentials. When nil, Application Default
	// Credentials are used.
	HTTPClient *http.Client
}

// Client talks to the Agentspace API for one project and location.
type Client struct {
	http          *http.Client
	base          string
	project       string
	projectNumber string
	location      string
	log           *logging.Logger
}

// NewClient creates a Client.
func NewClient(ctx context.Context, opts Options, log *logging.Logger) (*Client, error) {
	if opts.Project == "" {
		return nil, errors.New("agentspace: project is required")
	}
	location := opts.Location
	if location == "" {
		location = defaultLocation
	}

	hc := opts.HTTPClient
	if hc == nil {
		var err error
		hc, err = google.DefaultClient(ctx, Scope)
		if err != nil {
			return nil, fmt.Errorf("could not obtain Google Cloud credentials (run 'gcloud auth application-default login'): %w", err)
		}
		hc.Timeout = requestTimeout
	}

	base := opts.Endpoint
	if base == "" {
		base = BaseURL(location)
	}

	return &Client{
		http:          hc,
		base:          strings.TrimSuffix(base, "/"),
		project:       opts.Project,
		projectNumber: opts.ProjectNumber,
		location:      location,
		log:           log.Sub("agentspace"),
	}, nil
}

// Location returns the API location.
func (c *Client) Location() string { return c.location }

func (c *Client) parent() string {
	return fmt.Sprintf("projects/%s/locations/%s", c.project, c.location)
}

// AuthorizationName is the resource name agents use to reference an
// authorization. It is keyed by project number, not id.
func (c *Client) AuthorizationName(authID string) string {
	project := c.projectNumber
	if project == "" {
		project = c.project
	}
	return fmt.Sprintf("projects/%s/locations/%s/authorizations/%s", project, c.location, authID)
}

func (c *Client) agentsPath(appID string) string {
	return fmt.Sprintf("%s/collections/default_collection/engines/%s/assistants/default_assistant/agents",
		c.parent(), appID)
}

// do sends a request and decodes a JSON response into out, if non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.base + "/" + strings.TrimPrefix(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Goog-User-Project", c.project)
	req.Header.Set("User-Agent", version.UserAgent())

	c.log.Debug().Str("method", method).Str("url", u).Msg("request")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	c.log.Trace().Str("method", method).Str("url", u).Int("status", resp.StatusCode).Msg("response")

	if err := googleapi.CheckResponse(resp); err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// IsNotFound reports whether err is an API 404.
func IsNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
