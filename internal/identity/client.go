// Package identity fetches the user record from the remote identity source.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"phonelogin/internal/autherr"
	"phonelogin/internal/models"
)

const (
	// DefaultURL is the public random-identity endpoint.
	DefaultURL = "https://randomuser.me/api/"
	// DefaultTimeout bounds the whole fetch, body included.
	DefaultTimeout = 10 * time.Second
	// DefaultProbeTimeout bounds the avatar reachability check.
	DefaultProbeTimeout = 3 * time.Second

	maxBodyBytes = 1 << 20
)

// Client performs a single timed fetch per call. It never retries.
type Client struct {
	url          string
	http         *http.Client
	timeout      time.Duration
	primary      AvatarStyle
	alternate    AvatarStyle
	probe        bool
	probeTimeout time.Duration
	log          zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithAvatarProbe enables a HEAD check of the derived avatar before using it.
func WithAvatarProbe(enabled bool, timeout time.Duration) Option {
	return func(c *Client) {
		c.probe = enabled
		if timeout > 0 {
			c.probeTimeout = timeout
		}
	}
}

// WithAvatarStyles replaces the primary and alternate avatar derivations.
func WithAvatarStyles(primary, alternate AvatarStyle) Option {
	return func(c *Client) {
		if primary != nil {
			c.primary = primary
		}
		if alternate != nil {
			c.alternate = alternate
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for endpoint. An empty endpoint uses DefaultURL.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	c := &Client{
		url:          endpoint,
		http:         &http.Client{},
		timeout:      DefaultTimeout,
		primary:      SeedAvatar,
		alternate:    InitialsAvatar,
		probeTimeout: DefaultProbeTimeout,
		log:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With().Str("component", "identity_client").Logger()
	return c
}

type apiResponse struct {
	Results []json.RawMessage `json:"results"`
}

type apiUser struct {
	Name struct {
		First string `json:"first"`
		Last  string `json:"last"`
	} `json:"name"`
	Email   string `json:"email"`
	Picture struct {
		Large     string `json:"large"`
		Medium    string `json:"medium"`
		Thumbnail string `json:"thumbnail"`
	} `json:"picture"`
}

// FetchIdentity retrieves one user record. Every failure is an *autherr.Error.
func (c *Client) FetchIdentity(ctx context.Context) (*models.UserRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := c.get(ctx)
	if err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Results) == 0 {
		return nil, autherr.API(autherr.ReasonNoData, "no user data found")
	}
	var raw apiUser
	if err := json.Unmarshal(resp.Results[0], &raw); err != nil {
		return nil, autherr.API(autherr.ReasonMissingFields, "missing required fields")
	}
	user := &models.UserRecord{
		FirstName: raw.Name.First,
		LastName:  raw.Name.Last,
		Email:     raw.Email,
		Avatar: models.Avatar{
			Large:     raw.Picture.Large,
			Medium:    raw.Picture.Medium,
			Thumbnail: raw.Picture.Thumbnail,
		},
	}
	if !user.Valid() {
		return nil, autherr.API(autherr.ReasonMissingFields, "missing required fields")
	}

	user.Avatar = c.avatarFor(ctx, user)
	return user, nil
}

func (c *Client) get(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, autherr.General(err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	defer resp.Body.Close()

	c.log.Debug().Int("status", resp.StatusCode).Dur("elapsed", time.Since(start)).Msg("identity response")
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, autherr.APIStatus(resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.classify(ctx, err)
	}
	return body, nil
}

// classify maps a transport failure onto the error taxonomy by inspecting
// the error chain, never its text. Only failures to reach the host count as
// connection errors; anything else the round trip reports is unexpected.
func (c *Client) classify(ctx context.Context, err error) *autherr.Error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		ctx.Err() != nil ||
		(errors.As(err, &nerr) && nerr.Timeout()) {
		return autherr.Network(autherr.ReasonTimeout,
			fmt.Sprintf("request timed out after %s", c.timeout), err)
	}

	// http.Client wraps every failure in *url.Error, which is itself a
	// net.Error, so look at what it wraps.
	inner := err
	var uerr *url.Error
	if errors.As(err, &uerr) {
		inner = uerr.Err
	}
	if isConnErr(inner) {
		return autherr.Network(autherr.ReasonConnection, "unable to reach the identity service", err)
	}
	return autherr.General(err)
}

func isConnErr(err error) bool {
	var (
		opErr  *net.OpError
		dnsErr *net.DNSError
	)
	return errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// avatarFor substitutes derived avatar URLs, falling back to the alternate
// style when the probe fails and to the original URLs when no name exists.
func (c *Client) avatarFor(ctx context.Context, user *models.UserRecord) models.Avatar {
	derived, ok := DeriveAvatar(c.primary, user.FirstName, user.LastName)
	if !ok {
		return user.Avatar
	}
	if !c.probe || c.reachable(ctx, derived.Large) {
		return derived
	}
	alt, _ := DeriveAvatar(c.alternate, user.FirstName, user.LastName)
	c.log.Debug().Str("url", derived.Large).Msg("avatar probe failed, using alternate")
	return alt
}

func (c *Client) reachable(ctx context.Context, target string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, target, nil)
	if err != nil {
		return false
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}
