// Package sign provides a client for the external signing service
//
// the upstream platform requires an x-s/x-t signature pair on every API
// call, computed by a separate signing microservice. One Client is built
// per publish attempt so its memoization cache and refreshed identity
// token never leak across requests
package sign

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"noterelay/internal/core/cookie"
	perr "noterelay/internal/platform/errors"
	"noterelay/internal/platform/logger"
	"noterelay/internal/platform/retry"
)

const (
	defaultTimeout     = 15 * time.Second
	defaultMaxAttempts = 3
	defaultBackoffBase = 1 * time.Second
)

// Signature is the token pair authorizing one platform API call
type Signature struct {
	XS string `json:"x-s"`
	XT string `json:"x-t"`
}

// Options configures the Client
type Options struct {
	// BaseURL of the signing service, required
	BaseURL string

	// Timeout per signing attempt
	Timeout time.Duration

	// Retry config per unique request fingerprint
	MaxAttempts int
	BackoffBase time.Duration
}

// Client signs outbound platform calls for a single publish attempt
// not safe for concurrent use; each attempt constructs its own
type Client struct {
	http *http.Client
	opts Options
	cred cookie.Credential
	log  logger.Logger

	cache     map[string]Signature
	refreshed bool

	sleep func(time.Duration)
}

// NewClient builds a Client bound to one attempt's credential
func NewClient(o Options, cred cookie.Credential) *Client {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultMaxAttempts
	}
	if o.BackoffBase <= 0 {
		o.BackoffBase = defaultBackoffBase
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		cred:  cred,
		log:   *logger.Named("sign"),
		cache: map[string]Signature{},
		sleep: time.Sleep,
	}
}

// Credential returns the credential for platform calls, including the
// refreshed identity token once RefreshIdentity has run
func (c *Client) Credential() cookie.Credential { return c.cred }

// signRequest is the wire body for POST {base}/sign
type signRequest struct {
	URI        string `json:"uri"`
	Data       any    `json:"data"`
	A1         string `json:"a1"`
	WebSession string `json:"web_session"`
	WebID      string `json:"web_id"`
}

// Sign returns the signature for (uri, payload), memoized per fingerprint
// identical calls within the attempt reuse the cached pair with no
// second network call
func (c *Client) Sign(ctx context.Context, uri string, payload any) (Signature, error) {
	c.refreshIdentity(ctx)

	fp, err := Fingerprint(uri, payload)
	if err != nil {
		return Signature{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "sign payload not serializable")
	}
	if sig, ok := c.cache[fp]; ok {
		c.log.Debug().Str("uri", uri).Msg("signature cache hit")
		return sig, nil
	}

	var sig Signature
	policy := retry.Policy{
		MaxAttempts: c.opts.MaxAttempts,
		Backoff:     retry.Linear(c.opts.BackoffBase),
		Retryable:   func(error) bool { return true },
		Sleep:       c.sleep,
	}
	err = policy.Do(ctx, func(attempt int) error {
		s, err := c.signOnce(ctx, uri, payload)
		if err != nil {
			c.log.Warn().Err(err).Str("uri", uri).Int("attempt", attempt).Msg("sign attempt failed")
			return err
		}
		sig = s
		return nil
	})
	if err != nil {
		return Signature{}, err
	}
	c.cache[fp] = sig
	return sig, nil
}

func (c *Client) signOnce(ctx context.Context, uri string, payload any) (Signature, error) {
	body, err := json.Marshal(signRequest{
		URI:        uri,
		Data:       payload,
		A1:         c.cred.A1,
		WebSession: c.cred.WebSession,
		WebID:      c.cred.WebID,
	})
	if err != nil {
		return Signature{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "sign request marshal failed")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/sign", bytes.NewReader(body))
	if err != nil {
		return Signature{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "sign new request failed")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Signature{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sign service unreachable")
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return Signature{}, perr.Newf(perr.ErrorCodeUnavailable, "sign service status %d", resp.StatusCode)
	}

	var sig Signature
	if err := json.NewDecoder(resp.Body).Decode(&sig); err != nil {
		return Signature{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "sign response not JSON")
	}
	// a response missing either token is a failure, never a partial success
	if sig.XS == "" || sig.XT == "" {
		return Signature{}, perr.Newf(perr.ErrorCodeUnavailable, "sign response missing x-s or x-t")
	}
	return sig, nil
}

// refreshIdentity swaps the attempt's a1 token for a fresh one from the
// signing service, at most once per attempt. The signing service and the
// caller's session must agree on this token; on failure the original
// token is kept and the attempt proceeds
func (c *Client) refreshIdentity(ctx context.Context) {
	if c.refreshed {
		return
	}
	c.refreshed = true

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.opts.BaseURL+"/web_a1", nil)
	if err != nil {
		return
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("identity refresh failed, keeping caller a1")
		return
	}
	defer drainAndClose(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.log.Warn().Int("status", resp.StatusCode).Msg("identity refresh failed, keeping caller a1")
		return
	}

	var out struct {
		A1 string `json:"a1"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || out.A1 == "" {
		c.log.Warn().Msg("identity refresh returned no token, keeping caller a1")
		return
	}
	c.log.Info().Str("a1", cookie.Mask(out.A1)).Msg("identity token refreshed")
	c.cred.A1 = out.A1
}

func drainAndClose(rc io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 4096))
	_ = rc.Close()
}
