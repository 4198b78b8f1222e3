// Package gh wraps the GitHub REST calls the portal needs: secret metadata,
// creation requests via repository_dispatch, deletion, the current user and
// audit issues.
package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_primary_ratelimit"
	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit/github_secondary_ratelimit"
	"github.com/google/go-github/v69/github"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"

	"github.com/trancendos/secrets-portal/internal/types"
)

const (
	DefaultAPIURL = "https://api.github.com"

	// CreateSecretEvent is the repository_dispatch event the server-side
	// workflow listens for.
	CreateSecretEvent = "create-secret"

	StatusPending = "pending"
	StatusDeleted = "deleted"
)

// Client talks to a single GitHub API endpoint with one token.
type Client struct {
	gh *github.Client
}

type options struct {
	baseURL      string
	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration
}

type Option func(*options)

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(u string) Option {
	return func(o *options) { o.baseURL = u }
}

// WithRetries sets how often and how fast 429/5xx responses are retried.
func WithRetries(max int, waitMin, waitMax time.Duration) Option {
	return func(o *options) {
		o.retryMax = max
		o.retryWaitMin = waitMin
		o.retryWaitMax = waitMax
	}
}

// NewClient builds an authenticated client. Requests go through a rate
// limit aware transport layered over a retrying one.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := options{baseURL: DefaultAPIURL, retryMax: 4, retryWaitMin: time.Second, retryWaitMax: 30 * time.Second}
	for _, fn := range opts {
		fn(&o)
	}

	rateLimiter := github_ratelimit.New(&retryablehttp.RoundTripper{Client: retryClient(o)},
		github_primary_ratelimit.WithLimitDetectedCallback(func(ctx *github_primary_ratelimit.CallbackContext) {
			resetTime := ctx.ResetTime.Add(30 * time.Second)
			log.Info().Str("category", string(ctx.Category)).Time("reset", resetTime).Msg("Primary rate limit detected, will resume automatically")
			time.Sleep(time.Until(resetTime))
			log.Info().Str("category", string(ctx.Category)).Msg("Resuming")
		}),
		github_secondary_ratelimit.WithLimitDetectedCallback(func(ctx *github_secondary_ratelimit.CallbackContext) {
			log.Info().Time("reset", *ctx.ResetTime).Dur("totalSleep", *ctx.TotalSleepTime).Msg("Secondary rate limit detected, will resume automatically")
		}),
	)

	c := github.NewClient(&http.Client{Transport: rateLimiter})
	if token != "" {
		c = c.WithAuthToken(token)
	}
	if o.baseURL != "" && o.baseURL != DefaultAPIURL {
		u, err := url.Parse(strings.TrimSuffix(o.baseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid api url %q: %w", o.baseURL, err)
		}
		c.BaseURL = u
	}
	return &Client{gh: c}, nil
}

func retryClient(o options) *retryablehttp.Client {
	client := retryablehttp.NewClient()
	client.Logger = nil
	client.RetryMax = o.retryMax
	client.RetryWaitMin = o.retryWaitMin
	client.RetryWaitMax = o.retryWaitMax
	client.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			log.Debug().Err(err).Msg("Retrying HTTP request, error occurred")
			return true, nil
		}
		if resp.StatusCode == http.StatusTooManyRequests || (resp.StatusCode >= 500 && resp.StatusCode != http.StatusNotImplemented) {
			log.Trace().Int("statusCode", resp.StatusCode).Msg("Retrying HTTP request")
			return true, nil
		}
		return false, nil
	}
	// Return the last response instead of a generic "giving up" error so
	// go-github can decode the API error body.
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return client
}

// ListSecrets returns metadata for every Actions secret in repo.
func (c *Client) ListSecrets(ctx context.Context, repo Repo) ([]types.Secret, error) {
	var out []types.Secret
	opts := &github.ListOptions{PerPage: 100}
	for {
		page, resp, err := c.gh.Actions.ListRepoSecrets(ctx, repo.Owner, repo.Name, opts)
		if err != nil {
			return nil, fmt.Errorf("list secrets in %s: %w", repo, err)
		}
		for _, s := range page.Secrets {
			if s == nil {
				continue
			}
			out = append(out, types.Secret{
				Name:       s.Name,
				CreatedAt:  s.CreatedAt.Time,
				UpdatedAt:  s.UpdatedAt.Time,
				Visibility: s.Visibility,
			})
		}
		log.Debug().Str("repo", repo.String()).Int("page", opts.Page).Int("count", len(page.Secrets)).Msg("Fetched secrets page")
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	if out == nil {
		out = []types.Secret{}
	}
	return out, nil
}

type createPayload struct {
	SecretName  string `json:"secret_name"`
	SecretValue string `json:"secret_value"`
	Timestamp   string `json:"timestamp"`
}

// RequestSecret asks the repository's create-secret workflow to store
// name=value. GitHub only accepts encrypted values on the secrets endpoint,
// so creation is asynchronous and the returned status is always pending.
func (c *Client) RequestSecret(ctx context.Context, repo Repo, name, value string) (string, error) {
	payload, err := json.Marshal(createPayload{
		SecretName:  name,
		SecretValue: value,
		Timestamp:   timestamp(),
	})
	if err != nil {
		return "", err
	}
	raw := json.RawMessage(payload)
	_, _, err = c.gh.Repositories.Dispatch(ctx, repo.Owner, repo.Name, github.DispatchRequestOptions{
		EventType:     CreateSecretEvent,
		ClientPayload: &raw,
	})
	if err != nil {
		return "", fmt.Errorf("request secret %s in %s: %w", name, repo, err)
	}
	return StatusPending, nil
}

// DeleteSecret removes the named secret from repo.
func (c *Client) DeleteSecret(ctx context.Context, repo Repo, name string) (string, error) {
	if _, err := c.gh.Actions.DeleteRepoSecret(ctx, repo.Owner, repo.Name, name); err != nil {
		return "", fmt.Errorf("delete secret %s in %s: %w", name, repo, err)
	}
	return StatusDeleted, nil
}

// CurrentUser returns the account the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (types.User, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return types.User{}, fmt.Errorf("get user: %w", err)
	}
	return types.User{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		AvatarURL: u.GetAvatarURL(),
		Email:     u.GetEmail(),
	}, nil
}

// Issue identifies a created audit issue.
type Issue struct {
	Number int
	URL    string
}

// CreateAuditIssue files an issue recording action in repo.
func (c *Client) CreateAuditIssue(ctx context.Context, repo Repo, action, details string) (Issue, error) {
	req := &github.IssueRequest{
		Title:  github.Ptr(AuditIssueTitle(action)),
		Body:   github.Ptr(AuditIssueBody(action, details, timestamp())),
		Labels: &[]string{"audit", "secrets"},
	}
	issue, _, err := c.gh.Issues.Create(ctx, repo.Owner, repo.Name, req)
	if err != nil {
		return Issue{}, fmt.Errorf("create audit issue in %s: %w", repo, err)
	}
	return Issue{Number: issue.GetNumber(), URL: issue.GetHTMLURL()}, nil
}

func AuditIssueTitle(action string) string {
	return "🔐 Secrets Audit: " + action
}

func AuditIssueBody(action, details, ts string) string {
	return fmt.Sprintf("**Action**: %s\n\n**Details**: %s\n\n**Timestamp**: %s", action, details, ts)
}

// timestamp matches the millisecond ISO-8601 form used in dispatch payloads.
func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}
