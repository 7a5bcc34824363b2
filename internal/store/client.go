package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v57/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/fyrsmithlabs/wizz/internal/config"
	"github.com/fyrsmithlabs/wizz/internal/failure"
	"github.com/fyrsmithlabs/wizz/internal/logging"
)

const defaultHTTPTimeout = 30 * time.Second

// Client reads and writes files on one repository branch.
type Client struct {
	gh     *github.Client
	owner  string
	repo   string
	branch string
	retry  RetryConfig
	logger *logging.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithRetryConfig overrides the retry configuration.
func WithRetryConfig(rc RetryConfig) Option {
	return func(c *Client) { c.retry = rc }
}

// New creates a client for the repository named by cfg.
// cfg is validated; a missing setting is a failure.KindConfig error.
func New(ctx context.Context, cfg config.GitHubConfig, logger *logging.Logger, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token.Value()})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = defaultHTTPTimeout
	gh := github.NewClient(hc)

	if cfg.APIURL != "" {
		base, err := url.Parse(strings.TrimRight(cfg.APIURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github.api_url: %w", err)
		}
		gh.BaseURL = base
	}

	rc := DefaultRetryConfig()
	rc.MaxRetries = cfg.MaxRetries

	c := &Client{
		gh:     gh,
		owner:  cfg.Owner,
		repo:   cfg.Repo,
		branch: cfg.Branch,
		retry:  rc,
		logger: logger.Named("store"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Target returns owner/repo@branch.
func (c *Client) Target() string {
	return fmt.Sprintf("%s/%s@%s", c.owner, c.repo, c.branch)
}

// ReadFile returns the decoded content of path at the branch.
func (c *Client) ReadFile(ctx context.Context, path string) (*FileContent, error) {
	var (
		file *github.RepositoryContent
		dir  []*github.RepositoryContent
	)
	opts := &github.RepositoryContentGetOptions{Ref: c.branch}
	resp, err := withRetry(ctx, c.retry, c.logger, "get_contents", true, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		file, dir, resp, err = c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
		return resp, err
	})
	if err != nil {
		return nil, c.classify("store.read", resp, err)
	}
	if file == nil || dir != nil || file.GetType() != "file" {
		return nil, failure.Wrap(failure.KindValidation, "store.read", ErrNotAFile)
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, failure.Wrap(failure.KindUpstream, "store.read", fmt.Errorf("failed to decode %s: %w", path, err))
	}
	return &FileContent{
		Path:    path,
		SHA:     file.GetSHA(),
		Size:    file.GetSize(),
		Type:    file.GetType(),
		Content: content,
	}, nil
}

// ListTree returns every blob of the branch tree.
func (c *Client) ListTree(ctx context.Context) ([]TreeEntry, error) {
	var tree *github.Tree
	resp, err := withRetry(ctx, c.retry, c.logger, "get_tree", true, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		tree, resp, err = c.gh.Git.GetTree(ctx, c.owner, c.repo, c.branch, true)
		return resp, err
	})
	if err != nil {
		return nil, c.classify("store.tree", resp, err)
	}

	if tree.GetTruncated() {
		c.logger.Warn(ctx, "repository tree truncated by GitHub", zap.String("target", c.Target()))
	}

	entries := make([]TreeEntry, 0, len(tree.Entries))
	for _, e := range tree.Entries {
		if e.GetType() != "blob" || e.GetPath() == "" {
			continue
		}
		entries = append(entries, TreeEntry{Path: e.GetPath(), Size: e.GetSize(), SHA: e.GetSHA()})
	}
	return entries, nil
}

// Upsert creates or overwrites path on the branch with one commit.
func (c *Client) Upsert(ctx context.Context, path, content, message string) (*CommitResult, error) {
	sha, err := c.existingSHA(ctx, path)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = "Update " + path
	}
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: []byte(content),
		Branch:  github.String(c.branch),
	}
	if sha != "" {
		opts.SHA = github.String(sha)
	}

	var out *github.RepositoryContentResponse
	resp, err := withRetry(ctx, c.retry, c.logger, "put_contents", false, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		if sha == "" {
			out, resp, err = c.gh.Repositories.CreateFile(ctx, c.owner, c.repo, escapeSegments(path), opts)
		} else {
			out, resp, err = c.gh.Repositories.UpdateFile(ctx, c.owner, c.repo, escapeSegments(path), opts)
		}
		return resp, err
	})
	if err != nil {
		return nil, c.classify("store.upsert", resp, err)
	}

	c.logger.Debug(ctx, "file written",
		zap.String("path", path),
		zap.Bool("created", sha == ""),
		zap.String("commit", out.Commit.GetSHA()))

	return &CommitResult{
		Path:      path,
		SHA:       out.GetContent().GetSHA(),
		CommitSHA: out.Commit.GetSHA(),
		Created:   sha == "",
	}, nil
}

// existingSHA returns the blob sha of path, or "" when it does not exist yet.
func (c *Client) existingSHA(ctx context.Context, path string) (string, error) {
	var file *github.RepositoryContent
	opts := &github.RepositoryContentGetOptions{Ref: c.branch}
	resp, err := withRetry(ctx, c.retry, c.logger, "get_contents", true, func() (*github.Response, error) {
		var (
			resp *github.Response
			err  error
		)
		file, _, resp, err = c.gh.Repositories.GetContents(ctx, c.owner, c.repo, path, opts)
		return resp, err
	})
	if err != nil {
		if statusCode(resp) == http.StatusNotFound {
			return "", nil
		}
		return "", c.classify("store.upsert", resp, err)
	}
	if file == nil {
		return "", failure.Wrap(failure.KindValidation, "store.upsert", fmt.Errorf("%s is a directory", path))
	}
	return file.GetSHA(), nil
}

// classify maps a go-github error onto the failure taxonomy, keeping the
// request URL and GitHub's message.
func (c *Client) classify(op string, resp *github.Response, err error) error {
	fe := &failure.Error{Kind: failure.KindUpstream, Op: op, Status: statusCode(resp), Err: err}

	var ge *github.ErrorResponse
	if errors.As(err, &ge) {
		if ge.Response != nil && ge.Response.Request != nil {
			fe.URL = ge.Response.Request.URL.String()
		}
		if ge.Message != "" {
			fe.Err = errors.New(ge.Message)
		}
	} else if resp != nil && resp.Response != nil && resp.Request != nil {
		fe.URL = resp.Request.URL.String()
	}
	var ue *url.Error
	if fe.URL == "" && errors.As(err, &ue) {
		fe.URL = ue.URL
		fe.Err = fmt.Errorf("fetch failed: %w", ue.Err)
	}

	if fe.Status == http.StatusNotFound {
		fe.Kind = failure.KindNotFound
		fe.Err = fmt.Errorf("%w: %s", ErrNotFound, c.Target())
	}
	return fe
}

// escapeSegments percent-encodes each path segment and keeps the separators.
// GetContents escapes on its own; CreateFile and UpdateFile do not.
func escapeSegments(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}
