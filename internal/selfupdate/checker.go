package selfupdate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultOwner           = "tanay"
	defaultRepo            = "prept"
	defaultAPIBaseURL      = "https://api.github.com"
	defaultDownloadBaseURL = "https://github.com"
)

// Checker talks to the GitHub releases API for the prept repository.
type Checker struct {
	client          *http.Client
	owner           string
	repo            string
	apiBaseURL      string
	downloadBaseURL string
	execPath        func() (string, error)
}

type Option func(*Checker)

func WithTimeout(d time.Duration) Option {
	return func(c *Checker) { c.client.Timeout = d }
}

func WithBaseURL(url string) Option {
	return func(c *Checker) { c.apiBaseURL = url }
}

func WithDownloadBaseURL(url string) Option {
	return func(c *Checker) { c.downloadBaseURL = url }
}

// WithRepo points the updater at a different GitHub repository, for
// forks that publish their own release builds.
func WithRepo(owner, repo string) Option {
	return func(c *Checker) {
		c.owner = owner
		c.repo = repo
	}
}

// withExecPath overrides executable resolution in tests.
func withExecPath(fn func() (string, error)) Option {
	return func(c *Checker) { c.execPath = fn }
}

func NewChecker(opts ...Option) *Checker {
	c := &Checker{
		client:          &http.Client{Timeout: 30 * time.Second},
		owner:           defaultOwner,
		repo:            defaultRepo,
		apiBaseURL:      defaultAPIBaseURL,
		downloadBaseURL: defaultDownloadBaseURL,
		execPath:        os.Executable,
	}
	applyRepoEnv(c)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// applyRepoEnv honors PREPT_UPDATE_REPO in "owner/repo" form. Options
// passed to NewChecker still win over the environment.
func applyRepoEnv(c *Checker) {
	v := os.Getenv("PREPT_UPDATE_REPO")
	if v == "" {
		return
	}
	owner, repo, ok := strings.Cut(v, "/")
	if !ok || owner == "" || repo == "" {
		return
	}
	c.owner = owner
	c.repo = repo
}

type CheckInput struct {
	Version string
}

type CheckResult struct {
	UpdateAvailable bool
	LatestVersion   string
	ReleaseURL      string
}

// Check fetches the latest release tag and compares it against the
// running version using semver ordering.
func (c *Checker) Check(ctx context.Context, input *CheckInput) (*CheckResult, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", strings.TrimRight(c.apiBaseURL, "/"), c.owner, c.repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	var release struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("decode release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release from %s has no tag", url)
	}

	return &CheckResult{
		UpdateAvailable: semver.Compare(canonicalVersion(release.TagName), canonicalVersion(input.Version)) > 0,
		LatestVersion:   release.TagName,
		ReleaseURL:      release.HTMLURL,
	}, nil
}

func canonicalVersion(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}
