package corpus

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v81/github"
)

// Client wraps the GitHub API client with rate limiting support.
type Client struct {
	*github.Client
}

// NewClient creates a GitHub client with automatic rate limit handling.
// If GITHUB_TOKEN is set the client authenticates with it for the
// higher request quota.
func NewClient(ctx context.Context) (*Client, error) {
	rateLimiter, err := github_ratelimit.NewRateLimitWaiterClient(nil)
	if err != nil {
		return nil, err
	}

	ghClient := github.NewClient(rateLimiter)
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		ghClient = ghClient.WithAuthToken(token)
	}

	return &Client{Client: ghClient}, nil
}

// Lister reads book URL manifests out of a GitHub repository. Any .txt
// file under the base path is treated as a manifest in the ReadURLList
// format.
type Lister struct {
	client   *Client
	owner    string
	repo     string
	basePath string
}

// NewLister creates a manifest lister for one repository directory.
func NewLister(client *Client, owner, repo, basePath string) *Lister {
	return &Lister{
		client:   client,
		owner:    owner,
		repo:     repo,
		basePath: basePath,
	}
}

// ListManifests recursively lists all .txt manifest files under the
// base path, as paths relative to it.
func (l *Lister) ListManifests(ctx context.Context) ([]string, error) {
	return l.listRecursive(ctx, l.basePath, "")
}

func (l *Lister) listRecursive(ctx context.Context, fullPath, relativePath string) ([]string, error) {
	var manifests []string

	_, dirContents, _, err := l.client.Repositories.GetContents(
		ctx,
		l.owner,
		l.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("listing contents of %s: %w", fullPath, err)
	}

	for _, item := range dirContents {
		if item.Type == nil || item.Name == nil {
			continue
		}

		itemRelPath := path.Join(relativePath, *item.Name)

		switch *item.Type {
		case "file":
			if strings.HasSuffix(*item.Name, ".txt") {
				manifests = append(manifests, itemRelPath)
			}

		case "dir":
			itemFullPath := path.Join(fullPath, *item.Name)
			sub, err := l.listRecursive(ctx, itemFullPath, itemRelPath)
			if err != nil {
				return nil, err
			}
			manifests = append(manifests, sub...)
		}
	}

	return manifests, nil
}

// FetchURLs downloads one manifest file and parses its URL lines.
func (l *Lister) FetchURLs(ctx context.Context, relativePath string) ([]string, error) {
	fullPath := path.Join(l.basePath, relativePath)

	fileContent, _, _, err := l.client.Repositories.GetContents(
		ctx,
		l.owner,
		l.repo,
		fullPath,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("fetching manifest %s: %w", fullPath, err)
	}
	if fileContent == nil {
		return nil, fmt.Errorf("no file content returned for %s", fullPath)
	}

	content, err := base64.StdEncoding.DecodeString(*fileContent.Content)
	if err != nil {
		return nil, fmt.Errorf("decoding manifest %s: %w", fullPath, err)
	}

	return ParseURLLines(string(content)), nil
}

// FetchAllURLs lists every manifest under the base path and merges their
// URLs, de-duplicated, in manifest order.
func (l *Lister) FetchAllURLs(ctx context.Context) ([]string, error) {
	manifests, err := l.ListManifests(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var urls []string
	for _, m := range manifests {
		fromManifest, err := l.FetchURLs(ctx, m)
		if err != nil {
			return nil, err
		}
		for _, u := range fromManifest {
			if seen[u] {
				continue
			}
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// ParseURLLines extracts URL lines from manifest text, skipping blanks
// and # comments.
func ParseURLLines(text string) []string {
	var urls []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	return urls
}
