package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rgigli/bedrock-server-updater/internal/logger"
	"github.com/rgigli/bedrock-server-updater/internal/platform"
)

var (
	// ErrUnsupportedPlatform is returned before any network call when the
	// vendor publishes no server artifact for the detected platform.
	ErrUnsupportedPlatform = errors.New("no server distribution exists for this platform")

	// ErrAPIUnreachable is returned once every endpoint has failed on every
	// attempt. It wraps the last observed error for diagnostics.
	ErrAPIUnreachable = errors.New("unable to reach the download catalog API")

	// ErrNoMatchingLink is returned when a catalog was retrieved but no entry
	// carries the computed download type key.
	ErrNoMatchingLink = errors.New("no download link found for the requested type")
)

// DefaultEndpoints lists the catalog API endpoints in priority order:
// primary first, fallback second.
var DefaultEndpoints = []string{
	"https://net-secondary.web.minecraft-services.net/api/v1.0/download/links",
	"https://www.minecraft.net/api/v1.0/download/links",
}

// Link is a single catalog entry. Only these two fields are interpreted;
// everything else in the response is ignored.
type Link struct {
	DownloadType string `json:"downloadType"`
	DownloadURL  string `json:"downloadUrl"`
}

// linksResponse mirrors the catalog API body. Missing nested keys decode to
// an empty link list rather than a parse error.
type linksResponse struct {
	Result struct {
		Links []Link `json:"links"`
	} `json:"result"`
}

// ResolvedLink is the catalog entry selected for a platform and channel.
type ResolvedLink struct {
	// URL is the archive download location.
	URL string
	// DownloadType is the catalog key the entry was matched on.
	DownloadType string
}

// Resolver queries the catalog API for download links.
type Resolver struct {
	endpoints  []string
	maxRetries int
	client     *http.Client
}

// NewResolver creates a resolver over the provided endpoints. A zero timeout
// means API calls block indefinitely.
func NewResolver(endpoints []string, maxRetries int, timeout time.Duration) *Resolver {
	if len(endpoints) == 0 {
		endpoints = DefaultEndpoints
	}

	if maxRetries < 1 {
		maxRetries = 1
	}

	return &Resolver{
		endpoints:  endpoints,
		maxRetries: maxRetries,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// DownloadTypeKey computes the catalog key for a platform and release channel,
// e.g. "serverBedrockWindows" or "serverBedrockPreviewLinux". Platforms the
// vendor does not serve yield ErrUnsupportedPlatform.
func DownloadTypeKey(p platform.Platform, preview bool) (string, error) {
	if !p.Supported() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedPlatform, p)
	}

	key := "serverBedrock"
	if preview {
		key += "Preview"
	}

	return key + p.String(), nil
}

// ResolveDownloadURL fetches the catalog and selects the entry matching the
// platform and channel. Endpoints are tried in fixed priority order inside an
// outer retry loop; the first endpoint returning a parseable body
// short-circuits both loops. Matching is first-match-wins over entries in
// their returned order.
func (r *Resolver) ResolveDownloadURL(ctx context.Context, p platform.Platform, preview bool) (ResolvedLink, error) {
	key, err := DownloadTypeKey(p, preview)
	if err != nil {
		return ResolvedLink{}, err
	}

	links, err := r.fetchLinks(ctx)
	if err != nil {
		return ResolvedLink{}, err
	}

	for _, link := range links {
		if link.DownloadType == key {
			return ResolvedLink{
				URL:          link.DownloadURL,
				DownloadType: key,
			}, nil
		}
	}

	return ResolvedLink{}, fmt.Errorf("%w: %s", ErrNoMatchingLink, key)
}

// fetchLinks retrieves the catalog, retrying endpoints in priority order.
// Failures on one endpoint are swallowed and the next is tried; only
// exhausting everything produces ErrAPIUnreachable.
func (r *Resolver) fetchLinks(ctx context.Context) ([]Link, error) {
	var lastErr error

	for attempt := 1; attempt <= r.maxRetries; attempt++ {
		for _, endpoint := range r.endpoints {
			logger.DebugKV(ctx, "Querying download catalog", "endpoint", endpoint, "attempt", attempt)

			links, err := r.fetchLinksFromEndpoint(ctx, endpoint)
			if err != nil {
				lastErr = err

				logger.WarnKV(ctx, "Catalog endpoint failed", "endpoint", endpoint, "error", err)

				continue
			}

			return links, nil
		}
	}

	return nil, fmt.Errorf("%w: %w", ErrAPIUnreachable, lastErr)
}

// fetchLinksFromEndpoint issues a single GET and decodes the link list.
func (r *Resolver) fetchLinksFromEndpoint(ctx context.Context, endpoint string) ([]Link, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, err
	}

	response, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: unexpected status %s", endpoint, response.Status)
	}

	var body linksResponse
	if err := json.NewDecoder(response.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode catalog response: %w", err)
	}

	return body.Result.Links, nil
}
