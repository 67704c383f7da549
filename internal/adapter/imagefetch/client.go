// Package imagefetch downloads the images referenced by Pokémon records.
package imagefetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/C-gyeltshen/Web102-Cap2/internal/domain"
)

const (
	// DefaultMaxBytes caps the size of a mirrored image.
	DefaultMaxBytes = 10 << 20
	defaultTimeout  = 10 * time.Second
	dialTimeout     = 5 * time.Second
	userAgent       = "pokeapp-image-mirror/1.0"
)

var errNonPublicAddress = errors.New("destination is not a public address")

// ranges that are neither loopback, private nor link-local but still internal
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("64:ff9b::/96"),
}

// Client fetches images over HTTP(S).
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *slog.Logger
}

// NewHTTPClient returns an http.Client that only connects to public
// addresses. The check runs on the resolved address of every dial, redirects
// included.
func NewHTTPClient(timeout time.Duration) *http.Client {
	dialer := &net.Dialer{
		Timeout: dialTimeout,
		Control: func(_, address string, _ syscall.RawConn) error {
			return checkDialAddress(address)
		},
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   dialTimeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}

func checkDialAddress(address string) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", errNonPublicAddress, address)
	}
	ip, err := netip.ParseAddr(host)
	if err != nil || !isPublic(ip) {
		return fmt.Errorf("%w: %s", errNonPublicAddress, address)
	}
	return nil
}

func isPublic(ip netip.Addr) bool {
	ip = ip.Unmap()
	if !ip.IsGlobalUnicast() || ip.IsPrivate() ||
		ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
		return false
	}
	for _, p := range reservedPrefixes {
		if p.Contains(ip) {
			return false
		}
	}
	return true
}

// NewClient creates a Client. A nil httpClient gets NewHTTPClient with a 10s timeout.
func NewClient(httpClient *http.Client, maxBytes int64, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient(defaultTimeout)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Client{httpClient: httpClient, maxBytes: maxBytes, logger: logger}
}

// FetchImage downloads sourceURL into memory. Sources that can never be
// mirrored return an error wrapping domain.ErrInvalidInput.
func (c *Client) FetchImage(ctx context.Context, sourceURL string) (*domain.RemoteImage, error) {
	start := time.Now()

	u, err := url.Parse(sourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("unsupported image url %q: %w", sourceURL, domain.ErrInvalidInput)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create image request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errNonPublicAddress) {
			c.logger.Warn("image source refused", "source_url", sourceURL, "error", err)
			return nil, fmt.Errorf("download image %s: %v: %w", sourceURL, err, domain.ErrInvalidInput)
		}
		return nil, fmt.Errorf("download image %s: %w", sourceURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("image origin returned status %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("image origin returned status %d: %w", resp.StatusCode, domain.ErrInvalidInput)
	}

	if resp.ContentLength > c.maxBytes {
		return nil, fmt.Errorf("image is %d bytes, limit %d: %w", resp.ContentLength, c.maxBytes, domain.ErrInvalidInput)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("image exceeds %d bytes: %w", c.maxBytes, domain.ErrInvalidInput)
	}

	contentType := mediaType(resp.Header.Get("Content-Type"))
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mediaType(http.DetectContentType(data))
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("content type %q is not an image: %w", contentType, domain.ErrInvalidInput)
	}

	c.logger.Debug("image downloaded",
		"source_url", sourceURL,
		"bytes", len(data),
		"content_type", contentType,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &domain.RemoteImage{
		Body:        io.NopCloser(bytes.NewReader(data)),
		ContentType: contentType,
		Size:        int64(len(data)),
	}, nil
}

func mediaType(header string) string {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return strings.ToLower(mt)
}
