package render

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/garyjia/invoxis/internal/application/port"
	"github.com/garyjia/invoxis/pkg/utils"
)

// MaxLogoBytes caps uploaded and fetched logos
const MaxLogoBytes = 2 << 20

// pdfImageType maps a sniffed media type to the image types gofpdf can embed
func pdfImageType(content []byte) (string, error) {
	mtype := mimetype.Detect(content)
	switch {
	case mtype.Is("image/png"):
		return "PNG", nil
	case mtype.Is("image/jpeg"):
		return "JPG", nil
	case mtype.Is("image/gif"):
		return "GIF", nil
	}
	return "", fmt.Errorf("logo format %s cannot be embedded", mtype.String())
}

var (
	// ErrInsecureLogoURL is returned for remote logos not served over https
	ErrInsecureLogoURL = errors.New("remote logo must use https")

	// ErrBlockedAddress is returned when a logo host resolves to a loopback,
	// private, link-local or otherwise non-public address
	ErrBlockedAddress = errors.New("logo host is not a public address")
)

const maxLogoRedirects = 3

// carrier-grade NAT range, not covered by netip.Addr.IsPrivate
var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// HTTPLogoFetcher downloads remote logos and returns them as data: URLs.
// Only https URLs are fetched and every connection, redirects included, must
// reach a public address.
type HTTPLogoFetcher struct {
	client *http.Client
}

// NewHTTPLogoFetcher creates a fetcher with the given request timeout
func NewHTTPLogoFetcher(timeout time.Duration) port.LogoFetcher {
	dialer := &net.Dialer{
		Timeout: timeout,
		Control: dialPublicOnly,
	}
	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: timeout,
		ForceAttemptHTTP2:   true,
	}
	return &HTTPLogoFetcher{client: newLogoClient(transport, timeout)}
}

func newLogoClient(transport http.RoundTripper, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= maxLogoRedirects {
				return fmt.Errorf("logo redirected more than %d times", maxLogoRedirects)
			}
			return requireHTTPS(req.URL)
		},
	}
}

// Fetch downloads rawURL and verifies the body is an image
func (f *HTTPLogoFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid logo url: %w", err)
	}
	if err := requireHTTPS(u); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build logo request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch logo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch logo: status %d", resp.StatusCode)
	}

	content, err := io.ReadAll(io.LimitReader(resp.Body, MaxLogoBytes+1))
	if err != nil {
		return "", fmt.Errorf("failed to read logo: %w", err)
	}
	if len(content) > MaxLogoBytes {
		return "", fmt.Errorf("logo exceeds %d bytes", MaxLogoBytes)
	}

	mtype := mimetype.Detect(content)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return "", fmt.Errorf("remote logo is %s, not an image", mtype.String())
	}
	return utils.EncodeDataURL(mtype.String(), content), nil
}

func requireHTTPS(u *url.URL) error {
	if !strings.EqualFold(u.Scheme, "https") || u.Host == "" {
		return fmt.Errorf("%w: %s", ErrInsecureLogoURL, u.Redacted())
	}
	return nil
}

// dialPublicOnly runs after name resolution, so a host that resolves to an
// internal address is refused no matter how the URL spelled it
func dialPublicOnly(network, address string, _ syscall.RawConn) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	if !isPublicAddr(ap.Addr()) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, ap.Addr())
	}
	return nil
}

func isPublicAddr(a netip.Addr) bool {
	a = a.Unmap()
	switch {
	case !a.IsValid(),
		a.IsUnspecified(),
		a.IsLoopback(),
		a.IsPrivate(),
		a.IsLinkLocalUnicast(),
		a.IsLinkLocalMulticast(),
		a.IsInterfaceLocalMulticast(),
		a.IsMulticast():
		return false
	}
	return !sharedAddressSpace.Contains(a)
}
