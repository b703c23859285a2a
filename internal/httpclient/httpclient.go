// Package httpclient builds the HTTP client used to download structure
// files. With BlockPrivate set it refuses loopback, private and link-local
// destinations, checked on the address actually dialed so DNS answers
// cannot route around it.
package httpclient

import (
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/teranos/structix/errors"
)

// ErrBlocked is returned for requests to destinations the client refuses.
var ErrBlocked = errors.New("destination blocked")

// DefaultMaxRedirects bounds redirect chains.
const DefaultMaxRedirects = 10

// Options configure New.
type Options struct {
	// Timeout bounds a whole request including the body; zero means none.
	Timeout time.Duration

	// BlockPrivate refuses loopback, private, link-local and other
	// non-public addresses.
	BlockPrivate bool

	// MaxRedirects defaults to DefaultMaxRedirects.
	MaxRedirects int
}

// New returns an HTTP client following opts.
func New(opts Options) *http.Client {
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = DefaultMaxRedirects
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if opts.BlockPrivate {
		dialer.Control = func(network, address string, _ syscall.RawConn) error {
			return checkDialAddress(address)
		}
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= opts.MaxRedirects {
				return errors.Newf("stopped after %d redirects", opts.MaxRedirects)
			}
			if err := CheckURL(req.URL, opts.BlockPrivate); err != nil {
				return errors.Wrap(err, "redirect")
			}
			return nil
		},
	}
}

// CheckURL rejects non-HTTP schemes and embedded credentials, and with
// blockPrivate also localhost names and literal non-public addresses.
func CheckURL(u *url.URL, blockPrivate bool) error {
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return errors.Wrapf(ErrBlocked, "scheme %q", u.Scheme)
	}
	if u.User != nil {
		return errors.Wrap(ErrBlocked, "credentials in URL")
	}
	host := u.Hostname()
	if host == "" {
		return errors.Wrap(ErrBlocked, "missing host")
	}
	if !blockPrivate {
		return nil
	}
	if isLocalhost(host) {
		return errors.Wrapf(ErrBlocked, "host %s", host)
	}
	if addr, err := netip.ParseAddr(host); err == nil && !IsPublic(addr) {
		return errors.Wrapf(ErrBlocked, "address %s", addr)
	}
	return nil
}

func checkDialAddress(address string) error {
	ap, err := netip.ParseAddrPort(address)
	if err != nil {
		return errors.Wrapf(err, "parse dial address %s", address)
	}
	if !IsPublic(ap.Addr()) {
		return errors.Wrapf(ErrBlocked, "address %s", ap.Addr())
	}
	return nil
}

// nonPublic lists special-purpose ranges not covered by the netip
// predicates.
var nonPublic = []netip.Prefix{
	netip.MustParsePrefix("0.0.0.0/8"),
	netip.MustParsePrefix("100.64.0.0/10"), // carrier-grade NAT
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("fec0::/10"),
}

// IsPublic reports whether addr is a globally routable unicast address.
func IsPublic(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() ||
		addr.IsLoopback() ||
		addr.IsPrivate() ||
		addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() ||
		addr.IsInterfaceLocalMulticast() ||
		addr.IsMulticast() ||
		addr.IsUnspecified() {
		return false
	}
	for _, p := range nonPublic {
		if p.Contains(addr) {
			return false
		}
	}
	return true
}

func isLocalhost(host string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	return host == "localhost" || host == "localhost.localdomain" || strings.HasSuffix(host, ".localhost")
}
