package rawhttp

import (
	"fmt"
	"net"
	"strings"

	"github.com/tanq16/segdl/internal/utils"
)

const schemePrefix = "http://"
const defaultPort = "80"

// Target is a parsed download location. Host may carry an explicit port.
type Target struct {
	Host string
	Path string
}

// SplitURL separates an http:// URL into host and path. The path keeps its
// leading slash and any query string untouched.
func SplitURL(raw string) (Target, error) {
	if len(raw) < len(schemePrefix) || !strings.EqualFold(raw[:len(schemePrefix)], schemePrefix) {
		return Target{}, fmt.Errorf("%w: %q does not start with %s", utils.ErrMalformedURL, raw, schemePrefix)
	}
	rest := raw[len(schemePrefix):]
	slash := strings.IndexByte(rest, '/')
	if slash < 0 {
		return Target{}, fmt.Errorf("%w: no path after host in %q", utils.ErrMalformedURL, raw)
	}
	host := rest[:slash]
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host in %q", utils.ErrMalformedURL, raw)
	}
	if strings.ContainsAny(host, " \t@") {
		return Target{}, fmt.Errorf("%w: invalid host %q", utils.ErrMalformedURL, host)
	}
	return Target{Host: host, Path: rest[slash:]}, nil
}

// Address is the host:port to dial, port 80 unless the URL named one.
func (t Target) Address() string {
	if _, _, err := net.SplitHostPort(t.Host); err == nil {
		return t.Host
	}
	return net.JoinHostPort(strings.Trim(t.Host, "[]"), defaultPort)
}

func (t Target) String() string {
	return schemePrefix + t.Host + t.Path
}
