package transfer

import (
	"fmt"
	"net/url"
	"regexp"

	"github.com/dmitrijs2005/gophsend/internal/common"
)

var downloadPath = regexp.MustCompile(`/download/([0-9a-fA-F]{10})/?$`)

// ShareLink is a parsed share URL.
type ShareLink struct {
	// URL is the share URL without the fragment. It salts the password key.
	URL    string
	ID     string
	Secret string
}

// ParseShareURL splits ".../download/<id>/#<secret>" into its parts.
func ParseShareURL(raw string) (ShareLink, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return ShareLink{}, fmt.Errorf("%w: %v", common.ErrInvalidShareURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ShareLink{}, fmt.Errorf("%w: unsupported scheme %q", common.ErrInvalidShareURL, u.Scheme)
	}
	m := downloadPath.FindStringSubmatch(u.Path)
	if m == nil {
		return ShareLink{}, fmt.Errorf("%w: no file id in %q", common.ErrInvalidShareURL, u.Path)
	}
	if u.Fragment == "" {
		return ShareLink{}, fmt.Errorf("%w: missing secret", common.ErrInvalidShareURL)
	}

	secret := u.Fragment
	u.Fragment = ""
	u.RawFragment = ""
	return ShareLink{URL: u.String(), ID: m[1], Secret: secret}, nil
}
