package share

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidShareLink indicates a URL that is share-shaped but broken:
// missing the encoded token, missing the share ID, or carrying a garbled
// key fragment. URLs that are not share links at all are not an error.
var ErrInvalidShareLink = errors.New("invalid share link")

// ParsedLink is the result of picking a share link apart
type ParsedLink struct {
	ShareID      string
	EncodedToken string
	LinkSecret   []byte
}

// BuildLink renders a deep link for a share: scheme://share/<id>?token=<encoded>.
// When a link secret is supplied it rides in the URL fragment, which clients
// never send over the wire.
func BuildLink(scheme, shareID, encodedToken string, linkSecret []byte) string {
	u := url.URL{
		Scheme:   scheme,
		Host:     "share",
		Path:     "/" + shareID,
		RawQuery: "token=" + encodedToken,
	}
	if len(linkSecret) > 0 {
		u.Fragment = "key=" + base64.RawURLEncoding.EncodeToString(linkSecret)
	}
	return u.String()
}

// BuildWebLink renders the https form of a share link under the given base URL
func BuildWebLink(baseURL, shareID, encodedToken string, linkSecret []byte) string {
	link := fmt.Sprintf("%s/share/%s?token=%s", strings.TrimRight(baseURL, "/"), shareID, encodedToken)
	if len(linkSecret) > 0 {
		link += "#key=" + base64.RawURLEncoding.EncodeToString(linkSecret)
	}
	return link
}

// ParseLink picks a share link apart. Returns (nil, nil) when the URL is not
// a share link, so callers can probe arbitrary incoming URLs.
func ParseLink(raw string) (*ParsedLink, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return nil, nil
	}

	var shareID string
	switch {
	case u.Host == "share":
		// Deep link form: fxfiles://share/<id>
		shareID = strings.Trim(u.Path, "/")
	case strings.HasPrefix(u.Path, "/share/"):
		// Web form: https://host/share/<id>
		shareID = strings.Trim(strings.TrimPrefix(u.Path, "/share/"), "/")
	default:
		return nil, nil
	}

	if shareID == "" || strings.Contains(shareID, "/") {
		return nil, fmt.Errorf("%w: missing share ID", ErrInvalidShareLink)
	}

	encoded := u.Query().Get("token")
	if encoded == "" {
		return nil, fmt.Errorf("%w: missing token parameter", ErrInvalidShareLink)
	}

	parsed := &ParsedLink{ShareID: shareID, EncodedToken: encoded}

	if u.Fragment != "" {
		value, ok := strings.CutPrefix(u.Fragment, "key=")
		if !ok {
			return nil, fmt.Errorf("%w: unrecognized fragment", ErrInvalidShareLink)
		}
		secret, err := base64.RawURLEncoding.DecodeString(value)
		if err != nil {
			return nil, fmt.Errorf("%w: garbled key fragment", ErrInvalidShareLink)
		}
		parsed.LinkSecret = secret
	}

	return parsed, nil
}
