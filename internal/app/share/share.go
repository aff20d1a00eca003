// Package share builds and parses deep links to shared catalog content.
package share

import (
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/skip2/go-qrcode"

	"github.com/osa030/musicbox/internal/domain/catalog"
)

// PathPrefix is the path under which shared content is served.
const PathPrefix = "/shared/"

// ErrInvalidLink is returned when a URL is not a shared-content link.
var ErrInvalidLink = errors.New("invalid share link")

// Link identifies a shared song, album or artist.
type Link struct {
	Type catalog.ContentType
	ID   string
}

// BuildURL returns <base>/shared/<type>/<id>.
func BuildURL(base string, ct catalog.ContentType, id string) (string, error) {
	if _, err := catalog.ParseContentType(string(ct)); err != nil {
		return "", err
	}
	if id == "" {
		return "", errors.Wrap(ErrInvalidLink, "empty id")
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", errors.Wrap(err, "invalid base URL")
	}
	return u.JoinPath("shared", string(ct), id).String(), nil
}

// ParseURL extracts the content type and ID from a shared-content link.
// The link may be absolute or just the path.
func ParseURL(raw string) (Link, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Link{}, errors.Wrapf(ErrInvalidLink, "%q", raw)
	}

	i := strings.Index(u.Path, PathPrefix)
	if i < 0 {
		return Link{}, errors.Wrapf(ErrInvalidLink, "%q", raw)
	}
	parts := strings.Split(strings.Trim(u.Path[i+len(PathPrefix):], "/"), "/")
	if len(parts) != 2 || parts[1] == "" {
		return Link{}, errors.Wrapf(ErrInvalidLink, "%q", raw)
	}

	ct, err := catalog.ParseContentType(parts[0])
	if err != nil {
		return Link{}, err
	}
	return Link{Type: ct, ID: parts[1]}, nil
}

// QRCode renders the link as a QR code made of terminal block characters.
// Two module rows are packed into each text line.
func QRCode(link string) (string, error) {
	qr, err := qrcode.New(link, qrcode.Medium)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate qr code")
	}
	bitmap := qr.Bitmap()

	var b strings.Builder
	for y := 0; y < len(bitmap); y += 2 {
		for x := range bitmap[y] {
			top := bitmap[y][x]
			bottom := y+1 < len(bitmap) && bitmap[y+1][x]
			switch {
			case top && bottom:
				b.WriteRune('█')
			case top:
				b.WriteRune('▀')
			case bottom:
				b.WriteRune('▄')
			default:
				b.WriteRune(' ')
			}
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}
