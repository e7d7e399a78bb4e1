package etag

import (
	"errors"
	"strconv"
	"strings"
)

type ETaggable interface {
	V() string
}

const prefix = "v:"

var ErrInvalidETag = errors.New("invalid etag format")

// ETag renders the opaque token handed out to clients for obj.
//
// For HTTP headers, remember that the actual header value is usually quoted,
// see Quote.
func ETag(obj ETaggable) string {
	return prefix + obj.V()
}

// ParseETag strips the token prefix and returns the raw version string.
func ParseETag(etag string) (string, error) {
	if !strings.HasPrefix(etag, prefix) {
		return "", ErrInvalidETag
	}
	return strings.TrimPrefix(etag, prefix), nil
}

// ParseVersion parses a token produced by ETag for a numeric version.
func ParseVersion(etag string) (int64, error) {
	raw, err := ParseETag(etag)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, ErrInvalidETag
	}
	return v, nil
}

// Version adapts a plain version number to ETaggable.
type Version int64

func (v Version) V() string {
	return strconv.FormatInt(int64(v), 10)
}

// Quote formats an etag as a strong HTTP entity tag.
func Quote(etag string) string {
	return `"` + etag + `"`
}

// Unquote accepts the value of an If-Match style header and returns the bare
// token. Weak validators are accepted as-is; storage compares the parsed
// version.
func Unquote(header string) string {
	h := strings.TrimSpace(header)
	h = strings.TrimPrefix(h, "W/")
	if len(h) >= 2 && h[0] == '"' && h[len(h)-1] == '"' {
		return h[1 : len(h)-1]
	}
	return h
}
