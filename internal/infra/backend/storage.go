package backend

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cockroachdb/errors"
)

// Upload stores an object at bucket/path.
func (c *Client) Upload(ctx context.Context, bucket, path string, body io.Reader, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/storage/v1/object/" + bucket + "/" + escapePath(path),
		raw:    body,
		headers: map[string]string{
			"Content-Type":  contentType,
			"Cache-Control": "max-age=3600",
			"x-upsert":      "false",
		},
	}, nil)
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s/%s", bucket, path)
	}
	return nil
}

// PublicURL returns the public URL of an object in a public bucket.
func (c *Client) PublicURL(bucket, path string) string {
	return c.baseURL + "/storage/v1/object/public/" + bucket + "/" + escapePath(path)
}

// escapePath escapes each segment of an object path.
func escapePath(path string) string {
	segments := strings.Split(path, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}
