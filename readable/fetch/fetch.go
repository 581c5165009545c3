// Package fetch retrieves scheme-addressed remote files fully into memory.
//
// Locators use gocloud.dev URL syntax: the scheme and host select a blob
// bucket ("s3://bucket/key", "file:///dir/name") and the rest of the path
// names the object key. Additional drivers are enabled by importing their
// packages.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"gocloud.dev/blob"

	// Registered bucket schemes.
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/s3blob"
)

// IsRemote reports whether the locator names a remote object rather than a
// local filesystem path.
func IsRemote(locator string) bool {
	return strings.Contains(locator, "://")
}

// Fetch probes the object's size, allocates a buffer of exactly that size,
// and reads the full content in one pass. Any failure returns with no
// partial buffer.
func Fetch(ctx context.Context, locator string) ([]byte, error) {
	bucketURL, key, err := splitLocator(locator)
	if err != nil {
		return nil, err
	}

	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, fmt.Errorf("opening bucket %s: %w", bucketURL, err)
	}
	defer bucket.Close()

	attrs, err := bucket.Attributes(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("probing size of %s: %w", locator, err)
	}

	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	defer r.Close()

	buf := make([]byte, attrs.Size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("reading %s: %w", locator, err)
	}
	return buf, nil
}

// splitLocator splits a locator into the bucket URL and the object key.
// Host-addressed schemes (s3 and friends) use the host as the bucket and
// the whole path as the key; the file scheme uses the parent directory as
// the bucket and the final path element as the key.
func splitLocator(locator string) (bucketURL, key string, err error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", "", fmt.Errorf("parsing locator %s: %w", locator, err)
	}
	if u.Scheme == "" {
		return "", "", fmt.Errorf("locator %s has no scheme", locator)
	}

	if u.Scheme == "file" {
		dir, name := path.Split(u.Path)
		if name == "" {
			return "", "", fmt.Errorf("locator %s has no object key", locator)
		}
		base := url.URL{Scheme: u.Scheme, Path: dir}
		return base.String(), name, nil
	}

	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", fmt.Errorf("locator %s has no object key", locator)
	}

	base := url.URL{Scheme: u.Scheme, Host: u.Host, RawQuery: u.RawQuery}
	return base.String(), key, nil
}
