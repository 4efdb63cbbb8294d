// Package blob provides binary object storage for entry images on the remote
// backend. Objects are keyed {userID}/{timestamp}.{ext} and resolve to a
// public URL.
package blob

import "context"

// Store writes binary objects and returns the URL under which they resolve.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}
