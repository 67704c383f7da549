package domain

import "io"

// RemoteImage is an image downloaded from a record's source URL.
// The caller owns Body and must close it.
type RemoteImage struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64 // -1 when the origin did not send Content-Length
}
