package model

import "time"

// Object describes a stored object as exposed over the API. It is a pure
// domain model addressed by key; there is no database identity because the
// backend listing is the only source of truth.
type Object struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	ETag         string    `json:"etag,omitempty"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// PresignedURL is the response body for presign operations. ExpiresIn is
// the normalized relative expiry in seconds, exactly as passed to the
// signer; the absolute deadline is not echoed back because "now" is read
// only once, inside the normalizer.
type PresignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expires_in"`
}
