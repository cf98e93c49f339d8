// Package expiry disambiguates bare numeric time values whose unit is not
// explicitly tagged. A raw number may mean "seconds from now", epoch
// seconds, epoch milliseconds, or epoch microseconds; the unit is inferred
// from magnitude alone using fixed power-of-ten buckets:
//
//	(0, 1e7]     relative offset, seconds from now
//	(1e7, 1e10]  absolute epoch, seconds
//	(1e10, 1e13] absolute epoch, milliseconds
//	(1e13, 1e16] absolute epoch, microseconds
//
// Buckets are checked in ascending order and upper bounds are inclusive, so
// the exact threshold values 1e7, 1e10, 1e13 and 1e16 land in the lower
// bucket. All unit conversions truncate toward negative infinity, never
// round; rounding would shift instants by a millisecond in round trips.
package expiry

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var (
	// ErrInvalidTimestamp reports a number Epoch cannot classify:
	// non-positive, non-finite, or above the microsecond bucket.
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	// ErrInvalidExpiration reports an expiration value ExpiresIn cannot
	// classify: a number outside all buckets, an unparsable date string,
	// an invalid instant, or an unsupported type.
	ErrInvalidExpiration = errors.New("invalid expiration")
)

// Magnitude bucket thresholds. A value at exactly a threshold belongs to
// the bucket below it.
const (
	maxRelativeSec = 1e7
	maxEpochSec    = 1e10
	maxEpochMilli  = 1e13
	maxEpochMicro  = 1e16
)

// dateLayouts are tried in order when normalizing a textual expiration.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

// Resolver converts ambiguous timestamps and expiration values against an
// injectable clock. The zero value is not usable; construct with
// NewResolver or NewResolverWithClock.
type Resolver struct {
	clock Clock
}

// NewResolver returns a Resolver backed by the system clock.
func NewResolver() *Resolver {
	return &Resolver{clock: systemClock{}}
}

// NewResolverWithClock returns a Resolver reading "now" from the given
// clock. Tests use this with a FixedClock to freeze time.
func NewResolverWithClock(c Clock) *Resolver {
	return &Resolver{clock: c}
}

// Epoch maps a raw number to the absolute instant it denotes, inferring the
// unit from magnitude. Values in the relative bucket are offsets added to
// the current time; the remaining buckets are absolute epoch values. The
// returned instant is in UTC at millisecond precision (second precision for
// the relative bucket). Fails with ErrInvalidTimestamp for non-positive,
// non-finite, or out-of-range input.
func (r *Resolver) Epoch(timestamp float64) (time.Time, error) {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) || timestamp <= 0 {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, timestamp)
	}

	switch {
	case timestamp <= maxRelativeSec:
		// Relative offset: materialize against a second-truncated now.
		sec := r.clock.Now().Unix() + int64(math.Floor(timestamp))
		return time.Unix(sec, 0).UTC(), nil
	case timestamp <= maxEpochSec:
		return time.UnixMilli(int64(math.Floor(timestamp * 1000))).UTC(), nil
	case timestamp <= maxEpochMilli:
		return time.UnixMilli(int64(math.Floor(timestamp))).UTC(), nil
	case timestamp <= maxEpochMicro:
		return time.UnixMilli(int64(math.Floor(timestamp / 1000))).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidTimestamp, timestamp)
	}
}

// ExpiresIn normalizes a heterogeneous expiration value to a signed number
// of seconds from now. Accepted shapes, checked in this order:
//
//  1. a number — the smallest bucket [0, 1e7] is returned directly as
//     floor(x) seconds from now (it is NOT materialized into an absolute
//     instant first); the epoch-second and epoch-millisecond buckets are
//     measured against the current time
//  2. a string — parsed as a date, then treated as an instant
//  3. a time.Time — treated as an instant
//
// Zero and negative results are valid: an expiration in the past is a
// negative second count, not an error. Only input classification fails,
// with ErrInvalidExpiration.
func (r *Resolver) ExpiresIn(v any) (int64, error) {
	switch x := v.(type) {
	case float64:
		return r.expiresInNumber(x)
	case float32:
		return r.expiresInNumber(float64(x))
	case int:
		return r.expiresInNumber(float64(x))
	case int32:
		return r.expiresInNumber(float64(x))
	case int64:
		return r.expiresInNumber(float64(x))
	case uint:
		return r.expiresInNumber(float64(x))
	case uint32:
		return r.expiresInNumber(float64(x))
	case uint64:
		return r.expiresInNumber(float64(x))
	case string:
		return r.expiresInString(x)
	case time.Time:
		return r.expiresInInstant(x)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidExpiration, v)
	}
}

func (r *Resolver) expiresInNumber(x float64) (int64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) || x < 0 {
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpiration, x)
	}

	switch {
	case x <= maxRelativeSec:
		// Already seconds-from-now; no instant materialization.
		return int64(math.Floor(x)), nil
	case x <= maxEpochSec:
		// Epoch seconds. Floor once, at the millisecond-difference stage.
		diffMs := int64(math.Floor(x*1000)) - r.clock.Now().UnixMilli()
		return floorDiv(diffMs, 1000), nil
	case x <= maxEpochMilli:
		diffMs := int64(math.Floor(x)) - r.clock.Now().UnixMilli()
		return floorDiv(diffMs, 1000), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidExpiration, x)
	}
}

func (r *Resolver) expiresInString(s string) (int64, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return r.expiresInInstant(t)
		}
	}
	return 0, fmt.Errorf("%w: unparsable date %q", ErrInvalidExpiration, s)
}

func (r *Resolver) expiresInInstant(t time.Time) (int64, error) {
	if t.IsZero() {
		return 0, fmt.Errorf("%w: zero instant", ErrInvalidExpiration)
	}
	diffMs := t.UnixMilli() - r.clock.Now().UnixMilli()
	return floorDiv(diffMs, 1000), nil
}

// floorDiv divides flooring toward negative infinity, so past instants
// truncate to the expected negative second counts.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

var defaultResolver = NewResolver()

// Epoch resolves a raw timestamp against the system clock.
func Epoch(timestamp float64) (time.Time, error) {
	return defaultResolver.Epoch(timestamp)
}

// ExpiresIn normalizes an expiration value against the system clock.
func ExpiresIn(v any) (int64, error) {
	return defaultResolver.ExpiresIn(v)
}
