package expiry

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// frozenNow is 2024-01-01T00:00:00.000Z.
var frozenNow = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func frozenResolver() *Resolver {
	return NewResolverWithClock(FixedClock{Instant: frozenNow})
}

func TestEpoch_Buckets(t *testing.T) {
	r := frozenResolver()

	tests := []struct {
		name string
		in   float64
		want time.Time
	}{
		{
			name: "relative offset seconds",
			in:   3600,
			want: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		},
		{
			name: "relative offset floors fractional seconds",
			in:   3600.9,
			want: time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC),
		},
		{
			name: "relative bucket upper boundary is inclusive",
			in:   1e7,
			want: frozenNow.Add(1e7 * time.Second),
		},
		{
			name: "epoch seconds",
			in:   2000000000,
			want: time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC),
		},
		{
			name: "epoch seconds keeps fractional part as milliseconds",
			in:   2000000000.5,
			want: time.Date(2033, 5, 18, 3, 33, 20, 500000000, time.UTC),
		},
		{
			name: "epoch seconds upper boundary is inclusive",
			in:   1e10,
			want: time.UnixMilli(1e13).UTC(),
		},
		{
			name: "epoch milliseconds",
			in:   2000000000000,
			want: time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC),
		},
		{
			name: "epoch milliseconds upper boundary is inclusive",
			in:   1e13,
			want: time.UnixMilli(1e13).UTC(),
		},
		{
			name: "epoch microseconds truncate to milliseconds",
			in:   2000000000000999,
			want: time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC),
		},
		{
			name: "epoch microseconds upper boundary is inclusive",
			in:   1e16,
			want: time.UnixMilli(1e13).UTC(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Epoch(tt.in)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want), "got %v, want %v", got, tt.want)
		})
	}
}

func TestEpoch_SecondsAndMillisAgree(t *testing.T) {
	// The same instant expressed in three units must resolve identically
	// (the microsecond form truncated to the second here has no sub-ms part).
	r := frozenResolver()

	fromSec, err := r.Epoch(2000000000)
	require.NoError(t, err)
	fromMs, err := r.Epoch(2000000000000)
	require.NoError(t, err)
	fromUs, err := r.Epoch(2000000000000000)
	require.NoError(t, err)

	assert.True(t, fromSec.Equal(fromMs))
	assert.True(t, fromMs.Equal(fromUs))
}

func TestEpoch_Invalid(t *testing.T) {
	r := frozenResolver()

	// 1e16+1 is not used here: float64 cannot represent it and rounds it
	// back onto the inclusive 1e16 boundary.
	for _, in := range []float64{0, -1, -3600, 2e16, 1e17, nan(), posInf(), negInf()} {
		_, err := r.Epoch(in)
		assert.ErrorIs(t, err, ErrInvalidTimestamp, "input %v", in)
	}
}

func TestExpiresIn_RelativeSeconds(t *testing.T) {
	r := frozenResolver()

	tests := []struct {
		name string
		in   any
		want int64
	}{
		{name: "plain seconds", in: 3600, want: 3600},
		{name: "float seconds floor", in: 90.9, want: 90},
		{name: "zero means expires immediately", in: 0, want: 0},
		{name: "int64 input", in: int64(7200), want: 7200},
		{name: "uint input", in: uint(60), want: 60},
		{name: "relative bucket upper boundary", in: 1e7, want: 1e7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ExpiresIn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpiresIn_AbsoluteEpochNumbers(t *testing.T) {
	r := frozenResolver()
	nowMs := frozenNow.UnixMilli()

	tests := []struct {
		name string
		in   float64
		want int64
	}{
		{
			name: "epoch seconds one hour ahead",
			in:   float64(frozenNow.Unix() + 3600),
			want: 3600,
		},
		{
			name: "epoch seconds floors once at the millisecond difference",
			in:   float64(frozenNow.Unix()+10) + 0.4,
			want: 10,
		},
		{
			name: "epoch seconds far future",
			in:   2000000000,
			want: (2000000000000 - nowMs) / 1000,
		},
		{
			name: "epoch milliseconds one hour ahead",
			in:   float64(nowMs + 3600*1000),
			want: 3600,
		},
		{
			name: "epoch milliseconds in the past is negative",
			in:   float64(nowMs - 3600*1000),
			want: -3600,
		},
		{
			name: "past sub-second difference floors toward negative infinity",
			in:   float64(nowMs - 500),
			want: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ExpiresIn(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpiresIn_Instants(t *testing.T) {
	r := frozenResolver()

	t.Run("one hour after now", func(t *testing.T) {
		got, err := r.ExpiresIn(frozenNow.Add(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(3600), got)
	})

	t.Run("one hour before now is negative, not an error", func(t *testing.T) {
		got, err := r.ExpiresIn(frozenNow.Add(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, int64(-3600), got)
	})

	t.Run("far future instant", func(t *testing.T) {
		target := time.Date(2033, 5, 18, 3, 33, 20, 0, time.UTC)
		got, err := r.ExpiresIn(target)
		require.NoError(t, err)
		assert.Equal(t, (target.UnixMilli()-frozenNow.UnixMilli())/1000, got)
	})

	t.Run("zero instant rejected", func(t *testing.T) {
		_, err := r.ExpiresIn(time.Time{})
		assert.ErrorIs(t, err, ErrInvalidExpiration)
	})
}

func TestExpiresIn_Strings(t *testing.T) {
	r := frozenResolver()

	tests := []struct {
		name    string
		in      string
		want    int64
		wantErr bool
	}{
		{name: "RFC3339 one hour ahead", in: "2024-01-01T01:00:00Z", want: 3600},
		{name: "RFC3339 with offset", in: "2024-01-01T02:00:00+01:00", want: 3600},
		{name: "date only resolves to midnight", in: "2024-01-01", want: 0},
		{name: "RFC1123Z", in: "Mon, 01 Jan 2024 01:00:00 +0000", want: 3600},
		{name: "not a date string", in: "not a date string", wantErr: true},
		{name: "bare numeric string is not a date", in: "3600", wantErr: true},
		{name: "empty string", in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.ExpiresIn(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidExpiration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpiresIn_Invalid(t *testing.T) {
	r := frozenResolver()

	for _, in := range []any{-1, -0.5, nan(), posInf(), negInf(), 1e13 + 1, 1e14, 1e16, true, nil, []byte("x")} {
		_, err := r.ExpiresIn(in)
		assert.ErrorIs(t, err, ErrInvalidExpiration, "input %v", in)
	}
}

func TestExpiresIn_RoundTrip(t *testing.T) {
	// A millisecond-bucket value built as now + k seconds must come back as
	// k, within the flooring error of at most one second.
	r := frozenResolver()

	for _, k := range []int64{1, 60, 3600, 86400, 31536000} {
		y := float64(frozenNow.UnixMilli() + k*1000)
		got, err := r.ExpiresIn(y)
		require.NoError(t, err)
		assert.InDelta(t, k, got, 1, "k=%d", k)
	}
}

func TestEpochAndExpiresInAgreeOnUnit(t *testing.T) {
	// Resolving a raw number through Epoch and measuring the resulting
	// instant's distance from now must match normalizing the number
	// directly: both paths infer the same unit.
	r := frozenResolver()

	for _, raw := range []float64{2000000000, 2000000000000} {
		instant, err := r.Epoch(raw)
		require.NoError(t, err)

		viaInstant, err := r.ExpiresIn(instant)
		require.NoError(t, err)
		direct, err := r.ExpiresIn(raw)
		require.NoError(t, err)

		assert.Equal(t, direct, viaInstant, "raw=%v", raw)
	}
}

func TestDefaultResolverUsesSystemClock(t *testing.T) {
	// Smoke check only: a relative expiration passes through unchanged
	// regardless of what "now" is.
	got, err := ExpiresIn(3600)
	require.NoError(t, err)
	assert.Equal(t, int64(3600), got)

	instant, err := Epoch(60)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Minute), instant, 2*time.Second)
}

func nan() float64    { return math.NaN() }
func posInf() float64 { return math.Inf(1) }
func negInf() float64 { return math.Inf(-1) }
