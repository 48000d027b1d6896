package partition

import (
	"errors"
	"math/bits"
	"time"
)

var ErrInvalidBucketWidth = errors.New("bucket width must be greater than zero")

// TimeBucket truncates t down to a multiple of width measured from DefaultEpoch.
func TimeBucket(width time.Duration, t time.Time) (time.Time, error) {
	return TimeBucketWithOrigin(width, t, DefaultEpoch)
}

// TimeBucketWithOrigin is TimeBucket with an explicit origin. Timestamps before
// the origin are floored, not truncated towards it.
func TimeBucketWithOrigin(width time.Duration, t, origin time.Time) (time.Time, error) {
	if width <= 0 {
		return time.Time{}, ErrInvalidBucketWidth
	}

	return align(t, width, origin), nil
}

// align floors t to the bucket grid anchored at origin. The offset is split
// into whole seconds and nanoseconds so timestamps centuries away from the
// origin do not overflow a time.Duration.
func align(t time.Time, width time.Duration, origin time.Time) time.Time {
	secs := t.Unix() - origin.Unix()
	nanos := int64(t.Nanosecond()) - int64(origin.Nanosecond())
	if nanos < 0 {
		secs--
		nanos += int64(time.Second)
	}

	w := uint64(width)
	hi, lo := bits.Mul64(floorMod(secs, w), uint64(time.Second)%w)
	rem := (bits.Rem64(hi, lo, w) + uint64(nanos)) % w

	return t.Add(-time.Duration(rem)).Round(0)
}

// floorMod returns v mod m in [0, m).
func floorMod(v int64, m uint64) uint64 {
	if v >= 0 {
		return uint64(v) % m
	}

	r := uint64(-(v + 1)) % m
	return m - 1 - r
}
