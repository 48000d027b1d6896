package partition

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/frain-dev/pgtime/datastore"
)

// ParseInterval parses a fixed duration such as "24h" or "90m". Durations with
// calendar units ("1 day", "1 mon", "7d") are rejected since their length varies.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil {
		if strings.ContainsAny(s, "dwyM") {
			return 0, fmt.Errorf("%w: %q", datastore.ErrCalendarInterval, s)
		}
		return 0, fmt.Errorf("invalid interval %q: %w", s, err)
	}

	return d, nil
}

// FromPgInterval converts a postgres interval into a fixed duration. An invalid
// (NULL) interval converts to zero.
func FromPgInterval(i pgtype.Interval) (time.Duration, error) {
	if !i.Valid {
		return 0, nil
	}

	if i.Months != 0 || i.Days != 0 {
		return 0, fmt.Errorf("%w: interval has %d months and %d days", datastore.ErrCalendarInterval, i.Months, i.Days)
	}

	return time.Duration(i.Microseconds) * time.Microsecond, nil
}

// ToPgInterval converts a duration into a postgres interval. Zero maps to NULL.
func ToPgInterval(d time.Duration) pgtype.Interval {
	if d == 0 {
		return pgtype.Interval{}
	}

	return pgtype.Interval{Microseconds: d.Microseconds(), Valid: true}
}
