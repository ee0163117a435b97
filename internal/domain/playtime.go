package domain

// TimeBucket identifies one of the tracked playtime windows. Daily, weekly
// and monthly buckets are reset by the accrual job; the total bucket only
// ever grows.
type TimeBucket string

const (
	BucketDaily   TimeBucket = "daily"
	BucketWeekly  TimeBucket = "weekly"
	BucketMonthly TimeBucket = "monthly"
	BucketTotal   TimeBucket = "total"
)

func AllTimeBuckets() []TimeBucket {
	return []TimeBucket{BucketDaily, BucketWeekly, BucketMonthly, BucketTotal}
}

func ParseTimeBucket(raw string) (TimeBucket, bool) {
	switch TimeBucket(raw) {
	case BucketDaily, BucketWeekly, BucketMonthly, BucketTotal:
		return TimeBucket(raw), true
	}
	return "", false
}

// PlayTimeEntry is a single leaderboard row for one bucket.
type PlayTimeEntry struct {
	PlayerUUID string
	Minutes    int
}
