package transitradar

import "time"

func iso8601FromTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func validUntilFrom(t time.Time, interval time.Duration) string {
	return iso8601FromTime(t.Add(interval))
}
