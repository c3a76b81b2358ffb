package capture

import (
	"fmt"
	"strings"
	"time"
)

// HourPrefix is where SageMaker writes capture files for one UTC hour:
// {prefix}/{endpoint}/{variant}/YYYY/MM/DD/HH/
func HourPrefix(prefix, endpoint, variant string, hour time.Time) string {
	return fmt.Sprintf("%s/%s/%s/%s/", strings.Trim(prefix, "/"), endpoint, variant, hourPath(hour))
}

// GroundTruthKey places a label file under the same hourly layout.
func GroundTruthKey(prefix string, hour time.Time, name string) string {
	return fmt.Sprintf("%s/%s/%s.jsonl", strings.Trim(prefix, "/"), hourPath(hour), name)
}

func hourPath(t time.Time) string {
	return t.UTC().Format("2006/01/02/15")
}

// Hours returns the n whole UTC hours ending with the hour containing end,
// oldest first.
func Hours(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	last := end.UTC().Truncate(time.Hour)
	out := make([]time.Time, n)
	for i := 0; i < n; i++ {
		out[i] = last.Add(-time.Duration(n-1-i) * time.Hour)
	}
	return out
}
