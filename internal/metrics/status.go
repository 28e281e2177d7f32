package metrics

import "sort"

// Bucket is one row of a flattened counter map.
type Bucket struct {
	Key   string
	Count int64
}

// SortedCodes flattens a response-code map into rows sorted by descending
// count, then by code for stability.
func SortedCodes(codes map[string]int64) []Bucket {
	if len(codes) == 0 {
		return nil
	}
	rows := make([]Bucket, 0, len(codes))
	for code, count := range codes {
		rows = append(rows, Bucket{Key: code, Count: count})
	}
	sortBuckets(rows)
	return rows
}

// SortedReasons flattens a failure-reason map the same way, skipping
// zero counts.
func SortedReasons(reasons map[Reason]int64) []Bucket {
	rows := make([]Bucket, 0, len(reasons))
	for reason, count := range reasons {
		if count == 0 {
			continue
		}
		rows = append(rows, Bucket{Key: string(reason), Count: count})
	}
	if len(rows) == 0 {
		return nil
	}
	sortBuckets(rows)
	return rows
}

func sortBuckets(rows []Bucket) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count == rows[j].Count {
			return rows[i].Key < rows[j].Key
		}
		return rows[i].Count > rows[j].Count
	})
}
