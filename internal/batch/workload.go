package batch

import (
	"time"

	"github.com/montanaflynn/stats"
)

// DoneSet computes the already-completed lead keys: keys present in the
// existing output files (always scanned) unioned with the checkpoint when
// resuming. Error records never count as done.
func DoneSet(checkpointPath string, resume bool, outputPaths []string) (map[string]struct{}, error) {
	done, err := ScanKeys(outputPaths...)
	if err != nil {
		return nil, err
	}

	if resume {
		cp, err := LoadCheckpoint(checkpointPath)
		if err != nil {
			return nil, err
		}
		for key := range cp {
			done[key] = struct{}{}
		}
	}
	return done, nil
}

// etaWindow bounds how many recent per-lead durations feed the moving rate.
const etaWindow = 32

// ETA estimates remaining wall time from the mean of a moving window of
// per-lead durations.
type ETA struct {
	total     int
	completed int
	recent    []float64 // seconds
}

// NewETA sets the workload denominator.
func NewETA(total int) *ETA {
	return &ETA{total: total}
}

// Observe records one completed lead.
func (e *ETA) Observe(d time.Duration) {
	e.completed++
	e.recent = append(e.recent, d.Seconds())
	if len(e.recent) > etaWindow {
		e.recent = e.recent[len(e.recent)-etaWindow:]
	}
}

// Completed returns how many leads have been observed.
func (e *ETA) Completed() int {
	return e.completed
}

// Remaining estimates the wall time left for the rest of the workload.
func (e *ETA) Remaining() time.Duration {
	left := e.total - e.completed
	if left <= 0 || len(e.recent) == 0 {
		return 0
	}
	mean, err := stats.Mean(e.recent)
	if err != nil {
		return 0
	}
	return time.Duration(float64(left) * mean * float64(time.Second))
}
