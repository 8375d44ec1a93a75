package game

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os/exec"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Estimator measures how long a game takes by running all-bot
// simulations out of process. Workers run concurrently; the game polls
// CheckCompletion each tick, so the table loop never blocks on them.
type Estimator struct {
	mu      sync.Mutex
	pending int
	ticks   []int64
	errors  []string
}

// EstimateResult is the aggregate over finished workers after IQR
// outlier trimming.
type EstimateResult struct {
	MeanTicks   float64
	StdDevTicks float64
	Outliers    int
	Samples     int
	FirstError  string
	Failed      bool
}

type simOutput struct {
	Ticks    int64 `json:"ticks"`
	TimedOut bool  `json:"timed_out"`
}

// StartEstimate launches workers that each exec the simulate harness
// for the given game and options. Results funnel back through the
// estimator's mutex-guarded lists.
func StartEstimate(binary, gameType string, bots int, options map[string]string, workers int, timeout time.Duration) *Estimator {
	if workers <= 0 {
		workers = 10
	}
	e := &Estimator{pending: workers}

	args := []string{"simulate", gameType, "--bots", strconv.Itoa(bots), "--json", "--quiet"}
	for k, v := range options {
		args = append(args, "-o", k+"="+v)
	}

	for i := 0; i < workers; i++ {
		go func(worker int) {
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			out, err := exec.CommandContext(ctx, binary, args...).Output()
			e.mu.Lock()
			defer e.mu.Unlock()
			e.pending--

			if err != nil {
				e.errors = append(e.errors, fmt.Sprintf("worker %d: %v", worker, err))
				return
			}
			var res simOutput
			if err := json.Unmarshal(out, &res); err != nil {
				e.errors = append(e.errors, fmt.Sprintf("worker %d: bad output: %v", worker, err))
				return
			}
			if res.TimedOut {
				e.errors = append(e.errors, fmt.Sprintf("worker %d: simulation timed out", worker))
				return
			}
			e.ticks = append(e.ticks, res.Ticks)
		}(i)
	}
	return e
}

// CheckCompletion returns the aggregate once every worker has finished.
// Until then it returns (nil, false).
func (e *Estimator) CheckCompletion() (*EstimateResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pending > 0 {
		return nil, false
	}

	if len(e.ticks) == 0 {
		res := &EstimateResult{Failed: true}
		if len(e.errors) > 0 {
			res.FirstError = truncate(e.errors[0], 120)
		}
		log.Printf("[ESTIMATE] All workers failed (%d errors)", len(e.errors))
		return res, true
	}

	kept, outliers := trimOutliersIQR(e.ticks)
	mean, stddev := meanStdDev(kept)
	res := &EstimateResult{
		MeanTicks:   mean,
		StdDevTicks: stddev,
		Outliers:    outliers,
		Samples:     len(kept),
	}
	if len(e.errors) > 0 {
		res.FirstError = truncate(e.errors[0], 120)
	}
	return res, true
}

// trimOutliersIQR drops samples below Q1-1.5*IQR or above Q3+1.5*IQR.
func trimOutliersIQR(samples []int64) ([]int64, int) {
	if len(samples) < 4 {
		return samples, 0
	}
	sorted := append([]int64(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	q1 := quartile(sorted, 0.25)
	q3 := quartile(sorted, 0.75)
	iqr := q3 - q1
	lo := q1 - 1.5*iqr
	hi := q3 + 1.5*iqr

	kept := make([]int64, 0, len(sorted))
	for _, s := range sorted {
		if float64(s) >= lo && float64(s) <= hi {
			kept = append(kept, s)
		}
	}
	return kept, len(sorted) - len(kept)
}

func quartile(sorted []int64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return float64(sorted[lo])
	}
	frac := pos - float64(lo)
	return float64(sorted[lo])*(1-frac) + float64(sorted[hi])*frac
}

func meanStdDev(samples []int64) (float64, float64) {
	if len(samples) == 0 {
		return 0, 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))
	var sq float64
	for _, s := range samples {
		d := float64(s) - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(samples)))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
