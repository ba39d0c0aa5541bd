package pacing

import (
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// SplitRow is one fixed-length segment of the splits table. Pace and
// elapsed time are nil when no valid pace target was supplied; the
// terrain columns are always populated.
type SplitRow struct {
	Index           int      `json:"index"`
	StartM          float64  `json:"start_m"`
	EndM            float64  `json:"end_m"`
	DistanceM       float64  `json:"distance_m"`
	GainM           float64  `json:"gain_m"`
	LossM           float64  `json:"loss_m"`
	AvgGradePercent float64  `json:"avg_grade_percent"`
	PacePerUnit     *float64 `json:"pace_per_unit"`
	ElapsedSec      *float64 `json:"elapsed_sec"`
}

// splitBoundaries steps from 0 by splitLen and closes with the exact
// course total, so boundary sums reproduce the total without drift.
func splitBoundaries(total, splitLen float64) []float64 {
	bounds := []float64{0}
	for d := splitLen; d < total; d += splitLen {
		bounds = append(bounds, d)
	}
	return append(bounds, total)
}

// splitGainLoss accumulates positive and negative elevation deltas
// over the interpolated split endpoints and every profile vertex
// strictly inside the interval. Loss is returned positive.
func splitGainLoss(profile []ElevationPoint, start, end float64) (gainM, lossM float64) {
	prev := elevationAt(profile, start)
	i := sort.Search(len(profile), func(i int) bool {
		return profile[i].DistanceM > start
	})
	accumulate := func(elev float64) {
		if d := elev - prev; d > 0 {
			gainM += d
		} else {
			lossM -= d
		}
		prev = elev
	}
	for ; i < len(profile) && profile[i].DistanceM < end; i++ {
		accumulate(profile[i].ElevationM)
	}
	accumulate(elevationAt(profile, end))
	return gainM, lossM
}

// Splits partitions the course into unit-length segments and computes
// per-segment gain, loss, average grade, pace and cumulative elapsed
// time. Per-split metrics are computed in parallel, the cumulative sum
// runs sequentially, and a final pass rescales every row's travel-only
// time component so the last row's elapsed equals the target total
// exactly: the target time in ModeTime, the rounded raw total
// otherwise. Returns nil for an empty or zero-length profile.
func Splits(in Inputs) []SplitRow {
	profile := in.Profile
	if len(profile) == 0 {
		return nil
	}
	total := TotalDistance(profile)
	if total <= 0 {
		return nil
	}
	opts := in.Options.withDefaults()
	cfg := in.Config

	bounds := splitBoundaries(total, SplitLengthM(cfg.PaceUnit))
	n := len(bounds) - 1

	totalStop := CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, total)
	base, paceOK := basePacePerMeter(cfg, total, totalStop)
	norm := NormalizationScale(profile, cfg, opts)
	tscale := TimeScale(profile, cfg, opts, norm, totalStop)
	mpu := MetersPerUnit(cfg.PaceUnit)

	rows := make([]SplitRow, n)
	travel := make([]float64, n)

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		g.Go(func() error {
			start, end := bounds[i], bounds[i+1]
			length := end - start
			gain, loss := splitGainLoss(profile, start, end)
			row := SplitRow{
				Index:     i,
				StartM:    start,
				EndM:      end,
				DistanceM: length,
				GainM:     gain,
				LossM:     loss,
			}
			if length > 0 {
				net := elevationAt(profile, end) - elevationAt(profile, start)
				row.AvgGradePercent = net / length * 100.0
			}
			if paceOK && length > 0 {
				samples := int(math.Ceil(length / opts.SampleStepM))
				if samples < 1 {
					samples = 1
				}
				sub := length / float64(samples)
				var sum float64
				for k := 0; k < samples; k++ {
					mid := start + (float64(k)+0.5)*sub
					sum += PaceFactor(GradeAt(profile, mid, opts.GradeWindowM))
				}
				mean := sum / float64(samples) * strategyFactor(cfg, (start+end)/2/total)
				adjusted := base * mean * norm * tscale
				pace := adjusted * mpu
				row.PacePerUnit = &pace
				travel[i] = length * adjusted
			}
			rows[i] = row
			return nil
		})
	}
	_ = g.Wait()

	if !paceOK {
		return rows
	}

	stops := make([]float64, n)
	var cum float64
	for i := 0; i < n; i++ {
		cum += travel[i]
		stops[i] = CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, bounds[i+1])
		elapsed := cum + stops[i]
		rows[i].ElapsedSec = &elapsed
	}

	last := n - 1
	rawTravelLast := *rows[last].ElapsedSec - stops[last]
	var desiredLast float64
	if cfg.PaceMode == ModeTime && cfg.TargetTimeSec > 0 {
		desiredLast = cfg.TargetTimeSec - totalStop
	} else {
		desiredLast = math.Round(*rows[last].ElapsedSec) - totalStop
	}
	if rawTravelLast > 0 {
		ratio := desiredLast / rawTravelLast
		for i := 0; i < last; i++ {
			elapsed := (*rows[i].ElapsedSec-stops[i])*ratio + stops[i]
			rows[i].ElapsedSec = &elapsed
		}
		// assign, not multiply: a*(b/a) is not bit-exact in floating point
		elapsed := desiredLast + stops[last]
		rows[last].ElapsedSec = &elapsed
	}
	return rows
}

// ElapsedAt integrates predicted travel time from the start to
// distance d under the same factor and scale scheme as Splits, plus
// stoppage at waypoints up to d. Used for waypoint ETAs and progress
// checks. Returns false when no valid pace target exists.
func ElapsedAt(in Inputs, d float64) (float64, bool) {
	profile := in.Profile
	if len(profile) == 0 {
		return 0, false
	}
	total := TotalDistance(profile)
	if total <= 0 {
		return 0, false
	}
	opts := in.Options.withDefaults()
	cfg := in.Config
	d = clamp(d, 0, total)

	totalStop := CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, total)
	base, ok := basePacePerMeter(cfg, total, totalStop)
	if !ok {
		return 0, false
	}
	norm := NormalizationScale(profile, cfg, opts)
	tscale := TimeScale(profile, cfg, opts, norm, totalStop)

	var travelSec float64
	forEachStep(d, opts.SampleStepM, func(mid, stepLen float64) {
		f := PaceFactor(GradeAt(profile, mid, opts.GradeWindowM)) * strategyFactor(cfg, mid/total)
		travelSec += base * f * norm * tscale * stepLen
	})
	return travelSec + CumulativeStoppage(in.Waypoints, in.Overrides, in.DefaultStoppageSec, d), true
}
