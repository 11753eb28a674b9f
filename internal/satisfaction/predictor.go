package satisfaction

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/persona/internal/interaction"
)

const (
	// StepMinutes is the trajectory sampling interval.
	StepMinutes = 5

	// DefaultHorizonMinutes bounds the projection when the caller passes
	// no horizon.
	DefaultHorizonMinutes = 60

	// defaultBaseline is the satisfaction assumed with no history.
	defaultBaseline = 0.5

	// recencyWindow prefers interactions from the last day for the baseline.
	recencyWindow = 24 * time.Hour
)

// Predictor projects satisfaction trajectories.
type Predictor struct {
	logger *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewPredictor creates a predictor.
func NewPredictor(logger *zap.Logger) *Predictor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Predictor{logger: logger, now: time.Now}
}

// PredictTrajectory projects satisfaction from now to horizonMinutes,
// sampled every StepMinutes (offset 0 included). horizonMinutes <= 0 selects
// the default horizon.
func (p *Predictor) PredictTrajectory(history *interaction.UserHistory, ctx map[string]float64, horizonMinutes int) *Trajectory {
	if horizonMinutes <= 0 {
		horizonMinutes = DefaultHorizonMinutes
	}

	baseline := p.baseline(history)
	momentum := sessionMomentum(history)
	engagement := ctxValue(ctx, interaction.KeyEngagementScore, 0.5)

	steps := horizonMinutes/StepMinutes + 1
	tr := &Trajectory{
		Offsets: make([]int, steps),
		Values:  make([]float64, steps),
		Lower:   make([]float64, steps),
		Upper:   make([]float64, steps),
		Factors: factors(baseline, ctx, horizonMinutes, engagement),
	}

	for s := 0; s < steps; s++ {
		t := float64(s * StepMinutes)
		v := baseline * timeFactor(momentum, t) * contextFactor(ctx, t) * fatigueFactor(t)
		if engagement > 0.7 {
			v *= 1 + (engagement-0.7)*0.2
		}
		v = clamp01(v)

		half := 0.1 + (t/60)*0.1
		tr.Offsets[s] = int(t)
		tr.Values[s] = v
		tr.Lower[s] = clamp01(v - half)
		tr.Upper[s] = clamp01(v + half)
	}

	p.logger.Debug("predicted satisfaction trajectory",
		zap.Float64("baseline", baseline),
		zap.Int("horizon_minutes", horizonMinutes),
		zap.String("trend", string(tr.Trend())))
	return tr
}

// baseline is the recency-weighted mean satisfaction: linear weights rising
// 0.5 -> 1.0 across the window, preferring the last 24h and falling back to
// the full history, default 0.5 with no data.
func (p *Predictor) baseline(history *interaction.UserHistory) float64 {
	if history == nil || len(history.Interactions) == 0 {
		return defaultBaseline
	}
	window := history.Recent(p.now(), recencyWindow)
	if len(window) == 0 {
		window = history.Interactions
	}

	n := len(window)
	num, den := 0.0, 0.0
	for i, in := range window {
		w := 1.0
		if n > 1 {
			w = 0.5 + 0.5*float64(i)/float64(n-1)
		}
		num += w * in.Satisfaction
		den += w
	}
	return clamp01(num / den)
}

// sessionMomentum is the mean per-minute satisfaction change across recorded
// sessions, zero with no sessions.
func sessionMomentum(history *interaction.UserHistory) float64 {
	if history == nil || len(history.Sessions) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range history.Sessions {
		minutes := s.Duration.Minutes()
		if minutes <= 0 {
			continue
		}
		sum += s.SatisfactionDelta() / minutes
	}
	return sum / float64(len(history.Sessions))
}

// timeFactor extrapolates session momentum t minutes out, clamped to
// [0.5, 1.5]. Zero momentum (no sessions) leaves the baseline unchanged.
func timeFactor(momentum, t float64) float64 {
	return clampRange(1+momentum*t, 0.5, 1.5)
}

// contextFactor folds task complexity, expertise, and support availability
// into a multiplicative adjustment, clamped to [0.5, 1.5].
func contextFactor(ctx map[string]float64, t float64) float64 {
	f := 1.0
	complexity := ctxValue(ctx, interaction.KeyTaskComplexity, 0.5)
	if complexity > 0.7 {
		f *= 1 - (t/120)*0.2
	} else if complexity < 0.3 {
		f *= 1.1
	}

	expertise := ctxValue(ctx, interaction.KeyUserExpertise, 0.5)
	if expertise > 0.7 {
		f *= 1.1
	} else if expertise < 0.3 {
		f *= 1 - (t/60)*0.1
	}

	if ctxValue(ctx, interaction.KeySupportAvail, 1) < 0.5 {
		f *= 0.9
	}
	return clampRange(f, 0.5, 1.5)
}

// fatigueFactor decays satisfaction over long stretches, floored at 0.7.
func fatigueFactor(t float64) float64 {
	return math.Max(0.7, 1-(t/120)*0.3)
}

// factors lists the influences a caller should surface alongside the curve.
func factors(baseline float64, ctx map[string]float64, horizonMinutes int, engagement float64) []string {
	var out []string
	if baseline < 0.4 {
		out = append(out, "low recent satisfaction")
	} else if baseline > 0.7 {
		out = append(out, "high recent satisfaction")
	}
	if ctxValue(ctx, interaction.KeyTaskComplexity, 0.5) > 0.7 {
		out = append(out, "high task complexity")
	}
	if ctxValue(ctx, interaction.KeyUserExpertise, 0.5) < 0.3 {
		out = append(out, "limited user expertise")
	}
	if ctxValue(ctx, interaction.KeyTimePressure, 0) > 0.7 {
		out = append(out, "time pressure")
	}
	if ctxValue(ctx, interaction.KeySupportAvail, 1) < 0.5 {
		out = append(out, "no support available")
	}
	if horizonMinutes > 60 {
		out = append(out, "fatigue accumulation")
	}
	if engagement > 0.7 {
		out = append(out, "high engagement")
	}
	return out
}

func ctxValue(ctx map[string]float64, key string, def float64) float64 {
	if v, ok := ctx[key]; ok {
		return v
	}
	return def
}

func clamp01(v float64) float64 {
	return clampRange(v, 0, 1)
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
