package mlp

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultTrendWindow is the number of recent non-catch stimuli Summary uses
// for the convergence trend.
const DefaultTrendWindow = 5

// Summary returns a human-readable report of the estimator state. It has no
// side effects.
func (e *Estimator) Summary() string {
	var b strings.Builder

	rates := make([]string, len(e.cfg.FalseAlarmRates))
	for i, a := range e.cfg.FalseAlarmRates {
		rates[i] = strconv.FormatFloat(a, 'g', -1, 64)
	}

	b.WriteString("--- MLP estimator ---\n")
	fmt.Fprintf(&b, "Psychometric curve slope : %g\n", e.cfg.Slope)
	fmt.Fprintf(&b, "# of hypotheses: %d\n", e.grid.Len())
	fmt.Fprintf(&b, "     %d midpoints between %.3f and %.3f\n", e.cfg.HypN, e.cfg.HypMin, e.cfg.HypMax)
	fmt.Fprintf(&b, "     false alarm rates : %s\n", strings.Join(rates, ", "))
	fmt.Fprintf(&b, "     tracking target p : %.4f\n", e.CalculateTarget())
	b.WriteString("\n")

	fmt.Fprintf(&b, "History: %d answer(s)\n", len(e.history))
	if len(e.history) > 0 {
		fmt.Fprintf(&b, "     prop. yes response = %.3f\n", e.ProportionYes())
		fmt.Fprintf(&b, "     recent trend = %.3f per trial\n", e.RecentStimulusTrend(DefaultTrendWindow))
	}

	best, err := e.grid.MaxLikelihood()
	if err != nil {
		fmt.Fprintf(&b, "Maximum likelihood curves unavailable: %v\n", err)
		return b.String()
	}

	minM, maxM := best[0].Threshold, best[0].Threshold
	minA, maxA := best[0].FalseAlarmRate, best[0].FalseAlarmRate
	for _, h := range best[1:] {
		minM = min(minM, h.Threshold)
		maxM = max(maxM, h.Threshold)
		minA = min(minA, h.FalseAlarmRate)
		maxA = max(maxA, h.FalseAlarmRate)
	}

	m, _ := e.MidpointEstimate()
	a, _ := e.FalseAlarmEstimate()

	fmt.Fprintf(&b, "# Maximum likelihood curves: %d\n", len(best))
	fmt.Fprintf(&b, "    Midpoints %.3f - %.3f, FA rates %g - %g\n", minM, maxM, minA, maxA)
	fmt.Fprintf(&b, "    Midpoint estimate : %.3f\n", m)
	fmt.Fprintf(&b, "    False alarm estimate : %.3f\n", a)

	return b.String()
}
