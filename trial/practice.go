package trial

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-mlp/mlp"
)

// PracticeKind selects the level of a familiarisation trial.
type PracticeKind string

const (
	// PracticeMax presents HypMax, where a change should be heard.
	PracticeMax PracticeKind = "max"
	// PracticeMin presents HypMin, where no change should be heard.
	PracticeMin PracticeKind = "min"
)

// PracticeResult is one familiarisation trial.
type PracticeResult struct {
	Kind     PracticeKind
	Stimulus float64
	Response Response
	Correct  bool
}

// Practice runs a familiarisation block at the extremes of cfg's range,
// shuffled with rng when it is non-nil. feedback, if set, is called after each
// trial so the listener can be told whether the answer was right. No
// estimator is involved.
func Practice(ctx context.Context, p Presenter, cfg mlp.Config, kinds []PracticeKind, rng Shuffler, feedback func(PracticeResult)) ([]PracticeResult, error) {
	order := append([]PracticeKind(nil), kinds...)
	if rng != nil {
		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	out := make([]PracticeResult, 0, len(order))
	for i, kind := range order {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		var stim float64
		switch kind {
		case PracticeMax:
			stim = cfg.HypMax
		case PracticeMin:
			stim = cfg.HypMin
		default:
			return out, fmt.Errorf("practice trial %d: unknown kind %q", i+1, kind)
		}

		resp, err := p.Present(ctx, stim)
		if err != nil {
			return out, fmt.Errorf("practice trial %d: %w", i+1, err)
		}

		r := PracticeResult{
			Kind:     kind,
			Stimulus: stim,
			Response: resp,
			Correct:  resp.Detected == (kind == PracticeMax),
		}
		out = append(out, r)
		if feedback != nil {
			feedback(r)
		}
	}
	return out, nil
}
