// Package trial drives an mlp.Estimator through a block of trials: it plans
// where catch trials fall, presents each stimulus through an injected
// Presenter, feeds the responses back and writes the flat trial log.
package trial

import (
	"fmt"
	"slices"
)

// Kind distinguishes adaptive trials from catch trials.
type Kind string

const (
	// KindMLP trials present the stimulus proposed by the estimator.
	KindMLP Kind = "mlp"
	// KindCatch trials present the lowest hypothesised stimulus instead.
	KindCatch Kind = "catch"
)

// Blocks with more adaptive trials than this keep catch trials away from both
// ends of the block.
const longBlockTrials = 10

const (
	longBlockLead = 5
	longBlockTail = 1
)

// Shuffler permutes a sequence in place. *rand.Rand from math/rand/v2
// satisfies it.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// Plan returns a block of trials adaptive and catch catch trials in shuffled
// order. The first trial is always adaptive. In blocks of more than ten
// adaptive trials the first five and the last one are adaptive too.
func Plan(trials, catch int, rng Shuffler) ([]Kind, error) {
	if trials < 1 {
		return nil, fmt.Errorf("trial plan needs at least one adaptive trial: %d", trials)
	}
	if catch < 0 {
		return nil, fmt.Errorf("catch trial count must be >= 0: %d", catch)
	}

	lead, tail := 1, 0
	if trials > longBlockTrials {
		lead, tail = longBlockLead, longBlockTail
	}

	middle := make([]Kind, 0, trials-lead-tail+catch)
	for i := 0; i < trials-lead-tail; i++ {
		middle = append(middle, KindMLP)
	}
	for i := 0; i < catch; i++ {
		middle = append(middle, KindCatch)
	}
	if rng != nil {
		rng.Shuffle(len(middle), func(i, j int) {
			middle[i], middle[j] = middle[j], middle[i]
		})
	}

	plan := make([]Kind, 0, trials+catch)
	plan = append(plan, slices.Repeat([]Kind{KindMLP}, lead)...)
	plan = append(plan, middle...)
	plan = append(plan, slices.Repeat([]Kind{KindMLP}, tail)...)

	return plan, nil
}

// Count returns the number of adaptive and catch trials in plan.
func Count(plan []Kind) (adaptive, catch int) {
	for _, k := range plan {
		if k == KindCatch {
			catch++
		} else {
			adaptive++
		}
	}
	return adaptive, catch
}
