package trial_test

import (
	"bytes"
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/cwbudde/algo-mlp/mlp"
	simulated "github.com/cwbudde/algo-mlp/observer"
	"github.com/cwbudde/algo-mlp/trial"
)

// scripted records every stimulus and answers from a fixed rule.
type scripted struct {
	stimuli []float64
	answer  func(x float64) bool
}

func (s *scripted) Present(_ context.Context, x float64) (trial.Response, error) {
	s.stimuli = append(s.stimuli, x)
	return trial.Response{Detected: s.answer(x)}, nil
}

func newEstimator(t *testing.T) *mlp.Estimator {
	t.Helper()
	est, err := mlp.New(mlp.DefaultConfig(), mlp.WithSeed(5))
	require.NoError(t, err)
	return est
}

func TestRunnerStimulusSequence(t *testing.T) {
	est := newEstimator(t)
	p := &scripted{answer: func(x float64) bool { return x > 80 }}

	plan := []trial.Kind{trial.KindMLP, trial.KindMLP, trial.KindCatch, trial.KindMLP}
	res, err := trial.NewRunner(est, p, trial.WithLogger(zaptest.NewLogger(t))).Run(context.Background(), plan)
	require.NoError(t, err)

	require.Len(t, p.stimuli, len(plan))
	assert.InDelta(t, 200.0, p.stimuli[0], 0, "first trial starts at HypMax")
	assert.InDelta(t, 0.0, p.stimuli[2], 0, "catch trial is forced to HypMin")

	require.Len(t, res.Records, len(plan))
	for i, rec := range res.Records {
		assert.Equal(t, i+1, rec.Trial)
		assert.Equal(t, plan[i], rec.Kind)
		assert.InDelta(t, p.stimuli[i], rec.Stimulus, 0)
		assert.Equal(t, 1, rec.Count, "zero presentations are logged as one")
	}

	hist := est.History()
	require.Len(t, hist, len(plan))
	for i, h := range hist {
		assert.InDelta(t, p.stimuli[i], h.Stimulus, 0)
		assert.Equal(t, p.stimuli[i] > 80, h.Response)
	}

	mid, err := est.MidpointEstimate()
	require.NoError(t, err)
	assert.InDelta(t, mid, res.Midpoint, 0)
	assert.Equal(t, est.Summary(), res.Summary)
}

func TestRunnerStimulusBounds(t *testing.T) {
	est := newEstimator(t)
	p := &scripted{answer: func(float64) bool { return false }}

	_, err := trial.NewRunner(est, p,
		trial.WithInitialStimulus(-40),
		trial.WithMaxStimulus(150),
	).Run(context.Background(), []trial.Kind{trial.KindMLP, trial.KindMLP, trial.KindMLP})
	require.NoError(t, err)

	assert.InDelta(t, 0.0, p.stimuli[0], 0, "initial level clamped to HypMin")
	for _, x := range p.stimuli {
		assert.GreaterOrEqual(t, x, 0.0)
		assert.LessOrEqual(t, x, 150.0)
	}
}

func TestRunnerIgnoresCapBelowFloor(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	est := newEstimator(t)
	p := &scripted{answer: func(x float64) bool { return x > 60 }}

	plan := []trial.Kind{trial.KindMLP, trial.KindMLP, trial.KindMLP, trial.KindMLP}
	_, err := trial.NewRunner(est, p,
		trial.WithLogger(zap.New(core)),
		trial.WithMaxStimulus(-10),
	).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("stimulus cap below HypMin ignored").Len())
	assert.InDelta(t, 200.0, p.stimuli[0], 0, "uncapped start at HypMax")
	for _, x := range p.stimuli {
		assert.GreaterOrEqual(t, x, 0.0)
	}
}

func TestRunnerWarnsOnImplausibleAnswers(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	est := newEstimator(t)
	p := &scripted{answer: func(x float64) bool { return x <= 0 }}

	plan := []trial.Kind{trial.KindMLP, trial.KindCatch}
	_, err := trial.NewRunner(est, p, trial.WithLogger(zap.New(core))).Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("no change reported at maximum level").Len())
	assert.Equal(t, 1, logs.FilterMessage("change reported on catch trial").Len())
}

func TestRunnerLogsSessionFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	est := newEstimator(t)
	p := &scripted{answer: func(float64) bool { return true }}

	r := trial.NewRunner(est, p,
		trial.WithLogger(zap.New(core)),
		trial.WithParticipant("p07"),
		trial.WithTask("pitch"),
		trial.WithSession("s-1"),
	)
	assert.Equal(t, "s-1", r.Session())

	res, err := r.Run(context.Background(), []trial.Kind{trial.KindMLP})
	require.NoError(t, err)
	assert.Equal(t, "p07", res.Records[0].Participant)
	assert.Equal(t, "s-1", res.Records[0].Session)
	assert.Equal(t, "pitch", res.Records[0].Task)

	started := logs.FilterMessage("block started").All()
	require.Len(t, started, 1)
	fields := started[0].ContextMap()
	assert.Equal(t, "p07", fields["participant"])
	assert.Equal(t, "s-1", fields["session"])
	assert.Equal(t, "pitch", fields["task"])
	assert.EqualValues(t, 1, fields["adaptive_trials"])
	assert.Equal(t, 1, logs.FilterMessage("block finished").Len())
}

func TestRunnerDefaultSessionIsUnique(t *testing.T) {
	est := newEstimator(t)
	p := &scripted{answer: func(float64) bool { return true }}

	a := trial.NewRunner(est, p)
	b := trial.NewRunner(est, p)
	assert.NotEmpty(t, a.Session())
	assert.NotEqual(t, a.Session(), b.Session())
}

func TestRunnerStopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	est := newEstimator(t)

	calls := 0
	p := trial.PresenterFunc(func(context.Context, float64) (trial.Response, error) {
		calls++
		if calls == 2 {
			cancel()
		}
		return trial.Response{Detected: true, Presentations: 1}, nil
	})

	res, err := trial.NewRunner(est, p).Run(ctx, []trial.Kind{trial.KindMLP, trial.KindMLP, trial.KindMLP})
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, res.Records, 2)
	assert.Len(t, est.History(), 2)
}

func TestRunnerPresenterError(t *testing.T) {
	boom := errors.New("headphones unplugged")
	est := newEstimator(t)
	p := trial.PresenterFunc(func(context.Context, float64) (trial.Response, error) {
		return trial.Response{}, boom
	})

	res, err := trial.NewRunner(est, p).Run(context.Background(), []trial.Kind{trial.KindMLP})
	require.ErrorIs(t, err, boom)
	assert.Empty(t, res.Records)
	assert.Empty(t, est.History())
}

type failingSink struct{ err error }

func (f failingSink) Log(trial.Record) error { return f.err }

func TestRunnerSinkError(t *testing.T) {
	boom := errors.New("disk full")
	est := newEstimator(t)
	p := &scripted{answer: func(float64) bool { return true }}

	res, err := trial.NewRunner(est, p, trial.WithSink(failingSink{boom})).Run(context.Background(), []trial.Kind{trial.KindMLP, trial.KindMLP})
	require.ErrorIs(t, err, boom)
	assert.Len(t, res.Records, 1)
}

func TestSimulatedBlockReplays(t *testing.T) {
	cfg := mlp.DefaultConfig()
	est, err := mlp.New(cfg, mlp.WithSeed(11))
	require.NoError(t, err)

	plan, err := trial.Plan(40, 6, rand.New(rand.NewPCG(11, 11)))
	require.NoError(t, err)

	var buf bytes.Buffer
	listener := simulated.NewSimulated(0.1, 60, 0.1, 11)
	res, err := trial.NewRunner(est, listener,
		trial.WithSink(trial.NewCSVLog(&buf)),
		trial.WithParticipant("sim"),
	).Run(context.Background(), plan)
	require.NoError(t, err)
	assert.Equal(t, len(plan), listener.Presented())

	records, err := trial.ReadLog(&buf)
	require.NoError(t, err)
	require.Equal(t, res.Records, records)

	replayed, err := trial.Replay(cfg, records)
	require.NoError(t, err)
	assert.Equal(t, est.History(), replayed.History())
	assert.Equal(t, est.Hypotheses(), replayed.Hypotheses())

	mid, err := replayed.MidpointEstimate()
	require.NoError(t, err)
	assert.InDelta(t, res.Midpoint, mid, 0)
}
