package trial

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-mlp/mlp"
)

// Runner presents one block of trials to a single listener. It is not safe
// for concurrent use; run independent blocks with independent runners and
// estimators.
type Runner struct {
	est       *mlp.Estimator
	presenter Presenter
	cfg       runnerConfig
}

type runnerConfig struct {
	logger      *zap.Logger
	sink        Sink
	participant string
	task        string
	session     string
	initial     float64
	maxStimulus float64
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *runnerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSink sets where completed trials are logged.
func WithSink(s Sink) Option {
	return func(c *runnerConfig) {
		c.sink = s
	}
}

// WithParticipant sets the participant code written to the log.
func WithParticipant(p string) Option {
	return func(c *runnerConfig) {
		c.participant = p
	}
}

// WithTask sets the task name written to the log.
func WithTask(task string) Option {
	return func(c *runnerConfig) {
		c.task = task
	}
}

// WithSession sets the session identifier. By default each runner gets a
// random UUID.
func WithSession(id string) Option {
	return func(c *runnerConfig) {
		if id != "" {
			c.session = id
		}
	}
}

// WithInitialStimulus sets the level of the first trial. The default is the
// estimator's HypMax.
func WithInitialStimulus(x float64) Option {
	return func(c *runnerConfig) {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			c.initial = x
		}
	}
}

// WithMaxStimulus caps proposed stimuli at x. By default only the lower
// bound HypMin is enforced. A cap below HypMin is ignored.
func WithMaxStimulus(x float64) Option {
	return func(c *runnerConfig) {
		if !math.IsNaN(x) {
			c.maxStimulus = x
		}
	}
}

// NewRunner returns a runner driving est with p.
func NewRunner(est *mlp.Estimator, p Presenter, opts ...Option) *Runner {
	cfg := runnerConfig{
		logger:      zap.NewNop(),
		session:     uuid.NewString(),
		initial:     est.Config().HypMax,
		maxStimulus: math.Inf(1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if floor := est.Config().HypMin; cfg.maxStimulus < floor {
		cfg.logger.Warn("stimulus cap below HypMin ignored",
			zap.Float64("max_stimulus", cfg.maxStimulus),
			zap.Float64("hyp_min", floor),
		)
		cfg.maxStimulus = math.Inf(1)
	}

	return &Runner{est: est, presenter: p, cfg: cfg}
}

// Session returns the session identifier written to the log.
func (r *Runner) Session() string {
	return r.cfg.session
}

// Result summarises a finished or interrupted block.
type Result struct {
	Records    []Record
	Underflows int
	Midpoint   float64
	FalseAlarm float64
	Summary    string
}

// Run presents every trial of plan in order. Catch trials are forced to the
// estimator's HypMin; adaptive trials use the previous proposal clamped to
// [HypMin, max stimulus]. The context is checked before each trial and is
// passed to the presenter.
//
// On error the returned Result holds the trials completed so far.
func (r *Runner) Run(ctx context.Context, plan []Kind) (Result, error) {
	cfg := r.est.Config()
	log := r.cfg.logger.With(
		zap.String("participant", r.cfg.participant),
		zap.String("task", r.cfg.task),
		zap.String("session", r.cfg.session),
	)

	adaptive, catch := Count(plan)
	log.Info("block started",
		zap.Int("adaptive_trials", adaptive),
		zap.Int("catch_trials", catch),
		zap.Float64("target_p", r.est.CalculateTarget()),
	)

	var res Result
	stim := r.cfg.initial

	for i, kind := range plan {
		if err := ctx.Err(); err != nil {
			return r.finish(res), err
		}

		stim = max(stim, cfg.HypMin)
		stim = min(stim, r.cfg.maxStimulus)
		if kind == KindCatch {
			stim = cfg.HypMin
		}

		resp, err := r.presenter.Present(ctx, stim)
		if err != nil {
			return r.finish(res), fmt.Errorf("trial %d: present stimulus: %w", i+1, err)
		}

		if resp.Detected && (kind == KindCatch || stim <= cfg.HypMin) {
			log.Warn("change reported on catch trial", zap.Int("trial", i+1), zap.Float64("stimulus", stim))
		}
		if !resp.Detected && stim >= cfg.HypMax {
			log.Warn("no change reported at maximum level", zap.Int("trial", i+1), zap.Float64("stimulus", stim))
		}

		if err := r.est.Update(stim, resp.Detected); err != nil {
			if !errors.Is(err, mlp.ErrWeightsUnderflow) {
				return r.finish(res), fmt.Errorf("trial %d: update: %w", i+1, err)
			}
			res.Underflows++
			log.Warn("observation impossible under every hypothesis, weights kept", zap.Int("trial", i+1))
		}

		rec := Record{
			Participant: r.cfg.participant,
			Task:        r.cfg.task,
			Session:     r.cfg.session,
			Trial:       i + 1,
			Kind:        kind,
			Stimulus:    stim,
			Response:    resp.Detected,
			Count:       max(resp.Presentations, 1),
		}
		res.Records = append(res.Records, rec)

		if r.cfg.sink != nil {
			if err := r.cfg.sink.Log(rec); err != nil {
				return r.finish(res), fmt.Errorf("trial %d: log: %w", i+1, err)
			}
		}

		log.Debug("trial",
			zap.Int("trial", rec.Trial),
			zap.String("kind", string(kind)),
			zap.Float64("stimulus", stim),
			zap.Bool("response", rec.Response),
			zap.Int("count", rec.Count),
		)

		if i == len(plan)-1 {
			break
		}
		if stim, err = r.est.NextStimulus(); err != nil {
			return r.finish(res), fmt.Errorf("trial %d: next stimulus: %w", i+1, err)
		}
	}

	res = r.finish(res)
	log.Info("block finished",
		zap.Int("trials", len(res.Records)),
		zap.Float64("midpoint", res.Midpoint),
		zap.Float64("false_alarm", res.FalseAlarm),
		zap.Float64("trend", r.est.RecentStimulusTrend(mlp.DefaultTrendWindow)),
	)
	return res, nil
}

func (r *Runner) finish(res Result) Result {
	res.Midpoint, _ = r.est.MidpointEstimate()
	res.FalseAlarm, _ = r.est.FalseAlarmEstimate()
	res.Summary = r.est.Summary()
	return res
}
