package trial

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Response is what a presenter collected for one stimulus.
type Response struct {
	// Detected is true when the listener reported a change.
	Detected bool
	// Presentations counts how often the stimulus was played, replays
	// included. Zero is read as one.
	Presentations int
}

// Presenter presents a stimulus and blocks until a valid response exists.
// Retry and replay policy belong to the presenter, never to the estimator.
type Presenter interface {
	Present(ctx context.Context, stimulus float64) (Response, error)
}

// PresenterFunc adapts a function to Presenter.
type PresenterFunc func(ctx context.Context, stimulus float64) (Response, error)

// Present calls f.
func (f PresenterFunc) Present(ctx context.Context, stimulus float64) (Response, error) {
	return f(ctx, stimulus)
}

// Player renders a stimulus to the listener before a response is requested.
type Player interface {
	Play(ctx context.Context, stimulus float64) error
}

// PlayerFunc adapts a function to Player.
type PlayerFunc func(ctx context.Context, stimulus float64) error

// Play calls f.
func (f PlayerFunc) Play(ctx context.Context, stimulus float64) error {
	return f(ctx, stimulus)
}

// ErrNoResponse is returned when the response stream ends before a valid
// answer was read.
var ErrNoResponse = errors.New("response input closed")

// Console collects responses typed on a line-oriented stream: "1" for a
// change heard, "0" for none and "r" to replay the stimulus.
type Console struct {
	in     *bufio.Scanner
	out    io.Writer
	player Player
}

// NewConsole returns a console presenter reading from in and prompting on
// out. player may be nil when the stimulus is rendered elsewhere.
func NewConsole(in io.Reader, out io.Writer, player Player) *Console {
	return &Console{
		in:     bufio.NewScanner(in),
		out:    out,
		player: player,
	}
}

// Present plays the stimulus, then reads lines until a valid answer arrives.
func (c *Console) Present(ctx context.Context, stimulus float64) (Response, error) {
	count := 0
	for {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}

		count++
		if c.player != nil {
			if err := c.player.Play(ctx, stimulus); err != nil {
				return Response{}, fmt.Errorf("play stimulus %g: %w", stimulus, err)
			}
		}

		answer, replay, err := c.readAnswer(ctx, stimulus)
		if err != nil {
			return Response{}, err
		}
		if !replay {
			return Response{Detected: answer, Presentations: count}, nil
		}
	}
}

func (c *Console) readAnswer(ctx context.Context, stimulus float64) (answer, replay bool, err error) {
	for {
		if err := ctx.Err(); err != nil {
			return false, false, err
		}

		fmt.Fprintf(c.out, "Stimulus level %.3f: change heard? [1=yes 0=no r=replay] ", stimulus)
		if !c.in.Scan() {
			if err := c.in.Err(); err != nil {
				return false, false, err
			}
			return false, false, ErrNoResponse
		}

		switch strings.ToLower(strings.TrimSpace(c.in.Text())) {
		case "1":
			return true, false, nil
		case "0":
			return false, false, nil
		case "r":
			return false, true, nil
		default:
			fmt.Fprintln(c.out, "Answer not understood, enter it again.")
		}
	}
}
