package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-mlp/trial"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(zap.NewNop())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestTargetCommand(t *testing.T) {
	out, err := execute(t, "", "target", "--false-alarm-rates", "0,0.2")
	require.NoError(t, err)

	assert.Contains(t, out, "0.000    0.5000")
	assert.Contains(t, out, "0.200    0.6531")
	assert.Contains(t, out, "target   0.5766")
}

func TestTargetRejectsBadConfig(t *testing.T) {
	_, err := execute(t, "", "target", "--slope", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slope must be finite and non-zero")
}

func TestSimulateThenReplay(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "sim.csv")

	out, err := execute(t, "", "simulate", "--seed", "3", "--trials", "30", "--catch", "4", "--log", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "--- MLP estimator ---")
	assert.Contains(t, out, "History: 34 answer(s)")
	threshold := lineWithPrefix(t, out, "Threshold estimate:")

	f, err := os.Open(logPath)
	require.NoError(t, err)
	defer f.Close()
	records, err := trial.ReadLog(f)
	require.NoError(t, err)
	assert.Len(t, records, 34)

	out, err = execute(t, "", "replay", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Replayed trials: 34")
	assert.Equal(t, threshold, lineWithPrefix(t, out, "Threshold estimate:"))
}

func TestReplayMissingFile(t *testing.T) {
	_, err := execute(t, "", "replay", filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
}

func TestRunCommandWritesLog(t *testing.T) {
	dir := t.TempDir()

	// one practice pair, then three adaptive trials
	stdin := "1\n0\n1\nr\n0\n1\n"
	out, err := execute(t, stdin, "run",
		"--participant", "p09", "--task", "pitch",
		"--trials", "3", "--catch", "0", "--practice", "1",
		"--data-dir", dir,
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Practice trials")
	assert.Contains(t, out, "Experiment trials")
	assert.Contains(t, out, "History: 3 answer(s)")

	matches, err := filepath.Glob(filepath.Join(dir, "p09-pitch-*.csv"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	f, err := os.Open(matches[0])
	require.NoError(t, err)
	defer f.Close()
	records, err := trial.ReadLog(f)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "p09", records[0].Participant)
	assert.Equal(t, "pitch", records[0].Task)
	assert.Equal(t, 2, records[1].Count)
	assert.False(t, records[1].Response)
}

func TestRunCommandNeedsParticipant(t *testing.T) {
	_, err := execute(t, "", "run", "--data-dir", t.TempDir())
	require.Error(t, err)
}

func TestRunCommandStopsWhenInputEnds(t *testing.T) {
	_, err := execute(t, "1\n", "run", "--participant", "p01", "--practice", "0", "--trials", "3", "--catch", "0", "--data-dir", t.TempDir())
	require.ErrorIs(t, err, trial.ErrNoResponse)
}

func TestStimulusCommand(t *testing.T) {
	out, err := execute(t, "", "stimulus", "--task", "pitch", "--level", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "samples: 92610")
	assert.Contains(t, out, "frequency: 466.")

	out, err = execute(t, "", "stimulus", "--task", "anisochrony", "--level", "10")
	require.NoError(t, err)
	assert.Contains(t, out, "samples: 66150")
	assert.Contains(t, out, "deviant onset: 1060.0 ms")

	_, err = execute(t, "", "stimulus", "--task", "loudness")
	require.Error(t, err)
}

func lineWithPrefix(t *testing.T, s, prefix string) string {
	t.Helper()
	for _, line := range strings.Split(s, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	t.Fatalf("no line starting with %q in:\n%s", prefix, s)
	return ""
}
