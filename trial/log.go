package trial

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"

	"github.com/cwbudde/algo-mlp/mlp"
)

// Record is one row of the trial log.
type Record struct {
	Participant string
	Task        string
	Session     string
	Trial       int // 1-based position in the block
	Kind        Kind
	Stimulus    float64
	Response    bool
	Count       int // presentations, replays included
}

// Sink receives every completed trial.
type Sink interface {
	Log(rec Record) error
}

var logHeader = []string{"participant", "task", "session", "trial", "kind", "stimulus", "response", "count"}

// CSVLog writes records as CSV with a header row. Each record is flushed
// immediately so an interrupted block keeps every completed trial.
type CSVLog struct {
	w             *csv.Writer
	headerWritten bool
}

// NewCSVLog returns a CSV sink writing to w.
func NewCSVLog(w io.Writer) *CSVLog {
	return &CSVLog{w: csv.NewWriter(w)}
}

// Log appends rec to the log.
func (l *CSVLog) Log(rec Record) error {
	if !l.headerWritten {
		if err := l.w.Write(logHeader); err != nil {
			return fmt.Errorf("write log header: %w", err)
		}
		l.headerWritten = true
	}

	row := []string{
		rec.Participant,
		rec.Task,
		rec.Session,
		strconv.Itoa(rec.Trial),
		string(rec.Kind),
		strconv.FormatFloat(rec.Stimulus, 'g', -1, 64),
		strconv.FormatBool(rec.Response),
		strconv.Itoa(rec.Count),
	}
	if err := l.w.Write(row); err != nil {
		return fmt.Errorf("write trial %d: %w", rec.Trial, err)
	}

	l.w.Flush()
	return l.w.Error()
}

// LogFileName returns the conventional log file name for a block, e.g.
// "p01-pitch-20240131-142501.csv".
func LogFileName(participant, task string, at time.Time) string {
	return fmt.Sprintf("%s-%s-%s.csv", participant, task, at.Format("20060102-150405"))
}

var errBadHeader = errors.New("unexpected trial log header")

// ReadLog parses a log written by CSVLog.
func ReadLog(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(logHeader)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read log header: %w", err)
	}
	if !slices.Equal(header, logHeader) {
		return nil, fmt.Errorf("%w: %v", errBadHeader, header)
	}

	var out []Record
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read log line %d: %w", line, err)
		}

		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("log line %d: %w", line, err)
		}
		out = append(out, rec)
	}
}

func parseRow(row []string) (Record, error) {
	trial, err := strconv.Atoi(row[3])
	if err != nil {
		return Record{}, fmt.Errorf("trial: %w", err)
	}

	kind := Kind(row[4])
	if kind != KindMLP && kind != KindCatch {
		return Record{}, fmt.Errorf("unknown trial kind %q", row[4])
	}

	stim, err := strconv.ParseFloat(row[5], 64)
	if err != nil {
		return Record{}, fmt.Errorf("stimulus: %w", err)
	}

	resp, err := strconv.ParseBool(row[6])
	if err != nil {
		return Record{}, fmt.Errorf("response: %w", err)
	}

	count, err := strconv.Atoi(row[7])
	if err != nil {
		return Record{}, fmt.Errorf("count: %w", err)
	}

	return Record{
		Participant: row[0],
		Task:        row[1],
		Session:     row[2],
		Trial:       trial,
		Kind:        kind,
		Stimulus:    stim,
		Response:    resp,
		Count:       count,
	}, nil
}

// Replay feeds logged trials into a fresh estimator built from cfg and
// returns it, reproducing the estimates of a finished block offline.
// Underflow warnings are tolerated as they are during a live block.
func Replay(cfg mlp.Config, records []Record, opts ...mlp.Option) (*mlp.Estimator, error) {
	est, err := mlp.New(cfg, opts...)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if err := est.Update(rec.Stimulus, rec.Response); err != nil && !errors.Is(err, mlp.ErrWeightsUnderflow) {
			return nil, fmt.Errorf("replay trial %d: %w", rec.Trial, err)
		}
	}
	return est, nil
}
