// Package recorder captures the most recent mutating browser action,
// accumulates explicitly recorded actions into an ordered sequence, persists
// the sequence as human-readable JSON, and replays it through a dispatch
// function resolved by operation name.
package recorder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrNoLastAction is returned by Record when nothing has been remembered yet.
var ErrNoLastAction = errors.New("last action does not exist")

// Action is one recorded operation invocation. It serializes as a two-element
// JSON array, [name, arguments], so recording files stay diffable by hand.
type Action struct {
	Name string
	Args map[string]any
}

// MarshalJSON encodes the action as a [name, arguments] pair.
func (a Action) MarshalJSON() ([]byte, error) {
	args := a.Args
	if args == nil {
		args = map[string]any{}
	}
	return json.Marshal([2]any{a.Name, args})
}

// UnmarshalJSON decodes a [name, arguments] pair.
func (a *Action) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if err := json.Unmarshal(pair[0], &a.Name); err != nil {
		return fmt.Errorf("action name: %w", err)
	}
	if len(pair[1]) == 0 {
		a.Args = map[string]any{}
		return nil
	}
	if err := json.Unmarshal(pair[1], &a.Args); err != nil {
		return fmt.Errorf("action arguments: %w", err)
	}
	return nil
}

// StepError reports a replay failure at a specific step. Earlier steps'
// effects stay in place; there is no rollback.
type StepError struct {
	Step int // 1-based
	Name string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("replay step %d (%s): %v", e.Step, e.Name, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Recorder holds the last remembered action and the recorded sequence.
// known validates operation names so that unknown actions are rejected when
// a recording is loaded, not when it is replayed.
type Recorder struct {
	dir      string
	known    func(name string) bool
	last     *Action
	sequence []Action
}

// New creates a recorder persisting under dir. known may be nil, in which
// case any operation name is accepted at load time.
func New(dir string, known func(name string) bool) *Recorder {
	return &Recorder{dir: dir, known: known}
}

// SetKnown replaces the operation name validator. The tool registry wires
// itself in here once all operations are registered.
func (r *Recorder) SetKnown(known func(name string) bool) {
	r.known = known
}

// Remember stores the most recent mutating action, replacing any previous
// one. Called by interaction primitives just before they mutate.
func (r *Recorder) Remember(name string, args map[string]any) {
	r.last = &Action{Name: name, Args: args}
}

// Last returns the last remembered action, if any.
func (r *Recorder) Last() (Action, bool) {
	if r.last == nil {
		return Action{}, false
	}
	return *r.last, true
}

// Sequence returns a copy of the recorded sequence.
func (r *Recorder) Sequence() []Action {
	out := make([]Action, len(r.sequence))
	copy(out, r.sequence)
	return out
}

// Record appends the last remembered action to the sequence.
func (r *Recorder) Record() (Action, error) {
	if r.last == nil {
		return Action{}, ErrNoLastAction
	}
	r.sequence = append(r.sequence, *r.last)
	return *r.last, nil
}

// Reset clears both the last remembered action and the sequence.
func (r *Recorder) Reset() {
	r.last = nil
	r.sequence = nil
}

// Save writes the sequence to a timestamped JSON file under the recordings
// directory. When reset is true the last action and the sequence are cleared
// together after a successful write.
func (r *Recorder) Save(reset bool) (path string, count int, err error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", 0, err
	}
	seq := r.sequence
	if seq == nil {
		seq = []Action{}
	}
	data, err := json.MarshalIndent(seq, "", "  ")
	if err != nil {
		return "", 0, err
	}
	path = filepath.Join(r.dir, timestampedName("recording", "txt"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", 0, err
	}
	count = len(r.sequence)
	if reset {
		r.Reset()
	}
	return path, count, nil
}

// Load replaces the in-memory sequence wholesale with the file contents.
// Unknown operation names fail here so a bad recording cannot get halfway
// through a replay.
func (r *Recorder) Load(name string) (path string, count int, err error) {
	path = filepath.Join(r.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return path, 0, err
	}
	var seq []Action
	if err := json.Unmarshal(data, &seq); err != nil {
		return path, 0, err
	}
	if r.known != nil {
		for i, action := range seq {
			if !r.known(action.Name) {
				return path, 0, fmt.Errorf("recording step %d: unknown operation %q", i+1, action.Name)
			}
		}
	}
	r.sequence = seq
	return path, len(seq), nil
}

// Play re-invokes every recorded action in original order, sleeping delay
// after each executed step when positive. The first failing step aborts the
// replay.
func (r *Recorder) Play(ctx context.Context, delay time.Duration, invoke func(ctx context.Context, name string, args map[string]any) error) error {
	for i, action := range r.sequence {
		if err := invoke(ctx, action.Name, action.Args); err != nil {
			return &StepError{Step: i + 1, Name: action.Name, Err: err}
		}
		if delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}
	return nil
}

func timestampedName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s.%s", prefix, time.Now().Format("20060102_150405"), ext)
}
