package recorder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func knownOps(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestRecordWithoutRememberFails(t *testing.T) {
	r := New(t.TempDir(), nil)
	_, err := r.Record()
	assert.ErrorIs(t, err, ErrNoLastAction)
}

func TestRememberOverwritesLast(t *testing.T) {
	r := New(t.TempDir(), nil)
	r.Remember("go_to", map[string]any{"url": "a.example"})
	r.Remember("click", map[string]any{"locator": "#x"})

	last, ok := r.Last()
	require.True(t, ok)
	assert.Equal(t, "click", last.Name)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, knownOps("go_to", "click", "type_text"))

	actions := []Action{
		{Name: "go_to", Args: map[string]any{"url": "example.com"}},
		{Name: "type_text", Args: map[string]any{"locator": "#q", "text": "gophers"}},
		{Name: "click", Args: map[string]any{"locator": "#submit"}},
	}
	for _, a := range actions {
		r.Remember(a.Name, a.Args)
		_, err := r.Record()
		require.NoError(t, err)
	}

	path, count, err := r.Save(true)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	// Save with reset clears both the sequence and the last action together.
	assert.Empty(t, r.Sequence())
	_, ok := r.Last()
	assert.False(t, ok)

	_, count, err = r.Load(filepath.Base(path))
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Equal(t, actions, r.Sequence())
}

func TestSaveKeepSequence(t *testing.T) {
	r := New(t.TempDir(), nil)
	r.Remember("click", map[string]any{"locator": "#x"})
	_, err := r.Record()
	require.NoError(t, err)

	_, _, err = r.Save(false)
	require.NoError(t, err)
	assert.Len(t, r.Sequence(), 1)
	_, ok := r.Last()
	assert.True(t, ok)
}

func TestSaveFileFormat(t *testing.T) {
	dir := t.TempDir()
	r := New(dir, nil)
	r.Remember("go_to", map[string]any{"url": "example.com"})
	_, err := r.Record()
	require.NoError(t, err)

	path, _, err := r.Save(true)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	// Human-readable: an indented JSON array of [name, arguments] pairs.
	text := string(data)
	assert.True(t, strings.HasPrefix(text, "["))
	assert.Contains(t, text, "  [\n")
	assert.Contains(t, text, `"go_to"`)
	assert.Contains(t, text, `"url": "example.com"`)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "recording_"))
	assert.True(t, strings.HasSuffix(path, ".txt"))
}

func TestLoadRejectsUnknownOperation(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.txt"),
		[]byte(`[["launch_missiles", {}]]`), 0o644))

	r := New(dir, knownOps("go_to"))
	_, _, err := r.Load("bad.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "launch_missiles")
	assert.Empty(t, r.Sequence(), "a failed load must not replace the sequence")
}

func TestLoadReplacesWholesale(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "one.txt"),
		[]byte(`[["go_to", {"url": "a"}]]`), 0o644))

	r := New(dir, knownOps("go_to", "click"))
	r.Remember("click", map[string]any{"locator": "#x"})
	_, err := r.Record()
	require.NoError(t, err)

	_, count, err := r.Load("one.txt")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, "go_to", r.Sequence()[0].Name)
}

func TestPlayInvokesInOrder(t *testing.T) {
	r := New(t.TempDir(), nil)
	for i := 0; i < 3; i++ {
		r.Remember("click", map[string]any{"locator": fmt.Sprintf("#b%d", i)})
		_, err := r.Record()
		require.NoError(t, err)
	}

	var got []string
	err := r.Play(context.Background(), 0, func(_ context.Context, name string, args map[string]any) error {
		got = append(got, args["locator"].(string))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"#b0", "#b1", "#b2"}, got)
}

func TestPlaySleepsAfterEveryStep(t *testing.T) {
	r := New(t.TempDir(), nil)
	r.Remember("refresh", map[string]any{})
	_, err := r.Record()
	require.NoError(t, err)

	// One action, so the only possible sleep is the one after the last step.
	start := time.Now()
	err = r.Play(context.Background(), 20*time.Millisecond, func(context.Context, string, map[string]any) error {
		return nil
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestPlayAbortsOnStepFailure(t *testing.T) {
	r := New(t.TempDir(), nil)
	for _, name := range []string{"go_to", "click", "type_text"} {
		r.Remember(name, map[string]any{})
		_, err := r.Record()
		require.NoError(t, err)
	}

	boom := errors.New("element went away")
	var calls int
	err := r.Play(context.Background(), 0, func(_ context.Context, name string, _ map[string]any) error {
		calls++
		if name == "click" {
			return boom
		}
		return nil
	})

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, 2, stepErr.Step)
	assert.Equal(t, "click", stepErr.Name)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls, "replay must stop at the failing step")
}
