package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/recorder"
)

func newTestSet(t *testing.T) (*Registry, *browser.Session, *recorder.Recorder) {
	t.Helper()
	session := browser.New(browser.Options{Kind: "chromium"})
	rec := recorder.New(t.TempDir(), nil)
	reg := NewSet(Deps{
		Session:        session,
		Recorder:       rec,
		ScreenshotsDir: t.TempDir(),
	})
	return reg, session, rec
}

func exec(t *testing.T, reg *Registry, name, args string) *ToolResult {
	t.Helper()
	return reg.Execute(context.Background(), name, json.RawMessage(args))
}

func TestBasicTierListing(t *testing.T) {
	reg, _, _ := newTestSet(t)

	var names []string
	for _, tool := range reg.Active() {
		names = append(names, tool.Name())
	}
	assert.Equal(t, []string{
		"go_to", "back", "get_current_url", "enable_advanced_tools",
		"click", "type_text",
		"get_page_summary", "take_screenshot_as_base64",
	}, names)
}

func TestAdvancedTierHiddenUntilEnabled(t *testing.T) {
	reg, _, _ := newTestSet(t)

	res := exec(t, reg, "get_recording", "")
	assert.True(t, res.IsError)
	assert.Equal(t, "Unknown tool: get_recording", res.Content)

	res = exec(t, reg, "enable_advanced_tools", "")
	require.False(t, res.IsError)
	assert.Equal(t, "Advanced tools enabled", res.Content)

	res = exec(t, reg, "get_recording", "")
	require.False(t, res.IsError)
	assert.Equal(t, "Recording: []", res.Content)
}

func TestEnableAdvancedIsIdempotent(t *testing.T) {
	reg, _, _ := newTestSet(t)

	var notified int
	reg.OnEnableAdvanced(func() { notified++ })

	assert.Equal(t, "Advanced tools enabled", exec(t, reg, "enable_advanced_tools", "").Content)
	assert.Equal(t, "Advanced tools already enabled", exec(t, reg, "enable_advanced_tools", "").Content)
	assert.Equal(t, 1, notified)
}

func TestAdvancedListingGrows(t *testing.T) {
	reg, _, _ := newTestSet(t)

	basic := len(reg.Active())
	reg.EnableAdvanced()
	all := len(reg.Active())
	assert.Greater(t, all, basic)

	var seen []string
	for _, tool := range reg.Active() {
		seen = append(seen, tool.Name())
	}
	for _, want := range []string{
		"forward", "refresh", "get_title", "start_browser", "quit_browser",
		"set_timeout", "change_browser", "clear_text", "get_html",
		"get_element_text", "get_element_attribute", "get_element_xpath",
		"get_element_html", "get_visible_text", "get_visible_text_xpath",
		"find_elements", "count_elements", "element_exists",
		"take_screenshot", "execute_script",
		"get_cookies", "set_cookie", "delete_cookies",
		"submit_form", "wait_for_element", "wait_for_text",
		"get_last_action", "get_recording", "record_last_action",
		"save_recording", "load_recording", "reset_recording", "play_recording",
	} {
		assert.Contains(t, seen, want)
	}
}

func TestKnownCoversInactiveTiers(t *testing.T) {
	reg, _, _ := newTestSet(t)
	assert.True(t, reg.Known("save_recording"))
	assert.True(t, reg.Known("go_to"))
	assert.False(t, reg.Known("launch_missiles"))
}

func TestSchemasAreCleanJSON(t *testing.T) {
	reg, _, _ := newTestSet(t)
	reg.EnableAdvanced()

	for _, tool := range reg.Active() {
		var schema map[string]any
		require.NoError(t, json.Unmarshal(tool.Schema(), &schema), tool.Name())
		assert.Equal(t, "object", schema["type"], tool.Name())
		assert.NotContains(t, string(tool.Schema()), `"title"`, tool.Name())
		assert.NotEmpty(t, tool.Description(), tool.Name())
	}
}

func TestClickRejectsInvalidStrategy(t *testing.T) {
	reg, _, rec := newTestSet(t)

	res := exec(t, reg, "click", `{"locator": "#go", "by": "telepathy"}`)
	require.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Content, "Invalid by: telepathy. Must be one of: "))
	assert.Contains(t, res.Content, "partial link text")

	// The attempt is still remembered, matching replay of intent.
	last, ok := rec.Last()
	require.True(t, ok)
	assert.Equal(t, "click", last.Name)
	assert.Equal(t, "#go", last.Args["locator"])
}

func TestChangeBrowserValidation(t *testing.T) {
	reg, session, _ := newTestSet(t)
	reg.EnableAdvanced()

	res := exec(t, reg, "change_browser", `{"browser": "netscape"}`)
	assert.True(t, strings.HasPrefix(res.Content, "Invalid browser: netscape. Must be one of: "))
	assert.Equal(t, "chromium", session.Kind())

	res = exec(t, reg, "change_browser", `{"browser": "firefox"}`)
	assert.Equal(t, "Browser set to firefox", res.Content)
	assert.Equal(t, "firefox", session.Kind())
}

func TestSetTimeoutAppliesToSession(t *testing.T) {
	reg, session, _ := newTestSet(t)
	reg.EnableAdvanced()

	res := exec(t, reg, "set_timeout", `{"seconds": 5}`)
	assert.Equal(t, "Default timeout set to 5 seconds", res.Content)
	assert.Equal(t, 5*time.Second, session.Timeout())
}

func TestQuitBrowserWhenStopped(t *testing.T) {
	reg, _, _ := newTestSet(t)
	reg.EnableAdvanced()
	assert.Equal(t, "No browser running", exec(t, reg, "quit_browser", "").Content)
}

func TestLookupToolsRejectInvalidStrategyQuietly(t *testing.T) {
	reg, _, _ := newTestSet(t)
	reg.EnableAdvanced()

	assert.Equal(t, "-1", exec(t, reg, "count_elements", `{"locator": "a", "by": "nope"}`).Content)
	assert.Equal(t, "false", exec(t, reg, "element_exists", `{"locator": "a", "by": "nope"}`).Content)

	res := exec(t, reg, "find_elements", `{"locator": "a", "by": "nope"}`)
	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.Content), &entries))
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0]["error"], "Invalid by: nope")
}

func TestExistsAnswerDistinguishesAbsenceFromFailure(t *testing.T) {
	assert.Equal(t, "true", existsAnswer(nil))
	assert.Equal(t, "false", existsAnswer(browser.ErrNotFound))
	// Driver failures also read as false, but are not plain absence.
	assert.Equal(t, "false", existsAnswer(errors.New("page crashed")))
	assert.NotErrorIs(t, browser.ErrNotFound, browser.ErrTimeout)
}

func TestRecordingToolsRoundTrip(t *testing.T) {
	reg, _, _ := newTestSet(t)
	reg.EnableAdvanced()

	assert.Equal(t, "Last action: none", exec(t, reg, "get_last_action", "").Content)
	assert.Equal(t, "Last action does not exist", exec(t, reg, "record_last_action", "").Content)

	// An invalid strategy still remembers the intent, so recording works
	// without a live browser.
	exec(t, reg, "click", `{"locator": "#one", "by": "telepathy"}`)
	res := exec(t, reg, "record_last_action", "")
	assert.True(t, strings.HasPrefix(res.Content, "Action recorded: "))
	assert.Contains(t, res.Content, `"click"`)

	res = exec(t, reg, "get_recording", "")
	assert.Contains(t, res.Content, `"#one"`)

	res = exec(t, reg, "save_recording", `{"reset_recording": true}`)
	assert.Contains(t, res.Content, "Recording (1 actions) saved to ")
	assert.Equal(t, "Recording: []", exec(t, reg, "get_recording", "").Content)

	assert.Equal(t, "Recording has been reset", exec(t, reg, "reset_recording", "").Content)
}

func TestLoadRecordingRejectsUnknownOperation(t *testing.T) {
	reg, _, _ := newTestSet(t)
	reg.EnableAdvanced()

	// Recorder validation is wired to the registry's full name set.
	res := exec(t, reg, "load_recording", `{"filename": "missing.txt"}`)
	assert.True(t, strings.HasPrefix(res.Content, "Error loading recording: "))
}

func TestTypeTextMasksPasswordInRememberedArgsOnly(t *testing.T) {
	reg, _, rec := newTestSet(t)

	exec(t, reg, "type_text", `{"locator": "#pw", "text": "hunter2", "is_password": true, "by": "telepathy"}`)
	last, ok := rec.Last()
	require.True(t, ok)
	// Replay needs the real text; only the log line is masked.
	assert.Equal(t, "hunter2", last.Args["text"])
}
