package tools

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/recorder"
)

// Deps are the collaborators every tool handler closes over.
type Deps struct {
	Session        *browser.Session
	Recorder       *recorder.Recorder
	ScreenshotsDir string
}

// set wires handlers to their collaborators. All tools of one server share
// one set.
type set struct {
	session        *browser.Session
	rec            *recorder.Recorder
	registry       *Registry
	screenshotsDir string
}

// NewSet builds the full registry: basic tier always visible, advanced tier
// behind enable_advanced_tools.
func NewSet(deps Deps) *Registry {
	s := &set{
		session:        deps.Session,
		rec:            deps.Recorder,
		registry:       NewRegistry(),
		screenshotsDir: deps.ScreenshotsDir,
	}
	s.registerBrowse()
	s.registerInteract()
	s.registerInspect()
	s.registerRecord()
	if s.rec != nil {
		s.rec.SetKnown(s.registry.Known)
	}
	return s.registry
}

// remember stores the operation with its effective arguments so an exact
// replay is possible. args must be the parsed argument struct, defaults
// already applied.
func (s *set) remember(name string, args any) {
	if s.rec == nil {
		return
	}
	m := map[string]any{}
	if args != nil {
		data, err := json.Marshal(args)
		if err != nil {
			return
		}
		if err := json.Unmarshal(data, &m); err != nil {
			return
		}
	}
	s.rec.Remember(name, m)
}

func byOptions() string {
	return strings.Join(browser.Strategies, ", ")
}

// invalidBy returns the user-facing rejection for an unsupported strategy.
func invalidBy(by string) (string, bool) {
	if browser.ValidStrategy(by) {
		return "", false
	}
	return fmt.Sprintf("Invalid by: %s. Must be one of: %s", by, byOptions()), true
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// locatorArgs is the common (locator, by) argument pair.
type locatorArgs struct {
	Locator string `json:"locator"`
	By      string `json:"by"`
}

func (a *locatorArgs) defaults() {
	if a.By == "" {
		a.By = "css selector"
	}
}

// locatorSchema builds the schema for tools taking only a locator pair.
const locatorSchema = `{
	"type": "object",
	"properties": {
		"locator": {"type": "string", "description": "Element locator expression"},
		"by": {"type": "string", "description": "Locator strategy (default: css selector)"}
	},
	"required": ["locator"]
}`

const emptySchema = `{"type": "object", "properties": {}}`
