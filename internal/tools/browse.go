package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/logging"
)

// registerBrowse adds navigation and browser lifecycle tools.
func (s *set) registerBrowse() {
	s.registry.Register(TierBasic, &funcTool{
		name:        "go_to",
		description: "Navigate to URL.",
		schema: `{
			"type": "object",
			"properties": {
				"url": {"type": "string", "description": "URL to navigate to"}
			},
			"required": ["url"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				URL string `json:"url"`
			}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			s.remember("go_to", args)
			logging.Infof("Go to url '%s'", args.URL)
			final, err := s.session.Navigate(args.URL)
			if err != nil {
				return fmt.Sprintf("Error navigating to %s: %v", args.URL, err), nil
			}
			return fmt.Sprintf("Navigated to %s", final), nil
		},
	})

	s.registry.Register(TierBasic, &funcTool{
		name:        "back",
		description: "Navigate back in browser history.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			s.remember("back", nil)
			logging.Info("Go back")
			if err := s.session.Back(); err != nil {
				return fmt.Sprintf("Error navigating back: %v", err), nil
			}
			url, _ := s.session.CurrentURL()
			return fmt.Sprintf("Navigated back to %s", url), nil
		},
	})

	s.registry.Register(TierBasic, &funcTool{
		name:        "get_current_url",
		description: "Return current URL.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			url, err := s.session.CurrentURL()
			if err != nil {
				return fmt.Sprintf("Error getting current url: %v", err), nil
			}
			return url, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "forward",
		description: "Navigate forward in browser history.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			s.remember("forward", nil)
			logging.Info("Go forward")
			if err := s.session.Forward(); err != nil {
				return fmt.Sprintf("Error navigating forward: %v", err), nil
			}
			url, _ := s.session.CurrentURL()
			return fmt.Sprintf("Navigated forward to %s", url), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "refresh",
		description: "Refresh the current page.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			logging.Info("Refresh page")
			if err := s.session.Refresh(); err != nil {
				return fmt.Sprintf("Error refreshing page: %v", err), nil
			}
			url, _ := s.session.CurrentURL()
			return fmt.Sprintf("Page refreshed to %s", url), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_title",
		description: "Return page title.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			title, err := s.session.Title()
			if err != nil {
				return fmt.Sprintf("Error getting title: %v", err), nil
			}
			return title, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "start_browser",
		description: "Start the browser if not already running.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			if s.session.Running() {
				return fmt.Sprintf("%s browser already running", capitalize(s.session.Kind())), nil
			}
			if err := s.session.Start(); err != nil {
				return fmt.Sprintf("Error starting browser: %v", err), nil
			}
			return fmt.Sprintf("Started %s browser", s.session.Kind()), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "quit_browser",
		description: "Quit the browser if running.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			kind := s.session.Kind()
			if err := s.session.Quit(); err != nil {
				if errors.Is(err, browser.ErrNotRunning) {
					return "No browser running", nil
				}
				return fmt.Sprintf("Error quitting browser: %v", err), nil
			}
			return fmt.Sprintf("%s browser closed successfully", capitalize(kind)), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "set_timeout",
		description: "Set the default timeout for wait operations.",
		schema: `{
			"type": "object",
			"properties": {
				"seconds": {"type": "integer", "description": "Timeout in seconds"}
			},
			"required": ["seconds"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Seconds int `json:"seconds"`
			}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			s.remember("set_timeout", args)
			s.session.SetTimeout(time.Duration(args.Seconds) * time.Second)
			return fmt.Sprintf("Default timeout set to %d seconds", args.Seconds), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "change_browser",
		description: "Quit the browser if running and change the browser used.",
		schema: `{
			"type": "object",
			"properties": {
				"browser": {"type": "string", "description": "Browser kind: chromium, firefox, webkit, chrome or msedge"}
			},
			"required": ["browser"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Browser string `json:"browser"`
			}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if !browser.ValidKind(args.Browser) {
				return fmt.Sprintf("Invalid browser: %s. Must be one of: %s",
					args.Browser, strings.Join(browser.Kinds, ", ")), nil
			}
			if err := s.session.ChangeKind(args.Browser); err != nil {
				return fmt.Sprintf("Error changing browser: %v", err), nil
			}
			return fmt.Sprintf("Browser set to %s", args.Browser), nil
		},
	})

	s.registry.Register(TierBasic, &funcTool{
		name:        "enable_advanced_tools",
		description: "Enable advanced tools. Call if main tools are not sufficient.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			if !s.registry.EnableAdvanced() {
				return "Advanced tools already enabled", nil
			}
			return "Advanced tools enabled", nil
		},
	})
}
