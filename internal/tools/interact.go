package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/logging"
)

// registerInteract adds element interaction, script, cookie and wait tools.
func (s *set) registerInteract() {
	s.registry.Register(TierBasic, &funcTool{
		name:        "click",
		description: "Click an element.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			s.remember("click", args)
			logging.Infof("Click element with locator: %s, by: %s", args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			if err := s.session.Click(args.By, args.Locator); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error clicking element: %v", err), nil
			}
			return fmt.Sprintf("Clicked element: %s", args.Locator), nil
		},
	})

	s.registry.Register(TierBasic, &funcTool{
		name:        "type_text",
		description: "Type text into an element. Optional: clear text before, press ENTER after.",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression"},
				"text": {"type": "string", "description": "Text to type"},
				"clear": {"type": "boolean", "description": "Clear the field first (default: true)"},
				"press_enter": {"type": "boolean", "description": "Press ENTER after typing (default: false)"},
				"is_password": {"type": "boolean", "description": "Mask the text in logs (default: false)"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"}
			},
			"required": ["locator", "text"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Locator    string `json:"locator"`
				Text       string `json:"text"`
				Clear      *bool  `json:"clear"`
				PressEnter bool   `json:"press_enter"`
				IsPassword bool   `json:"is_password"`
				By         string `json:"by"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			clear := args.Clear == nil || *args.Clear
			s.remember("type_text", args)
			logged := args.Text
			if args.IsPassword {
				logged = "****"
			}
			logging.Infof("Type text '%s' in element with locator: %s, by: %s. Clear: %t, Press ENTER: %t",
				logged, args.Locator, args.By, clear, args.PressEnter)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			if err := s.session.TypeText(args.By, args.Locator, args.Text, clear, args.PressEnter); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error typing text: %v", err), nil
			}
			return fmt.Sprintf("Typed '%s' into %s", args.Text, args.Locator), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "clear_text",
		description: "Clear text from an element.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			s.remember("clear_text", args)
			logging.Infof("Clear text in element with locator: %s, by: %s", args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			if err := s.session.ClearText(args.By, args.Locator); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error clearing text: %v", err), nil
			}
			return fmt.Sprintf("Cleared text from %s", args.Locator), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "submit_form",
		description: "Submit a form.",
		schema: `{
			"type": "object",
			"properties": {
				"form_locator": {"type": "string", "description": "Form locator expression"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"}
			},
			"required": ["form_locator"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				FormLocator string `json:"form_locator"`
				By          string `json:"by"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			s.remember("submit_form", args)
			logging.Infof("Submit form with form locator: %s, by: %s", args.FormLocator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			if err := s.session.SubmitForm(args.By, args.FormLocator); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for form %s", args.FormLocator), nil
				}
				return fmt.Sprintf("Error submitting form: %v", err), nil
			}
			return "Form submitted", nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "execute_script",
		description: "Execute JavaScript in the browser.",
		schema: `{
			"type": "object",
			"properties": {
				"script": {"type": "string", "description": "JavaScript expression or function to evaluate"}
			},
			"required": ["script"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args struct {
				Script string `json:"script"`
			}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			s.remember("execute_script", args)
			logging.Infof("Execute script: %s", args.Script)
			result, err := s.session.ExecuteScript(args.Script)
			if err != nil {
				return fmt.Sprintf("Error executing script: %v", err), nil
			}
			return renderScriptResult(result), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_cookies",
		description: "Get all browser cookies.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			cookies, err := s.session.Cookies()
			if err != nil {
				return fmt.Sprintf("Error getting cookies: %v", err), nil
			}
			data, err := json.Marshal(cookies)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "set_cookie",
		description: "Set a browser cookie.",
		schema: `{
			"type": "object",
			"properties": {
				"name": {"type": "string", "description": "Cookie name"},
				"value": {"type": "string", "description": "Cookie value"},
				"url": {"type": "string", "description": "URL scoping the cookie (default: current page)"},
				"domain": {"type": "string", "description": "Cookie domain"},
				"path": {"type": "string", "description": "Cookie path"},
				"expires": {"type": "number", "description": "Expiry as unix time in seconds"},
				"http_only": {"type": "boolean", "description": "HttpOnly flag"},
				"secure": {"type": "boolean", "description": "Secure flag"},
				"same_site": {"type": "string", "description": "SameSite policy: Strict, Lax or None"}
			},
			"required": ["name", "value"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Name     string  `json:"name"`
				Value    string  `json:"value"`
				URL      string  `json:"url"`
				Domain   string  `json:"domain"`
				Path     string  `json:"path"`
				Expires  float64 `json:"expires"`
				HTTPOnly bool    `json:"http_only"`
				Secure   bool    `json:"secure"`
				SameSite string  `json:"same_site"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			s.remember("set_cookie", args)
			logging.Infof("Set cookie '%s'", args.Name)
			err := s.session.SetCookie(browser.Cookie{
				Name:     args.Name,
				Value:    args.Value,
				URL:      args.URL,
				Domain:   args.Domain,
				Path:     args.Path,
				Expires:  args.Expires,
				HTTPOnly: args.HTTPOnly,
				Secure:   args.Secure,
				SameSite: args.SameSite,
			})
			if err != nil {
				return fmt.Sprintf("Error setting cookie: %v", err), nil
			}
			return fmt.Sprintf("Cookie '%s' set successfully", args.Name), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "delete_cookies",
		description: "Delete all cookies.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			s.remember("delete_cookies", nil)
			logging.Info("Delete all cookies")
			if err := s.session.DeleteCookies(); err != nil {
				return fmt.Sprintf("Error deleting cookies: %v", err), nil
			}
			return "All cookies deleted", nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "wait_for_element",
		description: "Wait for an element to be present, if timeout -1 use timeout set.",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"},
				"timeout": {"type": "number", "description": "Seconds to wait; non-positive uses the session default"}
			},
			"required": ["locator"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Locator string  `json:"locator"`
				By      string  `json:"by"`
				Timeout float64 `json:"timeout"`
			}{Timeout: -1}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			s.remember("wait_for_element", args)
			logging.Infof("Wait for element with locator: %s, by: %s (timeout: %g seconds)",
				args.Locator, args.By, args.Timeout)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			if err := s.session.WaitForElement(args.By, args.Locator, args.Timeout); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return "false", nil
				}
				return fmt.Sprintf("Error waiting for element: %v", err), nil
			}
			return "true", nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "wait_for_text",
		description: "Wait for text to be present on the page, if timeout -1 use timeout set.",
		schema: `{
			"type": "object",
			"properties": {
				"text": {"type": "string", "description": "Text to wait for"},
				"timeout": {"type": "number", "description": "Seconds to wait; non-positive uses the session default"}
			},
			"required": ["text"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Text    string  `json:"text"`
				Timeout float64 `json:"timeout"`
			}{Timeout: -1}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			s.remember("wait_for_text", args)
			logging.Infof("Wait for text '%s' (timeout: %g seconds)", args.Text, args.Timeout)
			if err := s.session.WaitForText(args.Text, args.Timeout); err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return "false", nil
				}
				return fmt.Sprintf("Error waiting for text: %v", err), nil
			}
			return "true", nil
		},
	})
}

// renderScriptResult keeps script output model-friendly: structured values
// as JSON, strings verbatim, nothing at all as a confirmation.
func renderScriptResult(result any) string {
	switch v := result.(type) {
	case nil:
		return "Script executed successfully"
	case string:
		return v
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		return string(data)
	default:
		return fmt.Sprint(v)
	}
}
