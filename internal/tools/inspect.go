package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/helmlabs/helmsman/internal/browser"
	"github.com/helmlabs/helmsman/internal/dom"
	"github.com/helmlabs/helmsman/internal/logging"
)

// registerInspect adds page reading tools: summaries, HTML extraction,
// element lookup and screenshots.
func (s *set) registerInspect() {
	s.registry.Register(TierBasic, &funcTool{
		name:        "get_page_summary",
		description: "Get page summary containing all forms, buttons, links and texts.",
		schema: `{
			"type": "object",
			"properties": {
				"skip_elements": {"type": "integer", "description": "Elements to skip for pagination (default: 0)"},
				"max_elements": {"type": "integer", "description": "Maximum elements to return (default: 20)"},
				"filter_type": {"type": "string", "description": "Only include this element type: form, button, link or text"},
				"only_visible_elements": {"type": "boolean", "description": "Drop invisible elements (default: true)"},
				"detailed": {"type": "boolean", "description": "Include xpath, depth, visibility and parent info (default: false)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Skip        int    `json:"skip_elements"`
				Max         int    `json:"max_elements"`
				FilterType  string `json:"filter_type"`
				OnlyVisible *bool  `json:"only_visible_elements"`
				Detailed    bool   `json:"detailed"`
			}{Max: 20}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			onlyVisible := args.OnlyVisible == nil || *args.OnlyVisible
			logging.Infof("Get page summary. Only visible: %t, max elements: %d", onlyVisible, args.Max)
			source, err := s.session.PageSource()
			if err != nil {
				return fmt.Sprintf("Error getting page summary: %v", err), nil
			}
			doc, err := html.Parse(strings.NewReader(source))
			if err != nil {
				return fmt.Sprintf("Error parsing page: %v", err), nil
			}
			summary := dom.Summarize(doc, &browser.Probe{Session: s.session}, dom.SummaryOptions{
				FilterType:  args.FilterType,
				OnlyVisible: onlyVisible,
				Detailed:    args.Detailed,
				Skip:        args.Skip,
				Max:         args.Max,
			})
			data, err := json.Marshal(summary)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_html",
		description: "Get page HTML up to some depth (-1 for infinite depth).",
		schema: `{
			"type": "object",
			"properties": {
				"depth": {"type": "integer", "description": "Tag nesting depth to keep (default: 1, -1 for unlimited)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Depth int `json:"depth"`
			}{Depth: 1}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			return s.elementHTML("html", "css selector", args.Depth, true)
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_element_html",
		description: "Get HTML of an element, up to some depth (-1 for infinite depth).",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression (default: html)"},
				"depth": {"type": "integer", "description": "Tag nesting depth to keep (default: 1, -1 for unlimited)"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"},
				"outer": {"type": "boolean", "description": "Use outer HTML instead of inner (default: true)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Locator string `json:"locator"`
				Depth   int    `json:"depth"`
				By      string `json:"by"`
				Outer   *bool  `json:"outer"`
			}{Locator: "html", Depth: 1}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			outer := args.Outer == nil || *args.Outer
			logging.Infof("Get html with depth %d of element with locator: %s, by: %s", args.Depth, args.Locator, args.By)
			return s.elementHTML(args.Locator, args.By, args.Depth, outer)
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_element_text",
		description: "Get text in an element.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			logging.Infof("Get text in element with locator: %s, by: %s", args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			text, err := s.session.ElementText(args.By, args.Locator)
			if err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error getting text: %v", err), nil
			}
			return text, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_element_attribute",
		description: "Get attribute value from an element.",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression"},
				"attribute": {"type": "string", "description": "Attribute name"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"}
			},
			"required": ["locator", "attribute"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Locator   string `json:"locator"`
				Attribute string `json:"attribute"`
				By        string `json:"by"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			logging.Infof("Get attribute %s in element with locator: %s, by: %s", args.Attribute, args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			value, err := s.session.ElementAttribute(args.By, args.Locator, args.Attribute)
			if err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error getting attribute: %v", err), nil
			}
			return value, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_element_xpath",
		description: "Get parent element tree of an element.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			logging.Infof("Get xpath of element with locator: %s, by: %s", args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			return s.ancestorTree(args.By, args.Locator)
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_visible_text",
		description: "Get visible text in an element.",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression (default: html)"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := locatorArgs{Locator: "html"}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			logging.Infof("Get visible text in element with locator: %s, by: %s", args.Locator, args.By)
			if msg, bad := invalidBy(args.By); bad {
				return msg, nil
			}
			source, err := s.session.ElementHTML(args.By, args.Locator, true)
			if err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return fmt.Sprintf("Timeout waiting for element %s", args.Locator), nil
				}
				return fmt.Sprintf("Error getting visible text: %v", err), nil
			}
			text, err := dom.VisibleText(source)
			if err != nil {
				return fmt.Sprintf("Error getting visible text: %v", err), nil
			}
			return text, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "get_visible_text_xpath",
		description: "Get parent element tree of a visible text.",
		schema: `{
			"type": "object",
			"properties": {
				"visible_text": {"type": "string", "description": "Exact visible text to locate"},
				"partial": {"type": "boolean", "description": "Match text substrings (default: false)"}
			},
			"required": ["visible_text"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				VisibleText string `json:"visible_text"`
				Partial     bool   `json:"partial"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			logging.Infof("Get xpath for visible text '%s'. Partial: %t", args.VisibleText, args.Partial)
			locator := fmt.Sprintf("//*[text()='%s']", args.VisibleText)
			if args.Partial {
				locator = fmt.Sprintf("//*[contains(text(), '%s')]", args.VisibleText)
			}
			return s.ancestorTree("xpath", locator)
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "find_elements",
		description: "Return info on elements matching the locator (up to max_elements, skip first skip_elements).",
		schema: `{
			"type": "object",
			"properties": {
				"locator": {"type": "string", "description": "Element locator expression"},
				"by": {"type": "string", "description": "Locator strategy (default: css selector)"},
				"max_elements": {"type": "integer", "description": "Maximum elements to return (default: 10)"},
				"skip_elements": {"type": "integer", "description": "Elements to skip for pagination (default: 0)"}
			},
			"required": ["locator"]
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Locator string `json:"locator"`
				By      string `json:"by"`
				Max     int    `json:"max_elements"`
				Skip    int    `json:"skip_elements"`
			}{Max: 10}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			if args.By == "" {
				args.By = "css selector"
			}
			logging.Infof("Find elements with locator: %s, by: %s. Max: %d, skip: %d",
				args.Locator, args.By, args.Max, args.Skip)
			if msg, bad := invalidBy(args.By); bad {
				return fmt.Sprintf(`[{"error": %q}]`, msg), nil
			}
			infos, err := s.session.FindElements(args.By, args.Locator, args.Max, args.Skip)
			if err != nil {
				if errors.Is(err, browser.ErrTimeout) {
					return "[]", nil
				}
				return fmt.Sprintf(`[{"error": %q}]`, err.Error()), nil
			}
			entries := make([]map[string]any, 0, len(infos))
			for _, info := range infos {
				text, err := dom.VisibleText(info.Outer)
				if err != nil {
					text = info.Text
				}
				entries = append(entries, map[string]any{
					"index": info.Index,
					"text":  info.Text,
					"html":  text,
					"tag":   info.Tag,
					"id":    info.ID,
					"class": info.Class,
				})
			}
			data, err := json.Marshal(entries)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "count_elements",
		description: "Count elements matching the locator.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			logging.Infof("Count elements with locator: %s, by: %s", args.Locator, args.By)
			if _, bad := invalidBy(args.By); bad {
				return "-1", nil
			}
			count, err := s.session.CountElements(args.By, args.Locator)
			if err != nil {
				return "0", nil
			}
			return fmt.Sprintf("%d", count), nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "element_exists",
		description: "Check if element exists.",
		schema:      locatorSchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			var args locatorArgs
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			args.defaults()
			logging.Infof("Element exists with locator: %s, by: %s", args.Locator, args.By)
			if _, bad := invalidBy(args.By); bad {
				return "false", nil
			}
			return existsAnswer(s.session.Exists(args.By, args.Locator)), nil
		},
	})

	s.registry.Register(TierBasic, &funcTool{
		name:        "take_screenshot_as_base64",
		description: "Take a screenshot of the current page and return as base64.",
		schema: `{
			"type": "object",
			"properties": {
				"compress": {"type": "boolean", "description": "Scale the image down before encoding (default: true)"}
			}
		}`,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			args := struct {
				Compress *bool `json:"compress"`
			}{}
			if err := unmarshalArgs(input, &args); err != nil {
				return "", err
			}
			compress := args.Compress == nil || *args.Compress
			s.remember("take_screenshot_as_base64", args)
			logging.Infof("Take screenshot as base64. Folder: %s", s.screenshotsDir)
			payload, err := s.session.ScreenshotBase64(s.screenshotsDir, compress)
			if err != nil {
				return fmt.Sprintf("Error taking screenshot: %v", err), nil
			}
			return payload, nil
		},
	})

	s.registry.Register(TierAdvanced, &funcTool{
		name:        "take_screenshot",
		description: "Take a screenshot of the current page.",
		schema:      emptySchema,
		run: func(ctx context.Context, input json.RawMessage) (string, error) {
			s.remember("take_screenshot", nil)
			logging.Infof("Take screenshot. Folder: %s", s.screenshotsDir)
			path, err := s.session.SaveScreenshot(s.screenshotsDir)
			if err != nil {
				return fmt.Sprintf("Error taking screenshot: %v", err), nil
			}
			return fmt.Sprintf("Screenshot saved to %s", path), nil
		},
	})
}

// existsAnswer maps the immediate-check outcome to the tool's bool string.
// ErrNotFound is plain absence; any other failure also reads as false.
func existsAnswer(err error) string {
	if err == nil {
		return "true"
	}
	if !errors.Is(err, browser.ErrNotFound) {
		logging.Errorf("Error checking element existence: %v", err)
	}
	return "false"
}

// elementHTML fetches element markup and trims it to the requested depth.
func (s *set) elementHTML(locator, by string, depth int, outer bool) (string, error) {
	if msg, bad := invalidBy(by); bad {
		return msg, nil
	}
	source, err := s.session.ElementHTML(by, locator, outer)
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return fmt.Sprintf("Timeout waiting for element %s", locator), nil
		}
		return fmt.Sprintf("Error getting html: %v", err), nil
	}
	trimmed, err := dom.ExtractHTMLToDepth(source, depth)
	if err != nil {
		return fmt.Sprintf("Error getting html: %v", err), nil
	}
	return trimmed, nil
}

// ancestorTree renders the root-to-element chain as nested single-branch
// HTML, showing exactly where the element sits in the document.
func (s *set) ancestorTree(by, locator string) (string, error) {
	shells, err := s.session.AncestorChain(by, locator)
	if err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return fmt.Sprintf("Timeout waiting for element %s", locator), nil
		}
		return fmt.Sprintf("Error locating element: %v", err), nil
	}
	tree, err := dom.NestChain(shells)
	if err != nil {
		return fmt.Sprintf("Error locating element: %v", err), nil
	}
	return tree, nil
}
