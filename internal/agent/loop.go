package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/helmlabs/helmsman/internal/logging"
)

// ErrIterationLimit aborts a query whose model keeps requesting tool calls.
// The conversation history stays intact and inspectable.
var ErrIterationLimit = errors.New("max iterations reached")

// DefaultInstructions is the system prompt driving the browsing workflow.
const DefaultInstructions = "Your goal is to complete tasks using the tools provided to control a browser. " +
	"You can request multiple functions at once, and they will be executed one after the other. " +
	"Continue calling tools until the task is completed or you are unable to finish it, only then communicate back to the user. " +
	"Your average workflow will be: `go_to` url, `get_page_summary` to understand contents page, `type_text` in element, " +
	"`click` in element, then `get_page_summary`, etc. Use only valid CSS selectors for the `locator` of `click` and `type_text`. " +
	"Examples: click(locator=\"#submit-button\") or type_text(locator=\"input[name='email']\", text=\"user@example.com\"). " +
	"You can also see the page with take_screenshot_as_base64, but always try get_page_summary first. " +
	"If get_page_summary does not return all elements in the page, use skip_elements to see the next elements. " +
	"Example: get_page_summary(skip_elements=20). " +
	"Or use filter_type to see only buttons, forms, links, or texts. " +
	"Example: get_page_summary(filter_type=\"button\"). " +
	"If a request to download is received, it probably means to download a file using the browser. " +
	"If you are asked a request that you don't know how to complete, searching in Google or Bing is a good start. " +
	"If you can't interact with an element, maybe there is something preventing you. Look at the summary and try to solve it before."

// Options tunes a Loop.
type Options struct {
	// MaxIterations bounds model rounds per query. Zero means the
	// default of 10.
	MaxIterations int

	// Instructions overrides the system prompt. Empty means
	// DefaultInstructions.
	Instructions string
}

// Loop owns one conversation and processes queries against it. Not safe for
// concurrent queries.
type Loop struct {
	provider      Provider
	tools         ToolClient
	instructions  string
	maxIterations int

	cached []ToolDescriptor
	turns  []Turn
}

// NewLoop creates a loop over a provider and a tool client.
func NewLoop(provider Provider, tools ToolClient, opts Options) *Loop {
	maxIterations := opts.MaxIterations
	if maxIterations <= 0 {
		maxIterations = 10
	}
	instructions := opts.Instructions
	if instructions == "" {
		instructions = DefaultInstructions
	}
	return &Loop{
		provider:      provider,
		tools:         tools,
		instructions:  instructions,
		maxIterations: maxIterations,
	}
}

// Conversation returns a copy of the turns so far.
func (l *Loop) Conversation() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// ProcessQuery runs one query to completion: model rounds alternating with
// sequential tool dispatches until the model stops requesting calls. With
// reset the conversation starts fresh; otherwise the query layers on top of
// existing history.
func (l *Loop) ProcessQuery(ctx context.Context, query string, reset bool) (string, error) {
	tools, err := l.tools.ListTools(ctx)
	if err != nil {
		return "", err
	}
	if !reflect.DeepEqual(tools, l.cached) {
		l.cached = tools
		names := make([]string, len(tools))
		for i, t := range tools {
			names[i] = t.Name
		}
		logging.Infof("Available tools updated: %v", names)
	} else {
		logging.Debugf("No changes in tools")
	}

	if reset {
		l.turns = nil
	}
	l.turns = append(l.turns, Turn{Kind: TurnUser, Text: query})
	logging.Infof("Received query: %s", query)

	iterations := 0
	for {
		iterations++
		if iterations > l.maxIterations {
			logging.Errorf("Max iterations %d reached", l.maxIterations)
			return "", fmt.Errorf("%w: %d", ErrIterationLimit, l.maxIterations)
		}

		logging.Info("Calling model")
		resp, err := l.provider.Respond(ctx, &ModelRequest{
			Instructions: l.instructions,
			Turns:        l.turns,
			Tools:        l.cached,
		})
		if err != nil {
			return "", err
		}

		// Classify every item in emission order. Nothing is dropped;
		// unrecognized shapes stay in the conversation flagged.
		var calls []Turn
		for i, item := range resp.Items {
			switch item.Kind {
			case OutputFunctionCall:
				turn := Turn{
					Kind:      TurnFunctionCall,
					CallID:    item.CallID,
					Name:      item.Name,
					Arguments: item.Arguments,
				}
				l.turns = append(l.turns, turn)
				calls = append(calls, turn)
				logging.Infof("%d. Function: %s, args: %s", i+1, item.Name, item.Arguments)
			case OutputMessage:
				l.turns = append(l.turns, Turn{Kind: TurnAssistant, Text: item.Text})
				logging.Infof("%d. Message: %s", i+1, item.Text)
			default:
				l.turns = append(l.turns, Turn{Kind: TurnAssistant, Text: item.Raw, Flagged: true})
				logging.Warnf("Received response of unknown type: %s", item.Raw)
			}
		}

		if len(calls) == 0 {
			break
		}

		logging.Infof("Calling %d functions", len(calls))
		for i, call := range calls {
			args := map[string]any{}
			if call.Arguments != "" {
				if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
					return "", fmt.Errorf("malformed arguments for %s: %w", call.Name, err)
				}
			}
			parts, err := l.tools.CallTool(ctx, call.Name, args)
			if err != nil {
				return "", err
			}

			output := joinParts(parts)
			if strings.HasPrefix(output, "base64,") {
				imageTurn := Turn{
					Kind:     TurnImage,
					Text:     fmt.Sprintf("Image returned by function with call id %s", call.CallID),
					ImageURL: "data:image/png;" + output,
				}
				output = "Image passed in the next message as an input_image"
				l.turns = append(l.turns,
					Turn{Kind: TurnFunctionOutput, CallID: call.CallID, Output: output},
					imageTurn)
				logging.Infof("%d. Response: %s", i+1, output)
			} else {
				l.turns = append(l.turns, Turn{Kind: TurnFunctionOutput, CallID: call.CallID, Output: output})
				logging.Infof("%d. Response: %s", i+1, truncateForLog(output))
			}
		}
	}

	last := l.turns[len(l.turns)-1]
	return last.Text, nil
}

// joinParts flattens multi-part tool content into one string. A single part
// passes through verbatim; multiple parts join comma-separated inside
// brackets. The join happens before any image detection, so a multi-part
// response never counts as an image even if a later part is one.
func joinParts(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func truncateForLog(s string) string {
	if len(s) <= 500 {
		return s
	}
	return s[:500] + "..."
}
