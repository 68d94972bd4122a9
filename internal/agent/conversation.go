// Package agent runs the tool-calling loop: it alternates between model
// responses and tool dispatches over an MCP session until the model stops
// requesting calls or the iteration ceiling is hit.
package agent

// TurnKind discriminates conversation turns.
type TurnKind string

const (
	TurnUser           TurnKind = "user"
	TurnAssistant      TurnKind = "assistant"
	TurnFunctionCall   TurnKind = "function_call"
	TurnFunctionOutput TurnKind = "function_call_output"
	TurnImage          TurnKind = "image"
)

// Turn is one conversation entry. The loop owns the slice exclusively;
// queries against one loop must not run concurrently.
type Turn struct {
	Kind TurnKind

	// Text carries user and assistant content, and the caption of an
	// image turn.
	Text string

	// Function call plumbing. Every function_call turn is answered by
	// exactly one function_call_output turn with the same CallID before
	// the next model round.
	CallID    string
	Name      string
	Arguments string
	Output    string

	// ImageURL is a data URI on image turns.
	ImageURL string

	// Flagged marks model output the loop could not classify. It stays in
	// the conversation for inspection instead of being dropped.
	Flagged bool
}
