package agent

import "context"

// OutputKind discriminates model response items.
type OutputKind string

const (
	OutputMessage      OutputKind = "message"
	OutputFunctionCall OutputKind = "function_call"
	OutputOther        OutputKind = "other"
)

// OutputItem is one element of a model response, in emission order.
type OutputItem struct {
	Kind OutputKind

	// Message fields.
	Text string

	// Function call fields. Arguments is the raw JSON string as emitted
	// by the model.
	CallID    string
	Name      string
	Arguments string

	// Raw preserves unclassifiable items for the conversation record.
	Raw string
}

// ModelRequest is everything a provider needs for one round.
type ModelRequest struct {
	Instructions string
	Turns        []Turn
	Tools        []ToolDescriptor
}

// ModelResponse is the ordered output of one model round.
type ModelResponse struct {
	Items []OutputItem
}

// Provider produces model responses. Implementations must not mutate the
// request's turns.
type Provider interface {
	Respond(ctx context.Context, req *ModelRequest) (*ModelResponse, error)
}
