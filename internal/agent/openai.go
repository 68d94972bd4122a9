package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/helmlabs/helmsman/internal/logging"
)

// OpenAIProvider drives the Chat Completions API with tool support.
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider for the given model. The API key
// comes from the environment when empty.
func NewOpenAIProvider(apiKey, model string) *OpenAIProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Respond performs one non-streaming model round.
func (p *OpenAIProvider) Respond(ctx context.Context, req *ModelRequest) (*ModelResponse, error) {
	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(p.model),
		Messages: buildMessages(req),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, 0, len(req.Tools))
		for _, tool := range req.Tools {
			tools = append(tools, openai.ChatCompletionToolParam{
				Function: shared.FunctionDefinitionParam{
					Name:        tool.Name,
					Description: openai.String(tool.Description),
					Parameters:  shared.FunctionParameters(tool.Schema),
				},
			})
		}
		params.Tools = tools
	}

	logging.Debugf("Model request: model=%s turns=%d tools=%d", p.model, len(req.Turns), len(req.Tools))
	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("model call failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("model returned no choices")
	}

	message := completion.Choices[0].Message
	resp := &ModelResponse{}
	if message.Content != "" {
		resp.Items = append(resp.Items, OutputItem{Kind: OutputMessage, Text: message.Content})
	}
	for _, call := range message.ToolCalls {
		resp.Items = append(resp.Items, OutputItem{
			Kind:      OutputFunctionCall,
			CallID:    call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}
	return resp, nil
}

// buildMessages converts the conversation to chat messages. Consecutive
// function_call turns collapse into one assistant message carrying all the
// calls; each function_call_output becomes a tool message.
func buildMessages(req *ModelRequest) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	var pendingCalls []openai.ChatCompletionMessageToolCallParam
	flushCalls := func() {
		if len(pendingCalls) == 0 {
			return
		}
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfAssistant: &openai.ChatCompletionAssistantMessageParam{
				ToolCalls: pendingCalls,
			},
		})
		pendingCalls = nil
	}

	for _, turn := range req.Turns {
		if turn.Kind != TurnFunctionCall {
			flushCalls()
		}
		switch turn.Kind {
		case TurnUser:
			messages = append(messages, openai.UserMessage(turn.Text))
		case TurnAssistant:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		case TurnFunctionCall:
			pendingCalls = append(pendingCalls, openai.ChatCompletionMessageToolCallParam{
				ID:   turn.CallID,
				Type: "function",
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      turn.Name,
					Arguments: turn.Arguments,
				},
			})
		case TurnFunctionOutput:
			messages = append(messages, openai.ToolMessage(turn.Output, turn.CallID))
		case TurnImage:
			messages = append(messages, openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(turn.Text),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
					URL: turn.ImageURL,
				}),
			}))
		}
	}
	flushCalls()
	return messages
}
