package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/cexll/cassdoctor/pkg/session"
)

const (
	// DefaultModel keeps demo cost low while still handling tool calls well.
	DefaultModel       = "gpt-4o-mini"
	defaultTemperature = 0.2
)

// OpenAIConfig configures the chat-completions backend. BaseURL is optional
// and exists for OpenAI-compatible gateways and test servers.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAI implements Oracle on top of the chat completions API with function
// calling. One Decide call is one completion request; the API's tool_calls
// become ToolCallRequests.
type OpenAI struct {
	client *openai.Client
	model  string
}

var _ Oracle = (*OpenAI)(nil)

// NewOpenAI builds the backend. The zero Model falls back to DefaultModel.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), model: model}
}

func (o *OpenAI) Decide(ctx context.Context, req DecisionRequest) (*Decision, error) {
	completion := openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    buildMessages(req.System, req.History),
		Temperature: defaultTemperature,
	}
	if len(req.Tools) > 0 {
		completion.Tools = buildTools(req)
		completion.ToolChoice = "auto"
	}

	resp, err := o.client.CreateChatCompletion(ctx, completion)
	if err != nil {
		return nil, &Error{Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &Error{Err: fmt.Errorf("completion returned no choices")}
	}

	msg := resp.Choices[0].Message
	decision := &Decision{Content: msg.Content}
	for _, call := range msg.ToolCalls {
		args := map[string]any{}
		if call.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				return nil, &Error{Err: fmt.Errorf("tool call %s has malformed arguments: %w", call.Function.Name, err)}
			}
		}
		decision.ToolCalls = append(decision.ToolCalls, ToolCallRequest{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: args,
		})
	}
	return decision, nil
}

func buildMessages(system string, history []session.Message) []openai.ChatCompletionMessage {
	messages := make([]openai.ChatCompletionMessage, 0, len(history)+1)
	if system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range history {
		switch msg.Role {
		case session.RoleUser:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
		case session.RoleAssistant:
			out := openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleAssistant,
				Content: msg.Content,
			}
			for _, call := range msg.ToolCalls {
				args := "{}"
				if len(call.Arguments) > 0 {
					if raw, err := json.Marshal(call.Arguments); err == nil {
						args = string(raw)
					}
				}
				out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
					ID:   call.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      call.Name,
						Arguments: args,
					},
				})
			}
			messages = append(messages, out)
		case session.RoleTool:
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    msg.Content,
				ToolCallID: msg.ToolCallID,
			})
		}
	}
	return messages
}

func buildTools(req DecisionRequest) []openai.Tool {
	tools := make([]openai.Tool, 0, len(req.Tools))
	for _, desc := range req.Tools {
		def := &openai.FunctionDefinition{
			Name:        desc.Name,
			Description: desc.Description,
		}
		if len(desc.Schema) > 0 {
			def.Parameters = json.RawMessage(desc.Schema)
		}
		tools = append(tools, openai.Tool{Type: openai.ToolTypeFunction, Function: def})
	}
	return tools
}
