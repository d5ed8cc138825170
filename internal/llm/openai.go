package llm

import (
	"context"
	"errors"
	"fmt"
	"math"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Message roles understood by Client.
const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
	RoleTool      = openai.ChatMessageRoleTool
)

// ErrNoChoices is returned when the endpoint answers without any choice.
var ErrNoChoices = errors.New("model returned no choices")

// ToolCall is a request from the model to run one named tool.  Arguments is
// the raw JSON object produced by the model.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

// Message is a chat message exchanged with the model.  Assistant messages
// that requested a tool carry ToolCall; tool-result messages carry
// ToolCallID and Name.
type Message struct {
	Role       string
	Content    string
	ToolCall   *ToolCall
	ToolCallID string
	Name       string
}

// ToolSpec describes a callable tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// Reply is the model's answer: either text or a single tool call.
type Reply struct {
	Content  string
	ToolCall *ToolCall
}

// Client defines the chat-completion capability used by the agent.
type Client interface {
	Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Reply, error)
}

// Config holds the endpoint settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
}

// OpenAIClient calls an OpenAI-compatible chat completion API.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewOpenAIClient constructs an OpenAI-backed client.  An empty BaseURL uses
// the public OpenAI endpoint; an empty Model falls back to gpt-4o-mini.
func NewOpenAIClient(cfg Config) *OpenAIClient {
	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	temperature := cfg.Temperature
	if temperature == 0 {
		// The request encoder omits a zero temperature and the endpoint would
		// substitute its default of 1.
		temperature = math.SmallestNonzeroFloat32
	}
	return &OpenAIClient{
		client:      openai.NewClientWithConfig(oc),
		model:       model,
		temperature: temperature,
	}
}

// Chat sends the transcript and tool catalog to the chat completion API.
// When the model requests several tools at once only the first is kept.
func (c *OpenAIClient) Chat(ctx context.Context, messages []Message, tools []ToolSpec) (Reply, error) {
	if c.client == nil {
		return Reply{}, errors.New("openai client not initialized")
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(messages),
		Temperature: c.temperature,
	}
	if len(tools) > 0 {
		req.Tools = toOpenAITools(tools)
		req.ToolChoice = "auto"
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Reply{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Reply{}, ErrNoChoices
	}

	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		call := msg.ToolCalls[0]
		return Reply{ToolCall: &ToolCall{
			ID:        call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		}}, nil
	}
	return Reply{Content: msg.Content}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
		case RoleAssistant:
			am := openai.ChatCompletionMessage{Role: RoleAssistant, Content: m.Content}
			if m.ToolCall != nil {
				am.ToolCalls = []openai.ToolCall{{
					ID:   m.ToolCall.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      m.ToolCall.Name,
						Arguments: m.ToolCall.Arguments,
					},
				}}
			}
			out = append(out, am)
		case RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       RoleTool,
				Content:    m.Content,
				Name:       m.Name,
				ToolCallID: m.ToolCallID,
			})
		default:
			// coerce anything unknown to user
			out = append(out, openai.ChatCompletionMessage{Role: RoleUser, Content: m.Content})
		}
	}
	return out
}

func toOpenAITools(tools []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}
