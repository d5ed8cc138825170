package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"healthbot/internal/llm"
	"healthbot/internal/logger"
	"healthbot/internal/metrics"
	"healthbot/internal/tools"

	"github.com/google/uuid"
)

// ErrEmptyMessage is returned for blank user input.
var ErrEmptyMessage = errors.New("empty message")

// phase is a state of the per-exchange state machine.  Transitions only go
// forward: decide -> resolve -> done or decide -> done, so an exchange can
// never run more than one tool.
type phase int

const (
	phaseDecide phase = iota
	phaseResolve
	phaseDone
)

// exchange carries the state of one user request through the phases.
type exchange struct {
	id         string
	transcript []llm.Message
	call       *llm.ToolCall
	answer     string
	path       string
}

// Agent answers one user message per call to Handle.  It holds no
// conversation memory between calls, so a single Agent serves concurrent
// exchanges.
type Agent struct {
	LLM     llm.Client
	Catalog *tools.Catalog
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewAgent constructs an Agent.  log and m may be nil.
func NewAgent(client llm.Client, catalog *tools.Catalog, log *slog.Logger, m *metrics.Metrics) *Agent {
	if log == nil {
		log = logger.Discard()
	}
	return &Agent{LLM: client, Catalog: catalog, log: log, metrics: m}
}

// Handle runs one exchange and returns the final, disclaimer-bearing answer.
// Tool-level problems (unknown tool, bad arguments, feed failures) are fed
// back to the model as text; only model endpoint or store failures are
// returned as errors.
func (a *Agent) Handle(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}
	start := time.Now()
	ex := &exchange{
		id: uuid.NewString(),
		transcript: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: text},
		},
	}
	log := a.log.With(slog.String("exchange", ex.id))

	for state := phaseDecide; state != phaseDone; {
		var err error
		switch state {
		case phaseDecide:
			state, err = a.decide(ctx, ex)
		case phaseResolve:
			state, err = a.resolve(ctx, log, ex)
		}
		if err != nil {
			a.metrics.IncrementExchange("failed")
			log.Error("exchange failed", slog.Any("err", err))
			return "", err
		}
	}

	a.metrics.IncrementExchange(ex.path)
	a.metrics.ObserveExchangeLatency(time.Since(start))
	log.Info("exchange completed", slog.String("path", ex.path), slog.Duration("took", time.Since(start)))
	return WithDisclaimer(ex.answer), nil
}

// decide sends the user message with the catalog and classifies the reply.
func (a *Agent) decide(ctx context.Context, ex *exchange) (phase, error) {
	reply, err := a.LLM.Chat(ctx, ex.transcript, a.Catalog.Specs())
	if err != nil {
		return phaseDone, fmt.Errorf("decide call: %w", err)
	}
	if reply.ToolCall == nil {
		ex.path = "direct"
		ex.answer = reply.Content
		return phaseDone, nil
	}
	ex.path = "tool"
	ex.call = reply.ToolCall
	if ex.call.ID == "" {
		ex.call.ID = "call_" + uuid.NewString()
	}
	return phaseResolve, nil
}

// resolve runs the requested tool and asks the model for the final answer.
func (a *Agent) resolve(ctx context.Context, log *slog.Logger, ex *exchange) (phase, error) {
	result, err := a.runTool(ctx, log, ex.call)
	if err != nil {
		return phaseDone, err
	}
	ex.transcript = append(ex.transcript,
		llm.Message{Role: llm.RoleAssistant, ToolCall: ex.call},
		llm.Message{Role: llm.RoleTool, Name: ex.call.Name, ToolCallID: ex.call.ID, Content: result},
	)

	reply, err := a.LLM.Chat(ctx, ex.transcript, a.Catalog.Specs())
	if err != nil {
		return phaseDone, fmt.Errorf("resolve call: %w", err)
	}
	ex.answer = reply.Content
	if reply.ToolCall != nil {
		log.Warn("resolve call requested another tool, ignored", slog.String("tool", reply.ToolCall.Name))
	}
	return phaseDone, nil
}

// runTool executes call and converts tool-level failures into result text.
func (a *Agent) runTool(ctx context.Context, log *slog.Logger, call *llm.ToolCall) (string, error) {
	log = log.With(slog.String("tool", call.Name))

	tool, err := a.Catalog.Lookup(call.Name)
	if err != nil {
		a.metrics.IncrementToolCall(call.Name, "unknown")
		log.Warn("model requested unknown tool")
		return ToolUnavailable, nil
	}

	out, err := tool.Execute(ctx, call.Arguments)
	switch {
	case err == nil:
		outcome := "ok"
		if strings.HasPrefix(out, tools.NoDataPrefix) {
			outcome = "empty"
		}
		a.metrics.IncrementToolCall(call.Name, outcome)
		log.Debug("tool executed", slog.String("outcome", outcome))
		return out, nil
	case errors.Is(err, tools.ErrInvalidArguments):
		a.metrics.IncrementToolCall(call.Name, "invalid_args")
		log.Warn("tool arguments rejected", slog.Any("err", err), slog.String("args", call.Arguments))
		return fmt.Sprintf("Error: the tool %s could not run: %v.", call.Name, err), nil
	default:
		a.metrics.IncrementToolCall(call.Name, "error")
		return "", fmt.Errorf("execute %s: %w", call.Name, err)
	}
}

// WithDisclaimer makes sure answer carries the fixed disclaimer.  An empty
// answer is replaced by FallbackAnswer first.
func WithDisclaimer(answer string) string {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		answer = FallbackAnswer
	}
	if strings.Contains(answer, Disclaimer) {
		return answer
	}
	return answer + "\n\n" + Disclaimer
}
