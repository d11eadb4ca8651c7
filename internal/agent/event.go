package agent

import "github.com/pdiddy/survey-engine/internal/llm"

// Event is something that happened during a team run. Hosts usually relay
// TextMessage events only; the other kinds describe tool activity and the
// task itself.
type Event interface {
	// EventSource names the participant that produced the event ("user" for the task).
	EventSource() string
	isEvent()
}

// TaskSource is the source name of the task message that starts a run.
const TaskSource = "user"

// TaskMessage carries the task that starts a run.
type TaskMessage struct {
	Content string
}

// TextMessage is a plain text reply from an agent. It is the only event
// that carries a turn's final text.
type TextMessage struct {
	Source  string
	Content string
}

// ToolCallRequest records the tool invocations a model asked for.
type ToolCallRequest struct {
	Source string
	Calls  []llm.ToolCall
}

// ToolResult is the outcome of one tool invocation.
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// ToolCallExecution records the results of the requested tool invocations.
type ToolCallExecution struct {
	Source  string
	Results []ToolResult
}

// ToolCallSummary is an agent's reply when it used tools without reflecting
// on the results: the raw results become its message.
type ToolCallSummary struct {
	Source  string
	Content string
}

func (TaskMessage) EventSource() string { return TaskSource }
func (e TextMessage) EventSource() string { return e.Source }
func (e ToolCallRequest) EventSource() string { return e.Source }
func (e ToolCallExecution) EventSource() string { return e.Source }
func (e ToolCallSummary) EventSource() string { return e.Source }

func (TaskMessage) isEvent() {}
func (TextMessage) isEvent() {}
func (ToolCallRequest) isEvent() {}
func (ToolCallExecution) isEvent() {}
func (ToolCallSummary) isEvent() {}
