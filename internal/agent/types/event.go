package types

// RunStatus Agent 运行状态，仅用于外部展示，不参与控制流
type RunStatus string

const (
	StatusIdle          RunStatus = "idle"
	StatusPlanning      RunStatus = "planning"
	StatusThinking      RunStatus = "thinking"
	StatusExecutingTool RunStatus = "executing_tool"
	StatusResponding    RunStatus = "responding"
)

// Source 模型回答引用的来源
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title,omitempty"`
}

// ChatTurn 会话历史中的一轮
type ChatTurn struct {
	Sender string `json:"sender"` // user, bot
	Text   string `json:"text"`
}

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// EventType Agent 事件类型
type EventType string

const (
	EventStatus    EventType = "status"
	EventTaskLog   EventType = "task_log"
	EventTextDelta EventType = "text_delta"
	EventSources   EventType = "sources"
	EventDone      EventType = "done"
	EventError     EventType = "error"
)

// ErrorKind 致命错误类别
type ErrorKind string

const (
	ErrKindModelCommunication ErrorKind = "model_communication"
	ErrKindLoopLimitExceeded  ErrorKind = "loop_limit_exceeded"
)

// RunError 终止一次运行的致命错误
type RunError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func (e *RunError) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// RunResult 一次运行的最终产出
type RunResult struct {
	Text    string         `json:"text"`
	Sources []Source       `json:"sources"`
	TaskLog []TaskLogEntry `json:"task_log"`
}

// Event Agent 运行过程中产出的单个事件（按类型区分负载字段）。
// 同一运行内事件严格按产生顺序交付。
type Event struct {
	Type    EventType     `json:"type"`
	Status  RunStatus     `json:"status,omitempty"`  // EventStatus
	Entry   *TaskLogEntry `json:"entry,omitempty"`   // EventTaskLog
	Text    string        `json:"text,omitempty"`    // EventTextDelta
	Sources []Source      `json:"sources,omitempty"` // EventSources
	Result  *RunResult    `json:"result,omitempty"`  // EventDone
	Err     *RunError     `json:"error,omitempty"`   // EventError
}

// StatusEvent 创建状态事件
func StatusEvent(s RunStatus) Event {
	return Event{Type: EventStatus, Status: s}
}

// TaskLogEvent 创建任务日志事件
func TaskLogEvent(entry TaskLogEntry) Event {
	return Event{Type: EventTaskLog, Entry: &entry}
}

// TextDeltaEvent 创建文本增量事件
func TextDeltaEvent(text string) Event {
	return Event{Type: EventTextDelta, Text: text}
}

// SourcesEvent 创建来源事件
func SourcesEvent(sources []Source) Event {
	return Event{Type: EventSources, Sources: sources}
}

// DoneEvent 创建完成事件
func DoneEvent(result RunResult) Event {
	return Event{Type: EventDone, Result: &result}
}

// ErrorEvent 创建致命错误事件
func ErrorEvent(kind ErrorKind, message string) Event {
	return Event{Type: EventError, Err: &RunError{Kind: kind, Message: message}}
}
