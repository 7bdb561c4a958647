package types

// TaskLogKind 任务日志条目类型
type TaskLogKind string

const (
	TaskLogPlan       TaskLogKind = "plan"
	TaskLogThought    TaskLogKind = "thought"
	TaskLogToolCall   TaskLogKind = "tool_call"
	TaskLogToolResult TaskLogKind = "tool_result"
	TaskLogError      TaskLogKind = "error"
)

// TaskLogEntry 一次 Agent 运行审计轨迹中的一条记录。
// 条目只追加，创建后不再修改。
type TaskLogEntry struct {
	Kind     TaskLogKind `json:"kind"`
	Content  string      `json:"content"`
	ToolName string      `json:"tool_name,omitempty"`
}
