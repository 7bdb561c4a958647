package data

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	agenttypes "github.com/lk2023060901/ai-canvas-backend/internal/agent/types"

	"gorm.io/gorm"
)

// CanvasModel canvases 表的 GORM 模型
type CanvasModel struct {
	ID            string        `gorm:"primaryKey;type:varchar(36)"`
	Name          string        `gorm:"type:varchar(255);not null"`
	Content       SegmentArray  `gorm:"type:jsonb"`
	Output        string        `gorm:"type:text"`
	OutputSources SourceArray   `gorm:"type:jsonb"`
	ChatHistory   ChatTurnArray `gorm:"type:jsonb"`
	TaskLog       TaskLogArray  `gorm:"type:jsonb"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName specifies the table name
func (CanvasModel) TableName() string {
	return "canvases"
}

// AttachmentModel canvas_attachments 表的 GORM 模型
type AttachmentModel struct {
	ID          string `gorm:"primaryKey;type:varchar(36)"`
	CanvasID    string `gorm:"type:varchar(36);not null;index"`
	FileName    string `gorm:"type:varchar(512);not null"`
	ContentType string `gorm:"type:varchar(128)"`
	Size        int64
	ObjectKey   string `gorm:"type:varchar(1024);not null"`
	CreatedAt   time.Time
}

// TableName specifies the table name
func (AttachmentModel) TableName() string {
	return "canvas_attachments"
}

// SegmentArray 以 JSON 存储的内容段数组。
// 兼容历史数据：早期版本把内容存为纯字符串，读取时
// 迁移为单个文本段；null 迁移为空数组。
type SegmentArray []agenttypes.Segment

// Scan implements sql.Scanner interface
func (s *SegmentArray) Scan(value interface{}) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*s = SegmentArray{}
		return nil
	}
	if raw[0] == '"' {
		// 历史格式：整段内容是一个 JSON 字符串
		var legacy string
		if err := json.Unmarshal(raw, &legacy); err != nil {
			return err
		}
		*s = SegmentArray{agenttypes.TextSegment(legacy)}
		return nil
	}
	return json.Unmarshal(raw, (*[]agenttypes.Segment)(s))
}

// Value implements driver.Valuer interface
func (s SegmentArray) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]agenttypes.Segment{})
	}
	return json.Marshal([]agenttypes.Segment(s))
}

// SourceArray 以 JSON 存储的来源数组
type SourceArray []agenttypes.Source

// Scan implements sql.Scanner interface
func (s *SourceArray) Scan(value interface{}) error {
	return scanJSONArray(value, (*[]agenttypes.Source)(s))
}

// Value implements driver.Valuer interface
func (s SourceArray) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]agenttypes.Source{})
	}
	return json.Marshal([]agenttypes.Source(s))
}

// ChatTurnArray 以 JSON 存储的会话历史
type ChatTurnArray []agenttypes.ChatTurn

// Scan implements sql.Scanner interface
func (s *ChatTurnArray) Scan(value interface{}) error {
	return scanJSONArray(value, (*[]agenttypes.ChatTurn)(s))
}

// Value implements driver.Valuer interface
func (s ChatTurnArray) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]agenttypes.ChatTurn{})
	}
	return json.Marshal([]agenttypes.ChatTurn(s))
}

// TaskLogArray 以 JSON 存储的任务日志
type TaskLogArray []agenttypes.TaskLogEntry

// Scan implements sql.Scanner interface
func (s *TaskLogArray) Scan(value interface{}) error {
	return scanJSONArray(value, (*[]agenttypes.TaskLogEntry)(s))
}

// Value implements driver.Valuer interface
func (s TaskLogArray) Value() (driver.Value, error) {
	if s == nil {
		return json.Marshal([]agenttypes.TaskLogEntry{})
	}
	return json.Marshal([]agenttypes.TaskLogEntry(s))
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported json column type %T", value)
	}
}

// scanJSONArray 反序列化 JSON 数组列，null 与空值迁移为空数组
func scanJSONArray[T any](value interface{}, dst *[]T) error {
	raw, err := jsonBytes(value)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		*dst = []T{}
		return nil
	}
	return json.Unmarshal(raw, dst)
}
