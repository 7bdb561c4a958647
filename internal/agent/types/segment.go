package types

import "strings"

// SegmentType 内容段类型
type SegmentType string

const (
	SegmentText   SegmentType = "text"
	SegmentBinary SegmentType = "binary"
)

// Segment 画布内容段：纯文本或带 MIME 类型的二进制（base64 编码）
type Segment struct {
	Type     SegmentType `json:"type"`
	Content  string      `json:"content"`             // 文本内容，或二进制的 base64 编码
	MimeType string      `json:"mime_type,omitempty"` // 仅二进制段携带
}

// IsEmptyText 判断是否为可跳过的空文本段（仅空白也视为空）
func (s Segment) IsEmptyText() bool {
	return s.Type == SegmentText && strings.TrimSpace(s.Content) == ""
}

// TextSegment 创建文本段
func TextSegment(content string) Segment {
	return Segment{Type: SegmentText, Content: content}
}

// BinarySegment 创建二进制段
func BinarySegment(b64, mimeType string) Segment {
	return Segment{Type: SegmentBinary, Content: b64, MimeType: mimeType}
}

// JoinText 拼接所有文本段内容，用于记忆检索等纯文本场景
func JoinText(segments []Segment) string {
	var out string
	for _, seg := range segments {
		if seg.Type != SegmentText || seg.Content == "" {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += seg.Content
	}
	return out
}
