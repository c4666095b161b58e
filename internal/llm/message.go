package llm

// BlockKind 内容块类型判别字段
type BlockKind string

const (
	BlockText        BlockKind = "text"
	BlockImage       BlockKind = "image"
	BlockToolRequest BlockKind = "tool_request"
	BlockToolResult  BlockKind = "tool_result"
)

// Role 消息角色判别字段
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentBlock 内容块，Kind 决定哪些字段有效
type ContentBlock struct {
	Kind BlockKind `json:"kind"`

	// Kind == BlockText
	Text string `json:"text,omitempty"`

	// Kind == BlockImage
	MimeType string `json:"mime_type,omitempty"`
	Data     []byte `json:"data,omitempty"`

	// Kind == BlockToolRequest / BlockToolResult
	ID       string `json:"id,omitempty"`
	ToolName string `json:"tool_name,omitempty"`

	// Kind == BlockToolRequest，参数为原始 JSON 文本
	ArgumentsJSON string `json:"arguments_json,omitempty"`

	// Kind == BlockToolResult，ToolCallID 必须匹配同一会话中先前的请求 ID
	ToolCallID string `json:"tool_call_id,omitempty"`
	Result     string `json:"result,omitempty"`
}

// NewTextBlock 创建文本块
func NewTextBlock(text string) ContentBlock {
	return ContentBlock{Kind: BlockText, Text: text}
}

// NewImageBlock 创建图像块
func NewImageBlock(mimeType string, data []byte) ContentBlock {
	return ContentBlock{Kind: BlockImage, MimeType: mimeType, Data: data}
}

// NewToolRequestBlock 创建工具调用请求块
func NewToolRequestBlock(id, toolName, argumentsJSON string) ContentBlock {
	return ContentBlock{
		Kind:          BlockToolRequest,
		ID:            id,
		ToolName:      toolName,
		ArgumentsJSON: argumentsJSON,
	}
}

// NewToolResultBlock 创建工具调用结果块
func NewToolResultBlock(id, toolCallID, toolName, result string) ContentBlock {
	return ContentBlock{
		Kind:       BlockToolResult,
		ID:         id,
		ToolCallID: toolCallID,
		ToolName:   toolName,
		Result:     result,
	}
}

// Message 对话消息
type Message struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text 拼接消息中的全部文本块
func (m *Message) Text() string {
	var text string
	for _, block := range m.Content {
		if block.Kind == BlockText {
			text += block.Text
		}
	}
	return text
}

// ToolRequests 返回消息中的全部工具调用请求块
func (m *Message) ToolRequests() []ContentBlock {
	var requests []ContentBlock
	for _, block := range m.Content {
		if block.Kind == BlockToolRequest {
			requests = append(requests, block)
		}
	}
	return requests
}

// HasToolRequests 判断消息是否包含工具调用请求
func (m *Message) HasToolRequests() bool {
	for _, block := range m.Content {
		if block.Kind == BlockToolRequest {
			return true
		}
	}
	return false
}

// MessageInput 消息工厂的构建输入
type MessageInput struct {
	Text         string
	ImageMime    string
	ImageData    []byte
	ToolRequests []ContentBlock
	ToolResults  []ContentBlock
}

// NewMessage 从给定输入组装消息。无法产生任何内容块时返回 nil，
// 避免向会话历史写入空消息。
func NewMessage(role Role, in MessageInput) *Message {
	var blocks []ContentBlock

	if in.Text != "" {
		blocks = append(blocks, NewTextBlock(in.Text))
	}
	if len(in.ImageData) > 0 {
		blocks = append(blocks, NewImageBlock(in.ImageMime, in.ImageData))
	}
	blocks = append(blocks, in.ToolRequests...)
	blocks = append(blocks, in.ToolResults...)

	if len(blocks) == 0 {
		return nil
	}

	return &Message{Role: role, Content: blocks}
}

// History 单个会话独占的只追加消息序列。
// 首条消息始终是 system 消息，仅由所属会话的代理循环写入。
type History struct {
	messages []Message
}

// NewHistory 创建以系统提示词起始的会话历史
func NewHistory(systemPrompt string) *History {
	h := &History{}
	h.messages = append(h.messages, Message{
		Role:    RoleSystem,
		Content: []ContentBlock{NewTextBlock(systemPrompt)},
	})
	return h
}

// Append 追加消息
func (h *History) Append(msg Message) {
	h.messages = append(h.messages, msg)
}

// Messages 返回当前消息快照。调用方可以安全遍历而不受后续追加影响。
func (h *History) Messages() []Message {
	snapshot := make([]Message, len(h.messages))
	copy(snapshot, h.messages)
	return snapshot
}

// Last 返回最后一条消息，历史为空时返回 nil
func (h *History) Last() *Message {
	if len(h.messages) == 0 {
		return nil
	}
	return &h.messages[len(h.messages)-1]
}

// Len 返回消息数量
func (h *History) Len() int {
	return len(h.messages)
}

// SystemPrompt 返回起始系统提示词
func (h *History) SystemPrompt() string {
	if len(h.messages) == 0 || h.messages[0].Role != RoleSystem {
		return ""
	}
	return h.messages[0].Text()
}
