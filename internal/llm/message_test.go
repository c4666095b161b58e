package llm

import (
	"testing"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(RoleUser, MessageInput{Text: "Was bedeutet laufen?"})
	if msg == nil {
		t.Fatal("纯文本输入应该生成消息")
	}
	if msg.Role != RoleUser {
		t.Errorf("角色错误: 期望 %s, 实际 %s", RoleUser, msg.Role)
	}
	if len(msg.Content) != 1 || msg.Content[0].Kind != BlockText {
		t.Errorf("期望单个文本块, 实际 %+v", msg.Content)
	}
	if msg.Text() != "Was bedeutet laufen?" {
		t.Errorf("文本内容错误: %s", msg.Text())
	}
}

func TestNewMessageEmpty(t *testing.T) {
	msg := NewMessage(RoleUser, MessageInput{})
	if msg != nil {
		t.Errorf("空输入应该返回 nil, 实际 %+v", msg)
	}
}

func TestNewMessageWithImage(t *testing.T) {
	msg := NewMessage(RoleUser, MessageInput{
		Text:      "Was steht auf dem Bild?",
		ImageMime: "image/png",
		ImageData: []byte{0x89, 0x50, 0x4e, 0x47},
	})
	if msg == nil {
		t.Fatal("图文输入应该生成消息")
	}
	if len(msg.Content) != 2 {
		t.Fatalf("期望 2 个内容块, 实际 %d", len(msg.Content))
	}
	if msg.Content[1].Kind != BlockImage || msg.Content[1].MimeType != "image/png" {
		t.Errorf("图片块错误: %+v", msg.Content[1])
	}
}

func TestMessageToolRequests(t *testing.T) {
	msg := NewMessage(RoleAssistant, MessageInput{
		Text: "Ich schaue nach.",
		ToolRequests: []ContentBlock{
			NewToolRequestBlock("call_1", "get_current_time", "{}"),
			NewToolRequestBlock("call_2", "get_entry_details", `{"query_text":"laufen"}`),
		},
	})
	if msg == nil {
		t.Fatal("带工具调用的输入应该生成消息")
	}
	requests := msg.ToolRequests()
	if len(requests) != 2 {
		t.Fatalf("期望 2 个工具调用, 实际 %d", len(requests))
	}
	if requests[0].ID != "call_1" || requests[1].ToolName != "get_entry_details" {
		t.Errorf("工具调用顺序或内容错误: %+v", requests)
	}
	if !msg.HasToolRequests() {
		t.Error("HasToolRequests 应该为 true")
	}
}

func TestHistory(t *testing.T) {
	history := NewHistory("Du bist ein Assistent.")
	if history.Len() != 1 {
		t.Fatalf("新历史应该包含系统消息, 实际长度 %d", history.Len())
	}
	first := history.Messages()[0]
	if first.Role != RoleSystem {
		t.Errorf("首条消息必须是系统消息, 实际 %s", first.Role)
	}
	if history.SystemPrompt() != "Du bist ein Assistent." {
		t.Errorf("系统提示词错误: %s", history.SystemPrompt())
	}

	history.Append(*NewMessage(RoleUser, MessageInput{Text: "Hallo"}))
	history.Append(*NewMessage(RoleAssistant, MessageInput{Text: "Hallo! Wie kann ich helfen?"}))
	if history.Len() != 3 {
		t.Errorf("追加后长度错误: %d", history.Len())
	}

	last := history.Last()
	if last == nil || last.Role != RoleAssistant {
		t.Errorf("Last 返回错误: %+v", last)
	}

	// Messages 返回的切片不应影响内部状态
	snapshot := history.Messages()
	snapshot[0] = Message{Role: RoleUser}
	if history.Messages()[0].Role != RoleSystem {
		t.Error("Messages 快照被修改后不应影响历史本身")
	}
}
