package llm

import (
	"strings"
	"testing"

	"de-hilfer/internal/config"
	"de-hilfer/internal/tools"
)

func newTestGeminiAdapter() *GeminiAdapter {
	cfg := config.ModelConfig{
		Provider: "gemini",
		Params: config.ModelParams{
			ModelList:   []string{"gemini-2.5-flash"},
			Temperature: 0.7,
		},
	}
	return &GeminiAdapter{
		BaseAdapter: NewBaseAdapter("gemini", "gemini", cfg, tools.NewToolManager()),
	}
}

func TestGeminiPackHistory(t *testing.T) {
	adapter := newTestGeminiAdapter()

	history := NewHistory("Du bist ein Deutschlehrer.")
	history.Append(*NewMessage(RoleUser, MessageInput{Text: "Was bedeutet laufen?"}))
	history.Append(*NewMessage(RoleAssistant, MessageInput{
		Text: "Ich schlage im Wörterbuch nach.",
		ToolRequests: []ContentBlock{
			NewToolRequestBlock("call_1", "get_entry_details", `{"query_text":"laufen"}`),
		},
	}))
	history.Append(Message{Role: RoleTool, Content: []ContentBlock{
		NewToolResultBlock("result_1", "call_1", "get_entry_details", `{"query_text":"laufen"}`),
	}})

	contents := adapter.PackHistory(history)

	// 系统消息不进入 contents，由 systemInstruction 带外传递
	if len(contents) != 3 {
		t.Fatalf("期望 3 条消息, 实际 %d", len(contents))
	}
	if contents[0].Role != "user" {
		t.Errorf("首条消息角色错误: %s", contents[0].Role)
	}
	// 助手消息与工具结果消息都折叠为 model 角色
	if contents[1].Role != "model" || contents[2].Role != "model" {
		t.Errorf("助手/工具消息应折叠为 model: %s, %s", contents[1].Role, contents[2].Role)
	}

	call := contents[1].Parts[1].FunctionCall
	if call == nil || call.Name != "get_entry_details" {
		t.Fatalf("工具调用部分缺失: %+v", contents[1].Parts)
	}
	if call.Args["query_text"] != "laufen" {
		t.Errorf("参数解析错误: %+v", call.Args)
	}

	response := contents[2].Parts[0].FunctionResponse
	if response == nil || response.Name != "get_entry_details" {
		t.Errorf("工具结果部分缺失: %+v", contents[2].Parts)
	}
}

func TestGeminiBuildRequestSystemInstruction(t *testing.T) {
	adapter := newTestGeminiAdapter()

	history := NewHistory("Du bist ein Deutschlehrer.")
	history.Append(*NewMessage(RoleUser, MessageInput{Text: "Hallo"}))

	request := adapter.buildRequest(history, ChatOptions{})
	if request.SystemInstruction == nil {
		t.Fatal("系统提示词应通过 systemInstruction 传递")
	}
	if request.SystemInstruction.Parts[0].Text != "Du bist ein Deutschlehrer." {
		t.Errorf("系统提示词内容错误: %+v", request.SystemInstruction)
	}
	for _, content := range request.Contents {
		if content.Role != "user" && content.Role != "model" {
			t.Errorf("contents 中出现非法角色: %s", content.Role)
		}
	}
}

func TestGeminiUnpackResponse(t *testing.T) {
	adapter := newTestGeminiAdapter()

	response := &GeminiResponse{
		Candidates: []GeminiCandidate{{
			Content: &GeminiContent{
				Role: "model",
				Parts: []GeminiPart{
					{Text: "Ich prüfe das."},
					{FunctionCall: &GeminiFunctionCall{
						Name: "get_current_time",
						Args: map[string]any{},
					}},
				},
			},
		}},
	}

	msg := adapter.UnpackResponse(response)
	if msg == nil {
		t.Fatal("应该解析出助手消息")
	}
	if msg.Role != RoleAssistant {
		t.Errorf("角色错误: %s", msg.Role)
	}
	if msg.Text() != "Ich prüfe das." {
		t.Errorf("文本错误: %s", msg.Text())
	}

	requests := msg.ToolRequests()
	if len(requests) != 1 {
		t.Fatalf("期望 1 个工具调用, 实际 %d", len(requests))
	}
	// Gemini 不提供调用 ID，必须本地合成
	if !strings.HasPrefix(requests[0].ID, "call_") {
		t.Errorf("合成 ID 格式错误: %s", requests[0].ID)
	}
	if requests[0].ArgumentsJSON != "{}" {
		t.Errorf("空参数应序列化为 {}: %s", requests[0].ArgumentsJSON)
	}
}

func TestGeminiUnpackResponseNoCandidates(t *testing.T) {
	adapter := newTestGeminiAdapter()

	msg := adapter.UnpackResponse(&GeminiResponse{})
	if msg == nil {
		t.Fatal("无候选时应返回说明性文本消息")
	}
	if msg.Text() == "" {
		t.Error("说明性消息不应为空")
	}

	blocked := adapter.UnpackResponse(&GeminiResponse{
		PromptFeedback: &PromptFeedback{BlockReason: "SAFETY"},
	})
	if !strings.Contains(blocked.Text(), "SAFETY") {
		t.Errorf("拦截原因应出现在消息中: %s", blocked.Text())
	}
}

func TestGeminiUnpackResponseEmptyContent(t *testing.T) {
	adapter := newTestGeminiAdapter()

	msg := adapter.UnpackResponse(&GeminiResponse{
		Candidates: []GeminiCandidate{{Content: nil}},
	})
	if msg != nil {
		t.Errorf("候选内容为空时应返回 nil, 实际 %+v", msg)
	}
}
