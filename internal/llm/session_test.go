package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"de-hilfer/internal/tools"
)

// echoTool 测试用工具，回显入参
type echoTool struct {
	name string
	tags []string
}

func (e *echoTool) Name() string        { return e.name }
func (e *echoTool) Description() string { return "回显输入参数" }
func (e *echoTool) Tags() []string      { return e.tags }

func (e *echoTool) Parameters() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func (e *echoTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	data, err := json.Marshal(args)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("echo:%s", data), nil
}

func newToolTestRouter(manager tools.ToolManager, adapters ...Adapter) *Router {
	router := newTestRouter(adapters...)
	router.manager = manager
	return router
}

func TestSessionRunDone(t *testing.T) {
	adapter := &stubAdapter{name: "stub", priority: 0,
		response: NewMessage(RoleAssistant, MessageInput{Text: "Hallo! Wie kann ich helfen?"})}
	router := newTestRouter(adapter)

	session := router.GetSession("test-1", "")
	state := session.Run(context.Background(), "Hallo", 0, nil)

	if state != RunDone {
		t.Fatalf("期望 RunDone, 实际 %s", state)
	}
	if session.FinalText() != "Hallo! Wie kann ich helfen?" {
		t.Errorf("最终回答错误: %s", session.FinalText())
	}
	// 历史: system, user, assistant
	if session.History().Len() != 3 {
		t.Errorf("历史长度错误: %d", session.History().Len())
	}
	if adapter.callCount != 1 {
		t.Errorf("直接回答只应问询一次, 实际 %d 次", adapter.callCount)
	}
}

func TestSessionRunToolLoop(t *testing.T) {
	manager := tools.NewToolManager()
	if err := manager.RegisterTool(&echoTool{name: "echo"}); err != nil {
		t.Fatalf("注册工具失败: %v", err)
	}

	adapter := &stubAdapter{name: "stub", priority: 0}
	adapter.chatFn = func(history *History, opts ChatOptions) (*Message, error) {
		if adapter.callCount == 1 {
			return NewMessage(RoleAssistant, MessageInput{
				ToolRequests: []ContentBlock{
					NewToolRequestBlock("call_1", "echo", `{"wort":"laufen"}`),
					NewToolRequestBlock("call_2", "echo", `{"wort":"Haus"}`),
				},
			}), nil
		}
		return NewMessage(RoleAssistant, MessageInput{Text: "Fertig."}), nil
	}

	router := newToolTestRouter(manager, adapter)
	session := router.GetSession("test-2", "")
	state := session.Run(context.Background(), "Prüfe zwei Wörter", 0, []string{tools.TagAll})

	if state != RunDone {
		t.Fatalf("期望 RunDone, 实际 %s", state)
	}
	// 历史: system, user, assistant(工具调用), tool, assistant(最终回答)
	messages := session.History().Messages()
	if len(messages) != 5 {
		t.Fatalf("历史长度错误: %d", len(messages))
	}

	toolMsg := messages[3]
	if toolMsg.Role != RoleTool || len(toolMsg.Content) != 2 {
		t.Fatalf("工具结果消息错误: %+v", toolMsg)
	}
	// 结果与请求按顺序一一对应
	if toolMsg.Content[0].ToolCallID != "call_1" || toolMsg.Content[1].ToolCallID != "call_2" {
		t.Errorf("结果与请求未对应: %s, %s",
			toolMsg.Content[0].ToolCallID, toolMsg.Content[1].ToolCallID)
	}
	if !strings.Contains(toolMsg.Content[0].Result, "laufen") {
		t.Errorf("第一个结果内容错误: %s", toolMsg.Content[0].Result)
	}
	if session.FinalText() != "Fertig." {
		t.Errorf("最终回答错误: %s", session.FinalText())
	}
}

func TestSessionRunToolNotFound(t *testing.T) {
	adapter := &stubAdapter{name: "stub", priority: 0}
	adapter.chatFn = func(history *History, opts ChatOptions) (*Message, error) {
		if adapter.callCount == 1 {
			return NewMessage(RoleAssistant, MessageInput{
				ToolRequests: []ContentBlock{
					NewToolRequestBlock("call_1", "no_such_tool", "{}"),
				},
			}), nil
		}
		return NewMessage(RoleAssistant, MessageInput{Text: "Das Werkzeug gibt es nicht."}), nil
	}

	router := newToolTestRouter(tools.NewToolManager(), adapter)
	session := router.GetSession("test-3", "")
	state := session.Run(context.Background(), "Hallo", 0, []string{tools.TagAll})

	// 工具失败不中断循环，错误以文本结果回填给模型
	if state != RunDone {
		t.Fatalf("期望 RunDone, 实际 %s", state)
	}
	toolMsg := session.History().Messages()[3]
	if !strings.HasPrefix(toolMsg.Content[0].Result, "Error:") {
		t.Errorf("工具错误应转换为错误文本结果: %s", toolMsg.Content[0].Result)
	}
}

func TestSessionRunFailed(t *testing.T) {
	router := newTestRouter()
	session := router.GetSession("test-4", "")
	state := session.Run(context.Background(), "Hallo", 0, nil)

	if state != RunFailed {
		t.Fatalf("期望 RunFailed, 实际 %s", state)
	}
	// 用户消息之后不应有任何追加
	messages := session.History().Messages()
	if len(messages) != 2 || messages[1].Role != RoleUser {
		t.Errorf("失败后历史应停在用户消息: %+v", messages)
	}
}

func TestSessionRunEmptyInput(t *testing.T) {
	router := newTestRouter(&stubAdapter{name: "stub"})
	session := router.GetSession("test-5", "")

	if state := session.Run(context.Background(), "", 0, nil); state != RunFailed {
		t.Errorf("空输入应返回 RunFailed, 实际 %s", state)
	}
	if session.History().Len() != 1 {
		t.Errorf("空输入不应追加任何消息: %d", session.History().Len())
	}
}

func TestSessionRunExhausted(t *testing.T) {
	manager := tools.NewToolManager()
	if err := manager.RegisterTool(&echoTool{name: "echo"}); err != nil {
		t.Fatalf("注册工具失败: %v", err)
	}

	// 模型每轮都要求调用工具，永不收敛
	adapter := &stubAdapter{name: "stub", priority: 0}
	adapter.chatFn = func(history *History, opts ChatOptions) (*Message, error) {
		return NewMessage(RoleAssistant, MessageInput{
			ToolRequests: []ContentBlock{
				NewToolRequestBlock(fmt.Sprintf("call_%d", adapter.callCount), "echo", "{}"),
			},
		}), nil
	}

	router := newToolTestRouter(manager, adapter)
	session := router.GetSession("test-6", "")
	state := session.Run(context.Background(), "Hallo", 2, []string{tools.TagAll})

	if state != RunExhausted {
		t.Fatalf("期望 RunExhausted, 实际 %s", state)
	}
	if adapter.callCount != 2 {
		t.Errorf("轮数上限应限制问询次数: %d", adapter.callCount)
	}
}

func TestSessionRunMultipleTurnsKeepHistory(t *testing.T) {
	adapter := &stubAdapter{name: "stub", priority: 0}
	adapter.chatFn = func(history *History, opts ChatOptions) (*Message, error) {
		return NewMessage(RoleAssistant, MessageInput{
			Text: fmt.Sprintf("Antwort %d", adapter.callCount),
		}), nil
	}

	router := newTestRouter(adapter)
	session := router.GetSession("test-7", "")

	session.Run(context.Background(), "Erste Frage", 0, nil)
	session.Run(context.Background(), "Zweite Frage", 0, nil)

	// 同一会话跨多次运行累积历史: system + 2x(user, assistant)
	if session.History().Len() != 5 {
		t.Errorf("历史应跨运行累积: %d", session.History().Len())
	}
	if session.FinalText() != "Antwort 2" {
		t.Errorf("最终回答应来自最近一轮: %s", session.FinalText())
	}
}
