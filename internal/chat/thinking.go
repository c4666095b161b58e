package chat

import (
	"regexp"
	"strings"
)

// 本地模型（如 qwen3、deepseek-r1）会在回答前输出 <think> 推理块
var thinkingPattern = regexp.MustCompile(`(?s)<think>(.*?)</think>`)

// ThinkingResult 分离后的思考过程与正式回答
type ThinkingResult struct {
	Thinking string
	Content  string
}

// ExtractThinking 从模型输出中分离 <think> 思考块和正式回答
func ExtractThinking(content string) ThinkingResult {
	matches := thinkingPattern.FindAllStringSubmatch(content, -1)

	var thinking []string
	for _, match := range matches {
		if text := strings.TrimSpace(match[1]); text != "" {
			thinking = append(thinking, text)
		}
	}

	return ThinkingResult{
		Thinking: strings.Join(thinking, "\n\n"),
		Content:  RemoveThinking(content),
	}
}

// RemoveThinking 去除模型输出中的 <think> 思考块
func RemoveThinking(content string) string {
	return strings.TrimSpace(thinkingPattern.ReplaceAllString(content, ""))
}
