package plugins

import (
	"context"
	"time"
)

// ClockTool 当前时间查询工具，无标签，始终对模型可见
type ClockTool struct{}

func (c *ClockTool) Name() string { return "get_current_time" }

func (c *ClockTool) Description() string {
	return "获取当前的日期和时间"
}

func (c *ClockTool) Parameters() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{},
	}
}

func (c *ClockTool) Tags() []string { return nil }

func (c *ClockTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	return time.Now().Format("2006-01-02 15:04:05 Monday"), nil
}

// NewClockTool 创建时间查询工具实例
func NewClockTool() *ClockTool {
	return &ClockTool{}
}
