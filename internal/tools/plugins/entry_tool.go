package plugins

import (
	"context"
	"encoding/json"

	"de-hilfer/internal/dictionary"
	"de-hilfer/internal/util"
)

// EntryDetailsTool 词典条目查询工具，标签为 database
type EntryDetailsTool struct {
	store dictionary.Store
}

func (e *EntryDetailsTool) Name() string { return "get_entry_details" }

func (e *EntryDetailsTool) Description() string {
	return "按词条原文或其变位形式精确查询词典条目，返回分析结果；未命中时返回 null"
}

func (e *EntryDetailsTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query_text": map[string]any{
				"type":        "string",
				"description": "要查询的德语词条",
			},
		},
		"required": []string{"query_text"},
	}
}

func (e *EntryDetailsTool) Tags() []string { return []string{"database"} }

func (e *EntryDetailsTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	queryText, ok := args["query_text"].(string)
	if !ok || queryText == "" {
		return "", util.NewError(util.ErrCodeInvalidParam, "缺少或无效的 query_text 参数")
	}

	entry := e.store.Lookup(queryText)
	if entry == nil {
		return "null", nil
	}

	result, err := json.Marshal(map[string]string{
		"query_text":        entry.QueryText,
		"analysis_markdown": entry.AnalysisMarkdown,
	})
	if err != nil {
		return "", util.WrapError(util.ErrCodeToolExecutionFailed, "序列化词条失败", err)
	}

	return string(result), nil
}

// NewEntryDetailsTool 创建词典查询工具实例
func NewEntryDetailsTool(store dictionary.Store) *EntryDetailsTool {
	return &EntryDetailsTool{store: store}
}
