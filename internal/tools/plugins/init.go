// Package plugins 包含所有内置工具的实现
//
// 每个工具都应该：
// 1. 实现 tools.Tool 接口
// 2. 在 init() 函数中调用 tools.DefaultManager.RegisterToolFactory() 注册自己
// 3. 提供一个 New*Tool() 工厂函数
package plugins

import (
	"de-hilfer/internal/config"
	"de-hilfer/internal/dictionary"
	"de-hilfer/internal/tools"
	"de-hilfer/internal/util"
)

// init 在包导入时自动执行，注册所有内置工具的工厂。
// 工厂在 InitializeTools 时才被调用，此时配置已加载完成。
func init() {
	tools.DefaultManager.RegisterToolFactory("get_current_time", func() tools.Tool {
		return NewClockTool()
	})

	tools.DefaultManager.RegisterToolFactory("get_entry_details", func() tools.Tool {
		path := ""
		if config.Config != nil {
			path = config.Config.Dictionary.Path
		}

		store, err := dictionary.NewFileStore(path)
		if err != nil {
			util.Warnw("词典加载失败，使用空词典", map[string]any{
				"path":  path,
				"error": err.Error(),
			})
			store, _ = dictionary.NewFileStore("")
		}

		return NewEntryDetailsTool(store)
	})

	tools.DefaultManager.RegisterToolFactory("sysinfo", func() tools.Tool {
		return NewSysInfoTool()
	})
}
