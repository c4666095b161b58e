package dictionary

import (
	"encoding/json"
	"os"
	"strings"
	"sync"

	"de-hilfer/internal/util"
)

// Entry 词典条目
type Entry struct {
	QueryText        string   `json:"query_text"`        // 词条原文
	AnalysisMarkdown string   `json:"analysis_markdown"` // 分析结果（Markdown）
	Aliases          []string `json:"aliases,omitempty"`  // 别名（变位形式等）
}

// Store 词典查询接口
type Store interface {
	// Lookup 精确查找词条或别名，未命中时返回 nil
	Lookup(queryText string) *Entry

	// Entries 返回全部词条
	Entries() []Entry
}

// FileStore 基于 JSON 文件的词典实现
type FileStore struct {
	entries []Entry
	index   map[string]int // 小写词条/别名 -> entries 下标
	mutex   sync.RWMutex
}

// NewFileStore 从 JSON 文件加载词典。路径为空时返回空词典。
func NewFileStore(path string) (*FileStore, error) {
	store := &FileStore{
		index: make(map[string]int),
	}

	if path == "" {
		return store, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, util.NewErrorWithDetail(util.ErrCodeNotFound, "词典文件未找到", path)
		}
		return nil, util.WrapError(util.ErrCodeInternalErr, "读取词典文件失败", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, util.WrapError(util.ErrCodeConfigParseFailed, "解析词典文件失败", err)
	}

	store.entries = entries
	for i, entry := range entries {
		store.index[normalize(entry.QueryText)] = i
		for _, alias := range entry.Aliases {
			key := normalize(alias)
			if _, exists := store.index[key]; !exists {
				store.index[key] = i
			}
		}
	}

	util.Infow("词典加载完成", map[string]any{
		"path":    path,
		"entries": len(entries),
	})

	return store, nil
}

// Lookup 精确查找词条或别名
func (s *FileStore) Lookup(queryText string) *Entry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	idx, exists := s.index[normalize(queryText)]
	if !exists {
		return nil
	}

	entry := s.entries[idx]
	return &entry
}

// Entries 返回全部词条
func (s *FileStore) Entries() []Entry {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	entries := make([]Entry, len(s.entries))
	copy(entries, s.entries)
	return entries
}

// normalize 词条比较前的规范化
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
