package ingest

import (
	"fmt"
	"sort"

	"newsrag-api/pkg/errors"
)

// Strategy 一个分类的抓取策略：分类名及其源列表
type Strategy struct {
	Category string
	FeedURLs []string
}

// StrategySet 按分类名索引的策略集合，由配置构建
type StrategySet struct {
	strategies map[string]Strategy
}

// NewStrategySet 从配置的 feeds 映射构建策略集合
func NewStrategySet(feeds map[string][]string) *StrategySet {
	strategies := make(map[string]Strategy, len(feeds))
	for category, urls := range feeds {
		if len(urls) == 0 {
			continue
		}
		strategies[category] = Strategy{
			Category: category,
			FeedURLs: urls,
		}
	}
	return &StrategySet{strategies: strategies}
}

// Get 按分类名取策略；未配置的分类返回 CodeInvalidParam
func (s *StrategySet) Get(category string) (Strategy, error) {
	strategy, ok := s.strategies[category]
	if !ok {
		return Strategy{}, errors.New(errors.CodeInvalidParam,
			fmt.Sprintf("unknown category: %s", category))
	}
	return strategy, nil
}

// Categories 返回已配置的分类名（字典序，保证遍历顺序稳定）
func (s *StrategySet) Categories() []string {
	out := make([]string, 0, len(s.strategies))
	for category := range s.strategies {
		out = append(out, category)
	}
	sort.Strings(out)
	return out
}
