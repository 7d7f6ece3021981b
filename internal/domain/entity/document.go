// Package entity 定义领域实体
package entity

import "time"

// Document 一条待索引的新闻文档
// 由摄取侧创建，提交索引后不可变；只能整体重建。
type Document struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	PublishedAt string    `json:"published_at,omitempty"` // ISO 8601
	CreatedAt   time.Time `json:"created_at"`
}

// DocumentPayload 写入向量库并随检索结果原样返回的展示字段
type DocumentPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	Category    string `json:"category,omitempty"`
	PublishDate string `json:"publish_date,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Payload 构造文档的展示载荷
func (d *Document) Payload() DocumentPayload {
	created := ""
	if !d.CreatedAt.IsZero() {
		created = d.CreatedAt.UTC().Format(time.RFC3339)
	}
	return DocumentPayload{
		Title:       d.Title,
		Description: d.Description,
		Content:     d.Content,
		URL:         d.URL,
		Source:      d.Source,
		Category:    d.Category,
		PublishDate: d.PublishedAt,
		CreatedAt:   created,
	}
}

// IndexedPoint 向量库中的持久化单元，一条 Document 对应一个点；
// 相同 id 的再次写入为覆盖。
type IndexedPoint struct {
	ID      string          `json:"id"`
	Vector  []float32       `json:"vector"`
	Payload DocumentPayload `json:"payload"`
}

// RetrievalResult 单次查询产生的瞬态结果，生命周期为一次问答
type RetrievalResult struct {
	DocumentPayload
	ID               string  `json:"id"`
	Score            float64 `json:"score"`
	RelevantSentence string  `json:"relevant_sentence,omitempty"`
}

// SourceRef 返回给调用方的来源条目，顺序与生成上下文一致
type SourceRef struct {
	Title      string  `json:"title"`
	Source     string  `json:"source"`
	URL        string  `json:"url"`
	Similarity float64 `json:"similarity"`
}

// Answer 问答结果
type Answer struct {
	Text    string      `json:"text"`
	Sources []SourceRef `json:"sources"`
}

// IndexStats 向量索引只读统计
type IndexStats struct {
	Count      int64  `json:"count"`
	Dimension  int    `json:"dimension"`
	MetricType string `json:"metric_type"`
	Status     string `json:"status"`
}

// Health 管线健康状态
type Health struct {
	Status               string `json:"status"` // healthy | unhealthy
	VectorStoreReachable bool   `json:"vector_store_reachable"`
	DocumentCount        int64  `json:"document_count"`
}
