package rag

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultMaxInputRunes 提交 Embedding 前的文本长度上限（提供商输入限制）。
const DefaultMaxInputRunes = 8000

// Normalize 清洗送入 Embedding 的原始文本：去 HTML 标签与实体、
// 压缩连续空白、去首尾空白、按默认上限截断。空输入返回空串。
func Normalize(s string) string {
	return NormalizeWithLimit(s, DefaultMaxInputRunes)
}

// NormalizeWithLimit 同 Normalize，但使用调用方指定的截断上限（<=0 表示不截断）。
func NormalizeWithLimit(s string, maxRunes int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	// 仅在可能含标签/实体时走 HTML 解析，纯文本保持原样。
	// 实体编码过的标签解码后又成为标签，循环剥离直到文本稳定。
	for strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err != nil {
			break
		}
		stripped := doc.Text()
		if stripped == s {
			break
		}
		s = stripped
	}

	s = strings.Join(strings.Fields(s), " ")
	if maxRunes > 0 {
		s = truncateRunes(s, maxRunes)
	}
	return s
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return strings.TrimSpace(string(r[:max]))
}
