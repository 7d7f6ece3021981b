package rag

import "strings"

const (
	defaultMinSentenceRunes = 20
	defaultFallbackRunes    = 300
	minQueryTokenRunes      = 2
)

// Extractor 从召回文档中抽取与查询最相关的一句话。
// 这是刻意廉价的词法启发式，不做语义重排：目的只是给生成步骤
// 一个比全文更紧的摘录，省掉第二次 Embedding 调用。
type Extractor struct {
	minSentenceRunes int
	fallbackRunes    int
}

// NewExtractor 创建抽取器；入参 <=0 时使用默认值（20 / 300）
func NewExtractor(minSentenceRunes, fallbackRunes int) *Extractor {
	if minSentenceRunes <= 0 {
		minSentenceRunes = defaultMinSentenceRunes
	}
	if fallbackRunes <= 0 {
		fallbackRunes = defaultFallbackRunes
	}
	return &Extractor{
		minSentenceRunes: minSentenceRunes,
		fallbackRunes:    fallbackRunes,
	}
}

// Extract 返回 docText 中与 query 最相关的一句。
// 句子按 .!? 切分，丢弃过短句；按包含的查询词个数计分（大小写
// 不敏感的子串匹配），并列时取先出现者。无句子得分时回退到
// description，description 为空则回退到全文前 fallbackRunes 个字符。
func (x *Extractor) Extract(docText, description, query string) string {
	sentences := splitSentences(docText)
	tokens := queryTokens(query)

	best := ""
	bestScore := 0
	for _, sentence := range sentences {
		if len([]rune(sentence)) < x.minSentenceRunes {
			continue
		}
		lower := strings.ToLower(sentence)
		score := 0
		for _, tok := range tokens {
			if strings.Contains(lower, tok) {
				score++
			}
		}
		if score > bestScore {
			best = sentence
			bestScore = score
		}
	}

	if bestScore > 0 {
		return best
	}
	if desc := strings.TrimSpace(description); desc != "" {
		return desc
	}
	return truncateRunes(strings.TrimSpace(docText), x.fallbackRunes)
}

// splitSentences 按 .!? 边界切句
func splitSentences(s string) []string {
	var out []string
	var sb strings.Builder
	for _, r := range s {
		sb.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if sent := strings.TrimSpace(sb.String()); sent != "" {
				out = append(out, sent)
			}
			sb.Reset()
		}
	}
	if sent := strings.TrimSpace(sb.String()); sent != "" {
		out = append(out, sent)
	}
	return out
}

// queryTokens 取查询中长度 >2 的小写词（过滤掉类停用词的短词）
func queryTokens(q string) []string {
	fields := strings.Fields(strings.ToLower(q))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".,!?;:\"'()")
		if len([]rune(f)) > minQueryTokenRunes {
			out = append(out, f)
		}
	}
	return out
}
