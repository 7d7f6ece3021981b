// Package ingest 提供新闻源抓取与文档摄取服务
package ingest

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"newsrag-api/internal/domain/entity"
	"newsrag-api/pkg/errors"
)

const (
	// MinTitleRunes 标题最小长度，过滤占位条目
	MinTitleRunes = 10
	// MinDescriptionRunes 摘要最小长度，过滤无内容条目
	MinDescriptionRunes = 30
)

// ValidateDocument 校验文档是否达到入库标准；
// 不达标返回 CodeValidationFailed，调用方按条目跳过。
func ValidateDocument(doc *entity.Document) error {
	if doc == nil {
		return errors.New(errors.CodeValidationFailed, "document is nil")
	}

	title := strings.TrimSpace(doc.Title)
	if utf8.RuneCountInString(title) < MinTitleRunes {
		return errors.New(errors.CodeValidationFailed,
			fmt.Sprintf("title too short: %q", title))
	}

	description := strings.TrimSpace(doc.Description)
	if utf8.RuneCountInString(description) < MinDescriptionRunes {
		return errors.New(errors.CodeValidationFailed,
			fmt.Sprintf("description too short for %q", title))
	}

	if strings.TrimSpace(doc.Source) == "" {
		return errors.New(errors.CodeValidationFailed,
			fmt.Sprintf("missing source for %q", title))
	}

	if strings.TrimSpace(doc.URL) == "" {
		return errors.New(errors.CodeValidationFailed,
			fmt.Sprintf("missing url for %q", title))
	}

	return nil
}
