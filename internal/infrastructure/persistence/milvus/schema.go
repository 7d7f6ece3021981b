// Package milvus 提供 Milvus 向量数据库访问层实现
package milvus

import (
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// CollectionNewsDocuments 新闻文档集合
	CollectionNewsDocuments = "news_documents"
)

// NewsDocumentsSchema 新闻文档 Collection Schema
func NewsDocumentsSchema(dimension int) *entity.Schema {
	return &entity.Schema{
		CollectionName: CollectionNewsDocuments,
		Description:    "News articles for semantic retrieval",
		Fields: []*entity.Field{
			{
				Name:       "id",
				DataType:   entity.FieldTypeVarChar,
				PrimaryKey: true,
				AutoID:     false,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "vector",
				DataType: entity.FieldTypeFloatVector,
				TypeParams: map[string]string{
					"dim": strconv.Itoa(dimension),
				},
			},
			{
				Name:     "title",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "512",
				},
			},
			{
				Name:     "description",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "2048",
				},
			},
			{
				Name:     "content",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "65535",
				},
			},
			{
				Name:     "url",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "1024",
				},
			},
			{
				Name:     "source",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "256",
				},
			},
			{
				Name:     "category",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "publish_date",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
			{
				Name:     "created_at",
				DataType: entity.FieldTypeVarChar,
				TypeParams: map[string]string{
					"max_length": "64",
				},
			},
		},
	}
}

// payloadFields 检索时需要带出的标量字段
var payloadFields = []string{
	"id", "title", "description", "content", "url",
	"source", "category", "publish_date", "created_at",
}
