package rag

import "errors"

var (
	// ErrEmptyInput 表示调用方传入了空文本/空批次（调用方错误，不重试）。
	ErrEmptyInput = errors.New("input is empty")
	// ErrDimensionMismatch 表示两个向量维度不一致。
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)
