// Package storage 定义存储接口与领域错误
package storage

import "errors"

// 存储层领域错误
//
// 各后端（mongostore / repository）将驱动错误规整为这些哨兵错误，
// handler 层据此映射 HTTP 状态码。
var (
	// ErrNotFound 实体不存在
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate 唯一键冲突（如重复注册邮箱）
	ErrDuplicate = errors.New("duplicate: entity already exists")
)
