package storage

import (
	"context"

	"job-board/internal/shared/model"
)

// JobSort 列表排序键（白名单，其余值按无排序处理）
const (
	SortDateDesc   = "date-desc"
	SortDateAsc    = "date-asc"
	SortSalaryDesc = "salary-desc"
	SortSalaryAsc  = "salary-asc"
)

// JobFilter 职位列表查询条件
//
// 精确匹配字段为空串表示不过滤；Search 为全文检索词；
// Limit/Offset 由 handler 层从 page/limit 换算并钳制。
type JobFilter struct {
	Category string
	Status   string
	Company  string
	Location string
	Search   string
	Sort     string
	Limit    int
	Offset   int
}

// UserStore 用户存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
}

// JobStore 职位存储接口
//
// ListJobs 返回 (当前页记录, 匹配总数)；GetJob 不存在时返回 (nil, nil)。
type JobStore interface {
	CreateJob(ctx context.Context, job *model.Job) error
	GetJob(ctx context.Context, id string) (*model.Job, error)
	ListJobs(ctx context.Context, filter JobFilter) ([]*model.Job, int, error)
	UpdateJob(ctx context.Context, job *model.Job) error
	DeleteJob(ctx context.Context, id string) error
}

// PersistentStore 持久化存储的完整接口
type PersistentStore interface {
	UserStore
	JobStore
	Close() error
}
