// Package model 定义核心数据模型
package model

import "time"

// JobStatus 职位状态
type JobStatus string

const (
	JobStatusOpen    JobStatus = "open"
	JobStatusClosed  JobStatus = "closed"
	JobStatusPending JobStatus = "pending"
)

// Valid 状态是否合法
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusOpen, JobStatusClosed, JobStatusPending:
		return true
	}
	return false
}

// JobCategories 职位分类的固定枚举集
var JobCategories = []string{
	"Technology",
	"Finance",
	"Healthcare",
	"Education",
	"Marketing",
	"Sales",
	"Design",
	"Other",
}

// ValidCategory 分类是否属于枚举集
func ValidCategory(c string) bool {
	for _, v := range JobCategories {
		if v == c {
			return true
		}
	}
	return false
}

// 字段长度约束
const (
	MaxTitleLen       = 100
	MaxDescriptionLen = 5000
)

// Job 职位记录
//
// UserID 为发布者引用；对外序列化时由 handler 层解析为 Owner 投影
// （只含 name/company，绝不泄露 email 或密码哈希）。
type Job struct {
	ID                  string     `json:"id" bson:"_id" db:"id"`
	Title               string     `json:"title" bson:"title" db:"title"`
	Description         string     `json:"description" bson:"description" db:"description"`
	Salary              string     `json:"salary" bson:"salary" db:"salary"` // 自由文本，如 "$100K-$120K"
	Category            string     `json:"category" bson:"category" db:"category"`
	Company             string     `json:"company" bson:"company" db:"company"`
	Location            string     `json:"location" bson:"location" db:"location"`
	ImageURL            string     `json:"imageUrl,omitempty" bson:"image_url" db:"image_url"`
	ImagePublicID       string     `json:"imagePublicId,omitempty" bson:"image_public_id" db:"image_public_id"`
	UserID              string     `json:"-" bson:"user_id" db:"user_id"`
	User                *JobOwner  `json:"user,omitempty" bson:"-" db:"-"`
	Status              JobStatus  `json:"status" bson:"status" db:"status"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty" bson:"application_deadline,omitempty" db:"application_deadline"`
	CreatedAt           time.Time  `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// JobOwner 职位发布者的最小投影
type JobOwner struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
}

// OwnedBy 调用者是否可以修改该职位（本人或管理员）
func (j *Job) OwnedBy(u *User) bool {
	if u == nil {
		return false
	}
	return j.UserID == u.ID || u.IsAdmin()
}
