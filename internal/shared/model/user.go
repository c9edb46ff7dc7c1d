package model

import "time"

// UserRole 用户角色
//
// role 实际为自由文本（注册时由调用方指定），admin 为保留角色，
// 只能通过启动时的 ADMIN_EMAIL 引导创建。
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleEmployer UserRole = "employer"
	UserRoleUser     UserRole = "user"
)

// User 用户
type User struct {
	ID           string    `json:"id" bson:"_id" db:"id"`
	Name         string    `json:"name" bson:"name" db:"name"`
	Email        string    `json:"email" bson:"email" db:"email"`
	PasswordHash string    `json:"-" bson:"password_hash" db:"password_hash"` // never expose in JSON
	Role         UserRole  `json:"role" bson:"role" db:"role"`
	Company      string    `json:"company,omitempty" bson:"company" db:"company"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at" db:"updated_at"`
}

// PublicUser 用户的公开投影（注册/登录/me 响应使用，绝不包含密码哈希）
type PublicUser struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    UserRole `json:"role"`
	Company string   `json:"company,omitempty"`
}

// Public 返回用户的公开投影
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:      u.ID,
		Name:    u.Name,
		Email:   u.Email,
		Role:    u.Role,
		Company: u.Company,
	}
}

// IsAdmin 是否为管理员
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}
