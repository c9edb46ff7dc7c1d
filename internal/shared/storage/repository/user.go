package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"job-board/internal/shared/model"
	"job-board/internal/shared/storage"
)

const userColumns = "id, name, email, password_hash, role, company, created_at, updated_at"

// CreateUser 创建用户
// 邮箱唯一约束冲突时返回 storage.ErrDuplicate
func (r *Store) CreateUser(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO users (id, name, email, password_hash, role, company, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		user.ID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.Company, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return storage.ErrDuplicate
	}
	return err
}

// GetUserByEmail 通过邮箱查找用户，不存在时返回 (nil, nil)
func (r *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE email = $1`), email))
}

// GetUserByID 通过 ID 查找用户，不存在时返回 (nil, nil)
func (r *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE id = $1`), id))
}

// ListUsers 返回全部用户，按创建时间倒序（管理面使用）
func (r *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Role, &u.Company, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetUsersByIDs 批量查找用户，返回 id -> user 映射（用于 owner 投影解析）
func (r *Store) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*model.User, error) {
	result := make(map[string]*model.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(
		`SELECT `+userColumns+` FROM users WHERE id IN (`+strings.Join(placeholders, ", ")+`)`), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		u := &model.User{}
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
			&u.Role, &u.Company, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result[u.ID] = u
	}
	return result, rows.Err()
}

func (r *Store) scanUser(row *sql.Row) (*model.User, error) {
	u := &model.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash,
		&u.Role, &u.Company, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// isUniqueViolation 判断是否为唯一约束冲突
// pgx 报 SQLSTATE 23505，modernc sqlite 报 "UNIQUE constraint failed"
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key")
}
