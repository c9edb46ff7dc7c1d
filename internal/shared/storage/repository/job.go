package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"job-board/internal/shared/model"
	"job-board/internal/shared/storage"
)

const jobColumns = `id, title, description, salary, category, company, location,
	image_url, image_public_id, user_id, status, application_deadline, created_at, updated_at`

// CreateJob 创建职位
func (r *Store) CreateJob(ctx context.Context, job *model.Job) error {
	_, err := r.db.ExecContext(ctx, r.rebind(
		`INSERT INTO jobs (`+jobColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`),
		job.ID, job.Title, job.Description, job.Salary, job.Category,
		job.Company, job.Location, job.ImageURL, job.ImagePublicID,
		job.UserID, job.Status, job.ApplicationDeadline, job.CreatedAt, job.UpdatedAt,
	)
	return err
}

// GetJob 查找职位，不存在时返回 (nil, nil)
func (r *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`), id)

	job, err := scanJob(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ListJobs 按条件分页查询职位，返回 (当前页记录, 匹配总数)
//
// Search 通过 LIKE 匹配 title/description（SQL 后端的文本检索原语）。
func (r *Store) ListJobs(ctx context.Context, filter storage.JobFilter) ([]*model.Job, int, error) {
	var conds []string
	var args []interface{}

	addCond := func(expr, value string) {
		args = append(args, value)
		conds = append(conds, expr+" = $"+strconv.Itoa(len(args)))
	}
	if filter.Category != "" {
		addCond("category", filter.Category)
	}
	if filter.Status != "" {
		addCond("status", filter.Status)
	}
	if filter.Company != "" {
		addCond("company", filter.Company)
	}
	if filter.Location != "" {
		addCond("location", filter.Location)
	}
	if filter.Search != "" {
		like := r.dialect.CaseInsensitiveLike()
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
		n := len(args)
		conds = append(conds, "(title "+like+" $"+strconv.Itoa(n-1)+" OR description "+like+" $"+strconv.Itoa(n)+")")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, r.rebind(
		`SELECT COUNT(*) FROM jobs`+where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + jobColumns + ` FROM jobs` + where + orderClause(filter.Sort)
	if filter.Limit > 0 {
		query += " LIMIT " + strconv.Itoa(filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET " + strconv.Itoa(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, r.rebind(query), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	jobs := []*model.Job{}
	for rows.Next() {
		job, err := scanJob(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		jobs = append(jobs, job)
	}
	return jobs, total, rows.Err()
}

// UpdateJob 整体更新职位记录
func (r *Store) UpdateJob(ctx context.Context, job *model.Job) error {
	res, err := r.db.ExecContext(ctx, r.rebind(
		`UPDATE jobs SET title = $1, description = $2, salary = $3, category = $4,
		 company = $5, location = $6, image_url = $7, image_public_id = $8,
		 status = $9, application_deadline = $10, updated_at = $11
		 WHERE id = $12`),
		job.Title, job.Description, job.Salary, job.Category,
		job.Company, job.Location, job.ImageURL, job.ImagePublicID,
		job.Status, job.ApplicationDeadline, job.UpdatedAt, job.ID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteJob 删除职位
func (r *Store) DeleteJob(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, r.rebind(`DELETE FROM jobs WHERE id = $1`), id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// orderClause 将排序键转换为 ORDER BY 子句，未知键不排序
func orderClause(sort string) string {
	switch sort {
	case storage.SortDateDesc:
		return " ORDER BY created_at DESC"
	case storage.SortDateAsc:
		return " ORDER BY created_at ASC"
	case storage.SortSalaryDesc:
		return " ORDER BY salary DESC"
	case storage.SortSalaryAsc:
		return " ORDER BY salary ASC"
	}
	return ""
}

// scanJob 从行扫描函数构造 Job（application_deadline 可为 NULL）
func scanJob(scan func(dest ...interface{}) error) (*model.Job, error) {
	job := &model.Job{}
	var deadline sql.NullTime
	err := scan(&job.ID, &job.Title, &job.Description, &job.Salary, &job.Category,
		&job.Company, &job.Location, &job.ImageURL, &job.ImagePublicID,
		&job.UserID, &job.Status, &deadline, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if deadline.Valid {
		job.ApplicationDeadline = &deadline.Time
	}
	return job, nil
}
