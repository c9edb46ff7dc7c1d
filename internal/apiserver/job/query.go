package job

import (
	"net/url"
	"strconv"

	"job-board/internal/shared/storage"
)

// 分页默认值
const (
	defaultPage  = 1
	defaultLimit = 10
)

// 排序键白名单，未知值按存储默认顺序处理
var allowedSorts = map[string]bool{
	storage.SortDateDesc:   true,
	storage.SortDateAsc:    true,
	storage.SortSalaryDesc: true,
	storage.SortSalaryAsc:  true,
}

// ListQuery 解析后的列表查询参数
type ListQuery struct {
	Filter storage.JobFilter
	Page   int
	Limit  int
}

// PageInfo 分页元数据
type PageInfo struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// ParseListQuery 解析列表查询串
//
// page/limit 强制 ≥1（非数字按默认值）；过滤键白名单匹配，
// 未知键静默忽略；sort 不在白名单时回落到存储默认顺序。
func ParseListQuery(values url.Values) ListQuery {
	page := parsePositive(values.Get("page"), defaultPage)
	limit := parsePositive(values.Get("limit"), defaultLimit)

	sort := values.Get("sort")
	if !allowedSorts[sort] {
		sort = ""
	}

	return ListQuery{
		Page:  page,
		Limit: limit,
		Filter: storage.JobFilter{
			Category: values.Get("category"),
			Status:   values.Get("status"),
			Company:  values.Get("company"),
			Location: values.Get("location"),
			Search:   values.Get("search"),
			Sort:     sort,
			Limit:    limit,
			Offset:   (page - 1) * limit,
		},
	}
}

// Pagination 根据匹配总数计算分页元数据
func (q ListQuery) Pagination(total int) PageInfo {
	totalPages := (total + q.Limit - 1) / q.Limit
	return PageInfo{
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: totalPages,
	}
}

// parsePositive 解析正整数，非法或 <1 时返回 fallback
func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}
