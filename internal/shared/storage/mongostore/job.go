package mongostore

import (
	"context"

	"job-board/internal/shared/model"
	"job-board/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// JobStore
// ============================================================================

func (s *Store) CreateJob(ctx context.Context, job *model.Job) error {
	return insertOne(ctx, s.col(ColJobs), job)
}

func (s *Store) GetJob(ctx context.Context, id string) (*model.Job, error) {
	return findOne[model.Job](ctx, s.col(ColJobs), bson.D{{Key: "_id", Value: id}})
}

// ListJobs 按条件分页查询职位，返回 (当前页记录, 匹配总数)
//
// Search 使用 $text 全文索引（title + description），结果顺序交由
// MongoDB 决定；显式排序键通过 jobSort 映射为 created_at/salary 排序。
func (s *Store) ListJobs(ctx context.Context, filter storage.JobFilter) ([]*model.Job, int, error) {
	query := bson.D{}
	addEq := func(key, value string) {
		if value != "" {
			query = append(query, bson.E{Key: key, Value: value})
		}
	}
	addEq("category", filter.Category)
	addEq("status", filter.Status)
	addEq("company", filter.Company)
	addEq("location", filter.Location)
	if filter.Search != "" {
		query = append(query, bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: filter.Search}}})
	}

	total, err := s.col(ColJobs).CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find()
	if sort := jobSort(filter.Sort); sort != nil {
		opts.SetSort(sort)
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	jobs, err := findMany[model.Job](ctx, s.col(ColJobs), query, opts)
	if err != nil {
		return nil, 0, err
	}
	return jobs, int(total), nil
}

func (s *Store) UpdateJob(ctx context.Context, job *model.Job) error {
	return replaceByID(ctx, s.col(ColJobs), job.ID, job)
}

func (s *Store) DeleteJob(ctx context.Context, id string) error {
	return deleteByID(ctx, s.col(ColJobs), id)
}

// jobSort 将排序键映射为 Mongo 排序文档，未知键返回 nil（存储默认顺序）
func jobSort(sort string) bson.D {
	switch sort {
	case storage.SortDateDesc:
		return bson.D{{Key: "created_at", Value: -1}}
	case storage.SortDateAsc:
		return bson.D{{Key: "created_at", Value: 1}}
	case storage.SortSalaryDesc:
		return bson.D{{Key: "salary", Value: -1}}
	case storage.SortSalaryAsc:
		return bson.D{{Key: "salary", Value: 1}}
	}
	return nil
}
