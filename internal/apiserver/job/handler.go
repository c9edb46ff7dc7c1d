// Package job 职位资源的 HTTP 处理器：列表查询、CRUD、图片上传
package job

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"job-board/internal/apiserver/auth"
	"job-board/internal/shared/model"
	"job-board/internal/shared/storage"
)

// ImageHost 图片托管协作方（objstore.Client 实现）
type ImageHost interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	Destroy(ctx context.Context, key string) error
	URL(key string) string
}

// Handler 职位 HTTP 处理器
type Handler struct {
	jobs     storage.JobStore
	users    storage.UserStore
	images   ImageHost // 可为 nil（未配置对象存储时拒绝带图请求）
	auth     *auth.Handler
	maxBytes int64
}

// NewHandler 创建职位处理器
// maxUploadBytes ≤0 时使用默认 5MB 上限
func NewHandler(jobs storage.JobStore, users storage.UserStore, images ImageHost, authHandler *auth.Handler, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		jobs:     jobs,
		users:    users,
		images:   images,
		auth:     authHandler,
		maxBytes: maxUploadBytes,
	}
}

// RegisterRoutes 注册职位相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /jobs", h.List)
	mux.HandleFunc("GET /jobs/{id}", h.Get)
	mux.Handle("POST /jobs", h.auth.Protect(http.HandlerFunc(h.Create)))
	mux.Handle("PUT /jobs/{id}", h.auth.Protect(http.HandlerFunc(h.Update)))
	mux.Handle("DELETE /jobs/{id}", h.auth.Protect(http.HandlerFunc(h.Delete)))
	mux.Handle("POST /jobs/upload", h.auth.Protect(http.HandlerFunc(h.UploadImage)))
}

// ============================================================================
// 读接口
// ============================================================================

// List 职位列表（过滤 + 全文检索 + 排序 + 分页）
// GET /jobs
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	query := ParseListQuery(r.URL.Query())

	jobs, total, err := h.jobs.ListJobs(r.Context(), query.Filter)
	if err != nil {
		log.Printf("[job.list] ListJobs error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	if err := h.resolveOwners(r.Context(), jobs); err != nil {
		log.Printf("[job.list] resolveOwners error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"count":      len(jobs),
		"total":      total,
		"pagination": query.Pagination(total),
		"jobs":       jobs,
	})
}

// Get 按 ID 获取单个职位
// GET /jobs/{id}
//
// ID 格式非法与记录不存在对外表现一致（同一个 404）。
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.jobs.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[job.get] GetJob error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}

	if err := h.resolveOwners(r.Context(), []*model.Job{job}); err != nil {
		log.Printf("[job.get] resolveOwners error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"job":     job,
	})
}

// ============================================================================
// 写接口（Protect 之后，调用方身份由 context 提供）
// ============================================================================

// Create 发布职位
// POST /jobs（multipart，image 字段可选）
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	if err := h.parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	now := time.Now()
	job := &model.Job{
		ID:        generateID("job"),
		UserID:    user.ID,
		Status:    model.JobStatusOpen,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if msg := applyFormFields(job, r, false); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// 图片先上传再落库，上传失败时不产生半成品记录
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		key, url, msg := h.uploadImageFile(r.Context(), file, header)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if key == "" {
			writeError(w, http.StatusInternalServerError, "Image upload failed")
			return
		}
		job.ImagePublicID = key
		job.ImageURL = url
	}

	if err := h.jobs.CreateJob(r.Context(), job); err != nil {
		log.Printf("[job.create] CreateJob error: %v", err)
		// 落库失败时回收已上传的图片
		if job.ImagePublicID != "" {
			if derr := h.images.Destroy(r.Context(), job.ImagePublicID); derr != nil {
				log.Printf("[job.create] orphan image cleanup error: %v", derr)
			}
		}
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	job.User = &model.JobOwner{ID: user.ID, Name: user.Name, Company: user.Company}
	log.Printf("[job] Created: %s (%s) by %s", job.Title, job.ID, user.ID)
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"job":     job,
	})
}

// Update 更新职位（任意字段子集）
// PUT /jobs/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[job.update] GetJob error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if !job.OwnedBy(user) {
		writeError(w, http.StatusForbidden, "Not authorized to update this job")
		return
	}

	if err := h.parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}
	if msg := applyFormFields(job, r, true); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	// 图片替换：先上传新图再删旧图。上传失败时旧图保留，
	// 记录不会指向已删除的对象。
	oldKey := job.ImagePublicID
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		key, url, msg := h.uploadImageFile(r.Context(), file, header)
		if msg != "" {
			writeError(w, http.StatusBadRequest, msg)
			return
		}
		if key == "" {
			writeError(w, http.StatusInternalServerError, "Image upload failed")
			return
		}
		job.ImagePublicID = key
		job.ImageURL = url
	}

	job.UpdatedAt = time.Now()
	if err := h.jobs.UpdateJob(r.Context(), job); err != nil {
		// 落库失败时回收刚上传的新图，旧图继续有效
		if job.ImagePublicID != "" && job.ImagePublicID != oldKey {
			if derr := h.images.Destroy(r.Context(), job.ImagePublicID); derr != nil {
				log.Printf("[job.update] orphan image cleanup error: %v", derr)
			}
		}
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		log.Printf("[job.update] UpdateJob error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	// 落库成功后才释放旧图（尽力而为）
	if oldKey != "" && oldKey != job.ImagePublicID {
		if err := h.images.Destroy(r.Context(), oldKey); err != nil {
			log.Printf("[job.update] old image cleanup error: %v", err)
		}
	}

	if err := h.resolveOwners(r.Context(), []*model.Job{job}); err != nil {
		log.Printf("[job.update] resolveOwners error: %v", err)
	}
	log.Printf("[job] Updated: %s by %s", job.ID, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"job":     job,
	})
}

// Delete 删除职位
// DELETE /jobs/{id}
//
// 带图职位先释放外部图片再删记录。
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	user := auth.GetAuthUser(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		log.Printf("[job.delete] GetJob error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, "Job not found")
		return
	}
	if !job.OwnedBy(user) {
		writeError(w, http.StatusForbidden, "Not authorized to delete this job")
		return
	}

	if job.ImagePublicID != "" && h.images != nil {
		if err := h.images.Destroy(r.Context(), job.ImagePublicID); err != nil {
			log.Printf("[job.delete] Destroy image error: %v", err)
			writeError(w, http.StatusInternalServerError, "Internal error")
			return
		}
	}

	if err := h.jobs.DeleteJob(r.Context(), job.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found")
			return
		}
		log.Printf("[job.delete] DeleteJob error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}

	log.Printf("[job] Deleted: %s by %s", job.ID, user.ID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Job deleted successfully",
	})
}

// UploadImage 独立图片上传接口
// POST /jobs/upload（multipart，image 字段必填）
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if err := h.parseForm(r); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Please upload a file")
		return
	}
	defer file.Close()

	key, url, msg := h.uploadImageFile(r.Context(), file, header)
	if msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if key == "" {
		writeError(w, http.StatusInternalServerError, "Image upload failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"url":       url,
		"public_id": key,
	})
}

// ============================================================================
// 内部辅助
// ============================================================================

func (h *Handler) parseForm(r *http.Request) error {
	// 表单整体上限留出字段余量
	return r.ParseMultipartForm(h.maxBytes + 1<<20)
}

// uploadImageFile 校验并上传图片
// 返回 (key, url, "") 成功；("", "", msg) 校验失败；("", "", "") 上传失败
func (h *Handler) uploadImageFile(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, string, string) {
	if h.images == nil {
		return "", "", "Image uploads are not enabled"
	}
	if header.Size > h.maxBytes {
		return "", "", fmt.Sprintf("Please upload an image less than %dMB", h.maxBytes>>20)
	}
	contentType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", "", "Please upload an image file"
	}

	key := "jobs/" + generateID("img") + strings.ToLower(path.Ext(header.Filename))
	if err := h.images.Upload(ctx, key, file, header.Size, contentType); err != nil {
		log.Printf("[job.upload] Upload error: %v", err)
		return "", "", ""
	}
	return key, h.images.URL(key), ""
}

// resolveOwners 批量解析发布者投影（只含 name/company）
func (h *Handler) resolveOwners(ctx context.Context, jobs []*model.Job) error {
	if len(jobs) == 0 {
		return nil
	}
	seen := make(map[string]bool)
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		if j.UserID != "" && !seen[j.UserID] {
			seen[j.UserID] = true
			ids = append(ids, j.UserID)
		}
	}
	users, err := h.users.GetUsersByIDs(ctx, ids)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		if u, ok := users[j.UserID]; ok {
			j.User = &model.JobOwner{ID: u.ID, Name: u.Name, Company: u.Company}
		}
	}
	return nil
}

// applyFormFields 将表单字段写入职位记录
// partial 为 true 时只覆盖出现在表单里的字段；返回非空串表示校验失败
func applyFormFields(job *model.Job, r *http.Request, partial bool) string {
	has := func(key string) bool {
		if !partial {
			return true
		}
		_, ok := r.MultipartForm.Value[key]
		return ok
	}

	if has("title") {
		job.Title = strings.TrimSpace(r.FormValue("title"))
	}
	if has("description") {
		job.Description = strings.TrimSpace(r.FormValue("description"))
	}
	if has("salary") {
		job.Salary = strings.TrimSpace(r.FormValue("salary"))
	}
	if has("category") {
		job.Category = strings.TrimSpace(r.FormValue("category"))
	}
	if has("company") {
		job.Company = strings.TrimSpace(r.FormValue("company"))
	}
	if has("location") {
		job.Location = strings.TrimSpace(r.FormValue("location"))
	}
	if has("status") {
		if s := model.JobStatus(r.FormValue("status")); s != "" {
			job.Status = s
		}
	}
	if has("applicationDeadline") {
		raw := strings.TrimSpace(r.FormValue("applicationDeadline"))
		if raw == "" {
			job.ApplicationDeadline = nil
		} else {
			deadline, err := parseDeadline(raw)
			if err != nil {
				return "Invalid application deadline"
			}
			job.ApplicationDeadline = &deadline
		}
	}

	return validateJob(job)
}

func parseDeadline(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date: %q", raw)
}

// validateJob 校验必填字段与枚举值，长度限制按字符数而非字节数
func validateJob(job *model.Job) string {
	switch {
	case job.Title == "":
		return "Please provide a job title"
	case utf8.RuneCountInString(job.Title) > model.MaxTitleLen:
		return fmt.Sprintf("Title cannot be more than %d characters", model.MaxTitleLen)
	case job.Description == "":
		return "Please provide a job description"
	case utf8.RuneCountInString(job.Description) > model.MaxDescriptionLen:
		return fmt.Sprintf("Description cannot be more than %d characters", model.MaxDescriptionLen)
	case job.Salary == "":
		return "Please provide a salary"
	case job.Company == "":
		return "Please provide a company name"
	case job.Location == "":
		return "Please provide a location"
	case !model.ValidCategory(job.Category):
		return "Please select a valid category"
	case !job.Status.Valid():
		return "Invalid job status"
	}
	return ""
}
