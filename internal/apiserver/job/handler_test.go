package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"job-board/internal/apiserver/auth"
	"job-board/internal/shared/model"
	"job-board/internal/shared/storage"
)

// ============================================================================
// 内存 fakes
// ============================================================================

type fakeJobStore struct {
	mu        sync.Mutex
	jobs      []*model.Job
	updateErr error
}

func (f *fakeJobStore) CreateJob(_ context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *job
	f.jobs = append(f.jobs, &cp)
	return nil
}

func (f *fakeJobStore) GetJob(_ context.Context, id string) (*model.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, j := range f.jobs {
		if j.ID == id {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeJobStore) ListJobs(_ context.Context, filter storage.JobFilter) ([]*model.Job, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []*model.Job
	for _, j := range f.jobs {
		if filter.Category != "" && j.Category != filter.Category {
			continue
		}
		if filter.Status != "" && string(j.Status) != filter.Status {
			continue
		}
		if filter.Company != "" && j.Company != filter.Company {
			continue
		}
		if filter.Location != "" && j.Location != filter.Location {
			continue
		}
		if filter.Search != "" {
			needle := strings.ToLower(filter.Search)
			if !strings.Contains(strings.ToLower(j.Title), needle) &&
				!strings.Contains(strings.ToLower(j.Description), needle) {
				continue
			}
		}
		matched = append(matched, j)
	}

	switch filter.Sort {
	case storage.SortDateDesc:
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].CreatedAt.After(matched[b].CreatedAt) })
	case storage.SortDateAsc:
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].CreatedAt.Before(matched[b].CreatedAt) })
	case storage.SortSalaryDesc:
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].Salary > matched[b].Salary })
	case storage.SortSalaryAsc:
		sort.SliceStable(matched, func(a, b int) bool { return matched[a].Salary < matched[b].Salary })
	}

	total := len(matched)
	if filter.Offset >= total {
		return nil, total, nil
	}
	matched = matched[filter.Offset:]
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}

	page := make([]*model.Job, len(matched))
	for i, j := range matched {
		cp := *j
		page[i] = &cp
	}
	return page, total, nil
}

func (f *fakeJobStore) UpdateJob(_ context.Context, job *model.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, j := range f.jobs {
		if j.ID == job.ID {
			cp := *job
			f.jobs[i] = &cp
			return nil
		}
	}
	return storage.ErrNotFound
}

func (f *fakeJobStore) DeleteJob(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, j := range f.jobs {
		if j.ID == id {
			f.jobs = append(f.jobs[:i], f.jobs[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeUserStore struct {
	users map[string]*model.User
}

func (f *fakeUserStore) CreateUser(_ context.Context, user *model.User) error {
	f.users[user.ID] = user
	return nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	return f.users[id], nil
}

func (f *fakeUserStore) ListUsers(_ context.Context) ([]*model.User, error) {
	users := []*model.User{}
	for _, u := range f.users {
		users = append(users, u)
	}
	return users, nil
}

func (f *fakeUserStore) GetUsersByIDs(_ context.Context, ids []string) (map[string]*model.User, error) {
	result := make(map[string]*model.User)
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			result[id] = u
		}
	}
	return result, nil
}

// fakeImageHost 记录上传与删除调用
type fakeImageHost struct {
	mu        sync.Mutex
	objects   map[string]bool
	destroyed []string
	uploadErr error
}

func newFakeImageHost() *fakeImageHost {
	return &fakeImageHost{objects: make(map[string]bool)}
}

func (f *fakeImageHost) Upload(_ context.Context, key string, _ io.Reader, _ int64, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return f.uploadErr
	}
	f.objects[key] = true
	return nil
}

func (f *fakeImageHost) Destroy(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	f.destroyed = append(f.destroyed, key)
	return nil
}

func (f *fakeImageHost) URL(key string) string {
	return "http://img.test/job-board/" + key
}

// ============================================================================
// 测试脚手架
// ============================================================================

type fixture struct {
	h      *Handler
	jobs   *fakeJobStore
	users  *fakeUserStore
	images *fakeImageHost
	owner  *model.User
	other  *model.User
	admin  *model.User
}

func newFixture() *fixture {
	users := &fakeUserStore{users: make(map[string]*model.User)}
	owner := &model.User{ID: "usr-owner", Name: "Jane", Email: "jane@example.com", Company: "Acme", Role: model.UserRoleEmployer}
	other := &model.User{ID: "usr-other", Name: "Bob", Email: "bob@example.com", Role: model.UserRoleUser}
	admin := &model.User{ID: "usr-admin", Name: "Root", Email: "admin@example.com", Role: model.UserRoleAdmin}
	for _, u := range []*model.User{owner, other, admin} {
		users.users[u.ID] = u
	}

	jobs := &fakeJobStore{}
	images := newFakeImageHost()
	return &fixture{
		h:      NewHandler(jobs, users, images, &auth.Handler{}, 5<<20),
		jobs:   jobs,
		users:  users,
		images: images,
		owner:  owner,
		other:  other,
		admin:  admin,
	}
}

func (fx *fixture) seedJob(t *testing.T, title, category, salary string, createdAt time.Time) *model.Job {
	t.Helper()
	job := &model.Job{
		ID:          generateID("job"),
		Title:       title,
		Description: "A role doing " + title + " work",
		Salary:      salary,
		Category:    category,
		Company:     "Acme",
		Location:    "Remote",
		UserID:      fx.owner.ID,
		Status:      model.JobStatusOpen,
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	if err := fx.jobs.CreateJob(t.Context(), job); err != nil {
		t.Fatal(err)
	}
	return job
}

// multipartBody 构造 multipart 表单体
func multipartBody(t *testing.T, fields map[string]string, imageName string, imageSize int, imageType string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if imageName != "" {
		hdr := make(map[string][]string)
		hdr["Content-Disposition"] = []string{fmt.Sprintf(`form-data; name="image"; filename="%s"`, imageName)}
		hdr["Content-Type"] = []string{imageType}
		part, err := mw.CreatePart(hdr)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(bytes.Repeat([]byte{0xAB}, imageSize))
	}
	mw.Close()
	return buf, mw.FormDataContentType()
}

func validFields() map[string]string {
	return map[string]string{
		"title":       "Backend Engineer",
		"description": "Build and run the listing API",
		"salary":      "$100K-$120K",
		"category":    "Technology",
		"company":     "Acme",
		"location":    "Remote",
	}
}

func asUser(req *http.Request, user *model.User) *http.Request {
	return req.WithContext(auth.WithAuthUser(req.Context(), user))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, w.Body.String())
	}
	return m
}

// ============================================================================
// 列表与单条读取
// ============================================================================

func TestList_Pagination(t *testing.T) {
	fx := newFixture()
	base := time.Now().Add(-time.Hour)
	for i := 0; i < 23; i++ {
		fx.seedJob(t, fmt.Sprintf("Engineer %02d", i), "Technology", "$100K", base.Add(time.Duration(i)*time.Minute))
	}

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantTotal int
		wantPages int
	}{
		{"default page", "", 10, 23, 3},
		{"second page", "?page=2&limit=10", 10, 23, 3},
		{"last partial page", "?page=3&limit=10", 3, 23, 3},
		{"beyond last page", "?page=9&limit=10", 0, 23, 3},
		{"small limit", "?page=1&limit=4", 4, 23, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/jobs"+tt.query, nil)
			w := httptest.NewRecorder()
			fx.h.List(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
			}
			body := decode(t, w)
			jobs, _ := body["jobs"].([]interface{})
			if len(jobs) != tt.wantCount {
				t.Errorf("len(jobs) = %d, want %d", len(jobs), tt.wantCount)
			}
			if int(body["count"].(float64)) != tt.wantCount {
				t.Errorf("count = %v, want %d", body["count"], tt.wantCount)
			}
			if int(body["total"].(float64)) != tt.wantTotal {
				t.Errorf("total = %v, want %d", body["total"], tt.wantTotal)
			}
			pagination, _ := body["pagination"].(map[string]interface{})
			if int(pagination["totalPages"].(float64)) != tt.wantPages {
				t.Errorf("totalPages = %v, want %d", pagination["totalPages"], tt.wantPages)
			}
		})
	}
}

func TestList_FiltersAndSearch(t *testing.T) {
	fx := newFixture()
	now := time.Now()
	fx.seedJob(t, "Backend Engineer", "Technology", "$120K", now)
	fx.seedJob(t, "Nurse", "Healthcare", "$80K", now)
	fx.seedJob(t, "Frontend Engineer", "Technology", "$110K", now)

	tests := []struct {
		name      string
		query     string
		wantTotal int
	}{
		{"category filter", "?category=Technology", 2},
		{"no match", "?category=Finance", 0},
		{"search term", "?search=engineer", 2},
		{"search plus filter", "?search=backend&category=Technology", 1},
		{"unknown key ignored", "?flavor=spicy", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/jobs"+tt.query, nil)
			w := httptest.NewRecorder()
			fx.h.List(w, req)
			body := decode(t, w)
			if int(body["total"].(float64)) != tt.wantTotal {
				t.Errorf("total = %v, want %d", body["total"], tt.wantTotal)
			}
		})
	}
}

func TestList_OwnerProjection(t *testing.T) {
	fx := newFixture()
	fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())

	req := httptest.NewRequest("GET", "/jobs", nil)
	w := httptest.NewRecorder()
	fx.h.List(w, req)

	body := decode(t, w)
	jobs, _ := body["jobs"].([]interface{})
	if len(jobs) != 1 {
		t.Fatalf("len(jobs) = %d", len(jobs))
	}
	job, _ := jobs[0].(map[string]interface{})
	user, _ := job["user"].(map[string]interface{})
	if user == nil {
		t.Fatal("owner projection missing")
	}
	if user["name"] != "Jane" || user["company"] != "Acme" {
		t.Errorf("projection = %v", user)
	}
	if _, leaked := user["email"]; leaked {
		t.Error("owner email must not be serialized")
	}
	if _, leaked := job["user_id"]; leaked {
		t.Error("raw user_id must not be serialized")
	}
}

func TestGet(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())

	req := httptest.NewRequest("GET", "/jobs/"+seeded.ID, nil)
	req.SetPathValue("id", seeded.ID)
	w := httptest.NewRecorder()
	fx.h.Get(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	job, _ := body["job"].(map[string]interface{})
	if job["id"] != seeded.ID || job["title"] != "Backend Engineer" {
		t.Errorf("job = %v", job)
	}
}

// 不存在的 ID 与乱格式的 ID 对外是同一个 404
func TestGet_NotFound(t *testing.T) {
	fx := newFixture()
	for _, id := range []string{"job-000000000000", "not!an!id"} {
		req := httptest.NewRequest("GET", "/jobs/x", nil)
		req.SetPathValue("id", id)
		w := httptest.NewRecorder()
		fx.h.Get(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("id %q: status = %d, want 404", id, w.Code)
		}
		body := decode(t, w)
		if body["message"] != "Job not found" {
			t.Errorf("id %q: message = %v", id, body["message"])
		}
	}
}

// ============================================================================
// 创建
// ============================================================================

func TestCreate(t *testing.T) {
	fx := newFixture()
	body, contentType := multipartBody(t, validFields(), "", 0, "")

	req := asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	job, _ := resp["job"].(map[string]interface{})
	if job["title"] != "Backend Engineer" || job["salary"] != "$100K-$120K" || job["category"] != "Technology" {
		t.Errorf("job = %v", job)
	}
	if job["status"] != "open" {
		t.Errorf("default status = %v, want open", job["status"])
	}
	if job["id"] == nil || job["created_at"] == nil {
		t.Error("server-assigned id/timestamps missing")
	}

	// 往返：按 ID 取回同样字段
	id, _ := job["id"].(string)
	stored, err := fx.jobs.GetJob(t.Context(), id)
	if err != nil || stored == nil {
		t.Fatalf("stored job missing: %v", err)
	}
	if stored.Title != "Backend Engineer" || stored.Company != "Acme" || stored.Location != "Remote" {
		t.Errorf("stored = %+v", stored)
	}
	if stored.UserID != fx.owner.ID {
		t.Errorf("owner = %q, want %q", stored.UserID, fx.owner.ID)
	}
}

func TestCreate_Validation(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing title", func(f map[string]string) { delete(f, "title") }},
		{"title too long", func(f map[string]string) { f["title"] = strings.Repeat("x", 101) }},
		{"missing description", func(f map[string]string) { delete(f, "description") }},
		{"description too long", func(f map[string]string) { f["description"] = strings.Repeat("x", 5001) }},
		{"missing salary", func(f map[string]string) { delete(f, "salary") }},
		{"missing company", func(f map[string]string) { delete(f, "company") }},
		{"missing location", func(f map[string]string) { delete(f, "location") }},
		{"bad category", func(f map[string]string) { f["category"] = "Astrology" }},
		{"bad status", func(f map[string]string) { f["status"] = "archived" }},
		{"bad deadline", func(f map[string]string) { f["applicationDeadline"] = "soon" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := validFields()
			tt.mutate(fields)
			body, contentType := multipartBody(t, fields, "", 0, "")
			req := asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			fx.h.Create(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400; body: %s", w.Code, w.Body.String())
			}
		})
	}
}

// 长度上限按字符数计：120 字节的 40 字中文标题合法
func TestCreate_MultibyteLengths(t *testing.T) {
	fx := newFixture()

	fields := validFields()
	fields["title"] = strings.Repeat("工", 40)
	body, contentType := multipartBody(t, fields, "", 0, "")
	req := asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Create(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("40-rune title: status = %d, want 201; body: %s", w.Code, w.Body.String())
	}

	// 101 个字符仍然超限
	fields = validFields()
	fields["title"] = strings.Repeat("工", 101)
	body, contentType = multipartBody(t, fields, "", 0, "")
	req = asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w = httptest.NewRecorder()
	fx.h.Create(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("101-rune title: status = %d, want 400", w.Code)
	}
}

func TestCreate_WithImage(t *testing.T) {
	fx := newFixture()
	body, contentType := multipartBody(t, validFields(), "logo.png", 1024, "image/png")

	req := asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Create(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	job, _ := resp["job"].(map[string]interface{})
	key, _ := job["imagePublicId"].(string)
	if key == "" {
		t.Fatal("imagePublicId missing")
	}
	if !fx.images.objects[key] {
		t.Error("image not uploaded to host")
	}
	if job["imageUrl"] != fx.images.URL(key) {
		t.Errorf("imageUrl = %v", job["imageUrl"])
	}
}

func TestCreate_ImageRejected(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name        string
		size        int
		contentType string
	}{
		{"oversized", 5<<20 + 1, "image/png"},
		{"not an image", 1024, "application/pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartBody(t, validFields(), "file.bin", tt.size, tt.contentType)
			req := asUser(httptest.NewRequest("POST", "/jobs", body), fx.owner)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			fx.h.Create(w, req)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if len(fx.images.objects) != 0 {
				t.Error("rejected file must not reach the image host")
			}
		})
	}
}

// ============================================================================
// 更新与删除（属主/管理员门禁）
// ============================================================================

func TestUpdate_OwnerGate(t *testing.T) {
	fx := newFixture()

	tests := []struct {
		name   string
		caller *model.User
		want   int
	}{
		{"owner allowed", fx.owner, http.StatusOK},
		{"admin allowed", fx.admin, http.StatusOK},
		{"stranger forbidden", fx.other, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())
			body, contentType := multipartBody(t, map[string]string{"title": "Staff Engineer"}, "", 0, "")
			req := asUser(httptest.NewRequest("PUT", "/jobs/"+seeded.ID, body), tt.caller)
			req.SetPathValue("id", seeded.ID)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			fx.h.Update(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d; body: %s", w.Code, tt.want, w.Body.String())
			}
			stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
			if tt.want == http.StatusOK && stored.Title != "Staff Engineer" {
				t.Errorf("title = %q, not updated", stored.Title)
			}
			if tt.want == http.StatusForbidden && stored.Title != "Backend Engineer" {
				t.Errorf("forbidden update must not mutate: %q", stored.Title)
			}
		})
	}
}

// 部分更新只覆盖出现在表单里的字段
func TestUpdate_PartialFields(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())

	body, contentType := multipartBody(t, map[string]string{"salary": "$140K", "status": "closed"}, "", 0, "")
	req := asUser(httptest.NewRequest("PUT", "/jobs/"+seeded.ID, body), fx.owner)
	req.SetPathValue("id", seeded.ID)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
	if stored.Salary != "$140K" || stored.Status != model.JobStatusClosed {
		t.Errorf("stored = %+v", stored)
	}
	if stored.Title != "Backend Engineer" || stored.Category != "Technology" {
		t.Errorf("untouched fields changed: %+v", stored)
	}
}

// 图片替换：先上传新图，落库成功后才删旧图
func TestUpdate_ImageReplacement(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())
	seeded.ImagePublicID = "jobs/img-old.png"
	seeded.ImageURL = fx.images.URL(seeded.ImagePublicID)
	fx.images.objects[seeded.ImagePublicID] = true
	if err := fx.jobs.UpdateJob(t.Context(), seeded); err != nil {
		t.Fatal(err)
	}

	body, contentType := multipartBody(t, map[string]string{"title": "Backend Engineer"}, "new.png", 1024, "image/png")
	req := asUser(httptest.NewRequest("PUT", "/jobs/"+seeded.ID, body), fx.owner)
	req.SetPathValue("id", seeded.ID)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Update(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
	if stored.ImagePublicID == "jobs/img-old.png" || stored.ImagePublicID == "" {
		t.Errorf("image key = %q, want replacement", stored.ImagePublicID)
	}
	if !fx.images.objects[stored.ImagePublicID] {
		t.Error("new image missing from host")
	}
	if fx.images.objects["jobs/img-old.png"] {
		t.Error("old image should be released")
	}
}

// 新图上传失败时旧图保留，记录不指向已删除对象
func TestUpdate_ImageUploadFailureKeepsOld(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())
	seeded.ImagePublicID = "jobs/img-old.png"
	fx.images.objects[seeded.ImagePublicID] = true
	if err := fx.jobs.UpdateJob(t.Context(), seeded); err != nil {
		t.Fatal(err)
	}
	fx.images.uploadErr = fmt.Errorf("host unavailable")

	body, contentType := multipartBody(t, map[string]string{}, "new.png", 1024, "image/png")
	req := asUser(httptest.NewRequest("PUT", "/jobs/"+seeded.ID, body), fx.owner)
	req.SetPathValue("id", seeded.ID)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Update(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !fx.images.objects["jobs/img-old.png"] {
		t.Error("old image must survive a failed replacement")
	}
	stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
	if stored.ImagePublicID != "jobs/img-old.png" {
		t.Errorf("record image key = %q, want old key intact", stored.ImagePublicID)
	}
}

// 新图已上传但落库失败时回收新图，旧图保留
func TestUpdate_PersistFailureReleasesNewImage(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())
	seeded.ImagePublicID = "jobs/img-old.png"
	fx.images.objects[seeded.ImagePublicID] = true
	if err := fx.jobs.UpdateJob(t.Context(), seeded); err != nil {
		t.Fatal(err)
	}
	fx.jobs.updateErr = fmt.Errorf("store unavailable")

	body, contentType := multipartBody(t, map[string]string{}, "new.png", 1024, "image/png")
	req := asUser(httptest.NewRequest("PUT", "/jobs/"+seeded.ID, body), fx.owner)
	req.SetPathValue("id", seeded.ID)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.Update(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !fx.images.objects["jobs/img-old.png"] {
		t.Error("old image must survive a failed update")
	}
	// 刚上传的新图不得残留在对象存储中
	for key := range fx.images.objects {
		if key != "jobs/img-old.png" {
			t.Errorf("orphan object left behind: %s", key)
		}
	}
	if len(fx.images.destroyed) != 1 || fx.images.destroyed[0] == "jobs/img-old.png" {
		t.Errorf("destroyed = %v, want exactly the new key", fx.images.destroyed)
	}
}

func TestDelete(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())
	seeded.ImagePublicID = "jobs/img-del.png"
	fx.images.objects[seeded.ImagePublicID] = true
	if err := fx.jobs.UpdateJob(t.Context(), seeded); err != nil {
		t.Fatal(err)
	}

	req := asUser(httptest.NewRequest("DELETE", "/jobs/"+seeded.ID, nil), fx.owner)
	req.SetPathValue("id", seeded.ID)
	w := httptest.NewRecorder()
	fx.h.Delete(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	// 图片先于记录释放
	if len(fx.images.destroyed) == 0 || fx.images.destroyed[0] != "jobs/img-del.png" {
		t.Errorf("destroyed = %v", fx.images.destroyed)
	}
	stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
	if stored != nil {
		t.Error("record should be gone after delete")
	}
}

func TestDelete_Gate(t *testing.T) {
	fx := newFixture()
	seeded := fx.seedJob(t, "Backend Engineer", "Technology", "$120K", time.Now())

	req := asUser(httptest.NewRequest("DELETE", "/jobs/"+seeded.ID, nil), fx.other)
	req.SetPathValue("id", seeded.ID)
	w := httptest.NewRecorder()
	fx.h.Delete(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	stored, _ := fx.jobs.GetJob(t.Context(), seeded.ID)
	if stored == nil {
		t.Error("forbidden delete must not remove the record")
	}
}

// ============================================================================
// 独立上传接口
// ============================================================================

func TestUploadImage(t *testing.T) {
	fx := newFixture()
	body, contentType := multipartBody(t, nil, "logo.jpg", 2048, "image/jpeg")

	req := asUser(httptest.NewRequest("POST", "/jobs/upload", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.UploadImage(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body: %s", w.Code, w.Body.String())
	}
	resp := decode(t, w)
	key, _ := resp["public_id"].(string)
	if key == "" || !fx.images.objects[key] {
		t.Errorf("public_id = %q, objects = %v", key, fx.images.objects)
	}
	if resp["url"] != fx.images.URL(key) {
		t.Errorf("url = %v", resp["url"])
	}
}

func TestUploadImage_NoFile(t *testing.T) {
	fx := newFixture()
	body, contentType := multipartBody(t, map[string]string{"note": "no file"}, "", 0, "")

	req := asUser(httptest.NewRequest("POST", "/jobs/upload", body), fx.owner)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	fx.h.UploadImage(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	resp := decode(t, w)
	if resp["message"] != "Please upload a file" {
		t.Errorf("message = %v", resp["message"])
	}
}
