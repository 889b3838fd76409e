package handler

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.Expiration = 1

	h, err := NewHandler(cfg, nil, nil, nil)
	require.NoError(t, err)
	return h
}

func signToken(t *testing.T, secret string, userID int64, role domain.Role) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			Subject:   strconv.FormatInt(userID, 10),
		},
	})
	ss, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return ss
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
}

func TestAuth_MissingCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.auth(http.HandlerFunc(okHandler)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/catalogs", nil))

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "用户未登录", resp.Message)
}

func TestAuth_InvalidToken(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/catalogs", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signToken(t, "other-secret", 1, domain.RoleAdmin)})

	rec := httptest.NewRecorder()
	h.auth(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "无效的令牌", resp.Message)
}

func TestAuth_RequiredRole(t *testing.T) {
	h := newTestHandler(t)
	next := h.auth(h.RequiredRole([]domain.Role{domain.RoleAdmin})(http.HandlerFunc(okHandler)))

	// 管理员可以通过
	req := httptest.NewRequest(http.MethodDelete, "/catalogs/1", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signToken(t, "test-secret", 1, domain.RoleAdmin)})
	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	// 教务员权限不足
	req = httptest.NewRequest(http.MethodDelete, "/catalogs/1", nil)
	req.AddCookie(&http.Cookie{Name: authCookieName, Value: signToken(t, "test-secret", 2, domain.RoleScheduler)})
	rec = httptest.NewRecorder()
	next.ServeHTTP(rec, req)

	resp := decodeResponse(t, rec)
	assert.False(t, resp.Success)
	assert.Equal(t, "权限不足", resp.Message)
}

func TestLogout_ClearsCookie(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Logout(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, authCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.True(t, decodeResponse(t, rec).Success)
}

func TestIssueToken_AcceptedByAuth(t *testing.T) {
	h := newTestHandler(t)

	ss, expiration, err := h.issueToken(&domain.User{ID: 42, Role: domain.RoleScheduler})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiration, time.Minute)

	var role, sub string
	next := h.auth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		role = r.Context().Value(RoleCtxKey).(string)
		sub = r.Context().Value(SubCtxKey).(string)
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/my-info", nil)
	req.AddCookie(h.newAuthCookie(ss, expiration))
	rec := httptest.NewRecorder()
	next.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, string(domain.RoleScheduler), role)
	assert.Equal(t, "42", sub)
}

func TestNewAuthCookie_Production(t *testing.T) {
	h := newTestHandler(t)

	cookie := h.newAuthCookie("token", time.Now().Add(time.Hour))
	assert.True(t, cookie.HttpOnly)
	assert.False(t, cookie.Secure)

	h.config.Environment = "production"
	cookie = h.newAuthCookie("token", time.Now().Add(time.Hour))
	assert.True(t, cookie.Secure)
	assert.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
}

func TestLoadByID(t *testing.T) {
	h := newTestHandler(t)

	catalogs := map[int64]*domain.Catalog{7: {ID: 7, Name: "2025 秋季"}}
	get := func(id int64) (*domain.Catalog, error) {
		c, ok := catalogs[id]
		if !ok {
			return nil, sql.ErrNoRows
		}
		return c, nil
	}

	r := chi.NewRouter()
	r.With(loadByID(h, CatalogCtx, "目录", get)).Get("/catalogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		c := r.Context().Value(CatalogCtx).(*domain.Catalog)
		h.successResponse(w, r, "ok", c.Name)
	})

	tests := []struct {
		path    string
		success bool
		message string
	}{
		{path: "/catalogs/7", success: true, message: "ok"},
		{path: "/catalogs/abc", message: "目录ID无效"},
		{path: "/catalogs/8", message: "目录不存在"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			resp := decodeResponse(t, rec)
			assert.Equal(t, tt.success, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestCreateCatalog_RejectsInvalidCatalog(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "非法 JSON", body: `{"name":`},
		{name: "缺少名称", body: `{"courseSections":[{"id":1}],"classrooms":[{}],"timeSlots":[{}],"teachers":[{}]}`},
		{
			// 1 间教室 × 1 个时间段不足以容纳 2 个班次，在写入数据库之前就被拒绝
			name: "组合数量不足",
			body: `{
				"name": "2025 秋季",
				"courseSections": [
					{"id": 1, "courseNumber": "MATH 1010", "section": "01", "units": 3, "courseType": 1},
					{"id": 2, "courseNumber": "MATH 1010", "section": "02", "units": 3, "courseType": 1}
				],
				"classrooms": [{"roomNumber": "R101", "boardType": 1}],
				"timeSlots": [{"id": 1, "description": "MWF 9:00-9:50am"}],
				"teachers": [{"id": 7, "preference": {"maxSections": 2}, "satisfaction": {"scores": {"1": 1, "2": 1}}}]
			}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.CreateCatalog(rec, httptest.NewRequest(http.MethodPost, "/catalogs", bytes.NewBufferString(tt.body)))

			assert.Equal(t, http.StatusOK, rec.Code)
			resp := decodeResponse(t, rec)
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Message)
		})
	}
}

func TestNormalizeCatalog(t *testing.T) {
	c := &domain.Catalog{
		Classrooms: []domain.Classroom{{RoomNumber: "R101"}, {ID: 9, RoomNumber: "R102"}, {RoomNumber: "R103"}},
		Teachers:   []domain.Teacher{{ID: 7}},
	}

	normalizeCatalog(c)

	assert.EqualValues(t, 1, c.Classrooms[0].ID)
	assert.EqualValues(t, 9, c.Classrooms[1].ID)
	assert.EqualValues(t, 3, c.Classrooms[2].ID)
	assert.EqualValues(t, 7, c.Teachers[0].Preference.TeacherID)
	assert.EqualValues(t, 7, c.Teachers[0].Satisfaction.TeacherID)
	assert.NotNil(t, c.Teachers[0].Satisfaction.Scores)
}

func TestWriteXLSX(t *testing.T) {
	h := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.writeXLSX(rec, httptest.NewRequest(http.MethodGet, "/schedule-runs/1/export", nil), "课表 1.xlsx", bytes.NewBufferString("data"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename*=UTF-8''%E8%AF%BE%E8%A1%A8%201.xlsx", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "data", rec.Body.String())
}

type recordingPublisher struct {
	queue     string
	mandatory bool
	msg       amqp.Publishing
	err       error
}

func (p *recordingPublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	p.queue = key
	p.mandatory = mandatory
	p.msg = msg
	return p.err
}

func TestPublishJSON(t *testing.T) {
	h := newTestHandler(t)
	pub := &recordingPublisher{}
	h.mqChannel = pub

	require.NoError(t, h.publishJSON("schedule_run_queue", domain.ScheduleRunJob{RunID: 9}))
	assert.Equal(t, "schedule_run_queue", pub.queue)
	assert.True(t, pub.mandatory)
	assert.Equal(t, amqp.Persistent, pub.msg.DeliveryMode)
	assert.JSONEq(t, `{"runID":9}`, string(pub.msg.Body))
}

func TestPublishJSON_ReturnsPublishError(t *testing.T) {
	h := newTestHandler(t)
	brokerDown := errors.New("channel/connection is not open")
	h.mqChannel = &recordingPublisher{err: brokerDown}

	err := h.publishJSON("schedule_run_queue", domain.ScheduleRunJob{RunID: 9})
	assert.ErrorIs(t, err, brokerDown)
}
