package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/catalogio"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/utils"
)

// normalizeCatalog 补全请求中省略的冗余字段
func normalizeCatalog(c *domain.Catalog) {
	for i := range c.Classrooms {
		if c.Classrooms[i].ID == 0 {
			c.Classrooms[i].ID = int64(i + 1)
		}
	}
	for i := range c.Teachers {
		t := &c.Teachers[i]
		t.Preference.TeacherID = t.ID
		t.Satisfaction.TeacherID = t.ID
		if t.Satisfaction.Scores == nil {
			t.Satisfaction.Scores = make(map[int64]float64)
		}
	}
}

func (h *Handler) CreateCatalog(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string                 `json:"name" validate:"required,max=100"`
		Description    string                 `json:"description" validate:"max=500"`
		CourseSections []domain.CourseSection `json:"courseSections" validate:"required,min=1"`
		Classrooms     []domain.Classroom     `json:"classrooms" validate:"required,min=1"`
		TimeSlots      []domain.TimeSlot      `json:"timeSlots" validate:"required,min=1"`
		Teachers       []domain.Teacher       `json:"teachers" validate:"required,min=1"`
	}

	if err := h.readJSON(r, &req); err != nil {
		h.badRequest(w, r, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	c := &domain.Catalog{
		Name:           req.Name,
		Description:    req.Description,
		CourseSections: req.CourseSections,
		Classrooms:     req.Classrooms,
		TimeSlots:      req.TimeSlots,
		Teachers:       req.Teachers,
	}
	normalizeCatalog(c)

	if err := utils.ValidateCatalog(c); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateCatalog(c); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "创建目录成功", c)
}

// ImportCatalog 通过上传 xlsx 工作簿创建目录
func (h *Handler) ImportCatalog(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.Server.MaxUploadSize)
	if err := r.ParseMultipartForm(h.config.Server.MaxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxBytesErr):
			h.errorResponse(w, r, fmt.Sprintf("文件大小不能超过 %d 字节", maxBytesErr.Limit))
		default:
			h.badRequest(w, r, err)
		}
		return
	}

	var req struct {
		Name        string `validate:"required,max=100"`
		Description string `validate:"max=500"`
	}
	req.Name = r.FormValue("name")
	req.Description = r.FormValue("description")
	if err := h.validate.Struct(req); err != nil {
		h.badRequest(w, r, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.errorResponse(w, r, "请上传目录文件")
		return
	}
	defer file.Close()

	c, err := catalogio.ReadWorkbook(file)
	if err != nil {
		h.badRequest(w, r, err)
		return
	}
	c.Name = req.Name
	c.Description = req.Description

	if err := utils.ValidateCatalog(c); err != nil {
		h.badRequest(w, r, err)
		return
	}

	if err := h.repository.CreateCatalog(c); err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "导入目录成功", c)
}

func (h *Handler) GetAllCatalogs(w http.ResponseWriter, r *http.Request) {
	catalogs, err := h.repository.GetAllCatalogs()
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.successResponse(w, r, "获取目录列表成功", catalogs)
}

func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CatalogCtx).(*domain.Catalog)
	h.successResponse(w, r, "获取目录成功", c)
}

func (h *Handler) ExportCatalog(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CatalogCtx).(*domain.Catalog)

	buf, err := catalogio.WriteCatalog(c)
	if err != nil {
		h.internalServerError(w, r, err)
		return
	}

	h.writeXLSX(w, r, fmt.Sprintf("%s.xlsx", c.Name), buf)
}

func (h *Handler) DeleteCatalog(w http.ResponseWriter, r *http.Request) {
	c := r.Context().Value(CatalogCtx).(*domain.Catalog)

	if err := h.repository.DeleteCatalog(c.ID); err != nil {
		var pgErr *pgconn.PgError
		switch {
		case errors.As(err, &pgErr) && pgErr.ConstraintName == "schedule_runs_catalog_id_fkey":
			h.errorResponse(w, r, "该目录已有排课任务，无法删除")
		default:
			h.internalServerError(w, r, err)
		}
		return
	}

	h.successResponse(w, r, "删除目录成功", nil)
}
