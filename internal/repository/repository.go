package repository

import (
	"database/sql"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/config"
)

// scanner 同时适用于 *sql.Row 和 *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}
