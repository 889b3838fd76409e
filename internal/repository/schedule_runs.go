package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

const scheduleRunColumns = `
	id, catalog_id, status, parameters, best_fitness, valid, requested_by, error_message, created_at, finished_at, version
`

func scanScheduleRun(s scanner) (*domain.ScheduleRun, error) {
	run := &domain.ScheduleRun{}

	var (
		parameters   []byte
		bestFitness  sql.NullFloat64
		valid        sql.NullBool
		errorMessage sql.NullString
		finishedAt   sql.NullTime
	)

	dst := []any{
		&run.ID,
		&run.CatalogID,
		&run.Status,
		&parameters,
		&bestFitness,
		&valid,
		&run.RequestedBy,
		&errorMessage,
		&run.CreatedAt,
		&finishedAt,
		&run.Version,
	}
	if err := s.Scan(dst...); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(parameters, &run.Parameters); err != nil {
		return nil, err
	}
	if bestFitness.Valid {
		run.BestFitness = &bestFitness.Float64
	}
	if valid.Valid {
		run.Valid = &valid.Bool
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	run.ErrorMessage = errorMessage.String

	return run, nil
}

func (r *Repository) CreateScheduleRun(run *domain.ScheduleRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	parameters, err := json.Marshal(run.Parameters)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO schedule_runs (catalog_id, status, parameters, requested_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`

	args := []any{run.CatalogID, run.Status, parameters, run.RequestedBy}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.ID, &run.CreatedAt, &run.Version); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetScheduleRunByID(id int64) (*domain.ScheduleRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + scheduleRunColumns + ` FROM schedule_runs WHERE id = $1`

	return scanScheduleRun(r.dbpool.QueryRowContext(ctx, query, id))
}

func (r *Repository) GetScheduleRunsByCatalogID(catalogID int64) ([]*domain.ScheduleRun, error) {
	return r.getScheduleRuns(`catalog_id = $1`, catalogID)
}

// GetScheduleRunsByRequester 返回某个用户发起的所有排课任务
func (r *Repository) GetScheduleRunsByRequester(userID int64) ([]*domain.ScheduleRun, error) {
	return r.getScheduleRuns(`requested_by = $1`, userID)
}

func (r *Repository) getScheduleRuns(condition string, arg any) ([]*domain.ScheduleRun, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `SELECT ` + scheduleRunColumns + ` FROM schedule_runs WHERE ` + condition + ` ORDER BY id DESC`

	rows, err := r.dbpool.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]*domain.ScheduleRun, 0)
	for rows.Next() {
		run, err := scanScheduleRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return runs, nil
}

// UpdateScheduleRunStatus 使用乐观锁更新状态，版本号不匹配时返回 sql.ErrNoRows
func (r *Repository) UpdateScheduleRunStatus(run *domain.ScheduleRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		UPDATE schedule_runs
		SET
			status = $1,
			error_message = $2,
			finished_at = $3,
			version = version + 1
		WHERE id = $4 AND version = $5
		RETURNING version
	`

	var errorMessage sql.NullString
	if run.ErrorMessage != "" {
		errorMessage = sql.NullString{String: run.ErrorMessage, Valid: true}
	}

	args := []any{run.Status, errorMessage, run.FinishedAt, run.ID, run.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return err
	}

	return nil
}

// InsertScheduleRunResult 在同一个事务中写入最终课表、每一代的统计信息并把运行标记为完成
func (r *Repository) InsertScheduleRunResult(run *domain.ScheduleRun) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// 先将之前的结果删除，保证重复投递的消息不会产生重复数据
	query := `DELETE FROM schedule_run_assignments WHERE run_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.ID); err != nil {
		return err
	}
	query = `DELETE FROM schedule_run_statistics WHERE run_id = $1`
	if _, err := tx.ExecContext(ctx, query, run.ID); err != nil {
		return err
	}

	for _, a := range run.Assignments {
		query = `
			INSERT INTO schedule_run_assignments (
				run_id, course_section_id, course_number, section, room_number,
				time_slot_id, time_slot_description, teacher_id, meets_preferences
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`
		params := []any{run.ID, a.CourseSectionID, a.CourseNumber, a.Section, a.RoomNumber, a.TimeSlotID, a.TimeSlotDescription, a.TeacherID, a.MeetsPreferences}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	for _, st := range run.Statistics {
		query = `
			INSERT INTO schedule_run_statistics (
				run_id, generation, total_courses, mwf_count, tr_count, mwf_percentage, tr_percentage,
				preference_adherence, preference_violation, average_satisfaction,
				average_fitness, max_fitness, duplicate_assignments, invalid_chromosomes
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		params := []any{
			run.ID, st.Generation, st.TotalCourses, st.Distribution.MWF, st.Distribution.TR,
			st.Distribution.MWFPercentage, st.Distribution.TRPercentage,
			st.PreferenceAdherence, st.PreferenceViolation, st.AverageSatisfaction,
			st.AverageFitness, st.MaxFitness, st.DuplicateAssignments, st.InvalidChromosomes,
		}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	query = `
		UPDATE schedule_runs
		SET
			status = $1,
			best_fitness = $2,
			valid = $3,
			finished_at = $4,
			version = version + 1
		WHERE id = $5 AND version = $6
		RETURNING version
	`
	args := []any{run.Status, run.BestFitness, run.Valid, run.FinishedAt, run.ID, run.Version}
	if err := tx.QueryRowContext(ctx, query, args...).Scan(&run.Version); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetScheduleRunAssignments(runID int64) ([]domain.ScheduleAssignment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT course_section_id, course_number, section, room_number, time_slot_id, time_slot_description, teacher_id, meets_preferences
		FROM schedule_run_assignments
		WHERE run_id = $1
		ORDER BY course_section_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	assignments := make([]domain.ScheduleAssignment, 0)
	for rows.Next() {
		var a domain.ScheduleAssignment
		dst := []any{&a.CourseSectionID, &a.CourseNumber, &a.Section, &a.RoomNumber, &a.TimeSlotID, &a.TimeSlotDescription, &a.TeacherID, &a.MeetsPreferences}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		assignments = append(assignments, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return assignments, nil
}

func (r *Repository) GetScheduleRunStatistics(runID int64) ([]domain.GenerationStatistics, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			generation, total_courses, mwf_count, tr_count, mwf_percentage, tr_percentage,
			preference_adherence, preference_violation, average_satisfaction,
			average_fitness, max_fitness, duplicate_assignments, invalid_chromosomes
		FROM schedule_run_statistics
		WHERE run_id = $1
		ORDER BY generation
	`

	rows, err := r.dbpool.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]domain.GenerationStatistics, 0)
	for rows.Next() {
		var st domain.GenerationStatistics
		dst := []any{
			&st.Generation, &st.TotalCourses, &st.Distribution.MWF, &st.Distribution.TR,
			&st.Distribution.MWFPercentage, &st.Distribution.TRPercentage,
			&st.PreferenceAdherence, &st.PreferenceViolation, &st.AverageSatisfaction,
			&st.AverageFitness, &st.MaxFitness, &st.DuplicateAssignments, &st.InvalidChromosomes,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
