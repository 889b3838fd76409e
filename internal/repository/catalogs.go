package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/course-scheduler/backend/internal/domain"
)

func (r *Repository) CreateCatalog(c *domain.Catalog) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO catalogs (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at, version
	`
	if err := tx.QueryRowContext(ctx, query, c.Name, c.Description).Scan(&c.ID, &c.CreatedAt, &c.Version); err != nil {
		return err
	}

	for _, s := range c.CourseSections {
		query = `
			INSERT INTO catalog_course_sections (catalog_id, course_section_id, course_number, section, units, course_type)
			VALUES ($1, $2, $3, $4, $5, $6)
		`
		params := []any{c.ID, s.ID, s.CourseNumber, s.Section, s.Units, s.CourseType}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}
	}

	for _, room := range c.Classrooms {
		query = `
			INSERT INTO catalog_classrooms (catalog_id, classroom_id, room_number, board_type)
			VALUES ($1, $2, $3, $4)
		`
		if _, err := tx.ExecContext(ctx, query, c.ID, room.ID, room.RoomNumber, room.BoardType); err != nil {
			return err
		}
	}

	for _, slot := range c.TimeSlots {
		query = `
			INSERT INTO catalog_time_slots (catalog_id, time_slot_id, description)
			VALUES ($1, $2, $3)
		`
		if _, err := tx.ExecContext(ctx, query, c.ID, slot.ID, slot.Description); err != nil {
			return err
		}
	}

	for _, t := range c.Teachers {
		query = `
			INSERT INTO catalog_teachers (
				catalog_id, teacher_id, full_name, email, min_sections, max_sections,
				board_pref, time_pref, days_pref, type_pref
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		p := t.Preference
		params := []any{c.ID, t.ID, t.FullName, t.Email, p.MinSections, p.MaxSections, p.BoardPref, p.TimePref, p.DaysPref, p.TypePref}
		if _, err := tx.ExecContext(ctx, query, params...); err != nil {
			return err
		}

		for sectionID, score := range t.Satisfaction.Scores {
			query = `
				INSERT INTO catalog_teacher_satisfaction (catalog_id, teacher_id, course_section_id, score)
				VALUES ($1, $2, $3, $4)
			`
			if _, err := tx.ExecContext(ctx, query, c.ID, t.ID, sectionID, score); err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllCatalogs() ([]*domain.CatalogMeta, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		SELECT
			c.id,
			c.name,
			c.description,
			(SELECT COUNT(*) FROM catalog_course_sections ccs WHERE ccs.catalog_id = c.id),
			(SELECT COUNT(*) FROM catalog_teachers ct WHERE ct.catalog_id = c.id),
			c.created_at
		FROM catalogs c
		ORDER BY c.id DESC
	`

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	catalogs := make([]*domain.CatalogMeta, 0)
	for rows.Next() {
		c := &domain.CatalogMeta{}
		dst := []any{&c.ID, &c.Name, &c.Description, &c.CourseSectionCount, &c.TeacherCount, &c.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		catalogs = append(catalogs, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return catalogs, nil
}

// GetCatalogByID 读取完整的目录，目录不存在时返回 sql.ErrNoRows
func (r *Repository) GetCatalogByID(id int64) (*domain.Catalog, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	c := &domain.Catalog{ID: id}

	query := `SELECT name, description, created_at, version FROM catalogs WHERE id = $1`
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(&c.Name, &c.Description, &c.CreatedAt, &c.Version); err != nil {
		return nil, err
	}

	var err error
	if c.CourseSections, err = r.getCatalogCourseSections(ctx, id); err != nil {
		return nil, err
	}
	if c.Classrooms, err = r.getCatalogClassrooms(ctx, id); err != nil {
		return nil, err
	}
	if c.TimeSlots, err = r.getCatalogTimeSlots(ctx, id); err != nil {
		return nil, err
	}
	if c.Teachers, err = r.getCatalogTeachers(ctx, id); err != nil {
		return nil, err
	}

	return c, nil
}

func (r *Repository) getCatalogCourseSections(ctx context.Context, catalogID int64) ([]domain.CourseSection, error) {
	query := `
		SELECT course_section_id, course_number, section, units, course_type
		FROM catalog_course_sections
		WHERE catalog_id = $1
		ORDER BY course_section_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]domain.CourseSection, 0)
	for rows.Next() {
		var s domain.CourseSection
		if err := rows.Scan(&s.ID, &s.CourseNumber, &s.Section, &s.Units, &s.CourseType); err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}

	return sections, rows.Err()
}

func (r *Repository) getCatalogClassrooms(ctx context.Context, catalogID int64) ([]domain.Classroom, error) {
	query := `
		SELECT classroom_id, room_number, board_type
		FROM catalog_classrooms
		WHERE catalog_id = $1
		ORDER BY classroom_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]domain.Classroom, 0)
	for rows.Next() {
		var room domain.Classroom
		if err := rows.Scan(&room.ID, &room.RoomNumber, &room.BoardType); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *Repository) getCatalogTimeSlots(ctx context.Context, catalogID int64) ([]domain.TimeSlot, error) {
	query := `
		SELECT time_slot_id, description
		FROM catalog_time_slots
		WHERE catalog_id = $1
		ORDER BY time_slot_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	slots := make([]domain.TimeSlot, 0)
	for rows.Next() {
		var slot domain.TimeSlot
		if err := rows.Scan(&slot.ID, &slot.Description); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}

	return slots, rows.Err()
}

func (r *Repository) getCatalogTeachers(ctx context.Context, catalogID int64) ([]domain.Teacher, error) {
	query := `
		SELECT
			ct.teacher_id,
			ct.full_name,
			ct.email,
			ct.min_sections,
			ct.max_sections,
			ct.board_pref,
			ct.time_pref,
			ct.days_pref,
			ct.type_pref,
			cts.course_section_id,
			cts.score
		FROM catalog_teachers ct
		LEFT JOIN catalog_teacher_satisfaction cts ON ct.catalog_id = cts.catalog_id AND ct.teacher_id = cts.teacher_id
		WHERE ct.catalog_id = $1
		ORDER BY ct.teacher_id, cts.course_section_id
	`

	rows, err := r.dbpool.QueryContext(ctx, query, catalogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teachers := make([]domain.Teacher, 0)
	teacherIndex := make(map[int64]int) // teacherID -> 在 teachers 中的下标

	for rows.Next() {
		var row struct {
			Teacher         domain.Teacher
			CourseSectionID sql.NullInt64
			Score           sql.NullFloat64
		}

		p := &row.Teacher.Preference
		dst := []any{
			&row.Teacher.ID,
			&row.Teacher.FullName,
			&row.Teacher.Email,
			&p.MinSections,
			&p.MaxSections,
			&p.BoardPref,
			&p.TimePref,
			&p.DaysPref,
			&p.TypePref,
			&row.CourseSectionID,
			&row.Score,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}

		idx, exists := teacherIndex[row.Teacher.ID]
		if !exists {
			// 第一次查到这个教师
			row.Teacher.Preference.TeacherID = row.Teacher.ID
			row.Teacher.Satisfaction = domain.TeacherSatisfaction{
				TeacherID: row.Teacher.ID,
				Scores:    make(map[int64]float64),
			}
			idx = len(teachers)
			teacherIndex[row.Teacher.ID] = idx
			teachers = append(teachers, row.Teacher)
		}

		// 该教师没有任何满意度记录
		if !row.CourseSectionID.Valid {
			continue
		}

		teachers[idx].Satisfaction.Scores[row.CourseSectionID.Int64] = row.Score.Float64
	}

	return teachers, rows.Err()
}

func (r *Repository) DeleteCatalog(id int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	query := `
		DELETE FROM catalogs WHERE id = $1
	`

	_, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	return nil
}
