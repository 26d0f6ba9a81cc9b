package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
)

// class columns safe to order by; anything else falls back to created_at
var classOrderFields = map[string]bool{
	"name":         true,
	"subject":      true,
	"teacher":      true,
	"day_of_week":  true,
	"start_time":   true,
	"max_students": true,
	"created_at":   true,
}

type classRepository struct {
	db *sqlx.DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *sqlx.DB) *classRepository {
	return &classRepository{db: db}
}

type classRow struct {
	ID          string      `db:"id"`
	Name        string      `db:"name"`
	Subject     null.String `db:"subject"`
	Teacher     null.String `db:"teacher"`
	DayOfWeek   null.String `db:"day_of_week"`
	StartTime   null.String `db:"start_time"`
	EndTime     null.String `db:"end_time"`
	MaxStudents int         `db:"max_students"`
	Status      string      `db:"status"`
	CreatedBy   string      `db:"created_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r classRow) class() class.Class {
	return class.Class{
		ID:          r.ID,
		Name:        r.Name,
		Subject:     r.Subject,
		Teacher:     r.Teacher,
		DayOfWeek:   r.DayOfWeek,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		MaxStudents: r.MaxStudents,
		Status:      r.Status,
		CreatedBy:   r.CreatedBy,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func classToRow(cls class.Class) classRow {
	return classRow{
		ID:          cls.ID,
		Name:        cls.Name,
		Subject:     cls.Subject,
		Teacher:     cls.Teacher,
		DayOfWeek:   cls.DayOfWeek,
		StartTime:   cls.StartTime,
		EndTime:     cls.EndTime,
		MaxStudents: cls.MaxStudents,
		Status:      cls.Status,
		CreatedBy:   cls.CreatedBy,
		CreatedAt:   cls.CreatedAt.UTC(),
		UpdatedAt:   cls.UpdatedAt.UTC(),
	}
}

func classRowsToSlice(rows []classRow) []class.Class {
	classes := make([]class.Class, 0, len(rows))
	for _, r := range rows {
		classes = append(classes, r.class())
	}
	return classes
}

type registrationRow struct {
	ID        string    `db:"id"`
	ClassID   string    `db:"class_id"`
	StudentID string    `db:"student_id"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r registrationRow) registration() class.Registration {
	return class.Registration{
		ID:        r.ID,
		ClassID:   r.ClassID,
		StudentID: r.StudentID,
		Status:    r.Status,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (repo classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	cls.ID = uuid.New().String()
	row := classToRow(cls)
	query := `
		INSERT INTO class (id, name, subject, teacher, day_of_week, start_time, end_time, max_students, status, created_by, created_at, updated_at)
		VALUES (:id, :name, :subject, :teacher, :day_of_week, :start_time, :end_time, :max_students, :status, :created_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return class.Class{}, errors.Wrap(err, "inserting class")
	}
	return cls, nil
}

func (repo classRepository) QueryAllClasses(ctx context.Context, ordering ...core.DBOrdering) ([]class.Class, error) {
	orderBy := make([]string, 0, len(ordering))
	for _, ord := range ordering {
		if classOrderFields[ord.Field] {
			orderBy = append(orderBy, ord.String())
		}
	}
	if len(orderBy) == 0 {
		orderBy = append(orderBy, "created_at ASC")
	}

	var rows []classRow
	query := `SELECT * FROM class ORDER BY ` + strings.Join(orderBy, ", ")
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classRowsToSlice(rows), nil
}

func (repo classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	var row classRow
	query := `SELECT * FROM class WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return class.Class{}, trapNoRows(err, class.ErrNotFound, "getting class")
	}
	return row.class(), nil
}

func (repo classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	row := classToRow(cls)
	query := `
		UPDATE class
		SET name = :name, subject = :subject, teacher = :teacher, day_of_week = :day_of_week,
		    start_time = :start_time, end_time = :end_time, max_students = :max_students,
		    status = :status, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return class.Class{}, errors.Wrap(err, "updating class")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return class.Class{}, class.ErrNotFound
	}
	return cls, nil
}

func (repo classRepository) DeleteClass(ctx context.Context, id string) error {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		// dropped registrations do not block deletion, clear them first
		if _, err := tx.ExecContext(ctx, `DELETE FROM class_registration WHERE class_id = $1`, id); err != nil {
			return errors.Wrap(err, "clearing registrations")
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM class WHERE id = $1`, id)
		if err != nil {
			return errors.Wrap(err, "deleting class")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return class.ErrNotFound
		}
		return nil
	})
	return err
}

func (repo classRepository) CountActiveRegistrations(ctx context.Context, classID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM class_registration WHERE class_id = $1 AND status = 'active'`
	if err := repo.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, errors.Wrap(err, "counting registrations")
	}
	return count, nil
}

// Register enrolls a student in a class. The class row is locked for the
// duration of the transaction so the enrollment checks and the write cannot
// interleave with a concurrent registration.
func (repo classRepository) Register(ctx context.Context, classID, studentID string) (class.Registration, error) {
	var reg class.Registration
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var clsRow classRow
		query := `SELECT * FROM class WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &clsRow, query, classID); err != nil {
			return trapNoRows(err, class.ErrNotFound, "locking class")
		}
		cls := clsRow.class()

		var enrolledRows []classRow
		query = `
			SELECT c.*
			FROM class c
			JOIN class_registration r ON r.class_id = c.id
			WHERE r.student_id = $1 AND r.status = 'active'`
		if err := tx.SelectContext(ctx, &enrolledRows, query, studentID); err != nil {
			return errors.Wrap(err, "querying enrollments")
		}

		var activeCount int
		query = `SELECT COUNT(*) FROM class_registration WHERE class_id = $1 AND status = 'active'`
		if err := tx.GetContext(ctx, &activeCount, query, classID); err != nil {
			return errors.Wrap(err, "counting registrations")
		}

		if err := class.CheckEnrollment(cls, classRowsToSlice(enrolledRows), activeCount); err != nil {
			return err
		}

		now := time.Now().UTC()

		var regRow registrationRow
		query = `SELECT * FROM class_registration WHERE class_id = $1 AND student_id = $2`
		switch err := tx.GetContext(ctx, &regRow, query, classID, studentID); err {
		case nil:
			// revive the dropped registration
			query = `UPDATE class_registration SET status = $1, updated_at = $2 WHERE id = $3`
			if _, err = tx.ExecContext(ctx, query, class.RegistrationActive, now, regRow.ID); err != nil {
				return errors.Wrap(err, "reviving registration")
			}
			regRow.Status = class.RegistrationActive
			regRow.UpdatedAt = now
		case sql.ErrNoRows:
			regRow = registrationRow{
				ID:        uuid.New().String(),
				ClassID:   classID,
				StudentID: studentID,
				Status:    class.RegistrationActive,
				CreatedAt: now,
				UpdatedAt: now,
			}
			query = `
				INSERT INTO class_registration (id, class_id, student_id, status, created_at, updated_at)
				VALUES (:id, :class_id, :student_id, :status, :created_at, :updated_at)`
			if _, err = tx.NamedExecContext(ctx, query, regRow); err != nil {
				if isUniqueViolation(err) {
					return class.ErrAlreadyRegistered
				}
				return errors.Wrap(err, "inserting registration")
			}
		default:
			return errors.Wrap(err, "getting registration")
		}
		reg = regRow.registration()
		return nil
	})
	if err != nil {
		return class.Registration{}, err
	}
	return reg, nil
}

func (repo classRepository) Unregister(ctx context.Context, classID, studentID string) error {
	query := `
		UPDATE class_registration
		SET status = $1, updated_at = $2
		WHERE class_id = $3 AND student_id = $4 AND status = $5`
	res, err := repo.db.ExecContext(ctx, query,
		class.RegistrationDropped, time.Now().UTC(), classID, studentID, class.RegistrationActive)
	if err != nil {
		return errors.Wrap(err, "dropping registration")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return class.ErrRegistrationNotFound
	}
	return nil
}

func (repo classRepository) QueryClassesByStudent(ctx context.Context, studentID string) ([]class.Class, error) {
	var rows []classRow
	query := `
		SELECT c.*
		FROM class c
		JOIN class_registration r ON r.class_id = c.id
		WHERE r.student_id = $1 AND r.status = $2
		ORDER BY c.created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, studentID, class.RegistrationActive); err != nil {
		return nil, errors.Wrap(err, "querying classes")
	}
	return classRowsToSlice(rows), nil
}
