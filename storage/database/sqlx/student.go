package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/student"
)

type studentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{db: db}
}

type studentRow struct {
	ID        string      `db:"id"`
	Name      string      `db:"name"`
	Dob       null.String `db:"dob"`
	Gender    null.String `db:"gender"`
	Grade     null.String `db:"grade"`
	Notes     null.String `db:"notes"`
	ParentID  string      `db:"parent_id"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r studentRow) student() student.Student {
	return student.Student{
		ID:        r.ID,
		Name:      r.Name,
		Dob:       r.Dob,
		Gender:    r.Gender,
		Grade:     r.Grade,
		Notes:     r.Notes,
		ParentID:  r.ParentID,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func studentToRow(std student.Student) studentRow {
	return studentRow{
		ID:        std.ID,
		Name:      std.Name,
		Dob:       std.Dob,
		Gender:    std.Gender,
		Grade:     std.Grade,
		Notes:     std.Notes,
		ParentID:  std.ParentID,
		CreatedAt: std.CreatedAt.UTC(),
		UpdatedAt: std.UpdatedAt.UTC(),
	}
}

func studentRowsToSlice(rows []studentRow) []student.Student {
	students := make([]student.Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, r.student())
	}
	return students
}

func (repo studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	std.ID = uuid.New().String()
	row := studentToRow(std)
	query := `
		INSERT INTO student (id, name, dob, gender, grade, notes, parent_id, created_at, updated_at)
		VALUES (:id, :name, :dob, :gender, :grade, :notes, :parent_id, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}
	return std, nil
}

func (repo studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	query := `SELECT * FROM student ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return studentRowsToSlice(rows), nil
}

func (repo studentRepository) QueryStudentsByManager(ctx context.Context, managerID string) ([]student.Student, error) {
	var rows []studentRow
	query := `
		SELECT s.*
		FROM student s
		JOIN parent p ON p.id = s.parent_id
		WHERE p.created_by = $1
		ORDER BY s.created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, managerID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return studentRowsToSlice(rows), nil
}

func (repo studentRepository) QueryStudentsByParent(ctx context.Context, parentID string) ([]student.Student, error) {
	var rows []studentRow
	query := `SELECT * FROM student WHERE parent_id = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, parentID); err != nil {
		return nil, errors.Wrap(err, "querying students")
	}
	return studentRowsToSlice(rows), nil
}

func (repo studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	var row studentRow
	query := `SELECT * FROM student WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return student.Student{}, trapNoRows(err, student.ErrNotFound, "getting student")
	}
	return row.student(), nil
}

func (repo studentRepository) GetStudentOwnerPath(ctx context.Context, id string) (access.OwnerPath, error) {
	var path struct {
		ManagerID string `db:"manager_id"`
		ParentID  string `db:"parent_id"`
	}
	query := `
		SELECT p.created_by AS manager_id, p.id AS parent_id
		FROM student s
		JOIN parent p ON p.id = s.parent_id
		WHERE s.id = $1`
	if err := repo.db.GetContext(ctx, &path, query, id); err != nil {
		return access.OwnerPath{}, trapNoRows(err, student.ErrNotFound, "resolving student owner")
	}
	return access.OwnerPath{ManagerID: path.ManagerID, ParentID: path.ParentID}, nil
}

func (repo studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	row := studentToRow(std)
	query := `
		UPDATE student
		SET name = :name, dob = :dob, gender = :gender, grade = :grade, notes = :notes,
		    parent_id = :parent_id, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return student.Student{}, errors.Wrap(err, "updating student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.Student{}, student.ErrNotFound
	}
	return std, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM student WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return student.ErrNotFound
	}
	return nil
}

func (repo studentRepository) CountSubscriptions(ctx context.Context, studentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM subscription WHERE student_id = $1`
	if err := repo.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, errors.Wrap(err, "counting subscriptions")
	}
	return count, nil
}

func (repo studentRepository) CountRegistrations(ctx context.Context, studentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM class_registration WHERE student_id = $1 AND status = 'active'`
	if err := repo.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, errors.Wrap(err, "counting registrations")
	}
	return count, nil
}
