package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/parent"
)

type parentRepository struct {
	db *sqlx.DB
}

var _ parent.Repository = (*parentRepository)(nil) // interface compliance check

func NewParentRepository(db *sqlx.DB) *parentRepository {
	return &parentRepository{db: db}
}

type parentRow struct {
	ID           string      `db:"id"`
	Name         string      `db:"name"`
	Phone        null.String `db:"phone"`
	Email        string      `db:"email"`
	PasswordHash null.Bytes  `db:"password_hash"`
	CreatedBy    string      `db:"created_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	LastLogin    null.Time   `db:"last_login"`
}

func (r parentRow) parent() parent.Parent {
	return parent.Parent{
		ID:           r.ID,
		Name:         r.Name,
		Phone:        r.Phone,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedBy:    r.CreatedBy,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
		LastLogin:    r.LastLogin.Time,
	}
}

func parentToRow(prt parent.Parent) parentRow {
	return parentRow{
		ID:           prt.ID,
		Name:         prt.Name,
		Phone:        prt.Phone,
		Email:        prt.Email,
		PasswordHash: prt.PasswordHash,
		CreatedBy:    prt.CreatedBy,
		CreatedAt:    prt.CreatedAt.UTC(),
		UpdatedAt:    prt.UpdatedAt.UTC(),
		LastLogin:    null.NewTime(prt.LastLogin.UTC(), !prt.LastLogin.IsZero()),
	}
}

func parentRowsToSlice(rows []parentRow) []parent.Parent {
	parents := make([]parent.Parent, 0, len(rows))
	for _, r := range rows {
		parents = append(parents, r.parent())
	}
	return parents
}

func (repo parentRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedParents ...parent.Parent) error {
	query := `SELECT EXISTS(SELECT 1 FROM parent WHERE email = $1 AND id != ALL ($2))`
	ids := make([]string, 0, len(excludedParents))
	for _, p := range excludedParents {
		ids = append(ids, p.ID)
	}

	var exists bool
	if err := repo.db.GetContext(ctx, &exists, query, email, stringArray(ids)); err != nil {
		return errors.Wrap(err, "checking parent uniqueness")
	}
	if exists {
		return parent.ErrEmailExists
	}
	return nil
}

func (repo parentRepository) CreateParent(ctx context.Context, prt parent.Parent) (parent.Parent, error) {
	prt.ID = uuid.New().String()
	row := parentToRow(prt)
	query := `
		INSERT INTO parent (id, name, phone, email, password_hash, created_by, created_at, updated_at)
		VALUES (:id, :name, :phone, :email, :password_hash, :created_by, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		if isUniqueViolation(err) {
			return parent.Parent{}, parent.ErrEmailExists
		}
		return parent.Parent{}, errors.Wrap(err, "inserting parent")
	}
	return prt, nil
}

func (repo parentRepository) QueryAllParents(ctx context.Context) ([]parent.Parent, error) {
	var rows []parentRow
	query := `SELECT * FROM parent ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying parents")
	}
	return parentRowsToSlice(rows), nil
}

func (repo parentRepository) QueryParentsByManager(ctx context.Context, managerID string) ([]parent.Parent, error) {
	var rows []parentRow
	query := `SELECT * FROM parent WHERE created_by = $1 ORDER BY created_at`
	if err := repo.db.SelectContext(ctx, &rows, query, managerID); err != nil {
		return nil, errors.Wrap(err, "querying parents")
	}
	return parentRowsToSlice(rows), nil
}

func (repo parentRepository) GetParentByID(ctx context.Context, id string) (parent.Parent, error) {
	var row parentRow
	query := `SELECT * FROM parent WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return parent.Parent{}, trapNoRows(err, parent.ErrNotFound, "getting parent")
	}
	return row.parent(), nil
}

func (repo parentRepository) GetParentByEmail(ctx context.Context, email string) (parent.Parent, error) {
	var row parentRow
	query := `SELECT * FROM parent WHERE email = $1`
	if err := repo.db.GetContext(ctx, &row, query, email); err != nil {
		return parent.Parent{}, trapNoRows(err, parent.ErrNotFound, "getting parent")
	}
	return row.parent(), nil
}

func (repo parentRepository) UpdateParent(ctx context.Context, prt parent.Parent) (parent.Parent, error) {
	row := parentToRow(prt)
	query := `
		UPDATE parent
		SET name = :name, phone = :phone, email = :email, password_hash = :password_hash,
		    created_by = :created_by, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		if isUniqueViolation(err) {
			return parent.Parent{}, parent.ErrEmailExists
		}
		return parent.Parent{}, errors.Wrap(err, "updating parent")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parent.Parent{}, parent.ErrNotFound
	}
	return prt, nil
}

func (repo parentRepository) DeleteParent(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM parent WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting parent")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return parent.ErrNotFound
	}
	return nil
}

func (repo parentRepository) LeastLoadedManager(ctx context.Context) (string, error) {
	// staff and admin ranked by how many parents they manage, ties broken
	// by earliest account creation
	var id string
	query := `
		SELECT u.id
		FROM "user" u
		LEFT JOIN parent p ON p.created_by = u.id
		WHERE u.role IN ($1, $2)
		GROUP BY u.id
		ORDER BY COUNT(p.id), u.created_at
		LIMIT 1`
	if err := repo.db.GetContext(ctx, &id, query, access.RoleStaff, access.RoleAdmin); err != nil {
		return "", trapNoRows(err, parent.ErrNoManagerAvail, "picking manager")
	}
	return id, nil
}

func (repo parentRepository) CountStudents(ctx context.Context, parentID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM student WHERE parent_id = $1`
	if err := repo.db.GetContext(ctx, &count, query, parentID); err != nil {
		return 0, errors.Wrap(err, "counting students")
	}
	return count, nil
}
