package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/subscription"
)

type subscriptionRepository struct {
	db *sqlx.DB
}

var _ subscription.Repository = (*subscriptionRepository)(nil) // interface compliance check

func NewSubscriptionRepository(db *sqlx.DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

type subscriptionRow struct {
	ID            string      `db:"id"`
	StudentID     string      `db:"student_id"`
	PackageName   string      `db:"package_name"`
	TotalSessions int         `db:"total_sessions"`
	UsedSessions  int         `db:"used_sessions"`
	StartDate     null.Time   `db:"start_date"`
	EndDate       null.Time   `db:"end_date"`
	Notes         null.String `db:"notes"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r subscriptionRow) subscription() subscription.Subscription {
	return subscription.Subscription{
		ID:            r.ID,
		StudentID:     r.StudentID,
		PackageName:   r.PackageName,
		TotalSessions: r.TotalSessions,
		UsedSessions:  r.UsedSessions,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func subscriptionToRow(sub subscription.Subscription) subscriptionRow {
	return subscriptionRow{
		ID:            sub.ID,
		StudentID:     sub.StudentID,
		PackageName:   sub.PackageName,
		TotalSessions: sub.TotalSessions,
		UsedSessions:  sub.UsedSessions,
		StartDate:     sub.StartDate,
		EndDate:       sub.EndDate,
		Notes:         sub.Notes,
		CreatedAt:     sub.CreatedAt.UTC(),
		UpdatedAt:     sub.UpdatedAt.UTC(),
	}
}

func subscriptionRowsToSlice(rows []subscriptionRow) []subscription.Subscription {
	subs := make([]subscription.Subscription, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, r.subscription())
	}
	return subs
}

func (repo subscriptionRepository) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	sub.ID = uuid.New().String()
	row := subscriptionToRow(sub)
	query := `
		INSERT INTO subscription (id, student_id, package_name, total_sessions, used_sessions, start_date, end_date, notes, created_at, updated_at)
		VALUES (:id, :student_id, :package_name, :total_sessions, :used_sessions, :start_date, :end_date, :notes, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, query, row); err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "inserting subscription")
	}
	return sub, nil
}

func (repo subscriptionRepository) QueryAllSubscriptions(ctx context.Context) ([]subscription.Subscription, error) {
	var rows []subscriptionRow
	query := `SELECT * FROM subscription ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	return subscriptionRowsToSlice(rows), nil
}

func (repo subscriptionRepository) QuerySubscriptionsByManager(ctx context.Context, managerID string) ([]subscription.Subscription, error) {
	var rows []subscriptionRow
	query := `
		SELECT sub.*
		FROM subscription sub
		JOIN student s ON s.id = sub.student_id
		JOIN parent p ON p.id = s.parent_id
		WHERE p.created_by = $1
		ORDER BY sub.created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, managerID); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	return subscriptionRowsToSlice(rows), nil
}

func (repo subscriptionRepository) QuerySubscriptionsByParent(ctx context.Context, parentID string) ([]subscription.Subscription, error) {
	var rows []subscriptionRow
	query := `
		SELECT sub.*
		FROM subscription sub
		JOIN student s ON s.id = sub.student_id
		WHERE s.parent_id = $1
		ORDER BY sub.created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, parentID); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	return subscriptionRowsToSlice(rows), nil
}

func (repo subscriptionRepository) QuerySubscriptionsByStudent(ctx context.Context, studentID string) ([]subscription.Subscription, error) {
	var rows []subscriptionRow
	query := `SELECT * FROM subscription WHERE student_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, query, studentID); err != nil {
		return nil, errors.Wrap(err, "querying subscriptions")
	}
	return subscriptionRowsToSlice(rows), nil
}

func (repo subscriptionRepository) GetSubscriptionByID(ctx context.Context, id string) (subscription.Subscription, error) {
	var row subscriptionRow
	query := `SELECT * FROM subscription WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, query, id); err != nil {
		return subscription.Subscription{}, trapNoRows(err, subscription.ErrNotFound, "getting subscription")
	}
	return row.subscription(), nil
}

func (repo subscriptionRepository) GetSubscriptionOwnerPath(ctx context.Context, id string) (access.OwnerPath, error) {
	var path struct {
		ManagerID string `db:"manager_id"`
		ParentID  string `db:"parent_id"`
	}
	query := `
		SELECT p.created_by AS manager_id, p.id AS parent_id
		FROM subscription sub
		JOIN student s ON s.id = sub.student_id
		JOIN parent p ON p.id = s.parent_id
		WHERE sub.id = $1`
	if err := repo.db.GetContext(ctx, &path, query, id); err != nil {
		return access.OwnerPath{}, trapNoRows(err, subscription.ErrNotFound, "resolving subscription owner")
	}
	return access.OwnerPath{ManagerID: path.ManagerID, ParentID: path.ParentID}, nil
}

func (repo subscriptionRepository) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	row := subscriptionToRow(sub)
	query := `
		UPDATE subscription
		SET package_name = :package_name, total_sessions = :total_sessions, used_sessions = :used_sessions,
		    start_date = :start_date, end_date = :end_date, notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return subscription.Subscription{}, errors.Wrap(err, "updating subscription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	return sub, nil
}

func (repo subscriptionRepository) DeleteSubscription(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM subscription WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting subscription")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return subscription.ErrNotFound
	}
	return nil
}

// UseSessionsSerialized consumes n sessions with the subscription row locked,
// so concurrent usage cannot push the counters past the limit.
func (repo subscriptionRepository) UseSessionsSerialized(ctx context.Context, id string, n int) (subscription.Subscription, error) {
	var sub subscription.Subscription
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var row subscriptionRow
		query := `SELECT * FROM subscription WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &row, query, id); err != nil {
			return trapNoRows(err, subscription.ErrNotFound, "locking subscription")
		}

		updated, err := subscription.ApplyUsage(row.subscription(), n)
		if err != nil {
			return err
		}
		updated.UpdatedAt = time.Now().UTC()

		query = `UPDATE subscription SET used_sessions = $1, updated_at = $2 WHERE id = $3`
		if _, err = tx.ExecContext(ctx, query, updated.UsedSessions, updated.UpdatedAt, id); err != nil {
			return errors.Wrap(err, "updating subscription")
		}
		sub = updated
		return nil
	})
	if err != nil {
		return subscription.Subscription{}, err
	}
	return sub, nil
}
