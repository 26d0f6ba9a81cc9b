package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/subscription"
)

type subscriptionRepository struct {
	db *DB
}

var _ subscription.Repository = (*subscriptionRepository)(nil) // interface compliance check

func NewSubscriptionRepository(db *DB) *subscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (repo *subscriptionRepository) query() []subscription.Subscription {
	subs := make([]subscription.Subscription, 0, len(repo.db.subscription.table))
	for _, s := range repo.db.subscription.table {
		subs = append(subs, *s)
	}
	// newest first
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs
}

func (repo *subscriptionRepository) CreateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.db.subscription.mutex.Lock()
	defer repo.db.subscription.mutex.Unlock()

	sub.ID = uuid.New().String()
	repo.db.subscription.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subscriptionRepository) QueryAllSubscriptions(ctx context.Context) ([]subscription.Subscription, error) {
	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *subscriptionRepository) QuerySubscriptionsByManager(ctx context.Context, managerID string) ([]subscription.Subscription, error) {
	repo.db.parent.mutex.RLock()
	managed := make(map[string]bool)
	for _, prt := range repo.db.parent.table {
		if prt.CreatedBy == managerID {
			managed[prt.ID] = true
		}
	}
	repo.db.parent.mutex.RUnlock()

	repo.db.student.mutex.RLock()
	students := make(map[string]bool)
	for _, std := range repo.db.student.table {
		if managed[std.ParentID] {
			students[std.ID] = true
		}
	}
	repo.db.student.mutex.RUnlock()

	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()

	subs := make([]subscription.Subscription, 0)
	for _, sub := range repo.query() {
		if students[sub.StudentID] {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (repo *subscriptionRepository) QuerySubscriptionsByParent(ctx context.Context, parentID string) ([]subscription.Subscription, error) {
	repo.db.student.mutex.RLock()
	students := make(map[string]bool)
	for _, std := range repo.db.student.table {
		if std.ParentID == parentID {
			students[std.ID] = true
		}
	}
	repo.db.student.mutex.RUnlock()

	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()

	subs := make([]subscription.Subscription, 0)
	for _, sub := range repo.query() {
		if students[sub.StudentID] {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (repo *subscriptionRepository) QuerySubscriptionsByStudent(ctx context.Context, studentID string) ([]subscription.Subscription, error) {
	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()

	subs := make([]subscription.Subscription, 0)
	for _, sub := range repo.query() {
		if sub.StudentID == studentID {
			subs = append(subs, sub)
		}
	}
	return subs, nil
}

func (repo *subscriptionRepository) GetSubscriptionByID(ctx context.Context, id string) (subscription.Subscription, error) {
	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()

	if sub, ok := repo.db.subscription.table[id]; ok {
		return *sub, nil
	}
	return subscription.Subscription{}, subscription.ErrNotFound
}

func (repo *subscriptionRepository) GetSubscriptionOwnerPath(ctx context.Context, id string) (access.OwnerPath, error) {
	sub, err := repo.GetSubscriptionByID(ctx, id)
	if err != nil {
		return access.OwnerPath{}, err
	}

	repo.db.student.mutex.RLock()
	std, ok := repo.db.student.table[sub.StudentID]
	repo.db.student.mutex.RUnlock()
	if !ok {
		return access.OwnerPath{}, subscription.ErrNotFound
	}

	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	prt, ok := repo.db.parent.table[std.ParentID]
	if !ok {
		return access.OwnerPath{}, subscription.ErrNotFound
	}
	return access.OwnerPath{ManagerID: prt.CreatedBy, ParentID: prt.ID}, nil
}

func (repo *subscriptionRepository) UpdateSubscription(ctx context.Context, sub subscription.Subscription) (subscription.Subscription, error) {
	repo.db.subscription.mutex.Lock()
	defer repo.db.subscription.mutex.Unlock()

	if _, ok := repo.db.subscription.table[sub.ID]; !ok {
		return subscription.Subscription{}, subscription.ErrNotFound
	}
	repo.db.subscription.table[sub.ID] = &sub
	return sub, nil
}

func (repo *subscriptionRepository) DeleteSubscription(ctx context.Context, id string) error {
	repo.db.subscription.mutex.Lock()
	defer repo.db.subscription.mutex.Unlock()

	if _, ok := repo.db.subscription.table[id]; !ok {
		return subscription.ErrNotFound
	}
	delete(repo.db.subscription.table, id)
	return nil
}

// UseSessionsSerialized holds the subscription table write lock across the
// limit check and the write, so concurrent usage cannot overdraw the pack.
func (repo *subscriptionRepository) UseSessionsSerialized(ctx context.Context, id string, n int) (subscription.Subscription, error) {
	repo.db.subscription.mutex.Lock()
	defer repo.db.subscription.mutex.Unlock()

	sub, ok := repo.db.subscription.table[id]
	if !ok {
		return subscription.Subscription{}, subscription.ErrNotFound
	}

	updated, err := subscription.ApplyUsage(*sub, n)
	if err != nil {
		return subscription.Subscription{}, err
	}
	updated.UpdatedAt = time.Now().UTC()
	repo.db.subscription.table[id] = &updated
	return updated, nil
}
