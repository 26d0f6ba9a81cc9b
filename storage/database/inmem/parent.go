package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/parent"
)

type parentRepository struct {
	db *DB
}

var _ parent.Repository = (*parentRepository)(nil) // interface compliance check

func NewParentRepository(db *DB) *parentRepository {
	return &parentRepository{db: db}
}

func (repo *parentRepository) query() []parent.Parent {
	parents := make([]parent.Parent, 0, len(repo.db.parent.table))
	for _, p := range repo.db.parent.table {
		parents = append(parents, *p)
	}
	sort.Slice(parents, func(i, j int) bool { return parents[i].CreatedAt.Before(parents[j].CreatedAt) })
	return parents
}

func (repo *parentRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedParents ...parent.Parent) error {
	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	excluded := make(map[string]bool, len(excludedParents))
	for _, p := range excludedParents {
		excluded[p.ID] = true
	}
	for _, prt := range repo.query() {
		if prt.Email == email && !excluded[prt.ID] {
			return parent.ErrEmailExists
		}
	}
	return nil
}

func (repo *parentRepository) CreateParent(ctx context.Context, prt parent.Parent) (parent.Parent, error) {
	repo.db.parent.mutex.Lock()
	defer repo.db.parent.mutex.Unlock()

	for _, p := range repo.db.parent.table {
		if p.Email == prt.Email {
			return parent.Parent{}, parent.ErrEmailExists
		}
	}
	prt.ID = uuid.New().String()
	repo.db.parent.table[prt.ID] = &prt
	return prt, nil
}

func (repo *parentRepository) QueryAllParents(ctx context.Context) ([]parent.Parent, error) {
	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *parentRepository) QueryParentsByManager(ctx context.Context, managerID string) ([]parent.Parent, error) {
	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	parents := make([]parent.Parent, 0)
	for _, prt := range repo.query() {
		if prt.CreatedBy == managerID {
			parents = append(parents, prt)
		}
	}
	return parents, nil
}

func (repo *parentRepository) GetParentByID(ctx context.Context, id string) (parent.Parent, error) {
	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	if prt, ok := repo.db.parent.table[id]; ok {
		return *prt, nil
	}
	return parent.Parent{}, parent.ErrNotFound
}

func (repo *parentRepository) GetParentByEmail(ctx context.Context, email string) (parent.Parent, error) {
	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	for _, prt := range repo.query() {
		if prt.Email == email {
			return prt, nil
		}
	}
	return parent.Parent{}, parent.ErrNotFound
}

func (repo *parentRepository) UpdateParent(ctx context.Context, prt parent.Parent) (parent.Parent, error) {
	repo.db.parent.mutex.Lock()
	defer repo.db.parent.mutex.Unlock()

	if _, ok := repo.db.parent.table[prt.ID]; !ok {
		return parent.Parent{}, parent.ErrNotFound
	}
	repo.db.parent.table[prt.ID] = &prt
	return prt, nil
}

func (repo *parentRepository) DeleteParent(ctx context.Context, id string) error {
	repo.db.parent.mutex.Lock()
	defer repo.db.parent.mutex.Unlock()

	if _, ok := repo.db.parent.table[id]; !ok {
		return parent.ErrNotFound
	}
	delete(repo.db.parent.table, id)
	return nil
}

func (repo *parentRepository) LeastLoadedManager(ctx context.Context) (string, error) {
	// staff and admin ranked by how many parents they manage, ties broken
	// by earliest account creation
	repo.db.user.mutex.RLock()
	candidates := make(map[string]int64)
	for _, usr := range repo.db.user.table {
		if usr.Role == access.RoleStaff || usr.Role == access.RoleAdmin {
			candidates[usr.ID] = usr.CreatedAt.UnixNano()
		}
	}
	repo.db.user.mutex.RUnlock()

	if len(candidates) == 0 {
		return "", parent.ErrNoManagerAvail
	}

	repo.db.parent.mutex.RLock()
	loads := make(map[string]int, len(candidates))
	for _, prt := range repo.db.parent.table {
		loads[prt.CreatedBy]++
	}
	repo.db.parent.mutex.RUnlock()

	var best string
	for id, createdAt := range candidates {
		if best == "" {
			best = id
			continue
		}
		switch {
		case loads[id] != loads[best]:
			if loads[id] < loads[best] {
				best = id
			}
		case createdAt < candidates[best]:
			best = id
		}
	}
	return best, nil
}

func (repo *parentRepository) CountStudents(ctx context.Context, parentID string) (int, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	var count int
	for _, std := range repo.db.student.table {
		if std.ParentID == parentID {
			count++
		}
	}
	return count, nil
}
