package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
)

type classRepository struct {
	db *DB
}

var _ class.Repository = (*classRepository)(nil) // interface compliance check

func NewClassRepository(db *DB) *classRepository {
	return &classRepository{db: db}
}

func (repo *classRepository) query() []class.Class {
	classes := make([]class.Class, 0, len(repo.db.class.table))
	for _, c := range repo.db.class.table {
		classes = append(classes, *c)
	}
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.Before(classes[j].CreatedAt) })
	return classes
}

// activeCount assumes the class table lock is held.
func (repo *classRepository) activeCount(classID string) int {
	var count int
	for _, reg := range repo.db.class.registrations {
		if reg.ClassID == classID && reg.Active() {
			count++
		}
	}
	return count
}

// enrolledClasses assumes the class table lock is held.
func (repo *classRepository) enrolledClasses(studentID string) []class.Class {
	classes := make([]class.Class, 0)
	for _, reg := range repo.db.class.registrations {
		if reg.StudentID == studentID && reg.Active() {
			if cls, ok := repo.db.class.table[reg.ClassID]; ok {
				classes = append(classes, *cls)
			}
		}
	}
	return classes
}

func (repo *classRepository) CreateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	cls.ID = uuid.New().String()
	repo.db.class.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) QueryAllClasses(ctx context.Context, ordering ...core.DBOrdering) ([]class.Class, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	classes := repo.query()
	if len(ordering) > 0 && ordering[0].Field == "name" {
		asc := ordering[0].Ascending
		sort.Slice(classes, func(i, j int) bool {
			if asc {
				return classes[i].Name < classes[j].Name
			}
			return classes[i].Name > classes[j].Name
		})
	}
	return classes, nil
}

func (repo *classRepository) GetClassByID(ctx context.Context, id string) (class.Class, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	if cls, ok := repo.db.class.table[id]; ok {
		return *cls, nil
	}
	return class.Class{}, class.ErrNotFound
}

func (repo *classRepository) UpdateClass(ctx context.Context, cls class.Class) (class.Class, error) {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	if _, ok := repo.db.class.table[cls.ID]; !ok {
		return class.Class{}, class.ErrNotFound
	}
	repo.db.class.table[cls.ID] = &cls
	return cls, nil
}

func (repo *classRepository) DeleteClass(ctx context.Context, id string) error {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	if _, ok := repo.db.class.table[id]; !ok {
		return class.ErrNotFound
	}
	for regID, reg := range repo.db.class.registrations {
		if reg.ClassID == id {
			delete(repo.db.class.registrations, regID)
		}
	}
	delete(repo.db.class.table, id)
	return nil
}

func (repo *classRepository) CountActiveRegistrations(ctx context.Context, classID string) (int, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()
	return repo.activeCount(classID), nil
}

// Register holds the class table write lock across the enrollment checks and
// the write, so concurrent registrations for the last seat cannot both pass.
func (repo *classRepository) Register(ctx context.Context, classID, studentID string) (class.Registration, error) {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	cls, ok := repo.db.class.table[classID]
	if !ok {
		return class.Registration{}, class.ErrNotFound
	}

	if err := class.CheckEnrollment(*cls, repo.enrolledClasses(studentID), repo.activeCount(classID)); err != nil {
		return class.Registration{}, err
	}

	now := time.Now().UTC()

	// revive a dropped registration if one exists
	for _, reg := range repo.db.class.registrations {
		if reg.ClassID == classID && reg.StudentID == studentID {
			reg.Status = class.RegistrationActive
			reg.UpdatedAt = now
			return *reg, nil
		}
	}

	reg := class.Registration{
		ID:        uuid.New().String(),
		ClassID:   classID,
		StudentID: studentID,
		Status:    class.RegistrationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	repo.db.class.registrations[reg.ID] = &reg
	return reg, nil
}

func (repo *classRepository) Unregister(ctx context.Context, classID, studentID string) error {
	repo.db.class.mutex.Lock()
	defer repo.db.class.mutex.Unlock()

	for _, reg := range repo.db.class.registrations {
		if reg.ClassID == classID && reg.StudentID == studentID && reg.Active() {
			reg.Status = class.RegistrationDropped
			reg.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return class.ErrRegistrationNotFound
}

func (repo *classRepository) QueryClassesByStudent(ctx context.Context, studentID string) ([]class.Class, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	classes := repo.enrolledClasses(studentID)
	sort.Slice(classes, func(i, j int) bool { return classes[i].CreatedAt.Before(classes[j].CreatedAt) })
	return classes, nil
}
