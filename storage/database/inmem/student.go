package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/darasa/core/access"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) *studentRepository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) query() []student.Student {
	students := make([]student.Student, 0, len(repo.db.student.table))
	for _, s := range repo.db.student.table {
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].CreatedAt.Before(students[j].CreatedAt) })
	return students
}

func (repo *studentRepository) CreateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	std.ID = uuid.New().String()
	repo.db.student.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) QueryAllStudents(ctx context.Context) ([]student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()
	return repo.query(), nil
}

func (repo *studentRepository) QueryStudentsByManager(ctx context.Context, managerID string) ([]student.Student, error) {
	repo.db.parent.mutex.RLock()
	managed := make(map[string]bool)
	for _, prt := range repo.db.parent.table {
		if prt.CreatedBy == managerID {
			managed[prt.ID] = true
		}
	}
	repo.db.parent.mutex.RUnlock()

	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.query() {
		if managed[std.ParentID] {
			students = append(students, std)
		}
	}
	return students, nil
}

func (repo *studentRepository) QueryStudentsByParent(ctx context.Context, parentID string) ([]student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	students := make([]student.Student, 0)
	for _, std := range repo.query() {
		if std.ParentID == parentID {
			students = append(students, std)
		}
	}
	return students, nil
}

func (repo *studentRepository) GetStudentByID(ctx context.Context, id string) (student.Student, error) {
	repo.db.student.mutex.RLock()
	defer repo.db.student.mutex.RUnlock()

	if std, ok := repo.db.student.table[id]; ok {
		return *std, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *studentRepository) GetStudentOwnerPath(ctx context.Context, id string) (access.OwnerPath, error) {
	std, err := repo.GetStudentByID(ctx, id)
	if err != nil {
		return access.OwnerPath{}, err
	}

	repo.db.parent.mutex.RLock()
	defer repo.db.parent.mutex.RUnlock()

	prt, ok := repo.db.parent.table[std.ParentID]
	if !ok {
		return access.OwnerPath{}, student.ErrNotFound
	}
	return access.OwnerPath{ManagerID: prt.CreatedBy, ParentID: prt.ID}, nil
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, std student.Student) (student.Student, error) {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	if _, ok := repo.db.student.table[std.ID]; !ok {
		return student.Student{}, student.ErrNotFound
	}
	repo.db.student.table[std.ID] = &std
	return std, nil
}

func (repo *studentRepository) DeleteStudent(ctx context.Context, id string) error {
	repo.db.student.mutex.Lock()
	defer repo.db.student.mutex.Unlock()

	if _, ok := repo.db.student.table[id]; !ok {
		return student.ErrNotFound
	}
	delete(repo.db.student.table, id)
	return nil
}

func (repo *studentRepository) CountSubscriptions(ctx context.Context, studentID string) (int, error) {
	repo.db.subscription.mutex.RLock()
	defer repo.db.subscription.mutex.RUnlock()

	var count int
	for _, sub := range repo.db.subscription.table {
		if sub.StudentID == studentID {
			count++
		}
	}
	return count, nil
}

func (repo *studentRepository) CountRegistrations(ctx context.Context, studentID string) (int, error) {
	repo.db.class.mutex.RLock()
	defer repo.db.class.mutex.RUnlock()

	var count int
	for _, reg := range repo.db.class.registrations {
		if reg.StudentID == studentID && reg.Status == class.RegistrationActive {
			count++
		}
	}
	return count, nil
}
