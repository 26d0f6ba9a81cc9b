package inmemdb

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subscription"
)

func seedStudents(t *testing.T, db *DB, n int) []student.Student {
	t.Helper()
	repo := NewStudentRepository(db)
	students := make([]student.Student, 0, n)
	for i := 0; i < n; i++ {
		std, err := repo.CreateStudent(context.Background(), student.Student{
			Name:      fmt.Sprintf("student-%d", i),
			ParentID:  "parent",
			CreatedAt: time.Now().UTC(),
			UpdatedAt: time.Now().UTC(),
		})
		if err != nil {
			t.Fatalf("CreateStudent() failed: %v", err)
		}
		students = append(students, std)
	}
	return students
}

func TestRegisterLastSeatRace(t *testing.T) {
	db := NewDB()
	repo := NewClassRepository(db)
	ctx := context.Background()

	cls, err := repo.CreateClass(ctx, class.Class{Name: "calculus", MaxStudents: 1, CreatedBy: "staff", Status: class.StatusActive})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	students := seedStudents(t, db, 20)

	var (
		wg        sync.WaitGroup
		successMu sync.Mutex
		successes int
	)
	for _, std := range students {
		wg.Add(1)
		go func(studentID string) {
			defer wg.Done()
			if _, err := repo.Register(ctx, cls.ID, studentID); err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			} else if err != class.ErrClassFull {
				t.Errorf("Register() error = %v, want %v", err, class.ErrClassFull)
			}
		}(std.ID)
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("Register() successes = %d, want 1", successes)
	}
	count, err := repo.CountActiveRegistrations(ctx, cls.ID)
	if err != nil {
		t.Fatalf("CountActiveRegistrations() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("CountActiveRegistrations() = %d, want 1", count)
	}
}

func TestUseSessionsRace(t *testing.T) {
	db := NewDB()
	repo := NewSubscriptionRepository(db)
	ctx := context.Background()

	sub, err := repo.CreateSubscription(ctx, subscription.Subscription{
		StudentID:     "student",
		TotalSessions: 10,
	})
	if err != nil {
		t.Fatalf("CreateSubscription() failed: %v", err)
	}

	var (
		wg        sync.WaitGroup
		successMu sync.Mutex
		successes int
	)
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.UseSessionsSerialized(ctx, sub.ID, 1); err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
			} else if err != subscription.ErrSessionLimitExceeded {
				t.Errorf("UseSessionsSerialized() error = %v, want %v", err, subscription.ErrSessionLimitExceeded)
			}
		}()
	}
	wg.Wait()

	if successes != 10 {
		t.Errorf("UseSessionsSerialized() successes = %d, want 10", successes)
	}
	got, err := repo.GetSubscriptionByID(ctx, sub.ID)
	if err != nil {
		t.Fatalf("GetSubscriptionByID() failed: %v", err)
	}
	if got.UsedSessions != 10 {
		t.Errorf("UsedSessions = %d, want 10", got.UsedSessions)
	}
	if got.Status() != subscription.StatusExhausted {
		t.Errorf("Status() = %q, want %q", got.Status(), subscription.StatusExhausted)
	}
}

func TestRegisterRevivesDroppedRegistration(t *testing.T) {
	db := NewDB()
	repo := NewClassRepository(db)
	ctx := context.Background()

	cls, err := repo.CreateClass(ctx, class.Class{Name: "physics", MaxStudents: 5, CreatedBy: "staff", Status: class.StatusActive})
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	std := seedStudents(t, db, 1)[0]

	first, err := repo.Register(ctx, cls.ID, std.ID)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if err := repo.Unregister(ctx, cls.ID, std.ID); err != nil {
		t.Fatalf("Unregister() failed: %v", err)
	}
	if err := repo.Unregister(ctx, cls.ID, std.ID); err != class.ErrRegistrationNotFound {
		t.Errorf("Unregister() error = %v, want %v", err, class.ErrRegistrationNotFound)
	}

	revived, err := repo.Register(ctx, cls.ID, std.ID)
	if err != nil {
		t.Fatalf("Register() failed: %v", err)
	}
	if revived.ID != first.ID {
		t.Errorf("Register() created a new row %q, want revived %q", revived.ID, first.ID)
	}
	if !revived.Active() {
		t.Errorf("Register() status = %q, want %q", revived.Status, class.RegistrationActive)
	}
}
