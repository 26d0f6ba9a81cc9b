package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/parent"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subscription"
	"github.com/trezcool/darasa/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Email:     email,
		Role:      role,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateParent persists a parent managed by createdBy. An empty pwd leaves
// the account unactivated.
func CreateParent(
	t *testing.T,
	repo parent.Repository,
	name, email, pwd, createdBy string,
) parent.Parent {
	t.Helper()

	now := time.Now().UTC()
	prt := parent.Parent{
		Name:      name,
		Email:     email,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := prt.SetPassword(pwd); err != nil {
			t.Fatalf("CreateParent() failed: %v", err)
		}
	}
	prt, err := repo.CreateParent(context.Background(), prt)
	if err != nil {
		t.Fatalf("CreateParent() failed: %v", err)
	}
	return prt
}

func CreateStudent(t *testing.T, repo student.Repository, name, parentID string) student.Student {
	t.Helper()

	now := time.Now().UTC()
	std, err := repo.CreateStudent(context.Background(), student.Student{
		Name:      name,
		ParentID:  parentID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateClass(
	t *testing.T,
	repo class.Repository,
	name, day, start, end string,
	maxStudents int,
	createdBy string,
) class.Class {
	t.Helper()

	now := time.Now().UTC()
	cls := class.Class{
		Name:        name,
		MaxStudents: maxStudents,
		Status:      class.StatusActive,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if day != "" {
		cls.DayOfWeek = null.StringFrom(day)
	}
	if start != "" {
		cls.StartTime = null.StringFrom(start)
		cls.EndTime = null.StringFrom(end)
	}
	cls, err := repo.CreateClass(context.Background(), cls)
	if err != nil {
		t.Fatalf("CreateClass() failed: %v", err)
	}
	return cls
}

func CreateSubscription(
	t *testing.T,
	repo subscription.Repository,
	studentID string,
	total, used int,
) subscription.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub, err := repo.CreateSubscription(context.Background(), subscription.Subscription{
		StudentID:     studentID,
		PackageName:   "Standard",
		TotalSessions: total,
		UsedSessions:  used,
		StartDate:     null.TimeFrom(now),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	if err != nil {
		t.Fatalf("CreateSubscription() failed: %v", err)
	}
	return sub
}
