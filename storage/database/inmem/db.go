package inmemdb

import (
	"sync"

	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/parent"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subscription"
	"github.com/trezcool/darasa/core/user"
)

type (
	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}
	parentTable struct {
		mutex sync.RWMutex
		table map[string]*parent.Parent
	}
	studentTable struct {
		mutex sync.RWMutex
		table map[string]*student.Student
	}
	classTable struct {
		mutex sync.RWMutex
		table map[string]*class.Class
		// registrations keyed by registration ID; the check-then-write in
		// Register runs under this table's write lock
		registrations map[string]*class.Registration
	}
	subscriptionTable struct {
		mutex sync.RWMutex
		table map[string]*subscription.Subscription
	}

	DB struct {
		user         *userTable
		parent       *parentTable
		student      *studentTable
		class        *classTable
		subscription *subscriptionTable
	}
)

func NewDB() *DB {
	db := new(DB)
	db.Reset()
	return db
}

func (db *DB) Reset() {
	db.user = &userTable{table: make(map[string]*user.User)}
	db.parent = &parentTable{table: make(map[string]*parent.Parent)}
	db.student = &studentTable{table: make(map[string]*student.Student)}
	db.class = &classTable{
		table:         make(map[string]*class.Class),
		registrations: make(map[string]*class.Registration),
	}
	db.subscription = &subscriptionTable{table: make(map[string]*subscription.Subscription)}
}
