package tests

import (
	"io"
	"log"
	"os"
	"testing"

	. "github.com/trezcool/darasa/apps/api/echo"
	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/class"
	"github.com/trezcool/darasa/core/parent"
	"github.com/trezcool/darasa/core/student"
	"github.com/trezcool/darasa/core/subscription"
	"github.com/trezcool/darasa/core/user"
	emailsvc "github.com/trezcool/darasa/services/email"
	logsvc "github.com/trezcool/darasa/services/logger"
	inmemdb "github.com/trezcool/darasa/storage/database/inmem"
)

var (
	db  *inmemdb.DB
	app Server

	usrRepo user.Repository
	prtRepo parent.Repository
	stdRepo student.Repository
	clsRepo class.Repository
	subRepo subscription.Repository
)

func TestMain(m *testing.M) {
	core.Conf.Debug = false
	core.Conf.TestMode = true

	// set up DB & repos
	db = inmemdb.NewDB()
	usrRepo = inmemdb.NewUserRepository(db)
	prtRepo = inmemdb.NewParentRepository(db)
	stdRepo = inmemdb.NewStudentRepository(db)
	clsRepo = inmemdb.NewClassRepository(db)
	subRepo = inmemdb.NewSubscriptionRepository(db)

	// set up services
	mailSvc := emailsvc.NewConsoleServiceMock()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), core.Conf)
	logger.Enable(false)

	// set up server
	app = NewServer(
		&Options{
			DisableReqLogs:  true,
			Logger:          logger,
			UserSvc:         user.NewService(usrRepo, mailSvc),
			ParentSvc:       parent.NewService(prtRepo, mailSvc),
			StudentSvc:      student.NewService(stdRepo, prtRepo),
			ClassSvc:        class.NewService(clsRepo, stdRepo),
			SubscriptionSvc: subscription.NewService(subRepo, stdRepo),
		},
		nil, /* shutdown */
	)

	os.Exit(m.Run())
}

func resetDB(t *testing.T) {
	t.Helper()
	db.Reset()
	emailsvc.ClearSentMessages()
}
