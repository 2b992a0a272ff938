package service

import (
	"context"
	"fmt"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a per-test in-memory database. The shared-cache DSN is
// keyed by test name so parallel connections of one test see the same
// database while tests never see each other's.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.SeedReservedRoles(context.Background(), db))

	return db
}

// fixture wires repositories and services over one test database and
// provides seed helpers for the entities most tests need.
type fixture struct {
	t  *testing.T
	db *gorm.DB

	userRepo    repository.UserRepository
	roleRepo    repository.RoleRepository
	labRepo     repository.LabRepository
	memberRepo  repository.MemberRepository
	itemRepo    repository.ItemRepository
	labItemRepo repository.LabInventoryRepository
	logRepo     repository.InventoryLogRepository
	txManager   repository.TransactionManager

	permissions PermissionService
	inventory   InventoryService
	logs        LogService
	members     MemberService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	log := zap.NewNop()

	f := &fixture{
		t:           t,
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		roleRepo:    repository.NewRoleRepository(db),
		labRepo:     repository.NewLabRepository(db),
		memberRepo:  repository.NewMemberRepository(db),
		itemRepo:    repository.NewItemRepository(db),
		labItemRepo: repository.NewLabInventoryRepository(db),
		logRepo:     repository.NewInventoryLogRepository(db),
		txManager:   repository.NewTransactionManager(db),
	}

	f.permissions = NewPermissionService(f.userRepo, f.memberRepo, log)
	f.logs = NewLogService(f.logRepo)
	f.members = NewMemberService(f.labRepo, f.userRepo, f.roleRepo, f.memberRepo, f.txManager, log)
	f.inventory = NewInventoryService(f.labRepo, f.itemRepo, f.labItemRepo, f.logRepo,
		NewAuditLogger(f.logRepo, log), f.txManager, nil, log)

	return f
}

func (f *fixture) ctx() context.Context { return context.Background() }

func (f *fixture) seedGlobalRole(name string, level int) *model.GlobalRole {
	f.t.Helper()
	role := model.GlobalRole{Name: name, PermissionLevel: level}
	require.NoError(f.t, f.roleRepo.CreateGlobalRole(f.ctx(), &role))
	return &role
}

func (f *fixture) seedUser(username string, role *model.GlobalRole) *model.User {
	f.t.Helper()
	user := model.User{
		Username:     username,
		Email:        username + "@example.org",
		Password:     "x",
		GlobalRoleID: role.ID,
	}
	require.NoError(f.t, f.userRepo.Create(f.ctx(), &user))
	user.GlobalRole = *role
	return &user
}

func (f *fixture) seedLab(name string) *model.Lab {
	f.t.Helper()
	lab := model.Lab{Name: name}
	require.NoError(f.t, f.labRepo.Create(f.ctx(), &lab))
	return &lab
}

func (f *fixture) seedLabRole(name string, level int) *model.LabRole {
	f.t.Helper()
	role := model.LabRole{Name: name, PermissionLevel: level}
	require.NoError(f.t, f.roleRepo.CreateLabRole(f.ctx(), &role))
	return &role
}

func (f *fixture) seedMember(user *model.User, lab *model.Lab, role *model.LabRole) *model.LabMember {
	f.t.Helper()
	member := model.LabMember{UserID: user.ID, LabID: lab.ID, LabRoleID: role.ID}
	require.NoError(f.t, f.memberRepo.Create(f.ctx(), &member))
	member.LabRole = *role
	return &member
}

func (f *fixture) seedCatalogItem(name string) *model.Item {
	f.t.Helper()
	item := model.Item{Name: name}
	require.NoError(f.t, f.itemRepo.CreateItem(f.ctx(), &item))
	return &item
}

func (f *fixture) seedTag(lab *model.Lab, name string) *model.Tag {
	f.t.Helper()
	tag := model.Tag{LabID: lab.ID, Name: name}
	require.NoError(f.t, f.itemRepo.CreateTag(f.ctx(), &tag))
	return &tag
}

// labLogs reads every log row attributed to a lab, newest first.
func (f *fixture) labLogs(labID uuid.UUID) []model.InventoryLog {
	f.t.Helper()
	logs, _, err := f.logRepo.ListForLab(f.ctx(), labID, repository.LogFilter{Limit: 1000})
	require.NoError(f.t, err)
	return logs
}

func actorFor(user *model.User, member *model.LabMember) Actor {
	a := Actor{UserID: user.ID, Source: model.SourceLabInterface}
	if member != nil {
		id := member.ID
		a.MemberID = &id
	}
	return a
}

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
