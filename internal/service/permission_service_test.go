package service

import (
	"testing"

	"backend/internal/apperror"
	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateGlobalAdminOverridesMembership(t *testing.T) {
	f := newFixture(t)

	admin := f.seedUser("admin", f.seedGlobalRole("Administrator", model.GlobalAdminLevel))
	lab := f.seedLab("Chem Lab")

	// The admin is not a member of the lab at all.
	d, err := f.permissions.Evaluate(f.ctx(), admin.ID, lab.ID, model.LabManagerLevel, model.GlobalAdminLevel)
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	assert.Equal(t, model.GlobalAdminLevel, d.ActualLevel)
	assert.Nil(t, d.Member, "override decisions carry no membership")
	assert.Nil(t, d.MemberID())
}

func TestEvaluateAdminOverrideBeatsTombstonedMembership(t *testing.T) {
	f := newFixture(t)

	admin := f.seedUser("admin", f.seedGlobalRole("Administrator", model.GlobalAdminLevel))
	lab := f.seedLab("Chem Lab")
	var former model.LabRole
	require.NoError(t, f.db.Where("permission_level = ?", model.FormerMemberLevel).First(&former).Error)
	f.seedMember(admin, lab, &former)

	// The override is checked before the membership lookup, so even a
	// tombstoned membership does not block a global admin.
	d, err := f.permissions.Evaluate(f.ctx(), admin.ID, lab.ID, model.LabManagerLevel, model.GlobalAdminLevel)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestEvaluateNonMemberDenied(t *testing.T) {
	f := newFixture(t)

	user := f.seedUser("outsider", f.seedGlobalRole("Standard", 10))
	lab := f.seedLab("Chem Lab")

	d, err := f.permissions.Evaluate(f.ctx(), user.ID, lab.ID, model.LabManagerLevel, model.GlobalAdminLevel)
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, "not a member of this lab", d.Reason)
}

func TestEvaluateTombstonedMemberDenied(t *testing.T) {
	f := newFixture(t)

	user := f.seedUser("alice", f.seedGlobalRole("Standard", 10))
	lab := f.seedLab("Chem Lab")
	manager := f.seedLabRole("Manager", model.LabManagerLevel)
	member := f.seedMember(user, lab, manager)

	// Tombstone the membership by role reassignment.
	var former model.LabRole
	require.NoError(t, f.db.Where("permission_level = ?", model.FormerMemberLevel).First(&former).Error)
	require.NoError(t, f.memberRepo.UpdateRole(f.ctx(), member.ID, former.ID))

	d, err := f.permissions.Evaluate(f.ctx(), user.ID, lab.ID, 0, model.GlobalAdminLevel)
	require.NoError(t, err)

	assert.False(t, d.Allowed, "a former member has no access regardless of threshold")
	assert.Equal(t, "not a member of this lab", d.Reason)
}

func TestEvaluateTombstoneRecognizedByNameCaseInsensitively(t *testing.T) {
	f := newFixture(t)

	user := f.seedUser("bob", f.seedGlobalRole("Standard", 10))
	lab := f.seedLab("Chem Lab")
	// A role named like the tombstone is treated as the tombstone even if
	// its level is not -1.
	odd := f.seedLabRole("fOrMeR mEmBeR", 50)
	f.seedMember(user, lab, odd)

	d, err := f.permissions.Evaluate(f.ctx(), user.ID, lab.ID, 0, model.GlobalAdminLevel)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
}

func TestEvaluateInsufficientLevel(t *testing.T) {
	f := newFixture(t)

	user := f.seedUser("carol", f.seedGlobalRole("Standard", 10))
	lab := f.seedLab("Chem Lab")
	researcher := f.seedLabRole("Researcher", 40)
	f.seedMember(user, lab, researcher)

	d, err := f.permissions.Evaluate(f.ctx(), user.ID, lab.ID, model.LabManagerLevel, model.GlobalAdminLevel)
	require.NoError(t, err)

	assert.False(t, d.Allowed)
	assert.Equal(t, "insufficient lab permission", d.Reason)
	assert.Equal(t, model.LabManagerLevel, d.RequiredLevel)
	assert.Equal(t, 40, d.ActualLevel)
}

func TestEvaluateActiveMemberAtThreshold(t *testing.T) {
	f := newFixture(t)

	user := f.seedUser("dave", f.seedGlobalRole("Standard", 10))
	lab := f.seedLab("Chem Lab")
	manager := f.seedLabRole("Manager", model.LabManagerLevel)
	member := f.seedMember(user, lab, manager)

	d, err := f.permissions.Evaluate(f.ctx(), user.ID, lab.ID, model.LabManagerLevel, model.GlobalAdminLevel)
	require.NoError(t, err)

	assert.True(t, d.Allowed)
	require.NotNil(t, d.Member)
	assert.Equal(t, member.ID, d.Member.ID)
	require.NotNil(t, d.MemberID())
	assert.Equal(t, member.ID, *d.MemberID())
}

func TestEvaluateNoCallerIdentity(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")

	_, err := f.permissions.Evaluate(f.ctx(), uuid.Nil, lab.ID, 0, model.GlobalAdminLevel)
	require.Error(t, err)
	assert.Equal(t, apperror.Unauthenticated, apperror.KindOf(err))
}

func TestEvaluateUnknownUser(t *testing.T) {
	f := newFixture(t)
	lab := f.seedLab("Chem Lab")

	_, err := f.permissions.Evaluate(f.ctx(), uuid.New(), lab.ID, 0, model.GlobalAdminLevel)
	require.Error(t, err)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))
}

func TestEvaluateGlobal(t *testing.T) {
	f := newFixture(t)

	admin := f.seedUser("admin", f.seedGlobalRole("Administrator", model.GlobalAdminLevel))
	user := f.seedUser("eve", f.seedGlobalRole("Standard", 10))

	d, err := f.permissions.EvaluateGlobal(f.ctx(), admin.ID, model.GlobalAdminLevel)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	d, err = f.permissions.EvaluateGlobal(f.ctx(), user.ID, model.GlobalAdminLevel)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, "insufficient global permission", d.Reason)
}

func TestDeriveSource(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name    string
		surface RequestSurface
		bearer  bool
		want    model.LogSource
	}{
		{"admin panel", SurfaceAdmin, false, model.SourceAdminPanel},
		{"lab interface", SurfaceLab, false, model.SourceLabInterface},
		{"bearer via admin routes", SurfaceAdmin, true, model.SourceAPIDirect},
		{"bearer via lab routes", SurfaceLab, true, model.SourceAPIDirect},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, f.permissions.DeriveSource(tc.surface, tc.bearer))
		})
	}
}
