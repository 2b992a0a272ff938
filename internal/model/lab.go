package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Permission level policy values. Lab roles live on a 0-100 scale;
// -1 is reserved for the system-managed Former Member tombstone.
const (
	GlobalAdminLevel  = 100
	LabManagerLevel   = 70
	FormerMemberLevel = -1

	FormerMemberRoleName = "Former Member"
)

// Lab is the tenant boundary. It owns inventory items, members and,
// transitively, inventory logs.
type Lab struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (l *Lab) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// LabRole is a permission level attached to a user's membership in one
// specific lab. IsSystem marks the seeded Former Member role, which must
// never be assigned directly.
type LabRole struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	PermissionLevel int       `gorm:"type:int;not null" json:"permission_level"`
	IsSystem        bool      `gorm:"default:false" json:"is_system"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (r *LabRole) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsFormerMember reports whether this is the reserved tombstone role,
// by level or (case-insensitively) by name.
func (r *LabRole) IsFormerMember() bool {
	return r.PermissionLevel == FormerMemberLevel ||
		strings.EqualFold(r.Name, FormerMemberRoleName)
}

// MembershipState is the tagged state of a lab membership. The storage
// shape is still role reassignment (so the invariant "level -1 iff former"
// is checkable in the database), but code switches on this state instead
// of comparing raw levels.
type MembershipState int

const (
	MembershipActive MembershipState = iota
	MembershipFormer
)

func (s MembershipState) String() string {
	if s == MembershipFormer {
		return "former"
	}
	return "active"
}

// LabMember joins a User to a Lab with a LabRole. At most one row exists
// per (user, lab) pair; removal switches the role to the Former Member
// tombstone instead of deleting the row, so the membership can be
// reactivated later.
type LabMember struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lab_members_user_lab" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	LabID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_lab_members_user_lab;index" json:"lab_id"`
	Lab       Lab       `gorm:"foreignKey:LabID" json:"-"`
	LabRoleID uuid.UUID `gorm:"type:uuid;not null" json:"lab_role_id"`
	LabRole   LabRole   `gorm:"foreignKey:LabRoleID" json:"lab_role"`
	Inducted  bool      `gorm:"default:false" json:"inducted"`
	PCI       bool      `gorm:"column:pci;default:false" json:"pci"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (m *LabMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// State derives the membership state from the loaded LabRole.
func (m *LabMember) State() MembershipState {
	if m.LabRole.IsFormerMember() {
		return MembershipFormer
	}
	return MembershipActive
}
