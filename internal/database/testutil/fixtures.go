package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
)

var fixtureSeq atomic.Int64

// MustCreateUser inserts a user bound to a unique external subject.
func MustCreateUser(t *testing.T, db *gorm.DB, nickname string) *models.User {
	t.Helper()

	n := fixtureSeq.Add(1)
	user := &models.User{
		FirebaseUID: fmt.Sprintf("uid-%s-%d", nickname, n),
		Nickname:    nickname,
		Email:       fmt.Sprintf("%s%d@example.com", nickname, n),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// MustCreatePet creates a family owned by owner with a single pet. The search
// code is derived from a sequence so fixtures never collide.
func MustCreatePet(t *testing.T, db *gorm.DB, owner *models.User, name string) (*models.Family, *models.Pet) {
	t.Helper()

	family := &models.Family{FamilyName: owner.Nickname + "의 가족"}
	require.NoError(t, db.Create(family).Error)
	MustAddMember(t, db, family, owner, models.FamilyRoleOwner)

	pet := &models.Pet{
		FamilyID:    family.ID,
		OwnerID:     owner.ID,
		Name:        name,
		PetSearchID: fmt.Sprintf("PET%05d", fixtureSeq.Add(1)%100000),
	}
	require.NoError(t, db.Create(pet).Error)
	return family, pet
}

// MustAddMember adds user to family with the given role.
func MustAddMember(t *testing.T, db *gorm.DB, family *models.Family, user *models.User, role models.FamilyRole) {
	t.Helper()

	require.NoError(t, db.Create(&models.FamilyMember{
		FamilyID: family.ID,
		UserID:   user.ID,
		Role:     role,
		JoinedAt: time.Now().UTC(),
	}).Error)
}
