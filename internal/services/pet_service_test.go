package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

func TestRegisterPetCreatesFamily(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "minji")

	pet, err := env.pets.Register(ctx, owner.ID, RegisterPetInput{Name: "bori", Breed: "maltese", AgeYears: 3, WeightKg: 4.2})
	require.NoError(t, err)
	require.Equal(t, owner.ID, pet.OwnerID)
	require.Len(t, pet.PetSearchID, searchCodeLength)

	var family models.Family
	require.NoError(t, env.db.Take(&family, "id = ?", pet.FamilyID).Error)
	require.Equal(t, "minji의 가족", family.FamilyName)

	var member models.FamilyMember
	require.NoError(t, env.db.Take(&member, "family_id = ? AND user_id = ?", family.ID, owner.ID).Error)
	require.Equal(t, models.FamilyRoleOwner, member.Role)
}

func TestRegisterPetIntoExistingFamily(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	family, _ := testutil.MustCreatePet(t, env.db, owner, "bori")

	second, err := env.pets.Register(ctx, owner.ID, RegisterPetInput{FamilyID: family.ID, Name: "choco"})
	require.NoError(t, err)
	require.Equal(t, family.ID, second.FamilyID)

	_, err = env.pets.Register(ctx, stranger.ID, RegisterPetInput{FamilyID: family.ID, Name: "nabi"})
	require.ErrorIs(t, err, apperrors.ErrPetFamilyForbidden)

	_, err = env.pets.Register(ctx, owner.ID, RegisterPetInput{Name: " "})
	require.True(t, apperrors.IsClientError(err))
}

func TestRegisterPetRetriesSearchCodeCollision(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, existing := testutil.MustCreatePet(t, env.db, owner, "bori")

	codes := []string{existing.PetSearchID, existing.PetSearchID, "ZZZZ9999"}
	env.pets.generateCode = func() (string, error) {
		code := codes[0]
		codes = codes[1:]
		return code, nil
	}

	pet, err := env.pets.Register(ctx, owner.ID, RegisterPetInput{Name: "choco"})
	require.NoError(t, err)
	require.Equal(t, "ZZZZ9999", pet.PetSearchID)

	env.pets.generateCode = func() (string, error) { return existing.PetSearchID, nil }
	_, err = env.pets.Register(ctx, owner.ID, RegisterPetInput{Name: "nabi"})
	require.ErrorIs(t, err, apperrors.ErrPetPersist)
}

func TestListMinePetsAcrossFamilies(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	other := testutil.MustCreateUser(t, env.db, "other")
	_, mine := testutil.MustCreatePet(t, env.db, owner, "bori")
	otherFamily, shared := testutil.MustCreatePet(t, env.db, other, "choco")
	testutil.MustCreatePet(t, env.db, other, "nabi")
	testutil.MustAddMember(t, env.db, otherFamily, owner, models.FamilyRoleMember)

	pets, err := env.pets.ListMine(ctx, owner.ID)
	require.NoError(t, err)
	ids := []string{}
	for _, p := range pets {
		ids = append(ids, p.ID)
	}
	require.ElementsMatch(t, []string{mine.ID, shared.ID}, ids)

	lonely := testutil.MustCreateUser(t, env.db, "lonely")
	pets, err = env.pets.ListMine(ctx, lonely.ID)
	require.NoError(t, err)
	require.Empty(t, pets)
}

func TestUpdatePetBroadcastsChange(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	member := testutil.MustCreateUser(t, env.db, "member")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	testutil.MustAddMember(t, env.db, family, member, models.FamilyRoleMember)

	weight := 5.5
	updated, err := env.pets.Update(ctx, member.ID, pet.ID, UpdatePetInput{WeightKg: &weight})
	require.NoError(t, err)
	require.InDelta(t, 5.5, updated.WeightKg, 0.001)

	rows := env.notificationsFor(t, pet.ID)
	require.Len(t, rows, 1)
	require.Equal(t, models.NotificationPetUpdate, rows[0].Type)
	require.False(t, rows[0].IsPersonal())

	_, err = env.pets.Update(ctx, stranger.ID, pet.ID, UpdatePetInput{WeightKg: &weight})
	require.ErrorIs(t, err, apperrors.ErrPetForbidden)

	_, err = env.pets.Get(ctx, owner.ID, "missing")
	require.ErrorIs(t, err, apperrors.ErrPetNotFound)
}

func TestDeletePetRequiresOwner(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	member := testutil.MustCreateUser(t, env.db, "member")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	testutil.MustAddMember(t, env.db, family, member, models.FamilyRoleMember)

	walk, err := env.walks.Start(ctx, member.ID, StartWalkInput{PetID: pet.ID})
	require.NoError(t, err)
	_, err = env.walks.Track(ctx, member.ID, walk.ID, []TrackPoint{{Latitude: 37.5, Longitude: 127.0}})
	require.NoError(t, err)

	require.ErrorIs(t, env.pets.Delete(ctx, member.ID, pet.ID), apperrors.ErrPetOwnerRequired)
	require.NoError(t, env.pets.Delete(ctx, owner.ID, pet.ID))

	var count int64
	require.NoError(t, env.db.Model(&models.Pet{}).Where("id = ?", pet.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, env.db.Unscoped().Model(&models.Pet{}).Where("id = ?", pet.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
	require.NoError(t, env.db.Model(&models.Walk{}).Where("pet_id = ?", pet.ID).Count(&count).Error)
	require.Zero(t, count)
	require.NoError(t, env.db.Model(&models.WalkTrackingPoint{}).Where("walk_id = ?", walk.ID).Count(&count).Error)
	require.Zero(t, count)

	require.ErrorIs(t, env.pets.Delete(ctx, owner.ID, pet.ID), apperrors.ErrPetNotFound)
}

func TestDeletePetKeepsShareRequestsAndNotifications(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	requester := testutil.MustCreateUser(t, env.db, "requester")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")

	request, err := env.shares.CreateRequest(ctx, pet.PetSearchID, requester.ID, "")
	require.NoError(t, err)
	_, err = env.shares.Respond(ctx, request.ID, "REJECTED", owner.ID)
	require.NoError(t, err)
	before := env.notificationsFor(t, pet.ID)
	require.Len(t, before, 2)

	require.NoError(t, env.pets.Delete(ctx, owner.ID, pet.ID))

	var stored models.PetShareRequest
	require.NoError(t, env.db.Take(&stored, "id = ?", request.ID).Error)
	require.Equal(t, models.ShareStatusRejected, stored.Status)
	require.Len(t, env.notificationsFor(t, pet.ID), len(before))

	received, err := env.shares.ListReceived(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, received.Items, 1)
	require.Equal(t, "bori", received.Items[0].PetName)

	_, err = env.shares.CreateRequest(ctx, pet.PetSearchID, requester.ID, "")
	require.ErrorIs(t, err, apperrors.ErrSharePetNotFound)
}

func TestAllPetIDs(t *testing.T) {
	env := newServiceEnv(t)

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, first := testutil.MustCreatePet(t, env.db, owner, "bori")
	_, second := testutil.MustCreatePet(t, env.db, owner, "choco")

	ids, err := env.pets.AllIDs(context.Background())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}
