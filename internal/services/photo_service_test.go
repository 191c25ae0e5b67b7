package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/models"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
)

func TestPhotoUpload(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	walk, err := env.walks.Start(ctx, owner.ID, StartWalkInput{PetID: pet.ID})
	require.NoError(t, err)

	store := &fakeStorage{}
	photos, err := NewPhotoService(env.db, env.authority, store)
	require.NoError(t, err)
	photos.now = env.clock.Now

	photo, err := photos.Upload(ctx, owner.ID, walk.ID, UploadPhotoInput{
		Body:        strings.NewReader("jpeg-bytes"),
		Filename:    "park.JPG",
		ContentType: "image/jpeg",
		Caption:     " sunny ",
	})
	require.NoError(t, err)
	require.Equal(t, "sunny", photo.Caption)
	require.Equal(t, pet.ID, photo.PetID)

	require.Len(t, store.objects, 1)
	obj := store.objects[0]
	require.Equal(t, "walk_photos/"+walk.ID, obj.Folder)
	require.True(t, strings.HasSuffix(obj.Name, ".jpg"))
	require.Equal(t, "image/jpeg", obj.ContentType)
	require.Equal(t, "jpeg-bytes", string(store.bodies[0]))
	require.Equal(t, "https://cdn.example.com/walk_photos/"+walk.ID+"/"+obj.Name, photo.ImageURL)

	var stored models.Photo
	require.NoError(t, env.db.Take(&stored, "id = ?", photo.ID).Error)
	require.Equal(t, photo.ImageURL, stored.ImageURL)

	_, err = photos.Upload(ctx, stranger.ID, walk.ID, UploadPhotoInput{Body: strings.NewReader("x"), Filename: "a.png"})
	require.ErrorIs(t, err, apperrors.ErrPhotoForbidden)

	_, err = photos.Upload(ctx, owner.ID, "missing", UploadPhotoInput{Body: strings.NewReader("x"), Filename: "a.png"})
	require.ErrorIs(t, err, apperrors.ErrPhotoWalkNotFound)
}

func TestPhotoUploadValidation(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	disabled, err := NewPhotoService(env.db, env.authority, nil)
	require.NoError(t, err)
	_, err = disabled.Upload(ctx, "user", "walk", UploadPhotoInput{Body: strings.NewReader("x"), Filename: "a.png"})
	require.ErrorIs(t, err, apperrors.ErrStorageUnavailable)

	photos, err := NewPhotoService(env.db, env.authority, &fakeStorage{})
	require.NoError(t, err)

	_, err = photos.Upload(ctx, "user", "walk", UploadPhotoInput{})
	require.ErrorIs(t, err, apperrors.ErrPhotoMissingFile)

	_, err = photos.Upload(ctx, "user", "walk", UploadPhotoInput{Body: strings.NewReader("x"), Filename: "notes.txt", ContentType: "text/plain"})
	require.ErrorIs(t, err, apperrors.ErrPhotoUnsupportedType)
}

func TestPhotoUploadStorageFailure(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	_, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	walk, err := env.walks.Start(ctx, owner.ID, StartWalkInput{PetID: pet.ID})
	require.NoError(t, err)

	photos, err := NewPhotoService(env.db, env.authority, &fakeStorage{err: errUpstream})
	require.NoError(t, err)

	_, err = photos.Upload(ctx, owner.ID, walk.ID, UploadPhotoInput{Body: strings.NewReader("x"), Filename: "a.png"})
	require.ErrorIs(t, err, apperrors.ErrStorageUploadFailed)

	var count int64
	require.NoError(t, env.db.Model(&models.Photo{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestImageContentType(t *testing.T) {
	require.Equal(t, "image/png", imageContentType("image/png", ".png"))
	require.Equal(t, "image/png", imageContentType("application/octet-stream", ".png"))
	require.Equal(t, "image/jpeg", imageContentType("", ".jpg"))
	require.Empty(t, imageContentType("text/plain", ".png"))
	require.Empty(t, imageContentType("", ".pdf"))
}

func TestPhotoAlbumList(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	owner := testutil.MustCreateUser(t, env.db, "owner")
	member := testutil.MustCreateUser(t, env.db, "member")
	stranger := testutil.MustCreateUser(t, env.db, "stranger")
	family, pet := testutil.MustCreatePet(t, env.db, owner, "bori")
	testutil.MustAddMember(t, env.db, family, member, models.FamilyRoleMember)
	_, otherPet := testutil.MustCreatePet(t, env.db, stranger, "choco")

	photos, err := NewPhotoService(env.db, env.authority, nil)
	require.NoError(t, err)

	aprilWalk := env.finishedWalk(t, pet, owner, time.Date(2024, 4, 30, 14, 0, 0, 0, time.UTC), 30, 1, nil, nil)
	mayWalk := env.finishedWalk(t, pet, member, time.Date(2024, 4, 30, 15, 0, 0, 0, time.UTC), 30, 1, nil, nil)
	otherWalk := env.finishedWalk(t, otherPet, stranger, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), 30, 1, nil, nil)

	addPhoto := func(walk *models.Walk, uploader *models.User, at time.Time) *models.Photo {
		photo := &models.Photo{WalkID: walk.ID, PetID: walk.PetID, UploadedBy: uploader.ID, ImageURL: "https://cdn.example.com/" + at.Format("150405")}
		photo.CreatedAt = at
		require.NoError(t, env.db.Create(photo).Error)
		return photo
	}
	first := addPhoto(aprilWalk, owner, time.Date(2024, 4, 30, 14, 10, 0, 0, time.UTC))
	second := addPhoto(mayWalk, member, time.Date(2024, 4, 30, 15, 10, 0, 0, time.UTC))
	third := addPhoto(mayWalk, member, time.Date(2024, 4, 30, 15, 20, 0, 0, time.UTC))
	addPhoto(otherWalk, stranger, time.Date(2024, 5, 1, 0, 10, 0, 0, time.UTC))

	page, err := photos.List(ctx, owner.ID, ListPhotosInput{PetID: pet.ID, Size: 2})
	require.NoError(t, err)
	require.EqualValues(t, 3, page.TotalCount)
	require.Equal(t, 0, page.Page)
	require.Equal(t, 2, page.Size)
	require.Len(t, page.Items, 2)
	require.Equal(t, third.ID, page.Items[0].PhotoID)
	require.Equal(t, second.ID, page.Items[1].PhotoID)
	require.Equal(t, UserBrief{UserID: member.ID, Nickname: "member"}, page.Items[0].UploadedBy)
	require.Equal(t, "2024-05-01", page.Items[0].WalkDate)
	require.True(t, mayWalk.StartTime.Equal(page.Items[0].WalkStartTime))

	page, err = photos.List(ctx, owner.ID, ListPhotosInput{PetID: pet.ID, Page: 1, Size: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, first.ID, page.Items[0].PhotoID)
	require.Equal(t, "2024-04-30", page.Items[0].WalkDate)

	page, err = photos.List(ctx, member.ID, ListPhotosInput{PetID: pet.ID, StartDate: "2024-04-30", EndDate: "2024-04-30", Size: 500})
	require.NoError(t, err)
	require.Equal(t, defaultPageSize, page.Size)
	require.EqualValues(t, 1, page.TotalCount)
	require.Equal(t, first.ID, page.Items[0].PhotoID)

	_, err = photos.List(ctx, owner.ID, ListPhotosInput{PetID: pet.ID, StartDate: "2024-13-01"})
	require.ErrorIs(t, err, apperrors.ErrPhotoListDateFormat)
	_, err = photos.List(ctx, owner.ID, ListPhotosInput{PetID: pet.ID, StartDate: "2024-05-02", EndDate: "2024-05-01"})
	require.ErrorIs(t, err, apperrors.ErrPhotoListDateOrder)
	_, err = photos.List(ctx, owner.ID, ListPhotosInput{})
	require.ErrorIs(t, err, apperrors.ErrPhotoListPetRequired)
	_, err = photos.List(ctx, stranger.ID, ListPhotosInput{PetID: pet.ID})
	require.ErrorIs(t, err, apperrors.ErrPhotoListForbidden)
	_, err = photos.List(ctx, owner.ID, ListPhotosInput{PetID: "missing"})
	require.ErrorIs(t, err, apperrors.ErrPhotoListPetNotFound)
}
