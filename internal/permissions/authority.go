// Package permissions answers family membership questions for every pet or
// family scoped operation.
package permissions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/pkg/metrics"
)

var (
	// ErrPetNotFound indicates the pet does not exist.
	ErrPetNotFound = errors.New("permissions: pet not found")
	// ErrNotMember indicates the user is not part of the pet's family.
	ErrNotMember = errors.New("permissions: not a family member")
	// ErrNotOwner indicates the user is not the owner of the pet.
	ErrNotOwner = errors.New("permissions: not the pet owner")
)

const (
	checkMember = "member"
	checkPet    = "pet"
	checkOwner  = "owner"
)

// Authority evaluates family membership. Membership, whether OWNER or MEMBER,
// is both necessary and sufficient except for owner-only actions.
type Authority struct {
	db *gorm.DB
}

// NewAuthority constructs an Authority backed by the provided database.
func NewAuthority(db *gorm.DB) (*Authority, error) {
	if db == nil {
		return nil, errors.New("permission authority: db is required")
	}
	return &Authority{db: db}, nil
}

// WithTx returns an Authority that runs its queries inside tx.
func (a *Authority) WithTx(tx *gorm.DB) *Authority {
	return &Authority{db: tx}
}

// IsMember reports whether userID has a FamilyMember row for familyID.
func (a *Authority) IsMember(ctx context.Context, userID, familyID string) (bool, error) {
	ok, err := a.isMember(ensureContext(ctx), userID, familyID)
	record(checkMember, ok, err)
	return ok, err
}

// AuthorizeForPet loads the pet and verifies userID belongs to its family.
func (a *Authority) AuthorizeForPet(ctx context.Context, userID, petID string) (*models.Pet, error) {
	ctx = ensureContext(ctx)

	pet, err := a.loadPet(ctx, petID)
	if err != nil {
		record(checkPet, false, err)
		return nil, err
	}

	ok, err := a.isMember(ctx, userID, pet.FamilyID)
	record(checkPet, ok, err)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotMember
	}
	return pet, nil
}

// RequireOwner loads the pet and verifies userID is its owner.
func (a *Authority) RequireOwner(ctx context.Context, userID, petID string) (*models.Pet, error) {
	ctx = ensureContext(ctx)

	pet, err := a.loadPet(ctx, petID)
	if err != nil {
		record(checkOwner, false, err)
		return nil, err
	}

	ok := strings.TrimSpace(userID) != "" && pet.OwnerID == userID
	record(checkOwner, ok, nil)
	if !ok {
		return nil, ErrNotOwner
	}
	return pet, nil
}

// FamilyIDs lists every family userID belongs to.
func (a *Authority) FamilyIDs(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := a.db.WithContext(ensureContext(ctx)).
		Model(&models.FamilyMember{}).
		Where("user_id = ?", userID).
		Pluck("family_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("permission authority: list families: %w", err)
	}
	return ids, nil
}

func (a *Authority) isMember(ctx context.Context, userID, familyID string) (bool, error) {
	userID = strings.TrimSpace(userID)
	familyID = strings.TrimSpace(familyID)
	if userID == "" || familyID == "" {
		return false, nil
	}

	var count int64
	err := a.db.WithContext(ctx).
		Model(&models.FamilyMember{}).
		Where("family_id = ? AND user_id = ?", familyID, userID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("permission authority: check membership: %w", err)
	}
	return count > 0, nil
}

func (a *Authority) loadPet(ctx context.Context, petID string) (*models.Pet, error) {
	petID = strings.TrimSpace(petID)
	if petID == "" {
		return nil, ErrPetNotFound
	}

	var pet models.Pet
	if err := a.db.WithContext(ctx).Take(&pet, "id = ?", petID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPetNotFound
		}
		return nil, fmt.Errorf("permission authority: load pet: %w", err)
	}
	return &pet, nil
}

func record(check string, allowed bool, err error) {
	result := "deny"
	switch {
	case errors.Is(err, ErrPetNotFound):
		result = "not_found"
	case err != nil:
		result = "error"
	case allowed:
		result = "allow"
	}
	metrics.PermissionChecks.WithLabelValues(check, result).Inc()
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}
