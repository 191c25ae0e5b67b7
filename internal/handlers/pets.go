package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/services"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// PetHandler exposes pet registration and profile endpoints.
type PetHandler struct {
	service *services.PetService
}

// NewPetHandler constructs a pet handler.
func NewPetHandler(service *services.PetService) *PetHandler {
	return &PetHandler{service: service}
}

type registerPetRequest struct {
	FamilyID string  `json:"family_id" validate:"omitempty,max=36"`
	Name     string  `json:"name" validate:"required,max=50"`
	Breed    string  `json:"breed" validate:"omitempty,max=50"`
	Age      int     `json:"age" validate:"gte=0,lte=40"`
	Weight   float64 `json:"weight" validate:"gte=0"`
	Gender   string  `json:"gender" validate:"omitempty,max=8"`
	ImageURL string  `json:"image_url" validate:"omitempty,url"`
	Neutered *bool   `json:"neutered"`
}

type updatePetRequest struct {
	Name     *string  `json:"name" validate:"omitempty,min=1,max=50"`
	Breed    *string  `json:"breed" validate:"omitempty,max=50"`
	Age      *int     `json:"age" validate:"omitempty,gte=0,lte=40"`
	Weight   *float64 `json:"weight" validate:"omitempty,gte=0"`
	Gender   *string  `json:"gender" validate:"omitempty,max=8"`
	ImageURL *string  `json:"image_url" validate:"omitempty,url"`
	Neutered *bool    `json:"neutered"`
}

// Register creates a pet, creating a family for the caller when none is given.
func (h *PetHandler) Register(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req registerPetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pet, err := h.service.Register(requestContext(c), userID, services.RegisterPetInput{
		FamilyID: req.FamilyID,
		Name:     req.Name,
		Breed:    req.Breed,
		AgeYears: req.Age,
		WeightKg: req.Weight,
		Gender:   req.Gender,
		ImageURL: req.ImageURL,
		Neutered: req.Neutered,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"pet": pet})
}

// ListMine returns pets across every family of the caller.
func (h *PetHandler) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	pets, err := h.service.ListMine(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pets": pets, "count": len(pets)})
}

// Get returns a single pet visible to the caller.
func (h *PetHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrPetNotFound)
	if !ok {
		return
	}

	pet, err := h.service.Get(requestContext(c), userID, petID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pet": pet})
}

// Update patches pet fields and notifies the family.
func (h *PetHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrPetNotFound)
	if !ok {
		return
	}

	var req updatePetRequest
	if !bindAndValidate(c, &req) {
		return
	}

	pet, err := h.service.Update(requestContext(c), userID, petID, services.UpdatePetInput{
		Name:     req.Name,
		Breed:    req.Breed,
		AgeYears: req.Age,
		WeightKg: req.Weight,
		Gender:   req.Gender,
		ImageURL: req.ImageURL,
		Neutered: req.Neutered,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pet": pet})
}

// Delete removes a pet. Only the owner may do this.
func (h *PetHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	petID, ok := pathParam(c, "id", appErrors.ErrPetNotFound)
	if !ok {
		return
	}

	if err := h.service.Delete(requestContext(c), userID, petID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"pet_id": petID, "deleted": true})
}
