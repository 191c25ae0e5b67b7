package errors

import "net/http"

// Authentication and user resolution.
var (
	ErrAuthMissingHeader   = New("AUTH_401_1", "Authorization header is required", http.StatusUnauthorized)
	ErrAuthMalformedHeader = New("AUTH_401_2", "Authorization header must be 'Bearer <token>'", http.StatusUnauthorized)
	ErrAuthInvalidToken    = New("AUTH_401_3", "Invalid or expired identity token", http.StatusUnauthorized)
	ErrUserNotFound        = New("USER_404_1", "User account is not provisioned", http.StatusNotFound)
)

// Pets.
var (
	ErrPetNotFound        = New("PET_404_1", "Pet not found", http.StatusNotFound)
	ErrPetForbidden       = New("PET_403_1", "No permission for this pet", http.StatusForbidden)
	ErrPetOwnerRequired   = New("PET_403_2", "Only the pet owner can perform this action", http.StatusForbidden)
	ErrPetFamilyForbidden = New("PET_403_3", "No permission for this family", http.StatusForbidden)
	ErrPetPersist         = New("PET_500_1", "Failed to save pet", http.StatusInternalServerError)
)

// Pet share workflow.
var (
	ErrShareUnauthorized     = New("PET_SHARE_401_1", "Authentication required", http.StatusUnauthorized)
	ErrSharePetNotFound      = New("PET_SHARE_404_2", "No pet matches this search code", http.StatusNotFound)
	ErrShareAlreadyMember    = New("PET_SHARE_409_1", "Already a member of this pet's family", http.StatusConflict)
	ErrShareDuplicatePending = New("PET_SHARE_409_2", "A share request for this pet is already pending", http.StatusConflict)
	ErrSharePersist          = New("PET_SHARE_500_1", "Failed to save share request", http.StatusInternalServerError)

	ErrApproveInvalidDecision  = New("PET_SHARE_APPROVE_400_1", "status must be APPROVED or REJECTED", http.StatusBadRequest)
	ErrApproveRequestNotFound  = New("PET_SHARE_APPROVE_404_1", "Share request not found", http.StatusNotFound)
	ErrApprovePetNotFound      = New("PET_SHARE_APPROVE_404_2", "Pet for this share request no longer exists", http.StatusNotFound)
	ErrApproveNotOwner         = New("PET_SHARE_APPROVE_403_1", "Only the pet owner can respond to share requests", http.StatusForbidden)
	ErrApproveAlreadyProcessed = New("PET_SHARE_APPROVE_409_1", "Share request has already been processed", http.StatusConflict)
	ErrApproveAlreadyMember    = New("PET_SHARE_APPROVE_409_2", "Requester is already a family member", http.StatusConflict)
	ErrApprovePersist          = New("PET_SHARE_APPROVE_500_1", "Failed to process share request", http.StatusInternalServerError)
)

// Notification engine.
var (
	ErrNotificationInvalidType  = New("NOTIF_400_1", "Unknown notification type", http.StatusBadRequest)
	ErrNotificationPetNotFound  = New("NOTIF_404_1", "Pet not found", http.StatusNotFound)
	ErrNotificationForbidden    = New("NOTIF_403_1", "No permission to view this pet's notifications", http.StatusForbidden)
	ErrNotificationList         = New("NOTIF_500_1", "Failed to load notifications", http.StatusInternalServerError)
	ErrNotificationReadNotFound = New("NOTIF_READ_404_2", "Notification not found", http.StatusNotFound)
	ErrNotificationReadHidden   = New("NOTIF_READ_404_3", "Notification not available for this user", http.StatusNotFound)
	ErrNotificationReadPersist  = New("NOTIF_READ_500_1", "Failed to mark notification as read", http.StatusInternalServerError)
)

// Health advisory.
var (
	ErrHealthInvalidTrigger = New("HEALTH_400_1", "trigger_type must be manual or scheduled", http.StatusBadRequest)
	ErrHealthPetNotFound    = New("HEALTH_404_2", "Pet not found", http.StatusNotFound)
	ErrHealthForbidden      = New("HEALTH_403_1", "No permission for this pet's health feedback", http.StatusForbidden)
	ErrHealthGenerate       = New("HEALTH_502_1", "Failed to generate health feedback", http.StatusBadGateway)
	ErrHealthParse          = New("HEALTH_502_2", "Health feedback response could not be parsed", http.StatusBadGateway)
	ErrHealthPersist        = New("HEALTH_500_2", "Failed to save health feedback", http.StatusInternalServerError)
)

// Weather advisory.
var (
	ErrWeatherInvalidInput = New("WEATHER_400_1", "lat and lng are required for manual weather recommendations", http.StatusBadRequest)
	ErrWeatherPetNotFound  = New("WEATHER_404_2", "Pet not found", http.StatusNotFound)
	ErrWeatherForbidden    = New("WEATHER_403_1", "No permission for this pet's weather recommendation", http.StatusForbidden)
	ErrWeatherUnavailable  = New("WEATHER_502_1", "Weather information is unavailable", http.StatusBadGateway)
	ErrWeatherGenerate     = New("WEATHER_502_2", "Failed to generate weather recommendation", http.StatusBadGateway)
	ErrWeatherParse        = New("WEATHER_502_3", "Weather recommendation response could not be parsed", http.StatusBadGateway)
	ErrWeatherPersist      = New("WEATHER_500_1", "Failed to save weather recommendation", http.StatusInternalServerError)
)

// Walk recommendation advisory and storage.
var (
	ErrWalkRecInvalidInput = New("WALK_REC_400_1", "Recommendation values must be positive and ordered min <= recommended <= max", http.StatusBadRequest)
	ErrWalkRecPetNotFound  = New("WALK_REC_404_2", "Pet not found", http.StatusNotFound)
	ErrWalkRecMissing      = New("WALK_REC_404_3", "Walk recommendation has not been generated for this pet", http.StatusNotFound)
	ErrWalkRecForbidden    = New("WALK_REC_403_1", "No permission for this pet's walk recommendation", http.StatusForbidden)
	ErrWalkRecGenerate     = New("WALK_REC_502_1", "Failed to generate walk recommendation", http.StatusBadGateway)
	ErrWalkRecParse        = New("WALK_REC_502_2", "Walk recommendation response could not be parsed", http.StatusBadGateway)
	ErrWalkRecPersist      = New("WALK_REC_500_1", "Failed to save walk recommendation", http.StatusInternalServerError)
)

// Walk sessions.
var (
	ErrWalkInvalidTime  = New("WALK_400_1", "end_time must not be before start_time", http.StatusBadRequest)
	ErrWalkNoPoints     = New("WALK_400_2", "At least one tracking point is required", http.StatusBadRequest)
	ErrWalkPetNotFound  = New("WALK_404_1", "Pet not found", http.StatusNotFound)
	ErrWalkNotFound     = New("WALK_404_2", "Walk not found", http.StatusNotFound)
	ErrWalkForbidden    = New("WALK_403_1", "No permission to walk this pet", http.StatusForbidden)
	ErrWalkNotWalker    = New("WALK_403_2", "Only the walker can update this walk", http.StatusForbidden)
	ErrWalkOngoing      = New("WALK_409_1", "This pet already has an ongoing walk", http.StatusConflict)
	ErrWalkAlreadyEnded = New("WALK_409_2", "Walk has already ended", http.StatusConflict)
	ErrWalkPersist      = New("WALK_500_1", "Failed to save walk", http.StatusInternalServerError)
)

// Walk records.
var (
	ErrWalkListPetRequired = New("WALK_LIST_400_1", "pet_id query parameter is required", http.StatusBadRequest)
	ErrWalkListDateFormat  = New("WALK_LIST_400_2", "start_date and end_date must be YYYY-MM-DD", http.StatusBadRequest)
	ErrWalkListDateOrder   = New("WALK_LIST_400_3", "start_date must not be after end_date", http.StatusBadRequest)
	ErrWalkListPetNotFound = New("WALK_LIST_404_2", "Pet not found", http.StatusNotFound)
	ErrWalkListForbidden   = New("WALK_LIST_403_1", "No permission to view this pet's walks", http.StatusForbidden)
	ErrWalkListQuery       = New("WALK_LIST_500_1", "Failed to load walks", http.StatusInternalServerError)

	ErrRecentPetRequired = New("RECENT_ACT_400_1", "pet_id query parameter is required", http.StatusBadRequest)
	ErrRecentPetNotFound = New("RECENT_ACT_404_2", "Pet not found", http.StatusNotFound)
	ErrRecentForbidden   = New("RECENT_ACT_403_1", "No permission to view this pet's activity", http.StatusForbidden)
	ErrRecentQuery       = New("RECENT_ACT_500_1", "Failed to load recent activity", http.StatusInternalServerError)

	ErrTodayPetRequired = New("WALK_TODAY_400_1", "pet_id query parameter is required", http.StatusBadRequest)
	ErrTodayPetNotFound = New("WALK_TODAY_404_2", "Pet not found", http.StatusNotFound)
	ErrTodayForbidden   = New("WALK_TODAY_403_1", "No permission to view this pet's walks", http.StatusForbidden)
	ErrTodayQuery       = New("WALK_TODAY_500_1", "Failed to load today's walks", http.StatusInternalServerError)
)

// Walk goals.
var (
	ErrGoalNotPositive = New("WALK_GOAL_400_3", "Target walks, minutes and distance must be greater than zero", http.StatusBadRequest)
	ErrGoalExcessive   = New("WALK_GOAL_400_4", "Target walk volume may be harmful for this pet", http.StatusBadRequest)
	ErrGoalPetNotFound = New("WALK_GOAL_404_1", "Pet not found", http.StatusNotFound)
	ErrGoalNotSet      = New("WALK_GOAL_404_2", "No walk goal has been set for this pet", http.StatusNotFound)
	ErrGoalForbidden   = New("WALK_GOAL_403_1", "No permission for this pet's walk goal", http.StatusForbidden)
	ErrGoalPersist     = New("WALK_GOAL_500_1", "Failed to save walk goal", http.StatusInternalServerError)
)

// Photos.
var (
	ErrPhotoMissingFile     = New("PHOTO_400_1", "file is required", http.StatusBadRequest)
	ErrPhotoUnsupportedType = New("PHOTO_400_2", "Only image uploads are supported", http.StatusBadRequest)
	ErrPhotoWalkNotFound    = New("PHOTO_404_1", "Walk not found", http.StatusNotFound)
	ErrPhotoForbidden       = New("PHOTO_403_1", "No permission to add photos to this walk", http.StatusForbidden)
	ErrStorageUploadFailed  = New("PHOTO_500_1", "Failed to upload photo", http.StatusInternalServerError)
	ErrStorageUnavailable   = New("PHOTO_503_1", "Photo storage is not configured", http.StatusServiceUnavailable)
)

// Photo album.
var (
	ErrPhotoListDateFormat  = New("PHOTO_LIST_400_1", "start_date and end_date must be YYYY-MM-DD", http.StatusBadRequest)
	ErrPhotoListDateOrder   = New("PHOTO_LIST_400_2", "start_date must not be after end_date", http.StatusBadRequest)
	ErrPhotoListPetRequired = New("PHOTO_LIST_400_3", "pet_id query parameter is required", http.StatusBadRequest)
	ErrPhotoListPetNotFound = New("PHOTO_LIST_404_2", "Pet not found", http.StatusNotFound)
	ErrPhotoListForbidden   = New("PHOTO_LIST_403_1", "No permission to view this pet's photos", http.StatusForbidden)
	ErrPhotoListQuery       = New("PHOTO_LIST_500_1", "Failed to load photos", http.StatusInternalServerError)
)
