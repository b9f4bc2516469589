package storage

import (
	"context"
	"errors"

	"github.com/brandconnect/brandconnect-be/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// ErrInvalidValue indicates a value the backend cannot store, such as an out-of-range amount.
var ErrInvalidValue = errors.New("invalid value")

// ErrInvalidTransition indicates a status change that the lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid status transition")

// UserStore captures persistence operations for accounts.
//
// Every read except FindByEmail leaves PasswordHash empty.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	// FindByEmail returns the user including the password hash, for login.
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (models.User, error)
	DeleteUser(ctx context.Context, id string) error
	DeleteAllUsers(ctx context.Context) error
	TouchLogin(ctx context.Context, id string) error
	CountUsers(ctx context.Context) (int64, error)
	CountByRole(ctx context.Context) (map[models.Role]int64, error)
}

// CampaignStore captures persistence operations for campaigns.
type CampaignStore interface {
	CreateCampaign(ctx context.Context, campaign models.Campaign) (models.Campaign, error)
	ListCampaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error)
	GetCampaign(ctx context.Context, id string) (models.Campaign, error)
	UpdateCampaign(ctx context.Context, id string, patch models.CampaignPatch) (models.Campaign, error)
	DeleteCampaign(ctx context.Context, id string) error
}

// OfferStore captures persistence operations for offers.
type OfferStore interface {
	CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error)
	ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error)
	GetOffer(ctx context.Context, id string) (models.Offer, error)
	// UpdateOfferStatus moves an offer to status, optionally replacing the amount.
	// It returns ErrInvalidTransition when the current status does not allow it.
	UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus, amount *float64) (models.Offer, error)
}

// Store is the full persistence surface a backend must provide.
type Store interface {
	UserStore
	CampaignStore
	OfferStore
	Close()
}

// Stats folds per-role counts into UserStats, listing every known role.
// Total is the sum of the per-role counts, so both come from one snapshot.
func Stats(counts map[models.Role]int64) models.UserStats {
	byRole := make(map[models.Role]int64, len(models.Roles))
	var total int64
	for _, role := range models.Roles {
		byRole[role] = counts[role]
		total += counts[role]
	}
	return models.UserStats{Total: total, ByRole: byRole}
}
