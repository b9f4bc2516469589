package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store keeps every record in process memory. It backs DB_TYPE=memory and tests.
type Store struct {
	mu        sync.RWMutex
	users     map[string]models.User
	emails    map[string]string
	campaigns map[string]models.Campaign
	offers    map[string]models.Offer
	now       func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]models.User),
		emails:    make(map[string]string),
		campaigns: make(map[string]models.Campaign),
		offers:    make(map[string]models.Offer),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Close is a no-op.
func (s *Store) Close() {}

func withoutHash(u models.User) models.User {
	u.PasswordHash = ""
	return u
}

// CreateUser inserts a user, rejecting a duplicate email.
func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user.Email = models.NormalizeEmail(user.Email)
	if _, taken := s.emails[user.Email]; taken {
		return models.User{}, storage.ErrAlreadyExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	now := s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	s.users[user.ID] = user
	s.emails[user.Email] = user.ID
	return withoutHash(user), nil
}

// ListUsers returns every user, oldest first.
func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, withoutHash(u))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Email < out[j].Email
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return withoutHash(u), nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[models.NormalizeEmail(email)]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) UpdateUser(_ context.Context, id string, patch models.UserPatch) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	oldEmail := u.Email
	if patch.Email != nil {
		normalized := models.NormalizeEmail(*patch.Email)
		patch.Email = &normalized
		if owner, taken := s.emails[normalized]; taken && owner != id {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	patch.Apply(&u)
	u.UpdatedAt = s.now()
	if u.Email != oldEmail {
		delete(s.emails, oldEmail)
		s.emails[u.Email] = id
	}
	s.users[id] = u
	return withoutHash(u), nil
}

func (s *Store) DeleteUser(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	delete(s.users, id)
	delete(s.emails, u.Email)
	for campaignID, c := range s.campaigns {
		if c.BrandID == id {
			delete(s.campaigns, campaignID)
		}
	}
	// offers go with their influencer or with a campaign removed above
	for offerID, o := range s.offers {
		if _, ok := s.campaigns[o.CampaignID]; !ok || o.InfluencerID == id {
			delete(s.offers, offerID)
		}
	}
	return nil
}

func (s *Store) DeleteAllUsers(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users = make(map[string]models.User)
	s.emails = make(map[string]string)
	s.campaigns = make(map[string]models.Campaign)
	s.offers = make(map[string]models.Offer)
	return nil
}

func (s *Store) TouchLogin(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return storage.ErrNotFound
	}
	now := s.now()
	u.LastLoginAt = &now
	s.users[id] = u
	return nil
}

func (s *Store) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *Store) CountByRole(_ context.Context) (map[models.Role]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Role]int64)
	for _, u := range s.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (s *Store) CreateCampaign(_ context.Context, c models.Campaign) (models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if _, exists := s.campaigns[c.ID]; exists {
		return models.Campaign{}, storage.ErrAlreadyExists
	}
	now := s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	s.campaigns[c.ID] = c
	return c, nil
}

func (s *Store) ListCampaigns(_ context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Campaign, 0)
	for _, c := range s.campaigns {
		if filter.BrandID != "" && c.BrandID != filter.BrandID {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetCampaign(_ context.Context, id string) (models.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok {
		return models.Campaign{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) UpdateCampaign(_ context.Context, id string, patch models.CampaignPatch) (models.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return models.Campaign{}, storage.ErrNotFound
	}
	if patch.Status != nil && !c.Status.CanTransition(*patch.Status) {
		return models.Campaign{}, storage.ErrInvalidTransition
	}
	patch.Apply(&c)
	c.UpdatedAt = s.now()
	s.campaigns[id] = c
	return c, nil
}

func (s *Store) DeleteCampaign(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.campaigns, id)
	for offerID, o := range s.offers {
		if o.CampaignID == id {
			delete(s.offers, offerID)
		}
	}
	return nil
}

func (s *Store) CreateOffer(_ context.Context, o models.Offer) (models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.campaigns[o.CampaignID]; !ok {
		return models.Offer{}, storage.ErrNotFound
	}
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = models.OfferPending
	}
	now := s.now()
	o.CreatedAt, o.UpdatedAt = now, now
	s.offers[o.ID] = o
	return o, nil
}

func (s *Store) ListOffers(_ context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Offer, 0)
	for _, o := range s.offers {
		if filter.CampaignID != "" && o.CampaignID != filter.CampaignID {
			continue
		}
		if filter.InfluencerID != "" && o.InfluencerID != filter.InfluencerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetOffer(_ context.Context, id string) (models.Offer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.offers[id]
	if !ok {
		return models.Offer{}, storage.ErrNotFound
	}
	return o, nil
}

func (s *Store) UpdateOfferStatus(_ context.Context, id string, status models.OfferStatus, amount *float64) (models.Offer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.offers[id]
	if !ok {
		return models.Offer{}, storage.ErrNotFound
	}
	if !o.Status.CanTransition(status) {
		return models.Offer{}, storage.ErrInvalidTransition
	}
	o.Status = status
	if amount != nil {
		o.Amount = *amount
	}
	o.UpdatedAt = s.now()
	s.offers[id] = o
	return o, nil
}
