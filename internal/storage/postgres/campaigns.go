package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

const campaignColumns = `id, brand_id, title, description, budget, currency, status, created_at, updated_at`

const offerColumns = `id, campaign_id, influencer_id, amount, status, created_at, updated_at`

// CreateCampaign inserts a campaign owned by campaign.BrandID.
func (s *Store) CreateCampaign(ctx context.Context, campaign models.Campaign) (models.Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if !validID(campaign.BrandID) {
		return models.Campaign{}, storage.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO campaigns (id, brand_id, title, description, budget, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+campaignColumns,
		campaign.ID, campaign.BrandID, campaign.Title, campaign.Description, campaign.Budget,
		string(campaign.Currency), string(campaign.Status))
	return scanCampaign(row)
}

// ListCampaigns returns campaigns matching filter, newest first.
func (s *Store) ListCampaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	var where []string
	var args []any
	if filter.BrandID != "" {
		if !validID(filter.BrandID) {
			return []models.Campaign{}, nil
		}
		args = append(args, filter.BrandID)
		where = append(where, fmt.Sprintf("brand_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + campaignColumns + ` FROM campaigns`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	campaigns := make([]models.Campaign, 0)
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

// GetCampaign fetches a campaign by id.
func (s *Store) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	if !validID(id) {
		return models.Campaign{}, storage.ErrNotFound
	}
	return scanCampaign(s.pool.QueryRow(ctx, `SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
}

// UpdateCampaign applies patch inside a transaction so the status check and write agree.
func (s *Store) UpdateCampaign(ctx context.Context, id string, patch models.CampaignPatch) (models.Campaign, error) {
	if !validID(id) {
		return models.Campaign{}, storage.ErrNotFound
	}
	var updated models.Campaign
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanCampaign(tx.QueryRow(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if patch.Status != nil && !current.Status.CanTransition(*patch.Status) {
			return storage.ErrInvalidTransition
		}
		patch.Apply(&current)
		updated, err = scanCampaign(tx.QueryRow(ctx, `
			UPDATE campaigns
			SET title = $2, description = $3, budget = $4, currency = $5, status = $6, updated_at = NOW()
			WHERE id = $1
			RETURNING `+campaignColumns,
			id, current.Title, current.Description, current.Budget, string(current.Currency), string(current.Status)))
		return err
	})
	if err != nil {
		return models.Campaign{}, err
	}
	return updated, nil
}

// DeleteCampaign removes a campaign and its offers.
func (s *Store) DeleteCampaign(ctx context.Context, id string) error {
	if !validID(id) {
		return storage.ErrNotFound
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// CreateOffer inserts an offer against an existing campaign.
func (s *Store) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.Status == "" {
		offer.Status = models.OfferPending
	}
	if !validID(offer.CampaignID) || !validID(offer.InfluencerID) {
		return models.Offer{}, storage.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO offers (id, campaign_id, influencer_id, amount, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+offerColumns,
		offer.ID, offer.CampaignID, offer.InfluencerID, offer.Amount, string(offer.Status))
	return scanOffer(row)
}

// ListOffers returns offers matching filter, newest first.
func (s *Store) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	var where []string
	var args []any
	for column, value := range map[string]string{
		"campaign_id":   filter.CampaignID,
		"influencer_id": filter.InfluencerID,
	} {
		if value == "" {
			continue
		}
		if !validID(value) {
			return []models.Offer{}, nil
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	query := `SELECT ` + offerColumns + ` FROM offers`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	defer rows.Close()

	offers := make([]models.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

// GetOffer fetches an offer by id.
func (s *Store) GetOffer(ctx context.Context, id string) (models.Offer, error) {
	if !validID(id) {
		return models.Offer{}, storage.ErrNotFound
	}
	return scanOffer(s.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
}

// UpdateOfferStatus locks the offer row, checks the transition and writes it.
func (s *Store) UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus, amount *float64) (models.Offer, error) {
	if !validID(id) {
		return models.Offer{}, storage.ErrNotFound
	}
	var updated models.Offer
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		current, err := scanOffer(tx.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			return err
		}
		if !current.Status.CanTransition(status) {
			return storage.ErrInvalidTransition
		}
		if amount != nil {
			current.Amount = *amount
		}
		updated, err = scanOffer(tx.QueryRow(ctx, `
			UPDATE offers SET status = $2, amount = $3, updated_at = NOW()
			WHERE id = $1
			RETURNING `+offerColumns,
			id, string(status), current.Amount))
		return err
	})
	if err != nil {
		return models.Offer{}, err
	}
	return updated, nil
}

func scanCampaign(row pgx.Row) (models.Campaign, error) {
	var c models.Campaign
	if err := row.Scan(&c.ID, &c.BrandID, &c.Title, &c.Description, &c.Budget, &c.Currency, &c.Status,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Campaign{}, mapError(err)
	}
	return c, nil
}

func scanOffer(row pgx.Row) (models.Offer, error) {
	var o models.Offer
	if err := row.Scan(&o.ID, &o.CampaignID, &o.InfluencerID, &o.Amount, &o.Status, &o.CreatedAt,
		&o.UpdatedAt); err != nil {
		return models.Offer{}, mapError(err)
	}
	return o, nil
}
