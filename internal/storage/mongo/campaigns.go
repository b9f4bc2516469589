package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (s *Store) CreateCampaign(ctx context.Context, campaign models.Campaign) (models.Campaign, error) {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	if err := s.users.FindOne(ctx, bson.M{"_id": campaign.BrandID}).Err(); err != nil {
		return models.Campaign{}, mapError(err)
	}
	campaign.CreatedAt = now()
	campaign.UpdatedAt = campaign.CreatedAt
	if _, err := s.campaigns.InsertOne(ctx, campaign); err != nil {
		return models.Campaign{}, mapError(err)
	}
	return campaign, nil
}

func (s *Store) ListCampaigns(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, error) {
	query := bson.M{}
	if filter.BrandID != "" {
		query["brand_id"] = filter.BrandID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cur, err := s.campaigns.Find(ctx, query, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	campaigns := make([]models.Campaign, 0)
	if err := cur.All(ctx, &campaigns); err != nil {
		return nil, fmt.Errorf("decode campaigns: %w", err)
	}
	return campaigns, nil
}

func (s *Store) GetCampaign(ctx context.Context, id string) (models.Campaign, error) {
	var c models.Campaign
	if err := s.campaigns.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return models.Campaign{}, mapError(err)
	}
	return c, nil
}

// UpdateCampaign applies patch. A status change is guarded in the filter so a
// concurrent transition cannot slip between the check and the write.
func (s *Store) UpdateCampaign(ctx context.Context, id string, patch models.CampaignPatch) (models.Campaign, error) {
	set := bson.M{"updated_at": now()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Budget != nil {
		set["budget"] = *patch.Budget
	}
	if patch.Currency != nil {
		set["currency"] = *patch.Currency
	}
	filter := bson.M{"_id": id}
	if patch.Status != nil {
		set["status"] = *patch.Status
		filter["status"] = bson.M{"$in": campaignSources(*patch.Status)}
	}

	var c models.Campaign
	err := s.campaigns.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&c)
	if err != nil {
		err = mapError(err)
		if err == storage.ErrNotFound && patch.Status != nil {
			if _, getErr := s.GetCampaign(ctx, id); getErr == nil {
				return models.Campaign{}, storage.ErrInvalidTransition
			}
		}
		return models.Campaign{}, err
	}
	return c, nil
}

func (s *Store) DeleteCampaign(ctx context.Context, id string) error {
	res, err := s.campaigns.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete campaign: %w", err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	if _, err := s.offers.DeleteMany(ctx, bson.M{"campaign_id": id}); err != nil {
		return fmt.Errorf("delete campaign offers: %w", err)
	}
	return nil
}

func (s *Store) CreateOffer(ctx context.Context, offer models.Offer) (models.Offer, error) {
	if offer.ID == "" {
		offer.ID = uuid.NewString()
	}
	if offer.Status == "" {
		offer.Status = models.OfferPending
	}
	if err := s.campaigns.FindOne(ctx, bson.M{"_id": offer.CampaignID}).Err(); err != nil {
		return models.Offer{}, mapError(err)
	}
	offer.CreatedAt = now()
	offer.UpdatedAt = offer.CreatedAt
	if _, err := s.offers.InsertOne(ctx, offer); err != nil {
		return models.Offer{}, mapError(err)
	}
	return offer, nil
}

func (s *Store) ListOffers(ctx context.Context, filter models.OfferFilter) ([]models.Offer, error) {
	query := bson.M{}
	if filter.CampaignID != "" {
		query["campaign_id"] = filter.CampaignID
	}
	if filter.InfluencerID != "" {
		query["influencer_id"] = filter.InfluencerID
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	cur, err := s.offers.Find(ctx, query, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list offers: %w", err)
	}
	offers := make([]models.Offer, 0)
	if err := cur.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("decode offers: %w", err)
	}
	return offers, nil
}

func (s *Store) GetOffer(ctx context.Context, id string) (models.Offer, error) {
	var o models.Offer
	if err := s.offers.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return models.Offer{}, mapError(err)
	}
	return o, nil
}

func (s *Store) UpdateOfferStatus(ctx context.Context, id string, status models.OfferStatus, amount *float64) (models.Offer, error) {
	set := bson.M{"status": status, "updated_at": now()}
	if amount != nil {
		set["amount"] = *amount
	}
	filter := bson.M{"_id": id, "status": bson.M{"$in": offerSources(status)}}

	var o models.Offer
	err := s.offers.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&o)
	if err != nil {
		err = mapError(err)
		if err == storage.ErrNotFound {
			if _, getErr := s.GetOffer(ctx, id); getErr == nil {
				return models.Offer{}, storage.ErrInvalidTransition
			}
		}
		return models.Offer{}, err
	}
	return o, nil
}

// campaignSources lists the statuses a campaign may move to next from.
func campaignSources(next models.CampaignStatus) []models.CampaignStatus {
	var out []models.CampaignStatus
	for _, s := range []models.CampaignStatus{models.CampaignDraft, models.CampaignActive, models.CampaignClosed, models.CampaignCompleted} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

func offerSources(next models.OfferStatus) []models.OfferStatus {
	out := []models.OfferStatus{}
	for _, s := range []models.OfferStatus{models.OfferPending, models.OfferAccepted, models.OfferRejected, models.OfferCounter} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}
