package dto

import "github.com/brandconnect/brandconnect-be/internal/models"

type CreateCampaignRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      float64         `json:"budget"`
	Currency    models.Currency `json:"currency"`
}

type UpdateCampaignRequest struct {
	Title       *string                `json:"title"`
	Description *string                `json:"description"`
	Budget      *float64               `json:"budget"`
	Currency    *models.Currency       `json:"currency"`
	Status      *models.CampaignStatus `json:"status"`
}

type CreateOfferRequest struct {
	InfluencerID string  `json:"influencerId"`
	Amount       float64 `json:"amount"`
}

type UpdateOfferStatusRequest struct {
	Status models.OfferStatus `json:"status"`
	Amount *float64           `json:"amount"`
}
