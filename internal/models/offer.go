package models

import "time"

type OfferStatus string

const (
	OfferPending  OfferStatus = "pending"
	OfferAccepted OfferStatus = "accepted"
	OfferRejected OfferStatus = "rejected"
	OfferCounter  OfferStatus = "counter"
)

func (s OfferStatus) Valid() bool {
	switch s {
	case OfferPending, OfferAccepted, OfferRejected, OfferCounter:
		return true
	}
	return false
}

// Terminal reports whether no further status change is possible.
func (s OfferStatus) Terminal() bool {
	return s == OfferAccepted || s == OfferRejected
}

// CanTransition reports whether an offer may move from s to next.
// A counter may be answered with another counter.
func (s OfferStatus) CanTransition(next OfferStatus) bool {
	if s.Terminal() || next == OfferPending {
		return false
	}
	return next.Valid()
}

// Offer links a campaign to an influencer at a proposed amount.
type Offer struct {
	ID           string      `json:"id" bson:"_id"`
	CampaignID   string      `json:"campaignId" bson:"campaign_id"`
	InfluencerID string      `json:"influencerId" bson:"influencer_id"`
	Amount       float64     `json:"amount" bson:"amount"`
	Status       OfferStatus `json:"status" bson:"status"`
	CreatedAt    time.Time   `json:"createdAt" bson:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" bson:"updated_at"`
}

// OfferFilter narrows ListOffers. Zero values match everything.
type OfferFilter struct {
	CampaignID   string
	InfluencerID string
	Status       OfferStatus
}
