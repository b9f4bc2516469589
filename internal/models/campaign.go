package models

import "time"

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "draft"
	CampaignActive    CampaignStatus = "active"
	CampaignClosed    CampaignStatus = "closed"
	CampaignCompleted CampaignStatus = "completed"
)

type Currency string

const (
	CurrencyGBP Currency = "GBP"
	CurrencyUSD Currency = "USD"
)

func (c Currency) Valid() bool {
	return c == CurrencyGBP || c == CurrencyUSD
}

var campaignTransitions = map[CampaignStatus][]CampaignStatus{
	CampaignDraft:  {CampaignActive, CampaignClosed},
	CampaignActive: {CampaignClosed, CampaignCompleted},
	CampaignClosed: {CampaignCompleted},
}

func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignDraft, CampaignActive, CampaignClosed, CampaignCompleted:
		return true
	}
	return false
}

// CanTransition reports whether a campaign may move from s to next.
// Staying in the same status is always allowed.
func (s CampaignStatus) CanTransition(next CampaignStatus) bool {
	if s == next {
		return true
	}
	for _, allowed := range campaignTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Campaign is a brand's brief that influencers receive offers against.
type Campaign struct {
	ID          string         `json:"id" bson:"_id"`
	BrandID     string         `json:"brandId" bson:"brand_id"`
	Title       string         `json:"title" bson:"title"`
	Description string         `json:"description" bson:"description"`
	Budget      float64        `json:"budget" bson:"budget"`
	Currency    Currency       `json:"currency" bson:"currency"`
	Status      CampaignStatus `json:"status" bson:"status"`
	CreatedAt   time.Time      `json:"createdAt" bson:"created_at"`
	UpdatedAt   time.Time      `json:"updatedAt" bson:"updated_at"`
}

type CampaignPatch struct {
	Title       *string
	Description *string
	Budget      *float64
	Currency    *Currency
	Status      *CampaignStatus
}

func (p CampaignPatch) Apply(c *Campaign) {
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.Budget != nil {
		c.Budget = *p.Budget
	}
	if p.Currency != nil {
		c.Currency = *p.Currency
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
}

// CampaignFilter narrows ListCampaigns. Zero values match everything.
type CampaignFilter struct {
	BrandID string
	Status  CampaignStatus
}
