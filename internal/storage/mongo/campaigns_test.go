package mongo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brandconnect/brandconnect-be/internal/models"
)

func TestCampaignSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.CampaignStatus{models.CampaignActive, models.CampaignClosed, models.CampaignCompleted},
		campaignSources(models.CampaignCompleted))
	assert.ElementsMatch(t,
		[]models.CampaignStatus{models.CampaignDraft, models.CampaignActive},
		campaignSources(models.CampaignActive))
}

func TestOfferSources(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OfferStatus{models.OfferPending, models.OfferCounter},
		offerSources(models.OfferAccepted))
	assert.Empty(t, offerSources(models.OfferPending))
	assert.NotNil(t, offerSources(models.OfferPending))
}
