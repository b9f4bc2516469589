package handlers

import (
	"context"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/models"
)

func createCampaign(t *testing.T, api *testAPI, token string, body map[string]any) models.Campaign {
	t.Helper()
	resp, env := api.do(http.MethodPost, "/campaigns", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	return decodeData[models.Campaign](t, env)
}

func activate(t *testing.T, api *testAPI, token, campaignID string) {
	t.Helper()
	resp, env := api.do(http.MethodPut, "/campaigns/"+campaignID, token, map[string]any{"status": "active"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
}

func TestCreateCampaign(t *testing.T) {
	api := newTestAPI(t, nil)
	brand, brandToken := api.user(models.RoleBrand)
	_, influencerToken := api.user(models.RoleInfluencer)

	campaign := createCampaign(t, api, brandToken, map[string]any{
		"title":  " Summer launch ",
		"budget": 2500,
	})
	assert.Equal(t, "Summer launch", campaign.Title)
	assert.Equal(t, brand.ID, campaign.BrandID)
	assert.Equal(t, models.CampaignDraft, campaign.Status)
	assert.Equal(t, models.CurrencyGBP, campaign.Currency)
	assert.Contains(t, api.events.Keys(), events.CampaignCreated)

	cases := []struct {
		name   string
		token  string
		body   map[string]any
		status int
	}{
		{"influencer forbidden", influencerToken, map[string]any{"title": "x"}, http.StatusForbidden},
		{"missing title", brandToken, map[string]any{"budget": 10}, http.StatusBadRequest},
		{"negative budget", brandToken, map[string]any{"title": "x", "budget": -1}, http.StatusBadRequest},
		{"bad currency", brandToken, map[string]any{"title": "x", "currency": "EUR"}, http.StatusBadRequest},
		{"no token", "", map[string]any{"title": "x"}, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, _ := api.do(http.MethodPost, "/campaigns", tc.token, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestListCampaignsFilters(t *testing.T) {
	api := newTestAPI(t, nil)
	brandA, tokenA := api.user(models.RoleBrand)
	_, tokenB := api.user(models.RoleBrand)

	first := createCampaign(t, api, tokenA, map[string]any{"title": "A1"})
	createCampaign(t, api, tokenA, map[string]any{"title": "A2"})
	createCampaign(t, api, tokenB, map[string]any{"title": "B1"})
	activate(t, api, tokenA, first.ID)

	resp, env := api.do(http.MethodGet, "/campaigns", tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]models.Campaign](t, env), 3)

	resp, env = api.do(http.MethodGet, "/campaigns?brandId="+brandA.ID, tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decodeData[[]models.Campaign](t, env), 2)

	resp, env = api.do(http.MethodGet, "/campaigns?status=active", tokenB, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	active := decodeData[[]models.Campaign](t, env)
	require.Len(t, active, 1)
	assert.Equal(t, first.ID, active[0].ID)

	resp, _ = api.do(http.MethodGet, "/campaigns?status=bogus", tokenB, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateCampaign(t *testing.T) {
	api := newTestAPI(t, nil)
	_, ownerToken := api.user(models.RoleBrand)
	_, otherToken := api.user(models.RoleBrand)
	_, adminToken := api.user(models.RoleAdmin)
	campaign := createCampaign(t, api, ownerToken, map[string]any{"title": "Launch", "budget": 100})

	resp, _ := api.do(http.MethodPut, "/campaigns/"+campaign.ID, otherToken, map[string]any{"title": "Hijack"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, env := api.do(http.MethodPut, "/campaigns/"+campaign.ID, adminToken, map[string]any{"budget": 300})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
	assert.Equal(t, 300.0, decodeData[models.Campaign](t, env).Budget)

	activate(t, api, ownerToken, campaign.ID)

	resp, _ = api.do(http.MethodPut, "/campaigns/"+campaign.ID, ownerToken, map[string]any{"status": "draft"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, _ = api.do(http.MethodPut, "/campaigns/"+campaign.ID, ownerToken, map[string]any{"title": ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = api.do(http.MethodPut, "/campaigns/missing", ownerToken, map[string]any{"title": "x"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestOfferLifecycle(t *testing.T) {
	api := newTestAPI(t, nil)
	_, brandToken := api.user(models.RoleBrand)
	influencer, influencerToken := api.user(models.RoleInfluencer)
	_, bystanderToken := api.user(models.RoleInfluencer)
	otherBrand, _ := api.user(models.RoleBrand)
	campaign := createCampaign(t, api, brandToken, map[string]any{"title": "Launch", "budget": 5000})
	offersPath := "/campaigns/" + campaign.ID + "/offers"

	resp, _ := api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 1000})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "draft campaigns take no offers")

	activate(t, api, brandToken, campaign.ID)

	resp, _ = api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": otherBrand.ID, "amount": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": "missing", "amount": 1000})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 0})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env := api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 1000})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	offer := decodeData[models.Offer](t, env)
	assert.Equal(t, models.OfferPending, offer.Status)
	assert.Contains(t, api.events.Keys(), events.OfferCreated)

	t.Run("visibility", func(t *testing.T) {
		resp, env := api.do(http.MethodGet, offersPath, brandToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Len(t, decodeData[[]models.Offer](t, env), 1)

		resp, env = api.do(http.MethodGet, offersPath, bystanderToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Empty(t, decodeData[[]models.Offer](t, env))

		resp, env = api.do(http.MethodGet, "/offers", influencerToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		mine := decodeData[[]models.Offer](t, env)
		require.Len(t, mine, 1)
		assert.Equal(t, offer.ID, mine[0].ID)
	})

	statusPath := "/offers/" + offer.ID + "/status"

	t.Run("validation", func(t *testing.T) {
		resp, _ := api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "counter"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp, _ = api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "accepted", "amount": 10})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp, _ = api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "pending"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp, _ = api.do(http.MethodPut, statusPath, bystanderToken, map[string]any{"status": "rejected"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("counter then accept", func(t *testing.T) {
		resp, env := api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "counter", "amount": 1500})
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		countered := decodeData[models.Offer](t, env)
		assert.Equal(t, models.OfferCounter, countered.Status)
		assert.Equal(t, 1500.0, countered.Amount)

		resp, _ = api.do(http.MethodPut, statusPath, brandToken, map[string]any{"status": "accepted"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode, "the brand answers with a counter, not an accept")
		resp, _ = api.do(http.MethodPut, statusPath, brandToken, map[string]any{"status": "rejected"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)

		resp, env = api.do(http.MethodPut, statusPath, brandToken, map[string]any{"status": "counter", "amount": 1200})
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		assert.Equal(t, 1200.0, decodeData[models.Offer](t, env).Amount)

		resp, env = api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "accepted"})
		require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)
		accepted := decodeData[models.Offer](t, env)
		assert.Equal(t, models.OfferAccepted, accepted.Status)
		assert.Equal(t, 1200.0, accepted.Amount)
		assert.Contains(t, api.events.Keys(), events.OfferStatusChanged)

		resp, _ = api.do(http.MethodPut, statusPath, influencerToken, map[string]any{"status": "rejected"})
		assert.Equal(t, http.StatusConflict, resp.StatusCode, "accepted offers are final")
	})
}

func TestOfferStatusNeedsActiveCampaign(t *testing.T) {
	api := newTestAPI(t, nil)
	_, brandToken := api.user(models.RoleBrand)
	influencer, influencerToken := api.user(models.RoleInfluencer)
	campaign := createCampaign(t, api, brandToken, map[string]any{"title": "Closing soon"})
	activate(t, api, brandToken, campaign.ID)

	resp, env := api.do(http.MethodPost, "/campaigns/"+campaign.ID+"/offers", brandToken, map[string]any{"influencerId": influencer.ID, "amount": 250})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	offer := decodeData[models.Offer](t, env)

	resp, env = api.do(http.MethodPut, "/campaigns/"+campaign.ID, brandToken, map[string]any{"status": "closed"})
	require.Equal(t, http.StatusOK, resp.StatusCode, env.Message)

	resp, _ = api.do(http.MethodPut, "/offers/"+offer.ID+"/status", influencerToken, map[string]any{"status": "accepted"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	stored, err := api.store.GetOffer(context.Background(), offer.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OfferPending, stored.Status)
}

func TestMoneyBounds(t *testing.T) {
	api := newTestAPI(t, nil)
	_, brandToken := api.user(models.RoleBrand)
	influencer, influencerToken := api.user(models.RoleInfluencer)

	resp, _ := api.do(http.MethodPost, "/campaigns", brandToken, map[string]any{"title": "Too big", "budget": 1e12})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp, _ = api.do(http.MethodPost, "/campaigns", brandToken, map[string]any{"title": "Fractional", "budget": 10.005})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	campaign := createCampaign(t, api, brandToken, map[string]any{"title": "Largest", "budget": 999999999999.99})
	assert.Equal(t, 999999999999.99, campaign.Budget)
	activate(t, api, brandToken, campaign.ID)

	offersPath := "/campaigns/" + campaign.ID + "/offers"
	resp, _ = api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 0.001})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "sub-cent amounts would round to zero")
	resp, _ = api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 1e12})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, env := api.do(http.MethodPost, offersPath, brandToken, map[string]any{"influencerId": influencer.ID, "amount": 0.01})
	require.Equal(t, http.StatusCreated, resp.StatusCode, env.Message)
	offer := decodeData[models.Offer](t, env)

	resp, _ = api.do(http.MethodPut, "/offers/"+offer.ID+"/status", influencerToken, map[string]any{"status": "counter", "amount": 0.005})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteCampaignRemovesOffers(t *testing.T) {
	api := newTestAPI(t, nil)
	_, brandToken := api.user(models.RoleBrand)
	_, otherToken := api.user(models.RoleBrand)
	influencer, influencerToken := api.user(models.RoleInfluencer)
	campaign := createCampaign(t, api, brandToken, map[string]any{"title": "Short lived"})
	activate(t, api, brandToken, campaign.ID)

	resp, _ := api.do(http.MethodPost, "/campaigns/"+campaign.ID+"/offers", brandToken, map[string]any{"influencerId": influencer.ID, "amount": 50})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = api.do(http.MethodDelete, "/campaigns/"+campaign.ID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = api.do(http.MethodDelete, "/campaigns/"+campaign.ID, brandToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = api.do(http.MethodGet, "/campaigns/"+campaign.ID, brandToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, env := api.do(http.MethodGet, "/offers", influencerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decodeData[[]models.Offer](t, env))
}

func TestValidMoney(t *testing.T) {
	for _, v := range []float64{0, 0.01, 19.99, 1234.5, 573465371531.92, 999999999999.99} {
		assert.True(t, validMoney(v), "%v", v)
	}
	for _, v := range []float64{0.001, 10.005, 1e12, -1e12, math.NaN(), math.Inf(1)} {
		assert.False(t, validMoney(v), "%v", v)
	}
}
