package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/brandconnect/brandconnect-be/internal/auth"
	"github.com/brandconnect/brandconnect-be/internal/events"
	"github.com/brandconnect/brandconnect-be/internal/http/respond"
	"github.com/brandconnect/brandconnect-be/internal/middleware"
	"github.com/brandconnect/brandconnect-be/internal/models"
	"github.com/brandconnect/brandconnect-be/internal/models/dto"
	"github.com/brandconnect/brandconnect-be/internal/storage"
)

// CampaignsHandler serves campaigns and the offers made against them.
type CampaignsHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	events events.Publisher
}

func NewCampaignsHandler(store storage.Store, tokens *auth.TokenManager, publisher events.Publisher) *CampaignsHandler {
	return &CampaignsHandler{store: store, tokens: tokens, events: publisher}
}

// Register attaches campaign and offer routes to the mux.
func (h *CampaignsHandler) Register(mux *http.ServeMux) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.Authenticate(h.tokens, middleware.RequireActive(h.store, fn))
	}
	brands := func(fn http.HandlerFunc) http.Handler {
		return authed(middleware.RequireRole(fn, models.RoleBrand, models.RoleAdmin).ServeHTTP)
	}

	mux.Handle("GET /campaigns", authed(h.handleList))
	mux.Handle("POST /campaigns", brands(h.handleCreate))
	mux.Handle("GET /campaigns/{id}", authed(h.handleGet))
	mux.Handle("PUT /campaigns/{id}", brands(h.handleUpdate))
	mux.Handle("DELETE /campaigns/{id}", brands(h.handleDelete))
	mux.Handle("GET /campaigns/{id}/offers", authed(h.handleListOffers))
	mux.Handle("POST /campaigns/{id}/offers", brands(h.handleCreateOffer))
	mux.Handle("GET /offers", authed(h.handleMyOffers))
	mux.Handle("PUT /offers/{id}/status", authed(h.handleOfferStatus))
}

func (h *CampaignsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.CampaignFilter{
		BrandID: strings.TrimSpace(q.Get("brandId")),
		Status:  models.CampaignStatus(strings.TrimSpace(q.Get("status"))),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, "status is invalid")
		return
	}
	campaigns, err := h.store.ListCampaigns(r.Context(), filter)
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	respond.JSON(w, http.StatusOK, "campaigns", campaigns)
}

func (h *CampaignsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.CreateCampaignRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	campaign := models.Campaign{
		BrandID:     claims.Subject,
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Budget:      req.Budget,
		Currency:    req.Currency,
		Status:      models.CampaignDraft,
	}
	if campaign.Currency == "" {
		campaign.Currency = models.CurrencyGBP
	}
	if err := validateCampaign(campaign); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.store.CreateCampaign(r.Context(), campaign)
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	events.Emit(r.Context(), h.events, events.CampaignCreated, created)
	respond.JSON(w, http.StatusCreated, "campaign created successfully", created)
}

func validateCampaign(c models.Campaign) error {
	if c.Title == "" {
		return errors.New("title is required")
	}
	if c.Budget < 0 || !validMoney(c.Budget) {
		return errors.New("budget must be a non-negative amount below 1,000,000,000,000 with at most two decimals")
	}
	if !c.Currency.Valid() {
		return errors.New("currency must be GBP or USD")
	}
	if !c.Status.Valid() {
		return errors.New("status is invalid")
	}
	return nil
}

func (h *CampaignsHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	campaign, err := h.store.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	respond.JSON(w, http.StatusOK, "campaign", campaign)
}

// ownedCampaign loads the campaign in the path and checks the caller owns it.
func (h *CampaignsHandler) ownedCampaign(w http.ResponseWriter, r *http.Request, claims *auth.Claims) (models.Campaign, bool) {
	campaign, err := h.store.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "campaign")
		return models.Campaign{}, false
	}
	if !isAdmin(claims) && campaign.BrandID != claims.Subject {
		respond.Error(w, http.StatusForbidden, "campaign belongs to another brand")
		return models.Campaign{}, false
	}
	return campaign, true
}

func (h *CampaignsHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	current, ok := h.ownedCampaign(w, r, claims)
	if !ok {
		return
	}
	var req dto.UpdateCampaignRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	patch := models.CampaignPatch{
		Title:       trimmed(req.Title),
		Description: trimmed(req.Description),
		Budget:      req.Budget,
		Currency:    req.Currency,
		Status:      req.Status,
	}
	preview := current
	patch.Apply(&preview)
	if err := validateCampaign(preview); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := h.store.UpdateCampaign(r.Context(), current.ID, patch)
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	respond.JSON(w, http.StatusOK, "campaign updated successfully", updated)
}

func (h *CampaignsHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	campaign, ok := h.ownedCampaign(w, r, claims)
	if !ok {
		return
	}
	if err := h.store.DeleteCampaign(r.Context(), campaign.ID); err != nil {
		storeError(w, err, "campaign")
		return
	}
	respond.JSON(w, http.StatusOK, "campaign deleted successfully", dto.DeleteResponse{Success: true})
}

func (h *CampaignsHandler) handleListOffers(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	campaign, err := h.store.GetCampaign(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	filter := models.OfferFilter{CampaignID: campaign.ID}
	if !isAdmin(claims) && campaign.BrandID != claims.Subject {
		// other callers only see offers addressed to them
		filter.InfluencerID = claims.Subject
	}
	offers, err := h.store.ListOffers(r.Context(), filter)
	if err != nil {
		storeError(w, err, "offer")
		return
	}
	respond.JSON(w, http.StatusOK, "offers", offers)
}

func (h *CampaignsHandler) handleCreateOffer(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	campaign, ok := h.ownedCampaign(w, r, claims)
	if !ok {
		return
	}
	if campaign.Status != models.CampaignActive {
		respond.Error(w, http.StatusConflict, "campaign is not accepting offers")
		return
	}
	var req dto.CreateOfferRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if !validAmount(req.Amount) {
		respond.Error(w, http.StatusBadRequest, "amount must be greater than zero, below 1,000,000,000,000 and have at most two decimals")
		return
	}
	influencer, err := h.store.GetUser(r.Context(), strings.TrimSpace(req.InfluencerID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusBadRequest, "influencer not found")
			return
		}
		storeError(w, err, "user")
		return
	}
	if !influencer.IsInfluencer() {
		respond.Error(w, http.StatusBadRequest, "offers can only be made to influencers")
		return
	}

	offer, err := h.store.CreateOffer(r.Context(), models.Offer{
		CampaignID:   campaign.ID,
		InfluencerID: influencer.ID,
		Amount:       req.Amount,
		Status:       models.OfferPending,
	})
	if err != nil {
		storeError(w, err, "offer")
		return
	}
	events.Emit(r.Context(), h.events, events.OfferCreated, offer)
	respond.JSON(w, http.StatusCreated, "offer created successfully", offer)
}

func (h *CampaignsHandler) handleMyOffers(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	filter := models.OfferFilter{Status: models.OfferStatus(strings.TrimSpace(r.URL.Query().Get("status")))}
	if filter.Status != "" && !filter.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, "status is invalid")
		return
	}
	if !isAdmin(claims) {
		filter.InfluencerID = claims.Subject
	}
	offers, err := h.store.ListOffers(r.Context(), filter)
	if err != nil {
		storeError(w, err, "offer")
		return
	}
	respond.JSON(w, http.StatusOK, "offers", offers)
}

func (h *CampaignsHandler) handleOfferStatus(w http.ResponseWriter, r *http.Request) {
	claims, ok := caller(w, r)
	if !ok {
		return
	}
	var req dto.UpdateOfferStatusRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if !req.Status.Valid() || req.Status == models.OfferPending {
		respond.Error(w, http.StatusBadRequest, "status must be accepted, rejected or counter")
		return
	}
	if req.Amount != nil && req.Status != models.OfferCounter {
		respond.Error(w, http.StatusBadRequest, "amount may only be set on a counter offer")
		return
	}
	if req.Status == models.OfferCounter && (req.Amount == nil || !validAmount(*req.Amount)) {
		respond.Error(w, http.StatusBadRequest, "counter offers need an amount greater than zero with at most two decimals")
		return
	}

	offer, err := h.store.GetOffer(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, err, "offer")
		return
	}
	campaign, err := h.store.GetCampaign(r.Context(), offer.CampaignID)
	if err != nil {
		storeError(w, err, "campaign")
		return
	}
	influencer := offer.InfluencerID == claims.Subject
	if !isAdmin(claims) && !influencer && campaign.BrandID != claims.Subject {
		respond.Error(w, http.StatusForbidden, "not a party to this offer")
		return
	}
	// the brand made the offer, so only the influencer answers it; the brand may counter
	if req.Status != models.OfferCounter && !isAdmin(claims) && !influencer {
		respond.Error(w, http.StatusForbidden, "only the influencer can accept or reject an offer")
		return
	}
	if campaign.Status != models.CampaignActive {
		respond.Error(w, http.StatusConflict, "campaign is not active")
		return
	}

	updated, err := h.store.UpdateOfferStatus(r.Context(), offer.ID, req.Status, req.Amount)
	if err != nil {
		storeError(w, err, "offer")
		return
	}
	events.Emit(r.Context(), h.events, events.OfferStatusChanged, map[string]any{
		"offer":          updated,
		"previousStatus": offer.Status,
		"changedBy":      claims.Subject,
	})
	respond.JSON(w, http.StatusOK, "offer updated successfully", updated)
}

// maxMoney is the exclusive upper bound of NUMERIC(14,2).
const maxMoney = 1e12

// validMoney reports whether v fits NUMERIC(14,2) without rounding.
func validMoney(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) >= maxMoney {
		return false
	}
	digits := strconv.FormatFloat(math.Abs(v), 'f', -1, 64)
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		return len(digits)-dot-1 <= 2
	}
	return true
}

func validAmount(v float64) bool {
	return v > 0 && validMoney(v)
}
