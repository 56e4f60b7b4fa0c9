package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/Turquoise-stack/FLAT-CLUB/internal/services"
	"github.com/Turquoise-stack/FLAT-CLUB/internal/store"
	"github.com/Turquoise-stack/FLAT-CLUB/types"
	"github.com/go-chi/chi/v5"
)

const (
	listingFieldTitle       = "title"
	listingFieldDescription = "description"
	listingFieldPrice       = "price"
	listingFieldLocation    = "location"
	listingFieldIsRental    = "isRental"
	listingFieldStatus      = "status"
	listingFieldPreferences = "preferences"
	listingFieldImages      = "images"

	maxListingFormMemory = 32 << 20
	maxImageSize         = 10 << 20
)

// ListingHandler serves listing CRUD and filtered search.
type ListingHandler struct {
	listings *services.ListingService
	users    *services.UserService
	logger   *slog.Logger
}

func NewListingHandler(listings *services.ListingService, users *services.UserService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, users: users, logger: logger}
}

func ListingRouter(r chi.Router, h *ListingHandler, auth func(http.Handler) http.Handler) {
	r.Get("/listings", h.list)
	r.Get("/listings/search", h.search)
	r.Get("/listings/{listingID}", h.get)

	r.Group(func(r chi.Router) {
		r.Use(auth)
		r.Post("/listings", h.create)
		r.Put("/listings/{listingID}", h.update)
		r.Delete("/listings/{listingID}", h.remove)
	})
}

type listingListResponse struct {
	Total    int             `json:"total"`
	Listings []types.Listing `json:"listings"`
}

func (h *ListingHandler) list(w http.ResponseWriter, r *http.Request) {
	_, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listings, total, err := h.listings.List(r.Context(), offset, limit)
	if err != nil {
		h.logger.Error("listing list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list listings")
		return
	}

	writeJSON(w, http.StatusOK, listingListResponse{Total: total, Listings: listings})
}

func (h *ListingHandler) search(w http.ResponseWriter, r *http.Request) {
	filter, err := types.ParseListingFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listings, err := h.listings.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error("listing search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to search listings")
		return
	}

	writeJSON(w, http.StatusOK, listings)
}

func (h *ListingHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "listingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Listing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}

	writeJSON(w, http.StatusOK, listing)
}

func (h *ListingHandler) create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxListingFormMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	listing, err := listingFromForm(r, actor.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	uploads, err := imagesFromForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.listings.Create(r.Context(), listing, uploads)
	if err != nil {
		h.logger.Error("listing create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create listing")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

func listingFromForm(r *http.Request, ownerID int) (types.Listing, error) {
	title := strings.TrimSpace(r.FormValue(listingFieldTitle))
	if title == "" {
		return types.Listing{}, errors.New("title is required")
	}

	location := strings.TrimSpace(r.FormValue(listingFieldLocation))
	if location == "" {
		return types.Listing{}, errors.New("location is required")
	}

	price, err := strconv.ParseFloat(r.FormValue(listingFieldPrice), 64)
	if err != nil || price < 0 {
		return types.Listing{}, errors.New("invalid price")
	}

	isRental := true
	if raw := r.FormValue(listingFieldIsRental); raw != "" {
		isRental, err = strconv.ParseBool(raw)
		if err != nil {
			return types.Listing{}, errors.New("invalid isRental")
		}
	}

	status := strings.TrimSpace(r.FormValue(listingFieldStatus))
	if status == "" {
		status = types.DefaultListingStatus
	}

	listing := types.Listing{
		OwnerID:     ownerID,
		Title:       title,
		Description: r.FormValue(listingFieldDescription),
		Price:       price,
		Location:    location,
		IsRental:    isRental,
		Status:      status,
	}

	if raw := r.FormValue(listingFieldPreferences); raw != "" {
		var prefs types.Preferences
		if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
			return types.Listing{}, errors.New("invalid preferences JSON")
		}
		listing.Preferences = &prefs
	}

	return listing, nil
}

func imagesFromForm(r *http.Request) ([]services.ImageUpload, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	files := r.MultipartForm.File[listingFieldImages]
	uploads := make([]services.ImageUpload, 0, len(files))
	for _, header := range files {
		if header.Size > maxImageSize {
			return nil, errors.New("image exceeds maximum size")
		}

		file, err := header.Open()
		if err != nil {
			return nil, errors.New("failed to read image upload")
		}
		data, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
		file.Close()
		if err != nil {
			return nil, errors.New("failed to read image upload")
		}
		if int64(len(data)) > maxImageSize {
			return nil, errors.New("image exceeds maximum size")
		}

		uploads = append(uploads, services.ImageUpload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

type updateListingRequest struct {
	Title       *string            `json:"title"`
	Description *string            `json:"description"`
	Price       *float64           `json:"price"`
	Location    *string            `json:"location"`
	IsRental    *bool              `json:"isRental"`
	Status      *string            `json:"status"`
	Preferences *types.Preferences `json:"preferences"`
}

func (h *ListingHandler) update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "listingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Listing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}

	if listing.OwnerID != actor.ID && actor.Role != "admin" {
		writeError(w, http.StatusForbidden, "Not authorized to update this listing")
		return
	}

	var req updateListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Title != nil {
		listing.Title = *req.Title
	}
	if req.Description != nil {
		listing.Description = *req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			writeError(w, http.StatusBadRequest, "invalid price")
			return
		}
		listing.Price = *req.Price
	}
	if req.Location != nil {
		listing.Location = *req.Location
	}
	if req.IsRental != nil {
		listing.IsRental = *req.IsRental
	}
	if req.Status != nil {
		listing.Status = *req.Status
	}
	if req.Preferences != nil {
		listing.Preferences = req.Preferences
	}

	updated, err := h.listings.Update(r.Context(), listing)
	if err != nil {
		h.logger.Error("listing update failed", "listing_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update listing")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *ListingHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "listingID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	actor, ok := requireActor(w, r, h.users)
	if !ok {
		return
	}

	listing, err := h.listings.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Listing not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load listing")
		return
	}

	if listing.OwnerID != actor.ID && actor.Role != "admin" {
		writeError(w, http.StatusForbidden, "Not authorized to delete this listing")
		return
	}

	if err := h.listings.Delete(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete listing")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Listing deleted successfully"})
}
