// This file defines handlers for the public discovery API. These routes
// let unauthenticated users browse restaurants and open tables without
// authentication. Internal slot states are never exposed: anything not
// bookable is presented as FULL.

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/repository"
	"github.com/aydinmert/tablebook/internal/service"
)

// PublicHandler aggregates the read-side dependencies for discovery.
type PublicHandler struct {
	RestaurantRepo *repository.RestaurantRepo
	Availability   *service.Availability
}

// NewPublicHandler constructs a PublicHandler. All dependencies must be
// non-nil.
func NewPublicHandler(restaurantRepo *repository.RestaurantRepo, availability *service.Availability) *PublicHandler {
	if restaurantRepo == nil || availability == nil {
		panic("nil dependency passed to NewPublicHandler")
	}
	return &PublicHandler{RestaurantRepo: restaurantRepo, Availability: availability}
}

// PublicRestaurant represents a restaurant exposed via the public API.
// It contains only safe fields.
type PublicRestaurant struct {
	ID           uint64 `json:"id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Neighborhood string `json:"neighborhood"`
	Category     string `json:"category"`
	HeroImageURL string `json:"hero_image_url,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Website      string `json:"website,omitempty"`
}

// ListRestaurants returns the restaurant directory. Response JSON
// contains an "items" array of PublicRestaurant.
func (h *PublicHandler) ListRestaurants(c echo.Context) error {
	ctx := c.Request().Context()
	restaurants, err := h.RestaurantRepo.ListAll(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicRestaurant, 0, len(restaurants))
	for _, r := range restaurants {
		out = append(out, PublicRestaurant{
			ID:           r.ID,
			Name:         r.Name,
			Slug:         r.Slug,
			Neighborhood: r.Neighborhood,
			Category:     r.Category,
			HeroImageURL: r.HeroImageURL,
			Phone:        r.Phone,
			Website:      r.Website,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetRestaurant returns one restaurant's public profile.
func (h *PublicHandler) GetRestaurant(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	r, err := h.RestaurantRepo.GetByID(c.Request().Context(), id)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, PublicRestaurant{
		ID:           r.ID,
		Name:         r.Name,
		Slug:         r.Slug,
		Neighborhood: r.Neighborhood,
		Category:     r.Category,
		HeroImageURL: r.HeroImageURL,
		Phone:        r.Phone,
		Website:      r.Website,
	})
}

// GetRestaurantAvailability returns one restaurant's slot grid for a
// date. Query parameters: date (required, YYYY-MM-DD) and party_size
// (optional; 0 means all party sizes).
func (h *PublicHandler) GetRestaurantAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	date := c.QueryParam("date")
	if date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "date is required"})
	}
	partySize := queryInt(c, "party_size", 0)
	if partySize < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party_size"})
	}
	view, err := h.Availability.ForRestaurant(c.Request().Context(), id, date, partySize)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Tonight returns open tables in the next 24 hours, paginated into a
// "now" page of six restaurants and a "later" page with the next six.
// Query parameter party_size defaults to 2.
func (h *PublicHandler) Tonight(c echo.Context) error {
	partySize := queryInt(c, "party_size", 2)
	if partySize <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party_size"})
	}
	view, err := h.Availability.Tonight(c.Request().Context(), partySize)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, view)
}

// AvailableToday returns the restaurants with open tables on a single
// day. Query parameters: date (optional, YYYY-MM-DD, defaults to
// today) and party_size (default 2).
func (h *PublicHandler) AvailableToday(c echo.Context) error {
	partySize := queryInt(c, "party_size", 2)
	if partySize <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party_size"})
	}
	view, err := h.Availability.Today(c.Request().Context(), c.QueryParam("date"), partySize)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Week returns a day-by-day overview of the coming days. Query
// parameters: start (optional, YYYY-MM-DD, defaults to today), days
// (default 7, max 14) and party_size (default 2).
func (h *PublicHandler) Week(c echo.Context) error {
	partySize := queryInt(c, "party_size", 2)
	if partySize <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid party_size"})
	}
	days := queryInt(c, "days", 7)
	if days <= 0 || days > 14 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid days"})
	}
	view, err := h.Availability.Week(c.Request().Context(), c.QueryParam("start"), days, partySize)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"days": view})
}
