package handler

import (
	"net/http"
	"strings"

	"github.com/gosimple/slug"
	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/repository"
)

// AdminRestaurantHandler lets staff view and edit their restaurant's
// public profile.
type AdminRestaurantHandler struct {
	RestaurantRepo *repository.RestaurantRepo
}

// NewAdminRestaurantHandler constructs an AdminRestaurantHandler.
func NewAdminRestaurantHandler(restaurantRepo *repository.RestaurantRepo) *AdminRestaurantHandler {
	if restaurantRepo == nil {
		panic("nil dependency passed to NewAdminRestaurantHandler")
	}
	return &AdminRestaurantHandler{RestaurantRepo: restaurantRepo}
}

// GetProfile handles GET /v1/admin/restaurant.
func (h *AdminRestaurantHandler) GetProfile(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	r, err := h.RestaurantRepo.GetByID(c.Request().Context(), restaurantID)
	if err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// UpdateProfile handles PATCH /v1/admin/restaurant. Only the fields
// present in the body are changed. Renaming regenerates the URL slug
// from the new name.
func (h *AdminRestaurantHandler) UpdateProfile(c echo.Context) error {
	restaurantID, err := getRestaurantID(c)
	if err != nil {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no restaurant assigned"})
	}
	var body struct {
		Name         *string `json:"name" validate:"omitempty,min=1,max=120"`
		Neighborhood *string `json:"neighborhood" validate:"omitempty,max=120"`
		Category     *string `json:"category" validate:"omitempty,max=120"`
		HeroImageURL *string `json:"hero_image_url" validate:"omitempty,url"`
		Phone        *string `json:"phone" validate:"omitempty,max=32"`
		Website      *string `json:"website" validate:"omitempty,url"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if err := c.Validate(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	ctx := c.Request().Context()
	r, err := h.RestaurantRepo.GetByID(ctx, restaurantID)
	if err != nil {
		return writeDomainError(c, err)
	}
	if body.Name != nil {
		name := strings.TrimSpace(*body.Name)
		if name == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "name must not be blank"})
		}
		r.Name = name
		r.Slug = slug.Make(name)
	}
	if body.Neighborhood != nil {
		r.Neighborhood = strings.TrimSpace(*body.Neighborhood)
	}
	if body.Category != nil {
		r.Category = strings.TrimSpace(*body.Category)
	}
	if body.HeroImageURL != nil {
		r.HeroImageURL = *body.HeroImageURL
	}
	if body.Phone != nil {
		r.Phone = strings.TrimSpace(*body.Phone)
	}
	if body.Website != nil {
		r.Website = *body.Website
	}
	if err := h.RestaurantRepo.UpdateProfile(ctx, r); err != nil {
		return writeDomainError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}
