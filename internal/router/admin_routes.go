package router

import (
	"github.com/labstack/echo/v4"

	"github.com/aydinmert/tablebook/internal/handler"
	"github.com/aydinmert/tablebook/internal/middleware"
)

// RegisterAdmin registers staff-scoped endpoints under /v1/admin.  All
// routes require a valid JWT with the STAFF role and a restaurant_id
// claim; every operation is implicitly scoped to that restaurant.
func RegisterAdmin(e *echo.Echo, slots *handler.AdminSlotHandler, bookings *handler.AdminBookingHandler, restaurant *handler.AdminRestaurantHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(middleware.RoleStaff),
		middleware.RequireRestaurant(),
	)

	// Slot inventory
	g.POST("/slots", slots.CreateSlot)
	g.POST("/slots/bulk", slots.BulkGenerate)
	g.GET("/slots", slots.ListSlots)
	g.PATCH("/slots/:id", slots.UpdateSlot)

	// Booking inbox and decisions
	g.GET("/bookings", bookings.ListBookings)
	g.POST("/bookings/:id/accept", bookings.Accept)
	g.POST("/bookings/:id/reject", bookings.Reject)
	g.PATCH("/bookings/:id", bookings.UpdateBooking)

	// Restaurant profile
	g.GET("/restaurant", restaurant.GetProfile)
	g.PATCH("/restaurant", restaurant.UpdateProfile)
}
