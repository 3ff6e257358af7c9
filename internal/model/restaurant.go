package model

import "time"

// Restaurant holds the display metadata shown to diners.  Restaurants
// own their slots and reservations and are never hard-deleted; admin
// tooling creates them and staff mutate the profile fields.
//
// Fields:
//  ID           – primary key identifier.
//  Name         – display name.
//  Slug         – URL-safe identifier derived from the name.
//  Neighborhood – neighborhood shown in discovery views.
//  Category     – cuisine/category label.
//  HeroImageURL – header image served by the frontend.
//  Phone        – contact phone number.
//  Website      – contact website link.
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Restaurant struct {
	ID           uint64    // restaurants.id
	Name         string    // restaurants.name
	Slug         string    // restaurants.slug
	Neighborhood string    // restaurants.neighborhood
	Category     string    // restaurants.category
	HeroImageURL string    // restaurants.hero_image_url
	Phone        string    // restaurants.phone
	Website      string    // restaurants.website
	CreatedAt    time.Time // restaurants.created_at
	UpdatedAt    time.Time // restaurants.updated_at
}
