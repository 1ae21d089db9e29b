package routes

import (
	"itinera/itinerary"
	"itinera/notify"
	"itinera/products"
	"itinera/ratelim"

	"github.com/julienschmidt/httprouter"
)

// Deps are the handlers and shared services the routes are wired to.
type Deps struct {
	Itineraries *itinerary.Handler
	Products    *products.Handler
	Hub         *notify.Hub
	RateLimiter *ratelim.RateLimiter
}

func RoutesWrapper(router *httprouter.Router, d Deps) {
	router.GET("/health", Index)
	AddItineraryRoutes(router, d.Itineraries, d.RateLimiter)
	AddTimelineRoutes(router, d.Itineraries, d.RateLimiter)
	AddNotifyRoutes(router, d.Hub, d.Itineraries.Service.Authorize)
	AddProductRoutes(router, d.Products)
}
