package routes

import (
	"fmt"
	"net/http"

	"itinera/itinerary"
	"itinera/middleware"
	"itinera/notify"
	"itinera/products"
	"itinera/ratelim"

	"github.com/julienschmidt/httprouter"
)

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddItineraryRoutes(router *httprouter.Router, h *itinerary.Handler, rateLimiter *ratelim.RateLimiter) {
	router.GET("/api/itineraries", middleware.OptionalAuth(h.GetItineraries))                                       //Fetch published or own itineraries
	router.POST("/api/itineraries", rateLimiter.Limit(middleware.Authenticate(h.CreateItinerary)))                  //Create a new itinerary
	router.GET("/api/itineraries/all/:id", middleware.OptionalAuth(h.GetItinerary))                                 //Fetch a single itinerary
	router.PUT("/api/itineraries/:id", middleware.Authenticate(h.UpdateItinerary))                                  //Update an itinerary
	router.DELETE("/api/itineraries/:id", middleware.Authenticate(h.DeleteItinerary))                               //Delete an itinerary
	router.GET("/api/itineraries/search", h.SearchItineraries)                                                      //Search an itinerary
	router.POST("/api/itineraries/:id/fork", rateLimiter.Limit(middleware.Authenticate(h.ForkItinerary)))           //Fork a new itinerary
	router.PUT("/api/itineraries/:id/publish", middleware.Authenticate(h.PublishItinerary))                         //Publish an itinerary
}

func AddTimelineRoutes(router *httprouter.Router, h *itinerary.Handler, rateLimiter *ratelim.RateLimiter) {
	edit := func(next httprouter.Handle) httprouter.Handle {
		return middleware.Authenticate(rateLimiter.Limit(next))
	}
	router.GET("/api/timelines/:id", middleware.Authenticate(h.GetTimeline))
	router.GET("/api/timelines/:id/summary", middleware.Authenticate(h.GetSummary))
	router.POST("/api/timelines/:id/intents", edit(h.PostIntent))
	router.POST("/api/timelines/:id/days", edit(h.AddDay))
	router.PUT("/api/timelines/:id/dates", edit(h.SetDates))
	router.POST("/api/timelines/:id/days/:day/items", edit(h.DropItem))
	router.PUT("/api/timelines/:id/days/:day/items/:tid/time", edit(h.EditTime))
	router.DELETE("/api/timelines/:id/days/:day/items/:tid", edit(h.DeleteItem))
	router.POST("/api/timelines/:id/moves", edit(h.MoveItem))
	router.POST("/api/timelines/:id/save", edit(h.Save))
	router.DELETE("/api/timelines/:id/draft", edit(h.Discard))
	router.GET("/api/timelines/:id/export/pdf", edit(h.ExportPDF))
	router.GET("/api/timelines/:id/export/ics", edit(h.ExportICS))
}

func AddNotifyRoutes(router *httprouter.Router, hub *notify.Hub, authorize notify.Authorizer) {
	router.GET("/api/timelines/:id/ws", middleware.Authenticate(notify.WebSocketHandler(hub, authorize)))
}

func AddProductRoutes(router *httprouter.Router, h *products.Handler) {
	router.GET("/api/products", h.ListProducts)
	router.GET("/api/products/:id", h.GetProductDetails)
}
