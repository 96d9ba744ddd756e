package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/servicehub/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	// Create handlers
	authHandler := handlers.NewAuthHandler()
	catalogHandler := handlers.NewCatalogHandler()
	bookingsHandler := handlers.NewBookingsHandler()
	recommendHandler := handlers.NewRecommendHandler(s.config, s.classifier)
	facesHandler := handlers.NewFacesHandler(s.config, s.selector)
	attendanceHandler := handlers.NewAttendanceHandler()
	proxyHandler := handlers.NewProxyHandler()
	assetsHandler := handlers.NewAssetsHandler(s.config.Web.SplashImage)

	s.router.Get("/", handlers.HealthCheck)

	s.router.Get("/assets/splash-image", assetsHandler.Splash)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/ping", handlers.HealthCheck)

		// Auth
		r.Post("/auth/signup", authHandler.Signup)
		r.Post("/auth/login", authHandler.Login)

		// Catalog
		r.Get("/services", catalogHandler.ListServices)
		r.Get("/providers", catalogHandler.ListProviders)

		// Bookings
		r.Post("/bookings", bookingsHandler.Create)
		r.Get("/bookings/{id}", bookingsHandler.Get)
		r.Get("/bookings/{id}/track", bookingsHandler.Track)
		r.Post("/payments/create", bookingsHandler.CreatePayment)
		r.Post("/reviews", bookingsHandler.CreateReview)

		// Recommendations
		r.Post("/ai/recommend", recommendHandler.Recommend)

		// Faces
		r.Post("/face/detect", facesHandler.Detect)
		r.Post("/face/match", facesHandler.Match)
		r.Post("/face/enroll", facesHandler.Enroll)
		r.Post("/face/verify", facesHandler.Verify)
		r.Post("/face/similar", facesHandler.Similar)
		r.Delete("/face/enrollments/{user_id}", facesHandler.DeleteEnrollments)
		r.Get("/face/status", facesHandler.Status)
		r.Post("/face/index/rebuild", facesHandler.RebuildIndex)

		// Attendance
		r.Post("/attendance/mark", attendanceHandler.Mark)
		r.Get("/attendance/{user_id}", attendanceHandler.List)

		// Image proxy
		r.Get("/proxy", proxyHandler.Proxy)
	})
}
