package internal

import (
	"net/http"

	"habitd/internal/controllers"
	"habitd/internal/providers"
)

func InitRoutes(apiController *controllers.ApiController, syncController *controllers.SyncController) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/stats", http.HandlerFunc(apiController.ListStats))
	routers.Post("/api/stats", http.HandlerFunc(apiController.CreateStat))
	routers.Put("/api/stats", http.HandlerFunc(apiController.UpdateStat))
	routers.Delete("/api/stats", http.HandlerFunc(apiController.DeleteStat))

	routers.Get("/api/entries", http.HandlerFunc(apiController.ListEntries))
	routers.Post("/api/entries", http.HandlerFunc(apiController.CreateEntry))
	routers.Put("/api/entries", http.HandlerFunc(apiController.UpdateEntry))
	routers.Delete("/api/entries", http.HandlerFunc(apiController.DeleteEntry))

	routers.Get("/api/summary", http.HandlerFunc(apiController.Summary))

	routers.Get("/api/settings", http.HandlerFunc(apiController.GetSettings))
	routers.Put("/api/settings", http.HandlerFunc(apiController.UpdateSettings))

	routers.Get("/api/export", http.HandlerFunc(apiController.Export))
	routers.Post("/api/import", http.HandlerFunc(apiController.Import))

	routers.Post("/api/sync", http.HandlerFunc(syncController.SyncNow))
	routers.Get("/api/sync/status", http.HandlerFunc(syncController.Status))

	return routers
}
