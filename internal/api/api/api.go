package api

import (
	"circolo/cmd/middleware"
	"circolo/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/wb-go/wbf/ginext"
)

type Routers struct {
	Service service.Service
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New("release")

	app.Use(middleware.LoggingMiddleware())
	app.Use(cors.Default())
	apiGroup := app.Group("/v1")

	apiGroup.POST("/registrations", r.Service.Register)
	apiGroup.PATCH("/registrations/:id/status", r.Service.SetStato)
	apiGroup.PUT("/registrations/:id", r.Service.ChangeTurno)
	apiGroup.DELETE("/registrations/:id", r.Service.CancelRegistration)

	apiGroup.POST("/tournaments", r.Service.CreateTournament)
	apiGroup.GET("/tournaments", r.Service.GetAllTournaments)
	apiGroup.GET("/tournaments/:id", r.Service.GetTournament)
	apiGroup.GET("/tournaments/:id/availability", r.Service.GetAvailability)

	apiGroup.POST("/players", r.Service.CreatePlayer)
	apiGroup.GET("/players/:id/registrations", r.Service.GetPlayerRegistrations)
	apiGroup.GET("/players/:id/wallet", r.Service.GetWallet)
	apiGroup.POST("/wallet/ricarica", r.Service.Ricarica)
	apiGroup.POST("/wallet/addebito", r.Service.Addebito)

	return app
}
