package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sire-reportes/pkg/jwt"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// RouterDeps dependencias para el router. Comprobantes y Runs pueden ser nil.
type RouterDeps struct {
	Reports      reportObtainer
	Comprobantes comprobanteObtainer
	Runs         runLister
	JWTSecret    string
	Log          *logger.Logger
}

// Router registra las rutas de la API.
// Sin JWTSecret las rutas SUNAT quedan abiertas (uso local).
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	sunat := api.Group("/sunat")
	handler := NewSunatHandler(deps.Reports, deps.Comprobantes, deps.Runs, deps.Log)

	if deps.JWTSecret == "" {
		deps.Log.Component("http").Warn().Msg("JWT_SECRET vacío: rutas SUNAT sin autenticación")
		sunat.Get("/facturas/:periodo", handler.GetFacturas)
		sunat.Get("/comprobantes/:tipo/:serie/:numero", handler.GetComprobante)
		sunat.Get("/runs/:periodo", handler.ListRuns)
		return
	}

	// Rutas protegidas (requieren Bearer Token)
	sunat.Use(AuthMiddleware(deps.JWTSecret))
	sunat.Get("/facturas/:periodo", RequireRole(jwt.RoleAdmin, jwt.RoleContador), handler.GetFacturas)
	sunat.Get("/comprobantes/:tipo/:serie/:numero", RequireRole(jwt.RoleAdmin, jwt.RoleContador), handler.GetComprobante)
	sunat.Get("/runs/:periodo", RequireRole(jwt.RoleAdmin), handler.ListRuns)
}
