package main

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/helmet/v2"

	"github.com/jhoicas/sire-reportes/docs"
	"github.com/jhoicas/sire-reportes/internal/application/report"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/archive"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/postgres"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/sunat"
	httpRouter "github.com/jhoicas/sire-reportes/internal/interfaces/http"
	"github.com/jhoicas/sire-reportes/pkg/config"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// @title                       SIRE Reportes API
// @version                     1.0
// @description                 Descarga de la propuesta RCE desde la API SIRE de SUNAT.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	// La configuración SUNAT se valida en cada llamada; aquí solo se avisa.
	if err := cfg.SUNAT.Validate(); err != nil {
		log.Warn().Err(err).Msg("configuración SUNAT incompleta")
	}

	ctx := context.Background()

	deps := report.Deps{
		Config:    cfg.SUNAT,
		Extractor: archive.ExtractReport,
		Log:       log,
	}
	client := sunat.NewClient(cfg.SUNAT, log)
	deps.Tokens = sunat.NewTokenCache(client, cfg.SUNAT, log)
	deps.Exporter = client
	deps.Poller = sunat.NewPoller(client, cfg.SUNAT, log)
	deps.Fetcher = client

	routerDeps := httpRouter.RouterDeps{JWTSecret: cfg.JWT.Secret, Log: log}
	// Misma cache de token que el flujo de reportes.
	routerDeps.Comprobantes = report.NewComprobanteService(report.ComprobanteDeps{
		Config:  cfg.SUNAT,
		RUC:     cfg.SUNAT.RUC,
		Tokens:  deps.Tokens,
		Fetcher: client,
		Log:     log,
	})

	// Bitácora de ejecuciones: solo con base de datos configurada.
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()

		err = postgres.NewTxRunner(pool).Run(ctx, func(q postgres.Querier) error {
			return postgres.NewRunRepository(q).EnsureSchema(ctx)
		})
		if err != nil {
			log.Fatal().Err(err).Msg("crear esquema sire_runs")
		}
		runRepo := postgres.NewRunRepository(pool)
		deps.Recorder = runRepo
		routerDeps.Runs = runRepo
		log.Info().Msg("bitácora de ejecuciones habilitada")
	}

	routerDeps.Reports = report.NewOrchestrator(deps)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	// El TXT del periodo puede pesar varios MB.
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		// swagger UI carga scripts inline
		ContentSecurityPolicy: "",
	}))

	// Swagger UI en local: http://localhost:<port>/docs
	specPath := filepath.Join(os.TempDir(), "sire-reportes-swagger.json")
	if err := os.WriteFile(specPath, []byte(docs.SwaggerInfo.ReadDoc()), 0o644); err != nil {
		log.Warn().Err(err).Msg("no se pudo escribir swagger.json, /docs deshabilitado")
	} else {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: specPath,
			Path:     "docs",
			Title:    "SIRE Reportes API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, routerDeps)

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
