package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/auth"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/application/usecase"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/accounting"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/stock-engine/internal/interfaces/http"
	"github.com/tu-usuario/stock-engine/pkg/config"
	"github.com/tu-usuario/stock-engine/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	productRepo := postgres.NewProductRepository(pool)
	locationRepo := postgres.NewLocationRepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	stockRepo := postgres.NewStockRecordRepository(pool)
	movementRepo := postgres.NewMovementRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	orderRepo := postgres.NewAssemblyOrderRepository(pool)
	receiptRepo := postgres.NewGoodsReceiptRepository(pool)
	txRunner := postgres.NewTxRunner(pool, cfg.Stock.LockTimeoutMS)

	costScale := int32(cfg.Stock.CostScale)
	stockSvc := stock.NewService(txRunner, productRepo, locationRepo, costScale)
	stockQueries := stock.NewQueries(stockRepo, movementRepo)
	assemblyUC := assembly.NewUseCase(txRunner, stockSvc, orderRepo, productRepo, locationRepo, bomRepo, costScale)
	receiptUC := receipt.NewUseCase(txRunner, stockSvc, receiptRepo, productRepo, locationRepo, costScale, cfg.Stock.PayableTermDays)

	productUC := usecase.NewProductUseCase(productRepo, bomRepo)
	locationUC := usecase.NewLocationUseCase(locationRepo)
	bomUC := usecase.NewBOMUseCase(bomRepo, productRepo)
	authUC := auth.NewUseCase(userRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// Despachador de eventos contables: sondea el outbox y entrega al sink.
	dispatcherCtx, stopDispatcher := context.WithCancel(ctx)
	defer stopDispatcher()
	dispatcher := accounting.NewDispatcher(
		outboxRepo,
		accounting.NewLogSink(log),
		log,
		time.Duration(cfg.Stock.OutboxPollSeconds)*time.Second,
		cfg.Stock.OutboxBatchSize,
	)
	go dispatcher.Run(dispatcherCtx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Stock Engine API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:    productUC,
		LocationUC:   locationUC,
		BOMUC:        bomUC,
		Stock:        stockSvc,
		StockQueries: stockQueries,
		AssemblyUC:   assemblyUC,
		ReceiptUC:    receiptUC,
		AuthUC:       authUC,
		JWTSecret:    cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	stopDispatcher()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
