package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/stock-engine/internal/application/assembly"
	"github.com/tu-usuario/stock-engine/internal/application/auth"
	"github.com/tu-usuario/stock-engine/internal/application/receipt"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/application/usecase"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC    *usecase.ProductUseCase
	LocationUC   *usecase.LocationUseCase
	BOMUC        *usecase.BOMUseCase
	Stock        *stock.Service
	StockQueries *stock.Queries
	AssemblyUC   *assembly.UseCase
	ReceiptUC    *receipt.UseCase
	AuthUC       *auth.UseCase
	JWTSecret    string
}

// Router registra las rutas de la API.
//
// Autorización por rol: las escrituras de maestros son de admin, los
// movimientos de bodega de admin/bodeguero y el ciclo de ensamble de
// admin/produccion. Las lecturas solo piden token válido.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	adminOnly := RequireRole(entity.RoleAdmin)
	warehouse := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)
	production := RequireRole(entity.RoleAdmin, entity.RoleProduccion)

	// Products (protegido; escritura solo admin)
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Post("/", adminOnly, productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Put("/:id", adminOnly, productHandler.Update)
	products.Delete("/:id", adminOnly, productHandler.Delete)

	// Locations (protegido; escritura solo admin)
	locations := protected.Group("/locations")
	locationHandler := NewLocationHandler(deps.LocationUC)
	locations.Post("/", adminOnly, locationHandler.Create)
	locations.Get("/", locationHandler.List)
	locations.Get("/:id", locationHandler.GetByID)
	locations.Put("/:id", adminOnly, locationHandler.Update)
	locations.Delete("/:id", adminOnly, locationHandler.Delete)

	// BOMs (protegido; escritura solo admin)
	boms := protected.Group("/boms")
	bomHandler := NewBOMHandler(deps.BOMUC)
	boms.Post("/", adminOnly, bomHandler.Create)
	boms.Get("/", bomHandler.List)
	boms.Get("/:id", bomHandler.GetByID)
	boms.Delete("/:id", adminOnly, bomHandler.Delete)

	// Stock: movimientos, traslados, reservas y consultas (protegido)
	stockGroup := protected.Group("/stock")
	stockHandler := NewStockHandler(deps.Stock, deps.StockQueries)
	stockGroup.Post("/movements", warehouse, stockHandler.ApplyMovement)
	stockGroup.Get("/movements", stockHandler.ListMovements)
	stockGroup.Get("/movements/:id", stockHandler.GetMovement)
	stockGroup.Post("/transfers", warehouse, stockHandler.Transfer)
	stockGroup.Post("/reservations", warehouse, stockHandler.Reserve)
	stockGroup.Post("/reservations/release", warehouse, stockHandler.Release)
	stockGroup.Get("/records", stockHandler.ListRecords)
	stockGroup.Get("/records/:productID/:locationID", stockHandler.GetRecord)

	// Assembly orders (protegido; ciclo de producción)
	assemblyGroup := protected.Group("/assembly/orders")
	assemblyHandler := NewAssemblyHandler(deps.AssemblyUC)
	assemblyGroup.Post("/", production, assemblyHandler.Create)
	assemblyGroup.Get("/", assemblyHandler.List)
	assemblyGroup.Get("/:id", assemblyHandler.Get)
	assemblyGroup.Put("/:id", production, assemblyHandler.Update)
	assemblyGroup.Post("/:id/release", production, assemblyHandler.Release)
	assemblyGroup.Post("/:id/start", production, assemblyHandler.Start)
	assemblyGroup.Post("/:id/report", production, assemblyHandler.Report)
	assemblyGroup.Post("/:id/complete", production, assemblyHandler.Complete)
	assemblyGroup.Post("/:id/cancel", production, assemblyHandler.Cancel)

	// Goods receipts (protegido; bodega)
	receipts := protected.Group("/receipts")
	receiptHandler := NewReceiptHandler(deps.ReceiptUC)
	receipts.Post("/", warehouse, receiptHandler.Create)
	receipts.Get("/", receiptHandler.List)
	receipts.Get("/:id", receiptHandler.Get)
	receipts.Put("/:id", warehouse, receiptHandler.Update)
	receipts.Post("/:id/confirm", warehouse, receiptHandler.Confirm)
}
