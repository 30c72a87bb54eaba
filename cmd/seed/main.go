// seed puebla la base con datos de demostración para desarrollo local:
// ubicaciones con sus capacidades, productos con una lista de materiales de
// ejemplo y un usuario admin.
//
// Uso: go run ./cmd/seed
// Es idempotente: los registros que ya existen se dejan como están.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/infrastructure/postgres"
	"github.com/tu-usuario/stock-engine/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fail("cargar configuración: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		fail("conexión a PostgreSQL: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		fail("migraciones: %v", err)
	}

	locationRepo := postgres.NewLocationRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	bomRepo := postgres.NewBOMRepository(pool)
	userRepo := postgres.NewUserRepository(pool)

	// Ubicaciones: un centro de distribución, una planta y una tienda.
	locations := []*entity.Location{
		{ID: uuid.NewString(), Code: "CEDI", Name: "Centro de distribución", Sellable: true, Purchasable: true},
		{ID: uuid.NewString(), Code: "PLANTA", Name: "Planta de ensamble", Purchasable: true, Manufacturing: true},
		{ID: uuid.NewString(), Code: "TIENDA", Name: "Tienda principal", Sellable: true},
	}
	created := 0
	for _, loc := range locations {
		if err := locationRepo.Create(loc); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				continue
			}
			fail("crear ubicación %s: %v", loc.Code, err)
		}
		created++
	}
	fmt.Printf("ubicaciones: %d nuevas\n", created)

	// Productos: una mesa terminada y sus dos componentes.
	products := []*entity.Product{
		{ID: uuid.NewString(), SKU: "TABLE-OAK", Name: "Mesa de roble", Price: dec("450000"), UnitMeasure: "unidad"},
		{ID: uuid.NewString(), SKU: "LEG-OAK", Name: "Pata de roble", Price: dec("35000"), DefaultCost: dec("18000"), UnitMeasure: "unidad"},
		{ID: uuid.NewString(), SKU: "TOP-OAK", Name: "Tablero de roble", Price: dec("180000"), DefaultCost: dec("95000"), UnitMeasure: "unidad"},
	}
	created = 0
	for _, p := range products {
		if err := productRepo.Create(p); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				continue
			}
			fail("crear producto %s: %v", p.SKU, err)
		}
		created++
	}
	fmt.Printf("productos: %d nuevos\n", created)

	// BOM de la mesa: 4 patas + 1 tablero. Solo si el producto aún no tiene.
	table, err := productRepo.GetBySKU("TABLE-OAK")
	if err != nil {
		fail("buscar TABLE-OAK: %v", err)
	}
	legs, err := productRepo.GetBySKU("LEG-OAK")
	if err != nil {
		fail("buscar LEG-OAK: %v", err)
	}
	top, err := productRepo.GetBySKU("TOP-OAK")
	if err != nil {
		fail("buscar TOP-OAK: %v", err)
	}
	existing, err := bomRepo.GetByProduct(table.ID)
	if err != nil {
		fail("buscar BOM de TABLE-OAK: %v", err)
	}
	if existing == nil {
		bomID := uuid.NewString()
		bom := &entity.BillOfMaterials{
			ID:        bomID,
			ProductID: table.ID,
			Version:   "v1",
			Name:      "Mesa de roble v1",
			Lines: []entity.BOMLine{
				{ID: uuid.NewString(), BOMID: bomID, Sequence: 1, ComponentID: legs.ID, QtyPerUnit: dec("4")},
				{ID: uuid.NewString(), BOMID: bomID, Sequence: 2, ComponentID: top.ID, QtyPerUnit: dec("1")},
			},
		}
		if err := bomRepo.Create(bom); err != nil {
			fail("crear BOM: %v", err)
		}
		table.BOMID = bom.ID
		if err := productRepo.Update(table); err != nil {
			fail("asignar BOM a TABLE-OAK: %v", err)
		}
		fmt.Println("bom: Mesa de roble v1 creada")
	}

	// Usuario admin para entrar a la API.
	hash, err := bcrypt.GenerateFromPassword([]byte("admin12345"), bcrypt.DefaultCost)
	if err != nil {
		fail("hash de password: %v", err)
	}
	admin := &entity.User{
		ID:           uuid.NewString(),
		Email:        "admin@local",
		PasswordHash: string(hash),
		Name:         "Admin",
		Role:         entity.RoleAdmin,
		Status:       "active",
	}
	if err := userRepo.Create(admin); err != nil {
		if !errors.Is(err, domain.ErrEmailAlreadyExists) {
			fail("crear usuario admin: %v", err)
		}
	} else {
		fmt.Println("usuario: admin@local / admin12345")
	}

	fmt.Println("seed completo")
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
