package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// ProductUseCase casos de uso CRUD para productos del catálogo.
// El costo promedio vivo no se edita aquí: lo mantienen los movimientos.
type ProductUseCase struct {
	repo    repository.ProductRepository
	bomRepo repository.BOMRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, bomRepo repository.BOMRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, bomRepo: bomRepo}
}

// Create crea un nuevo producto. El SKU debe ser único.
func (uc *ProductUseCase) Create(in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	existing, _ := uc.repo.GetBySKU(in.SKU)
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if in.DefaultCost.IsNegative() {
		return nil, &domain.ValidationError{Field: "default_cost", Reason: "no puede ser negativo"}
	}
	if in.BOMID != "" {
		if err := uc.checkBOM(in.BOMID); err != nil {
			return nil, err
		}
	}
	if in.UnitMeasure == "" {
		in.UnitMeasure = "unidad"
	}
	now := time.Now()
	product := &entity.Product{
		ID:          uuid.New().String(),
		SKU:         in.SKU,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		DefaultCost: in.DefaultCost,
		UnitMeasure: in.UnitMeasure,
		BOMID:       in.BOMID,
		Attributes:  in.Attributes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := uc.repo.Create(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto por ID.
func (uc *ProductUseCase) GetByID(id string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// GetBySKU obtiene un producto por su código.
func (uc *ProductUseCase) GetBySKU(sku string) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetBySKU(sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto. El SKU no se modifica.
func (uc *ProductUseCase) Update(id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, nil
	}
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.DefaultCost != nil {
		if in.DefaultCost.IsNegative() {
			return nil, &domain.ValidationError{Field: "default_cost", Reason: "no puede ser negativo"}
		}
		product.DefaultCost = *in.DefaultCost
	}
	if in.UnitMeasure != nil {
		product.UnitMeasure = *in.UnitMeasure
	}
	if in.BOMID != nil {
		if *in.BOMID != "" {
			if err := uc.checkBOM(*in.BOMID); err != nil {
				return nil, err
			}
		}
		product.BOMID = *in.BOMID
	}
	if len(in.Attributes) > 0 {
		product.Attributes = in.Attributes
	}
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación.
func (uc *ProductUseCase) List(limit, offset int) (*dto.ProductListResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un producto por ID.
func (uc *ProductUseCase) Delete(id string) error {
	return uc.repo.Delete(id)
}

func (uc *ProductUseCase) checkBOM(bomID string) error {
	bom, err := uc.bomRepo.GetByID(bomID)
	if err != nil {
		return err
	}
	if bom == nil {
		return &domain.ReferenceNotFoundError{Kind: "bom", ID: bomID}
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	return &dto.ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		DefaultCost: p.DefaultCost,
		UnitMeasure: p.UnitMeasure,
		BOMID:       p.BOMID,
		Attributes:  p.Attributes,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
