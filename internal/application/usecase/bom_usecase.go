package usecase

import (
	"time"

	"github.com/google/uuid"
	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

// BOMUseCase casos de uso para listas de materiales. Los BOM son inmutables
// una vez creados: para cambiar una receta se crea una versión nueva.
type BOMUseCase struct {
	repo        repository.BOMRepository
	productRepo repository.ProductRepository
}

// NewBOMUseCase construye el caso de uso.
func NewBOMUseCase(repo repository.BOMRepository, productRepo repository.ProductRepository) *BOMUseCase {
	return &BOMUseCase{repo: repo, productRepo: productRepo}
}

// Create crea una lista de materiales para un producto. Valida que el producto
// y cada componente existan, que las cantidades sean positivas y que no haya
// componentes repetidos ni auto-referencia.
func (uc *BOMUseCase) Create(in dto.CreateBOMRequest) (*dto.BOMResponse, error) {
	product, err := uc.productRepo.GetByID(in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: in.ProductID}
	}
	if len(in.Lines) == 0 {
		return nil, &domain.ValidationError{Field: "lines", Reason: "el BOM necesita al menos un componente"}
	}

	bomID := uuid.New().String()
	seen := make(map[string]bool, len(in.Lines))
	lines := make([]entity.BOMLine, 0, len(in.Lines))
	for i, ln := range in.Lines {
		if ln.ComponentID == "" {
			return nil, &domain.ValidationError{Field: "lines", Reason: "component_id es obligatorio"}
		}
		if ln.ComponentID == in.ProductID {
			return nil, &domain.ValidationError{Field: "lines", Reason: "un producto no puede ser componente de sí mismo"}
		}
		if seen[ln.ComponentID] {
			return nil, &domain.ValidationError{Field: "lines", Reason: "componente repetido: " + ln.ComponentID}
		}
		seen[ln.ComponentID] = true
		if !ln.QtyPerUnit.IsPositive() {
			return nil, &domain.ValidationError{Field: "lines", Reason: "qty_per_unit debe ser positiva"}
		}
		component, err := uc.productRepo.GetByID(ln.ComponentID)
		if err != nil {
			return nil, err
		}
		if component == nil {
			return nil, &domain.ReferenceNotFoundError{Kind: "producto", ID: ln.ComponentID}
		}
		lines = append(lines, entity.BOMLine{
			ID:          uuid.New().String(),
			BOMID:       bomID,
			Sequence:    i + 1,
			ComponentID: ln.ComponentID,
			QtyPerUnit:  ln.QtyPerUnit,
		})
	}

	version := in.Version
	if version == "" {
		version = "v1"
	}
	now := time.Now()
	bom := &entity.BillOfMaterials{
		ID:        bomID,
		ProductID: in.ProductID,
		Version:   version,
		Name:      in.Name,
		Lines:     lines,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(bom); err != nil {
		return nil, err
	}
	return toBOMResponse(bom), nil
}

// GetByID obtiene un BOM con sus líneas.
func (uc *BOMUseCase) GetByID(id string) (*dto.BOMResponse, error) {
	bom, err := uc.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, nil
	}
	return toBOMResponse(bom), nil
}

// GetByProduct obtiene el BOM más reciente de un producto.
func (uc *BOMUseCase) GetByProduct(productID string) (*dto.BOMResponse, error) {
	bom, err := uc.repo.GetByProduct(productID)
	if err != nil {
		return nil, err
	}
	if bom == nil {
		return nil, nil
	}
	return toBOMResponse(bom), nil
}

// List lista BOMs con paginación.
func (uc *BOMUseCase) List(limit, offset int) (*dto.BOMListResponse, error) {
	list, err := uc.repo.List(limit, offset)
	if err != nil {
		return nil, err
	}
	items := make([]dto.BOMResponse, 0, len(list))
	for _, b := range list {
		items = append(items, *toBOMResponse(b))
	}
	return &dto.BOMListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Delete elimina un BOM. Las órdenes existentes no se ven afectadas porque
// congelan su copia de líneas al crearse.
func (uc *BOMUseCase) Delete(id string) error {
	return uc.repo.Delete(id)
}

func toBOMResponse(b *entity.BillOfMaterials) *dto.BOMResponse {
	if b == nil {
		return nil
	}
	lines := make([]dto.BOMLineResponse, 0, len(b.Lines))
	for _, ln := range b.Lines {
		lines = append(lines, dto.BOMLineResponse{
			ID:          ln.ID,
			Sequence:    ln.Sequence,
			ComponentID: ln.ComponentID,
			QtyPerUnit:  ln.QtyPerUnit,
		})
	}
	return &dto.BOMResponse{
		ID:        b.ID,
		ProductID: b.ProductID,
		Version:   b.Version,
		Name:      b.Name,
		Lines:     lines,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}
