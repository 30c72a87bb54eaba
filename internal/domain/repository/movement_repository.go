package repository

import (
	"time"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// MovementRepository define el puerto de persistencia del libro mayor de stock.
// El libro es append-only: no hay Update ni Delete.
type MovementRepository interface {
	Append(movement *entity.Movement) error
	GetByID(id string) (*entity.Movement, error)
	ListByProduct(productID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByLocation(locationID string, from, to *time.Time, limit, offset int) ([]*entity.Movement, error)
	ListByReference(refType, refID string) ([]*entity.Movement, error)
}
