// Package event define los eventos de integración que el motor de stock
// publica hacia el sistema contable.
package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// Kinds de evento que consume el sistema contable.
const (
	KindMovementApplied = "stock.movement_applied"
	KindPayableDue      = "purchasing.payable_due"
)

// Envelope es la fila del outbox transaccional: se escribe en la misma
// transacción que el cambio de stock y un despachador la entrega después.
// La entrega es al menos una vez; ID permite deduplicar en el consumidor.
type Envelope struct {
	ID          string
	Kind        string
	Payload     json.RawMessage
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

// MovementApplied notifica que un movimiento quedó asentado en el libro mayor.
// ResultingStockValue es OnHand × AverageCost de la fila tras aplicarlo.
type MovementApplied struct {
	MovementID          string                 `json:"movement_id"`
	ProductID           string                 `json:"product_id"`
	LocationID          string                 `json:"location_id"`
	Ownership           entity.OwnershipStatus `json:"ownership"`
	Kind                entity.MovementKind    `json:"kind"`
	Bucket              entity.Bucket          `json:"bucket"`
	Quantity            decimal.Decimal        `json:"quantity"`
	UnitCost            decimal.Decimal        `json:"unit_cost"`
	TotalCost           decimal.Decimal        `json:"total_cost"`
	RefType             string                 `json:"ref_type,omitempty"`
	RefID               string                 `json:"ref_id,omitempty"`
	ResultingStockValue decimal.Decimal        `json:"resulting_stock_value"`
	OccurredAt          time.Time              `json:"occurred_at"`
}

// NewMovementApplied construye el sobre outbox para un movimiento recién aplicado.
func NewMovementApplied(m *entity.Movement, resultingStockValue decimal.Decimal, now time.Time) (*Envelope, error) {
	payload, err := json.Marshal(MovementApplied{
		MovementID:          m.ID,
		ProductID:           m.ProductID,
		LocationID:          m.LocationID,
		Ownership:           m.Ownership,
		Kind:                m.Kind,
		Bucket:              m.Bucket,
		Quantity:            m.Quantity,
		UnitCost:            m.UnitCost,
		TotalCost:           m.TotalCost,
		RefType:             m.RefType,
		RefID:               m.RefID,
		ResultingStockValue: resultingStockValue,
		OccurredAt:          m.OccurredAt,
	})
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Kind:      KindMovementApplied,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}

// PayableDue notifica la cuenta por pagar que nace al confirmar una recepción
// ligada a una orden de compra.
type PayableDue struct {
	ReceiptID       string          `json:"receipt_id"`
	ReceiptNumber   string          `json:"receipt_number"`
	SupplierID      string          `json:"supplier_id"`
	PurchaseOrderID string          `json:"purchase_order_id"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         time.Time       `json:"due_date"`
}

// NewPayableDue construye el sobre outbox para la cuenta por pagar de una recepción.
func NewPayableDue(r *entity.GoodsReceipt, amount decimal.Decimal, dueDate, now time.Time) (*Envelope, error) {
	payload, err := json.Marshal(PayableDue{
		ReceiptID:       r.ID,
		ReceiptNumber:   r.Number,
		SupplierID:      r.SupplierID,
		PurchaseOrderID: r.RefID,
		Amount:          amount,
		DueDate:         dueDate,
	})
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:        uuid.NewString(),
		Kind:      KindPayableDue,
		Payload:   payload,
		CreatedAt: now,
	}, nil
}
