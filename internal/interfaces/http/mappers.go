package http

import (
	"github.com/tu-usuario/stock-engine/internal/application/dto"
	"github.com/tu-usuario/stock-engine/internal/application/stock"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
)

// Mapeos entidad → DTO para las respuestas de stock, ensamble y recepciones.
// Los casos de uso de esos módulos devuelven entidades; la representación
// JSON es asunto de esta capa.

func recordDTO(r *entity.StockRecord) dto.StockRecordResponse {
	return dto.StockRecordResponse{
		ProductID:      r.ProductID,
		LocationID:     r.LocationID,
		Ownership:      string(r.Ownership),
		OnHand:         r.OnHand,
		Sellable:       r.Sellable,
		NonSellable:    r.NonSellable,
		Reserved:       r.Reserved,
		Allocated:      r.Allocated,
		AverageCost:    r.AverageCost,
		LastCost:       r.LastCost,
		StockValue:     r.StockValue(),
		LastReceivedAt: r.LastReceivedAt,
		LastSoldAt:     r.LastSoldAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func recordListDTO(recs []*entity.StockRecord, limit, offset int) dto.StockRecordListResponse {
	items := make([]dto.StockRecordResponse, 0, len(recs))
	for _, r := range recs {
		items = append(items, recordDTO(r))
	}
	return dto.StockRecordListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: len(items)},
	}
}

func movementDTO(m *entity.Movement) dto.MovementResponse {
	return dto.MovementResponse{
		ID:         m.ID,
		ProductID:  m.ProductID,
		LocationID: m.LocationID,
		Ownership:  string(m.Ownership),
		Kind:       string(m.Kind),
		Bucket:     string(m.Bucket),
		Quantity:   m.Quantity,
		UnitCost:   m.UnitCost,
		TotalCost:  m.TotalCost,
		RefType:    m.RefType,
		RefID:      m.RefID,
		Note:       m.Note,
		OccurredAt: m.OccurredAt,
		CreatedBy:  m.CreatedBy,
	}
}

func movementListDTO(movs []*entity.Movement, limit, offset int) dto.MovementListResponse {
	items := make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		items = append(items, movementDTO(m))
	}
	return dto.MovementListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: len(items)},
	}
}

func applyResultDTO(res *stock.ApplyMovementResult) dto.ApplyMovementResponse {
	return dto.ApplyMovementResponse{
		Movement: movementDTO(res.Movement),
		Record:   recordDTO(res.Record),
	}
}

func orderDTO(o *entity.AssemblyOrder) dto.AssemblyOrderResponse {
	lines := make([]dto.AssemblyOrderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, dto.AssemblyOrderLineResponse{
			ID:          l.ID,
			ComponentID: l.ComponentID,
			QtyPerUnit:  l.QtyPerUnit,
			PlannedQty:  l.PlannedQty,
			ConsumedQty: l.ConsumedQty,
		})
	}
	return dto.AssemblyOrderResponse{
		ID:          o.ID,
		Number:      o.Number,
		ProductID:   o.ProductID,
		BOMID:       o.BOMID,
		LocationID:  o.LocationID,
		Ownership:   string(o.Ownership),
		OrderedQty:  o.OrderedQty,
		ProducedQty: o.ProducedQty,
		Status:      string(o.Status),
		Note:        o.Note,
		Lines:       lines,
		ReleasedAt:  o.ReleasedAt,
		StartedAt:   o.StartedAt,
		ClosedAt:    o.ClosedAt,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func orderListDTO(orders []*entity.AssemblyOrder, limit, offset int) dto.AssemblyOrderListResponse {
	items := make([]dto.AssemblyOrderResponse, 0, len(orders))
	for _, o := range orders {
		items = append(items, orderDTO(o))
	}
	return dto.AssemblyOrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: len(items)},
	}
}

func receiptDTO(r *entity.GoodsReceipt) dto.GoodsReceiptResponse {
	lines := make([]dto.GoodsReceiptLineResponse, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, dto.GoodsReceiptLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost,
		})
	}
	return dto.GoodsReceiptResponse{
		ID:         r.ID,
		Number:     r.Number,
		LocationID: r.LocationID,
		SupplierID: r.SupplierID,
		RefType:    r.RefType,
		RefID:      r.RefID,
		Status:     string(r.Status),
		Note:       r.Note,
		Lines:      lines,
		ReceivedBy: r.ReceivedBy,
		ReceivedAt: r.ReceivedAt,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func receiptListDTO(recs []*entity.GoodsReceipt, limit, offset int) dto.GoodsReceiptListResponse {
	items := make([]dto.GoodsReceiptResponse, 0, len(recs))
	for _, r := range recs {
		items = append(items, receiptDTO(r))
	}
	return dto.GoodsReceiptListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset, Total: len(items)},
	}
}
