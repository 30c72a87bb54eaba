// Package memory implementa los puertos de persistencia sobre estructuras en
// memoria. Sirve como backend de desarrollo y de tests: mismas semánticas que
// el adaptador PostgreSQL (transacciones atómicas, filas bloqueadas en
// exclusiva) con un mutex global en lugar de SELECT FOR UPDATE.
package memory

import (
	"sync"

	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/event"
)

// state es el contenido completo del almacén. Las entidades guardadas nunca
// se mutan en sitio: los repos escriben y devuelven copias, de modo que el
// clone por transacción solo necesita copiar los contenedores.
type state struct {
	stock     map[entity.StockKey]*entity.StockRecord
	movements []*entity.Movement
	products  map[string]*entity.Product
	locations map[string]*entity.Location
	boms      map[string]*entity.BillOfMaterials
	orders    map[string]*entity.AssemblyOrder
	receipts  map[string]*entity.GoodsReceipt
	outbox    []*event.Envelope
	users     map[string]*entity.User
}

func newState() *state {
	return &state{
		stock:     make(map[entity.StockKey]*entity.StockRecord),
		products:  make(map[string]*entity.Product),
		locations: make(map[string]*entity.Location),
		boms:      make(map[string]*entity.BillOfMaterials),
		orders:    make(map[string]*entity.AssemblyOrder),
		receipts:  make(map[string]*entity.GoodsReceipt),
		users:     make(map[string]*entity.User),
	}
}

func (s *state) clone() *state {
	cp := newState()
	for k, v := range s.stock {
		cp.stock[k] = v
	}
	cp.movements = append([]*entity.Movement(nil), s.movements...)
	for k, v := range s.products {
		cp.products[k] = v
	}
	for k, v := range s.locations {
		cp.locations[k] = v
	}
	for k, v := range s.boms {
		cp.boms[k] = v
	}
	for k, v := range s.orders {
		cp.orders[k] = v
	}
	for k, v := range s.receipts {
		cp.receipts[k] = v
	}
	cp.outbox = append([]*event.Envelope(nil), s.outbox...)
	for k, v := range s.users {
		cp.users[k] = v
	}
	return cp
}

// Store es el almacén en memoria. Las operaciones sueltas toman el mutex por
// llamada; una transacción lo retiene completo, trabaja sobre un clone del
// estado y lo publica solo si el callback termina sin error.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore construye un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

// access entrega el estado sobre el que opera un repo y cómo soltarlo.
type access interface {
	acquire() (*state, func())
}

// liveAccess opera sobre el estado publicado, tomando el mutex por llamada.
type liveAccess struct {
	s *Store
}

func (a liveAccess) acquire() (*state, func()) {
	a.s.mu.Lock()
	return a.s.st, a.s.mu.Unlock
}

// txAccess opera sobre el clone de una transacción; el mutex ya está tomado.
type txAccess struct {
	st *state
}

func (a txAccess) acquire() (*state, func()) {
	return a.st, func() {}
}

func cloneRecord(r *entity.StockRecord) *entity.StockRecord {
	cp := *r
	if r.LastReceivedAt != nil {
		t := *r.LastReceivedAt
		cp.LastReceivedAt = &t
	}
	if r.LastSoldAt != nil {
		t := *r.LastSoldAt
		cp.LastSoldAt = &t
	}
	return &cp
}

func cloneMovement(m *entity.Movement) *entity.Movement {
	cp := *m
	return &cp
}

func cloneProduct(p *entity.Product) *entity.Product {
	cp := *p
	cp.Attributes = append([]byte(nil), p.Attributes...)
	return &cp
}

func cloneLocation(l *entity.Location) *entity.Location {
	cp := *l
	return &cp
}

func cloneBOM(b *entity.BillOfMaterials) *entity.BillOfMaterials {
	cp := *b
	cp.Lines = append([]entity.BOMLine(nil), b.Lines...)
	return &cp
}

func cloneOrder(o *entity.AssemblyOrder) *entity.AssemblyOrder {
	cp := *o
	cp.Lines = append([]entity.AssemblyOrderLine(nil), o.Lines...)
	if o.ReleasedAt != nil {
		t := *o.ReleasedAt
		cp.ReleasedAt = &t
	}
	if o.StartedAt != nil {
		t := *o.StartedAt
		cp.StartedAt = &t
	}
	if o.ClosedAt != nil {
		t := *o.ClosedAt
		cp.ClosedAt = &t
	}
	return &cp
}

func cloneReceipt(g *entity.GoodsReceipt) *entity.GoodsReceipt {
	cp := *g
	cp.Lines = append([]entity.GoodsReceiptLine(nil), g.Lines...)
	if g.ReceivedAt != nil {
		t := *g.ReceivedAt
		cp.ReceivedAt = &t
	}
	return &cp
}

func cloneEnvelope(e *event.Envelope) *event.Envelope {
	cp := *e
	cp.Payload = append([]byte(nil), e.Payload...)
	if e.DeliveredAt != nil {
		t := *e.DeliveredAt
		cp.DeliveredAt = &t
	}
	return &cp
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	return &cp
}
