package memory

import (
	"sort"

	"github.com/tu-usuario/stock-engine/internal/domain"
	"github.com/tu-usuario/stock-engine/internal/domain/entity"
	"github.com/tu-usuario/stock-engine/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación en memoria de UserRepository.
type UserRepo struct {
	a access
}

func newUserRepo(a access) *UserRepo { return &UserRepo{a: a} }

// Users devuelve el repo de usuarios sobre el estado publicado.
func (s *Store) Users() repository.UserRepository {
	return newUserRepo(liveAccess{s: s})
}

// Create guarda un usuario nuevo. El email debe ser único.
func (r *UserRepo) Create(user *entity.User) error {
	st, done := r.a.acquire()
	defer done()
	for _, u := range st.users {
		if u.Email == user.Email {
			return domain.ErrEmailAlreadyExists
		}
	}
	st.users[user.ID] = cloneUser(user)
	return nil
}

// GetByID obtiene un usuario; (nil, nil) si no existe.
func (r *UserRepo) GetByID(id string) (*entity.User, error) {
	st, done := r.a.acquire()
	defer done()
	u, ok := st.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

// GetByEmail obtiene un usuario por email; (nil, nil) si no existe.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	st, done := r.a.acquire()
	defer done()
	for _, u := range st.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

// Update reemplaza un usuario existente.
func (r *UserRepo) Update(user *entity.User) error {
	st, done := r.a.acquire()
	defer done()
	if _, ok := st.users[user.ID]; !ok {
		return nil
	}
	st.users[user.ID] = cloneUser(user)
	return nil
}

// List lista usuarios, más recientes primero.
func (r *UserRepo) List(limit, offset int) ([]*entity.User, error) {
	st, done := r.a.acquire()
	defer done()
	list := make([]*entity.User, 0, len(st.users))
	for _, u := range st.users {
		list = append(list, cloneUser(u))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

// Delete elimina un usuario.
func (r *UserRepo) Delete(id string) error {
	st, done := r.a.acquire()
	defer done()
	delete(st.users, id)
	return nil
}
