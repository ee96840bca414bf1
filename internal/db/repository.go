package db

// Repository - типизированные операции над заявками, операторами и состоянием поллера.
// Все запросы идут через адаптер Store.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

func (r *Repository) Store() Store { return r.store }
