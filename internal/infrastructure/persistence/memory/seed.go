package memory

import (
	"context"

	"github.com/carconfig/backend/internal/domain/identity"
	"github.com/carconfig/backend/internal/infrastructure/seed"
)

// IsEmpty reports whether no car model has been loaded
func (s *Store) IsEmpty(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.models) == 0, nil
}

// Load writes a seed dataset into the store
func (s *Store) Load(ctx context.Context, ds seed.Dataset, users []*identity.User) error {
	for _, m := range ds.Models {
		s.AddCarModel(m)
	}
	for _, a := range ds.Accessories {
		s.AddAccessory(a)
	}
	for _, c := range ds.Constraints {
		s.AddConstraint(c)
	}
	repo := s.Users()
	for _, u := range users {
		if err := repo.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

var _ seed.Target = (*Store)(nil)
