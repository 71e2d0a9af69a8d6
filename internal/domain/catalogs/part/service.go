package part

import (
	"context"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/core/tx"
	"ebase/internal/domain"
)

// Service provides business logic for the Part catalog.
type Service struct {
	*domain.CatalogService[*Part]
	repo Repository
}

// NewService creates a new Part service.
func NewService(repo Repository, txManager tx.Manager) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Part]{
		Repo:       repo,
		TxManager:  txManager,
		EntityName: "part",
	})

	svc := &Service{
		CatalogService: base,
		repo:           repo,
	}

	base.Hooks().On(domain.BeforeCreate, svc.checkUnique)
	base.Hooks().On(domain.BeforeUpdate, svc.checkUnique)

	return svc
}

func (s *Service) checkUnique(ctx context.Context, p *Part) error {
	existing, err := s.repo.FindByArticleName(ctx, p.Article, p.Name)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}
	if existing.ID != p.ID {
		return apperror.NewDuplicate("part", "article and name", p.Article+" / "+p.Name).
			WithField("article")
	}
	return nil
}

// GetMany loads several parts keyed by ID; missing IDs are absent from the map.
func (s *Service) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*Part, error) {
	if len(ids) == 0 {
		return map[id.ID]*Part{}, nil
	}
	return s.repo.GetMany(ctx, ids)
}
