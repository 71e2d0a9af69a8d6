package memory

import (
	"context"
	"slices"
	"sort"
	"strings"

	"ebase/internal/core/apperror"
	"ebase/internal/core/id"
	"ebase/internal/domain"
	"ebase/internal/domain/catalogs/part"
	"ebase/internal/domain/repair"
)

// PartRepo implements part.Repository.
type PartRepo struct{ store *Store }

var _ part.Repository = (*PartRepo)(nil)

// Create implements domain.CatalogRepository.
func (r *PartRepo) Create(ctx context.Context, p *part.Part) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.parts[p.ID]; ok {
			return apperror.NewDuplicate("part", "id", p.ID.String())
		}
		for _, other := range st.parts {
			if other.Article == p.Article && other.Name == p.Name {
				return apperror.NewDuplicate("part", "article and name", p.Article+" / "+p.Name)
			}
		}
		st.parts[p.ID] = *p
		return nil
	})
}

// GetByID implements domain.CatalogRepository.
func (r *PartRepo) GetByID(ctx context.Context, partID id.ID) (*part.Part, error) {
	var out *part.Part
	err := r.store.do(ctx, func(st *state) error {
		p, ok := st.parts[partID]
		if !ok {
			return apperror.NewNotFound("part", partID.String())
		}
		out = &p
		return nil
	})
	return out, err
}

// Update implements domain.CatalogRepository.
func (r *PartRepo) Update(ctx context.Context, p *part.Part) error {
	return r.store.do(ctx, func(st *state) error {
		cur, ok := st.parts[p.ID]
		if !ok || cur.Version != p.Version {
			return apperror.NewConcurrentModification("part", p.ID.String())
		}
		p.NextVersion()
		st.parts[p.ID] = *p
		return nil
	})
}

// List implements domain.CatalogRepository. Parts are ordered by name, then article.
func (r *PartRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*part.Part], error) {
	var items []*part.Part
	err := r.store.do(ctx, func(st *state) error {
		for _, p := range st.parts {
			if len(f.IDs) > 0 && !slices.Contains(f.IDs, p.ID) {
				continue
			}
			if !matches(f.Search, p.Article, p.Name) {
				continue
			}
			items = append(items, &p)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*part.Part]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].Article < items[j].Article
	})
	return domain.Paginate(items, f), nil
}

// Exists implements domain.CatalogRepository.
func (r *PartRepo) Exists(ctx context.Context, partID id.ID) (bool, error) {
	var ok bool
	err := r.store.do(ctx, func(st *state) error {
		_, ok = st.parts[partID]
		return nil
	})
	return ok, err
}

// FindByArticleName implements part.Repository.
func (r *PartRepo) FindByArticleName(ctx context.Context, article, name string) (*part.Part, error) {
	var out *part.Part
	err := r.store.do(ctx, func(st *state) error {
		for _, p := range st.parts {
			if p.Article == article && p.Name == name {
				out = &p
				return nil
			}
		}
		return apperror.NewNotFound("part", article+" / "+name)
	})
	return out, err
}

// GetMany implements part.Repository.
func (r *PartRepo) GetMany(ctx context.Context, ids []id.ID) (map[id.ID]*part.Part, error) {
	out := make(map[id.ID]*part.Part, len(ids))
	err := r.store.do(ctx, func(st *state) error {
		for _, pid := range ids {
			if p, ok := st.parts[pid]; ok {
				out[pid] = &p
			}
		}
		return nil
	})
	return out, err
}

// ReplacementRepo implements repair.ReplacementRepository.
type ReplacementRepo struct{ store *Store }

var _ repair.ReplacementRepository = (*ReplacementRepo)(nil)

func storedReplacement(r *repair.Replacement) repair.Replacement {
	cp := *r
	cp.Accessories = slices.Clone(r.Accessories)
	return cp
}

// Create implements domain.CatalogRepository.
func (r *ReplacementRepo) Create(ctx context.Context, repl *repair.Replacement) error {
	return r.store.do(ctx, func(st *state) error {
		if _, ok := st.replacements[repl.ID]; ok {
			return apperror.NewDuplicate("replacement equipment", "id", repl.ID.String())
		}
		st.replacements[repl.ID] = storedReplacement(repl)
		return nil
	})
}

// GetByID implements domain.CatalogRepository.
func (r *ReplacementRepo) GetByID(ctx context.Context, replID id.ID) (*repair.Replacement, error) {
	var out *repair.Replacement
	err := r.store.do(ctx, func(st *state) error {
		repl, ok := st.replacements[replID]
		if !ok {
			return apperror.NewNotFound("replacement equipment", replID.String())
		}
		cp := storedReplacement(&repl)
		out = &cp
		return nil
	})
	return out, err
}

// GetForUpdate implements repair.ReplacementRepository; the transaction already holds the store.
func (r *ReplacementRepo) GetForUpdate(ctx context.Context, replID id.ID) (*repair.Replacement, error) {
	return r.GetByID(ctx, replID)
}

// Update implements domain.CatalogRepository.
func (r *ReplacementRepo) Update(ctx context.Context, repl *repair.Replacement) error {
	return r.store.do(ctx, func(st *state) error {
		cur, ok := st.replacements[repl.ID]
		if !ok || cur.Version != repl.Version {
			return apperror.NewConcurrentModification("replacement equipment", repl.ID.String())
		}
		repl.NextVersion()
		st.replacements[repl.ID] = storedReplacement(repl)
		return nil
	})
}

// List implements domain.CatalogRepository.
func (r *ReplacementRepo) List(ctx context.Context, f domain.ListFilter) (domain.ListResult[*repair.Replacement], error) {
	var items []*repair.Replacement
	err := r.store.do(ctx, func(st *state) error {
		for _, repl := range st.replacements {
			if len(f.IDs) > 0 && !slices.Contains(f.IDs, repl.ID) {
				continue
			}
			if !matches(f.Search, repl.EquipmentName, repl.SerialNumber) {
				continue
			}
			cp := storedReplacement(&repl)
			items = append(items, &cp)
		}
		return nil
	})
	if err != nil {
		return domain.ListResult[*repair.Replacement]{}, err
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].EquipmentName != items[j].EquipmentName {
			return items[i].EquipmentName < items[j].EquipmentName
		}
		return items[i].SerialNumber < items[j].SerialNumber
	})
	return domain.Paginate(items, f), nil
}

// Exists implements domain.CatalogRepository.
func (r *ReplacementRepo) Exists(ctx context.Context, replID id.ID) (bool, error) {
	var ok bool
	err := r.store.do(ctx, func(st *state) error {
		_, ok = st.replacements[replID]
		return nil
	})
	return ok, err
}

// matches is a case-insensitive substring search over fields.
func matches(search string, fields ...string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}
