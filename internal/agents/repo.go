package agents

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateProfile(ctx context.Context, p *Profile) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *Repo) GetProfile(ctx context.Context, id uint64) (*Profile, error) {
	var p Profile
	if err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) CreateAgent(ctx context.Context, a *Agent) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *Repo) GetAgent(ctx context.Context, id uint64) (*Agent, error) {
	var a Agent
	if err := r.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAgent applies a partial field update. Zero matched rows means the
// agent does not exist.
func (r *Repo) UpdateAgent(ctx context.Context, id uint64, fields map[string]any) error {
	res := r.db.WithContext(ctx).Model(&Agent{}).
		Where("id = ?", id).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := r.db.WithContext(ctx).Model(&Agent{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}

func (r *Repo) DeleteAgent(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Delete(&Agent{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repo) ListAgentsByProfile(ctx context.Context, profileID uint64) ([]Agent, error) {
	var out []Agent
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("id ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// ListActiveByIDs returns the active agents among ids, keyed by id.
// Callers compare len(result) with len(ids) to detect missing or inactive
// panel members.
func (r *Repo) ListActiveByIDs(ctx context.Context, ids []uint64) (map[uint64]Agent, error) {
	if len(ids) == 0 {
		return map[uint64]Agent{}, nil
	}
	var rows []Agent
	if err := r.db.WithContext(ctx).
		Where("id IN ? AND is_active = ?", ids, true).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint64]Agent, len(rows))
	for _, a := range rows {
		out[a.ID] = a
	}
	return out, nil
}
