package debate

import (
	"context"

	"gorm.io/gorm"
)

// Repo is the durable transcript store: sessions, append-only turns,
// summaries, and async run jobs.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) CreateSession(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSessionBySessionID(ctx context.Context, sessionID string) (*Session, error) {
	var s Session
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) ListSessionsByProfile(ctx context.Context, profileID uint64) ([]Session, error) {
	var out []Session
	if err := r.db.WithContext(ctx).
		Where("profile_id = ?", profileID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// MarkSessionRunning performs the pending->running transition. The
// conditional update doubles as the mutual-exclusion check: zero rows
// affected means some other run already claimed the session (or it already
// finished).
func (r *Repo) MarkSessionRunning(ctx context.Context, sessionID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ? AND status = ?", sessionID, StatusPending).
		Update("status", StatusRunning)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetSessionStatus records a terminal status. Guarded on running so a
// terminal status can never regress.
func (r *Repo) SetSessionStatus(ctx context.Context, sessionID string, status SessionStatus) error {
	return r.db.WithContext(ctx).Model(&Session{}).
		Where("session_id = ? AND status = ?", sessionID, StatusRunning).
		Update("status", status).Error
}

// AppendTurn writes one turn atomically; the unique (session, turn index)
// key rejects duplicates.
func (r *Repo) AppendTurn(ctx context.Context, t *Turn) error {
	return r.db.WithContext(ctx).Create(t).Error
}

// ListTurns returns the full ordered transcript (turn index ASC).
func (r *Repo) ListTurns(ctx context.Context, sessionID string) ([]Turn, error) {
	var out []Turn
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("turn_index ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) CreateSummary(ctx context.Context, s *Summary) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *Repo) GetSummary(ctx context.Context, sessionID string) (*Summary, error) {
	var s Summary
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes the session and cascades to its turns and summary.
func (r *Repo) DeleteSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s Session
		if err := tx.Where("session_id = ?", sessionID).First(&s).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Turn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id = ?", sessionID).Delete(&Summary{}).Error; err != nil {
			return err
		}
		return tx.Delete(&s).Error
	})
}

// Run job CRUD
func (r *Repo) CreateRunJob(ctx context.Context, job *RunJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *Repo) GetRunJobByID(ctx context.Context, id string) (*RunJob, error) {
	var j RunJob
	if err := r.db.WithContext(ctx).First(&j, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &j, nil
}

func (r *Repo) MarkRunJobRunning(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&RunJob{}).
		Where("id = ? AND status = ?", id, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkRunJobSucceeded(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&RunJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobSucceeded,
			"error":  nil,
		}).Error
}

func (r *Repo) MarkRunJobFailed(ctx context.Context, id string, errMsg string) error {
	return r.db.WithContext(ctx).Model(&RunJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status": JobFailed,
			"error":  errMsg,
		}).Error
}
