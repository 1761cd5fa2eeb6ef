package sessions

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/remixlab/remix-api/internal/models"
)

// repository implements Repository on GORM
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new session repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CreateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	err := r.db.WithContext(ctx).First(&session, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}
	return &session, nil
}

func (r *repository) UpdateSession(ctx context.Context, session *models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *repository) DeleteSession(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Delete(&models.Session{}, "id = ?", id).Error
}

func (r *repository) GetFeatureSummary(ctx context.Context, sessionID string) (*models.FeatureSummary, error) {
	var summary models.FeatureSummary
	err := r.db.WithContext(ctx).First(&summary, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotReady
		}
		return nil, fmt.Errorf("getting feature summary: %w", err)
	}
	return &summary, nil
}

func (r *repository) SaveFeatureSummary(ctx context.Context, summary *models.FeatureSummary) error {
	// One summary per session; replace wholesale on re-analysis
	if err := r.DeleteFeatureSummary(context.WithoutCancel(ctx), summary.SessionID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(summary).Error
}

func (r *repository) DeleteFeatureSummary(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.FeatureSummary{}, "session_id = ?", sessionID).Error
}

func (r *repository) GetWaveform(ctx context.Context, sessionID string) (*models.Waveform, error) {
	var waveform models.Waveform
	err := r.db.WithContext(ctx).First(&waveform, "session_id = ?", sessionID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotReady
		}
		return nil, fmt.Errorf("getting waveform: %w", err)
	}
	return &waveform, nil
}

func (r *repository) SaveWaveform(ctx context.Context, waveform *models.Waveform) error {
	if err := r.DeleteWaveform(context.WithoutCancel(ctx), waveform.SessionID); err != nil {
		return err
	}
	return r.db.WithContext(ctx).Create(waveform).Error
}

func (r *repository) DeleteWaveform(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Unscoped().Delete(&models.Waveform{}, "session_id = ?", sessionID).Error
}
