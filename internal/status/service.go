package status

import (
	"context"
	"time"

	"github.com/vbruno96/tabnews-clone/internal/status/entity"
)

type Repository interface {
	Database(ctx context.Context, databaseName string) (entity.Database, error)
}

// Service assembles the status snapshot.
type Service struct {
	repo         Repository
	databaseName string
	now          func() time.Time
}

func NewService(r Repository, databaseName string) *Service {
	return &Service{repo: r, databaseName: databaseName, now: time.Now}
}

func (s *Service) Get(ctx context.Context) (*entity.Status, error) {
	db, err := s.repo.Database(ctx, s.databaseName)
	if err != nil {
		return nil, err
	}
	return &entity.Status{
		UpdatedAt:    s.now().UTC(),
		Dependencies: entity.Dependencies{Database: db},
	}, nil
}
