package aircraft

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/flightdesk-api/internal/domain"
	s3infra "github.com/flightdesk-api/internal/infrastructure/s3"
	"github.com/flightdesk-api/internal/pkg/id"
	"github.com/flightdesk-api/internal/pkg/validate"
	"github.com/google/uuid"
)

const imageURLTTL = 15 * time.Minute

type Service interface {
	List(ctx context.Context, baseID string) ([]domain.Aircraft, error)
	Get(ctx context.Context, aircraftID string) (*domain.Aircraft, error)
	Create(ctx context.Context, in domain.AircraftInput) (*domain.Aircraft, error)
	Update(ctx context.Context, aircraftID string, in domain.AircraftInput) (*domain.Aircraft, error)
	Delete(ctx context.Context, aircraftID string) error
	UploadImage(ctx context.Context, aircraftID, filename string, r io.Reader) (*domain.Aircraft, error)
	ImageURL(ctx context.Context, aircraftID string) (string, error)
}

type aircraftStore interface {
	Put(ctx context.Context, a *domain.Aircraft) error
	Get(ctx context.Context, aircraftID string) (*domain.Aircraft, error)
	List(ctx context.Context, baseID string) ([]domain.Aircraft, error)
	Update(ctx context.Context, aircraftID string, updates map[string]interface{}) error
	SetImage(ctx context.Context, aircraftID, key string) error
	SoftDelete(ctx context.Context, aircraftID string) error
}

type baseLookup interface {
	Get(ctx context.Context, baseID string) (*domain.Base, error)
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) error
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type service struct {
	repo    aircraftStore
	bases   baseLookup
	objects objectStore
}

type ServiceDeps struct {
	AircraftRepo aircraftStore
	BaseRepo     baseLookup
	// Objects may be nil, in which case image endpoints report ErrUnavailable.
	Objects objectStore
}

func NewService(deps ServiceDeps) Service {
	return &service{repo: deps.AircraftRepo, bases: deps.BaseRepo, objects: deps.Objects}
}

func (s *service) List(ctx context.Context, baseID string) ([]domain.Aircraft, error) {
	return s.repo.List(ctx, baseID)
}

func (s *service) Get(ctx context.Context, aircraftID string) (*domain.Aircraft, error) {
	return s.repo.Get(ctx, aircraftID)
}

func (s *service) Create(ctx context.Context, in domain.AircraftInput) (*domain.Aircraft, error) {
	in.Registration = strings.ToUpper(strings.TrimSpace(in.Registration))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkBase(ctx, in.BaseID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Aircraft{
		AircraftID:   id.NewAt(now),
		Registration: in.Registration,
		Model:        strings.TrimSpace(in.Model),
		BaseID:       in.BaseID,
		HourlyRate:   in.HourlyRate,
		Enable:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *service) Update(ctx context.Context, aircraftID string, in domain.AircraftInput) (*domain.Aircraft, error) {
	in.Registration = strings.ToUpper(strings.TrimSpace(in.Registration))
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if err := s.checkBase(ctx, in.BaseID); err != nil {
		return nil, err
	}
	err := s.repo.Update(ctx, aircraftID, map[string]interface{}{
		"registration": in.Registration,
		"model":        strings.TrimSpace(in.Model),
		"base_id":      in.BaseID,
		"hourly_rate":  in.HourlyRate,
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, aircraftID)
}

func (s *service) Delete(ctx context.Context, aircraftID string) error {
	return s.repo.SoftDelete(ctx, aircraftID)
}

// UploadImage stores a new image and points the aircraft at it. The previous
// image, if any, is removed afterwards on a best-effort basis.
func (s *service) UploadImage(ctx context.Context, aircraftID, filename string, r io.Reader) (*domain.Aircraft, error) {
	if s.objects == nil {
		return nil, fmt.Errorf("image storage not configured: %w", domain.ErrUnavailable)
	}
	contentType, ok := s3infra.ImageContentType(filename)
	if !ok {
		return nil, fmt.Errorf("unsupported image type %q: %w", path.Ext(filename), domain.ErrBadRequest)
	}
	a, err := s.repo.Get(ctx, aircraftID)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("aircraft/%s/%s%s", aircraftID, uuid.NewString(), strings.ToLower(path.Ext(filename)))
	if err := s.objects.Upload(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	if err := s.repo.SetImage(ctx, aircraftID, key); err != nil {
		return nil, err
	}
	if a.ImageKey != "" {
		if err := s.objects.Delete(ctx, a.ImageKey); err != nil {
			slog.Warn("could not delete previous aircraft image", "aircraft_id", aircraftID, "key", a.ImageKey, "err", err)
		}
	}
	a.ImageKey = key
	a.HasImage = true
	return a, nil
}

func (s *service) ImageURL(ctx context.Context, aircraftID string) (string, error) {
	if s.objects == nil {
		return "", fmt.Errorf("image storage not configured: %w", domain.ErrUnavailable)
	}
	a, err := s.repo.Get(ctx, aircraftID)
	if err != nil {
		return "", err
	}
	if a.ImageKey == "" {
		return "", fmt.Errorf("aircraft %s has no image: %w", aircraftID, domain.ErrNotFound)
	}
	return s.objects.PresignedURL(ctx, a.ImageKey, imageURLTTL)
}

func (s *service) checkBase(ctx context.Context, baseID string) error {
	b, err := s.bases.Get(ctx, baseID)
	if errors.Is(err, domain.ErrNotFound) || (err == nil && !b.Enable) {
		return fmt.Errorf("unknown base %q: %w", baseID, domain.ErrBadRequest)
	}
	return err
}
