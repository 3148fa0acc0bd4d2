package aircraft

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAircraftStore struct{ mock.Mock }

func (m *mockAircraftStore) Put(ctx context.Context, a *domain.Aircraft) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAircraftStore) Get(ctx context.Context, aircraftID string) (*domain.Aircraft, error) {
	args := m.Called(ctx, aircraftID)
	if a, _ := args.Get(0).(*domain.Aircraft); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAircraftStore) List(ctx context.Context, baseID string) ([]domain.Aircraft, error) {
	args := m.Called(ctx, baseID)
	return args.Get(0).([]domain.Aircraft), args.Error(1)
}
func (m *mockAircraftStore) Update(ctx context.Context, aircraftID string, updates map[string]interface{}) error {
	return m.Called(ctx, aircraftID, updates).Error(0)
}
func (m *mockAircraftStore) SetImage(ctx context.Context, aircraftID, key string) error {
	return m.Called(ctx, aircraftID, key).Error(0)
}
func (m *mockAircraftStore) SoftDelete(ctx context.Context, aircraftID string) error {
	return m.Called(ctx, aircraftID).Error(0)
}

type stubBases map[string]*domain.Base

func (s stubBases) Get(_ context.Context, id string) (*domain.Base, error) {
	if b, ok := s[id]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("base: %w", domain.ErrNotFound)
}

type memObjects struct {
	objects map[string][]byte
	types   map[string]string
}

func newMemObjects() *memObjects {
	return &memObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memObjects) Upload(_ context.Context, key string, r io.Reader, ct string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key], m.types[key] = b, ct
	return nil
}
func (m *memObjects) PresignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.test/%s?ttl=%d", key, int(ttl.Seconds())), nil
}
func (m *memObjects) Delete(_ context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

var bases = stubBases{
	"b1":  {BaseID: "b1", Enable: true},
	"off": {BaseID: "off", Enable: false},
}

func TestCreate(t *testing.T) {
	repo := &mockAircraftStore{}
	repo.On("Put", mock.Anything, mock.MatchedBy(func(a *domain.Aircraft) bool {
		return a.Registration == "PR-ABC" && a.Enable
	})).Return(nil)
	svc := NewService(ServiceDeps{AircraftRepo: repo, BaseRepo: bases})

	a, err := svc.Create(context.Background(), domain.AircraftInput{Registration: " pr-abc", Model: "C172", BaseID: "b1", HourlyRate: 950})
	require.NoError(t, err)
	assert.Equal(t, "PR-ABC", a.Registration)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsUnknownOrDisabledBase(t *testing.T) {
	svc := NewService(ServiceDeps{AircraftRepo: &mockAircraftStore{}, BaseRepo: bases})
	for _, base := range []string{"nope", "off"} {
		_, err := svc.Create(context.Background(), domain.AircraftInput{Registration: "PR-ABC", Model: "C172", BaseID: base})
		assert.True(t, errors.Is(err, domain.ErrBadRequest), base)
	}
	_, err := svc.Create(context.Background(), domain.AircraftInput{Registration: "PR-ABC", Model: "C172", BaseID: "b1", HourlyRate: -1})
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestUploadImage_ReplacesPrevious(t *testing.T) {
	repo := &mockAircraftStore{}
	repo.On("Get", mock.Anything, "ac1").Return(&domain.Aircraft{AircraftID: "ac1", ImageKey: "aircraft/ac1/old.png"}, nil)
	repo.On("SetImage", mock.Anything, "ac1", mock.MatchedBy(func(k string) bool {
		return strings.HasPrefix(k, "aircraft/ac1/") && strings.HasSuffix(k, ".jpg")
	})).Return(nil)
	objs := newMemObjects()
	objs.objects["aircraft/ac1/old.png"] = []byte("old")
	svc := NewService(ServiceDeps{AircraftRepo: repo, BaseRepo: bases, Objects: objs})

	a, err := svc.UploadImage(context.Background(), "ac1", "Cessna.JPG", bytes.NewReader([]byte("jpeg-bytes")))
	require.NoError(t, err)
	assert.True(t, a.HasImage)
	assert.Equal(t, "image/jpeg", objs.types[a.ImageKey])
	assert.Equal(t, []byte("jpeg-bytes"), objs.objects[a.ImageKey])
	_, oldStillThere := objs.objects["aircraft/ac1/old.png"]
	assert.False(t, oldStillThere)
}

func TestUploadImage_RejectsNonImage(t *testing.T) {
	svc := NewService(ServiceDeps{AircraftRepo: &mockAircraftStore{}, BaseRepo: bases, Objects: newMemObjects()})
	_, err := svc.UploadImage(context.Background(), "ac1", "manual.pdf", strings.NewReader("x"))
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestImageURL(t *testing.T) {
	repo := &mockAircraftStore{}
	repo.On("Get", mock.Anything, "ac1").Return(&domain.Aircraft{AircraftID: "ac1", ImageKey: "aircraft/ac1/x.png"}, nil)
	repo.On("Get", mock.Anything, "ac2").Return(&domain.Aircraft{AircraftID: "ac2"}, nil)
	svc := NewService(ServiceDeps{AircraftRepo: repo, BaseRepo: bases, Objects: newMemObjects()})

	u, err := svc.ImageURL(context.Background(), "ac1")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.test/aircraft/ac1/x.png?ttl=900", u)

	_, err = svc.ImageURL(context.Background(), "ac2")
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	noStorage := NewService(ServiceDeps{AircraftRepo: repo, BaseRepo: bases})
	_, err = noStorage.ImageURL(context.Background(), "ac1")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}
