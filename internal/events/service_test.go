package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seatline/pkg/datefmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Create(ctx context.Context, event *Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockRepository) GetByID(ctx context.Context, id uuid.UUID) (*Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *mockRepository) List(ctx context.Context, query EventListQuery, now time.Time) ([]Event, error) {
	args := m.Called(ctx, query, now)
	return args.Get(0).([]Event), args.Error(1)
}

func (m *mockRepository) Update(ctx context.Context, id uuid.UUID, updates map[string]interface{}) (*Event, error) {
	args := m.Called(ctx, id, updates)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Event), args.Error(1)
}

func (m *mockRepository) DeleteAndDetach(ctx context.Context, id uuid.UUID) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

var ptBR = datefmt.Options{Location: time.FixedZone("BRT", -3*60*60), Language: language.BrazilianPortuguese}

func newTestService(repo Repository) *service {
	svc := NewService(repo, nil, ptBR).(*service)
	svc.now = func() time.Time { return time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func TestCloneCopiesSeatingRules(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)
	admin := uuid.New()
	source := &Event{ID: uuid.New(), Title: "Recital", DateTime: time.Now(), MaxSeatings: 500, MaxTickets: 4}
	newDate := time.Date(2024, 12, 20, 23, 0, 0, 0, time.UTC)

	repo.On("GetByID", mock.Anything, source.ID).Return(source, nil)
	repo.On("Create", mock.Anything, mock.MatchedBy(func(e *Event) bool {
		return e.Title == "Recital (copy)" && e.MaxTickets == 4 && e.MaxSeatings == 500 && e.DateTime.Equal(newDate)
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*Event).ID = uuid.New()
	}).Return(nil)

	resp, err := svc.Clone(context.Background(), source.ID, admin, CloneEventRequest{DateTime: newDate})

	require.NoError(t, err)
	assert.Equal(t, "20 DEZ", resp.DateLabel)
	assert.Equal(t, "20:00", resp.TimeLabel)
	assert.Equal(t, StatusUpcoming, resp.Status)
	repo.AssertExpectations(t)
}

func TestCreateRejectsInconsistentCaps(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), uuid.New(), CreateEventRequest{
		Title: "Show", DateTime: time.Now(), MaxSeatings: 2, MaxTickets: 5,
	})

	assert.ErrorIs(t, err, ErrInvalidSeatingCaps)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdateOnlySendsChangedFields(t *testing.T) {
	repo := new(mockRepository)
	svc := newTestService(repo)
	id := uuid.New()
	current := &Event{ID: id, Title: "Show", MaxTickets: 3}
	title := "Gala"

	repo.On("GetByID", mock.Anything, id).Return(current, nil)
	repo.On("Update", mock.Anything, id, map[string]interface{}{"title": "Gala"}).
		Return(&Event{ID: id, Title: "Gala", MaxTickets: 3}, nil)

	resp, err := svc.Update(context.Background(), id, UpdateEventRequest{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "Gala", resp.Title)
	repo.AssertExpectations(t)
}

func TestGetEventNotFoundOverHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := new(mockRepository)
	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(nil, ErrEventNotFound)

	r := gin.New()
	SetupEventRoutes(r.Group("/api/v1"), NewController(newTestService(repo)), func(c *gin.Context) { c.Next() })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/"+id.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "event not found")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/events/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
