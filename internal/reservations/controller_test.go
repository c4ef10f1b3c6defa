package reservations

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"seatline/internal/seats"
	"seatline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Claim(ctx context.Context, in ClaimInput) (*ClaimResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ClaimResult), args.Error(1)
}

func (m *mockService) Finish(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error) {
	args := m.Called(ctx, id, flag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *mockService) Pay(ctx context.Context, id uuid.UUID, flag bool) (*Reservation, error) {
	args := m.Called(ctx, id, flag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *mockService) Cancel(ctx context.Context, id uuid.UUID, flag bool) error {
	return m.Called(ctx, id, flag).Error(0)
}

func (m *mockService) Get(ctx context.Context, id uuid.UUID) (*Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Reservation), args.Error(1)
}

func (m *mockService) EvictExpired(ctx context.Context, limit int) (int, error) {
	args := m.Called(ctx, limit)
	return args.Int(0), args.Error(1)
}

// fakeAuth stands in for the JWT middleware
func fakeAuth(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID.String())
		c.Set(middleware.ContextUserRole, role)
		c.Next()
	}
}

func newTestRouter(svc Service, userID uuid.UUID, role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupReservationRoutes(r.Group("/api/v1"), NewController(svc), fakeAuth(userID, role))
	return r
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func TestAddSeatHandler(t *testing.T) {
	svc := new(mockService)
	user, eventID, seatID := uuid.New(), uuid.New(), uuid.New()
	router := newTestRouter(svc, user, "USER")

	session := &Reservation{ID: uuid.New(), OwnerID: &user, EventID: &eventID, SessionTTL: DefaultSessionTTL}
	svc.On("Claim", mock.Anything, ClaimInput{UserID: user, EventID: eventID, SeatID: seatID}).
		Return(&ClaimResult{
			Reservation: session,
			Seat:        &seats.Seat{ID: seatID, Row: "A", Column: 1, Class: seats.ClassStage},
			Created:     true,
			Remaining:   3,
		}, nil)

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/reservations/add-seat", AddSeatRequest{
		EventID: eventID.String(),
		SeatID:  seatID.String(),
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Seat A1 was added to your reservation", env.Message)
	var data ClaimResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.AvailableTickets)
	assert.True(t, data.SessionCreated)
	assert.Equal(t, "Stage A1", data.Seat)
}

func TestAddSeatCapacityCarriesAvailable(t *testing.T) {
	svc := new(mockService)
	user := uuid.New()
	router := newTestRouter(svc, user, "USER")

	svc.On("Claim", mock.Anything, mock.Anything).Return(nil, &CapacityError{MaxTickets: 4})

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/reservations/add-seat", AddSeatRequest{
		EventID: uuid.NewString(),
		SeatID:  uuid.NewString(),
	})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.JSONEq(t, `{"available":0}`, string(env.Data))
}

func TestAddSeatRejectsBadBody(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(svc, uuid.New(), "USER")

	w, _ := doJSON(t, router, http.MethodPost, "/api/v1/reservations/add-seat", map[string]string{"event_id": "nope"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	svc.AssertNotCalled(t, "Claim", mock.Anything, mock.Anything)
}

func TestAdminTransitionsRequireAdmin(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(svc, uuid.New(), "USER")

	for _, action := range []string{"cancel", "finish", "paid"} {
		w, _ := doJSON(t, router, http.MethodPost, "/api/v1/reservations/"+uuid.NewString()+"/"+action, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, action)
	}
}

func TestFinishWithoutFlag(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(svc, uuid.New(), "ADMIN")
	id := uuid.New()

	svc.On("Finish", mock.Anything, id, false).Return(nil, &FlagRequiredError{Flag: "finished"})

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/reservations/"+id.String()+"/finish", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "parameter 'finished' is required", env.Message)
}

func TestFinishHandler(t *testing.T) {
	svc := new(mockService)
	router := newTestRouter(svc, uuid.New(), "ADMIN")
	id := uuid.New()
	code := "0A1B2C3D4E"

	svc.On("Finish", mock.Anything, id, true).Return(&Reservation{ID: id, Finished: true, Code: &code}, nil)

	w, env := doJSON(t, router, http.MethodPost, "/api/v1/reservations/"+id.String()+"/finish", FinishRequest{Finished: true})

	assert.Equal(t, http.StatusOK, w.Code)
	var data ReservationResponse
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, StateSealedUnpaid, data.State)
	assert.Equal(t, code, *data.Code)
	assert.Nil(t, data.ExpiresAt)
}

func TestGetReservationHidesForeignSessions(t *testing.T) {
	svc := new(mockService)
	caller, owner := uuid.New(), uuid.New()
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(&Reservation{ID: id, OwnerID: &owner}, nil)

	w, _ := doJSON(t, newTestRouter(svc, caller, "USER"), http.MethodGet, "/api/v1/reservations/"+id.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = doJSON(t, newTestRouter(svc, caller, "ADMIN"), http.MethodGet, "/api/v1/reservations/"+id.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExpiredSessionIsGone(t *testing.T) {
	svc := new(mockService)
	id := uuid.New()
	svc.On("Get", mock.Anything, id).Return(nil, ErrSessionExpired)

	w, _ := doJSON(t, newTestRouter(svc, uuid.New(), "USER"), http.MethodGet, "/api/v1/reservations/"+id.String(), nil)

	assert.Equal(t, http.StatusGone, w.Code)
}
