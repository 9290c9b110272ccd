package faculty

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/medical-education/internal/models"
)

const facultyID = "3c2b1a09-8f7e-4d6c-9b5a-493827160504"

type ServiceMock struct{ mock.Mock }

func (m *ServiceMock) List(ctx context.Context) ([]models.Faculty, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).([]models.Faculty)
	return res, args.Error(1)
}

func (m *ServiceMock) Get(ctx context.Context, id string) (*models.Faculty, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*models.Faculty)
	return res, args.Error(1)
}

func (m *ServiceMock) Create(ctx context.Context, req models.DummyFaculty) (*models.Faculty, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.Faculty)
	return res, args.Error(1)
}

func (m *ServiceMock) Update(ctx context.Context, id string, req models.DummyFaculty) (*models.Faculty, error) {
	args := m.Called(ctx, id, req)
	res, _ := args.Get(0).(*models.Faculty)
	return res, args.Error(1)
}

func (m *ServiceMock) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func TestHandler(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		url        string
		body       string
		setup      func(*ServiceMock)
		wantStatus int
	}{
		{
			name:   "list",
			method: http.MethodGet,
			url:    "/faculty",
			setup: func(m *ServiceMock) {
				m.On("List", mock.Anything).Return([]models.Faculty{{ID: facultyID, Name: "Dr. Rao"}}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "get missing",
			method: http.MethodGet,
			url:    "/faculty/" + facultyID,
			setup: func(m *ServiceMock) {
				m.On("Get", mock.Anything, facultyID).Return(nil, models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "create",
			method: http.MethodPost,
			url:    "/admin/faculty",
			body:   `{"name":"Dr. Rao","designation":"Radiologist"}`,
			setup: func(m *ServiceMock) {
				m.On("Create", mock.Anything, models.DummyFaculty{Name: "Dr. Rao", Designation: "Radiologist"}).
					Return(&models.Faculty{ID: facultyID, Name: "Dr. Rao"}, nil)
			},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "create without name",
			method:     http.MethodPost,
			url:        "/admin/faculty",
			body:       `{"bio":"x"}`,
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "update",
			method: http.MethodPut,
			url:    "/admin/faculty/" + facultyID,
			body:   `{"name":"Dr. Iyer"}`,
			setup: func(m *ServiceMock) {
				m.On("Update", mock.Anything, facultyID, models.DummyFaculty{Name: "Dr. Iyer"}).
					Return(&models.Faculty{ID: facultyID, Name: "Dr. Iyer"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "delete missing",
			method: http.MethodDelete,
			url:    "/admin/faculty/" + facultyID,
			setup: func(m *ServiceMock) {
				m.On("Delete", mock.Anything, facultyID).Return(models.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)
			h := New(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
			r := chi.NewRouter()
			r.Get("/faculty", h.List)
			r.Get("/faculty/{id}", h.Get)
			r.Post("/admin/faculty", h.Create)
			r.Put("/admin/faculty/{id}", h.Update)
			r.Delete("/admin/faculty/{id}", h.Delete)

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.url, bytes.NewBufferString(tt.body)))
			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}
