package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cremaze/cremaze/app/models"
	"github.com/cremaze/cremaze/app/services"
	"github.com/cremaze/cremaze/pkg/apperr"
)

type fakeContactAPI struct {
	submitted  []services.SubmitInput
	readIDs    []string
	lastFilter string
	listErr    error
}

func (f *fakeContactAPI) Submit(_ context.Context, in services.SubmitInput) (models.ContactMessage, error) {
	f.submitted = append(f.submitted, in)
	return models.ContactMessage{Name: in.Name, Email: in.Email, Message: in.Message}, nil
}

func (f *fakeContactAPI) List(_ context.Context, filter string) ([]models.ContactMessage, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.lastFilter = filter
	return []models.ContactMessage{{Name: "A"}}, nil
}

func (f *fakeContactAPI) UnreadCount(_ context.Context) (int64, error) { return 2, nil }

func (f *fakeContactAPI) MarkRead(_ context.Context, id string) error {
	if id == "missing" {
		return apperr.NotFound("Message not found")
	}
	f.readIDs = append(f.readIDs, id)
	return nil
}

func (f *fakeContactAPI) Archive(_ context.Context, _ string) error { return nil }
func (f *fakeContactAPI) Restore(_ context.Context, _ string) error { return nil }
func (f *fakeContactAPI) Delete(_ context.Context, _ string) error  { return nil }

func contactRouter(api ContactAPI) http.Handler {
	c := NewContactControllerWith(api)
	r := chi.NewRouter()
	r.Post("/api/contact/send", c.Submit)
	r.Get("/api/contact", c.List)
	r.Get("/api/contact/unread-count", c.UnreadCount)
	r.Put("/api/contact/{id}/read", c.MarkRead)
	return r
}

func TestContactSubmit(t *testing.T) {
	api := &fakeContactAPI{}
	srv := contactRouter(api)

	body := `{"name":"Meera","email":"meera@example.com","message":"Sunday delivery?"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, api.submitted, 1)
	assert.Equal(t, "Meera", api.submitted[0].Name)
}

func TestContactSubmitEmptyMessageRejected(t *testing.T) {
	api := &fakeContactAPI{}
	srv := contactRouter(api)

	body := `{"name":"Meera","email":"meera@example.com","message":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, api.submitted, "invalid input must never reach the service")

	var resp struct {
		Code   string            `json:"code"`
		Errors map[string]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "VALIDATION", resp.Code)
	assert.Contains(t, resp.Errors, "message")
}

func TestContactSubmitBadEmailRejected(t *testing.T) {
	api := &fakeContactAPI{}
	srv := contactRouter(api)

	body := `{"name":"Meera","email":"not-an-email","message":"hi"}`
	req := httptest.NewRequest(http.MethodPost, "/api/contact/send", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, api.submitted)
}

func TestContactAdminEndpoints(t *testing.T) {
	api := &fakeContactAPI{}
	srv := contactRouter(api)

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contact?filter=unread", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unread", api.lastFilter)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/contact/unread-count", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"count":2`)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/contact/abc123/read", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"abc123"}, api.readIDs)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/contact/missing/read", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "NOT_FOUND")
}
