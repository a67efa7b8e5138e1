package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/johngachihi/parkgate/internal/model"
	"github.com/johngachihi/parkgate/internal/service"
)

type memTariffs struct {
	tiers []model.TariffTier
}

func (m *memTariffs) ListAscending(context.Context) ([]model.TariffTier, error) {
	return append([]model.TariffTier(nil), m.tiers...), nil
}

func (m *memTariffs) Overwrite(_ context.Context, tiers []model.TariffTier) error {
	m.tiers = append([]model.TariffTier(nil), tiers...)
	return nil
}

func newTariffTestHandler(tiers []model.TariffTier) (*TariffHandler, *memTariffs) {
	store := &memTariffs{tiers: tiers}
	return NewTariffHandler(service.NewTariffSettingsService(store)), store
}

func TestTariffGet(t *testing.T) {
	h, _ := newTariffTestHandler([]model.TariffTier{
		{UpperBound: 10 * time.Minute, Fee: 1},
		{UpperBound: 20 * time.Minute, Fee: 2.5},
	})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/settings/tariffs", nil)
	rec := httptest.NewRecorder()

	if err := h.Get(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"upper_bound_minutes":10`) || !strings.Contains(body, `"fee":2.5`) {
		t.Errorf("body = %s, want both tiers serialized", body)
	}
}

func TestTariffOverwrite(t *testing.T) {
	h, store := newTariffTestHandler(nil)

	e := echo.New()
	body := `{"tiers":[{"upper_bound_minutes":10,"fee":1},{"upper_bound_minutes":20,"fee":2}]}`
	req := httptest.NewRequest(http.MethodPut, "/v1/settings/tariffs", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.Overwrite(e.NewContext(req, rec)); err != nil {
		t.Fatalf("Overwrite: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204, body %s", rec.Code, rec.Body.String())
	}
	if len(store.tiers) != 2 || store.tiers[1].UpperBound != 20*time.Minute {
		t.Errorf("stored tiers = %+v, want the two submitted tiers", store.tiers)
	}
}

func TestTariffOverwriteRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing tiers", `{}`},
		{"malformed json", `{"tiers": [`},
		{"zero upper bound", `{"tiers":[{"upper_bound_minutes":0,"fee":1}]}`},
		{"duplicate upper bounds", `{"tiers":[{"upper_bound_minutes":10,"fee":1},{"upper_bound_minutes":10,"fee":2}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, store := newTariffTestHandler([]model.TariffTier{{UpperBound: 60 * time.Minute, Fee: 5}})

			e := echo.New()
			req := httptest.NewRequest(http.MethodPut, "/v1/settings/tariffs", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			rec := httptest.NewRecorder()

			if err := h.Overwrite(e.NewContext(req, rec)); err != nil {
				t.Fatalf("Overwrite: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
			if len(store.tiers) != 1 {
				t.Errorf("stored tiers = %+v, want the original table untouched", store.tiers)
			}
		})
	}
}
