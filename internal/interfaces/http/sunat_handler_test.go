package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/sire-reportes/internal/application/dto"
	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	apphttp "github.com/jhoicas/sire-reportes/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/sire-reportes/pkg/jwt"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

type fakeReports struct {
	contenido string
	err       error
	periodos  []string
}

func (f *fakeReports) ObtainReport(ctx context.Context, periodo string) (string, error) {
	f.periodos = append(f.periodos, periodo)
	if err := sire.ValidatePeriod(periodo); err != nil {
		return "", err
	}
	return f.contenido, f.err
}

type fakeComprobantes struct {
	data json.RawMessage
	err  error
	got  []string
}

func (f *fakeComprobantes) ObtainComprobante(ctx context.Context, tipo, serie, numero string) (json.RawMessage, error) {
	f.got = []string{tipo, serie, numero}
	return f.data, f.err
}

type fakeRuns struct {
	runs     []*entity.Run
	err      error
	gotLimit int
}

func (f *fakeRuns) ListByPeriod(ctx context.Context, periodo string, limit int) ([]*entity.Run, error) {
	f.gotLimit = limit
	return f.runs, f.err
}

func newApp(reports *fakeReports, runs *fakeRuns, secret string) *fiber.App {
	return newAppWith(reports, nil, runs, secret)
}

func newAppWith(reports *fakeReports, comprobantes *fakeComprobantes, runs *fakeRuns, secret string) *fiber.App {
	app := fiber.New()
	deps := apphttp.RouterDeps{Reports: reports, JWTSecret: secret, Log: logger.Nop()}
	if comprobantes != nil {
		deps.Comprobantes = comprobantes
	}
	if runs != nil {
		deps.Runs = runs
	}
	apphttp.Router(app, deps)
	return app
}

func decodeError(t *testing.T, resp *http.Response) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestGetFacturas_OK(t *testing.T) {
	reports := &fakeReports{contenido: "LINE1\nLINE2"}
	resp := doGet(t, newApp(reports, nil, ""), "/api/sunat/facturas/202512", "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.ReporteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "202512", body.Periodo)
	assert.Equal(t, "LINE1\nLINE2", body.Contenido)
	assert.Equal(t, []string{"202512"}, reports.periodos)
}

func TestGetFacturas_MapeoDeErrores(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"configuración", fmt.Errorf("%w: falta SUNAT_RUC", domain.ErrConfiguration), http.StatusInternalServerError, "CONFIGURATION"},
		{"autenticación", fmt.Errorf("%w: credenciales inválidas", domain.ErrAuthentication), http.StatusUnauthorized, "SUNAT_AUTH"},
		{"gateway", fmt.Errorf("%w: 500", domain.ErrGateway), http.StatusBadGateway, "SUNAT_GATEWAY"},
		{"gateway por timeout HTTP", fmt.Errorf("%w: %w", domain.ErrGateway, context.DeadlineExceeded), http.StatusBadGateway, "SUNAT_GATEWAY"},
		{"timeout de polling", fmt.Errorf("%w: 60 intentos", domain.ErrTimeout), http.StatusGatewayTimeout, "SUNAT_TIMEOUT"},
		{"extracción", fmt.Errorf("%w: sin .txt", domain.ErrExtraction), http.StatusBadGateway, "SUNAT_EXTRACTION"},
		{"no encontrado", fmt.Errorf("%w: comprobante", domain.ErrNotFound), http.StatusNotFound, "SUNAT_NOT_FOUND"},
		{"cancelado", fmt.Errorf("polling interrumpido: %w", context.Canceled), http.StatusRequestTimeout, "CANCELED"},
		{"cancelado durante llamada HTTP", fmt.Errorf("sunat: solicitar exportación del periodo 202512: %w", context.Canceled), http.StatusRequestTimeout, "CANCELED"},
		{"desconocido", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doGet(t, newApp(&fakeReports{err: tt.err}, nil, ""), "/api/sunat/facturas/202512", "")
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			body := decodeError(t, resp)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}
}

func TestGetFacturas_PeriodoInvalido(t *testing.T) {
	resp := doGet(t, newApp(&fakeReports{}, nil, ""), "/api/sunat/facturas/2025-12", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION", decodeError(t, resp).Code)
}

func TestGetFacturas_ConJWT(t *testing.T) {
	app := newApp(&fakeReports{contenido: "x"}, nil, testJWTSecret)

	t.Run("sin token", func(t *testing.T) {
		resp := doGet(t, app, "/api/sunat/facturas/202512", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
	t.Run("contador", func(t *testing.T) {
		resp := doGet(t, app, "/api/sunat/facturas/202512", tokenForRole(t, pkgjwt.RoleContador))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
	t.Run("rol desconocido", func(t *testing.T) {
		resp := doGet(t, app, "/api/sunat/facturas/202512", tokenForRole(t, "vendedor"))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})
}

func TestListRuns(t *testing.T) {
	fin := time.Date(2025, 12, 31, 10, 0, 7, 0, time.UTC)
	runs := &fakeRuns{runs: []*entity.Run{{
		ID:         "a1",
		Periodo:    "202512",
		NumTicket:  "555",
		Status:     entity.RunStatusCompleted,
		Chars:      11,
		StartedAt:  fin.Add(-7 * time.Second),
		FinishedAt: &fin,
	}}}
	app := newApp(&fakeReports{}, runs, testJWTSecret)

	resp := doGet(t, app, "/api/sunat/runs/202512?limit=5", tokenForRole(t, pkgjwt.RoleAdmin))
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.RunListResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "202512", body.Periodo)
	require.Len(t, body.Items, 1)
	assert.Equal(t, "555", body.Items[0].NumTicket)
	assert.Equal(t, entity.RunStatusCompleted, body.Items[0].Status)
	assert.Equal(t, 5, runs.gotLimit)
}

func TestListRuns_ContadorSinAcceso(t *testing.T) {
	app := newApp(&fakeReports{}, &fakeRuns{}, testJWTSecret)
	resp := doGet(t, app, "/api/sunat/runs/202512", tokenForRole(t, pkgjwt.RoleContador))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestListRuns_LimitePorDefecto(t *testing.T) {
	runs := &fakeRuns{}
	resp := doGet(t, newApp(&fakeReports{}, runs, ""), "/api/sunat/runs/202512", "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 20, runs.gotLimit)
}

func TestListRuns_SinBitacora(t *testing.T) {
	resp := doGet(t, newApp(&fakeReports{}, nil, ""), "/api/sunat/runs/202512", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "JOURNAL_DISABLED", decodeError(t, resp).Code)
}

func TestListRuns_PeriodoInvalido(t *testing.T) {
	resp := doGet(t, newApp(&fakeReports{}, &fakeRuns{}, ""), "/api/sunat/runs/12", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListRuns_ErrorDeBaseDeDatos(t *testing.T) {
	resp := doGet(t, newApp(&fakeReports{}, &fakeRuns{err: errors.New("conexión rechazada")}, ""), "/api/sunat/runs/202512", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestGetComprobante_OK(t *testing.T) {
	comprobantes := &fakeComprobantes{data: json.RawMessage(`{"xml":"PD94bWw="}`)}
	app := newAppWith(&fakeReports{}, comprobantes, nil, "")

	resp := doGet(t, app, "/api/sunat/comprobantes/01/F001/123", "")
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body dto.ComprobanteResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "F001", body.Serie)
	assert.JSONEq(t, `{"xml":"PD94bWw="}`, string(body.Data))
	assert.Equal(t, []string{"01", "F001", "123"}, comprobantes.got)
}

func TestGetComprobante_MapeoDeErrores(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validación", fmt.Errorf("%w: serie", domain.ErrValidation), http.StatusBadRequest, "VALIDATION"},
		{"no encontrado", fmt.Errorf("%w: comprobante 20123456789-01-F001-123", domain.ErrNotFound), http.StatusNotFound, "SUNAT_NOT_FOUND"},
		{"gateway", fmt.Errorf("%w: 503", domain.ErrGateway), http.StatusBadGateway, "SUNAT_GATEWAY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newAppWith(&fakeReports{}, &fakeComprobantes{err: tt.err}, nil, "")
			resp := doGet(t, app, "/api/sunat/comprobantes/01/F001/123", "")
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decodeError(t, resp).Code)
		})
	}
}

func TestGetComprobante_SinServicio(t *testing.T) {
	resp := doGet(t, newApp(&fakeReports{}, nil, ""), "/api/sunat/comprobantes/01/F001/123", "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "COMPROBANTES_DISABLED", decodeError(t, resp).Code)
}

func TestGetComprobante_ConJWT(t *testing.T) {
	app := newAppWith(&fakeReports{}, &fakeComprobantes{data: json.RawMessage(`{}`)}, nil, testJWTSecret)

	t.Run("sin token", func(t *testing.T) {
		resp := doGet(t, app, "/api/sunat/comprobantes/01/F001/123", "")
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
	t.Run("contador", func(t *testing.T) {
		resp := doGet(t, app, "/api/sunat/comprobantes/01/F001/123", tokenForRole(t, pkgjwt.RoleContador))
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
