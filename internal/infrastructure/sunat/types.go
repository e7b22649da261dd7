// Package sunat implementa el cliente HTTP de la API SIRE de SUNAT (Perú):
// autenticación OAuth2 con cache de token, solicitud de exportación (ticket),
// polling de estado y descarga del ZIP del reporte.
package sunat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
)

// ── Respuestas de la API ──────────────────────────────────────────────────────

type authResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

type ticketResponse struct {
	NumTicket  string `json:"numTicket"`
	CodCar     string `json:"codCar,omitempty"`
	FecProceso string `json:"fecProceso,omitempty"`
}

// Los campos de paginación (numPagina, numRegistro) no se leen: se pide
// una sola página filtrada por ticket.
type statusResponse struct {
	PerIni    string        `json:"perIni"`
	PerFin    string        `json:"perFin"`
	Registros []registroDTO `json:"registros"`
}

type registroDTO struct {
	NumTicket      string              `json:"numTicket"`
	PerTributario  string              `json:"perTributario"`
	CodProceso     string              `json:"codProceso"`
	DesProceso     string              `json:"desProceso,omitempty"`
	FecInicio      string              `json:"fecInicio,omitempty"`
	FecFin         string              `json:"fecFin,omitempty"`
	ArchivoReporte []archivoReporteDTO `json:"archivoReporte"`
}

type archivoReporteDTO struct {
	NomArchivoReporte   string  `json:"nomArchivoReporte"`
	NomArchivoContenido string  `json:"nomArchivoContenido"`
	CodEstado           string  `json:"codEstado"` // "0" = procesando, "1" = terminado
	DesEstado           string  `json:"desEstado,omitempty"`
	NumRegistros        flexInt `json:"numRegistros,omitempty"`
}

func (r registroDTO) toEntity() entity.StatusRecord {
	rec := entity.StatusRecord{
		NumTicket:     r.NumTicket,
		PerTributario: r.PerTributario,
		CodProceso:    r.CodProceso,
		DesProceso:    r.DesProceso,
		ReportFiles:   make([]entity.ReportFile, 0, len(r.ArchivoReporte)),
	}
	for _, a := range r.ArchivoReporte {
		rec.ReportFiles = append(rec.ReportFiles, entity.ReportFile{
			NomArchivoReporte:   a.NomArchivoReporte,
			NomArchivoContenido: a.NomArchivoContenido,
			CodEstado:           a.CodEstado,
			DesEstado:           a.DesEstado,
			NumRegistros:        int(a.NumRegistros),
		})
	}
	return rec
}

// flexInt acepta números enviados como número o como string ("12", "").
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("número inválido %q: %w", s, err)
	}
	*f = flexInt(n)
	return nil
}

// ── Errores de la API ─────────────────────────────────────────────────────────

// UpstreamError error devuelto por SUNAT. Los payloads varían según el servicio
// (OAuth2 usa error/error_description; SIRE usa cod/msg), así que Message se
// resuelve por orden de preferencia.
type UpstreamError struct {
	Status  int
	Code    string
	Message string
}

func (e *UpstreamError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("SUNAT HTTP %d [%s]: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("SUNAT HTTP %d: %s", e.Status, e.Message)
}

// NotFound indica un 404: durante el polling significa "ticket aún no visible".
func (e *UpstreamError) NotFound() bool {
	return e.Status == http.StatusNotFound
}

type errorPayload struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Cod              string `json:"cod"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	Errors           []struct {
		Cod string `json:"cod"`
		Msg string `json:"msg"`
	} `json:"errors"`
}

// parseUpstreamError extrae {code, message} del cuerpo de error.
// Orden: error_description → msg → errors[0].msg → message → error → texto HTTP.
func parseUpstreamError(status int, body []byte) *UpstreamError {
	ue := &UpstreamError{Status: status, Code: strconv.Itoa(status)}

	var p errorPayload
	if err := json.Unmarshal(body, &p); err != nil {
		ue.Message = http.StatusText(status)
		if txt := strings.TrimSpace(string(body)); txt != "" && len(txt) <= 512 {
			ue.Message = txt
		}
		return ue
	}

	var firstErr struct{ cod, msg string }
	if len(p.Errors) > 0 {
		firstErr.cod, firstErr.msg = p.Errors[0].Cod, p.Errors[0].Msg
	}
	ue.Message = firstNonEmpty(p.ErrorDescription, p.Msg, firstErr.msg, p.Message, p.Error, http.StatusText(status))
	ue.Code = firstNonEmpty(p.Cod, firstErr.cod, p.Error, ue.Code)
	return ue
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
