package dto

import (
	"encoding/json"
	"time"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
)

// ReporteResponse contenido del TXT de la propuesta RCE.
type ReporteResponse struct {
	Success   bool   `json:"success"`
	Periodo   string `json:"periodo"`
	Contenido string `json:"contenido"`
}

// ComprobanteResponse respuesta de SEE para un comprobante (XML/CDR).
type ComprobanteResponse struct {
	Success bool            `json:"success"`
	Tipo    string          `json:"tipo"`
	Serie   string          `json:"serie"`
	Numero  string          `json:"numero"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
}

// RunResponse una ejecución de la bitácora.
type RunResponse struct {
	ID           string     `json:"id"`
	Periodo      string     `json:"periodo"`
	NumTicket    string     `json:"num_ticket,omitempty"`
	Status       string     `json:"status"`
	ErrorKind    string     `json:"error_kind,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	Bytes        int        `json:"bytes"`
	Chars        int        `json:"chars"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
}

// RunListResponse listado de ejecuciones de un periodo.
type RunListResponse struct {
	Periodo string        `json:"periodo"`
	Items   []RunResponse `json:"items"`
}

// ToRunResponse convierte la entidad al DTO.
func ToRunResponse(r *entity.Run) RunResponse {
	return RunResponse{
		ID:           r.ID,
		Periodo:      r.Periodo,
		NumTicket:    r.NumTicket,
		Status:       r.Status,
		ErrorKind:    r.ErrorKind,
		ErrorMessage: r.ErrorMessage,
		Bytes:        r.Bytes,
		Chars:        r.Chars,
		StartedAt:    r.StartedAt,
		FinishedAt:   r.FinishedAt,
	}
}
