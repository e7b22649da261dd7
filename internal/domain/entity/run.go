package entity

import "time"

// Estados de una ejecución del flujo SIRE.
const (
	RunStatusRunning   = "EN_PROCESO"
	RunStatusCompleted = "COMPLETADO"
	RunStatusFailed    = "FALLIDO"
)

// Run bitácora de una ejecución de ObtainReport (ticket, resultado, tamaños).
type Run struct {
	ID           string
	Periodo      string
	NumTicket    string
	Status       string
	ErrorKind    string
	ErrorMessage string
	Bytes        int
	Chars        int
	StartedAt    time.Time
	FinishedAt   *time.Time
}
