package report

import (
	"context"
	"errors"

	"github.com/jhoicas/sire-reportes/internal/domain"
)

// Etiquetas estables de error (bitácora y respuesta HTTP).
const (
	KindValidation     = "VALIDATION"
	KindConfiguration  = "CONFIGURATION"
	KindAuthentication = "AUTHENTICATION"
	KindGateway        = "GATEWAY"
	KindTimeout        = "TIMEOUT"
	KindExtraction     = "EXTRACTION"
	KindNotFound       = "NOT_FOUND"
	KindCanceled       = "CANCELED"
	KindInternal       = "INTERNAL"
)

// ErrorKind clasifica un error del flujo. Las clases de dominio tienen
// prioridad sobre la cancelación: un timeout HTTP sigue siendo GATEWAY.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrValidation):
		return KindValidation
	case errors.Is(err, domain.ErrConfiguration):
		return KindConfiguration
	case errors.Is(err, domain.ErrAuthentication):
		return KindAuthentication
	case errors.Is(err, domain.ErrGateway):
		return KindGateway
	case errors.Is(err, domain.ErrTimeout):
		return KindTimeout
	case errors.Is(err, domain.ErrExtraction):
		return KindExtraction
	case errors.Is(err, domain.ErrNotFound):
		return KindNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindInternal
	}
}
