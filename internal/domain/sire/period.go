// Package sire contiene las reglas de dominio del Sistema Integrado de Registros
// Electrónicos (SIRE) de SUNAT (Perú): formato de periodo tributario, códigos
// fijos de exportación y el estado terminal de los tickets.
package sire

import (
	"fmt"
	"regexp"

	"github.com/jhoicas/sire-reportes/internal/domain"
)

// Códigos fijos de la API SIRE para la propuesta del RCE.
const (
	CodTipoArchivoTXT     = "0" // 0 = TXT, 1 = CSV
	CodOrigenEnvio        = "2"
	CodTipoArchivoReporte = "00"
	CodProcesoExportacion = "10"

	// EstadoTerminado es el codEstado del archivo de reporte listo para descargar.
	EstadoTerminado = "1"

	// ExtensionReporte es la extensión de la entrada útil dentro del ZIP.
	ExtensionReporte = ".txt"
)

var periodoRe = regexp.MustCompile(`^\d{6}$`)

// ValidatePeriod comprueba que el periodo tenga formato YYYYMM (ej: "202512").
func ValidatePeriod(periodo string) error {
	if !periodoRe.MatchString(periodo) {
		return fmt.Errorf("%w: el periodo debe tener formato YYYYMM (ej: 202512), recibido %q", domain.ErrValidation, periodo)
	}
	return nil
}
