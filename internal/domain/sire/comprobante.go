package sire

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
)

var (
	tipoComprobanteRe = regexp.MustCompile(`^\d{2}$`)
	serieRe           = regexp.MustCompile(`^[A-Z0-9]{4}$`)
	numeroRe          = regexp.MustCompile(`^\d{1,8}$`)
)

// NewComprobanteRef normaliza (serie en mayúsculas, sin espacios) y valida la
// referencia. Devuelve ErrValidation si algún campo no tiene el formato SUNAT.
func NewComprobanteRef(ruc, tipo, serie, numero string) (entity.ComprobanteRef, error) {
	ref := entity.ComprobanteRef{
		RUC:    strings.TrimSpace(ruc),
		Tipo:   strings.TrimSpace(tipo),
		Serie:  strings.ToUpper(strings.TrimSpace(serie)),
		Numero: strings.TrimSpace(numero),
	}
	switch {
	case !tipoComprobanteRe.MatchString(ref.Tipo):
		return ref, fmt.Errorf("%w: tipo de comprobante de 2 dígitos (ej: 01), recibido %q", domain.ErrValidation, tipo)
	case !serieRe.MatchString(ref.Serie):
		return ref, fmt.Errorf("%w: la serie debe tener 4 caracteres alfanuméricos (ej: F001), recibido %q", domain.ErrValidation, serie)
	case !numeroRe.MatchString(ref.Numero):
		return ref, fmt.Errorf("%w: el número debe tener entre 1 y 8 dígitos, recibido %q", domain.ErrValidation, numero)
	}
	return ref, nil
}
