package entity

import "time"

// Credential token OAuth2 vigente de SUNAT. Solo vive en memoria del proceso.
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time // Ya descuenta el margen de seguridad
}

// ValidAt indica si el token sigue vigente en el instante now.
func (c Credential) ValidAt(now time.Time) bool {
	return c.AccessToken != "" && now.Before(c.ExpiresAt)
}
