package dto

// PageRequest paginación para listados.
type PageRequest struct {
	Limit int `query:"limit"`
}

// DefaultPage aplica valores por defecto si Limit es cero o fuera de rango.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 {
		p.Limit = 20
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
}

// ErrorResponse cuerpo de error HTTP.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
