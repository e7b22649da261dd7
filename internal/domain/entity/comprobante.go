package entity

import "strings"

// ComprobanteRef identifica un comprobante electrónico emitido en SEE.
type ComprobanteRef struct {
	RUC    string
	Tipo   string // 01 factura, 03 boleta, 07 nota de crédito, 08 nota de débito
	Serie  string
	Numero string
}

// ID devuelve el identificador SUNAT: {ruc}-{tipo}-{serie}-{numero}.
func (r ComprobanteRef) ID() string {
	return strings.Join([]string{r.RUC, r.Tipo, r.Serie, r.Numero}, "-")
}
