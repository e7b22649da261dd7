package report

import (
	"context"
	"encoding/json"

	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// ComprobanteDeps dependencias de ComprobanteService. Tokens debe ser la
// misma cache que usa el orquestador.
type ComprobanteDeps struct {
	Config  ConfigValidator
	RUC     string
	Tokens  TokenProvider
	Fetcher ComprobanteFetcher
	Log     *logger.Logger
}

// ComprobanteService consulta el XML/CDR de un comprobante del RUC configurado.
type ComprobanteService struct {
	deps ComprobanteDeps
	log  *logger.Logger
}

// NewComprobanteService construye el servicio.
func NewComprobanteService(deps ComprobanteDeps) *ComprobanteService {
	return &ComprobanteService{deps: deps, log: deps.Log.Component("comprobante")}
}

// ObtainComprobante devuelve la respuesta de SUNAT como JSON. Si SUNAT no
// responde JSON, el cuerpo se devuelve como string JSON.
func (s *ComprobanteService) ObtainComprobante(ctx context.Context, tipo, serie, numero string) (json.RawMessage, error) {
	ref, err := sire.NewComprobanteRef(s.deps.RUC, tipo, serie, numero)
	if err != nil {
		return nil, err
	}
	if s.deps.Config != nil {
		if err := s.deps.Config.Validate(); err != nil {
			return nil, err
		}
	}

	cred, err := s.deps.Tokens.AccessToken(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := s.deps.Fetcher.FetchComprobante(ctx, cred.AccessToken, ref)
	if err != nil {
		s.log.Error().Err(err).Str("comprobante", ref.ID()).Str("tipo", ErrorKind(err)).Msg("error al obtener comprobante")
		return nil, err
	}
	s.log.Info().Str("comprobante", ref.ID()).Int("bytes", len(raw)).Msg("comprobante obtenido")

	if json.Valid(raw) {
		return raw, nil
	}
	return json.Marshal(string(raw))
}
