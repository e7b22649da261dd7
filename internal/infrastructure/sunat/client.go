package sunat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	"github.com/jhoicas/sire-reportes/pkg/config"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

const (
	sireScope = "https://api-sire.sunat.gob.pe"

	pathExportacion = "/rce/propuesta/web/propuesta/%s/exportacioncomprobantepropuesta"
	pathEstado      = "/rvierce/gestionprocesosmasivos/web/masivo/consultaestadotickets"
	pathDescarga    = "/rvierce/gestionprocesosmasivos/web/masivo/archivoreporte"

	pathComprobante = "/comprobantes/%s"

	maxJSONBody    = 1 << 20  // 1 MB
	maxArchiveBody = 64 << 20 // 64 MB

	defaultHTTPTimeout = 30 * time.Second
)

// Client cliente HTTP de la API SIRE. No guarda estado entre llamadas;
// el token lo administra TokenCache.
type Client struct {
	httpClient  *http.Client
	authBaseURL string
	sireBaseURL string
	seeBaseURL  string
	timeout     time.Duration
	log         *logger.Logger
}

// NewClient construye el cliente. Cada llamada se corta a los cfg.HTTPTimeout
// (30 s por defecto); un timeout de red se reporta como ErrGateway.
func NewClient(cfg config.SUNATConfig, log *logger.Logger) *Client {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultHTTPTimeout
	}
	return &Client{
		httpClient: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return errors.New("demasiadas redirecciones")
				}
				return nil
			},
		},
		authBaseURL: strings.TrimRight(cfg.AuthBaseURL, "/"),
		sireBaseURL: strings.TrimRight(cfg.SireBaseURL, "/"),
		seeBaseURL:  strings.TrimRight(cfg.SeeBaseURL, "/"),
		timeout:     timeout,
		log:         log.Component("sunat"),
	}
}

// ── Paso 1: autenticación OAuth2 ─────────────────────────────────────────────

// Authenticate intercambia las credenciales SOL por un access_token.
// Devuelve el token y su vigencia según SUNAT (sin descontar margen).
func (c *Client) Authenticate(ctx context.Context, cfg config.SUNATConfig) (string, time.Duration, error) {
	endpoint := fmt.Sprintf("%s/%s/oauth2/token/", c.authBaseURL, url.PathEscape(cfg.ClientID))

	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("scope", sireScope)
	form.Set("client_id", cfg.ClientID)
	form.Set("client_secret", cfg.ClientSecret)
	form.Set("username", cfg.RUC+cfg.UsuarioSol)
	form.Set("password", cfg.ClaveSol)

	header := http.Header{}
	header.Set("Content-Type", "application/x-www-form-urlencoded")

	raw, err := c.do(ctx, http.MethodPost, endpoint, nil, header, strings.NewReader(form.Encode()), maxJSONBody)
	if err != nil {
		c.log.Error().Err(err).Msg("error de autenticación SUNAT")
		// Solo es rechazo de credenciales si SUNAT respondió.
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return "", 0, fmt.Errorf("%w: %w", domain.ErrAuthentication, ue)
		}
		return "", 0, wrapGateway(ctx, err, "autenticación")
	}

	var resp authResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", 0, fmt.Errorf("%w: respuesta de token ilegible: %v", domain.ErrAuthentication, err)
	}
	if resp.AccessToken == "" {
		return "", 0, fmt.Errorf("%w: SUNAT no devolvió access_token", domain.ErrAuthentication)
	}
	return resp.AccessToken, time.Duration(resp.ExpiresIn) * time.Second, nil
}

// ── Paso 2: solicitar exportación ─────────────────────────────────────────────

// RequestExport solicita la exportación TXT de la propuesta RCE del periodo.
func (c *Client) RequestExport(ctx context.Context, token, periodo string) (entity.Ticket, error) {
	endpoint := c.sireBaseURL + fmt.Sprintf(pathExportacion, url.PathEscape(periodo))
	query := url.Values{}
	query.Set("codTipoArchivo", sire.CodTipoArchivoTXT)
	query.Set("codOrigenEnvio", sire.CodOrigenEnvio)

	raw, err := c.do(ctx, http.MethodGet, endpoint, query, bearer(token), nil, maxJSONBody)
	if err != nil {
		c.log.Error().Err(err).Str("periodo", periodo).Msg("error al solicitar ticket")
		return entity.Ticket{}, wrapGateway(ctx, err, "solicitar exportación del periodo %s", periodo)
	}

	var resp ticketResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entity.Ticket{}, fmt.Errorf("%w: solicitar exportación del periodo %s: respuesta ilegible: %v", domain.ErrGateway, periodo, err)
	}
	if strings.TrimSpace(resp.NumTicket) == "" {
		return entity.Ticket{}, fmt.Errorf("%w: SUNAT no devolvió numTicket para el periodo %s", domain.ErrGateway, periodo)
	}
	return entity.Ticket{NumTicket: resp.NumTicket, CodCar: resp.CodCar, FecProceso: resp.FecProceso}, nil
}

// ── Paso 3: consultar estado ──────────────────────────────────────────────────

// QueryStatus consulta el estado del ticket. Un 404 se devuelve como
// ErrGateway envolviendo un *UpstreamError con NotFound() == true; el Poller
// decide si es transitorio.
func (c *Client) QueryStatus(ctx context.Context, token, numTicket, periodo string) ([]entity.StatusRecord, error) {
	query := url.Values{}
	query.Set("perIni", periodo)
	query.Set("perFin", periodo)
	query.Set("page", "1")
	query.Set("perPage", "20")
	query.Set("numTicket", numTicket)

	raw, err := c.do(ctx, http.MethodGet, c.sireBaseURL+pathEstado, query, bearer(token), nil, maxJSONBody)
	if err != nil {
		return nil, wrapGateway(ctx, err, "consultar estado del ticket %s", numTicket)
	}

	var resp statusResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: consultar estado del ticket %s: respuesta ilegible: %v", domain.ErrGateway, numTicket, err)
	}
	records := make([]entity.StatusRecord, 0, len(resp.Registros))
	for _, r := range resp.Registros {
		records = append(records, r.toEntity())
	}
	return records, nil
}

// ── Paso 4: descargar ZIP ─────────────────────────────────────────────────────

// DownloadArchive descarga el archivo del reporte como bytes sin decodificar.
func (c *Client) DownloadArchive(ctx context.Context, token string, p entity.DownloadParams) ([]byte, error) {
	query := url.Values{}
	query.Set("nomArchivoReporte", p.NomArchivoReporte)
	query.Set("codTipoArchivoReporte", p.CodTipoArchivoReporte)
	query.Set("perTributario", p.PerTributario)
	query.Set("codProceso", p.CodProceso)
	query.Set("numTicket", p.NumTicket)

	raw, err := c.do(ctx, http.MethodGet, c.sireBaseURL+pathDescarga, query, bearer(token), nil, maxArchiveBody)
	if err != nil {
		c.log.Error().Err(err).Str("ticket", p.NumTicket).Msg("error al descargar archivo")
		return nil, wrapGateway(ctx, err, "descargar %s (ticket %s)", p.NomArchivoReporte, p.NumTicket)
	}
	return raw, nil
}

// ── Comprobante electrónico (XML/CDR) ─────────────────────────────────────────

// FetchComprobante consulta un comprobante emitido en SEE con el mismo token
// de SIRE. Devuelve el cuerpo tal cual lo entrega SUNAT (XML en base64 o
// enlace, según el comprobante). Un 404 se reporta como ErrNotFound.
func (c *Client) FetchComprobante(ctx context.Context, token string, ref entity.ComprobanteRef) ([]byte, error) {
	endpoint := c.seeBaseURL + fmt.Sprintf(pathComprobante, url.PathEscape(ref.ID()))

	raw, err := c.do(ctx, http.MethodGet, endpoint, nil, bearer(token), nil, maxArchiveBody)
	if err != nil {
		var ue *UpstreamError
		if errors.As(err, &ue) && ue.NotFound() {
			return nil, fmt.Errorf("%w: comprobante %s: %w", domain.ErrNotFound, ref.ID(), ue)
		}
		c.log.Error().Err(err).Str("comprobante", ref.ID()).Msg("error al consultar comprobante")
		return nil, wrapGateway(ctx, err, "consultar comprobante %s", ref.ID())
	}
	return raw, nil
}

// ── HTTP ──────────────────────────────────────────────────────────────────────

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	h.Set("Accept", "application/json")
	return h
}

// wrapGateway clasifica err como ErrGateway. Si el llamador canceló, se
// devuelve la causa del contexto sin clase de dominio (queda como CANCELED).
func wrapGateway(ctx context.Context, err error, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	if ctx.Err() != nil {
		return fmt.Errorf("sunat: %s: %w", msg, context.Cause(ctx))
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrGateway, msg, err)
}

// do ejecuta la petición con el timeout por llamada y devuelve el cuerpo.
// Respuestas no 2xx se devuelven como *UpstreamError.
func (c *Client) do(parent context.Context, method, endpoint string, query url.Values, header http.Header, body io.Reader, limit int64) ([]byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("crear request: %w", err)
	}
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if parent.Err() != nil {
			return nil, fmt.Errorf("cancelado: %w", parent.Err())
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("timeout de %s: %w", c.timeout, ctx.Err())
		}
		return nil, fmt.Errorf("llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("leer respuesta: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("respuesta excede %d bytes", limit)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseUpstreamError(resp.StatusCode, raw)
	}
	return raw, nil
}
