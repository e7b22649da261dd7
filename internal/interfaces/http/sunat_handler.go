package http

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/sire-reportes/internal/application/dto"
	"github.com/jhoicas/sire-reportes/internal/application/report"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// reportObtainer lo implementa *report.Orchestrator.
type reportObtainer interface {
	ObtainReport(ctx context.Context, periodo string) (string, error)
}

// comprobanteObtainer lo implementa *report.ComprobanteService.
type comprobanteObtainer interface {
	ObtainComprobante(ctx context.Context, tipo, serie, numero string) (json.RawMessage, error)
}

// runLister lo implementa *postgres.RunRepo.
type runLister interface {
	ListByPeriod(ctx context.Context, periodo string, limit int) ([]*entity.Run, error)
}

// SunatHandler expone el reporte de propuesta RCE, la consulta de
// comprobantes y la bitácora de ejecuciones.
type SunatHandler struct {
	reports      reportObtainer
	comprobantes comprobanteObtainer
	runs         runLister
	log          *logger.Logger
}

// NewSunatHandler construye el handler. comprobantes y runs pueden ser nil.
func NewSunatHandler(reports reportObtainer, comprobantes comprobanteObtainer, runs runLister, log *logger.Logger) *SunatHandler {
	return &SunatHandler{reports: reports, comprobantes: comprobantes, runs: runs, log: log.Component("http-sunat")}
}

// GetFacturas godoc
// @Summary      Propuesta RCE del periodo
// @Description  Solicita la exportación TXT a SIRE, espera a que SUNAT la procese y devuelve el contenido del archivo.
// @Tags         sunat
// @Produce      json
// @Param        periodo  path      string  true  "Periodo tributario YYYYMM"  example(202512)
// @Success      200      {object}  dto.ReporteResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      401      {object}  dto.ErrorResponse
// @Failure      500      {object}  dto.ErrorResponse
// @Failure      502      {object}  dto.ErrorResponse
// @Failure      504      {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/sunat/facturas/{periodo} [get]
func (h *SunatHandler) GetFacturas(c *fiber.Ctx) error {
	periodo := c.Params("periodo")
	contenido, err := h.reports.ObtainReport(c.UserContext(), periodo)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.ReporteResponse{Success: true, Periodo: periodo, Contenido: contenido})
}

// GetComprobante godoc
// @Summary      XML/CDR de un comprobante
// @Description  Consulta en SEE el comprobante del RUC configurado y devuelve la respuesta de SUNAT.
// @Tags         sunat
// @Produce      json
// @Param        tipo    path      string  true  "Tipo de comprobante (01, 03, 07, 08)"  example(01)
// @Param        serie   path      string  true  "Serie"                                 example(F001)
// @Param        numero  path      string  true  "Número correlativo"                    example(123)
// @Success      200     {object}  dto.ComprobanteResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      401     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      502     {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/sunat/comprobantes/{tipo}/{serie}/{numero} [get]
func (h *SunatHandler) GetComprobante(c *fiber.Ctx) error {
	if h.comprobantes == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "COMPROBANTES_DISABLED", Message: "consulta de comprobantes no configurada"})
	}
	tipo, serie, numero := c.Params("tipo"), c.Params("serie"), c.Params("numero")
	data, err := h.comprobantes.ObtainComprobante(c.UserContext(), tipo, serie, numero)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(dto.ComprobanteResponse{Success: true, Tipo: tipo, Serie: serie, Numero: numero, Data: data})
}

// ListRuns godoc
// @Summary      Bitácora de ejecuciones del periodo
// @Tags         sunat
// @Produce      json
// @Param        periodo  path      string  true   "Periodo tributario YYYYMM"
// @Param        limit    query     int     false  "Máximo de ejecuciones (1-100)"
// @Success      200      {object}  dto.RunListResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Failure      503      {object}  dto.ErrorResponse
// @Security     BearerAuth
// @Router       /api/sunat/runs/{periodo} [get]
func (h *SunatHandler) ListRuns(c *fiber.Ctx) error {
	if h.runs == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "JOURNAL_DISABLED", Message: "bitácora deshabilitada: configure DATABASE_URL o DB_HOST"})
	}
	periodo := c.Params("periodo")
	if err := sire.ValidatePeriod(periodo); err != nil {
		return h.writeError(c, err)
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "limit inválido"})
	}
	page.DefaultPage()

	runs, err := h.runs.ListByPeriod(c.UserContext(), periodo, page.Limit)
	if err != nil {
		h.log.Error().Err(err).Str("periodo", periodo).Msg("listar bitácora")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo leer la bitácora"})
	}
	out := dto.RunListResponse{Periodo: periodo, Items: make([]dto.RunResponse, 0, len(runs))}
	for _, r := range runs {
		out.Items = append(out.Items, dto.ToRunResponse(r))
	}
	return c.JSON(out)
}

// writeError traduce la clase de error del flujo a status HTTP.
func (h *SunatHandler) writeError(c *fiber.Ctx, err error) error {
	status, code := statusFor(report.ErrorKind(err))
	if status >= fiber.StatusInternalServerError {
		h.log.Error().Err(err).Int("status", status).Str("path", c.Path()).Msg("error en endpoint SUNAT")
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func statusFor(kind string) (int, string) {
	switch kind {
	case report.KindValidation:
		return fiber.StatusBadRequest, "VALIDATION"
	case report.KindConfiguration:
		return fiber.StatusInternalServerError, "CONFIGURATION"
	case report.KindAuthentication:
		return fiber.StatusUnauthorized, "SUNAT_AUTH"
	case report.KindGateway:
		return fiber.StatusBadGateway, "SUNAT_GATEWAY"
	case report.KindTimeout:
		return fiber.StatusGatewayTimeout, "SUNAT_TIMEOUT"
	case report.KindExtraction:
		return fiber.StatusBadGateway, "SUNAT_EXTRACTION"
	case report.KindNotFound:
		return fiber.StatusNotFound, "SUNAT_NOT_FOUND"
	case report.KindCanceled:
		return fiber.StatusRequestTimeout, "CANCELED"
	default:
		return fiber.StatusInternalServerError, "INTERNAL"
	}
}
