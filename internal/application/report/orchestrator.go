// Package report orquesta la obtención del reporte de propuesta RCE desde SIRE.
package report

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

const recorderTimeout = 5 * time.Second

// Deps dependencias del orquestador. Recorder puede ser nil.
type Deps struct {
	Config    ConfigValidator
	Tokens    TokenProvider
	Exporter  ExportRequester
	Poller    StatusPoller
	Fetcher   ArchiveFetcher
	Extractor ArchiveExtractor
	Recorder  RunRecorder
	Log       *logger.Logger
}

// Orchestrator ejecuta el flujo completo:
//
//	Token → Ticket → Polling → Descarga ZIP → Extracción TXT
//
// No reintenta ni reclasifica: cada paso ya devuelve su clase de error.
// Cada ejecución pide su propio ticket.
type Orchestrator struct {
	deps Deps
	log  *logger.Logger
	now  func() time.Time
}

// NewOrchestrator construye el orquestador.
func NewOrchestrator(deps Deps) *Orchestrator {
	return &Orchestrator{
		deps: deps,
		log:  deps.Log.Component("report"),
		now:  time.Now,
	}
}

// ObtainReport devuelve el contenido del TXT de la propuesta RCE del periodo.
func (o *Orchestrator) ObtainReport(ctx context.Context, periodo string) (string, error) {
	// Validaciones locales: ninguna llamada de red si fallan.
	if err := sire.ValidatePeriod(periodo); err != nil {
		return "", err
	}
	if o.deps.Config != nil {
		if err := o.deps.Config.Validate(); err != nil {
			return "", err
		}
	}

	log := o.log.With().Str("periodo", periodo).Logger()
	log.Info().Msg("iniciando flujo de obtención de reporte")

	run := &entity.Run{
		ID:        uuid.New().String(),
		Periodo:   periodo,
		Status:    entity.RunStatusRunning,
		StartedAt: o.now(),
	}
	o.recordStart(ctx, run)

	contenido, err := o.obtain(ctx, run, periodo)

	finished := o.now()
	run.FinishedAt = &finished
	if err != nil {
		run.Status = entity.RunStatusFailed
		run.ErrorKind = ErrorKind(err)
		run.ErrorMessage = err.Error()
		log.Error().Err(err).Str("ticket", run.NumTicket).Str("tipo", run.ErrorKind).Msg("error en flujo de obtención de reporte")
	} else {
		run.Status = entity.RunStatusCompleted
	}
	o.recordFinish(ctx, run)

	return contenido, err
}

func (o *Orchestrator) obtain(ctx context.Context, run *entity.Run, periodo string) (string, error) {
	log := o.log.With().Str("periodo", periodo).Str("run_id", run.ID).Logger()

	// 1. Autenticación
	cred, err := o.deps.Tokens.AccessToken(ctx)
	if err != nil {
		return "", err
	}
	log.Info().Msg("autenticación exitosa")

	// 2. Solicitar exportación
	ticket, err := o.deps.Exporter.RequestExport(ctx, cred.AccessToken, periodo)
	if err != nil {
		return "", err
	}
	run.NumTicket = ticket.NumTicket
	log.Info().Str("ticket", ticket.NumTicket).Msg("ticket obtenido")

	// 3. Polling de estado
	file, err := o.deps.Poller.PollUntilReady(ctx, cred.AccessToken, ticket.NumTicket, periodo)
	if err != nil {
		return "", fmt.Errorf("periodo %s: %w", periodo, err)
	}
	log.Info().Str("ticket", ticket.NumTicket).Str("archivo", file.NomArchivoReporte).Msg("archivo listo")

	// 4. Descargar ZIP
	archive, err := o.deps.Fetcher.DownloadArchive(ctx, cred.AccessToken, entity.DownloadParams{
		NomArchivoReporte:     file.NomArchivoReporte,
		CodTipoArchivoReporte: sire.CodTipoArchivoReporte,
		PerTributario:         periodo,
		CodProceso:            sire.CodProcesoExportacion,
		NumTicket:             ticket.NumTicket,
	})
	if err != nil {
		return "", err
	}
	run.Bytes = len(archive)
	log.Info().Int("bytes", len(archive)).Msg("ZIP descargado")

	// 5. Descomprimir y extraer TXT
	contenido, err := o.deps.Extractor(archive)
	if err != nil {
		return "", fmt.Errorf("ticket %s: %w", ticket.NumTicket, err)
	}
	run.Chars = utf8.RuneCountInString(contenido)
	log.Info().Int("caracteres", run.Chars).Msg("contenido extraído")

	return contenido, nil
}

// recordStart / recordFinish: la bitácora nunca altera el resultado del flujo.
func (o *Orchestrator) recordStart(ctx context.Context, run *entity.Run) {
	if o.deps.Recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recorderTimeout)
	defer cancel()
	if err := o.deps.Recorder.Start(rctx, run); err != nil {
		o.log.Warn().Err(err).Str("run_id", run.ID).Msg("no se pudo registrar inicio de ejecución")
	}
}

func (o *Orchestrator) recordFinish(ctx context.Context, run *entity.Run) {
	if o.deps.Recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recorderTimeout)
	defer cancel()
	if err := o.deps.Recorder.Finish(rctx, run); err != nil {
		o.log.Warn().Err(err).Str("run_id", run.ID).Msg("no se pudo registrar fin de ejecución")
	}
}
