package sunat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/entity"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
	"github.com/jhoicas/sire-reportes/pkg/config"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

const (
	defaultPollInterval    = 3 * time.Second
	defaultPollMaxAttempts = 60 // ~3 minutos
)

// statusQuerier es lo que Poller necesita del Client.
type statusQuerier interface {
	QueryStatus(ctx context.Context, token, numTicket, periodo string) ([]entity.StatusRecord, error)
}

// Poller consulta el estado de un ticket hasta que su archivo esté terminado.
type Poller struct {
	client      statusQuerier
	interval    time.Duration
	maxAttempts int
	log         *logger.Logger
}

// NewPoller construye el poller con el intervalo y número máximo de intentos
// de la configuración (3 s y 60 por defecto).
func NewPoller(client statusQuerier, cfg config.SUNATConfig, log *logger.Logger) *Poller {
	p := &Poller{
		client:      client,
		interval:    cfg.PollInterval,
		maxAttempts: cfg.PollMaxAttempts,
		log:         log.Component("sunat-poller"),
	}
	if p.interval <= 0 {
		p.interval = defaultPollInterval
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = defaultPollMaxAttempts
	}
	return p
}

// PollUntilReady consulta el estado del ticket hasta que el primer archivo del
// primer registro tenga codEstado "1".
//
// Sin registros o con HTTP 404 el ticket aún no es visible en SUNAT: se cuenta
// el intento y se sigue esperando. Cualquier otro error se devuelve de
// inmediato. Agotar los intentos devuelve ErrTimeout.
func (p *Poller) PollUntilReady(ctx context.Context, token, numTicket, periodo string) (entity.ReportFile, error) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := p.wait(ctx); err != nil {
				return entity.ReportFile{}, fmt.Errorf("sunat: polling del ticket %s interrumpido en el intento %d: %w", numTicket, attempt, err)
			}
		}

		records, err := p.client.QueryStatus(ctx, token, numTicket, periodo)
		if err != nil {
			var ue *UpstreamError
			if errors.As(err, &ue) && ue.NotFound() {
				p.log.Debug().Int("intento", attempt).Str("ticket", numTicket).Msg("ticket aún no visible (404)")
				continue
			}
			return entity.ReportFile{}, err
		}

		file, ok := firstReportFile(records)
		if !ok {
			p.log.Debug().Int("intento", attempt).Str("ticket", numTicket).Msg("sin registros para el ticket")
			continue
		}
		if file.CodEstado == sire.EstadoTerminado {
			p.log.Info().Int("intento", attempt).Str("ticket", numTicket).Msg("proceso terminado")
			return file, nil
		}
		p.log.Debug().
			Int("intento", attempt).
			Int("max", p.maxAttempts).
			Str("estado", file.CodEstado).
			Msg("proceso en curso, esperando")
	}

	return entity.ReportFile{}, fmt.Errorf("%w: ticket %s del periodo %s sin terminar tras %d consultas (intervalo %s)",
		domain.ErrTimeout, numTicket, periodo, p.maxAttempts, p.interval)
}

// wait espera el intervalo o hasta que se cancele el contexto.
func (p *Poller) wait(ctx context.Context) error {
	timer := time.NewTimer(p.interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// firstReportFile solo mira el primer registro y su primer archivo.
func firstReportFile(records []entity.StatusRecord) (entity.ReportFile, bool) {
	if len(records) == 0 || len(records[0].ReportFiles) == 0 {
		return entity.ReportFile{}, false
	}
	return records[0].ReportFiles[0], true
}
