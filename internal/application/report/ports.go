package report

import (
	"context"

	"github.com/jhoicas/sire-reportes/internal/domain/entity"
)

// TokenProvider entrega un token SUNAT vigente (cache + renovación).
type TokenProvider interface {
	AccessToken(ctx context.Context) (entity.Credential, error)
}

// ExportRequester solicita la exportación del periodo y devuelve el ticket.
type ExportRequester interface {
	RequestExport(ctx context.Context, token, periodo string) (entity.Ticket, error)
}

// StatusPoller espera a que el archivo del ticket esté terminado.
type StatusPoller interface {
	PollUntilReady(ctx context.Context, token, numTicket, periodo string) (entity.ReportFile, error)
}

// ArchiveFetcher descarga el ZIP del reporte.
type ArchiveFetcher interface {
	DownloadArchive(ctx context.Context, token string, params entity.DownloadParams) ([]byte, error)
}

// ComprobanteFetcher consulta un comprobante electrónico (XML/CDR) en SEE.
type ComprobanteFetcher interface {
	FetchComprobante(ctx context.Context, token string, ref entity.ComprobanteRef) ([]byte, error)
}

// ArchiveExtractor extrae el texto del reporte del ZIP.
type ArchiveExtractor func(data []byte) (string, error)

// ConfigValidator valida la configuración SUNAT antes de cualquier I/O.
// Lo implementa config.SUNATConfig.
type ConfigValidator interface {
	Validate() error
}

// RunRecorder registra la bitácora de ejecuciones. Opcional.
type RunRecorder interface {
	Start(ctx context.Context, run *entity.Run) error
	Finish(ctx context.Context, run *entity.Run) error
}
