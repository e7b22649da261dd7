package entity

// Ticket identificador de la exportación asíncrona solicitada a SUNAT.
// Pertenece a una única ejecución; nunca se reutiliza entre periodos.
type Ticket struct {
	NumTicket  string
	CodCar     string
	FecProceso string
}

// StatusRecord registro devuelto por la consulta de estado del ticket.
type StatusRecord struct {
	NumTicket     string
	PerTributario string
	CodProceso    string
	DesProceso    string
	ReportFiles   []ReportFile
}

// ReportFile archivo de reporte asociado a un ticket.
type ReportFile struct {
	NomArchivoReporte   string
	NomArchivoContenido string
	CodEstado           string // "0" = procesando, "1" = terminado
	DesEstado           string
	NumRegistros        int
}

// DownloadParams parámetros de descarga del ZIP, derivados del último estado.
type DownloadParams struct {
	NomArchivoReporte     string
	CodTipoArchivoReporte string
	PerTributario         string
	CodProceso            string
	NumTicket             string
}
