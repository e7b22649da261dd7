package sunat_test

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jhoicas/sire-reportes/pkg/config"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// fakeSUNAT levanta un servidor que emula los endpoints de seguridad y SIRE.
// Cada handler es opcional; los no definidos responden 500.
type fakeSUNAT struct {
	srv *httptest.Server

	auth        http.HandlerFunc
	export      http.HandlerFunc
	status      http.HandlerFunc
	download    http.HandlerFunc
	comprobante http.HandlerFunc

	authCalls        atomic.Int32
	exportCalls      atomic.Int32
	statusCalls      atomic.Int32
	downloadCalls    atomic.Int32
	comprobanteCalls atomic.Int32
}

func newFakeSUNAT(t *testing.T) *fakeSUNAT {
	t.Helper()
	f := &fakeSUNAT{}
	mux := http.NewServeMux()
	mux.HandleFunc("/seguridad/cid/oauth2/token/", func(w http.ResponseWriter, r *http.Request) {
		f.authCalls.Add(1)
		f.serve(f.auth, w, r)
	})
	mux.HandleFunc("/sire/rce/propuesta/web/propuesta/", func(w http.ResponseWriter, r *http.Request) {
		f.exportCalls.Add(1)
		f.serve(f.export, w, r)
	})
	mux.HandleFunc("/sire/rvierce/gestionprocesosmasivos/web/masivo/consultaestadotickets", func(w http.ResponseWriter, r *http.Request) {
		f.statusCalls.Add(1)
		f.serve(f.status, w, r)
	})
	mux.HandleFunc("/sire/rvierce/gestionprocesosmasivos/web/masivo/archivoreporte", func(w http.ResponseWriter, r *http.Request) {
		f.downloadCalls.Add(1)
		f.serve(f.download, w, r)
	})
	mux.HandleFunc("/see/comprobantes/", func(w http.ResponseWriter, r *http.Request) {
		f.comprobanteCalls.Add(1)
		f.serve(f.comprobante, w, r)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSUNAT) serve(h http.HandlerFunc, w http.ResponseWriter, r *http.Request) {
	if h == nil {
		http.Error(w, "handler no definido", http.StatusInternalServerError)
		return
	}
	h(w, r)
}

// cfg devuelve una configuración completa apuntando al servidor falso,
// con un intervalo de polling corto.
func (f *fakeSUNAT) cfg() config.SUNATConfig {
	return config.SUNATConfig{
		ClientID:        "cid",
		ClientSecret:    "csecret",
		RUC:             "20123456789",
		UsuarioSol:      "MODDATOS",
		ClaveSol:        "moddatos",
		AuthBaseURL:     f.srv.URL + "/seguridad",
		SireBaseURL:     f.srv.URL + "/sire",
		SeeBaseURL:      f.srv.URL + "/see",
		HTTPTimeout:     2 * time.Second,
		PollInterval:    time.Millisecond,
		PollMaxAttempts: 60,
	}
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// statusJSON arma la respuesta de consultaestadotickets con un registro y un archivo.
func statusJSON(codEstado, nomArchivo string) string {
	return `{"perIni":"202512","perFin":"202512","numPagina":1,"numRegistro":1,"registros":[{` +
		`"numTicket":"555","perTributario":"202512","codProceso":"10","desProceso":"Exportar propuesta",` +
		`"archivoReporte":[{"nomArchivoReporte":"` + nomArchivo + `","nomArchivoContenido":"RCE_202512.txt",` +
		`"codEstado":"` + codEstado + `","desEstado":"x","numRegistros":"3"}]}]}`
}
