// sire descarga la propuesta RCE de un periodo sin levantar el servidor HTTP.
//
// Uso:
//
//	sire obtener 202512 [--out RCE_202512.txt] [--zip]
//	sire extraer RCE_202512.zip [--out RCE_202512.txt]
//	sire comprobante 01 F001 123
//	sire token --usuario ana [--rol contador]
//
// El resultado va a stdout (o a --out); los logs van a stderr.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/sire-reportes/internal/application/report"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/archive"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/postgres"
	"github.com/jhoicas/sire-reportes/internal/infrastructure/sunat"
	"github.com/jhoicas/sire-reportes/pkg/config"
	"github.com/jhoicas/sire-reportes/pkg/jwt"
	"github.com/jhoicas/sire-reportes/pkg/logger"
)

// Códigos de salida por clase de error. Argumentos inválidos salen con 2.
var exitCodes = map[string]int{
	report.KindValidation:     2,
	report.KindConfiguration:  3,
	report.KindAuthentication: 4,
	report.KindGateway:        5,
	report.KindTimeout:        6,
	report.KindExtraction:     7,
	report.KindNotFound:       8,
	report.KindCanceled:       130,
}

// exitError lleva el código de salida desde RunE hasta run.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if args == nil {
		// cobra usa os.Args si SetArgs recibe nil
		args = []string{}
	}
	root := rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintln(stderr, "Error:", err)
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return 2
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sire",
		Short: "Propuesta RCE y comprobantes desde la API SIRE de SUNAT",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("indique un subcomando: obtener, extraer, comprobante o token (sire --help)")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(obtenerCmd())
	root.AddCommand(extraerCmd())
	root.AddCommand(comprobanteCmd())
	root.AddCommand(tokenCmd())
	return root
}

func obtenerCmd() *cobra.Command {
	var out string
	var zip bool
	cmd := &cobra.Command{
		Use:   "obtener <periodo>",
		Short: "Descarga la propuesta RCE del periodo (YYYYMM)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			periodo := args[0]
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			orchestrator, cleanup := buildOrchestrator(cmd.Context(), cfg, log)
			defer cleanup()

			start := time.Now()
			contenido, err := orchestrator.ObtainReport(cmd.Context(), periodo)
			if err != nil {
				return fail(err)
			}
			log.Info().Dur("duracion", time.Since(start)).Msg("reporte obtenido")

			data := []byte(contenido)
			if zip {
				data, err = archive.CompressText(fmt.Sprintf("RCE_%s.txt", periodo), contenido)
				if err != nil {
					return &exitError{code: 1, err: err}
				}
			}
			return write(cmd, out, data)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo de salida (por defecto stdout)")
	cmd.Flags().BoolVar(&zip, "zip", false, "escribir el reporte comprimido en ZIP")
	return cmd
}

func extraerCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "extraer <zip>",
		Short: "Extrae el TXT de un ZIP descargado de SUNAT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return &exitError{code: 1, err: fmt.Errorf("leer %s: %w", args[0], err)}
			}
			contenido, err := archive.ExtractReport(data)
			if err != nil {
				return fail(err)
			}
			return write(cmd, out, []byte(contenido))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo de salida (por defecto stdout)")
	return cmd
}

func comprobanteCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "comprobante <tipo> <serie> <numero>",
		Short: "Consulta el XML/CDR de un comprobante del RUC configurado",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd)
			if err != nil {
				return err
			}
			client := sunat.NewClient(cfg.SUNAT, log)
			svc := report.NewComprobanteService(report.ComprobanteDeps{
				Config:  cfg.SUNAT,
				RUC:     cfg.SUNAT.RUC,
				Tokens:  sunat.NewTokenCache(client, cfg.SUNAT, log),
				Fetcher: client,
				Log:     log,
			})
			data, err := svc.ObtainComprobante(cmd.Context(), args[0], args[1], args[2])
			if err != nil {
				return fail(err)
			}
			return write(cmd, out, append(data, '\n'))
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "archivo de salida (por defecto stdout)")
	return cmd
}

func tokenCmd() *cobra.Command {
	var usuario, rol string
	var minutos int
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Emite un JWT para consumir la API HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(cmd)
			if err != nil {
				return err
			}
			tok, err := jwt.Generate(cfg.JWT.Secret, usuario, cfg.SUNAT.RUC, rol, cfg.JWT.Issuer, minutos)
			if err != nil {
				return &exitError{code: 3, err: fmt.Errorf("generar token: %w", err)}
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVarP(&usuario, "usuario", "u", "", "operador al que se emite el JWT")
	cmd.Flags().StringVarP(&rol, "rol", "r", jwt.RoleContador, "rol del JWT (admin | contador)")
	cmd.Flags().IntVar(&minutos, "minutos", 60*24, "vigencia del JWT en minutos")
	_ = cmd.MarkFlagRequired("usuario")
	return cmd
}

// setup carga la configuración y arma el logger sobre stderr.
func setup(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, &exitError{code: 3, err: fmt.Errorf("cargar configuración: %w", err)}
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Output: cmd.ErrOrStderr()})
	return cfg, log, nil
}

// buildOrchestrator arma el flujo igual que cmd/api; la bitácora solo si hay DB.
func buildOrchestrator(ctx context.Context, cfg *config.Config, log *logger.Logger) (*report.Orchestrator, func()) {
	client := sunat.NewClient(cfg.SUNAT, log)
	deps := report.Deps{
		Config:    cfg.SUNAT,
		Tokens:    sunat.NewTokenCache(client, cfg.SUNAT, log),
		Exporter:  client,
		Poller:    sunat.NewPoller(client, cfg.SUNAT, log),
		Fetcher:   client,
		Extractor: archive.ExtractReport,
		Log:       log,
	}
	cleanup := func() {}
	if cfg.DB.Enabled() {
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Warn().Err(err).Msg("bitácora deshabilitada")
		} else {
			deps.Recorder = postgres.NewRunRepository(pool)
			cleanup = pool.Close
		}
	}
	return report.NewOrchestrator(deps), cleanup
}

func write(cmd *cobra.Command, out string, data []byte) error {
	if out == "" {
		if _, err := cmd.OutOrStdout().Write(data); err != nil {
			return &exitError{code: 1, err: fmt.Errorf("escribir salida: %w", err)}
		}
		return nil
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return &exitError{code: 1, err: fmt.Errorf("escribir %s: %w", out, err)}
	}
	return nil
}

// fail antepone la clase de error al mensaje y fija el código de salida.
func fail(err error) error {
	return &exitError{code: exitCode(err), err: fmt.Errorf("%s: %w", report.ErrorKind(err), err)}
}

func exitCode(err error) int {
	if code, ok := exitCodes[report.ErrorKind(err)]; ok {
		return code
	}
	return 1
}
