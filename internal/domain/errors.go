package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Cada paso del flujo SIRE devuelve el más específico que pueda determinar;
// los llamadores los distinguen con errors.Is.
var (
	ErrValidation     = errors.New("entrada inválida")
	ErrConfiguration  = errors.New("configuración SUNAT incompleta")
	ErrAuthentication = errors.New("autenticación SUNAT rechazada")
	ErrGateway        = errors.New("error de comunicación con SUNAT")
	ErrTimeout        = errors.New("SUNAT no terminó el proceso en el tiempo límite")
	ErrExtraction     = errors.New("archivo de SUNAT ilegible")
)

// Errores de la bitácora de ejecuciones.
var (
	ErrNotFound  = errors.New("recurso no encontrado")
	ErrDuplicate = errors.New("recurso duplicado")
)
