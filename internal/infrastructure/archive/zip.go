// Package archive empaqueta y extrae el ZIP del reporte SIRE en memoria.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/jhoicas/sire-reportes/internal/domain"
	"github.com/jhoicas/sire-reportes/internal/domain/sire"
)

// maxEntrySize límite de la entrada descomprimida (protección ante zip bombs).
const maxEntrySize = 256 << 20

// ExtractReport abre el ZIP y devuelve el texto de la primera entrada .txt
// (sin distinguir mayúsculas). SUNAT envía un único archivo por reporte; si
// hubiera varios se usa el primero.
//
// El contenido se devuelve tal cual si es UTF-8 válido; si no, se decodifica
// como Windows-1252, que es como SUNAT suele generar los TXT.
func ExtractReport(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: abrir ZIP (%d bytes): %v", domain.ErrExtraction, len(data), err)
	}

	var entry *zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() && strings.HasSuffix(strings.ToLower(f.Name), sire.ExtensionReporte) {
			entry = f
			break
		}
	}
	if entry == nil {
		return "", fmt.Errorf("%w: no se encontró archivo TXT dentro del ZIP (%d entradas)", domain.ErrExtraction, len(zr.File))
	}

	rc, err := entry.Open()
	if err != nil {
		return "", fmt.Errorf("%w: abrir %s: %v", domain.ErrExtraction, entry.Name, err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
	if err != nil {
		return "", fmt.Errorf("%w: leer %s: %v", domain.ErrExtraction, entry.Name, err)
	}
	if len(raw) > maxEntrySize {
		return "", fmt.Errorf("%w: %s excede %d bytes", domain.ErrExtraction, entry.Name, maxEntrySize)
	}
	return decodeText(raw)
}

func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: decodificar texto: %v", domain.ErrExtraction, err)
	}
	return string(decoded), nil
}

// CompressText empaqueta un texto en un ZIP de una sola entrada, con la misma
// forma que los reportes de SUNAT (ej: RCE_202512.txt dentro de RCE_202512.zip).
func CompressText(filename, text string) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	fw, err := zw.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("zip: crear entrada %s: %w", filename, err)
	}
	if _, err := io.WriteString(fw, text); err != nil {
		return nil, fmt.Errorf("zip: escribir %s: %w", filename, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}
