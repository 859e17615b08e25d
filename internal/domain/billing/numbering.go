package billing

import (
	"fmt"
	"strconv"
)

// numberWidth ancho del número de factura con ceros a la izquierda.
const numberWidth = 6

// NextNumber calcula el siguiente número secuencial de una serie a partir de
// los números ya existentes en esa (empresa, serie): máximo de los puramente
// numéricos + 1, con ceros hasta 6 dígitos. Los números heredados no numéricos
// (ej. "A-12b") se ignoran. Sin números previos devuelve "000001".
//
// La función es pura; el repositorio la invoca dentro de la misma transacción
// que el insert, con la serie bloqueada, para que dos sesiones concurrentes no
// obtengan el mismo número.
func NextNumber(existing []string) string {
	var max int64
	for _, n := range existing {
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil || v < 0 {
			continue
		}
		if v > max {
			max = v
		}
	}
	return FormatNumber(max + 1)
}

// FormatNumber formatea un número secuencial con ceros a la izquierda.
func FormatNumber(n int64) string {
	return fmt.Sprintf("%0*d", numberWidth, n)
}
