// Package billing contiene el motor de cálculo de la factura: redondeo
// monetario, cálculo de línea, agregación de totales y numeración secuencial.
// Todo es puro (sin I/O): la capa de aplicación lo invoca antes de persistir y
// la de presentación puede invocarlo para previsualizar totales.
package billing

import "github.com/shopspring/decimal"

// Round2 redondea a 2 decimales con half-away-from-zero (HALF_UP).
//
// Todo importe derivado pasa por Round2 exactamente una vez en el punto en que
// se convierte en valor almacenado. El orden importa: los valores por línea se
// redondean ANTES de sumarse; sumar sin redondear y redondear al final difiere
// en ±0.01 para algunas entradas y no reproduce los céntimos del sistema
// anterior.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
