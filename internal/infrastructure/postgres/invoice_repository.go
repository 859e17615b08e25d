package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturas-api/internal/domain"
	domainbilling "github.com/jhoicas/facturas-api/internal/domain/billing"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
)

var _ repository.InvoiceRepository = (*InvoiceRepo)(nil)

// InvoiceRepo implementación de InvoiceRepository (usable con pool o tx).
//
// Create y Update escriben cabecera y líneas contra el mismo Querier; la
// atomicidad la aporta el TxRunner que envuelve la llamada. Usarlos sobre el
// pool directamente rompería la invariante "sin líneas huérfanas".
type InvoiceRepo struct {
	q Querier
}

// NewInvoiceRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInvoiceRepository(q Querier) *InvoiceRepo {
	return &InvoiceRepo{q: q}
}

// Create persiste la cabecera y todas sus líneas.
func (r *InvoiceRepo) Create(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoices (id, company_id, client_id, series, number, issue_date, payment_method,
		                      notes, status, subtotal, vat_total, withholding_total, grand_total,
		                      created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.CompanyID, invoice.ClientID, invoice.Series, invoice.Number,
		invoice.IssueDate, invoice.PaymentMethod, nullIfEmpty(invoice.Notes), invoice.Status,
		invoice.Subtotal, invoice.VATTotal, invoice.WithholdingTotal, invoice.GrandTotal,
		invoice.CreatedAt, invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return r.insertLines(ctx, invoice)
}

// Update actualiza la cabecera y reemplaza el conjunto de líneas completo:
// delete + reinsert con números 1..N recién asignados. Más simple que un diff
// y garantiza que no sobreviven líneas huérfanas ni obsoletas a una edición.
func (r *InvoiceRepo) Update(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		UPDATE invoices
		SET client_id         = $2,
		    series            = $3,
		    number            = $4,
		    issue_date        = $5,
		    payment_method    = $6,
		    notes             = $7,
		    status            = $8,
		    subtotal          = $9,
		    vat_total         = $10,
		    withholding_total = $11,
		    grand_total       = $12,
		    updated_at        = $13
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		invoice.ID, invoice.ClientID, invoice.Series, invoice.Number, invoice.IssueDate,
		invoice.PaymentMethod, nullIfEmpty(invoice.Notes), invoice.Status,
		invoice.Subtotal, invoice.VATTotal, invoice.WithholdingTotal, invoice.GrandTotal,
		invoice.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateNumber
		}
		return fmt.Errorf("update invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if _, err := r.q.Exec(ctx, `DELETE FROM invoice_lines WHERE invoice_id = $1`, invoice.ID); err != nil {
		return fmt.Errorf("delete invoice lines: %w", err)
	}
	return r.insertLines(ctx, invoice)
}

func (r *InvoiceRepo) insertLines(ctx context.Context, invoice *entity.Invoice) error {
	query := `
		INSERT INTO invoice_lines (id, invoice_id, line_number, product_id, description,
		                           quantity, unit_price, discount_pct, vat_pct, withholding_pct,
		                           subtotal, vat_amount, withholding_amount, total)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	for _, l := range invoice.Lines {
		_, err := r.q.Exec(ctx, query,
			l.ID, invoice.ID, l.LineNumber, nullIfEmpty(l.ProductID), nullIfEmpty(l.Description),
			l.Quantity, l.UnitPrice, l.DiscountPct, l.VATPct, l.WithholdingPct,
			l.Subtotal, l.VATAmount, l.WithholdingAmount, l.Total,
		)
		if err != nil {
			return fmt.Errorf("insert invoice line %d: %w", l.LineNumber, err)
		}
	}
	return nil
}

// Delete elimina la cabecera; las líneas caen por ON DELETE CASCADE.
func (r *InvoiceRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GetByID obtiene una factura completa con sus líneas ordenadas por
// line_number, o nil si no existe.
func (r *InvoiceRepo) GetByID(ctx context.Context, id string) (*entity.Invoice, error) {
	query := `
		SELECT id, company_id, client_id, series, number, issue_date, payment_method,
		       notes, status, subtotal, vat_total, withholding_total, grand_total,
		       created_at, updated_at
		FROM invoices WHERE id = $1`
	var inv entity.Invoice
	var notes *string
	err := r.q.QueryRow(ctx, query, id).Scan(
		&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.Series, &inv.Number,
		&inv.IssueDate, &inv.PaymentMethod, &notes, &inv.Status,
		&inv.Subtotal, &inv.VATTotal, &inv.WithholdingTotal, &inv.GrandTotal,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	inv.Notes = derefStr(notes)

	lines, err := r.linesByInvoiceID(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Lines = lines
	return &inv, nil
}

func (r *InvoiceRepo) linesByInvoiceID(ctx context.Context, invoiceID string) ([]*entity.InvoiceLine, error) {
	query := `
		SELECT id, invoice_id, line_number, product_id, description,
		       quantity, unit_price, discount_pct, vat_pct, withholding_pct,
		       subtotal, vat_amount, withholding_amount, total
		FROM invoice_lines WHERE invoice_id = $1 ORDER BY line_number`
	rows, err := r.q.Query(ctx, query, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("list invoice lines: %w", err)
	}
	defer rows.Close()
	var list []*entity.InvoiceLine
	for rows.Next() {
		var l entity.InvoiceLine
		var productID, description *string
		if err := rows.Scan(
			&l.ID, &l.InvoiceID, &l.LineNumber, &productID, &description,
			&l.Quantity, &l.UnitPrice, &l.DiscountPct, &l.VATPct, &l.WithholdingPct,
			&l.Subtotal, &l.VATAmount, &l.WithholdingAmount, &l.Total,
		); err != nil {
			return nil, fmt.Errorf("scan invoice line: %w", err)
		}
		l.ProductID = derefStr(productID)
		l.Description = derefStr(description)
		list = append(list, &l)
	}
	return list, rows.Err()
}

// ListByCompany devuelve solo cabeceras, ordenadas por serie y número.
func (r *InvoiceRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	query := `
		SELECT id, company_id, client_id, series, number, issue_date, payment_method,
		       notes, status, subtotal, vat_total, withholding_total, grand_total,
		       created_at, updated_at
		FROM invoices WHERE company_id = $1
		ORDER BY series, number
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()
	var list []*entity.Invoice
	for rows.Next() {
		var inv entity.Invoice
		var notes *string
		if err := rows.Scan(
			&inv.ID, &inv.CompanyID, &inv.ClientID, &inv.Series, &inv.Number,
			&inv.IssueDate, &inv.PaymentMethod, &notes, &inv.Status,
			&inv.Subtotal, &inv.VATTotal, &inv.WithholdingTotal, &inv.GrandTotal,
			&inv.CreatedAt, &inv.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		inv.Notes = derefStr(notes)
		list = append(list, &inv)
	}
	return list, rows.Err()
}

// ExistsNumber comprueba si (empresa, serie, número) ya está en uso,
// excluyendo opcionalmente la factura que se está editando. El constraint
// único de la tabla respalda esta comprobación a nivel de base de datos.
//
// La exclusión va en una query aparte: invoices.id es UUID y un ” en el
// mismo parámetro no castea (o fuerza a $4 a text y rompe el operador), así
// que el id solo se compara cuando de verdad hay uno.
func (r *InvoiceRepo) ExistsNumber(ctx context.Context, companyID, series, number, excludingID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE company_id = $1 AND series = $2 AND number = $3
		)`
	args := []any{companyID, series, number}
	if excludingID != "" {
		query = `
		SELECT EXISTS (
			SELECT 1 FROM invoices
			WHERE company_id = $1 AND series = $2 AND number = $3 AND id <> $4
		)`
		args = append(args, excludingID)
	}
	var exists bool
	if err := r.q.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists number: %w", err)
	}
	return exists, nil
}

// NextNumber calcula el siguiente número secuencial de la (empresa, serie).
//
// Toma un advisory lock transaccional sobre la pareja antes de leer: dos
// sesiones concurrentes creando factura en la misma serie se serializan y no
// pueden obtener el mismo número. El lock se libera solo al terminar la
// transacción, por lo que este método debe ejecutarse dentro del TxRunner que
// luego hace el insert.
func (r *InvoiceRepo) NextNumber(ctx context.Context, companyID, series string) (string, error) {
	lockQuery := `SELECT pg_advisory_xact_lock(hashtextextended($1 || ':' || $2, 0))`
	if _, err := r.q.Exec(ctx, lockQuery, companyID, series); err != nil {
		return "", fmt.Errorf("lock series: %w", err)
	}
	rows, err := r.q.Query(ctx, `SELECT number FROM invoices WHERE company_id = $1 AND series = $2`, companyID, series)
	if err != nil {
		return "", fmt.Errorf("read series numbers: %w", err)
	}
	defer rows.Close()
	var existing []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return "", fmt.Errorf("scan number: %w", err)
		}
		existing = append(existing, n)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("read series numbers: %w", err)
	}
	return domainbilling.NextNumber(existing), nil
}
