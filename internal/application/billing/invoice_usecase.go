package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturas-api/internal/application/dto"
	"github.com/jhoicas/facturas-api/internal/domain"
	domainbilling "github.com/jhoicas/facturas-api/internal/domain/billing"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
	"github.com/jhoicas/facturas-api/pkg/logger"
)

const dateLayout = "2006-01-02"

var oneHundred = decimal.NewFromInt(100)

// Options opciones de comportamiento del caso de uso.
type Options struct {
	// LegacyNumberFallback reproduce el comportamiento del sistema anterior:
	// si la lectura del siguiente número falla, usar "000001" en vez de
	// abortar. Desactivado por defecto; al activarse el fallo se registra
	// como warning en el log.
	LegacyNumberFallback bool
}

// InvoiceUseCase orquesta la validación, el recálculo y la persistencia
// atómica de facturas. Una sesión de edición pasa por Draft → Validated →
// Persisted; cualquier error de validación o de repositorio la devuelve a
// Draft sin dejar estado parcial.
type InvoiceUseCase struct {
	txRunner    TxRunner
	invoiceRepo repository.InvoiceRepository // atado al pool, para lecturas fuera de tx
	clientRepo  repository.ClientRepository
	log         *logger.Logger
	opts        Options
}

// NewInvoiceUseCase construye el caso de uso.
func NewInvoiceUseCase(
	txRunner TxRunner,
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	log *logger.Logger,
	opts Options,
) *InvoiceUseCase {
	return &InvoiceUseCase{
		txRunner:    txRunner,
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		log:         log,
		opts:        opts,
	}
}

// CreateInvoice valida el borrador, recalcula todas las líneas y los totales,
// asigna número si no viene, y persiste cabecera y líneas en una transacción.
func (uc *InvoiceUseCase) CreateInvoice(ctx context.Context, companyID string, in dto.SaveInvoiceRequest) (*dto.InvoiceResponse, error) {
	inv, err := uc.buildInvoice(companyID, "", in)
	if err != nil {
		return nil, err
	}
	client, err := uc.requireClient(ctx, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}

	err = uc.persistNew(ctx, companyID, inv, inv.Number)
	if errors.Is(err, domain.ErrAllocationFailed) && uc.opts.LegacyNumberFallback {
		// La transacción cuyo NextNumber falló ya está abortada (un statement
		// fallido la envenena); el camino degradado reintenta entera una
		// transacción nueva con el número legado fijado de antemano.
		uc.log.Warn().Err(err).
			Str("company_id", companyID).
			Str("series", inv.Series).
			Msg("fallo al leer el siguiente número; reintentando con el número legado 000001")
		err = uc.persistNew(ctx, companyID, inv, domainbilling.FormatNumber(1))
	}
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("series", inv.Series).
		Str("number", inv.Number).
		Str("grand_total", inv.GrandTotal.StringFixed(2)).
		Msg("factura creada")
	return toInvoiceResponse(inv, client.Name), nil
}

// persistNew ejecuta la transacción de alta completa: asigna número si no
// viene dado, comprueba unicidad y escribe cabecera y líneas.
func (uc *InvoiceUseCase) persistNew(ctx context.Context, companyID string, inv *entity.Invoice, number string) error {
	return uc.txRunner.RunInvoice(ctx, func(repo repository.InvoiceRepository) error {
		if number == "" {
			n, err := repo.NextNumber(ctx, companyID, inv.Series)
			if err != nil {
				return fmt.Errorf("%w: %v", domain.ErrAllocationFailed, err)
			}
			number = n
		}
		inv.Number = number
		exists, err := repo.ExistsNumber(ctx, companyID, inv.Series, inv.Number, "")
		if err != nil {
			return fmt.Errorf("comprobar unicidad: %w", err)
		}
		if exists {
			return domain.ErrDuplicateNumber
		}
		for _, line := range inv.Lines {
			line.InvoiceID = inv.ID
		}
		return repo.Create(ctx, inv)
	})
}

// UpdateInvoice valida y recalcula igual que CreateInvoice y reemplaza la
// factura en una transacción: actualiza la cabecera y sustituye el conjunto
// de líneas completo con números 1..N nuevos.
func (uc *InvoiceUseCase) UpdateInvoice(ctx context.Context, companyID, id string, in dto.SaveInvoiceRequest) (*dto.InvoiceResponse, error) {
	existing, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}
	if existing.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	inv, err := uc.buildInvoice(companyID, id, in)
	if err != nil {
		return nil, err
	}
	if inv.Number == "" {
		// En edición el número ya existe; no se reasigna.
		inv.Number = existing.Number
	}
	inv.CreatedAt = existing.CreatedAt
	client, err := uc.requireClient(ctx, companyID, in.ClientID)
	if err != nil {
		return nil, err
	}

	err = uc.txRunner.RunInvoice(ctx, func(repo repository.InvoiceRepository) error {
		exists, err := repo.ExistsNumber(ctx, companyID, inv.Series, inv.Number, id)
		if err != nil {
			return fmt.Errorf("comprobar unicidad: %w", err)
		}
		if exists {
			return domain.ErrDuplicateNumber
		}
		for _, line := range inv.Lines {
			line.InvoiceID = inv.ID
		}
		return repo.Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	uc.log.Info().
		Str("invoice_id", inv.ID).
		Str("series", inv.Series).
		Str("number", inv.Number).
		Msg("factura actualizada")
	return toInvoiceResponse(inv, client.Name), nil
}

// DeleteInvoice elimina la factura completa; las líneas caen por cascada
// dentro de la misma transacción.
func (uc *InvoiceUseCase) DeleteInvoice(ctx context.Context, companyID, id string) error {
	existing, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	if existing.CompanyID != companyID {
		return domain.ErrForbidden
	}
	return uc.txRunner.RunInvoice(ctx, func(repo repository.InvoiceRepository) error {
		return repo.Delete(ctx, id)
	})
}

// GetInvoice obtiene una factura con sus líneas ordenadas.
func (uc *InvoiceUseCase) GetInvoice(ctx context.Context, companyID, id string) (*dto.InvoiceResponse, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	clientName := ""
	if client, err := uc.clientRepo.GetByID(ctx, inv.ClientID); err == nil && client != nil {
		clientName = client.Name
	}
	return toInvoiceResponse(inv, clientName), nil
}

// ListInvoices devuelve cabeceras de la empresa, paginadas.
func (uc *InvoiceUseCase) ListInvoices(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.InvoiceSummaryResponse, error) {
	page.DefaultPage()
	invoices, err := uc.invoiceRepo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.InvoiceSummaryResponse, 0, len(invoices))
	for _, inv := range invoices {
		out = append(out, dto.InvoiceSummaryResponse{
			ID:         inv.ID,
			ClientID:   inv.ClientID,
			Series:     inv.Series,
			Number:     inv.Number,
			IssueDate:  inv.IssueDate.Format(dateLayout),
			Status:     inv.Status,
			GrandTotal: inv.GrandTotal,
		})
	}
	return out, nil
}

// NextNumber calcula el siguiente número de la serie para previsualizarlo en
// el formulario. El número definitivo se asigna dentro de la transacción de
// guardado; este es solo orientativo.
func (uc *InvoiceUseCase) NextNumber(ctx context.Context, companyID, series string) (string, error) {
	if series == "" {
		return "", domain.ErrInvalidInput
	}
	number, err := uc.invoiceRepo.NextNumber(ctx, companyID, series)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrAllocationFailed, err)
	}
	return number, nil
}

// PreviewTotals calcula líneas y totales sin tocar la base de datos, para que
// el formulario muestre los importes antes de guardar.
func (uc *InvoiceUseCase) PreviewTotals(in dto.PreviewTotalsRequest) (*dto.PreviewTotalsResponse, error) {
	results := make([]domainbilling.LineResult, 0, len(in.Lines))
	lines := make([]dto.InvoiceLineResponse, 0, len(in.Lines))
	for i, l := range in.Lines {
		if err := validateLine(l); err != nil {
			return nil, err
		}
		res, err := domainbilling.ComputeLine(toLineInput(l))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		lines = append(lines, dto.InvoiceLineResponse{
			LineNumber:        i + 1,
			ProductID:         l.ProductID,
			Description:       l.Description,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountPct:       l.DiscountPct,
			VATPct:            l.VATPct,
			WithholdingPct:    l.WithholdingPct,
			Subtotal:          res.Subtotal,
			VATAmount:         res.VATAmount,
			WithholdingAmount: res.WithholdingAmount,
			Total:             res.Total,
		})
	}
	totals := domainbilling.Aggregate(results)
	return &dto.PreviewTotalsResponse{
		Subtotal:         totals.Subtotal,
		VATTotal:         totals.VATTotal,
		WithholdingTotal: totals.WithholdingTotal,
		GrandTotal:       totals.GrandTotal,
		Lines:            lines,
	}, nil
}

// buildInvoice es la transición Draft → Validated: valida campos obligatorios
// e invariantes de línea y construye la entidad con todos los importes
// recalculados. Los totales enviados por el cliente se descartan siempre.
func (uc *InvoiceUseCase) buildInvoice(companyID, existingID string, in dto.SaveInvoiceRequest) (*entity.Invoice, error) {
	if companyID == "" || in.ClientID == "" || in.Series == "" || in.PaymentMethod == "" {
		return nil, domain.ErrInvalidInput
	}
	if len(in.Lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	if !validPaymentMethod(in.PaymentMethod) {
		return nil, domain.ErrInvalidInput
	}
	status := in.Status
	if status == "" {
		status = entity.InvoiceStatusIssued
	}
	if !validStatus(status) {
		return nil, domain.ErrInvalidInput
	}

	issueDate := time.Now()
	if in.IssueDate != "" {
		d, err := time.Parse(dateLayout, in.IssueDate)
		if err != nil {
			return nil, domain.ErrInvalidInput
		}
		issueDate = d
	}

	id := existingID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now()
	inv := &entity.Invoice{
		ID:            id,
		CompanyID:     companyID,
		ClientID:      in.ClientID,
		Series:        in.Series,
		Number:        in.Number,
		IssueDate:     issueDate,
		PaymentMethod: in.PaymentMethod,
		Notes:         in.Notes,
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	results := make([]domainbilling.LineResult, 0, len(in.Lines))
	for i, l := range in.Lines {
		if err := validateLine(l); err != nil {
			return nil, err
		}
		res, err := domainbilling.ComputeLine(toLineInput(l))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
		inv.Lines = append(inv.Lines, &entity.InvoiceLine{
			ID:                uuid.New().String(),
			LineNumber:        i + 1,
			ProductID:         l.ProductID,
			Description:       l.Description,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountPct:       l.DiscountPct,
			VATPct:            l.VATPct,
			WithholdingPct:    l.WithholdingPct,
			Subtotal:          res.Subtotal,
			VATAmount:         res.VATAmount,
			WithholdingAmount: res.WithholdingAmount,
			Total:             res.Total,
		})
	}

	totals := domainbilling.Aggregate(results)
	inv.Subtotal = totals.Subtotal
	inv.VATTotal = totals.VATTotal
	inv.WithholdingTotal = totals.WithholdingTotal
	inv.GrandTotal = totals.GrandTotal
	return inv, nil
}

func (uc *InvoiceUseCase) requireClient(ctx context.Context, companyID, clientID string) (*entity.Client, error) {
	client, err := uc.clientRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, domain.ErrNotFound
	}
	if client.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return client, nil
}

// validateLine invariantes de línea: producto o descripción, cantidad > 0,
// precio ≥ 0, porcentajes en 0..100.
func validateLine(l dto.InvoiceLineRequest) error {
	if l.ProductID == "" && l.Description == "" {
		return domain.ErrInvalidInput
	}
	if !l.Quantity.GreaterThan(decimal.Zero) || l.UnitPrice.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	for _, pct := range []decimal.Decimal{l.DiscountPct, l.VATPct, l.WithholdingPct} {
		if pct.LessThan(decimal.Zero) || pct.GreaterThan(oneHundred) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func toLineInput(l dto.InvoiceLineRequest) domainbilling.LineInput {
	return domainbilling.LineInput{
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountPct:    l.DiscountPct,
		VATPct:         l.VATPct,
		WithholdingPct: l.WithholdingPct,
	}
}

func validPaymentMethod(m string) bool {
	switch m {
	case entity.PaymentCash, entity.PaymentTransfer, entity.PaymentCard, entity.PaymentCheck:
		return true
	}
	return false
}

func validStatus(s string) bool {
	switch s {
	case entity.InvoiceStatusDraft, entity.InvoiceStatusIssued, entity.InvoiceStatusPaid, entity.InvoiceStatusCancelled:
		return true
	}
	return false
}

func toInvoiceResponse(inv *entity.Invoice, clientName string) *dto.InvoiceResponse {
	resp := &dto.InvoiceResponse{
		ID:               inv.ID,
		CompanyID:        inv.CompanyID,
		ClientID:         inv.ClientID,
		ClientName:       clientName,
		Series:           inv.Series,
		Number:           inv.Number,
		IssueDate:        inv.IssueDate.Format(dateLayout),
		PaymentMethod:    inv.PaymentMethod,
		Notes:            inv.Notes,
		Status:           inv.Status,
		Subtotal:         inv.Subtotal,
		VATTotal:         inv.VATTotal,
		WithholdingTotal: inv.WithholdingTotal,
		GrandTotal:       inv.GrandTotal,
		Lines:            make([]dto.InvoiceLineResponse, 0, len(inv.Lines)),
	}
	for _, l := range inv.Lines {
		resp.Lines = append(resp.Lines, dto.InvoiceLineResponse{
			ID:                l.ID,
			LineNumber:        l.LineNumber,
			ProductID:         l.ProductID,
			Description:       l.Description,
			Quantity:          l.Quantity,
			UnitPrice:         l.UnitPrice,
			DiscountPct:       l.DiscountPct,
			VATPct:            l.VATPct,
			WithholdingPct:    l.WithholdingPct,
			Subtotal:          l.Subtotal,
			VATAmount:         l.VATAmount,
			WithholdingAmount: l.WithholdingAmount,
			Total:             l.Total,
		})
	}
	return resp
}
