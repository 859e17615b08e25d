package billing

import (
	"context"

	"github.com/jhoicas/facturas-api/internal/domain"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
)

// InvoicePDFRenderer puerto de renderizado PDF: recibe una factura ya
// calculada y la dibuja. Sin lógica de negocio.
type InvoicePDFRenderer interface {
	Render(ctx context.Context, invoice *entity.Invoice, company *entity.Company, client *entity.Client) ([]byte, error)
}

// InvoiceXMLExporter puerto de exportación XML de una factura calculada.
type InvoiceXMLExporter interface {
	Export(invoice *entity.Invoice, company *entity.Company, client *entity.Client) ([]byte, error)
}

// ExportUseCase lee una factura persistida con sus datos maestros y la
// entrega al renderizador pedido (PDF o XML).
type ExportUseCase struct {
	invoiceRepo repository.InvoiceRepository
	companyRepo repository.CompanyRepository
	clientRepo  repository.ClientRepository
	pdf         InvoicePDFRenderer
	xml         InvoiceXMLExporter
}

// NewExportUseCase construye el caso de uso de exportación.
func NewExportUseCase(
	invoiceRepo repository.InvoiceRepository,
	companyRepo repository.CompanyRepository,
	clientRepo repository.ClientRepository,
	pdf InvoicePDFRenderer,
	xml InvoiceXMLExporter,
) *ExportUseCase {
	return &ExportUseCase{
		invoiceRepo: invoiceRepo,
		companyRepo: companyRepo,
		clientRepo:  clientRepo,
		pdf:         pdf,
		xml:         xml,
	}
}

// InvoicePDF genera el PDF de una factura de la empresa.
func (uc *ExportUseCase) InvoicePDF(ctx context.Context, companyID, id string) ([]byte, error) {
	inv, company, client, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return uc.pdf.Render(ctx, inv, company, client)
}

// InvoiceXML genera el XML de una factura de la empresa.
func (uc *ExportUseCase) InvoiceXML(ctx context.Context, companyID, id string) ([]byte, error) {
	inv, company, client, err := uc.load(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return uc.xml.Export(inv, company, client)
}

func (uc *ExportUseCase) load(ctx context.Context, companyID, id string) (*entity.Invoice, *entity.Company, *entity.Client, error) {
	inv, err := uc.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if inv == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	if inv.CompanyID != companyID {
		return nil, nil, nil, domain.ErrForbidden
	}
	company, err := uc.companyRepo.GetByID(ctx, inv.CompanyID)
	if err != nil {
		return nil, nil, nil, err
	}
	if company == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	client, err := uc.clientRepo.GetByID(ctx, inv.ClientID)
	if err != nil {
		return nil, nil, nil, err
	}
	if client == nil {
		return nil, nil, nil, domain.ErrNotFound
	}
	return inv, company, client, nil
}
