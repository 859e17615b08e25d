package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturas-api/internal/application/dto"
	"github.com/jhoicas/facturas-api/internal/domain"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
)

var maxPct = decimal.NewFromInt(100)

// ProductUseCase CRUD de productos. Los porcentajes por defecto del producto
// se usan para autocompletar líneas en el formulario; el motor de cálculo solo
// confía en los porcentajes guardados en cada línea.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Create crea un producto de la empresa.
func (uc *ProductUseCase) Create(ctx context.Context, companyID string, in dto.SaveProductRequest) (*dto.ProductResponse, error) {
	if err := validateProduct(companyID, in); err != nil {
		return nil, err
	}
	now := time.Now()
	product := &entity.Product{
		ID:                    uuid.New().String(),
		CompanyID:             companyID,
		Code:                  in.Code,
		Name:                  in.Name,
		Price:                 in.Price,
		DefaultVATPct:         in.DefaultVATPct,
		DefaultWithholdingPct: in.DefaultWithholdingPct,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// Update actualiza un producto existente de la empresa.
func (uc *ProductUseCase) Update(ctx context.Context, companyID, id string, in dto.SaveProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.requireOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if err := validateProduct(companyID, in); err != nil {
		return nil, err
	}
	product.Code = in.Code
	product.Name = in.Name
	product.Price = in.Price
	product.DefaultVATPct = in.DefaultVATPct
	product.DefaultWithholdingPct = in.DefaultWithholdingPct
	product.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto de la empresa.
func (uc *ProductUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ProductResponse, error) {
	product, err := uc.requireOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// ListByCompany lista los productos de la empresa, paginados.
func (uc *ProductUseCase) ListByCompany(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.ProductResponse, error) {
	page.DefaultPage()
	products, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, *toProductResponse(p))
	}
	return out, nil
}

func (uc *ProductUseCase) requireOwned(ctx context.Context, companyID, id string) (*entity.Product, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.ErrNotFound
	}
	if product.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return product, nil
}

func validateProduct(companyID string, in dto.SaveProductRequest) error {
	if companyID == "" || in.Name == "" {
		return domain.ErrInvalidInput
	}
	if in.Price.LessThan(decimal.Zero) {
		return domain.ErrInvalidInput
	}
	for _, pct := range []decimal.Decimal{in.DefaultVATPct, in.DefaultWithholdingPct} {
		if pct.LessThan(decimal.Zero) || pct.GreaterThan(maxPct) {
			return domain.ErrInvalidInput
		}
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	return &dto.ProductResponse{
		ID:                    p.ID,
		CompanyID:             p.CompanyID,
		Code:                  p.Code,
		Name:                  p.Name,
		Price:                 p.Price,
		DefaultVATPct:         p.DefaultVATPct,
		DefaultWithholdingPct: p.DefaultWithholdingPct,
	}
}
