package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturas-api/internal/application/dto"
	"github.com/jhoicas/facturas-api/internal/domain"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
)

// CompanyUseCase CRUD de empresas (datos maestros; colaborador del motor de
// facturación, que solo las consume por ID).
type CompanyUseCase struct {
	repo repository.CompanyRepository
}

// NewCompanyUseCase construye el caso de uso.
func NewCompanyUseCase(repo repository.CompanyRepository) *CompanyUseCase {
	return &CompanyUseCase{repo: repo}
}

// Create crea una empresa.
func (uc *CompanyUseCase) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.Name == "" || in.TaxID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	company := &entity.Company{
		ID:         uuid.New().String(),
		Name:       in.Name,
		TaxID:      in.TaxID,
		Address:    in.Address,
		City:       in.City,
		PostalCode: in.PostalCode,
		Email:      in.Email,
		Phone:      in.Phone,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := uc.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return toCompanyResponse(company), nil
}

// GetByID obtiene una empresa.
func (uc *CompanyUseCase) GetByID(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if company == nil {
		return nil, domain.ErrNotFound
	}
	return toCompanyResponse(company), nil
}

// List lista empresas paginadas.
func (uc *CompanyUseCase) List(ctx context.Context, page dto.PageRequest) ([]dto.CompanyResponse, error) {
	page.DefaultPage()
	companies, err := uc.repo.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CompanyResponse, 0, len(companies))
	for _, c := range companies {
		out = append(out, *toCompanyResponse(c))
	}
	return out, nil
}

func toCompanyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:         c.ID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Email:      c.Email,
		Phone:      c.Phone,
	}
}
