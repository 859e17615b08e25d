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

// ClientUseCase CRUD de clientes de una empresa.
type ClientUseCase struct {
	repo repository.ClientRepository
}

// NewClientUseCase construye el caso de uso.
func NewClientUseCase(repo repository.ClientRepository) *ClientUseCase {
	return &ClientUseCase{repo: repo}
}

// Create crea un cliente para la empresa.
func (uc *ClientUseCase) Create(ctx context.Context, companyID string, in dto.SaveClientRequest) (*dto.ClientResponse, error) {
	if companyID == "" || in.Name == "" || in.TaxID == "" {
		return nil, domain.ErrInvalidInput
	}
	now := time.Now()
	client := &entity.Client{
		ID:         uuid.New().String(),
		CompanyID:  companyID,
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
	if err := uc.repo.Create(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// Update actualiza un cliente existente de la empresa.
func (uc *ClientUseCase) Update(ctx context.Context, companyID, id string, in dto.SaveClientRequest) (*dto.ClientResponse, error) {
	client, err := uc.requireOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	if in.Name == "" || in.TaxID == "" {
		return nil, domain.ErrInvalidInput
	}
	client.Name = in.Name
	client.TaxID = in.TaxID
	client.Address = in.Address
	client.City = in.City
	client.PostalCode = in.PostalCode
	client.Email = in.Email
	client.Phone = in.Phone
	client.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, client); err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// GetByID obtiene un cliente de la empresa.
func (uc *ClientUseCase) GetByID(ctx context.Context, companyID, id string) (*dto.ClientResponse, error) {
	client, err := uc.requireOwned(ctx, companyID, id)
	if err != nil {
		return nil, err
	}
	return toClientResponse(client), nil
}

// ListByCompany lista los clientes de la empresa, paginados.
func (uc *ClientUseCase) ListByCompany(ctx context.Context, companyID string, page dto.PageRequest) ([]dto.ClientResponse, error) {
	page.DefaultPage()
	clients, err := uc.repo.ListByCompany(ctx, companyID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, *toClientResponse(c))
	}
	return out, nil
}

func (uc *ClientUseCase) requireOwned(ctx context.Context, companyID, id string) (*entity.Client, error) {
	client, err := uc.repo.GetByID(ctx, id)
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

func toClientResponse(c *entity.Client) *dto.ClientResponse {
	return &dto.ClientResponse{
		ID:         c.ID,
		CompanyID:  c.CompanyID,
		Name:       c.Name,
		TaxID:      c.TaxID,
		Address:    c.Address,
		City:       c.City,
		PostalCode: c.PostalCode,
		Email:      c.Email,
		Phone:      c.Phone,
	}
}
