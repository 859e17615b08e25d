package billing_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/jhoicas/facturas-api/internal/application/billing"
	"github.com/jhoicas/facturas-api/internal/application/dto"
	"github.com/jhoicas/facturas-api/internal/domain"
	domainbilling "github.com/jhoicas/facturas-api/internal/domain/billing"
	"github.com/jhoicas/facturas-api/internal/domain/entity"
	"github.com/jhoicas/facturas-api/internal/domain/repository"
	"github.com/jhoicas/facturas-api/pkg/logger"
)

const (
	testCompanyID = "00000000-0000-0000-0000-0000000000c1"
	testClientID  = "00000000-0000-0000-0000-0000000000a1"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria con semántica transaccional real: el TxRunner clona el
// store, ejecuta el callback contra el clon y solo lo consolida si no hubo
// error. Un error a mitad de escritura descarta el clon completo (rollback).
// ──────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	headers map[string]*entity.Invoice       // sin líneas
	lines   map[string][]*entity.InvoiceLine // por invoice ID

	failCreateAtLine int   // >0: Create falla al escribir esa línea
	nextNumberErr    error // inyectado: NextNumber falla

	txRuns int // transacciones iniciadas por el TxRunner
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		headers: make(map[string]*entity.Invoice),
		lines:   make(map[string][]*entity.InvoiceLine),
	}
}

func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	c.failCreateAtLine = s.failCreateAtLine
	c.nextNumberErr = s.nextNumberErr
	for id, h := range s.headers {
		hc := *h
		c.headers[id] = &hc
	}
	for id, ls := range s.lines {
		for _, l := range ls {
			lc := *l
			c.lines[id] = append(c.lines[id], &lc)
		}
	}
	return c
}

type fakeInvoiceRepo struct {
	store *fakeStore
}

var _ repository.InvoiceRepository = (*fakeInvoiceRepo)(nil)

func (r *fakeInvoiceRepo) Create(_ context.Context, inv *entity.Invoice) error {
	header := *inv
	header.Lines = nil
	r.store.headers[inv.ID] = &header
	for i, l := range inv.Lines {
		if r.store.failCreateAtLine > 0 && i+1 == r.store.failCreateAtLine {
			return errors.New("fallo simulado al insertar línea")
		}
		lc := *l
		r.store.lines[inv.ID] = append(r.store.lines[inv.ID], &lc)
	}
	return nil
}

func (r *fakeInvoiceRepo) Update(_ context.Context, inv *entity.Invoice) error {
	if _, ok := r.store.headers[inv.ID]; !ok {
		return domain.ErrNotFound
	}
	header := *inv
	header.Lines = nil
	r.store.headers[inv.ID] = &header
	// Reemplazo completo del conjunto de líneas.
	delete(r.store.lines, inv.ID)
	for _, l := range inv.Lines {
		lc := *l
		r.store.lines[inv.ID] = append(r.store.lines[inv.ID], &lc)
	}
	return nil
}

func (r *fakeInvoiceRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.store.headers[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.store.headers, id)
	delete(r.store.lines, id)
	return nil
}

func (r *fakeInvoiceRepo) GetByID(_ context.Context, id string) (*entity.Invoice, error) {
	h, ok := r.store.headers[id]
	if !ok {
		return nil, nil
	}
	inv := *h
	for _, l := range r.store.lines[id] {
		lc := *l
		inv.Lines = append(inv.Lines, &lc)
	}
	sort.Slice(inv.Lines, func(i, j int) bool { return inv.Lines[i].LineNumber < inv.Lines[j].LineNumber })
	return &inv, nil
}

func (r *fakeInvoiceRepo) ListByCompany(_ context.Context, companyID string, limit, offset int) ([]*entity.Invoice, error) {
	var out []*entity.Invoice
	for _, h := range r.store.headers {
		if h.CompanyID == companyID {
			hc := *h
			out = append(out, &hc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *fakeInvoiceRepo) ExistsNumber(_ context.Context, companyID, series, number, excludingID string) (bool, error) {
	for _, h := range r.store.headers {
		if h.CompanyID == companyID && h.Series == series && h.Number == number && h.ID != excludingID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeInvoiceRepo) NextNumber(_ context.Context, companyID, series string) (string, error) {
	if r.store.nextNumberErr != nil {
		return "", r.store.nextNumberErr
	}
	var existing []string
	for _, h := range r.store.headers {
		if h.CompanyID == companyID && h.Series == series {
			existing = append(existing, h.Number)
		}
	}
	return domainbilling.NextNumber(existing), nil
}

type fakeTxRunner struct {
	store *fakeStore
}

func (t *fakeTxRunner) RunInvoice(ctx context.Context, fn func(repo repository.InvoiceRepository) error) error {
	t.store.txRuns++
	staged := t.store.clone()
	if err := fn(&fakeInvoiceRepo{store: staged}); err != nil {
		return err // rollback: el clon se descarta
	}
	t.store.headers = staged.headers
	t.store.lines = staged.lines
	return nil
}

type fakeClientRepo struct {
	clients map[string]*entity.Client
}

func (r *fakeClientRepo) Create(context.Context, *entity.Client) error { return nil }
func (r *fakeClientRepo) Update(context.Context, *entity.Client) error { return nil }
func (r *fakeClientRepo) GetByID(_ context.Context, id string) (*entity.Client, error) {
	return r.clients[id], nil
}
func (r *fakeClientRepo) ListByCompany(context.Context, string, int, int) ([]*entity.Client, error) {
	return nil, nil
}

func newTestUseCase(t *testing.T, store *fakeStore, opts appbilling.Options) *appbilling.InvoiceUseCase {
	t.Helper()
	clients := &fakeClientRepo{clients: map[string]*entity.Client{
		testClientID: {ID: testClientID, CompanyID: testCompanyID, Name: "Cliente Demo SL"},
	}}
	log := logger.New(logger.Config{Env: "production", Level: "error"})
	return appbilling.NewInvoiceUseCase(&fakeTxRunner{store: store}, &fakeInvoiceRepo{store: store}, clients, log, opts)
}

func saveRequest(lines ...dto.InvoiceLineRequest) dto.SaveInvoiceRequest {
	return dto.SaveInvoiceRequest{
		ClientID:      testClientID,
		Series:        "A",
		IssueDate:     "2026-03-15",
		PaymentMethod: entity.PaymentTransfer,
		Lines:         lines,
	}
}

func vectorLine() dto.InvoiceLineRequest {
	return dto.InvoiceLineRequest{
		Description:    "Servicio de consultoría",
		Quantity:       dec("3"),
		UnitPrice:      dec("100.00"),
		DiscountPct:    dec("10"),
		VATPct:         dec("21"),
		WithholdingPct: dec("0"),
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Create
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_RecalculaYNumera(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	resp, err := uc.CreateInvoice(context.Background(), testCompanyID, saveRequest(vectorLine(), vectorLine()))
	require.NoError(t, err)

	assert.Equal(t, "000001", resp.Number, "serie vacía arranca en 000001")
	assert.Equal(t, "A", resp.Series)
	assert.Equal(t, "Cliente Demo SL", resp.ClientName)
	assert.True(t, resp.Subtotal.Equal(dec("540.00")), "subtotal = %s", resp.Subtotal)
	assert.True(t, resp.VATTotal.Equal(dec("113.40")), "iva = %s", resp.VATTotal)
	assert.True(t, resp.GrandTotal.Equal(dec("653.40")), "total = %s", resp.GrandTotal)

	require.Len(t, resp.Lines, 2)
	assert.Equal(t, 1, resp.Lines[0].LineNumber)
	assert.Equal(t, 2, resp.Lines[1].LineNumber)
	assert.True(t, resp.Lines[0].Total.Equal(dec("326.70")))

	// Persistido de verdad, con las líneas.
	saved, err := uc.GetInvoice(context.Background(), testCompanyID, resp.ID)
	require.NoError(t, err)
	assert.Len(t, saved.Lines, 2)
}

func TestCreateInvoice_NumeracionSecuencialIgnorandoLegados(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	// Sembrar una factura "000007" y una con número heredado no numérico.
	for _, n := range []string{"000007", "LEGACY-9"} {
		req := saveRequest(vectorLine())
		req.Number = n
		_, err := uc.CreateInvoice(context.Background(), testCompanyID, req)
		require.NoError(t, err)
	}

	resp, err := uc.CreateInvoice(context.Background(), testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)
	assert.Equal(t, "000008", resp.Number)
}

func TestCreateInvoice_NumeroDuplicado(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	req := saveRequest(vectorLine())
	req.Number = "000042"
	_, err := uc.CreateInvoice(context.Background(), testCompanyID, req)
	require.NoError(t, err)

	_, err = uc.CreateInvoice(context.Background(), testCompanyID, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
	assert.Len(t, store.headers, 1, "el duplicado no debe dejar filas")
}

func TestCreateInvoice_Validacion(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.SaveInvoiceRequest
	}{
		{"sin cliente", func() dto.SaveInvoiceRequest { r := saveRequest(vectorLine()); r.ClientID = ""; return r }()},
		{"sin serie", func() dto.SaveInvoiceRequest { r := saveRequest(vectorLine()); r.Series = ""; return r }()},
		{"sin método de pago", func() dto.SaveInvoiceRequest { r := saveRequest(vectorLine()); r.PaymentMethod = ""; return r }()},
		{"método de pago desconocido", func() dto.SaveInvoiceRequest { r := saveRequest(vectorLine()); r.PaymentMethod = "BITCOIN"; return r }()},
		{"sin líneas", saveRequest()},
		{"línea sin producto ni descripción", saveRequest(dto.InvoiceLineRequest{
			Quantity: dec("1"), UnitPrice: dec("10"), VATPct: dec("21"),
		})},
		{"cantidad cero", saveRequest(dto.InvoiceLineRequest{
			Description: "x", Quantity: dec("0"), UnitPrice: dec("10"), VATPct: dec("21"),
		})},
		{"precio negativo", saveRequest(dto.InvoiceLineRequest{
			Description: "x", Quantity: dec("1"), UnitPrice: dec("-1"), VATPct: dec("21"),
		})},
		{"iva fuera de rango", saveRequest(dto.InvoiceLineRequest{
			Description: "x", Quantity: dec("1"), UnitPrice: dec("10"), VATPct: dec("101"),
		})},
		{"retención negativa", saveRequest(dto.InvoiceLineRequest{
			Description: "x", Quantity: dec("1"), UnitPrice: dec("10"), VATPct: dec("21"), WithholdingPct: dec("-5"),
		})},
		{"fecha inválida", func() dto.SaveInvoiceRequest { r := saveRequest(vectorLine()); r.IssueDate = "15/03/2026"; return r }()},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := uc.CreateInvoice(ctx, testCompanyID, c.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assert.Empty(t, store.headers, "la validación debe rechazar antes de cualquier escritura")
}

func TestCreateInvoice_ClienteDeOtraEmpresa(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	_, err := uc.CreateInvoice(context.Background(), "otra-empresa", saveRequest(vectorLine()))
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

// TestCreateInvoice_AtomicidadEnFalloParcial fuerza un fallo al escribir la
// segunda de tres líneas: no debe quedar ni cabecera ni línea alguna.
func TestCreateInvoice_AtomicidadEnFalloParcial(t *testing.T) {
	store := newFakeStore()
	store.failCreateAtLine = 2
	uc := newTestUseCase(t, store, appbilling.Options{})

	resp, err := uc.CreateInvoice(context.Background(), testCompanyID, saveRequest(vectorLine(), vectorLine(), vectorLine()))
	require.Error(t, err)
	require.Nil(t, resp)

	assert.Empty(t, store.headers, "rollback: cero cabeceras")
	assert.Empty(t, store.lines, "rollback: cero líneas")

	// Y cualquier lectura posterior es NotFound.
	store.failCreateAtLine = 0
	_, err = uc.GetInvoice(context.Background(), testCompanyID, "cualquiera")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Numeración degradada
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateInvoice_FalloDeNumeracionEsError(t *testing.T) {
	store := newFakeStore()
	store.nextNumberErr = errors.New("timeout de red")
	uc := newTestUseCase(t, store, appbilling.Options{})

	_, err := uc.CreateInvoice(context.Background(), testCompanyID, saveRequest(vectorLine()))
	assert.ErrorIs(t, err, domain.ErrAllocationFailed,
		"sin fallback el fallo de lectura debe abortar, no inventar 000001")
	assert.Empty(t, store.headers)
}

// TestCreateInvoice_FallbackLegadoOptIn: el camino degradado no puede seguir
// dentro de la transacción cuyo NextNumber acaba de fallar (en PostgreSQL un
// statement fallido la aborta entera): debe reintentar en una transacción
// nueva con el número legado ya fijado.
func TestCreateInvoice_FallbackLegadoOptIn(t *testing.T) {
	store := newFakeStore()
	store.nextNumberErr = errors.New("timeout de red")
	uc := newTestUseCase(t, store, appbilling.Options{LegacyNumberFallback: true})

	resp, err := uc.CreateInvoice(context.Background(), testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)
	assert.Equal(t, "000001", resp.Number)
	assert.Equal(t, 2, store.txRuns,
		"el reintento degradado debe correr en una transacción nueva, no en la abortada")
	assert.Len(t, store.headers, 1)
}

// ──────────────────────────────────────────────────────────────────────────────
// Update / Delete
// ──────────────────────────────────────────────────────────────────────────────

func TestUpdateInvoice_ReemplazaLineasCompletas(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	created, err := uc.CreateInvoice(ctx, testCompanyID, saveRequest(vectorLine(), vectorLine(), vectorLine()))
	require.NoError(t, err)
	require.Len(t, created.Lines, 3)

	// Editar a una sola línea distinta.
	req := saveRequest(dto.InvoiceLineRequest{
		Description: "Única línea",
		Quantity:    dec("1"),
		UnitPrice:   dec("50.00"),
		VATPct:      dec("21"),
	})
	req.Number = created.Number
	updated, err := uc.UpdateInvoice(ctx, testCompanyID, created.ID, req)
	require.NoError(t, err)

	require.Len(t, updated.Lines, 1, "el conjunto de líneas se reemplaza entero")
	assert.Equal(t, 1, updated.Lines[0].LineNumber)
	assert.True(t, updated.Subtotal.Equal(dec("50.00")))
	assert.True(t, updated.GrandTotal.Equal(dec("60.50")))

	// El store refleja exactamente una línea.
	assert.Len(t, store.lines[created.ID], 1)
}

func TestUpdateInvoice_MismoNumeroNoEsDuplicado(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	created, err := uc.CreateInvoice(ctx, testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)

	// Guardar de nuevo con el mismo número: excludingID evita el falso positivo.
	req := saveRequest(vectorLine())
	req.Number = created.Number
	_, err = uc.UpdateInvoice(ctx, testCompanyID, created.ID, req)
	assert.NoError(t, err)
}

func TestUpdateInvoice_NumeroDeOtraFacturaEsDuplicado(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	first, err := uc.CreateInvoice(ctx, testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)
	second, err := uc.CreateInvoice(ctx, testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)

	req := saveRequest(vectorLine())
	req.Number = first.Number
	_, err = uc.UpdateInvoice(ctx, testCompanyID, second.ID, req)
	assert.ErrorIs(t, err, domain.ErrDuplicateNumber)
}

func TestUpdateInvoice_NoExiste(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	_, err := uc.UpdateInvoice(context.Background(), testCompanyID, "no-existe", saveRequest(vectorLine()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteInvoice_EliminaCabeceraYLineas(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	created, err := uc.CreateInvoice(ctx, testCompanyID, saveRequest(vectorLine()))
	require.NoError(t, err)

	require.NoError(t, uc.DeleteInvoice(ctx, testCompanyID, created.ID))
	assert.Empty(t, store.headers)
	assert.Empty(t, store.lines)

	err = uc.DeleteInvoice(ctx, testCompanyID, created.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ──────────────────────────────────────────────────────────────────────────────
// Preview y NextNumber
// ──────────────────────────────────────────────────────────────────────────────

func TestPreviewTotals_SinPersistencia(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})

	resp, err := uc.PreviewTotals(dto.PreviewTotalsRequest{
		Lines: []dto.InvoiceLineRequest{vectorLine(), vectorLine()},
	})
	require.NoError(t, err)
	assert.True(t, resp.Subtotal.Equal(dec("540.00")))
	assert.True(t, resp.GrandTotal.Equal(dec("653.40")))
	assert.Empty(t, store.headers, "preview no debe tocar el store")
}

func TestNextNumber_Preview(t *testing.T) {
	store := newFakeStore()
	uc := newTestUseCase(t, store, appbilling.Options{})
	ctx := context.Background()

	n, err := uc.NextNumber(ctx, testCompanyID, "A")
	require.NoError(t, err)
	assert.Equal(t, "000001", n)

	_, err = uc.NextNumber(ctx, testCompanyID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
