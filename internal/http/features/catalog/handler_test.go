package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-storefront/pkg/domain"
)

type fakeProducts struct {
	all      []*domain.Product
	searched string
	created  *domain.Product
	update   domain.ProductUpdate
	deleted  []uuid.UUID
}

func (f *fakeProducts) List(context.Context) ([]*domain.Product, error) { return f.all, nil }

func (f *fakeProducts) ListFeatured(context.Context) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.all {
		if p.Featured {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) ListByCategory(_ context.Context, categoryID uuid.UUID) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range f.all {
		if p.CategoryID != nil && *p.CategoryID == categoryID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProducts) Search(_ context.Context, term string) ([]*domain.Product, error) {
	f.searched = term
	return nil, nil
}

func (f *fakeProducts) GetByID(_ context.Context, id uuid.UUID) (*domain.Product, error) {
	for _, p := range f.all {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrProductNotFound
}

func (f *fakeProducts) Create(_ context.Context, p *domain.Product) error {
	f.created = p
	return nil
}

func (f *fakeProducts) Update(ctx context.Context, id uuid.UUID, u domain.ProductUpdate) (*domain.Product, error) {
	f.update = u
	p, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	return p, nil
}

func (f *fakeProducts) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := f.GetByID(ctx, id); err != nil {
		return err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCategories []*domain.Category

func (f fakeCategories) List(context.Context) ([]*domain.Category, error) { return f, nil }

func (f fakeCategories) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	for _, c := range f {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

type fixture struct {
	products *fakeProducts
	category *domain.Category
	phone    *domain.Product
	router   http.Handler
}

func newFixture() *fixture {
	cat := &domain.Category{ID: uuid.New(), Name: "Phones", Slug: "phones"}
	phone := &domain.Product{ID: uuid.New(), Name: "Pixel", Price: "499.00", CategoryID: &cat.ID, Featured: true}
	cable := &domain.Product{ID: uuid.New(), Name: "Cable", Price: "9.99"}
	products := &fakeProducts{all: []*domain.Product{phone, cable}}

	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), products, fakeCategories{cat})
	h.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	h.RegisterRoutes(r, func(next http.Handler) http.Handler { return next })
	return &fixture{products: products, category: cat, phone: phone, router: r}
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(method, path, rdr))
	return rec
}

func TestListProducts(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Cable")

	rec = f.do(http.MethodGet, "/api/products?featured=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pixel")
	assert.NotContains(t, rec.Body.String(), "Cable")
}

func TestSearch(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/products/search?q=%20%20", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Empty(t, f.products.searched)

	rec = f.do(http.MethodGet, "/api/products/search?q=pix", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, "pix", f.products.searched)
}

func TestGetProduct(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/products/"+f.phone.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"499.00"`)

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		rec := f.do(http.MethodGet, "/api/products/"+id, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Product not found"}`, rec.Body.String())
	}
}

func TestCreateProduct(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPost, "/api/products", `{"name":" Tablet ","price":"199.5","stock":4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, f.products.created)
	assert.Equal(t, "Tablet", f.products.created.Name)
	assert.Equal(t, "199.50", f.products.created.Price)
	assert.Equal(t, 2024, f.products.created.CreatedAt.Year())

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing name", body: `{"price":"1.00"}`, want: "Invalid product"},
		{name: "missing price", body: `{"name":"X"}`, want: "Invalid product"},
		{name: "text price", body: `{"name":"X","price":"cheap"}`, want: "Invalid product"},
		{name: "negative stock", body: `{"name":"X","price":"1","stock":-1}`, want: "Invalid product"},
		{name: "negative price", body: `{"name":"X","price":"-1"}`, want: "Invalid price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.JSONEq(t, `{"error":"`+tt.want+`"}`, rec.Body.String())
		})
	}
}

func TestUpdateProduct(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodPatch, "/api/products/"+f.phone.ID.String(), `{"price":"450"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"price":"450.00"`)
	assert.Nil(t, f.products.update.Name)

	rec = f.do(http.MethodPatch, "/api/products/"+f.phone.ID.String(), `{"price":"-3"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPatch, "/api/products/"+uuid.NewString(), `{"stock":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodDelete, "/api/products/"+f.phone.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"message":"Product deleted successfully"}`, rec.Body.String())
	assert.Equal(t, []uuid.UUID{f.phone.ID}, f.products.deleted)

	rec = f.do(http.MethodDelete, "/api/products/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCategories(t *testing.T) {
	f := newFixture()

	rec := f.do(http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"phones"`)

	rec = f.do(http.MethodGet, "/api/categories/"+f.category.ID.String()+"/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Pixel")
	assert.NotContains(t, rec.Body.String(), "Cable")

	rec = f.do(http.MethodGet, "/api/categories/"+uuid.NewString()+"/products", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Category not found"}`, rec.Body.String())
}
