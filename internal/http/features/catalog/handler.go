package catalog

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tendant/simple-storefront/internal/http/features/common"
	"github.com/tendant/simple-storefront/internal/httputil"
	"github.com/tendant/simple-storefront/pkg/domain"
)

// Products is the product store. *repository.ProductsRepository implements it.
type Products interface {
	List(ctx context.Context) ([]*domain.Product, error)
	ListFeatured(ctx context.Context) ([]*domain.Product, error)
	ListByCategory(ctx context.Context, categoryID uuid.UUID) ([]*domain.Product, error)
	Search(ctx context.Context, term string) ([]*domain.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	Create(ctx context.Context, p *domain.Product) error
	Update(ctx context.Context, id uuid.UUID, u domain.ProductUpdate) (*domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Categories is the category store. *repository.CategoriesRepository implements it.
type Categories interface {
	List(ctx context.Context) ([]*domain.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

// Handler handles catalog endpoints.
type Handler struct {
	logger     *slog.Logger
	products   Products
	categories Categories
	validate   *validator.Validate
	now        func() time.Time
}

// NewHandler creates a new catalog handler.
func NewHandler(logger *slog.Logger, products Products, categories Categories) *Handler {
	return &Handler{
		logger:     logger,
		products:   products,
		categories: categories,
		validate:   validator.New(),
		now:        time.Now,
	}
}

// CreateProductRequest represents a new product.
type CreateProductRequest struct {
	Name        string     `json:"name" validate:"required,max=200"`
	Brand       string     `json:"brand" validate:"max=100"`
	Description string     `json:"description" validate:"max=5000"`
	Price       string     `json:"price" validate:"required,numeric"`
	ImageURL    string     `json:"imageUrl" validate:"max=1000"`
	CategoryID  *uuid.UUID `json:"categoryId"`
	Stock       int        `json:"stock" validate:"min=0"`
	Featured    bool       `json:"featured"`
}

// DeleteResponse acknowledges a deleted product.
type DeleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListProducts returns the catalog. ?featured=true narrows it to featured
// products.
// GET /api/products
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	list := h.products.List
	if r.URL.Query().Get("featured") == "true" {
		list = h.products.ListFeatured
	}
	products, err := list(r.Context())
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	writeProducts(w, products)
}

// Search matches name, brand and description. An empty query matches nothing.
// GET /api/products/search?q=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeProducts(w, nil)
		return
	}
	products, err := h.products.Search(r.Context(), q)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	writeProducts(w, products)
}

// GetProduct returns one product.
// GET /api/products/{id}
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrProductNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	product, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// CreateProduct adds a product.
// POST /api/products
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid product")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		httputil.Error(w, http.StatusBadRequest, "Invalid price")
		return
	}

	product := &domain.Product{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Brand:       strings.TrimSpace(req.Brand),
		Description: req.Description,
		Price:       price.StringFixed(2),
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
		Stock:       req.Stock,
		Featured:    req.Featured,
		CreatedAt:   h.now(),
	}
	if err := h.products.Create(r.Context(), product); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// UpdateProduct applies a partial product update.
// PATCH /api/products/{id}
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrProductNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	var req domain.ProductUpdate
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteDecodeError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "Invalid product")
		return
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			httputil.Error(w, http.StatusBadRequest, "Invalid price")
			return
		}
		fixed := price.StringFixed(2)
		req.Price = &fixed
	}

	product, err := h.products.Update(r.Context(), id, req)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product.
// DELETE /api/products/{id}
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrProductNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if err := h.products.Delete(r.Context(), id); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	h.logger.Info("product deleted", "product_id", id)
	httputil.JSON(w, http.StatusOK, DeleteResponse{Success: true, Message: "Product deleted successfully"})
}

// ListCategories returns every category.
// GET /api/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.categories.List(r.Context())
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if categories == nil {
		categories = []*domain.Category{}
	}
	httputil.JSON(w, http.StatusOK, categories)
}

// CategoryProducts lists the products of one category.
// GET /api/categories/{id}/products
func (h *Handler) CategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, err := common.URLParamID(r, "id", domain.ErrCategoryNotFound)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	if _, err := h.categories.GetByID(r.Context(), id); err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	products, err := h.products.ListByCategory(r.Context(), id)
	if err != nil {
		common.WriteError(w, r, h.logger, err)
		return
	}
	writeProducts(w, products)
}

// RegisterRoutes registers catalog routes. requireAdmin guards the
// product mutations.
func (h *Handler) RegisterRoutes(r chi.Router, requireAdmin func(http.Handler) http.Handler) {
	r.Get("/api/products", h.ListProducts)
	r.Get("/api/products/search", h.Search)
	r.Get("/api/products/{id}", h.GetProduct)
	r.Get("/api/categories", h.ListCategories)
	r.Get("/api/categories/{id}/products", h.CategoryProducts)

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Post("/api/products", h.CreateProduct)
		r.Patch("/api/products/{id}", h.UpdateProduct)
		r.Delete("/api/products/{id}", h.DeleteProduct)
	})
}

func writeProducts(w http.ResponseWriter, products []*domain.Product) {
	if products == nil {
		products = []*domain.Product{}
	}
	httputil.JSON(w, http.StatusOK, products)
}
