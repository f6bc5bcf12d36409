// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	perrors "github.com/abgdnv/catalog/internal/errors"
	"github.com/abgdnv/catalog/internal/service"
	"github.com/abgdnv/catalog/internal/store"
	"github.com/abgdnv/catalog/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const defaultPageSize = 20

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new catalog Handler with the provided service.
func NewHandler(service service.CatalogService, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: newValidator(),
		logger:   logger.With("component", "rest"),
	}
}

// newValidator returns a validator that checks decimal.Decimal fields as numbers.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/products", func(r chi.Router) {
		r.Get("/", h.GetPagedProducts)
		r.Post("/", h.Create)
		r.Get("/all", h.GetAllProducts)
		r.Get("/by-name", h.FindByName)
		r.Get("/filter", h.FilterProducts)
		r.Get("/search", h.SearchProducts)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetProductByID)
			r.Put("/", h.Update)
			r.Delete("/", h.DeleteByID)
			r.Get("/comments/count", h.CountComments)
			r.Get("/rating", h.Rating)
			r.Post("/views", h.IncrementViewCount)
		})
	})
	r.Get("/api/v1/categories/{id}/products", h.GetAllByCategory)
	r.Get("/api/v1/manufacturers/{id}/products", h.GetAllByManufacturer)

	r.Get("/healthz", h.HealthCheck)
}

// GetAllProducts returns every product without paging.
func (h *Handler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received request to find all products")
	list, err := h.service.GetAllProducts(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// GetPagedProducts returns one page of products: ?page=0&size=20&sort=price&order=desc.
func (h *Handler) GetPagedProducts(w http.ResponseWriter, r *http.Request) {
	page, ok := h.parsePage(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to find products page", "page", page.Index, "size", page.Size)
	result, err := h.service.GetPagedProducts(r.Context(), page)
	if err != nil {
		h.respondPageError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, result)
}

// GetProductByID retrieves a product by its ID.
func (h *Handler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}

	h.logger.DebugContext(r.Context(), "Received request to find product by ID", "ID", id)
	found, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		h.logger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %d", id))
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved product", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}

// Create handles the creation of a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = 0

	created, err := h.service.AddOrUpdate(r.Context(), product)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create product")
		return
	}
	h.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, h.logger, http.StatusCreated, created)
}

// Update replaces the details of an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to update product", "ID", id)
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}
	product.ID = id

	updated, err := h.service.AddOrUpdate(r.Context(), product)
	if err != nil {
		if errors.Is(err, perrors.ErrProductNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found for update", "ID", id)
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
			return
		}
		h.logger.ErrorContext(r.Context(), "Error updating product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to update product with ID %d", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product updated successfully", "ID", updated.ID, "Name", updated.Name)
	web.RespondJSON(w, h.logger, http.StatusOK, updated)
}

// DeleteByID deletes a product by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to delete product", "ID", id)
	deleted, err := h.service.DeleteByID(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error deleting product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to delete product with ID %d", id))
		return
	}
	if !deleted {
		h.logger.WarnContext(r.Context(), "Product not found for deletion", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %d not found", id))
		return
	}
	h.logger.InfoContext(r.Context(), "Product deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// FindByName returns the products named exactly ?name=.
func (h *Handler) FindByName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		web.RespondError(w, h.logger, http.StatusBadRequest, "name url parameter is required")
		return
	}
	list, err := h.service.FindByName(r.Context(), name)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error finding products by name", "name", name, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// GetAllByCategory returns every product of the category in the path.
func (h *Handler) GetAllByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.service.GetAllByCategory(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error finding products by category", "categoryID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// GetAllByManufacturer returns every product of the manufacturer in the path.
func (h *Handler) GetAllByManufacturer(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	list, err := h.service.GetAllByManufacturer(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error finding products by manufacturer", "manufacturerID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// filterQuery holds the free-form filter parameters checked by the validator.
type filterQuery struct {
	Price []decimal.Decimal `validate:"omitempty,len=2,dive,gte=0"`
	Color string            `validate:"max=50"`
}

// FilterProducts handles ?price=lo&price=hi&color=&category=&manufacturer=&manufacturer=&page=&size=.
func (h *Handler) FilterProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fq := filterQuery{Color: query.Get("color")}
	for _, raw := range query["price"] {
		price, err := decimal.NewFromString(raw)
		if err != nil {
			web.RespondError(w, h.logger, http.StatusBadRequest, fmt.Sprintf("Invalid price: %s", raw))
			return
		}
		fq.Price = append(fq.Price, price)
	}
	if err := h.validate.Struct(fq); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return
	}

	category, ok := web.QueryIntGte(r, w, h.logger, "category", 1, 0)
	if !ok {
		return
	}
	manufacturers, ok := web.QueryIntList(r, w, h.logger, "manufacturer")
	if !ok {
		return
	}
	page, ok := h.parsePage(w, r)
	if !ok {
		return
	}

	criteria := service.FilterCriteria{
		Price:           fq.Price,
		Color:           fq.Color,
		ManufacturerIDs: manufacturers,
	}
	if category > 0 {
		criteria.CategoryID = &category
	}
	h.logger.DebugContext(r.Context(), "Received request to filter products", "criteria", criteria)

	result, err := h.service.FilterProducts(r.Context(), criteria, page)
	if err != nil {
		h.respondPageError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, result)
}

// SearchProducts handles ?keyword=&page=&size=.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if keyword == "" {
		web.RespondError(w, h.logger, http.StatusBadRequest, "keyword url parameter is required")
		return
	}
	page, ok := h.parsePage(w, r)
	if !ok {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to search products", "keyword", keyword)
	result, err := h.service.SearchProducts(r.Context(), keyword, &page)
	if err != nil {
		h.respondPageError(w, r, err)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, result)
}

// CountComments returns the number of comments of a product.
func (h *Handler) CountComments(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	count, err := h.service.CountComments(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error counting comments", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to count comments of product %d", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]int64{"productId": id, "count": count})
}

// RatingResponse is the body of the rating endpoint.
// Rating always carries two decimals, e.g. "4.50" or "0.00".
type RatingResponse struct {
	ProductID int64  `json:"productId"`
	Rating    string `json:"rating"`
}

// Rating returns the average rating of a product.
func (h *Handler) Rating(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	rating, err := h.service.Rating(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error computing rating", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to compute rating of product %d", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, RatingResponse{ProductID: id, Rating: rating.StringFixed(service.RatingScale)})
}

// IncrementViewCount records one view of a product. Unknown products are ignored.
func (h *Handler) IncrementViewCount(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.service.IncrementViewCount(r.Context(), id); err != nil {
		h.logger.ErrorContext(r.Context(), "Error incrementing view count", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to record view of product %d", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) decodeProduct(w http.ResponseWriter, r *http.Request) (service.ProductDto, bool) {
	var product service.ProductDto
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		h.logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return product, false
	}
	if err := h.validate.Struct(product); err != nil {
		web.RespondValidationError(w, r, h.logger, err)
		return product, false
	}
	return product, true
}

// parsePage reads page, size, sort and order. Sort options are checked by the service.
func (h *Handler) parsePage(w http.ResponseWriter, r *http.Request) (store.PageRequest, bool) {
	index, ok := web.QueryIntGte(r, w, h.logger, "page", 0, 0)
	if !ok {
		return store.PageRequest{}, false
	}
	size, ok := web.QueryIntGt(r, w, h.logger, "size", 0, defaultPageSize)
	if !ok {
		return store.PageRequest{}, false
	}
	query := r.URL.Query()
	return store.PageRequest{
		Index:     int(index),
		Size:      int(size),
		SortBy:    query.Get("sort"),
		Direction: store.Direction(strings.ToLower(query.Get("order"))),
	}, true
}

func (h *Handler) respondPageError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, perrors.ErrInvalidPageRequest) {
		h.logger.WarnContext(r.Context(), "Invalid page request", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.ErrorContext(r.Context(), "Error retrieving products page", "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
}
