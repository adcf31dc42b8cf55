package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"retailpos/m/domain"
	"retailpos/m/internal/catalog"
	"retailpos/m/internal/sales"
)

// Handler bundles dependencies for HTTP handlers.
type Handler struct {
	store  *catalog.Store
	engine *sales.Engine
	logger *zap.Logger
}

// New constructs a Handler.
func New(store *catalog.Store, engine *sales.Engine, logger *zap.Logger) *Handler {
	return &Handler{store: store, engine: engine, logger: logger}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", h.health)
	r.Get("/dashboard", h.dashboard)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.listProducts)
		r.Post("/", h.createProduct)
		r.Put("/{id}", h.updateProduct)
	})

	r.Route("/customers", func(r chi.Router) {
		r.Get("/", h.listCustomers)
		r.Post("/", h.createCustomer)
	})

	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.createSale)
		r.Get("/{id}/receipt", h.saleReceipt)
	})

	// Narrow price-lookup endpoint used by external callers to validate
	// prices before submitting a sale.
	r.Get("/api/products/{id}", h.productPrice)

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Product handlers

type productRequest struct {
	SKU          *string         `json:"sku,omitempty"`
	Name         string          `json:"name"`
	Description  *string         `json:"description,omitempty"`
	CostPrice    decimal.Decimal `json:"cost_price"`
	SellingPrice decimal.Decimal `json:"selling_price"`
	Quantity     int64           `json:"quantity"`
}

func (req *productRequest) validate() string {
	if req.Name == "" {
		return "name is required"
	}
	if req.CostPrice.IsNegative() || req.SellingPrice.IsNegative() {
		return "cost_price and selling_price must not be negative"
	}
	if req.Quantity < 0 {
		return "quantity must not be negative"
	}
	return ""
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	product, err := h.store.CreateProduct(r.Context(), domain.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Quantity:     req.Quantity,
	})
	if err != nil {
		h.logger.Error("create product failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to create product")
		return
	}
	respondJSON(w, http.StatusCreated, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := req.validate(); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}
	product, err := h.store.UpdateProduct(r.Context(), domain.Product{
		ID:           id,
		SKU:          req.SKU,
		Name:         req.Name,
		Description:  req.Description,
		CostPrice:    req.CostPrice,
		SellingPrice: req.SellingPrice,
		Quantity:     req.Quantity,
	})
	if errors.Is(err, domain.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "product not found")
		return
	}
	if err != nil {
		h.logger.Error("update product failed", zap.Int64("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to update product")
		return
	}
	respondJSON(w, http.StatusOK, product)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.store.ListProducts(r.Context())
	if err != nil {
		h.logger.Error("list products failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to list products")
		return
	}
	respondJSON(w, http.StatusOK, products)
}

func (h *Handler) productPrice(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	quote, err := h.store.PriceQuote(r.Context(), id)
	if errors.Is(err, domain.ErrProductNotFound) {
		respondError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		h.logger.Error("price lookup failed", zap.Int64("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to load product")
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// Customer handlers

type customerRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	customer, err := h.store.CreateCustomer(r.Context(), domain.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		h.logger.Error("create customer failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to create customer")
		return
	}
	respondJSON(w, http.StatusCreated, customer)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("list customers failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to list customers")
		return
	}
	respondJSON(w, http.StatusOK, customers)
}

// Sale handlers

type saleRequest struct {
	CustomerID int64               `json:"customer_id"`
	Items      []sales.LineRequest `json:"items"`
}

func (h *Handler) createSale(w http.ResponseWriter, r *http.Request) {
	var req saleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	receipt, err := h.engine.CreateSale(r.Context(), req.CustomerID, req.Items)
	if err != nil {
		h.respondSaleError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, receipt)
}

func (h *Handler) respondSaleError(w http.ResponseWriter, err error) {
	var stockErr *domain.InsufficientStockError
	switch {
	case errors.Is(err, domain.ErrEmptySale), errors.Is(err, domain.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCustomerNotFound), errors.Is(err, domain.ErrProductNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &stockErr):
		respondJSON(w, http.StatusConflict, map[string]any{
			"error":     stockErr.Error(),
			"product":   stockErr.ProductName,
			"requested": stockErr.Requested,
			"available": stockErr.Available,
		})
	case errors.Is(err, domain.ErrInvoiceConflict):
		respondError(w, http.StatusServiceUnavailable, "unable to assign invoice number, retry later")
	default:
		h.logger.Error("create sale failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to create sale")
	}
}

func (h *Handler) saleReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid sale id")
		return
	}
	receipt, err := h.store.Receipt(r.Context(), id)
	if errors.Is(err, domain.ErrSaleNotFound) {
		respondError(w, http.StatusNotFound, "sale not found")
		return
	}
	if err != nil {
		h.logger.Error("load receipt failed", zap.Int64("id", id), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to load receipt")
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// Dashboard

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.store.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("dashboard failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "unable to load dashboard")
		return
	}
	respondJSON(w, http.StatusOK, d)
}

// Helpers

func decodeJSON(r *http.Request, dest interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
