package cart

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/recordhub/backend/internal/handler/httperr"
	recordsHandler "github.com/zhouzirui/recordhub/backend/internal/handler/records"
	"github.com/zhouzirui/recordhub/backend/internal/model/shop"
	cartService "github.com/zhouzirui/recordhub/backend/internal/service/cart"
	"github.com/zhouzirui/recordhub/backend/internal/validate"
	"github.com/zhouzirui/recordhub/backend/pkg/utils"
)

// Handler 商品目录与购物车的HTTP处理器
type Handler struct {
	cart  *cartService.Service
	lines *recordsHandler.Handler[shop.CartItem, shop.QuantityPatch]
}

// New 创建购物车处理器
func New(cart *cartService.Service) *Handler {
	return &Handler{
		cart:  cart,
		lines: recordsHandler.New[shop.CartItem, shop.QuantityPatch](cart.Lines()),
	}
}

// RegisterRoutes 注册商品与购物车路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/products", h.handleListProducts)
	r.Get("/products/{id}", h.handleGetProduct)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.handleViewCart)
		r.Delete("/", h.handleEmptyCart)
		r.Post("/add", h.handleAdd)
		r.Get("/checkout", h.handleCheckout)
		r.Post("/checkout", h.handleCheckout)

		r.Get("/items", h.handleListItems)
		r.Get("/items/{id}", h.lines.HandleGet)
		r.Patch("/items/{id}", h.lines.HandlePatch)
		r.Delete("/items/{id}", h.lines.HandleDelete)
	})
}

// handleListProducts 列出所有商品
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.cart.Catalog().Products())
}

// handleGetProduct 查询单个商品
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil {
		utils.RespondError(w, http.StatusNotFound, "Product with ID "+raw+" not found")
		return
	}
	product, ok := h.cart.Catalog().Find(id)
	if !ok {
		utils.RespondError(w, http.StatusNotFound, "Product with ID "+raw+" not found")
		return
	}
	utils.RespondJSON(w, http.StatusOK, product)
}

// handleAdd 通过查询参数向购物车添加商品
func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	productID, err := intParam(q.Get("product_id"), "product_id", 0)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	quantity, err := intParam(q.Get("quantity"), "quantity", 1)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}

	result, err := h.cart.Add(r.Context(), productID, quantity)
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}

// handleViewCart 以商品ID为键返回购物车
func (h *Handler) handleViewCart(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.ByProduct(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleListItems 以列表形式返回购物车
func (h *Handler) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.cart.Items(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, items)
}

// handleCheckout 结算并清空购物车
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.cart.Checkout(r.Context())
	if err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, receipt)
}

// handleEmptyCart 清空购物车
func (h *Handler) handleEmptyCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		httperr.Write(w, r, err)
		return
	}
	utils.RespondNoContent(w)
}

func intParam(raw, field string, fallback int) (int, error) {
	if raw == "" {
		if fallback > 0 {
			return fallback, nil
		}
		return 0, validate.Errorf(field, "is required")
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validate.Errorf(field, "must be an integer")
	}
	if v <= 0 {
		return 0, validate.Errorf(field, "must be greater than 0")
	}
	return v, nil
}
