package products

import (
	"errors"
	"net/http"

	"itinera/logx"
	"itinera/models"
	"itinera/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	Catalog Catalog
}

func NewHandler(c Catalog) *Handler {
	return &Handler{Catalog: c}
}

// GetProductDetails serves one library item.
func (h *Handler) GetProductDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	product, err := h.Catalog.Get(r.Context(), ps.ByName("id"))
	if errors.Is(err, ErrNotFound) {
		utils.RespondWithError(w, http.StatusNotFound, "Product not found")
		return
	}
	if err != nil {
		logx.Error("get product", err, "id", ps.ByName("id"))
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, product)
}

// ListProducts serves the library, optionally filtered by ?type= and ?search=.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	opts := utils.ParseQueryOptions(r)
	f := Filter{Search: opts.Search, Skip: opts.Skip(), Limit: int64(opts.Limit)}
	if opts.Type != "" {
		pt := models.ProductType(opts.Type)
		if !pt.Valid() {
			utils.RespondWithError(w, http.StatusBadRequest, "Invalid product type")
			return
		}
		f.Type = pt
	}
	list, err := h.Catalog.List(r.Context(), f)
	if err != nil {
		logx.Error("list products", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}
