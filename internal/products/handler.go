package products

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"
	"github.com/2beens/fittracker/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type productsRepo interface {
	List(ctx context.Context, search string, offset *int) (*ListResult, error)
	Add(ctx context.Context, params AddParams) (*Product, error)
	DeleteByID(ctx context.Context, id int) error
}

type DeleteProductResponse struct {
	DeletedID int `json:"deletedId"`
}

type Handler struct {
	repo productsRepo
}

func NewHandler(repo productsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.list")
	defer span.End()

	search := r.URL.Query().Get("q")

	var offset *int
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		parsedOffset, err := strconv.Atoi(offsetStr)
		if err != nil {
			http.Error(w, "error, offset NaN", http.StatusBadRequest)
			return
		}
		if parsedOffset < 0 {
			http.Error(w, "error, offset negative", http.StatusBadRequest)
			return
		}
		offset = &parsedOffset
	}

	result, err := handler.repo.List(ctx, search, offset)
	if err != nil {
		fitness.WriteStoreError(w, err, "list products")
		return
	}

	resultJson, err := json.Marshal(result)
	if err != nil {
		log.Errorf("failed to marshal products: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resultJson, http.StatusOK)
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.add")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var params AddParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		log.Tracef("new product, unmarshal json params: %s", err)
		http.Error(w, "add product failed", http.StatusBadRequest)
		return
	}

	product, err := handler.repo.Add(ctx, params)
	if err != nil {
		fitness.WriteStoreError(w, err, "add product")
		return
	}

	productJson, err := json.Marshal(product)
	if err != nil {
		log.Errorf("failed to marshal product: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, productJson, http.StatusCreated)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.products.delete")
	defer span.End()

	idStr := mux.Vars(r)["id"]
	if idStr == "" {
		http.Error(w, "error, id empty", http.StatusBadRequest)
		return
	}
	id, err := strconv.Atoi(idStr)
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.DeleteByID(ctx, id); err != nil {
		fitness.WriteStoreError(w, err, "delete product")
		return
	}

	deleteRespJson, err := json.Marshal(DeleteProductResponse{
		DeletedID: id,
	})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
