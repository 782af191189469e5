package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type Server struct {
	inventory *Inventory
	log       *logrus.Logger
}

func NewServer(inventory *Inventory, log *logrus.Logger) *Server {
	return &Server{inventory: inventory, log: log}
}

// Routes mirrors the JSON server layout the storefront expects.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/products", s.listProducts)
	r.Get("/products/{id}", s.getProduct)
	r.Get("/stock/{id}", s.getStock)
	return r
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.inventory.Products())
}

func (s *Server) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	product, err := s.inventory.Product(id)
	if errors.Is(err, ErrProductNotFound) {
		s.respondJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	s.respondJSON(w, http.StatusOK, product)
}

func (s *Server) getStock(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	stock, err := s.inventory.Stock(id)
	if errors.Is(err, ErrProductNotFound) {
		s.respondJSON(w, http.StatusNotFound, map[string]string{})
		return
	}
	s.respondJSON(w, http.StatusOK, stock)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.WithError(err).Error("failed to encode response")
	}
}
