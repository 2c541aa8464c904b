package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"scanstock-backend/internal/domain"
	"scanstock-backend/internal/report"
	"scanstock-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type SaleHandler struct {
	Service    *service.SaleService
	Businesses *service.BusinessService
}

func (h SaleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/sales", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/", h.list)
		r.Get("/statistics", h.statistics)
		r.Get("/export", h.export)
		r.Get("/{id}", h.get)
		r.Get("/{id}/receipt", h.receipt)
		r.Patch("/{id}", h.update)
		r.Patch("/{id}/cancel", h.cancel)
		r.Patch("/{id}/refund", h.refund)
	})
}

func (h SaleHandler) create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req struct {
		Items []struct {
			ProductID int64           `json:"productId"`
			Quantity  int             `json:"quantity"`
			Price     decimal.Decimal `json:"price"`
		} `json:"items"`
		Total        decimal.Decimal `json:"total"`
		CustomerInfo *struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		} `json:"customerInfo"`
		Notes         string `json:"notes"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in := service.CreateSaleInput{
		Items:         make([]service.SaleItemInput, 0, len(req.Items)),
		Total:         req.Total,
		Notes:         req.Notes,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
	}
	if c := req.CustomerInfo; c != nil {
		in.CustomerName = c.Name
		in.CustomerEmail = c.Email
		in.CustomerPhone = c.Phone
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, service.SaleItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	sale, err := h.Service.Create(r.Context(), user.ID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saleJSON(*sale))
}

func (h SaleHandler) list(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	f, ok := saleFilter(w, r)
	if !ok {
		return
	}
	sales, err := h.Service.FindAll(r.Context(), user.ID, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := make([]map[string]any, 0, len(sales))
	for _, s := range sales {
		resp = append(resp, saleJSON(s))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h SaleHandler) statistics(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	start, end, ok := parseDateRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end must be RFC 3339 timestamps or YYYY-MM-DD dates")
		return
	}
	st, err := h.Service.Statistics(r.Context(), user.ID, start, end)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"totalSales":   st.TotalSales,
		"totalRevenue": money(st.TotalRevenue),
	})
}

func (h SaleHandler) export(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	f, ok := saleFilter(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "xlsx" {
		writeError(w, http.StatusBadRequest, "format must be csv or xlsx")
		return
	}
	sales, err := h.Service.FindAll(r.Context(), user.ID, f)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var (
		body        []byte
		contentType string
	)
	switch format {
	case "xlsx":
		body, err = report.SalesXLSX(sales)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		body, err = report.SalesCSV(sales)
		contentType = "text/csv"
	}
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("render sales %s: %w", format, err))
		return
	}
	filename := fmt.Sprintf("sales-%s.%s", time.Now().UTC().Format("20060102-150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h SaleHandler) get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.Service.FindOne(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saleJSON(*sale))
}

func (h SaleHandler) receipt(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sale, err := h.Service.FindOne(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	business, err := h.business(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	body, err := report.ReceiptPDF(*sale, business)
	if err != nil {
		writeServiceError(w, r, fmt.Errorf("render receipt: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "inline; filename="+sale.ReceiptNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// business returns the owner's business profile, or nil when none exists.
func (h SaleHandler) business(ctx context.Context, ownerID int64) (*domain.Business, error) {
	if h.Businesses == nil {
		return nil, nil
	}
	b, err := h.Businesses.FindByOwner(ctx, ownerID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return b, err
}

func (h SaleHandler) update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Notes         *string `json:"notes"`
		PaymentMethod *string `json:"paymentMethod"`
		Status        *string `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	in := service.UpdateSaleInput{Notes: req.Notes}
	if req.PaymentMethod != nil {
		m := domain.PaymentMethod(*req.PaymentMethod)
		in.PaymentMethod = &m
	}
	if req.Status != nil {
		s := domain.SaleStatus(*req.Status)
		in.Status = &s
	}
	sale, err := h.Service.Update(r.Context(), user.ID, id, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saleJSON(*sale))
}

func (h SaleHandler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Cancel)
}

func (h SaleHandler) refund(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Refund)
}

func (h SaleHandler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, int64) (*domain.Sale, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	sale, err := apply(r.Context(), user.ID, id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saleJSON(*sale))
}

func saleFilter(w http.ResponseWriter, r *http.Request) (domain.SaleFilter, bool) {
	start, end, ok := parseDateRange(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "start and end must be RFC 3339 timestamps or YYYY-MM-DD dates")
		return domain.SaleFilter{}, false
	}
	return domain.SaleFilter{
		Start:  start,
		End:    end,
		Status: domain.SaleStatus(r.URL.Query().Get("status")),
	}, true
}
