package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/aguaops/ptar-inventory/internal/domain/inuse"
	"github.com/aguaops/ptar-inventory/internal/domain/loans"
	"github.com/aguaops/ptar-inventory/internal/domain/materials"
	"github.com/aguaops/ptar-inventory/internal/domain/movements"
	"github.com/aguaops/ptar-inventory/internal/domain/stats"
	"github.com/aguaops/ptar-inventory/internal/infra/metrics"
	"github.com/aguaops/ptar-inventory/internal/ledger"
	"github.com/aguaops/ptar-inventory/internal/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type Handlers struct {
	materials *materials.Repo
	movements *movements.Repo
	loans     *loans.Repo
	inuse     *inuse.Repo
	stats     *stats.Repo
	log       *slog.Logger
}

func NewHandlers(
	mats *materials.Repo,
	movs *movements.Repo,
	lns *loans.Repo,
	allocs *inuse.Repo,
	st *stats.Repo,
	log *slog.Logger,
) *Handlers {
	return &Handlers{materials: mats, movements: movs, loans: lns, inuse: allocs, stats: st, log: log}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ledger.ErrInvalidQuantity):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrDuplicateCode),
		errors.Is(err, ledger.ErrInsufficientStock),
		errors.Is(err, ledger.ErrAlreadyReturned),
		errors.Is(err, ledger.ErrHasReferences):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error(op+" failed", "err", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

/* Materials */

// materialResponse attaches the derived stock status the UI renders next to
// each material.
type materialResponse struct {
	*materials.Material
	Status materials.Status `json:"status"`
}

func toMaterialResponse(m *materials.Material) materialResponse {
	return materialResponse{Material: m, Status: m.Status()}
}

type materialRequest struct {
	Code        string          `json:"code" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Unit        string          `json:"unit"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinStock    decimal.Decimal `json:"min_stock"`
	Location    string          `json:"location"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Notes       string          `json:"notes"`
	ImagePath   string          `json:"image_path"`
}

func (r materialRequest) attrs() materials.Attrs {
	return materials.Attrs{
		Name:        r.Name,
		Description: r.Description,
		Category:    r.Category,
		Unit:        r.Unit,
		MinStock:    r.MinStock,
		Location:    r.Location,
		UnitCost:    r.UnitCost,
		Notes:       r.Notes,
		ImagePath:   r.ImagePath,
	}
}

func (h *Handlers) CreateMaterial(c *gin.Context) {
	var req materialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.materials.Register(c.Request.Context(), req.Code, req.Quantity, req.attrs())
	if err != nil {
		h.fail(c, "register material", err)
		return
	}
	c.JSON(http.StatusCreated, toMaterialResponse(m))
}

func (h *Handlers) GetMaterial(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	m, err := h.materials.GetByID(c.Request.Context(), id)
	if err != nil {
		h.fail(c, "get material", err)
		return
	}
	c.JSON(http.StatusOK, toMaterialResponse(m))
}

func (h *Handlers) UpdateMaterial(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	// Code and quantity in the body are ignored: the code is immutable and the
	// quantity only moves through movements, loans and allocations.
	var req materialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	m, err := h.materials.Update(c.Request.Context(), id, req.attrs())
	if err != nil {
		h.fail(c, "update material", err)
		return
	}
	c.JSON(http.StatusOK, toMaterialResponse(m))
}

func (h *Handlers) DeleteMaterial(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := h.materials.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, "delete material", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ListMaterials(c *gin.Context) {
	f := materials.Filter{
		Category:   c.Query("category"),
		Location:   c.Query("location"),
		Status:     materials.Status(c.Query("status")),
		SearchText: c.Query("q"),
	}
	mats, err := h.materials.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "list materials", err)
		return
	}
	out := make([]materialResponse, 0, len(mats))
	for i := range mats {
		out = append(out, toMaterialResponse(&mats[i]))
	}
	c.JSON(http.StatusOK, out)
}

/* Movements */

type movementRequest struct {
	MaterialID   int64           `json:"material_id" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	Counterparty string          `json:"counterparty"`
	Responsible  string          `json:"responsible"`
	Notes        string          `json:"notes"`
}

func (h *Handlers) RecordInbound(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mv, err := h.movements.RecordInbound(c.Request.Context(), req.MaterialID, req.Quantity, req.Counterparty, req.Responsible, req.Notes)
	metrics.ObserveStockOp("inbound", err)
	if err != nil {
		h.fail(c, "record inbound", err)
		return
	}
	c.JSON(http.StatusCreated, mv)
}

func (h *Handlers) RecordOutbound(c *gin.Context) {
	var req movementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	mv, err := h.movements.RecordOutbound(c.Request.Context(), req.MaterialID, req.Quantity, req.Counterparty, req.Responsible, req.Notes)
	metrics.ObserveStockOp("outbound", err)
	if err != nil {
		h.fail(c, "record outbound", err)
		return
	}
	c.JSON(http.StatusCreated, mv)
}

// parseDay reads a YYYY-MM-DD query parameter. For the upper bound the
// following midnight is returned so the day itself stays included.
func parseDay(c *gin.Context, name string, endOfDay bool) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + " date, expected YYYY-MM-DD"})
		return nil, false
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1)
	}
	return &t, true
}

func (h *Handlers) ListMovements(c *gin.Context) {
	from, ok := parseDay(c, "from", false)
	if !ok {
		return
	}
	to, ok := parseDay(c, "to", true)
	if !ok {
		return
	}
	f := movements.Filter{
		Direction: movements.Direction(c.Query("direction")),
		From:      from,
		To:        to,
	}
	movs, err := h.movements.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, "list movements", err)
		return
	}
	c.JSON(http.StatusOK, movs)
}

/* Loans */

type loanRequest struct {
	MaterialID int64           `json:"material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
	Borrower   string          `json:"borrower"`
	Area       string          `json:"area"`
	Notes      string          `json:"notes"`
}

type loanResponse struct {
	*loans.Loan
	Status loans.Status `json:"status"`
}

func (h *Handlers) OpenLoan(c *gin.Context) {
	var req loanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	l, err := h.loans.Open(c.Request.Context(), req.MaterialID, req.Quantity, req.Borrower, req.Area, req.Notes)
	metrics.ObserveStockOp("loan_open", err)
	if err != nil {
		h.fail(c, "open loan", err)
		return
	}
	c.JSON(http.StatusCreated, loanResponse{Loan: l, Status: l.Status()})
}

func (h *Handlers) ReturnLoan(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	l, err := h.loans.Return(c.Request.Context(), id)
	metrics.ObserveStockOp("loan_return", err)
	if err != nil {
		h.fail(c, "return loan", err)
		return
	}
	c.JSON(http.StatusOK, loanResponse{Loan: l, Status: l.Status()})
}

func (h *Handlers) ListLoans(c *gin.Context) {
	lns, err := h.loans.List(c.Request.Context(), loans.Status(c.Query("status")))
	if err != nil {
		h.fail(c, "list loans", err)
		return
	}
	type item struct {
		loans.WithMaterial
		Status loans.Status `json:"status"`
	}
	out := make([]item, 0, len(lns))
	for _, l := range lns {
		out = append(out, item{WithMaterial: l, Status: l.Status()})
	}
	c.JSON(http.StatusOK, out)
}

/* In-use allocations */

type allocationRequest struct {
	MaterialID  int64           `json:"material_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	Equipment   string          `json:"equipment"`
	Responsible string          `json:"responsible"`
	Notes       string          `json:"notes"`
}

func (h *Handlers) Allocate(c *gin.Context) {
	var req allocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	a, err := h.inuse.Allocate(c.Request.Context(), req.MaterialID, req.Quantity, req.Equipment, req.Responsible, req.Notes)
	metrics.ObserveStockOp("allocate", err)
	if err != nil {
		h.fail(c, "allocate in-use", err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

func (h *Handlers) ListInUse(c *gin.Context) {
	allocs, err := h.inuse.List(c.Request.Context())
	if err != nil {
		h.fail(c, "list in-use", err)
		return
	}
	c.JSON(http.StatusOK, allocs)
}

/* Statistics */

func (h *Handlers) Stats(c *gin.Context) {
	s, err := h.stats.Summary(c.Request.Context())
	if err != nil {
		h.fail(c, "stats", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

/* Reports */

func (h *Handlers) sendReport(c *gin.Context, report string, data []byte) {
	metrics.ReportDownloads.WithLabelValues(report).Inc()
	name := fmt.Sprintf("%s_%s.xlsx", report, time.Now().Format("20060102_150405"))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *Handlers) InventoryReport(c *gin.Context) {
	mats, err := h.materials.List(c.Request.Context(), materials.Filter{})
	if err != nil {
		h.fail(c, "inventory report", err)
		return
	}
	data, err := reports.Inventory(mats)
	if err != nil {
		h.fail(c, "inventory report", err)
		return
	}
	h.sendReport(c, "inventory", data)
}

func (h *Handlers) LowStockReport(c *gin.Context) {
	mats, err := h.materials.ListBelowMinimum(c.Request.Context())
	if err != nil {
		h.fail(c, "low stock report", err)
		return
	}
	data, err := reports.LowStock(mats)
	if err != nil {
		h.fail(c, "low stock report", err)
		return
	}
	h.sendReport(c, "low_stock", data)
}

func (h *Handlers) MovementsReport(c *gin.Context) {
	from, ok := parseDay(c, "from", false)
	if !ok {
		return
	}
	to, ok := parseDay(c, "to", true)
	if !ok {
		return
	}
	movs, err := h.movements.List(c.Request.Context(), movements.Filter{From: from, To: to})
	if err != nil {
		h.fail(c, "movements report", err)
		return
	}
	data, err := reports.Movements(movs)
	if err != nil {
		h.fail(c, "movements report", err)
		return
	}
	h.sendReport(c, "movements", data)
}
