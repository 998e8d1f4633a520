package handler

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/suryasblaze/be-stock-recon/internal/errors"
	"github.com/suryasblaze/be-stock-recon/internal/logger"
	"github.com/suryasblaze/be-stock-recon/internal/repository"
	"github.com/suryasblaze/be-stock-recon/internal/service"
)

// HTTPHandler handles HTTP requests
type HTTPHandler struct {
	stock       *service.StockService
	adjustments *service.AdjustmentService
	urgent      *service.UrgentPurchaseService
	stockTakes  *service.StockTakeService
	documents   *service.DocumentService
	validate    *validator.Validate
	log         *logger.Logger
}

// NewHTTPHandler creates a new HTTP handler
func NewHTTPHandler(
	stock *service.StockService,
	adjustments *service.AdjustmentService,
	urgent *service.UrgentPurchaseService,
	stockTakes *service.StockTakeService,
	documents *service.DocumentService,
	log *logger.Logger,
) *HTTPHandler {
	return &HTTPHandler{
		stock:       stock,
		adjustments: adjustments,
		urgent:      urgent,
		stockTakes:  stockTakes,
		documents:   documents,
		validate:    validator.New(),
		log:         log,
	}
}

// ── Documents ────────────────────────────────────────────────────────────────

// ParseDocument structures raw extracted text into matched line items.
func (h *HTTPHandler) ParseDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RawText string `json:"raw_text" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	doc, err := h.documents.ParseText(r.Context(), req.RawText)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, doc)
}

// ProcessDocument stores a slip/invoice image, extracts it, and returns the
// structured, catalog-matched result.
func (h *HTTPHandler) ProcessDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ImageBase64 string `json:"image_base64" validate:"required"`
		ContentType string `json:"content_type" validate:"required"`
		StorePrefix string `json:"store_prefix"`
		Filename    string `json:"filename"`
		Structured  bool   `json:"structured"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.ImageBase64)
	if err != nil {
		h.writeError(w, r, errors.InvalidInput("image_base64", "is not valid base64"))
		return
	}

	if req.StorePrefix == "" {
		req.StorePrefix = "documents"
	}
	if req.Filename == "" {
		req.Filename = "upload"
	}

	result, err := h.documents.ProcessImage(r.Context(), service.ProcessImageRequest{
		ImageData:   data,
		ContentType: req.ContentType,
		StorePrefix: req.StorePrefix,
		Filename:    req.Filename,
		Structured:  req.Structured,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// DocumentURL returns a short-lived signed download link for a stored
// document image.
func (h *HTTPHandler) DocumentURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	objectPath := r.URL.Query().Get("path")
	if objectPath == "" {
		http.Error(w, "path is required", http.StatusBadRequest)
		return
	}

	url, err := h.documents.SignedURL(objectPath)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// MatchDescription matches a free-text description against the catalog.
func (h *HTTPHandler) MatchDescription(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		Description string `json:"description" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.documents.MatchDescription(r.Context(), req.Description)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// ── Inventory ────────────────────────────────────────────────────────────────

// GetItem returns an item with its live quantity.
func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := r.URL.Query().Get("id")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}

	item, err := h.stock.GetItem(r.Context(), itemID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"item":      item,
		"low_stock": item.LowStock(),
	})
}

// GetInventoryLog returns the recent audit trail for an item.
func (h *HTTPHandler) GetInventoryLog(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	itemID := r.URL.Query().Get("item_id")
	if itemID == "" {
		http.Error(w, "Item ID is required", http.StatusBadRequest)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := h.stock.GetInventoryLog(r.Context(), itemID, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"total":   len(entries),
	})
}

// AdjustStock applies a direct quantity mutation.
func (h *HTTPHandler) AdjustStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ItemID     string  `json:"item_id" validate:"required"`
		BatchID    *string `json:"batch_id"`
		Delta      int     `json:"delta" validate:"required"`
		ChangeType string  `json:"change_type" validate:"required"`
		ActorID    string  `json:"actor_id" validate:"required"`
		Notes      *string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	entry, err := h.stock.AdjustQuantity(r.Context(), service.AdjustQuantityRequest{
		ItemID:     req.ItemID,
		BatchID:    req.BatchID,
		Delta:      req.Delta,
		ChangeType: repository.ChangeType(req.ChangeType),
		ActorID:    req.ActorID,
		Notes:      req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

// ReceiveStock receives goods against a purchase-order line.
func (h *HTTPHandler) ReceiveStock(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		LineID        string  `json:"line_id" validate:"required"`
		Quantity      int     `json:"quantity" validate:"required,gt=0"`
		BatchNumber   *string `json:"batch_number"`
		ExpiryDate    *string `json:"expiry_date"`
		PurchasePrice *int64  `json:"purchase_price"`
		ReceiverID    string  `json:"receiver_id" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	batchID, err := h.stock.ReceiveOrderLine(r.Context(), service.ReceiveLineRequest{
		LineID:        req.LineID,
		Quantity:      req.Quantity,
		BatchNumber:   req.BatchNumber,
		ExpiryDate:    req.ExpiryDate,
		PurchasePrice: req.PurchasePrice,
		ReceiverID:    req.ReceiverID,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"batch_id": batchID})
}

// ── Adjustment requests ──────────────────────────────────────────────────────

// SubmitAdjustment creates a pending decrease request.
func (h *HTTPHandler) SubmitAdjustment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ItemID         string   `json:"item_id" validate:"required"`
		BatchID        *string  `json:"batch_id"`
		Quantity       int      `json:"quantity" validate:"required,gt=0"`
		Reason         string   `json:"reason" validate:"required"`
		Notes          string   `json:"notes" validate:"required"`
		PhotoPath      *string  `json:"photo_path"`
		RequesterID    string   `json:"requester_id" validate:"required"`
		ApproverRole   *string  `json:"approver_role"`
		ApproverEmails []string `json:"approver_emails" validate:"omitempty,dive,email"`
		IssueToken     bool     `json:"issue_token"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.adjustments.Submit(r.Context(), service.SubmitAdjustmentRequest{
		ItemID:         req.ItemID,
		BatchID:        req.BatchID,
		Quantity:       req.Quantity,
		Reason:         repository.AdjustmentReason(req.Reason),
		Notes:          req.Notes,
		PhotoPath:      req.PhotoPath,
		RequesterID:    req.RequesterID,
		ApproverRole:   req.ApproverRole,
		ApproverEmails: req.ApproverEmails,
		IssueToken:     req.IssueToken,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, record)
}

// GetAdjustment returns a single adjustment request.
func (h *HTTPHandler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Request ID is required", http.StatusBadRequest)
		return
	}

	record, err := h.adjustments.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// ListAdjustments returns adjustment requests with optional filters.
func (h *HTTPHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := optionalQuery(r, "status")
	itemID := optionalQuery(r, "item_id")
	page, pageSize := pagination(r)

	records, total, err := h.adjustments.List(r.Context(), status, itemID, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"requests": records,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// ReviewAdjustment approves or rejects a pending request in-app.
func (h *HTTPHandler) ReviewAdjustment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RequestID string  `json:"request_id" validate:"required"`
		ActorID   string  `json:"actor_id" validate:"required"`
		Decision  string  `json:"decision" validate:"required,oneof=approved rejected"`
		Notes     *string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.adjustments.Review(r.Context(), req.RequestID, req.ActorID, service.ReviewDecision(req.Decision), req.Notes); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": req.Decision})
}

// VerifyApprovalToken checks an emailed approval link before rendering the
// decision page.
func (h *HTTPHandler) VerifyApprovalToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	token := r.URL.Query().Get("token")
	if id == "" || token == "" {
		http.Error(w, "Request ID and token are required", http.StatusBadRequest)
		return
	}

	record, err := h.adjustments.VerifyApprovalToken(r.Context(), id, token)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, record)
}

// ReviewAdjustmentByToken resolves a request through a single-use link.
func (h *HTTPHandler) ReviewAdjustmentByToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		RequestID     string  `json:"request_id" validate:"required"`
		Token         string  `json:"token" validate:"required"`
		ApproverEmail string  `json:"approver_email" validate:"required,email"`
		Decision      string  `json:"decision" validate:"required,oneof=approved rejected"`
		Notes         *string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.adjustments.ReviewByToken(r.Context(), req.RequestID, req.Token, req.ApproverEmail, service.ReviewDecision(req.Decision), req.Notes); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": req.Decision})
}

// ── Urgent purchases ─────────────────────────────────────────────────────────

type urgentLinePayload struct {
	ItemID      string  `json:"item_id" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	BatchNumber *string `json:"batch_number"`
	ExpiryDate  *string `json:"expiry_date"`
	SlipText    *string `json:"slip_text"`
}

func toLineRequests(lines []urgentLinePayload) []service.UrgentPurchaseLineRequest {
	out := make([]service.UrgentPurchaseLineRequest, 0, len(lines))
	for _, l := range lines {
		out = append(out, service.UrgentPurchaseLineRequest{
			ItemID:      l.ItemID,
			Quantity:    l.Quantity,
			BatchNumber: l.BatchNumber,
			ExpiryDate:  l.ExpiryDate,
			SlipText:    l.SlipText,
		})
	}
	return out
}

// CreateUrgentPurchase creates a draft entry.
func (h *HTTPHandler) CreateUrgentPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		SlipPath      *string             `json:"slip_path"`
		OCRConfidence *float64            `json:"ocr_confidence"`
		ApproverRole  string              `json:"approver_role" validate:"required"`
		RequesterID   string              `json:"requester_id" validate:"required"`
		Lines         []urgentLinePayload `json:"lines" validate:"required,min=1,dive"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	entry, err := h.urgent.CreateDraft(r.Context(), service.CreateDraftRequest{
		SlipPath:      req.SlipPath,
		OCRConfidence: req.OCRConfidence,
		ApproverRole:  req.ApproverRole,
		RequesterID:   req.RequesterID,
		Lines:         toLineRequests(req.Lines),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, entry)
}

// UpdateUrgentPurchaseLines replaces the lines of a draft.
func (h *HTTPHandler) UpdateUrgentPurchaseLines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		EntryID string              `json:"entry_id" validate:"required"`
		ActorID string              `json:"actor_id" validate:"required"`
		Lines   []urgentLinePayload `json:"lines" validate:"required,min=1,dive"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.urgent.UpdateDraftLines(r.Context(), req.EntryID, req.ActorID, toLineRequests(req.Lines)); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

// SubmitUrgentPurchase moves a draft to pending approval.
func (h *HTTPHandler) SubmitUrgentPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		EntryID string `json:"entry_id" validate:"required"`
		ActorID string `json:"actor_id" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.urgent.SubmitForApproval(r.Context(), req.EntryID, req.ActorID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "submitted"})
}

// ReviewUrgentPurchase approves (applying stock) or rejects a pending entry.
func (h *HTTPHandler) ReviewUrgentPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		EntryID  string  `json:"entry_id" validate:"required"`
		ActorID  string  `json:"actor_id" validate:"required"`
		Decision string  `json:"decision" validate:"required,oneof=approved rejected"`
		Notes    *string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.urgent.Review(r.Context(), req.EntryID, req.ActorID, service.ReviewDecision(req.Decision), req.Notes); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": req.Decision})
}

// GetUrgentPurchase returns an entry with its lines.
func (h *HTTPHandler) GetUrgentPurchase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Entry ID is required", http.StatusBadRequest)
		return
	}

	entry, err := h.urgent.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, entry)
}

// ListUrgentPurchases returns entries filtered by status.
func (h *HTTPHandler) ListUrgentPurchases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	status := optionalQuery(r, "status")
	page, pageSize := pagination(r)

	entries, total, err := h.urgent.List(r.Context(), status, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries":  entries,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}

// ── Stock takes ──────────────────────────────────────────────────────────────

// RecordStockTake records a physical count.
func (h *HTTPHandler) RecordStockTake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		ItemID          string  `json:"item_id" validate:"required"`
		CountedQuantity int     `json:"counted_quantity" validate:"gte=0"`
		CounterID       string  `json:"counter_id" validate:"required"`
		Notes           *string `json:"notes"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	rec, err := h.stockTakes.RecordCount(r.Context(), service.RecordCountRequest{
		ItemID:          req.ItemID,
		CountedQuantity: req.CountedQuantity,
		CounterID:       req.CounterID,
		Notes:           req.Notes,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, rec)
}

// ResolveStockTake closes a variance record.
func (h *HTTPHandler) ResolveStockTake(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		StockTakeID string `json:"stock_take_id" validate:"required"`
		ActorID     string `json:"actor_id" validate:"required"`
	}
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.stockTakes.ResolveVariance(r.Context(), req.StockTakeID, req.ActorID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}

// ListStockTakes returns count records, optionally only unresolved ones.
func (h *HTTPHandler) ListStockTakes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if id := r.URL.Query().Get("id"); id != "" {
		rec, err := h.stockTakes.Get(r.Context(), id)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		h.writeJSON(w, http.StatusOK, rec)
		return
	}

	unresolvedOnly := r.URL.Query().Get("unresolved") == "true"
	page, pageSize := pagination(r)

	records, total, err := h.stockTakes.List(r.Context(), unresolvedOnly, page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"stock_takes": records,
		"total":       total,
		"page":        page,
		"pageSize":    pageSize,
	})
}

// Health reports service liveness.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ── Helpers ──────────────────────────────────────────────────────────────────

// decode parses and validates a JSON request body, writing the error
// response itself on failure.
func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		h.writeError(w, r, errors.Wrap(err, errors.ErrCodeValidation, "request validation failed"))
		return false
	}
	return true
}

func (h *HTTPHandler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.CodeOf(err)
	status := statusFromCode(code)

	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
	}

	h.writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":    string(code),
			"message": err.Error(),
		},
	})
}

func statusFromCode(code errors.Code) int {
	switch code {
	case errors.ErrCodeValidation:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeUnauthorized:
		return http.StatusForbidden
	case errors.ErrCodeTokenInvalid:
		return http.StatusUnauthorized
	case errors.ErrCodeConflict, errors.ErrCodeAlreadyResolved, errors.ErrCodeInsufficientStock:
		return http.StatusConflict
	case errors.ErrCodeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func optionalQuery(r *http.Request, key string) *string {
	if v := r.URL.Query().Get(key); v != "" {
		return &v
	}
	return nil
}

func pagination(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 50
	}
	return page, pageSize
}
