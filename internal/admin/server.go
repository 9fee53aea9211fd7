package admin

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tippingchain/txhistory/internal/domain/model"
	"github.com/tippingchain/txhistory/internal/history"
	"github.com/tippingchain/txhistory/internal/metrics"
	"github.com/tippingchain/txhistory/internal/record"
	"github.com/tippingchain/txhistory/internal/storage"
)

const maxRequestBodyBytes = 1 << 20 // 1 MB

// History is the store surface the admin server depends on. Satisfied by
// *history.Store; tests can provide a fake.
type History interface {
	Add(ctx context.Context, input model.RecordInput) (string, error)
	Update(ctx context.Context, id string, patch model.Patch) error
	Query(ctx context.Context, filter *model.Filter) ([]model.TransactionRecord, error)
	Stats(ctx context.Context, filter *model.Filter) (model.Stats, error)
	Clear(ctx context.Context) error
}

// Server provides an HTTP API over the history store for operational use.
type Server struct {
	history History
	logger  *slog.Logger
}

func NewServer(h History, logger *slog.Logger) *Server {
	return &Server{
		history: h,
		logger:  logger.With("component", "admin"),
	}
}

// Handler returns the HTTP handler for the admin API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /admin/v1/history", s.handleQuery)
	mux.HandleFunc("GET /admin/v1/history/stats", s.handleStats)
	mux.HandleFunc("POST /admin/v1/history", s.handleAdd)
	mux.HandleFunc("POST /admin/v1/history/update", s.handleUpdate)
	mux.HandleFunc("DELETE /admin/v1/history", s.handleClear)
	mux.HandleFunc("GET /admin/v1/health", s.handleHealth)
	return mux
}

// MetricsMiddleware counts requests by method, path, and response code.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.AdminRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.statusCode)).Inc()
	})
}

// writeJSON writes v as JSON with the given HTTP status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSONBody reads and decodes a JSON request body into v.
// Returns false (and writes an error response) if decoding fails.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"error":"invalid JSON body"}`, http.StatusBadRequest)
		return false
	}
	return true
}

// filterFromQuery builds a model.Filter from query params. Absent params and
// the literal "all" leave a dimension unconstrained. Returns false (and
// writes an error response) on an invalid value.
func filterFromQuery(w http.ResponseWriter, r *http.Request) (*model.Filter, bool) {
	q := r.URL.Query()
	f := &model.Filter{}

	if v := q.Get("kind"); v != "" && v != "all" {
		kind := model.TxKind(v)
		if !kind.Valid() {
			http.Error(w, `{"error":"invalid kind value"}`, http.StatusBadRequest)
			return nil, false
		}
		f.Kind = kind
	}
	if v := q.Get("status"); v != "" && v != "all" {
		status := model.TxStatus(v)
		if !status.Valid() {
			http.Error(w, `{"error":"invalid status value"}`, http.StatusBadRequest)
			return nil, false
		}
		f.Status = status
	}
	if v := q.Get("chainId"); v != "" && v != "all" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid chainId value"}`, http.StatusBadRequest)
			return nil, false
		}
		f.ChainID = &id
	}
	if v := q.Get("tokenSymbol"); v != "" && v != "all" {
		f.TokenSymbol = v
	}
	if v := q.Get("creatorId"); v != "" && v != "all" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, `{"error":"invalid creatorId value"}`, http.StatusBadRequest)
			return nil, false
		}
		f.CreatorID = &id
	}

	from, to := q.Get("from"), q.Get("to")
	if from != "" || to != "" {
		dr := &model.DateRange{Start: 0, End: int64(1)<<62 - 1}
		if from != "" {
			start, err := strconv.ParseInt(from, 10, 64)
			if err != nil {
				http.Error(w, `{"error":"invalid from value"}`, http.StatusBadRequest)
				return nil, false
			}
			dr.Start = start
		}
		if to != "" {
			end, err := strconv.ParseInt(to, 10, 64)
			if err != nil {
				http.Error(w, `{"error":"invalid to value"}`, http.StatusBadRequest)
				return nil, false
			}
			dr.End = end
		}
		f.DateRange = dr
	}

	return f, true
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	records, err := s.history.Query(r.Context(), filter)
	if err != nil {
		s.logger.Error("history query failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []model.TransactionRecord{}
	}

	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	filter, ok := filterFromQuery(w, r)
	if !ok {
		return
	}

	stats, err := s.history.Stats(r.Context(), filter)
	if err != nil {
		s.logger.Error("history stats failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

type addRequest struct {
	Kind string `json:"kind"`

	SourceChainID  int64  `json:"sourceChainId"`
	ChainID        int64  `json:"chainId"`
	CreatorID      int64  `json:"creatorId"`
	CreatorWallet  string `json:"creatorWallet"`
	ViewerID       int64  `json:"viewerId"`
	ViewerAddress  string `json:"viewerAddress"`
	TokenSymbol    string `json:"tokenSymbol"`
	TokenAddress   string `json:"tokenAddress"`
	SpenderAddress string `json:"spenderAddress"`
	Amount         string `json:"amount"`
	AmountRaw      string `json:"amountRaw"`
	MembershipTier string `json:"membershipTier"`

	EstimatedUsdValue     string `json:"estimatedUsdValue"`
	EstimatedUsdcReceived string `json:"estimatedUsdcReceived"`
	PlatformFee           string `json:"platformFee"`
	PlatformFeeUsd        string `json:"platformFeeUsd"`
	RelayFee              string `json:"relayFee"`
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req addRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	input, err := buildInput(req)
	if err != nil {
		if errors.Is(err, record.ErrValidation) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		http.Error(w, `{"error":"unknown kind"}`, http.StatusBadRequest)
		return
	}

	id, err := s.history.Add(r.Context(), input)
	if err != nil {
		s.logger.Error("history add failed", "error", err, "kind", req.Kind)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	s.logger.Info("history record added via admin API", "id", id, "kind", req.Kind)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func buildInput(req addRequest) (model.RecordInput, error) {
	switch model.TxKind(req.Kind) {
	case model.TxKindTip:
		return record.NewTip(record.TipParams{
			SourceChainID:         req.SourceChainID,
			CreatorID:             req.CreatorID,
			CreatorWallet:         req.CreatorWallet,
			TokenSymbol:           req.TokenSymbol,
			TokenAddress:          req.TokenAddress,
			Amount:                req.Amount,
			AmountRaw:             req.AmountRaw,
			EstimatedUsdValue:     req.EstimatedUsdValue,
			EstimatedUsdcReceived: req.EstimatedUsdcReceived,
			PlatformFee:           req.PlatformFee,
			PlatformFeeUsd:        req.PlatformFeeUsd,
			RelayFee:              req.RelayFee,
		})
	case model.TxKindApproval:
		return record.NewApproval(record.ApprovalParams{
			ChainID:        req.ChainID,
			TokenSymbol:    req.TokenSymbol,
			TokenAddress:   req.TokenAddress,
			SpenderAddress: req.SpenderAddress,
			Amount:         req.Amount,
		})
	case model.TxKindCreatorRegistration:
		return record.NewCreatorRegistration(record.CreatorRegistrationParams{
			ChainID:        req.ChainID,
			CreatorWallet:  req.CreatorWallet,
			MembershipTier: req.MembershipTier,
		})
	case model.TxKindViewerReward:
		return record.NewViewerReward(record.ViewerRewardParams{
			SourceChainID:     req.SourceChainID,
			ViewerID:          req.ViewerID,
			ViewerAddress:     req.ViewerAddress,
			TokenSymbol:       req.TokenSymbol,
			TokenAddress:      req.TokenAddress,
			Amount:            req.Amount,
			AmountRaw:         req.AmountRaw,
			EstimatedUsdValue: req.EstimatedUsdValue,
			PlatformFee:       req.PlatformFee,
			PlatformFeeUsd:    req.PlatformFeeUsd,
			RelayFee:          req.RelayFee,
		})
	default:
		return model.RecordInput{}, errors.New("unknown kind")
	}
}

type updateRequest struct {
	ID string `json:"id"`
	model.Patch
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.ID == "" {
		http.Error(w, `{"error":"id is required"}`, http.StatusBadRequest)
		return
	}

	err := s.history.Update(r.Context(), req.ID, req.Patch)
	switch {
	case errors.Is(err, history.ErrNotFound):
		http.Error(w, `{"error":"record not found"}`, http.StatusNotFound)
		return
	case errors.Is(err, history.ErrInvalidTransition):
		http.Error(w, `{"error":"record is in a terminal status"}`, http.StatusConflict)
		return
	case err != nil:
		s.logger.Error("history update failed", "error", err, "id", req.ID)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.history.Clear(r.Context()); err != nil {
		s.logger.Error("history clear failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	s.logger.Info("history cleared via admin API")
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

type healthResponse struct {
	Status  string `json:"status"`
	Records int    `json:"records"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	records, err := s.history.Query(r.Context(), nil)
	if err != nil {
		if errors.Is(err, storage.ErrStorage) {
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "storage unavailable"})
			return
		}
		s.logger.Error("health check failed", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Records: len(records)})
}
