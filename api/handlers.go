package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/openalpha/predictionx/internal/idhash"
	"github.com/openalpha/predictionx/internal/ledger"
	"github.com/openalpha/predictionx/internal/money"
	"github.com/openalpha/predictionx/internal/orderbook"
)

// --- /api/wallet -----------------------------------------------------

type createWalletRequest struct {
	OperatorID string     `json:"operatorId"`
	Name       string     `json:"name"`
	ID         *uuid.UUID `json:"id,omitempty"`
}

type walletResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	OperatorID string    `json:"operatorId"`
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	var req createWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := uuid.New()
	if req.ID != nil {
		id = *req.ID
	}
	acc, err := s.app.Ledger.CreateAccount(r.Context(), id, req.Name, ledger.AccountAsset, req.OperatorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, walletResponse{ID: acc.ID, Name: acc.Name, OperatorID: acc.OperatorID})
}

func (s *Server) handleWalletBalance(w http.ResponseWriter, r *http.Request) {
	idRaw := mux.Vars(r)["id"]
	accountID, err := uuid.Parse(idRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	phase := ledger.PhaseClearing
	balance, err := s.app.Ledger.GetAccountBalance(r.Context(), accountID, &phase)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": accountID,
		"balance":   balance,
		"phase":     "Clearing",
	})
}

// --- /api/secondary/order ---------------------------------------------

type matchView struct {
	Price        money.Amount `json:"price"`
	Quantity     money.Amount `json:"quantity"`
	BuyerUserID  string       `json:"buyerUserId"`
	SellerUserID string       `json:"sellerUserId"`
}

func (s *Server) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	order, status, msg := s.parseQueryOrder(q)
	if msg != "" {
		writeError(w, status, msg)
		return
	}

	orderID, matches, err := s.app.Matching.ProcessOrder(r.Context(), order)
	if err != nil {
		status, msg := statusForDomainError(err)
		writeError(w, status, msg)
		return
	}

	views := make([]matchView, 0, len(matches))
	for _, m := range matches {
		views = append(views, matchView{Price: m.Price, Quantity: m.Quantity, BuyerUserID: m.BuyerUserID, SellerUserID: m.SellerUserID})
		s.broadcastTradeMatched(order.OutcomeID, m)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orderId": orderID, "matches": views})
}

func (s *Server) parseQueryOrder(q map[string][]string) (*orderbook.Order, int, string) {
	get := func(k string) string {
		v := q[k]
		if len(v) == 0 {
			return ""
		}
		return v[0]
	}

	marketID := strings.TrimSpace(get("marketId"))
	if marketID == "" {
		return nil, http.StatusBadRequest, "marketId is required"
	}
	priceStr := get("price")
	price, err := money.Parse(priceStr)
	if err != nil || price.LT(money.Zero) || price.GT(money.MustParse("1.00")) {
		return nil, http.StatusBadRequest, "price must be a decimal in [0.00, 1.00]"
	}
	qty, err := money.Parse(get("quantity"))
	if err != nil || !qty.IsPositive() {
		return nil, http.StatusBadRequest, "quantity must be positive"
	}
	side, ok := sideFromString(get("side"))
	if !ok {
		return nil, http.StatusBadRequest, "side must be Buy or Sell"
	}
	operatorID := strings.TrimSpace(get("operatorId"))
	userID := strings.TrimSpace(get("userId"))
	if userID == "" {
		return nil, http.StatusBadRequest, "userId is required"
	}

	return &orderbook.Order{
		ID:           uuid.New(),
		UserID:       userID,
		OutcomeID:    marketID,
		OperatorID:   operatorID,
		Side:         side,
		Price:        price,
		RemainingQty: qty,
	}, 0, ""
}

// --- /api/secondary/order/bulk ------------------------------------------

const marketMakerOperatorID = "mm-provider"

type bulkOrderRequestItem struct {
	MarketID   string `json:"marketId"`
	Price      string `json:"price"`
	Quantity   string `json:"quantity"`
	Side       string `json:"side"`
	OperatorID string `json:"operatorId"`
	UserID     string `json:"userId"`
}

type bulkOrderRequest struct {
	Orders []bulkOrderRequestItem `json:"orders"`
}

type bulkOrderResult struct {
	OrderID uuid.UUID   `json:"orderId,omitempty"`
	Error   string      `json:"error,omitempty"`
	Matches []matchView `json:"matches,omitempty"`
}

func (s *Server) handleBulkOrders(w http.ResponseWriter, r *http.Request) {
	var req bulkOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	results := make([]bulkOrderResult, 0, len(req.Orders))
	for _, item := range req.Orders {
		if !strings.EqualFold(strings.TrimSpace(item.OperatorID), marketMakerOperatorID) {
			results = append(results, bulkOrderResult{Error: "operatorId must be " + marketMakerOperatorID})
			continue
		}
		price, err := money.Parse(item.Price)
		if err != nil {
			results = append(results, bulkOrderResult{Error: "invalid price"})
			continue
		}
		qty, err := money.Parse(item.Quantity)
		if err != nil || !qty.IsPositive() {
			results = append(results, bulkOrderResult{Error: "invalid quantity"})
			continue
		}
		side, ok := sideFromString(item.Side)
		if !ok {
			results = append(results, bulkOrderResult{Error: "invalid side"})
			continue
		}

		order := &orderbook.Order{
			ID:           uuid.New(),
			UserID:       item.UserID,
			OutcomeID:    item.MarketID,
			OperatorID:   item.OperatorID,
			Side:         side,
			Price:        price,
			RemainingQty: qty,
		}
		orderID, matches, err := s.app.Matching.ProcessOrder(r.Context(), order)
		if err != nil {
			results = append(results, bulkOrderResult{Error: err.Error()})
			continue
		}
		views := make([]matchView, 0, len(matches))
		for _, m := range matches {
			views = append(views, matchView{Price: m.Price, Quantity: m.Quantity, BuyerUserID: m.BuyerUserID, SellerUserID: m.SellerUserID})
			s.broadcastTradeMatched(order.OutcomeID, m)
		}
		results = append(results, bulkOrderResult{OrderID: orderID, Matches: views})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// --- /api/secondary/book/{marketId} & /api/markets/orderbook/{outcomeId} --

type orderView struct {
	OrderID    uuid.UUID `json:"orderId"`
	UserID     string    `json:"userId"`
	OperatorID string    `json:"operatorId,omitempty"`
	Price      string    `json:"price"`
	Quantity   string    `json:"quantity"`
}

func toOrderViews(orders []*orderbook.Order) []orderView {
	out := make([]orderView, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderView{
			OrderID:    o.ID,
			UserID:     o.UserID,
			OperatorID: o.OperatorID,
			Price:      o.Price.String(),
			Quantity:   o.RemainingQty.String(),
		})
	}
	return out
}

func (s *Server) handleBook(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	book, ok := s.app.Books.Get(marketID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"marketId": marketID, "bids": []orderView{}, "asks": []orderView{}})
		return
	}
	bids, asks := book.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"marketId": marketID,
		"bids":     toOrderViews(bids),
		"asks":     toOrderViews(asks),
	})
}

func (s *Server) handleMarketOrderbook(w http.ResponseWriter, r *http.Request) {
	outcomeID := mux.Vars(r)["outcomeId"]
	book, ok := s.app.Books.Get(outcomeID)
	if !ok {
		writeJSON(w, http.StatusOK, map[string]interface{}{"outcomeId": outcomeID, "bids": []orderView{}, "asks": []orderView{}})
		return
	}
	bids, asks := book.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"outcomeId": outcomeID,
		"bids":      toOrderViews(bids),
		"asks":      toOrderViews(asks),
	})
}

// --- DELETE /api/secondary/orders/{marketId}/{operatorId} ---------------

func (s *Server) handleCancelByOperator(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	marketID, operatorID := vars["marketId"], vars["operatorId"]
	book, ok := s.app.Books.Get(marketID)
	if !ok {
		writeError(w, http.StatusNotFound, "market not found")
		return
	}
	count := book.RemoveOrdersByOperator(operatorID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"marketId":       marketID,
		"operatorId":     operatorID,
		"cancelledCount": count,
	})
}

// --- /api/markets/active --------------------------------------------------

func (s *Server) handleActiveMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.app.Oracle.GetActiveEvents())
}

// --- /api/celebrity/simulate ----------------------------------------------

type simulateTradeRequest struct {
	OperatorID  string  `json:"operatorId"`
	Amount      string  `json:"amount"`
	OutcomeID   string  `json:"outcomeId"`
	OutcomeName string  `json:"outcomeName"`
	ActorID     *string `json:"actorId,omitempty"`
}

func (s *Server) handleSimulateTrade(w http.ResponseWriter, r *http.Request) {
	var req simulateTradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	amount, err := money.Parse(req.Amount)
	if err != nil || !amount.IsPositive() {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	if strings.TrimSpace(req.OutcomeID) == "" {
		writeError(w, http.StatusBadRequest, "outcomeId is required")
		return
	}

	signal, err := s.app.Oracle.SimulateTrade(r.Context(), req.OperatorID, amount, req.OutcomeID, req.OutcomeName, req.ActorID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	clearingTxID, _ := s.app.CopyTrading.GetLastClearingTransactionIdForOutcome(req.OutcomeID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"tradeId":               signal.TradeID,
		"operatorId":            signal.OperatorID,
		"amount":                signal.Amount,
		"outcomeId":             signal.OutcomeID,
		"outcomeName":           signal.OutcomeName,
		"actorId":               signal.ActorID,
		"clearingTransactionId": clearingTxID,
		"phase":                 "Clearing",
	})
}

// --- /api/celebrity/outcome-reached ---------------------------------------

type outcomeReachedRequest struct {
	OutcomeID              string   `json:"outcomeId"`
	ConfidenceScore        *float64 `json:"confidenceScore,omitempty"`
	SourceVerificationList []string `json:"sourceVerificationList,omitempty"`
}

func (s *Server) handleOutcomeReached(w http.ResponseWriter, r *http.Request) {
	var req outcomeReachedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.OutcomeID) == "" {
		writeError(w, http.StatusBadRequest, "outcomeId is required")
		return
	}

	result, err := s.app.Oracle.NotifyOutcomeReached(r.Context(), req.OutcomeID, req.ConfidenceScore, req.SourceVerificationList)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"new":            result.New,
		"alreadySettled": result.AlreadySettled,
		"message":        result.Message,
		"confidence":     result.Confidence,
		"sources":        result.Sources,
	})
}

// --- /api/admin/resolve-market ---------------------------------------------

type resolveMarketRequest struct {
	OutcomeID           string  `json:"outcomeId"`
	WinningAssetType    string  `json:"winningAssetType"`
	SettlementAccountID string  `json:"settlementAccountId"`
	USDPerToken         *string `json:"usdPerToken,omitempty"`
}

func (s *Server) handleResolveMarket(w http.ResponseWriter, r *http.Request) {
	var req resolveMarketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	settlementAccountID, err := uuid.Parse(req.SettlementAccountID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "settlementAccountId must be a valid id")
		return
	}
	usdPerToken := money.MustParse("1.00")
	if req.USDPerToken != nil {
		usdPerToken, err = money.Parse(*req.USDPerToken)
		if err != nil {
			writeError(w, http.StatusBadRequest, "usdPerToken must be a decimal")
			return
		}
	}

	result, err := s.app.Resolver.ResolveMarket(r.Context(), req.WinningAssetType, settlementAccountID, usdPerToken)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accountsSettled": result.AccountsSettled,
		"totalUsdPaidOut": result.TotalUSDPaidOut,
	})
}

// --- /api/portfolio --------------------------------------------------------

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	accountIDRaw := mux.Vars(r)["accountId"]
	accountID, err := uuid.Parse(accountIDRaw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid account id")
		return
	}
	// Holdings contain a single "CASH" entry: the account's Ledger balance
	// across all phases. Outcome-asset holdings from the outcome ledger
	// are not included.
	balance, err := s.app.Ledger.GetAccountBalance(r.Context(), accountID, nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"accountId": accountID,
		"holdings":  map[string]interface{}{"CASH": balance},
	})
}

func (s *Server) handlePosition(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if strings.TrimSpace(userID) == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	marketID := r.URL.Query().Get("marketId")
	positions := s.app.Position.GetNetPosition(r.Context(), userID, marketID)
	out := make([]map[string]interface{}, 0, len(positions))
	for _, p := range positions {
		out = append(out, map[string]interface{}{"outcomeId": p.OutcomeID, "netQuantity": p.NetQuantity})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"userId": userID, "positions": out})
}

// --- /api/audit --------------------------------------------------------

func (s *Server) handleAuditMarket(w http.ResponseWriter, r *http.Request) {
	marketID := mux.Vars(r)["marketId"]
	events, err := s.app.Events.ByMarket(r.Context(), marketID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleAuditUser(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	events, err := s.app.Events.ByUser(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// --- /api/copy-trading/follow -----------------------------------------

type followRequest struct {
	FollowerID string `json:"followerId"`
	LeaderID   string `json:"leaderId"`
}

func (s *Server) handleFollow(w http.ResponseWriter, r *http.Request) {
	var req followRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.FollowerID) == "" || strings.TrimSpace(req.LeaderID) == "" {
		writeError(w, http.StatusBadRequest, "followerId and leaderId are required")
		return
	}
	alreadyFollowing, err := s.app.Social.Follow(req.FollowerID, req.LeaderID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"followerId":       req.FollowerID,
		"leaderId":         req.LeaderID,
		"alreadyFollowing": alreadyFollowing,
	})
}

// operatorAccountID resolves a free-form operator-id string to a stable
// 128-bit id per spec §6, for handlers that accept operator-ids that may
// not already be UUIDs.
func operatorAccountID(raw string) uuid.UUID {
	return idhash.Resolve(raw)
}
