package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/taekop/bitaekcoin/mempool"
	"github.com/taekop/bitaekcoin/node"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/tokenized/logger"
)

const (
	// DefaultAddress is the listen address for the JSON-RPC surface.
	DefaultAddress = ":8000"

	shutdownTimeout = 5 * time.Second
)

// JSON-RPC 2.0 error codes.
const (
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

// Request is a JSON-RPC 2.0 request envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Response is a JSON-RPC 2.0 response envelope.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server projects the ledger and mempool over a JSON-RPC 2.0 HTTP surface
// and accepts account creation and transfer requests.
type Server struct {
	node    *node.Node
	pool    *mempool.Mempool
	address string
}

func NewServer(node *node.Node, pool *mempool.Mempool, address string) *Server {
	if address == "" {
		address = DefaultAddress
	}

	return &Server{
		node:    node,
		pool:    pool,
		address: address,
	}
}

// Run serves requests until interrupted.
func (s *Server) Run(ctx context.Context, interrupt <-chan interface{}) error {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.POST("/", s.handleRequest)

	server := &http.Server{
		Addr:    s.address,
		Handler: engine,
	}

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- server.ListenAndServe()
	}()

	logger.InfoWithFields(ctx, []logger.Field{
		logger.String("address", s.address),
	}, "RPC server listening")

	select {
	case err := <-serveErrors:
		return errors.Wrap(err, "listen and serve")

	case <-interrupt:
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleRequest(c *gin.Context) {
	request := &Request{}
	if err := c.ShouldBindJSON(request); err != nil {
		c.JSON(http.StatusOK, Response{
			JSONRPC: "2.0",
			Error:   &Error{Code: codeInvalidRequest, Message: err.Error()},
		})
		return
	}

	response := s.dispatch(request)
	response.JSONRPC = "2.0"
	response.ID = request.ID
	c.JSON(http.StatusOK, response)
}

func (s *Server) dispatch(request *Request) Response {
	switch request.Method {
	case "getBlocks":
		return s.getBlocks()
	case "getLatestBlock":
		return s.getLatestBlock()
	case "getAccounts":
		return s.getAccounts()
	case "createAccount":
		return s.createAccount()
	case "transfer":
		return s.transfer(request.Params)
	case "getMempool":
		return s.getMempool()
	}

	return Response{Error: &Error{
		Code:    codeMethodNotFound,
		Message: "unknown method: " + request.Method,
	}}
}

// getBlocks returns the committed blocks, newest first.
func (s *Server) getBlocks() Response {
	blocks := s.node.Blocks()

	result := make([]Block, 0, len(blocks))
	for i := len(blocks) - 1; i >= 0; i-- {
		result = append(result, convertBlock(blocks[i]))
	}

	return Response{Result: result}
}

func (s *Server) getLatestBlock() Response {
	block := s.node.LatestBlock()
	if block == nil {
		return Response{Error: &Error{Code: codeInternalError, Message: "empty chain"}}
	}

	return Response{Result: convertBlock(block)}
}

func (s *Server) getAccounts() Response {
	accounts := s.node.Accounts()

	result := make([]Account, len(accounts))
	for i, account := range accounts {
		result[i] = convertAccount(account)
	}

	return Response{Result: result}
}

func (s *Server) createAccount() Response {
	account, err := s.node.CreateAccount()
	if err != nil {
		return Response{Error: &Error{Code: codeInternalError, Message: err.Error()}}
	}

	return Response{Result: convertAccount(account)}
}

// transferParams accepts both positional and named parameter forms.
type transferParams struct {
	From   int    `json:"from"`
	To     int    `json:"to"`
	Amount uint64 `json:"amount"`
}

func parseTransferParams(raw json.RawMessage) (*transferParams, error) {
	params := &transferParams{}
	if err := json.Unmarshal(raw, params); err == nil {
		return params, nil
	}

	var positional []json.Number
	if err := json.Unmarshal(raw, &positional); err != nil || len(positional) != 3 {
		return nil, errors.New("want {from, to, amount} or [from, to, amount]")
	}

	from, err := positional[0].Int64()
	if err != nil {
		return nil, errors.Wrap(err, "from")
	}
	to, err := positional[1].Int64()
	if err != nil {
		return nil, errors.Wrap(err, "to")
	}
	amount, err := positional[2].Int64()
	if err != nil || amount < 0 {
		return nil, errors.New("invalid amount")
	}

	return &transferParams{From: int(from), To: int(to), Amount: uint64(amount)}, nil
}

// transfer builds and signs a transaction moving amount from one account to
// another and submits it to the mempool. The ledger read lock is held only
// long enough to clone the sender and recipient.
func (s *Server) transfer(raw json.RawMessage) Response {
	params, err := parseTransferParams(raw)
	if err != nil {
		return Response{Error: &Error{Code: codeInvalidRequest, Message: err.Error()}}
	}

	sender, err := s.node.Account(params.From)
	if err != nil {
		return Response{Error: &Error{Code: codeInvalidRequest, Message: err.Error()}}
	}

	recipient, err := s.node.Account(params.To)
	if err != nil {
		return Response{Error: &Error{Code: codeInvalidRequest, Message: err.Error()}}
	}

	tx, err := sender.BuildTransfer(recipient.PublicKey(), params.Amount)
	if err != nil {
		return Response{Error: &Error{Code: codeInvalidRequest, Message: err.Error()}}
	}

	if err := s.pool.Submit(tx); err != nil {
		return Response{Error: &Error{Code: codeInvalidRequest, Message: err.Error()}}
	}

	return Response{Result: nil}
}

func (s *Server) getMempool() Response {
	pending := s.pool.Transactions()

	result := make([]Transaction, len(pending))
	for i, tx := range pending {
		result[i] = convertTransaction(tx)
	}

	return Response{Result: result}
}
