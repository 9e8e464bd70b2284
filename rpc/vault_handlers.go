package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"lamvault/core/state"
	"lamvault/crypto"
	"lamvault/native/vault"
)

type vaultOwnerParams struct {
	Owner string `json:"owner"`
}

type vaultAmountParams struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
}

type vaultView struct {
	Owner     string `json:"owner"`
	StateBump uint8  `json:"stateBump"`
	VaultBump uint8  `json:"vaultBump"`
	Balance   string `json:"balance"`
}

type balanceResult struct {
	Balance string `json:"balance"`
}

type closeResult struct {
	FinalBalance string `json:"finalBalance"`
}

func formatLamports(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseLamports(raw string) (uint64, error) {
	amount, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid lamport amount %q", raw)
	}
	return amount, nil
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseOwner(raw string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(raw)
	if err != nil {
		return [20]byte{}, fmt.Errorf("invalid owner address: %w", err)
	}
	return addr.Bytes(), nil
}

func ownerString(owner [20]byte) string {
	return crypto.MustNewAddress(owner[:]).String()
}

// vaultErrorCode maps engine and ledger rejections onto stable RPC codes.
func vaultErrorCode(err error) (int, string) {
	switch {
	case errors.Is(err, vault.ErrVaultNotInitialized):
		return codeVaultNotFound, "not_initialized"
	case errors.Is(err, vault.ErrAlreadyInitialized):
		return codeVaultConflict, "already_initialized"
	case errors.Is(err, vault.ErrUnauthorized):
		return codeVaultForbidden, "unauthorized"
	case errors.Is(err, vault.ErrInsufficientDepositAmount),
		errors.Is(err, vault.ErrInvalidWithdrawAmount),
		errors.Is(err, vault.ErrExceedsMaxWithdrawal),
		errors.Is(err, vault.ErrInsufficientFundsAfterWithdrawal):
		return codeVaultPolicy, "policy"
	case errors.Is(err, state.ErrInsufficientFunds),
		errors.Is(err, state.ErrBalanceOverflow),
		errors.Is(err, state.ErrAccountNotFound),
		errors.Is(err, state.ErrAccountExists):
		return codeVaultFunds, "funds"
	default:
		return codeServerError, "internal"
	}
}

func (s *Server) writeVaultError(w http.ResponseWriter, req *RPCRequest, err error) {
	code, reason := vaultErrorCode(err)
	errorsTotal.WithLabelValues(req.Method, reason).Inc()
	status := http.StatusBadRequest
	if code == codeServerError {
		status = http.StatusInternalServerError
	}
	// Errors surface verbatim: amount or state corrections are the caller's
	// responsibility.
	writeError(w, status, req.ID, code, err.Error())
}

func (s *Server) handleVaultInitialize(w http.ResponseWriter, req *RPCRequest) {
	var params vaultOwnerParams
	if err := decodeParams(req, &params); err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}
	owner, err := parseOwner(params.Owner)
	if err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}

	s.mu.Lock()
	record, err := s.engine.Initialize(owner)
	var balance uint64
	if err == nil {
		_, balance, err = s.engine.Get(owner)
	}
	s.mu.Unlock()
	if err != nil {
		s.writeVaultError(w, req, err)
		return
	}
	writeResult(w, req.ID, vaultView{
		Owner:     ownerString(record.Owner),
		StateBump: record.StateBump,
		VaultBump: record.VaultBump,
		Balance:   formatLamports(balance),
	})
}

func (s *Server) handleVaultDeposit(w http.ResponseWriter, req *RPCRequest) {
	owner, amount, ok := s.decodeAmountParams(w, req)
	if !ok {
		return
	}
	s.mu.Lock()
	balance, err := s.engine.Deposit(owner, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeVaultError(w, req, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Balance: formatLamports(balance)})
}

func (s *Server) handleVaultWithdraw(w http.ResponseWriter, req *RPCRequest) {
	owner, amount, ok := s.decodeAmountParams(w, req)
	if !ok {
		return
	}
	s.mu.Lock()
	balance, err := s.engine.Withdraw(owner, amount)
	s.mu.Unlock()
	if err != nil {
		s.writeVaultError(w, req, err)
		return
	}
	writeResult(w, req.ID, balanceResult{Balance: formatLamports(balance)})
}

func (s *Server) handleVaultClose(w http.ResponseWriter, req *RPCRequest) {
	var params vaultOwnerParams
	if err := decodeParams(req, &params); err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}
	owner, err := parseOwner(params.Owner)
	if err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}
	s.mu.Lock()
	finalBalance, err := s.engine.Close(owner)
	s.mu.Unlock()
	if err != nil {
		s.writeVaultError(w, req, err)
		return
	}
	writeResult(w, req.ID, closeResult{FinalBalance: formatLamports(finalBalance)})
}

func (s *Server) handleVaultGet(w http.ResponseWriter, req *RPCRequest) {
	var params vaultOwnerParams
	if err := decodeParams(req, &params); err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}
	owner, err := parseOwner(params.Owner)
	if err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return
	}
	s.mu.Lock()
	record, balance, err := s.engine.Get(owner)
	s.mu.Unlock()
	if err != nil {
		s.writeVaultError(w, req, err)
		return
	}
	writeResult(w, req.ID, vaultView{
		Owner:     ownerString(record.Owner),
		StateBump: record.StateBump,
		VaultBump: record.VaultBump,
		Balance:   formatLamports(balance),
	})
}

func (s *Server) decodeAmountParams(w http.ResponseWriter, req *RPCRequest) ([20]byte, uint64, bool) {
	var params vaultAmountParams
	if err := decodeParams(req, &params); err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return [20]byte{}, 0, false
	}
	owner, err := parseOwner(params.Owner)
	if err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return [20]byte{}, 0, false
	}
	amount, err := parseLamports(params.Amount)
	if err != nil {
		errorsTotal.WithLabelValues(req.Method, "params").Inc()
		writeError(w, http.StatusBadRequest, req.ID, codeVaultInvalidParams, err.Error())
		return [20]byte{}, 0, false
	}
	return owner, amount, true
}
