package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"lamvault/core/state"
	"lamvault/crypto"
	"lamvault/native/vault"
	"lamvault/storage"
)

func newTestServer(t *testing.T) (*httptest.Server, *state.Manager) {
	t.Helper()
	manager := state.NewManager(storage.NewMemDB())
	engine := vault.NewEngine()
	engine.SetState(manager)
	server := NewServer(engine, nil)
	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)
	return ts, manager
}

func fundedOwner(t *testing.T, manager *state.Manager, amount uint64) string {
	t.Helper()
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	addr := key.PubKey().Address()
	require.NoError(t, manager.Credit(addr.Bytes(), amount))
	return addr.String()
}

func rpcCall(t *testing.T, url, method string, params map[string]string) *RPCResponse {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  []interface{}{params},
		"id":      1,
	})
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	decoded := new(RPCResponse)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(decoded))
	return decoded
}

func resultField(t *testing.T, resp *RPCResponse, field string) string {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	payload, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(payload, &out))
	value, ok := out[field].(string)
	require.True(t, ok, "missing field %q in %v", field, out)
	return value
}

func TestVaultRPCLifecycle(t *testing.T) {
	server, manager := newTestServer(t)
	rent := manager.MinimumRetainedBalance(vault.FundAccountSize)
	owner := fundedOwner(t, manager, 2_000_000_000)

	resp := rpcCall(t, server.URL, "vault_initialize", map[string]string{"owner": owner})
	require.Equal(t, fmt.Sprintf("%d", rent), resultField(t, resp, "balance"))

	resp = rpcCall(t, server.URL, "vault_deposit", map[string]string{"owner": owner, "amount": "1000000000"})
	require.Equal(t, fmt.Sprintf("%d", rent+1_000_000_000), resultField(t, resp, "balance"))

	resp = rpcCall(t, server.URL, "vault_withdraw", map[string]string{"owner": owner, "amount": "500000000"})
	require.Equal(t, fmt.Sprintf("%d", rent+500_000_000), resultField(t, resp, "balance"))

	resp = rpcCall(t, server.URL, "vault_get", map[string]string{"owner": owner})
	require.Equal(t, owner, resultField(t, resp, "owner"))

	resp = rpcCall(t, server.URL, "vault_close", map[string]string{"owner": owner})
	require.Equal(t, fmt.Sprintf("%d", rent+500_000_000), resultField(t, resp, "finalBalance"))

	resp = rpcCall(t, server.URL, "vault_get", map[string]string{"owner": owner})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultNotFound, resp.Error.Code)
}

func TestVaultRPCErrorCodes(t *testing.T) {
	server, manager := newTestServer(t)
	owner := fundedOwner(t, manager, 2_000_000_000)

	// Operating before initialize.
	resp := rpcCall(t, server.URL, "vault_deposit", map[string]string{"owner": owner, "amount": "1000"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultNotFound, resp.Error.Code)

	resp = rpcCall(t, server.URL, "vault_initialize", map[string]string{"owner": owner})
	require.Nil(t, resp.Error)

	// Double initialize.
	resp = rpcCall(t, server.URL, "vault_initialize", map[string]string{"owner": owner})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultConflict, resp.Error.Code)

	// Policy rejections keep their messages verbatim.
	resp = rpcCall(t, server.URL, "vault_deposit", map[string]string{"owner": owner, "amount": "999"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultPolicy, resp.Error.Code)
	require.Contains(t, resp.Error.Message, "InsufficientDepositAmount")

	resp = rpcCall(t, server.URL, "vault_withdraw", map[string]string{"owner": owner, "amount": "0"})
	require.NotNil(t, resp.Error)
	require.Contains(t, resp.Error.Message, "InvalidWithdrawAmount")

	resp = rpcCall(t, server.URL, "vault_withdraw", map[string]string{"owner": owner, "amount": "1000000000001"})
	require.NotNil(t, resp.Error)
	require.Contains(t, resp.Error.Message, "ExceedsMaxWithdrawal")

	resp = rpcCall(t, server.URL, "vault_withdraw", map[string]string{"owner": owner, "amount": "1"})
	require.NotNil(t, resp.Error)
	require.Contains(t, resp.Error.Message, "InsufficientFundsAfterWithdrawal")

	// Malformed params.
	resp = rpcCall(t, server.URL, "vault_deposit", map[string]string{"owner": owner, "amount": "not-a-number"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultInvalidParams, resp.Error.Code)

	resp = rpcCall(t, server.URL, "vault_get", map[string]string{"owner": "nonsense"})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeVaultInvalidParams, resp.Error.Code)

	// Unknown method.
	resp = rpcCall(t, server.URL, "vault_burn", map[string]string{"owner": owner})
	require.NotNil(t, resp.Error)
	require.Equal(t, codeMethodNotFound, resp.Error.Code)
}
