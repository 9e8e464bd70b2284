package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"lamvault/crypto"
)

const passphraseEnv = "LAMVAULT_KEYSTORE_PASS"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: vault-cli <command> [args]

Key management:
  generate-key <keystore.json>      create a key and print its address
  address <keystore.json>           print the address of a stored key

Vault operations (against --rpc, default http://127.0.0.1:8645):
  initialize <keystore.json>
  deposit <keystore.json> <amount>
  withdraw <keystore.json> <amount>
  close <keystore.json>
  get <keystore.json>
`)
	os.Exit(2)
}

func main() {
	args := os.Args[1:]
	rpcURL := "http://127.0.0.1:8645"
	filtered := args[:0]
	for _, arg := range args {
		if strings.HasPrefix(arg, "--rpc=") {
			rpcURL = strings.TrimPrefix(arg, "--rpc=")
			continue
		}
		filtered = append(filtered, arg)
	}
	args = filtered
	if len(args) < 2 {
		usage()
	}

	command, keystorePath := args[0], args[1]

	switch command {
	case "generate-key":
		generateKey(keystorePath)
	case "address":
		key := loadKey(keystorePath)
		fmt.Println(key.PubKey().Address().String())
	case "initialize", "close", "get":
		key := loadKey(keystorePath)
		owner := key.PubKey().Address().String()
		call(rpcURL, "vault_"+command, map[string]string{"owner": owner})
	case "deposit", "withdraw":
		if len(args) < 3 {
			usage()
		}
		key := loadKey(keystorePath)
		owner := key.PubKey().Address().String()
		call(rpcURL, "vault_"+command, map[string]string{"owner": owner, "amount": args[2]})
	default:
		usage()
	}
}

func generateKey(path string) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		fatal("generate key: %v", err)
	}
	if err := crypto.SaveToKeystore(path, key, passphrase(true)); err != nil {
		fatal("save keystore: %v", err)
	}
	fmt.Printf("New key saved to %s\nAddress: %s\n", path, key.PubKey().Address().String())
}

func loadKey(path string) *crypto.PrivateKey {
	key, err := crypto.LoadFromKeystore(path, passphrase(false))
	if err != nil {
		fatal("load keystore: %v", err)
	}
	return key
}

func passphrase(confirm bool) string {
	if pass := strings.TrimSpace(os.Getenv(passphraseEnv)); pass != "" {
		return pass
	}
	fmt.Fprint(os.Stderr, "Keystore passphrase: ")
	pass, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("read passphrase: %v", err)
	}
	if confirm {
		fmt.Fprint(os.Stderr, "Confirm passphrase: ")
		again, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			fatal("read passphrase: %v", err)
		}
		if !bytes.Equal(pass, again) {
			fatal("passphrases do not match")
		}
	}
	return string(pass)
}

type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      int           `json:"id"`
}

func call(rpcURL, method string, params map[string]string) {
	payload, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  []interface{}{params},
		ID:      1,
	})
	if err != nil {
		fatal("encode request: %v", err)
	}
	resp, err := http.Post(rpcURL, "application/json", bytes.NewReader(payload))
	if err != nil {
		fatal("rpc call: %v", err)
	}
	defer resp.Body.Close()

	var out bytes.Buffer
	if _, err := out.ReadFrom(resp.Body); err != nil {
		fatal("read response: %v", err)
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, out.Bytes(), "", "  "); err != nil {
		fmt.Println(out.String())
		return
	}
	fmt.Println(pretty.String())
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
