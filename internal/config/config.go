// Package config loads the process configuration through urfave/cli/v2, so
// flags can override the same-named environment variables.
package config

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/urfave/cli/v2"
)

var (
	HTTPRPCURLFlag = &cli.StringFlag{Name: "http-rpc-url", EnvVars: []string{"HTTP_RPC_URL"}, Usage: "HTTP RPC endpoint of a trace_call-capable node", Required: true}
	WSSRPCURLFlag  = &cli.StringFlag{Name: "wss-rpc-url", EnvVars: []string{"WSS_RPC_URL"}, Usage: "Websocket RPC endpoint for the pending-transaction feed", Required: true}
	RelayURLFlag   = &cli.StringFlag{Name: "relay-url", EnvVars: []string{"RELAY_URL"}, Usage: "Bundle-relay endpoint; overrides the chain-ID default table"}
	ChainIDFlag    = &cli.Uint64Flag{Name: "chain-id", EnvVars: []string{"CHAIN_ID"}, Usage: "Chain ID", Value: 1}
	PrivateKeyFlag = &cli.StringFlag{Name: "private-key", EnvVars: []string{"PRIVATE_KEY"}, Usage: "Hex-encoded private key of the controlled actor (0x prefix optional)", Required: true}
	ContractFlag   = &cli.StringFlag{Name: "contract", EnvVars: []string{"CONTRACT"}, Usage: "Deployed batch-executor contract address; if absent, the actor's own EOA is the substitute"}
	PriorityFlag   = &cli.Uint64Flag{Name: "priority", EnvVars: []string{"PRIORITY"}, Usage: "Priority-fee percentage of expected profit"}
)

// Flags is the full flag set cmd/frontrun registers on its cli.App.
var Flags = []cli.Flag{
	HTTPRPCURLFlag, WSSRPCURLFlag, RelayURLFlag, ChainIDFlag, PrivateKeyFlag, ContractFlag, PriorityFlag,
}

// Config is the parsed, validated process configuration.
type Config struct {
	HTTPRPCURL string
	WSSRPCURL  string
	RelayURL   string
	ChainID    uint64
	ActorKey   *ecdsa.PrivateKey
	Contract   *common.Address // nil: the actor's own EOA is the substitute
	Priority   *uint64         // nil: no priority bid configured
}

// FromContext builds a Config from a populated cli.Context. Required
// flags are already enforced by urfave/cli itself; this only validates
// the values that need further parsing (the private key, the optional
// contract address).
func FromContext(c *cli.Context) (*Config, error) {
	keyHex := strings.TrimPrefix(c.String(PrivateKeyFlag.Name), "0x")
	key, err := crypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", PrivateKeyFlag.Name, err)
	}

	cfg := &Config{
		HTTPRPCURL: c.String(HTTPRPCURLFlag.Name),
		WSSRPCURL:  c.String(WSSRPCURLFlag.Name),
		RelayURL:   c.String(RelayURLFlag.Name),
		ChainID:    c.Uint64(ChainIDFlag.Name),
		ActorKey:   key,
	}

	if addr := c.String(ContractFlag.Name); addr != "" {
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("config: %s is not a valid address: %q", ContractFlag.Name, addr)
		}
		a := common.HexToAddress(addr)
		cfg.Contract = &a
	}

	if c.IsSet(PriorityFlag.Name) {
		p := c.Uint64(PriorityFlag.Name)
		cfg.Priority = &p
	}

	return cfg, nil
}

// Substitute returns the address rewritten calldata should point at: the
// deployed batch-executor contract if one is configured, otherwise the
// actor's own EOA.
func (c *Config) Substitute() common.Address {
	if c.Contract != nil {
		return *c.Contract
	}
	return crypto.PubkeyToAddress(c.ActorKey.PublicKey)
}
