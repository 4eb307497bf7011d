package thalex

import (
	"fmt"
	"strings"
)

// Network identifies a Thalex deployment by its websocket endpoint.
type Network string

const (
	Test Network = "wss://testnet.thalex.com/ws/api/v2"
	Prod Network = "wss://thalex.com/ws/api/v2"
)

// ParseNetwork maps the short names used on the command line ("test", "prod")
// to a Network.
func ParseNetwork(name string) (Network, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "test", "testnet":
		return Test, nil
	case "prod", "production", "mainnet":
		return Prod, nil
	default:
		return "", fmt.Errorf("unknown network %q (expected test or prod)", name)
	}
}

// URL returns the websocket endpoint of the network.
func (n Network) URL() string {
	return string(n)
}

// Name returns the short name of the network.
func (n Network) Name() string {
	switch n {
	case Test:
		return "test"
	case Prod:
		return "prod"
	default:
		return "custom"
	}
}
