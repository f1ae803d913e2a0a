// Package wallet models the visitor's wallet connection as the shell sees
// it. Connecting and signing happen in the client; this package only holds
// the resulting state.
package wallet

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Status is the connection phase.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// State is the wallet connection. Address, ENS and ChainID are only
// meaningful when Status is Connected; ChainID is zero when unknown.
type State struct {
	Status  Status `json:"status"`
	Address string `json:"address,omitempty"`
	ENS     string `json:"ens,omitempty"`
	ChainID uint64 `json:"chain_id,omitempty"`
}

// Guest is the disconnected state.
func Guest() State { return State{} }

// Connect returns a connected state for a checksummed address.
func Connect(address, ens string, chainID uint64) (State, error) {
	sum, err := Checksum(address)
	if err != nil {
		return State{}, err
	}
	return State{Status: Connected, Address: sum, ENS: ens, ChainID: chainID}, nil
}

// Chain returns the chain id when connected to a known chain.
func (s State) Chain() (uint64, bool) {
	if s.Status != Connected || s.ChainID == 0 {
		return 0, false
	}
	return s.ChainID, true
}

// DisplayName is the prompt user name: the ENS name, a shortened address
// (0x1234...5678), or "guest".
func (s State) DisplayName() string {
	if s.Status != Connected {
		return "guest"
	}
	if s.ENS != "" {
		return s.ENS
	}
	return ShortAddress(s.Address)
}

// ShortAddress abbreviates a full 42-character address.
func ShortAddress(addr string) string {
	if len(addr) != 42 {
		return addr
	}
	return addr[:6] + "..." + addr[38:]
}

var chainNames = map[uint64]string{
	1:        "Ethereum",
	10:       "Optimism",
	56:       "BNB Chain",
	137:      "Polygon",
	324:      "zkSync Era",
	8453:     "Base",
	17000:    "Holesky",
	42161:    "Arbitrum",
	43114:    "Avalanche",
	59144:    "Linea",
	534352:   "Scroll",
	11155111: "Sepolia",
}

// ChainName maps a chain id to its network name.
func ChainName(id uint64) string {
	if n, ok := chainNames[id]; ok {
		return n
	}
	return "Unknown"
}

// ErrInvalidAddress is returned for anything that is not 20 hex bytes.
var ErrInvalidAddress = errors.New("invalid address")

// Checksum returns the EIP-55 mixed-case form of an address. Input must be
// 0x followed by 40 hex digits in any case.
func Checksum(addr string) (string, error) {
	if len(addr) != 42 || !strings.HasPrefix(strings.ToLower(addr), "0x") {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}
	lower := strings.ToLower(addr[2:])
	if _, err := hex.DecodeString(lower); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, addr)
	}

	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lower))
	digest := hex.EncodeToString(h.Sum(nil))

	out := []byte("0x" + lower)
	for i := 0; i < 40; i++ {
		c := out[i+2]
		if c >= 'a' && c <= 'f' && digest[i] >= '8' {
			out[i+2] = c - 'a' + 'A'
		}
	}
	return string(out), nil
}

// SameAddress compares two addresses case-insensitively.
func SameAddress(a, b string) bool {
	return strings.EqualFold(a, b)
}
