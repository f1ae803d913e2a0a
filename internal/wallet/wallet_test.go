package wallet

import (
	"errors"
	"strings"
	"testing"
)

func TestChecksumVectors(t *testing.T) {
	vectors := []string{
		"0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"0xfB6916095ca1df60bB79Ce92cE3Ea74c37c5d359",
		"0xdbF03B407c01E7cD3CBea99509d93f8DDDC8C6FB",
		"0xD1220A0cf47c7B9Be7A2E6BA89F429762e7b9aDb",
	}
	for _, want := range vectors {
		for _, in := range []string{want, strings.ToLower(want), "0x" + strings.ToUpper(want[2:])} {
			got, err := Checksum(in)
			if err != nil {
				t.Fatalf("Checksum(%q): %v", in, err)
			}
			if got != want {
				t.Errorf("Checksum(%q) = %q, want %q", in, got, want)
			}
		}
	}
}

func TestChecksumRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "0x123", "5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed00", "0xZZZeb6053F3E94C9b9A09f33669435E7Ef1BeAed"} {
		if _, err := Checksum(in); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("Checksum(%q) err = %v, want ErrInvalidAddress", in, err)
		}
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name  string
		state State
		want  string
	}{
		{"guest", Guest(), "guest"},
		{"connecting", State{Status: Connecting}, "guest"},
		{"address", State{Status: Connected, Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"}, "0x5aAe...eAed"},
		{"ens", State{Status: Connected, Address: "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", ENS: "alice.eth"}, "alice.eth"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.DisplayName(); got != tt.want {
				t.Errorf("DisplayName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainName(t *testing.T) {
	tests := map[uint64]string{
		1:        "Ethereum",
		11155111: "Sepolia",
		8453:     "Base",
		534352:   "Scroll",
		999:      "Unknown",
	}
	for id, want := range tests {
		if got := ChainName(id); got != want {
			t.Errorf("ChainName(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestConnect(t *testing.T) {
	s, err := Connect("0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", "", 1)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if s.Status != Connected || s.Address != "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed" {
		t.Errorf("unexpected state %+v", s)
	}
	if id, ok := s.Chain(); !ok || id != 1 {
		t.Errorf("Chain() = %d, %v", id, ok)
	}
	if _, ok := Guest().Chain(); ok {
		t.Error("guest has no chain")
	}
}
