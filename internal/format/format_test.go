package format

import (
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"solana-wallet-lab/internal/domain"
)

func TestNative(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals int32
		want     string
	}{
		{"one and a half SOL", big.NewInt(1_500_000_000), 9, "1.5000"},
		{"zero", big.NewInt(0), 9, "0.0000"},
		{"nil", nil, 9, "0.0000"},
		{"rounds for display", big.NewInt(123_456_789), 9, "0.1235"},
		{"one ether", mustBig("1000000000000000000"), 18, "1.0000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Native(tt.raw, tt.decimals); got != tt.want {
				t.Errorf("Native() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNative_DoesNotMutateRaw(t *testing.T) {
	raw := big.NewInt(123_456_789)
	_ = Native(raw, 9)
	if raw.Int64() != 123_456_789 {
		t.Errorf("raw value mutated: %s", raw)
	}
}

func TestToken(t *testing.T) {
	if got := Token(big.NewInt(25_000_000), 6); got != "25.00" {
		t.Errorf("Token() = %s, want 25.00", got)
	}
	if got := Token(big.NewInt(1), 0); got != "1.00" {
		t.Errorf("Token() = %s, want 1.00", got)
	}
}

func TestShortAddress(t *testing.T) {
	addr := "8YLKoCu4MWrxPbc2LMvGmGTcnEHJXQWKNchcMJM8f3ky"
	if got := ShortAddress(addr, 4, 4); got != "8YLK...f3ky" {
		t.Errorf("ShortAddress() = %s", got)
	}
	if got := ShortAddress("abc", 4, 4); got != "abc" {
		t.Errorf("short input changed: %s", got)
	}
}

func TestBalanceWithSymbol(t *testing.T) {
	b := domain.NewBalance(domain.ChainSolana, 1_500_000_000)
	if got := BalanceWithSymbol(b); got != "1.5000 SOL" {
		t.Errorf("BalanceWithSymbol() = %s", got)
	}
}

func TestParseAmount(t *testing.T) {
	raw, err := ParseAmount("0.5", 9)
	if err != nil {
		t.Fatalf("ParseAmount: %v", err)
	}
	if raw.Int64() != 500_000_000 {
		t.Errorf("expected 500000000, got %s", raw)
	}

	raw, err = ParseAmount(" 0.000000001 ", 9)
	if err != nil {
		t.Fatalf("ParseAmount smallest unit: %v", err)
	}
	if raw.Int64() != 1 {
		t.Errorf("expected 1, got %s", raw)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	tooLong := "1" + strings.Repeat("0", MaxAmountLength)
	for _, in := range []string{"", "abc", "0", "-1", "+1", "0.0000000001", "1.2.3", "1e3", "1E-3", "1e20000000", "0x10", tooLong} {
		name := in
		if len(name) > 20 {
			name = name[:20]
		}
		t.Run(name, func(t *testing.T) {
			start := time.Now()
			_, err := ParseAmount(in, 9)
			if !errors.Is(err, domain.ErrInvalidAmount) {
				t.Errorf("ParseAmount(%q) error = %v, want ErrInvalidAmount", in, err)
			}
			if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
				t.Errorf("ParseAmount(%q) took %s", in, elapsed)
			}
		})
	}
}

func TestParseAmount_PlainForms(t *testing.T) {
	for in, want := range map[string]int64{"1": 1_000_000_000, "1.": 1_000_000_000, ".5": 500_000_000, "007": 7_000_000_000} {
		raw, err := ParseAmount(in, 9)
		if err != nil {
			t.Errorf("ParseAmount(%q): %v", in, err)
			continue
		}
		if raw.Int64() != want {
			t.Errorf("ParseAmount(%q) = %s, want %d", in, raw, want)
		}
	}
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}
