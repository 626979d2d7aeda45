package ethereum

import (
	"fmt"
	"math/big"
	"net/url"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"solana-wallet-lab/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TxListResponse is the Etherscan-compatible account txlist payload.
type TxListResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  TxListItems `json:"result"`
}

// Err reports an API-level failure. An empty history is not an error.
func (r *TxListResponse) Err() error {
	if r.Status == "1" || r.Message == "No transactions found" {
		return nil
	}
	return fmt.Errorf("txlist: %s: %s", r.Message, r.Result.detail)
}

// TxListItems decodes the result field, which is an array on success and a
// message string on failure.
type TxListItems struct {
	Items  []TxListItem
	detail string
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *TxListItems) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &l.detail)
	}
	return json.Unmarshal(b, &l.Items)
}

// TxListItem is a single normal transaction.
type TxListItem struct {
	Hash      string `json:"hash"`
	From      string `json:"from"`
	To        string `json:"to"`
	Value     string `json:"value"`
	TimeStamp string `json:"timeStamp"`
	IsError   string `json:"isError"`
}

// TxListURL builds the txlist request for address.
func TxListURL(base, address, apiKey string, limit int) string {
	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("page", "1")
	q.Set("offset", strconv.Itoa(limit))
	q.Set("sort", "desc")
	if apiKey != "" {
		q.Set("apikey", apiKey)
	}
	return strings.TrimRight(base, "?") + "?" + q.Encode()
}

// ToRecord converts an item into owner's view of the transfer.
func (t TxListItem) ToRecord(owner string) domain.TransactionRecord {
	rec := domain.TransactionRecord{
		Signature: t.Hash,
		Direction: domain.DirectionUnknown,
		Amount:    new(big.Int),
		Failed:    t.IsError == "1",
	}
	if v, ok := new(big.Int).SetString(t.Value, 10); ok {
		rec.Amount = v
	}
	if ts, err := strconv.ParseInt(t.TimeStamp, 10, 64); err == nil {
		rec.Timestamp = ts * 1000
	}
	switch {
	case strings.EqualFold(t.From, owner):
		rec.Direction = domain.DirectionSent
		rec.Counterparty = t.To
	case strings.EqualFold(t.To, owner):
		rec.Direction = domain.DirectionReceived
		rec.Counterparty = t.From
	}
	return rec
}
