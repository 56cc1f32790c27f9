package amqp

import (
	"encoding/json"
	"time"
)

// TamperAlertMessage notifies downstream consumers that an account's chain
// failed an integrity sweep. It carries counts and the tampered entry ids,
// not the entries themselves; consumers fetch details from storage.
type TamperAlertMessage struct {
	AccountID     int64     `json:"account_id"`
	TamperedIDs   []int64   `json:"tampered_ids"`
	VerifiedCount int       `json:"verified_count"`
	TotalCount    int       `json:"total_count"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTamperAlertMessage(accountID int64, tamperedIDs []int64, verified, total int) *TamperAlertMessage {
	return &TamperAlertMessage{
		AccountID:     accountID,
		TamperedIDs:   tamperedIDs,
		VerifiedCount: verified,
		TotalCount:    total,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *TamperAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TamperAlertMessageFromJSON(data []byte) (*TamperAlertMessage, error) {
	var msg TamperAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// TransactionRecordedMessage announces a successfully chained transaction.
// It carries the id, chain position and hash only.
type TransactionRecordedMessage struct {
	AccountID int64     `json:"account_id"`
	ID        int64     `json:"id"`
	Seq       int64     `json:"seq"`
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
}

func NewTransactionRecordedMessage(accountID, id, seq int64, hash string) *TransactionRecordedMessage {
	return &TransactionRecordedMessage{
		AccountID: accountID,
		ID:        id,
		Seq:       seq,
		Hash:      hash,
		Timestamp: time.Now().UTC(),
	}
}

func (m *TransactionRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func TransactionRecordedMessageFromJSON(data []byte) (*TransactionRecordedMessage, error) {
	var msg TransactionRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
