package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseCreatedMessage announces a newly stored expense. It carries only
// the ID and origin; consumers fetch the full record from the store.
type ExpenseCreatedMessage struct {
	ExpenseID string    `json:"expenseId"`
	Source    string    `json:"source"` // chat | api | recurring
	Timestamp time.Time `json:"timestamp"`
}

// NewExpenseCreatedMessage builds a created message stamped now.
func NewExpenseCreatedMessage(expenseID, source string) *ExpenseCreatedMessage {
	return &ExpenseCreatedMessage{
		ExpenseID: expenseID,
		Source:    source,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ExpenseCreatedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseCreatedMessageFromJSON decodes a message from JSON bytes.
func ExpenseCreatedMessageFromJSON(data []byte) (*ExpenseCreatedMessage, error) {
	var msg ExpenseCreatedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
