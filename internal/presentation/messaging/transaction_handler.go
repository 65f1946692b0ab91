// Package messaging adapts inbound Kafka messages to the streaming scorer.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bibbank/fraudscore/internal/application/dto"
	"github.com/bibbank/fraudscore/internal/domain/model"
	"github.com/bibbank/fraudscore/internal/infrastructure/kafka"
)

// Submitter accepts one transaction for scoring.
type Submitter interface {
	Submit(ctx context.Context, in dto.TransactionInput) error
}

// TransactionHandler decodes engineered transactions and submits them to the
// stream. Handle returns only after the transaction is scored and persisted.
// Undecodable, malformed and out-of-order messages are logged and
// acknowledged; any other failure, including a failed save, leaves the message
// uncommitted so it is redelivered.
type TransactionHandler struct {
	stream Submitter
	logger *slog.Logger
}

// NewTransactionHandler creates a handler for the transactions topic.
func NewTransactionHandler(stream Submitter, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{stream: stream, logger: logger}
}

// Handle implements kafka.Handler.
func (h *TransactionHandler) Handle(ctx context.Context, msg kafka.Message) error {
	var in dto.TransactionInput
	if err := json.Unmarshal(msg.Value, &in); err != nil {
		h.logger.Warn("dropping undecodable transaction",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}
	if in.AccountKey == "" {
		in.AccountKey = string(msg.Key)
	}

	if err := h.stream.Submit(ctx, in); err != nil {
		if errors.Is(err, model.ErrMalformedTransaction) || errors.Is(err, model.ErrOutOfOrder) {
			h.logger.Warn("dropping rejected transaction",
				"account_key", in.AccountKey,
				"error", err,
			)
			return nil
		}
		return err
	}
	return nil
}
