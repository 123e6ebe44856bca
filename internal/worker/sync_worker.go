package worker

import (
	"context"
	"fmt"

	"cablebill/internal/amqp"
	"cablebill/internal/core"
	"cablebill/internal/ledger"
	"cablebill/internal/log"
	"cablebill/internal/sheets"
)

// SyncWorker exports recorded payments to a spreadsheet.
type SyncWorker struct {
	exporter sheets.PaymentExporter
	index    sheets.PaymentIndex
	logger   *log.Logger
}

// NewSyncWorker builds a worker. index may be nil, in which case
// redelivered events are appended again.
func NewSyncWorker(exporter sheets.PaymentExporter, index sheets.PaymentIndex, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		exporter: exporter,
		index:    index,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent processes a single ledger event from AMQP. Only
// payment.recorded produces a row; other events are acknowledged and
// skipped. A returned error makes the consumer requeue the message.
func (w *SyncWorker) HandleEvent(ctx context.Context, msg *amqp.LedgerEvent) error {
	if msg.Type != ledger.PaymentRecorded {
		w.logger.DebugContext(ctx, "Ignoring ledger event", log.FieldEventType, msg.Type)
		return nil
	}

	w.logger.InfoContext(ctx, "Processing payment event",
		log.FieldPaymentID, msg.PaymentID,
		log.FieldCustomerID, msg.CustomerID)

	return w.export(ctx, sheets.PaymentRow{
		Date:         msg.Date,
		Month:        monthOf(msg.Month, msg.Date),
		CustomerID:   msg.CustomerID,
		CustomerName: msg.CustomerName,
		Amount:       msg.Amount,
		Method:       msg.Method,
		PaymentID:    msg.PaymentID,
	})
}

// ExportPending exports every payment in the book that the index does not
// know yet. It recovers from events lost while no worker was running.
// Without an index it does nothing, since it cannot tell what is missing.
func (w *SyncWorker) ExportPending(ctx context.Context, book core.Book) (exported int, err error) {
	if w.index == nil {
		w.logger.WarnContext(ctx, "No payment index configured, skipping pending export")
		return 0, nil
	}

	failed := 0
	for _, p := range book.Payments {
		if err := ctx.Err(); err != nil {
			return exported, err
		}
		done, err := w.index.HasPayment(ctx, p.ID)
		if err != nil {
			return exported, fmt.Errorf("check exported payments: %w", err)
		}
		if done {
			continue
		}
		row := sheets.PaymentRow{
			Date:         p.Date,
			Month:        monthOf(p.Month, p.Date),
			CustomerID:   p.CustomerID,
			CustomerName: book.CustomerName(p.CustomerID),
			Amount:       p.Amount,
			Method:       p.Method,
			PaymentID:    p.ID,
		}
		if _, err := w.exporter.AppendPayment(ctx, row); err != nil {
			w.logger.ErrorContext(ctx, "Failed to export payment",
				log.FieldPaymentID, p.ID, log.FieldError, err)
			failed++
			continue
		}
		exported++
	}

	w.logger.InfoContext(ctx, "Pending export completed",
		"total", len(book.Payments),
		"exported", exported,
		"errors", failed)
	return exported, nil
}

func (w *SyncWorker) export(ctx context.Context, row sheets.PaymentRow) error {
	if w.index != nil {
		done, err := w.index.HasPayment(ctx, row.PaymentID)
		if err != nil {
			return fmt.Errorf("check exported payments: %w", err)
		}
		if done {
			w.logger.InfoContext(ctx, "Payment already exported", log.FieldPaymentID, row.PaymentID)
			return nil
		}
	}

	ref, err := w.exporter.AppendPayment(ctx, row)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}

	w.logger.InfoContext(ctx, "Successfully exported payment",
		log.FieldPaymentID, row.PaymentID,
		"sheets_ref", ref,
		log.FieldAmount, row.Amount.Value())
	return nil
}

func monthOf(month string, d core.Date) string {
	if month != "" {
		return month
	}
	return d.MonthKey()
}
