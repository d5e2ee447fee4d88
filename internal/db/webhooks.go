package db

import "context"

// GetWebhookLogByKey is the fast-path idempotency pre-check: a plain,
// unlocked read outside any transaction.
func (q *Queries) GetWebhookLogByKey(ctx context.Context, key string) (WebhookLog, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, idempotency_key, order_id, status, payload, processed_at
		FROM webhook_logs
		WHERE idempotency_key = $1`, key)
	return scanWebhookLog(row)
}

// InsertWebhookLog attempts to claim the idempotency key inside a
// transaction. A unique-violation error means a concurrent delivery of the
// same key won the race; the caller maps that to "already processed" via
// db.IsUniqueViolation.
func (q *Queries) InsertWebhookLog(ctx context.Context, w WebhookLog) (WebhookLog, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO webhook_logs (idempotency_key, order_id, status, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING id, idempotency_key, order_id, status, payload, processed_at`,
		w.IdempotencyKey, w.OrderID, w.Status, w.Payload)
	return scanWebhookLog(row)
}

func scanWebhookLog(row rowScanner) (WebhookLog, error) {
	var w WebhookLog
	err := row.Scan(&w.ID, &w.IdempotencyKey, &w.OrderID, &w.Status, &w.Payload, &w.ProcessedAt)
	if err != nil {
		return WebhookLog{}, err
	}
	return w, nil
}
