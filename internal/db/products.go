package db

import "context"

// GetProduct reads a product without taking a lock. Used by the read-only
// GET /products/{id} path and by the HTTP layer's pre-transaction
// existence check for a product_id referenced in a request body.
func (q *Queries) GetProduct(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1`, id)
	return scanProduct(row)
}

// LockProductForUpdate reads a product and holds its row lock for the
// remainder of the caller's transaction. Every stock mutation goes through
// this first.
func (q *Queries) LockProductForUpdate(ctx context.Context, id int64) (Product, error) {
	row := q.db.QueryRow(ctx, `
		SELECT id, name, description, price, stock, created_at, updated_at
		FROM products
		WHERE id = $1
		FOR UPDATE`, id)
	return scanProduct(row)
}

// SetProductStock writes the new stock level. Callers must already hold
// the row lock via LockProductForUpdate within the same transaction.
func (q *Queries) SetProductStock(ctx context.Context, id int64, stock int) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE products SET stock = $1, updated_at = now() WHERE id = $2`, stock, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNoRows
	}
	return nil
}

// InsertProduct creates a new product. Used only by the seed CLI — the
// core never creates products.
func (q *Queries) InsertProduct(ctx context.Context, p Product) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, description, price, stock)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, price, stock, created_at, updated_at`,
		p.Name, p.Description, p.Price, p.Stock)
	return scanProduct(row)
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return Product{}, err
	}
	return p, nil
}
