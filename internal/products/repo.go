package products

import (
	"context"
	"time"

	"github.com/2beens/fittracker/internal/fitness"
	"github.com/2beens/fittracker/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// List serves the catalog table in one of two mutually exclusive modes.
// With a non-empty search it is a capped substring search with no
// pagination cursor. With an offset it is a fixed-size page plus a total
// count, and NewOffset signals whether another page exists. With
// neither, the result is empty and no count query runs.
func (r *Repo) List(ctx context.Context, search string, offset *int) (_ *ListResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.products.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if search != "" {
		return r.searchByName(ctx, search)
	}

	if offset == nil {
		return &ListResult{
			Products: make([]Product, 0),
		}, nil
	}

	return r.page(ctx, *offset)
}

func (r *Repo) searchByName(ctx context.Context, search string) (*ListResult, error) {
	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, name, status, price::text, stock, created_at
			FROM product
			WHERE name ILIKE '%' || $1 || '%'
			ORDER BY id
			LIMIT $2;`,
		search, searchLimit,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	found, err := rows2products(rows)
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Products:      found,
		TotalProducts: len(found),
	}, nil
}

func (r *Repo) page(ctx context.Context, offset int) (*ListResult, error) {
	var total int
	if err := r.db.
		QueryRow(ctx, `SELECT COUNT(*) FROM product;`).
		Scan(&total); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	rows, err := r.db.Query(
		ctx,
		`
			SELECT id, name, status, price::text, stock, created_at
			FROM product
			ORDER BY id
			LIMIT $1 OFFSET $2;`,
		pageSize, offset,
	)
	if err != nil {
		return nil, fitness.MapStorageError(err)
	}
	defer rows.Close()

	if err := rows.Err(); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	found, err := rows2products(rows)
	if err != nil {
		return nil, err
	}

	result := &ListResult{
		Products:      found,
		TotalProducts: total,
	}
	// a full page means there may be more
	if len(found) == pageSize {
		newOffset := offset + pageSize
		result.NewOffset = &newOffset
	}

	return result, nil
}

func (r *Repo) Add(ctx context.Context, params AddParams) (_ *Product, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.products.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return nil, fitness.ErrNotConfigured
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	product := Product{
		Name:   params.Name,
		Status: "active",
		Price:  params.Price,
	}
	if params.Status != nil {
		product.Status = *params.Status
	}
	if params.Stock != nil {
		product.Stock = *params.Stock
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	if err := r.db.QueryRow(
		ctx,
		`
			INSERT INTO product (name, status, price, stock)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at;`,
		product.Name, product.Status, fitness.DecimalArg(product.Price), product.Stock,
	).Scan(&product.ID, &product.CreatedAt); err != nil {
		return nil, fitness.MapStorageError(err)
	}

	return &product, nil
}

// DeleteByID removes the product; a missing id is a no-op, not an error.
func (r *Repo) DeleteByID(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.products.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if r.db == nil {
		return fitness.ErrNotConfigured
	}

	ctx, cancel := fitness.WithQueryTimeout(ctx)
	defer cancel()

	tag, err := r.db.Exec(ctx, `DELETE FROM product WHERE id = $1;`, id)
	if err != nil {
		return fitness.MapStorageError(err)
	}
	if tag.RowsAffected() == 0 {
		log.Tracef("delete product %d: nothing to delete", id)
	}

	return nil
}

func rows2products(rows pgx.Rows) ([]Product, error) {
	var found []Product
	for rows.Next() {
		var id int
		var name, status string
		var priceStr *string
		var stock int
		var createdAt time.Time
		if err := rows.Scan(&id, &name, &status, &priceStr, &stock, &createdAt); err != nil {
			return nil, err
		}

		price, err := fitness.ParseDecimal(priceStr)
		if err != nil {
			return nil, err
		}

		found = append(found, Product{
			ID:        id,
			Name:      name,
			Status:    status,
			Price:     price,
			Stock:     stock,
			CreatedAt: createdAt,
		})
	}

	if found == nil {
		found = make([]Product, 0)
	}

	return found, nil
}
