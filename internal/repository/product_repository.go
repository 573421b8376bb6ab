package repository

import (
	"context"      // context carries deadlines into DB calls
	"database/sql" // sql provides generic database operations
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/store-catalog/internal/authz"
	"github.com/iliyamo/store-catalog/internal/model"
)

// productColumns is the select list shared by every product query so the
// scan order stays in one place.
const productColumns = `id, name, price, quantity, image_url, description,
	creator_uid, added_by, status, created_at,
	approved_by, approved_at, rejected_by, rejected_at, rejection_reason`

// updatableColumns whitelists the fields a partial update may touch.
// creator_uid is deliberately absent: ownership is fixed at creation.
// status is present because the quantity toggle and the moderation
// endpoints write it through the same merge path.
var updatableColumns = map[string]bool{
	"name":             true,
	"price":            true,
	"quantity":         true,
	"image_url":        true,
	"description":      true,
	"status":           true,
	"approved_by":      true,
	"approved_at":      true,
	"rejected_by":      true,
	"rejected_at":      true,
	"rejection_reason": true,
}

// ProductRepo encapsulates all database queries for products.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo constructs a ProductRepo with the provided DB handle so
// the connection can be injected at startup and in tests.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Create inserts a product and populates its ID and the server-assigned
// CreatedAt. A follow-up SELECT fetches the default columns, matching how
// the insert-then-read pattern is used elsewhere in this layer.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) error {
	const qInsert = `INSERT INTO products
		(name, price, quantity, image_url, description, creator_uid, added_by, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		p.Name, p.Price, p.Quantity, p.ImageURL, p.Description,
		p.CreatorUID, p.AddedBy, p.Status)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	const qSelect = "SELECT created_at FROM products WHERE id = ?"
	return r.db.QueryRowContext(ctx, qSelect, p.ID).Scan(&p.CreatedAt)
}

// GetByID fetches a single product. It returns ErrProductNotFound when no
// row matches; single-item reads apply no ownership or status gating.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (*model.Product, error) {
	q := "SELECT " + productColumns + " FROM products WHERE id = ?"
	p, err := scanProduct(r.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return p, err
}

// Update merges the given fields into an existing row. Unknown columns
// are skipped rather than rejected so callers can pass a client payload
// through a whitelist. A merge with no known columns is a no-op.
func (r *ProductRepo) Update(ctx context.Context, id uint64, fields map[string]any) error {
	set := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for col, val := range fields {
		if !updatableColumns[col] {
			continue
		}
		set = append(set, col+" = ?")
		args = append(args, val)
	}
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	q := fmt.Sprintf("UPDATE products SET %s WHERE id = ?", strings.Join(set, ", "))
	_, err := r.db.ExecContext(ctx, q, args...)
	return err
}

// Delete removes a product row. ErrProductNotFound is returned when the
// id does not exist.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProductNotFound
	}
	return nil
}

// List runs the filtered-and-ordered collection scan. The scope carries
// at most one equality predicate; ordering is always created_at
// descending with id as tie-break so pagination stays stable regardless
// of which visibility branch produced the scope.
func (r *ProductRepo) List(ctx context.Context, scope authz.ListScope) ([]*model.Product, error) {
	where, args := scopeClause(scope)
	q := "SELECT " + productColumns + " FROM products" + where +
		" ORDER BY created_at DESC, id DESC"
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*model.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteOwnerless removes products without a creator uid and reports how
// many rows were deleted. Used by the admin cleanup endpoint.
func (r *ProductRepo) DeleteOwnerless(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM products WHERE creator_uid IS NULL OR creator_uid = ''")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// scopeClause renders a ListScope into a WHERE clause and its arguments.
func scopeClause(scope authz.ListScope) (string, []any) {
	switch {
	case scope.Status != "":
		return " WHERE status = ?", []any{scope.Status}
	case scope.CreatorUID != "":
		return " WHERE creator_uid = ?", []any{scope.CreatorUID}
	}
	return "", nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanProduct reads one product row, converting nullable moderation
// columns into pointers.
func scanProduct(row rowScanner) (*model.Product, error) {
	var (
		p          model.Product
		approvedBy sql.NullString
		approvedAt sql.NullTime
		rejectedBy sql.NullString
		rejectedAt sql.NullTime
		reason     sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.Price, &p.Quantity, &p.ImageURL,
		&p.Description, &p.CreatorUID, &p.AddedBy, &p.Status, &p.CreatedAt,
		&approvedBy, &approvedAt, &rejectedBy, &rejectedAt, &reason)
	if err != nil {
		return nil, err
	}
	if approvedBy.Valid {
		p.ApprovedBy = &approvedBy.String
	}
	if approvedAt.Valid {
		p.ApprovedAt = &approvedAt.Time
	}
	if rejectedBy.Valid {
		p.RejectedBy = &rejectedBy.String
	}
	if rejectedAt.Valid {
		p.RejectedAt = &rejectedAt.Time
	}
	if reason.Valid {
		p.RejectionReason = &reason.String
	}
	return &p, nil
}
