package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/store-catalog/internal/model"
)

// UserRepo persists role records in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a role record. Duplicate uid/email maps to ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, u *model.UserRecord) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (uid, email, password_hash, role, active, created_by) VALUES (?,?,?,?,?,?)",
		u.UID, u.Email, u.PasswordHash, u.Role, u.Active, u.CreatedBy)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// GetByUID fetches a role record by subject id.
func (r *UserRepo) GetByUID(ctx context.Context, uid string) (*model.UserRecord, error) {
	return r.getWhere(ctx, "uid = ?", uid)
}

// GetByEmail fetches a role record by normalized email. Used by login.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.UserRecord, error) {
	return r.getWhere(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg any) (*model.UserRecord, error) {
	var u model.UserRecord
	var createdBy sql.NullString
	err := r.DB.QueryRowContext(ctx,
		"SELECT uid,email,password_hash,role,active,created_by,created_at,updated_at FROM users WHERE "+where+" LIMIT 1",
		arg).Scan(&u.UID, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &createdBy, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	u.CreatedBy = createdBy.String
	return &u, nil
}

// List returns every role record ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]*model.UserRecord, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT uid,email,password_hash,role,active,created_by,created_at,updated_at FROM users ORDER BY created_at DESC, uid")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]*model.UserRecord, 0)
	for rows.Next() {
		var u model.UserRecord
		var createdBy sql.NullString
		if err := rows.Scan(&u.UID, &u.Email, &u.PasswordHash, &u.Role, &u.Active, &createdBy, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.CreatedBy = createdBy.String
		out = append(out, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Update merges role and/or active into an existing record. Nil pointers
// leave the corresponding column untouched. Callers verify existence
// first via GetByUID; a zero affected count here can also mean the values
// were already set, so it is not treated as not-found.
func (r *UserRepo) Update(ctx context.Context, uid string, role *string, active *bool) error {
	set := make([]string, 0, 2)
	args := make([]any, 0, 3)
	if role != nil {
		set = append(set, "role = ?")
		args = append(args, *role)
	}
	if active != nil {
		set = append(set, "active = ?")
		args = append(args, *active)
	}
	if len(set) == 0 {
		return nil
	}
	set = append(set, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, uid)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE uid = ?", args...)
	return err
}

// RoleRecord is the point read the role resolver depends on (it
// satisfies authz.RoleStore). A missing row reports ok=false with a nil
// error; absence of a role is a policy outcome, not a failure.
func (r *UserRepo) RoleRecord(ctx context.Context, uid string) (string, bool, bool, error) {
	var (
		role   string
		active bool
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT role, active FROM users WHERE uid = ? LIMIT 1", uid).
		Scan(&role, &active)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, false, nil
	}
	if err != nil {
		return "", false, false, err
	}
	return role, active, true, nil
}
