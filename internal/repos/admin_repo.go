package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"estatedesk/internal/domain"
)

type AdminRepo struct{ db *sqlx.DB }

func NewAdminRepo(db *sqlx.DB) *AdminRepo { return &AdminRepo{db: db} }

const adminCols = `id, email, name, password_hash, active, created_at`

func (r *AdminRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`)
	return n, err
}

func (r *AdminRepo) Create(ctx context.Context, a *domain.Admin) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO admins(id, email, name, password_hash, active, created_at)
		VALUES(:id, :email, :name, :password_hash, :active, :created_at)`, a)
	return err
}

// CreateIfNone inserts a only when the admins table is empty, atomically.
func (r *AdminRepo) CreateIfNone(ctx context.Context, a *domain.Admin) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	var n int
	if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM admins`); err != nil {
		return false, err
	}
	if n > 0 {
		return false, nil
	}
	if _, err := tx.NamedExecContext(ctx, `
		INSERT INTO admins(id, email, name, password_hash, active, created_at)
		VALUES(:id, :email, :name, :password_hash, :active, :created_at)`, a); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

func (r *AdminRepo) ByEmail(ctx context.Context, email string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+adminCols+` FROM admins WHERE LOWER(email)=LOWER(?)`), email)
	if err != nil {
		return nil, notFound("admin by email", err)
	}
	return &a, nil
}

func (r *AdminRepo) ByID(ctx context.Context, id string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`SELECT `+adminCols+` FROM admins WHERE id=?`), id)
	if err != nil {
		return nil, notFound("admin by id", err)
	}
	return &a, nil
}

func (r *AdminRepo) List(ctx context.Context) ([]domain.Admin, error) {
	out := []domain.Admin{}
	err := r.db.SelectContext(ctx, &out, `SELECT `+adminCols+` FROM admins ORDER BY email`)
	return out, err
}

// ---------- Sessions ----------

func (r *AdminRepo) CreateSession(ctx context.Context, s *domain.Session) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO sessions(id, admin_id, created_at, expires_at, last_seen)
		VALUES(:id, :admin_id, :created_at, :expires_at, :last_seen)`, s)
	return err
}

// SessionAdmin returns the active admin bound to an unexpired session.
func (r *AdminRepo) SessionAdmin(ctx context.Context, sid, now string) (*domain.Admin, error) {
	var a domain.Admin
	err := r.db.GetContext(ctx, &a, r.db.Rebind(`
		SELECT a.id, a.email, a.name, a.password_hash, a.active, a.created_at
		FROM sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ? AND s.expires_at > ? AND a.active`), sid, now)
	if err != nil {
		return nil, notFound("session admin", err)
	}
	return &a, nil
}

func (r *AdminRepo) TouchSession(ctx context.Context, sid, now string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE sessions SET last_seen=? WHERE id=?`), now, sid)
	return err
}

func (r *AdminRepo) DeleteSession(ctx context.Context, sid string) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE id=?`), sid)
	return err
}

// PurgeSessions drops every session that expired at or before now.
func (r *AdminRepo) PurgeSessions(ctx context.Context, now string) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM sessions WHERE expires_at <= ?`), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
