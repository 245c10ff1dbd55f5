package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/mixer/internal/identity"
)

var (
	// ErrIdentityNotFound is returned when no identity is stored under a name.
	ErrIdentityNotFound = errors.New("store: identity not found")

	// ErrIdentityConflict is returned when a name is already bound to an
	// identity with a different content hash.
	ErrIdentityConflict = errors.New("store: identity conflict")
)

// StoredIdentity is the header row of a stored identity.
type StoredIdentity struct {
	Name  string `json:"name"`
	Mixin string `json:"mixin"`
	Hash  string `json:"hash"`
}

// rowSink writes flat properties of one identity inside a transaction.
// The first failure is kept and later writes are skipped.
type rowSink struct {
	ctx  context.Context
	tx   *sql.Tx
	name string
	err  error
}

var _ identity.Sink = (*rowSink)(nil)

func (w *rowSink) AddString(key, value string) {
	w.exec(`
		INSERT INTO identity_properties (identity_name, key, kind, str_value)
		VALUES (?, ?, 'string', ?)
	`, w.name, key, value)
}

func (w *rowSink) AddInt(key string, value int) {
	w.exec(`
		INSERT INTO identity_properties (identity_name, key, kind, int_value)
		VALUES (?, ?, 'int', ?)
	`, w.name, key, value)
}

func (w *rowSink) exec(query string, args ...any) {
	if w.err != nil {
		return
	}
	if _, err := w.tx.ExecContext(w.ctx, query, args...); err != nil {
		w.err = err
	}
}

// SaveIdentity stores id under name, using name as the flat key prefix.
//
// Saving the same content under the same name again is a no-op. Saving
// different content under an existing name returns ErrIdentityConflict.
// Identities that cannot be serialized return
// *identity.UnsupportedSerializationError and nothing is written.
func (s *Store) SaveIdentity(ctx context.Context, name string, id identity.CompositionIdentity) error {
	if id.IsZero() {
		return fmt.Errorf("save identity %q: zero identity", name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save identity %q: %w", name, err)
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT hash FROM identities WHERE name = ?`, name).Scan(&existing)
	switch {
	case err == nil && existing == id.Hash():
		return nil
	case err == nil:
		return fmt.Errorf("save identity %q: %w: stored %s, got %s", name, ErrIdentityConflict, existing, id.Hash())
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("save identity %q: %w", name, err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO identities (name, mixin, hash) VALUES (?, ?, ?)
	`, name, string(id.Mixin().Name()), id.Hash()); err != nil {
		return fmt.Errorf("save identity %q: %w", name, err)
	}

	sink := &rowSink{ctx: ctx, tx: tx, name: name}
	if err := id.Serialize(sink, name); err != nil {
		return err
	}
	if sink.err != nil {
		return fmt.Errorf("save identity %q: %w", name, sink.err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save identity %q: %w", name, err)
	}
	return nil
}

// LoadIdentity rehydrates the identity stored under name, resolving members
// through resolver.
func (s *Store) LoadIdentity(ctx context.Context, name string, resolver identity.MemberResolver) (identity.CompositionIdentity, error) {
	bag, err := s.LoadProperties(ctx, name)
	if err != nil {
		return identity.CompositionIdentity{}, err
	}
	return identity.Deserialize(bag, name, resolver)
}

// LoadProperties returns the raw flat properties stored under name.
func (s *Store) LoadProperties(ctx context.Context, name string) (*identity.PropertyBag, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM identities WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrIdentityNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load identity %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, kind, str_value, int_value
		FROM identity_properties
		WHERE identity_name = ?
	`, name)
	if err != nil {
		return nil, fmt.Errorf("load identity %q: %w", name, err)
	}
	defer rows.Close()

	bag := identity.NewPropertyBag()
	for rows.Next() {
		var (
			key, kind string
			str       sql.NullString
			n         sql.NullInt64
		)
		if err := rows.Scan(&key, &kind, &str, &n); err != nil {
			return nil, fmt.Errorf("scan property of %q: %w", name, err)
		}
		switch kind {
		case "string":
			bag.AddString(key, str.String)
		case "int":
			bag.AddInt(key, int(n.Int64))
		default:
			return nil, fmt.Errorf("load identity %q: property %s has unknown kind %q", name, key, kind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate properties of %q: %w", name, err)
	}
	return bag, nil
}

// ListIdentities returns all stored identity headers ordered by name.
// Returns an empty slice (not nil) if none are stored.
func (s *Store) ListIdentities(ctx context.Context) ([]StoredIdentity, error) {
	return s.list(ctx, `SELECT name, mixin, hash FROM identities ORDER BY name COLLATE BINARY ASC`)
}

// ListByMixin returns the stored identities of one mixin ordered by name.
func (s *Store) ListByMixin(ctx context.Context, mixin string) ([]StoredIdentity, error) {
	return s.list(ctx, `
		SELECT name, mixin, hash FROM identities
		WHERE mixin = ?
		ORDER BY name COLLATE BINARY ASC
	`, mixin)
}

func (s *Store) list(ctx context.Context, query string, args ...any) ([]StoredIdentity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query identities: %w", err)
	}
	defer rows.Close()

	out := []StoredIdentity{}
	for rows.Next() {
		var si StoredIdentity
		if err := rows.Scan(&si.Name, &si.Mixin, &si.Hash); err != nil {
			return nil, fmt.Errorf("scan identity: %w", err)
		}
		out = append(out, si)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identities: %w", err)
	}
	return out, nil
}

// DeleteIdentity removes the identity stored under name and its properties.
// Deleting a missing name returns ErrIdentityNotFound.
func (s *Store) DeleteIdentity(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM identities WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete identity %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity %q: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrIdentityNotFound, name)
	}
	return nil
}
