package store

import (
	"context"
	"time"
)

type Player struct {
	ID          string
	DisplayName string
	Status      string
	CreatedAt   time.Time
}

func (s *Store) CreatePlayer(ctx context.Context, displayName, token string) (string, error) {
	id := NewID()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO players (id, display_name, token_hash) VALUES ($1, $2, $3)`,
		id, displayName, HashToken(token))
	return id, err
}

// GetPlayerByToken resolves a connection token to its player. Disabled
// players are reported as not found.
func (s *Store) GetPlayerByToken(ctx context.Context, token string) (*Player, error) {
	row := s.Pool.QueryRow(ctx,
		`SELECT id, display_name, status, created_at FROM players WHERE token_hash = $1 AND status = 'active'`,
		HashToken(token))
	var p Player
	if err := row.Scan(&p.ID, &p.DisplayName, &p.Status, &p.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	return &p, nil
}

func (s *Store) DisablePlayer(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE players SET status = 'disabled' WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
