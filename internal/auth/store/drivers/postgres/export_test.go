package postgres

import "context"

// Truncate empties every table, for tests sharing one database.
func Truncate(ctx context.Context, s *Store) error {
	_, err := s.pool.Exec(ctx, `TRUNCATE accounts, challenges, revoked_tokens`)
	return err
}
