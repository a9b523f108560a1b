package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ipms/placement-hub/internal/infrastructure/persistence/records"
	"github.com/ipms/placement-hub/pkg/retry"
)

// Store is a records.Store over the ipms_records table.
type Store struct {
	conn    *Connection
	timeout time.Duration
	retrier *retry.Retrier
}

// NewStore wraps conn. The schema must already be migrated.
func NewStore(conn *Connection, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = DefaultConfig().QueryTimeout
	}
	return &Store{conn: conn, timeout: timeout, retrier: retry.StoreRetrier()}
}

// Load reads the rows of collection ordered by position.
func (s *Store) Load(ctx context.Context, collection string) (records.Table, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return retry.DoWithData(ctx, s.retrier, func(ctx context.Context) (records.Table, error) {
		rows, err := s.conn.Query(ctx,
			`SELECT position, fields FROM ipms_records WHERE collection = $1 ORDER BY position`,
			collection,
		)
		if err != nil {
			return records.Table{}, classify(fmt.Errorf("postgres: load %s: %w", collection, err))
		}
		defer rows.Close()

		var t records.Table
		for rows.Next() {
			var (
				position int
				fields   []string
			)
			if err := rows.Scan(&position, &fields); err != nil {
				return records.Table{}, fmt.Errorf("postgres: scan %s: %w", collection, err)
			}
			if position == 0 {
				t.Header = fields
				continue
			}
			t.Rows = append(t.Rows, fields)
		}
		if err := rows.Err(); err != nil {
			return records.Table{}, classify(fmt.Errorf("postgres: load %s: %w", collection, err))
		}
		return t, nil
	})
}

// Save replaces the rows of collection in one serializable transaction;
// a concurrent writer makes one side retry.
func (s *Store) Save(ctx context.Context, collection string, t records.Table) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	input := make([][]any, 0, len(t.Rows)+1)
	input = append(input, []any{collection, 0, nonNil(t.Header)})
	for i, row := range t.Rows {
		input = append(input, []any{collection, i + 1, nonNil(row)})
	}

	return s.retrier.Do(ctx, func(ctx context.Context) error {
		err := s.conn.WithTx(ctx, pgx.Serializable, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, `DELETE FROM ipms_records WHERE collection = $1`, collection); err != nil {
				return err
			}
			_, err := tx.CopyFrom(ctx,
				pgx.Identifier{"ipms_records"},
				[]string{"collection", "position", "fields"},
				pgx.CopyFromRows(input),
			)
			return err
		})
		if err != nil {
			return classify(fmt.Errorf("postgres: save %s: %w", collection, err))
		}
		return nil
	})
}

// Close closes the pool.
func (s *Store) Close() error {
	s.conn.Close()
	return nil
}

func classify(err error) error {
	if IsTransient(err) {
		return retry.Retryable(err)
	}
	return err
}

func nonNil(fields []string) []string {
	if fields == nil {
		return []string{}
	}
	return fields
}
