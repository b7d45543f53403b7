package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Драйвер Postgres

	"github.com/xela07ax/instavibe/internal/journal"
)

type JournalRepo struct {
	db *sql.DB
}

func NewJournalRepo(connString string) *JournalRepo {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		// В main соединение проверяется через Ping
		log.Fatal(err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)
	return &JournalRepo{db: db}
}

func (r *JournalRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// WriteBatch — пакетная вставка записей журнала одним запросом.
func (r *JournalRepo) WriteBatch(ctx context.Context, records []journal.TaskRecord) error {
	if len(records) == 0 {
		return nil
	}

	// Количество колонок в таблице task_journal
	numFields := 8
	placeholderStr := ""
	vals := make([]interface{}, 0, len(records)*numFields)

	for i, rec := range records {
		p := i * numFields
		placeholderStr += fmt.Sprintf("($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d),",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8)

		vals = append(vals,
			rec.ID, rec.SessionID, rec.Agent, rec.TaskID,
			rec.State, rec.Error, rec.DurationMs, rec.Timestamp,
		)
	}

	query := fmt.Sprintf(
		"INSERT INTO task_journal (id, session_id, agent, task_id, state, error, duration_ms, timestamp) VALUES %s",
		strings.TrimSuffix(placeholderStr, ","),
	)

	_, err := r.db.ExecContext(ctx, query, vals...)
	if err != nil {
		return fmt.Errorf("postgres: failed to write journal batch: %w", err)
	}
	return nil
}
