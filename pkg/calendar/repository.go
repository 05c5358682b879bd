package calendar

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atul-gupta2002/Custom-Event-Calendar/pkg/recurrence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/mo"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	WithTransaction(ctx context.Context, fn func(repo Repository) error) error
	// GetAllEvents returns every stored event ordered by start, then id.
	GetAllEvents(ctx context.Context) ([]Event, error)
	// GetEvents returns the events starting in [from, to) ordered by start, then id.
	GetEvents(ctx context.Context, from, to time.Time) ([]Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	StoreEvents(ctx context.Context, events []Event) error
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvents(ctx context.Context, ids []string) (int, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
	tx pgx.Tx
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

type queryer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// getQueryer returns the open transaction if there is one, the pool otherwise
func (r *RepositoryImpl) getQueryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *RepositoryImpl) WithTransaction(ctx context.Context, fn func(repo Repository) error) error {
	if r.tx != nil {
		return fn(r)
	}
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		// no-op once committed
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Errorf("rollback error: %v", rbErr)
		}
	}()

	if err := fn(&RepositoryImpl{db: r.db, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const eventColumns = `id, series_id, title, start_time, description, category, color,
	recurrence_kind, recurrence_interval, recurrence_weekdays, recurrence_end, recurrence_max`

func (r *RepositoryImpl) GetAllEvents(ctx context.Context) ([]Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event ORDER BY start_time, id`
	return r.queryEvents(ctx, query)
}

func (r *RepositoryImpl) GetEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `SELECT ` + eventColumns + `
			  FROM calendar_event
			  WHERE start_time >= $1 AND start_time < $2
			  ORDER BY start_time, id`
	return r.queryEvents(ctx, query, from, to)
}

func (r *RepositoryImpl) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := r.getQueryer().Query(ctx, query, args...)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]Event, 0, 16)
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		err := fmt.Errorf("error iterating over rows: %w", err)
		log.Error(err)
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) GetEvent(ctx context.Context, id string) (Event, error) {
	query := `SELECT ` + eventColumns + ` FROM calendar_event WHERE id = $1`
	event, err := scanEvent(r.getQueryer().QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Event{}, ErrEventNotFound
		}
		err := fmt.Errorf("could not query calendar event %s: %w", id, err)
		log.Error(err)
		return Event{}, err
	}
	return event, nil
}

func (r *RepositoryImpl) StoreEvents(ctx context.Context, events []Event) error {
	if len(events) == 0 {
		return nil
	}

	const columnCount = 12
	placeholders := make([]string, 0, len(events))
	args := make([]any, 0, len(events)*columnCount)
	for i, event := range events {
		p := make([]string, columnCount)
		for j := range p {
			p[j] = fmt.Sprintf("$%d", i*columnCount+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(p, ", ")+")")
		args = append(args, eventArgs(event)...)
	}

	query := `INSERT INTO calendar_event (` + eventColumns + `) VALUES ` + strings.Join(placeholders, ", ")
	if _, err := r.getQueryer().Exec(ctx, query, args...); err != nil {
		err := fmt.Errorf("could not store %d calendar events: %w", len(events), err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *RepositoryImpl) UpdateEvent(ctx context.Context, event Event) error {
	query := `UPDATE calendar_event SET
				series_id = $2,
				title = $3,
				start_time = $4,
				description = $5,
				category = $6,
				color = $7,
				recurrence_kind = $8,
				recurrence_interval = $9,
				recurrence_weekdays = $10,
				recurrence_end = $11,
				recurrence_max = $12
			  WHERE id = $1`
	tag, err := r.getQueryer().Exec(ctx, query, eventArgs(event)...)
	if err != nil {
		err := fmt.Errorf("could not update calendar event %s: %w", event.ID, err)
		log.Error(err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *RepositoryImpl) DeleteEvents(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.getQueryer().Exec(ctx, `DELETE FROM calendar_event WHERE id = ANY($1)`, ids)
	if err != nil {
		err := fmt.Errorf("could not delete calendar events: %w", err)
		log.Error(err)
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// eventArgs returns the column values in eventColumns order.
func eventArgs(e Event) []any {
	parts := e.Recurrence.Parts()
	var end *time.Time
	if t, ok := parts.EndDate.Get(); ok {
		end = &t
	}
	return []any{
		e.ID,
		e.SeriesKey(),
		e.Title,
		e.Start,
		e.Description,
		e.Category,
		e.Color,
		string(parts.Kind),
		parts.Interval,
		int16(parts.Weekdays),
		end,
		parts.MaxOccurrences,
	}
}

func scanEvent(row pgx.Row) (Event, error) {
	var (
		event    Event
		kind     string
		interval int
		weekdays int16
		end      sql.NullTime
		maxCount int
	)
	err := row.Scan(
		&event.ID,
		&event.SeriesID,
		&event.Title,
		&event.Start,
		&event.Description,
		&event.Category,
		&event.Color,
		&kind,
		&interval,
		&weekdays,
		&end,
		&maxCount,
	)
	if err != nil {
		return Event{}, err
	}

	parts := recurrence.RuleParts{
		Kind:           recurrence.Kind(kind),
		Interval:       interval,
		Weekdays:       recurrence.WeekdaySet(weekdays),
		MaxOccurrences: maxCount,
	}
	if end.Valid {
		parts.EndDate = mo.Some(end.Time)
	}
	event.Recurrence, err = recurrence.NewRule(parts)
	if err != nil {
		return Event{}, fmt.Errorf("event %s: %w", event.ID, err)
	}
	return event, nil
}
