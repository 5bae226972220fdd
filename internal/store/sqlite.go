package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/Evgen-rus/Vibe-check-telegram-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	loc *time.Location
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies recommended PRAGMAs, runs SQL migrations, and returns a
// repository. Timestamps are stored as unix seconds and surfaced in loc.
func OpenSQLite(ctx context.Context, path string, loc *time.Location) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Single writer; the message path and the scheduling loop share it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	if loc == nil {
		loc = time.UTC
	}
	return &SQLiteRepo{db: db, loc: loc}, nil
}

// applyPragmas configures the SQLite connection for durability and concurrency.
func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// --- users / chat binding ---

// BindChat records the delivery destination for a user, creating the user
// row if needed.
func (r *SQLiteRepo) BindChat(ctx context.Context, userID, chatID int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (user_id, chat_id, created_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET chat_id = excluded.chat_id`,
		userID, chatID, time.Now().Unix(),
	)
	return err
}

// ChatID returns the bound chat for a user; ok is false when the user is
// unknown or has no binding yet.
func (r *SQLiteRepo) ChatID(ctx context.Context, userID int64) (int64, bool, error) {
	var chat sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		`SELECT chat_id FROM users WHERE user_id = ?`, userID,
	).Scan(&chat)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return chat.Int64, chat.Valid, nil
}

// --- reminders ---

const reminderColumns = `id, user_id, kind, time_hhmm, text, date_once, weekdays,
	period_minutes, window_from_m, window_to_m, last_sent_date, snooze_until, next_fire_at, created_at`

// AddReminder validates and persists a reminder, returning its assigned id.
func (r *SQLiteRepo) AddReminder(ctx context.Context, rem *domain.Reminder) (int64, error) {
	if rem == nil {
		return 0, errors.New("nil reminder")
	}
	if err := rem.Validate(); err != nil {
		return 0, err
	}

	var fromM, toM sql.NullInt64
	if rem.Window != nil {
		fromM = sql.NullInt64{Int64: int64(rem.Window.FromM), Valid: true}
		toM = sql.NullInt64{Int64: int64(rem.Window.ToM), Valid: true}
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO reminders (
			user_id, kind, time_hhmm, text, date_once, weekdays,
			period_minutes, window_from_m, window_to_m,
			last_sent_date, snooze_until, next_fire_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, NULL, ?, ?)`,
		rem.UserID, string(rem.Kind), toNullString(rem.TimeHHMM), rem.Text,
		toNullString(rem.DateOnce), toNullString(rem.Weekdays),
		toNullInt(rem.PeriodMinutes), fromM, toM,
		toNullTime(rem.NextFireAt), time.Now().Unix(),
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	rem.ID = id
	return id, nil
}

// ListReminders returns a user's reminders ordered by time of day, then id.
func (r *SQLiteRepo) ListReminders(ctx context.Context, userID int64) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE user_id = ?
		ORDER BY time_hhmm ASC, id ASC`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	return r.collectReminders(rows)
}

// DeleteReminder removes a reminder by id. When id does not match a row,
// it is retried as a 1-based position in the user's list, so users can
// delete by the ordinal shown in /list output.
func (r *SQLiteRepo) DeleteReminder(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return false, err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return true, nil
	}

	items, err := r.ListReminders(ctx, userID)
	if err != nil {
		return false, err
	}
	idx := int(id) - 1
	if idx < 0 || idx >= len(items) {
		return false, nil
	}
	_, err = r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, items[idx].ID)
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSent records a regular (non-snooze) fire: the same-day suppression
// date is set and any pending snooze is consumed.
func (r *SQLiteRepo) MarkSent(ctx context.Context, userID, id int64, date string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET last_sent_date = ?, snooze_until = NULL
		WHERE user_id = ? AND id = ?`,
		date, userID, id,
	)
	return err
}

// SetSnooze schedules a one-time override fire at the given timestamp.
func (r *SQLiteRepo) SetSnooze(ctx context.Context, userID, id int64, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET snooze_until = ?
		WHERE user_id = ? AND id = ?`,
		until.Unix(), userID, id,
	)
	return err
}

// ClearSnooze consumes a snooze marker. Clearing an already-clear marker
// is a no-op, not an error.
func (r *SQLiteRepo) ClearSnooze(ctx context.Context, userID, id int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET snooze_until = NULL
		WHERE user_id = ? AND id = ?`,
		userID, id,
	)
	return err
}

// BumpNextFire advances a periodic reminder and consumes any snooze so a
// tick that matched both interprets them as a single fire.
func (r *SQLiteRepo) BumpNextFire(ctx context.Context, userID, id int64, next time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE reminders SET next_fire_at = ?, snooze_until = NULL
		WHERE user_id = ? AND id = ?`,
		next.Unix(), userID, id,
	)
	return err
}

// DeleteByID removes a reminder without the positional fallback. The
// scheduling loop uses it to archive spent one-shot reminders.
func (r *SQLiteRepo) DeleteByID(ctx context.Context, userID, id int64) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM reminders WHERE user_id = ? AND id = ?`, userID, id)
	return err
}

// --- due-candidate queries ---

// TimeMatchCandidates returns non-periodic reminders anchored at hhmm that
// have not been delivered on date yet. Kind filters are applied by
// domain.Evaluate.
func (r *SQLiteRepo) TimeMatchCandidates(ctx context.Context, hhmm, date string) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE kind <> 'periodic'
		  AND time_hhmm = ?
		  AND (last_sent_date IS NULL OR last_sent_date <> ?)`,
		hhmm, date,
	)
	if err != nil {
		return nil, err
	}
	return r.collectReminders(rows)
}

// SnoozeCandidates returns reminders of any kind whose snooze has elapsed.
func (r *SQLiteRepo) SnoozeCandidates(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE snooze_until IS NOT NULL AND snooze_until <= ?`,
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.collectReminders(rows)
}

// PeriodicCandidates returns periodic reminders whose next fire has elapsed.
func (r *SQLiteRepo) PeriodicCandidates(ctx context.Context, now time.Time) ([]domain.Reminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+reminderColumns+`
		FROM reminders
		WHERE kind = 'periodic'
		  AND next_fire_at IS NOT NULL AND next_fire_at <= ?`,
		now.Unix(),
	)
	if err != nil {
		return nil, err
	}
	return r.collectReminders(rows)
}

// collectReminders scans and closes a reminder result set.
func (r *SQLiteRepo) collectReminders(rows *sql.Rows) ([]domain.Reminder, error) {
	defer rows.Close()

	var res []domain.Reminder
	for rows.Next() {
		var (
			rem      domain.Reminder
			kind     string
			hhmm     sql.NullString
			dateOnce sql.NullString
			weekdays sql.NullString
			lastSent sql.NullString
			period   sql.NullInt64
			fromM    sql.NullInt64
			toM      sql.NullInt64
			snooze   sql.NullInt64
			next     sql.NullInt64
			created  int64
		)
		if err := rows.Scan(
			&rem.ID, &rem.UserID, &kind, &hhmm, &rem.Text, &dateOnce, &weekdays,
			&period, &fromM, &toM, &lastSent, &snooze, &next, &created,
		); err != nil {
			return nil, err
		}
		rem.Kind = domain.Kind(kind)
		rem.TimeHHMM = hhmm.String
		rem.DateOnce = dateOnce.String
		rem.Weekdays = weekdays.String
		rem.LastSentDate = lastSent.String
		rem.PeriodMinutes = int(period.Int64)
		if fromM.Valid && toM.Valid {
			rem.Window = &domain.Window{FromM: int(fromM.Int64), ToM: int(toM.Int64)}
		}
		rem.SnoozeUntil = fromNullTime(snooze, r.loc)
		rem.NextFireAt = fromNullTime(next, r.loc)
		rem.CreatedAt = time.Unix(created, 0).In(r.loc)
		res = append(res, rem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// --- profile ---

// SetProfileField upserts a profile attribute, applying it only when the
// value is non-empty and actually changed.
func (r *SQLiteRepo) SetProfileField(ctx context.Context, userID int64, name, value string) error {
	if name == "" || value == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profile_fields (user_id, name, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id, name) DO UPDATE SET
			value = excluded.value, updated_at = excluded.updated_at
		WHERE profile_fields.value <> excluded.value`,
		userID, name, value, time.Now().Unix(),
	)
	return err
}

// Profile returns all profile attributes of a user.
func (r *SQLiteRepo) Profile(ctx context.Context, userID int64) (map[string]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT name, value FROM profile_fields WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		res[name] = value
	}
	return res, rows.Err()
}

// --- dialog history ---

// AppendMessage stores one turn of the conversation.
func (r *SQLiteRepo) AppendMessage(ctx context.Context, userID int64, role, content string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (user_id, role, content, ts) VALUES (?, ?, ?, ?)`,
		userID, role, content, time.Now().Unix(),
	)
	return err
}

// History returns the last limit turns in chronological order.
func (r *SQLiteRepo) History(ctx context.Context, userID int64, limit int) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT role, content FROM messages
		WHERE user_id = ?
		ORDER BY id DESC LIMIT ?`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// ClearHistory drops a user's dialog history.
func (r *SQLiteRepo) ClearHistory(ctx context.Context, userID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE user_id = ?`, userID)
	return err
}
