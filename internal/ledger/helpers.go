package ledger

import (
	"database/sql"
	"errors"
	"time"
)

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		rec           Record
		key           sql.NullString
		correlationID sql.NullString
		action        sql.NullString
		user          sql.NullString
		status        string
		detail        sql.NullString
		errMessage    sql.NullString
		errKind       sql.NullString
		startedRaw    string
		finishedRaw   sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Kind,
		&key,
		&correlationID,
		&action,
		&user,
		&status,
		&detail,
		&errMessage,
		&errKind,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	rec.Key = key.String
	rec.CorrelationID = correlationID.String
	rec.Action = action.String
	rec.User = user.String
	rec.Status = Status(status)
	rec.Detail = detail.String
	rec.ErrorMessage = errMessage.String
	rec.ErrorKind = errKind.String
	if started, err := parseTimeString(startedRaw); err == nil {
		rec.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			rec.FinishedAt = &finished
		}
	}
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// formatTime uses a fixed-width layout so lexical order matches time order in
// both backends.
func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000000Z")
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
