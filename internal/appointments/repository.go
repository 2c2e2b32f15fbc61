package appointments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateSlot reports an insert rejected by the unique constraint on
// (date, time_slot, department).
var ErrDuplicateSlot = errors.New("appointments: slot already booked for this department")

// ErrNotFound reports a lookup for an appointment that does not exist.
var ErrNotFound = errors.New("appointments: not found")

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides persistence for appointments.
type Repository struct {
	db querier
}

// NewRepository creates a repository backed by a pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("appointments: pgx pool required")
	}
	return &Repository{db: pool}
}

func newRepositoryWithQuerier(db querier) *Repository {
	if db == nil {
		panic("appointments: querier required")
	}
	return &Repository{db: db}
}

const appointmentColumns = `id, date::text, time_slot::text, patient_name, department, patient_phone, created_at, updated_at`

func scanAppointment(row pgx.Row) (Appointment, error) {
	var apt Appointment
	err := row.Scan(&apt.ID, &apt.Date, &apt.TimeSlot, &apt.PatientName, &apt.Department, &apt.PatientPhone, &apt.CreatedAt, &apt.UpdatedAt)
	return apt, err
}

// Create inserts a new appointment. A unique-constraint violation on
// (date, time_slot, department) maps to ErrDuplicateSlot.
func (r *Repository) Create(ctx context.Context, apt Appointment) (Appointment, error) {
	if apt.ID == uuid.Nil {
		apt.ID = uuid.New()
	}
	query := `
		INSERT INTO appointments (id, date, time_slot, patient_name, department, patient_phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + appointmentColumns
	created, err := scanAppointment(r.db.QueryRow(ctx, query,
		apt.ID, apt.Date, apt.TimeSlot, apt.PatientName, apt.Department, apt.PatientPhone))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Appointment{}, ErrDuplicateSlot
		}
		return Appointment{}, fmt.Errorf("appointments: insert: %w", err)
	}
	return created, nil
}

// List returns appointments matching the filter, newest date first.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Appointment, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Date != "" {
		args = append(args, filter.Date)
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)))
	}
	if filter.Department != "" {
		args = append(args, filter.Department)
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)))
	}
	if filter.Phone != "" {
		args = append(args, "%"+filter.Phone)
		conditions = append(conditions, fmt.Sprintf("regexp_replace(patient_phone, '\\D', '', 'g') LIKE $%d", len(args)))
	}
	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date DESC, time_slot"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		apt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		result = append(result, apt)
	}
	return result, rows.Err()
}

// GetByID loads one appointment.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`
	apt, err := scanAppointment(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: load: %w", err)
	}
	return apt, nil
}

// Update rewrites an appointment's mutable fields. Moving it onto an occupied
// slot maps to ErrDuplicateSlot.
func (r *Repository) Update(ctx context.Context, apt Appointment) (Appointment, error) {
	query := `
		UPDATE appointments
		SET date = $2, time_slot = $3, patient_name = $4, department = $5, patient_phone = $6, updated_at = now()
		WHERE id = $1
		RETURNING ` + appointmentColumns
	updated, err := scanAppointment(r.db.QueryRow(ctx, query,
		apt.ID, apt.Date, apt.TimeSlot, apt.PatientName, apt.Department, apt.PatientPhone))
	if errors.Is(err, pgx.ErrNoRows) {
		return Appointment{}, ErrNotFound
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Appointment{}, ErrDuplicateSlot
		}
		return Appointment{}, fmt.Errorf("appointments: update: %w", err)
	}
	return updated, nil
}

// Delete removes an appointment.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("appointments: delete: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// BookedSlots returns the time slots already taken for a date and department.
func (r *Repository) BookedSlots(ctx context.Context, date, department string) ([]string, error) {
	query := `SELECT time_slot::text FROM appointments WHERE date = $1 AND department = $2 ORDER BY time_slot`
	rows, err := r.db.Query(ctx, query, date, department)
	if err != nil {
		return nil, fmt.Errorf("appointments: booked slots: %w", err)
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("appointments: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// ListByPhone returns a caller's upcoming and past appointments, matching on
// the last digits of the stored phone number.
func (r *Repository) ListByPhone(ctx context.Context, phoneDigits string) ([]Appointment, error) {
	return r.List(ctx, Filter{Phone: phoneDigits})
}
