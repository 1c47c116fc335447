package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/query-service/internal/domain"
)

// ErrStudentNotFound is returned when the directory has no such student.
var ErrStudentNotFound = errors.New("student not found")

// StudentDirectory is a read-only view of the portal's student records.
type StudentDirectory interface {
	GetByID(ctx context.Context, id string) (*domain.StudentProfile, error)
}

type studentDirectory struct {
	db querier
}

// NewStudentDirectory reads profiles from the portal's students table.
func NewStudentDirectory(db DB) StudentDirectory {
	return &studentDirectory{db: db}
}

func (d *studentDirectory) GetByID(ctx context.Context, id string) (*domain.StudentProfile, error) {
	const query = `
        SELECT id, name, branch, reg_no, admission_year
        FROM students WHERE id=$1`

	var profile domain.StudentProfile
	if err := d.db.QueryRow(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Branch,
		&profile.RegNo,
		&profile.AdmissionYear,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("lookup student: %w", err)
	}
	return &profile, nil
}

// MemoryStudentDirectory serves fixed profiles; used in tests and when no
// database is configured.
type MemoryStudentDirectory struct {
	mu       sync.RWMutex
	profiles map[string]domain.StudentProfile
}

// NewMemoryStudentDirectory seeds the directory with the given profiles.
func NewMemoryStudentDirectory(profiles ...domain.StudentProfile) *MemoryStudentDirectory {
	d := &MemoryStudentDirectory{profiles: make(map[string]domain.StudentProfile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.ID] = p
	}
	return d
}

func (d *MemoryStudentDirectory) GetByID(_ context.Context, id string) (*domain.StudentProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[id]
	if !ok {
		return nil, ErrStudentNotFound
	}
	return &p, nil
}
