package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

const departmentColumns = `id, name, description, detailed_info, services, common_diseases,
	head_of_department, contact_info, facilities, working_hours, image, is_active, created_at, updated_at`

// DepartmentRepository handles persistence for departments.
type DepartmentRepository struct {
	db *sql.DB
}

func NewDepartmentRepository(db *sql.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func scanDepartment(row rowScanner) (types.Department, error) {
	var dept types.Department
	var servicesJSON, diseasesJSON, contactJSON, facilitiesJSON, hoursJSON, imageJSON []byte
	err := row.Scan(
		&dept.ID,
		&dept.Name,
		&dept.Description,
		&dept.DetailedInfo,
		&servicesJSON,
		&diseasesJSON,
		&dept.HeadOfDepartment,
		&contactJSON,
		&facilitiesJSON,
		&hoursJSON,
		&imageJSON,
		&dept.IsActive,
		&dept.CreatedAt,
		&dept.UpdatedAt,
	)
	if err != nil {
		return types.Department{}, err
	}

	_ = json.Unmarshal(servicesJSON, &dept.Services)
	_ = json.Unmarshal(diseasesJSON, &dept.CommonDiseases)
	_ = json.Unmarshal(contactJSON, &dept.ContactInfo)
	_ = json.Unmarshal(facilitiesJSON, &dept.Facilities)
	_ = json.Unmarshal(hoursJSON, &dept.WorkingHours)
	dept.Image = decodeImage(imageJSON)
	return dept, nil
}

// departmentArgs encodes the JSONB columns in column order.
func departmentArgs(dept types.Department) (services, diseases, contact, facilities, hours, image any, err error) {
	if services, err = jsonList(dept.Services); err != nil {
		return
	}
	if diseases, err = jsonList(dept.CommonDiseases); err != nil {
		return
	}
	if contact, err = json.Marshal(dept.ContactInfo); err != nil {
		return
	}
	if facilities, err = jsonList(dept.Facilities); err != nil {
		return
	}
	if hours, err = json.Marshal(dept.WorkingHours); err != nil {
		return
	}
	image, err = imageValue(dept.Image)
	return
}

func (r *DepartmentRepository) getOne(ctx context.Context, query string, args ...any) (types.Department, error) {
	dept, err := scanDepartment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Department{}, ErrNotFound
		}
		return types.Department{}, err
	}
	return dept, nil
}

// List returns departments newest first. Inactive departments are included
// only when includeInactive is set.
func (r *DepartmentRepository) List(ctx context.Context, includeInactive bool) ([]types.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE is_active ORDER BY created_at DESC, id`
	if includeInactive {
		query = `SELECT ` + departmentColumns + ` FROM departments ORDER BY created_at DESC, id`
	}
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	departments := make([]types.Department, 0)
	for rows.Next() {
		dept, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		departments = append(departments, dept)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return departments, nil
}

func (r *DepartmentRepository) Get(ctx context.Context, id string) (types.Department, error) {
	return r.getOne(ctx, `SELECT `+departmentColumns+` FROM departments WHERE id = $1`, id)
}

// GetActiveByName matches the name case-insensitively.
func (r *DepartmentRepository) GetActiveByName(ctx context.Context, name string) (types.Department, error) {
	const query = `SELECT ` + departmentColumns + `
		FROM departments
		WHERE lower(name) = lower($1) AND is_active
		LIMIT 1`
	return r.getOne(ctx, query, name)
}

func (r *DepartmentRepository) Create(ctx context.Context, dept types.Department) (types.Department, error) {
	now := time.Now().UTC()
	dept.ID = uuid.NewString()
	dept.CreatedAt = now
	dept.UpdatedAt = now

	servicesJSON, diseasesJSON, contactJSON, facilitiesJSON, hoursJSON, imageJSON, err := departmentArgs(dept)
	if err != nil {
		return types.Department{}, err
	}

	const query = `
		INSERT INTO departments (id, name, description, detailed_info, services, common_diseases,
			head_of_department, contact_info, facilities, working_hours, image, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		dept.ID,
		dept.Name,
		dept.Description,
		dept.DetailedInfo,
		servicesJSON,
		diseasesJSON,
		dept.HeadOfDepartment,
		contactJSON,
		facilitiesJSON,
		hoursJSON,
		imageJSON,
		dept.IsActive,
		dept.CreatedAt,
		dept.UpdatedAt,
	); err != nil {
		return types.Department{}, translateError(err)
	}
	return dept, nil
}

func (r *DepartmentRepository) Update(ctx context.Context, dept types.Department) (types.Department, error) {
	dept.UpdatedAt = time.Now().UTC()

	servicesJSON, diseasesJSON, contactJSON, facilitiesJSON, hoursJSON, imageJSON, err := departmentArgs(dept)
	if err != nil {
		return types.Department{}, err
	}

	const query = `
		UPDATE departments
		SET name = $1,
			description = $2,
			detailed_info = $3,
			services = $4,
			common_diseases = $5,
			head_of_department = $6,
			contact_info = $7,
			facilities = $8,
			working_hours = $9,
			image = $10,
			is_active = $11,
			updated_at = $12
		WHERE id = $13`
	result, err := r.db.ExecContext(
		ctx,
		query,
		dept.Name,
		dept.Description,
		dept.DetailedInfo,
		servicesJSON,
		diseasesJSON,
		dept.HeadOfDepartment,
		contactJSON,
		facilitiesJSON,
		hoursJSON,
		imageJSON,
		dept.IsActive,
		dept.UpdatedAt,
		dept.ID,
	)
	if err != nil {
		return types.Department{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Department{}, err
	}
	if affected == 0 {
		return types.Department{}, ErrNotFound
	}
	return dept, nil
}

// SetActive flips the soft-delete flag.
func (r *DepartmentRepository) SetActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE departments SET is_active = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, active, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Stats counts active and inactive departments and ranks the active ones by
// the number of common diseases they list.
func (r *DepartmentRepository) Stats(ctx context.Context, top int) (types.DepartmentStats, error) {
	const countQuery = `
		SELECT COUNT(1) FILTER (WHERE is_active),
			COUNT(1) FILTER (WHERE NOT is_active)
		FROM departments`
	var stats types.DepartmentStats
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&stats.TotalDepartments, &stats.InactiveDepartments); err != nil {
		return types.DepartmentStats{}, err
	}

	const rankQuery = `
		SELECT id, name, jsonb_array_length(common_diseases) AS disease_count
		FROM departments
		WHERE is_active
		ORDER BY disease_count DESC, name
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, rankQuery, top)
	if err != nil {
		return types.DepartmentStats{}, err
	}
	defer rows.Close()

	stats.DepartmentsWithDiseases = make([]types.DepartmentDiseaseCount, 0, top)
	for rows.Next() {
		var entry types.DepartmentDiseaseCount
		if err := rows.Scan(&entry.ID, &entry.Name, &entry.DiseaseCount); err != nil {
			return types.DepartmentStats{}, err
		}
		stats.DepartmentsWithDiseases = append(stats.DepartmentsWithDiseases, entry)
	}
	if err := rows.Err(); err != nil {
		return types.DepartmentStats{}, err
	}
	return stats, nil
}
