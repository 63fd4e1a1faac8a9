package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/types"
)

const userColumns = `id, first_name, last_name, email, phone, aadhar, dob, gender, role,
	doctor_department, doc_avatar, password_hash, last_login, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var avatarJSON []byte
	var lastLogin sql.NullTime
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Phone,
		&user.Aadhar,
		&user.DOB,
		&user.Gender,
		&user.Role,
		&user.DoctorDepartment,
		&avatarJSON,
		&user.PasswordHash,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return types.User{}, err
	}
	user.DocAvatar = decodeImage(avatarJSON)
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) list(ctx context.Context, query string, args ...any) ([]types.User, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]types.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// List returns users ordered by creation time, newest first. A nil role
// returns every user.
func (r *UserRepository) List(ctx context.Context, role *types.Role) ([]types.User, error) {
	if role == nil {
		return r.list(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at DESC, id`)
	}
	return r.list(ctx, `SELECT `+userColumns+` FROM users WHERE role = $1 ORDER BY created_at DESC, id`, *role)
}

// FindDoctors returns doctors matching the exact name within a department.
func (r *UserRepository) FindDoctors(ctx context.Context, firstName, lastName, department string) ([]types.User, error) {
	const query = `SELECT ` + userColumns + `
		FROM users
		WHERE role = $1 AND first_name = $2 AND last_name = $3 AND doctor_department = $4
		ORDER BY created_at`
	return r.list(ctx, query, types.RoleDoctor, firstName, lastName, department)
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now

	avatarJSON, err := imageValue(user.DocAvatar)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		INSERT INTO users (id, first_name, last_name, email, phone, aadhar, dob, gender, role,
			doctor_department, doc_avatar, password_hash, last_login, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Aadhar,
		user.DOB,
		user.Gender,
		user.Role,
		user.DoctorDepartment,
		avatarJSON,
		user.PasswordHash,
		user.LastLogin,
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return types.User{}, translateError(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now().UTC()

	avatarJSON, err := imageValue(user.DocAvatar)
	if err != nil {
		return types.User{}, err
	}

	const query = `
		UPDATE users
		SET first_name = $1,
			last_name = $2,
			email = $3,
			phone = $4,
			aadhar = $5,
			dob = $6,
			gender = $7,
			role = $8,
			doctor_department = $9,
			doc_avatar = $10,
			password_hash = $11,
			updated_at = $12
		WHERE id = $13`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.FirstName,
		user.LastName,
		user.Email,
		user.Phone,
		user.Aadhar,
		user.DOB,
		user.Gender,
		user.Role,
		user.DoctorDepartment,
		avatarJSON,
		user.PasswordHash,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translateError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

// TouchLastLogin stamps the login time without rewriting the rest of the row.
func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_login = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, at, id)
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

// Delete removes the user and returns the deleted record.
func (r *UserRepository) Delete(ctx context.Context, id string) (types.User, error) {
	return r.getOne(ctx, `DELETE FROM users WHERE id = $1 RETURNING `+userColumns, id)
}

// Stats counts users per role plus patients registered since newSince and
// patients who logged in since loginSince.
func (r *UserRepository) Stats(ctx context.Context, newSince, loginSince time.Time) (types.UserStats, error) {
	const query = `
		SELECT COUNT(1),
			COUNT(1) FILTER (WHERE role = 'Patient'),
			COUNT(1) FILTER (WHERE role = 'Doctor'),
			COUNT(1) FILTER (WHERE role = 'Admin'),
			COUNT(1) FILTER (WHERE role = 'Patient' AND created_at >= $1),
			COUNT(1) FILTER (WHERE role = 'Patient' AND last_login >= $2)
		FROM users`
	var stats types.UserStats
	err := r.db.QueryRowContext(ctx, query, newSince, loginSince).Scan(
		&stats.TotalUsers,
		&stats.TotalPatients,
		&stats.TotalDoctors,
		&stats.TotalAdmins,
		&stats.RecentPatients,
		&stats.RecentLogins,
	)
	if err != nil {
		return types.UserStats{}, err
	}
	return stats, nil
}
