package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/internal/validate"
	"github.com/shaan-hospital/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

const (
	recentPatientsWindow = 7 * 24 * time.Hour
	recentLoginsWindow   = 24 * time.Hour
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	List(ctx context.Context, role *types.Role) ([]types.User, error)
	FindDoctors(ctx context.Context, firstName, lastName, department string) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	Delete(ctx context.Context, id string) (types.User, error)
	Stats(ctx context.Context, newSince, loginSince time.Time) (types.UserStats, error)
}

// ProfileInput carries the personal fields shared by every account.
type ProfileInput struct {
	FirstName string       `json:"firstName" validate:"required,min=3"`
	LastName  string       `json:"lastName" validate:"required,min=3"`
	Email     string       `json:"email" validate:"required,email"`
	Phone     string       `json:"phone" validate:"required,numeric,len=11"`
	Aadhar    string       `json:"aadhar" validate:"required,numeric,len=12"`
	DOB       string       `json:"dob" validate:"required"`
	Gender    types.Gender `json:"gender" validate:"required,enum"`
}

// AccountInput is a new account with its initial password.
type AccountInput struct {
	ProfileInput
	Password string `json:"password" validate:"required,min=8"`
}

// DoctorInput is a new doctor account.
type DoctorInput struct {
	AccountInput
	DoctorDepartment string `json:"doctorDepartment" validate:"required"`
}

// LoginInput carries credentials and the role the caller signs in as.
type LoginInput struct {
	Email           string     `json:"email"`
	Password        string     `json:"password"`
	ConfirmPassword string     `json:"confirmPassword"`
	Role            types.Role `json:"role"`
}

// UserUpdate is a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	FirstName        *string       `json:"firstName" validate:"omitempty,min=3"`
	LastName         *string       `json:"lastName" validate:"omitempty,min=3"`
	Email            *string       `json:"email" validate:"omitempty,email"`
	Phone            *string       `json:"phone" validate:"omitempty,numeric,len=11"`
	Aadhar           *string       `json:"aadhar" validate:"omitempty,numeric,len=12"`
	DOB              *string       `json:"dob"`
	Gender           *types.Gender `json:"gender" validate:"omitempty,enum"`
	DoctorDepartment *string       `json:"doctorDepartment"`
}

// PasswordChange replaces the caller's password.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo   UserRepository
	images *Images
	now    func() time.Time
}

func NewUserService(repo UserRepository, images *Images) *UserService {
	return &UserService{repo: repo, images: images, now: time.Now}
}

// Register creates a patient account.
func (s *UserService) Register(ctx context.Context, in AccountInput) (types.User, error) {
	user, err := s.newAccount(ctx, in, types.RolePatient, "User Already Register!")
	if err != nil {
		return types.User{}, err
	}
	created, err := s.repo.Create(ctx, user)
	return created, storeError(err, "User not found!")
}

// CreateAdmin provisions another administrator.
func (s *UserService) CreateAdmin(ctx context.Context, in AccountInput) (types.User, error) {
	user, err := s.newAccount(ctx, in, types.RoleAdmin, "Admin With This Email Already Exists!")
	if err != nil {
		return types.User{}, err
	}
	created, err := s.repo.Create(ctx, user)
	return created, storeError(err, "User not found!")
}

// CreateDoctor provisions a doctor with the mandatory avatar.
func (s *UserService) CreateDoctor(ctx context.Context, in DoctorInput, avatar *ImageUpload) (types.User, error) {
	if avatar == nil {
		return types.User{}, apperr.Validation("Doctor Avatar Required!")
	}
	if err := s.images.Check(avatar); err != nil {
		return types.User{}, err
	}
	if err := validate.Struct(in); err != nil {
		return types.User{}, err
	}

	user, err := s.newAccount(ctx, in.AccountInput, types.RoleDoctor, "Doctor With This Email Already Exists!")
	if err != nil {
		return types.User{}, err
	}
	user.DoctorDepartment = strings.TrimSpace(in.DoctorDepartment)

	img, err := s.images.Upload(ctx, FolderDoctors, *avatar)
	if err != nil {
		return types.User{}, err
	}
	user.DocAvatar = &img

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		s.images.Discard(ctx, &img, "doctor create failed")
		return types.User{}, storeError(err, "User not found!")
	}
	return created, nil
}

func (s *UserService) newAccount(ctx context.Context, in AccountInput, role types.Role, exists string) (types.User, error) {
	if err := validate.Struct(in); err != nil {
		return types.User{}, err
	}
	dob, err := parseDate("dob", in.DOB)
	if err != nil {
		return types.User{}, err
	}

	email := normalizeEmail(in.Email)
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return types.User{}, apperr.Duplicate("email", exists)
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return types.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        strings.TrimSpace(in.Phone),
		Aadhar:       strings.TrimSpace(in.Aadhar),
		DOB:          dob,
		Gender:       in.Gender,
		Role:         role,
		PasswordHash: string(hashed),
	}, nil
}

// Login verifies credentials for the requested role and stamps lastLogin.
func (s *UserService) Login(ctx context.Context, in LoginInput) (types.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" || in.Role == "" {
		return types.User{}, apperr.Validation("Please Provide All Details!")
	}
	if in.ConfirmPassword != "" && in.ConfirmPassword != in.Password {
		return types.User{}, apperr.Validation("Password & Confirm Password Do Not Match!")
	}

	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, apperr.Validation("Invalid Password Or Email!")
		}
		return types.User{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return types.User{}, apperr.Validation("Invalid Password Or Email!")
	}
	if user.Role != in.Role {
		return types.User{}, apperr.Validation("User With This Role Not Found!")
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastLogin(ctx, user.ID, now); err != nil {
		return types.User{}, storeError(err, "User not found!")
	}
	user.LastLogin = &now
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	if err := checkID(id); err != nil {
		return types.User{}, err
	}
	user, err := s.repo.GetByID(ctx, id)
	return user, storeError(err, "User not found!")
}

// List returns users with the given role, or every user when role is nil.
func (s *UserService) List(ctx context.Context, role *types.Role) ([]types.User, error) {
	return s.repo.List(ctx, role)
}

func (s *UserService) Stats(ctx context.Context) (types.UserStats, error) {
	now := s.now().UTC()
	return s.repo.Stats(ctx, now.Add(-recentPatientsWindow), now.Add(-recentLoginsWindow))
}

// Update applies a partial profile update to any account.
func (s *UserService) Update(ctx context.Context, id string, in UserUpdate) (types.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if err := s.applyUpdate(ctx, &user, in); err != nil {
		return types.User{}, err
	}
	updated, err := s.repo.Update(ctx, user)
	return updated, storeError(err, "User not found!")
}

// UpdateDoctor updates a doctor and optionally replaces the avatar. The old
// avatar is retired only after the new record is stored.
func (s *UserService) UpdateDoctor(ctx context.Context, id string, in UserUpdate, avatar *ImageUpload) (types.User, error) {
	if err := s.images.Check(avatar); err != nil {
		return types.User{}, err
	}
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return types.User{}, err
	}
	if user.Role != types.RoleDoctor {
		return types.User{}, apperr.NotFound("Doctor not found!")
	}
	if err := s.applyUpdate(ctx, &user, in); err != nil {
		return types.User{}, err
	}

	previous := user.DocAvatar
	var uploaded *types.Image
	if avatar != nil {
		img, err := s.images.Upload(ctx, FolderDoctors, *avatar)
		if err != nil {
			return types.User{}, err
		}
		uploaded = &img
		user.DocAvatar = uploaded
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		s.images.Discard(ctx, uploaded, "doctor update failed")
		return types.User{}, storeError(err, "Doctor not found!")
	}
	if uploaded != nil {
		s.images.Discard(ctx, previous, "doctor avatar replaced")
	}
	return updated, nil
}

// UpdateOwnProfile lets a patient edit personal fields. Department and role
// cannot be changed this way.
func (s *UserService) UpdateOwnProfile(ctx context.Context, id string, in UserUpdate) (types.User, error) {
	in.DoctorDepartment = nil
	return s.Update(ctx, id, in)
}

func (s *UserService) applyUpdate(ctx context.Context, user *types.User, in UserUpdate) error {
	if err := validate.Struct(in); err != nil {
		return err
	}

	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		if email != user.Email {
			existing, err := s.repo.GetByEmail(ctx, email)
			if err == nil && existing.ID != user.ID {
				return apperr.Duplicate("email", "")
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				return err
			}
			user.Email = email
		}
	}
	if in.DOB != nil {
		dob, err := parseDate("dob", *in.DOB)
		if err != nil {
			return err
		}
		user.DOB = dob
	}
	if in.FirstName != nil {
		user.FirstName = strings.TrimSpace(*in.FirstName)
	}
	if in.LastName != nil {
		user.LastName = strings.TrimSpace(*in.LastName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Aadhar != nil {
		user.Aadhar = strings.TrimSpace(*in.Aadhar)
	}
	if in.Gender != nil {
		user.Gender = *in.Gender
	}
	if in.DoctorDepartment != nil && user.Role == types.RoleDoctor {
		user.DoctorDepartment = strings.TrimSpace(*in.DoctorDepartment)
	}
	return nil
}

// ChangePassword replaces the password after checking the current one.
func (s *UserService) ChangePassword(ctx context.Context, id string, in PasswordChange) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.NewPassword != in.ConfirmPassword {
		return apperr.Validation("Password & Confirm Password Do Not Match!")
	}

	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return apperr.Validation("Current Password Is Incorrect!")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hashed)
	_, err = s.repo.Update(ctx, user)
	return storeError(err, "User not found!")
}

// Delete removes the account. A doctor's avatar is retired afterwards.
func (s *UserService) Delete(ctx context.Context, id string) (types.User, error) {
	if err := checkID(id); err != nil {
		return types.User{}, err
	}
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return types.User{}, storeError(err, "User not found!")
	}
	if deleted.Role == types.RoleDoctor {
		s.images.Discard(ctx, deleted.DocAvatar, "doctor deleted")
	}
	return deleted, nil
}

// FindDoctor resolves the single doctor with the given name in department.
func (s *UserService) FindDoctor(ctx context.Context, firstName, lastName, department string) (types.User, error) {
	doctors, err := s.repo.FindDoctors(ctx, strings.TrimSpace(firstName), strings.TrimSpace(lastName), strings.TrimSpace(department))
	if err != nil {
		return types.User{}, err
	}
	switch len(doctors) {
	case 0:
		return types.User{}, apperr.NotFound("Doctor not found!")
	case 1:
		return doctors[0], nil
	default:
		return types.User{}, apperr.Validation("Doctors Conflict! Please Contact Through Email Or Phone!")
	}
}

// AdminSeed is the default administrator created on first boot.
type AdminSeed struct {
	Email    string
	Password string
}

// EnsureAdmin creates the default administrator unless the email is taken.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, seed AdminSeed) (types.User, bool, error) {
	email := normalizeEmail(seed.Email)
	if existing, err := s.repo.GetByEmail(ctx, email); err == nil {
		return existing, false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.User{}, false, err
	}

	created, err := s.CreateAdmin(ctx, AccountInput{
		ProfileInput: ProfileInput{
			FirstName: "Super",
			LastName:  "Admin",
			Email:     email,
			Phone:     "03001234567",
			Aadhar:    "123456789012",
			DOB:       "2002-06-06",
			Gender:    types.GenderMale,
		},
		Password: seed.Password,
	})
	if err != nil {
		return types.User{}, false, err
	}
	return created, true, nil
}

// ResetAdminPassword sets a new password on an existing administrator.
func (s *UserService) ResetAdminPassword(ctx context.Context, seed AdminSeed) (types.User, error) {
	user, err := s.repo.GetByEmail(ctx, normalizeEmail(seed.Email))
	if err != nil {
		return types.User{}, storeError(err, "Admin not found!")
	}
	if user.Role != types.RoleAdmin {
		return types.User{}, apperr.NotFound("Admin not found!")
	}
	if len(seed.Password) < 8 {
		return types.User{}, apperr.Validation("password must contain at least 8 characters!")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(seed.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}
	user.PasswordHash = string(hashed)
	updated, err := s.repo.Update(ctx, user)
	return updated, storeError(err, "Admin not found!")
}
