package services

import (
	"context"
	"strings"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/validate"
	"github.com/shaan-hospital/apiserver/types"
)

const topDepartmentsByDiseases = 5

// DepartmentRepository defines persistence operations for departments.
type DepartmentRepository interface {
	List(ctx context.Context, includeInactive bool) ([]types.Department, error)
	Get(ctx context.Context, id string) (types.Department, error)
	GetActiveByName(ctx context.Context, name string) (types.Department, error)
	Create(ctx context.Context, dept types.Department) (types.Department, error)
	Update(ctx context.Context, dept types.Department) (types.Department, error)
	SetActive(ctx context.Context, id string, active bool) error
	Stats(ctx context.Context, top int) (types.DepartmentStats, error)
}

// DepartmentInput is the payload of department create and update requests.
// On update, nil fields keep their stored value.
type DepartmentInput struct {
	Name             *string             `json:"name"`
	Description      *string             `json:"description"`
	DetailedInfo     *string             `json:"detailedInfo"`
	Services         []string            `json:"services"`
	CommonDiseases   []types.Disease     `json:"commonDiseases" validate:"omitempty,dive"`
	HeadOfDepartment *string             `json:"headOfDepartment"`
	ContactInfo      *types.ContactInfo  `json:"contactInfo"`
	Facilities       []string            `json:"facilities"`
	WorkingHours     *types.WorkingHours `json:"workingHours"`
	IsActive         *bool               `json:"isActive"`
}

// DepartmentService encapsulates department use-cases.
type DepartmentService struct {
	repo   DepartmentRepository
	images *Images
}

func NewDepartmentService(repo DepartmentRepository, images *Images) *DepartmentService {
	return &DepartmentService{repo: repo, images: images}
}

// List returns active departments, newest first.
func (s *DepartmentService) List(ctx context.Context) ([]types.Department, error) {
	return s.repo.List(ctx, false)
}

// ListAll includes soft-deleted departments.
func (s *DepartmentService) ListAll(ctx context.Context) ([]types.Department, error) {
	return s.repo.List(ctx, true)
}

// Get returns a department. Inactive departments are visible to admins only.
func (s *DepartmentService) Get(ctx context.Context, id string, admin bool) (types.Department, error) {
	if err := checkID(id); err != nil {
		return types.Department{}, err
	}
	dept, err := s.repo.Get(ctx, id)
	if err != nil {
		return types.Department{}, storeError(err, "Department not found!")
	}
	if !dept.IsActive && !admin {
		return types.Department{}, apperr.NotFound("Department not found!")
	}
	return dept, nil
}

func (s *DepartmentService) GetByName(ctx context.Context, name string) (types.Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Department{}, apperr.NotFound("Department not found!")
	}
	dept, err := s.repo.GetActiveByName(ctx, name)
	return dept, storeError(err, "Department not found!")
}

func (s *DepartmentService) Create(ctx context.Context, in DepartmentInput, image *ImageUpload) (types.Department, error) {
	if err := s.images.Check(image); err != nil {
		return types.Department{}, err
	}
	if blank(in.Name) || blank(in.Description) || blank(in.DetailedInfo) {
		return types.Department{}, apperr.Validation("Please provide all required fields!")
	}
	if err := validate.Struct(in); err != nil {
		return types.Department{}, err
	}

	dept := types.Department{IsActive: true}
	applyDepartment(&dept, in)
	if in.IsActive != nil {
		dept.IsActive = *in.IsActive
	}

	var uploaded *types.Image
	if image != nil {
		img, err := s.images.Upload(ctx, FolderDepartments, *image)
		if err != nil {
			return types.Department{}, err
		}
		uploaded = &img
		dept.Image = uploaded
	}

	created, err := s.repo.Create(ctx, dept)
	if err != nil {
		s.images.Discard(ctx, uploaded, "department create failed")
		return types.Department{}, storeError(err, "Department not found!")
	}
	return created, nil
}

// Update applies a partial update. Lists and nested objects absent from the
// input keep their stored value.
func (s *DepartmentService) Update(ctx context.Context, id string, in DepartmentInput, image *ImageUpload) (types.Department, error) {
	if err := s.images.Check(image); err != nil {
		return types.Department{}, err
	}
	if err := validate.Struct(in); err != nil {
		return types.Department{}, err
	}
	dept, err := s.Get(ctx, id, true)
	if err != nil {
		return types.Department{}, err
	}

	applyDepartment(&dept, in)
	if in.IsActive != nil {
		dept.IsActive = *in.IsActive
	}
	if strings.TrimSpace(dept.Name) == "" || strings.TrimSpace(dept.Description) == "" {
		return types.Department{}, apperr.Validation("Please provide all required fields!")
	}

	previous := dept.Image
	var uploaded *types.Image
	if image != nil {
		img, err := s.images.Upload(ctx, FolderDepartments, *image)
		if err != nil {
			return types.Department{}, err
		}
		uploaded = &img
		dept.Image = uploaded
	}

	updated, err := s.repo.Update(ctx, dept)
	if err != nil {
		s.images.Discard(ctx, uploaded, "department update failed")
		return types.Department{}, storeError(err, "Department not found!")
	}
	if uploaded != nil {
		s.images.Discard(ctx, previous, "department image replaced")
	}
	return updated, nil
}

// Delete soft-deletes the department.
func (s *DepartmentService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id, true); err != nil {
		return err
	}
	return storeError(s.repo.SetActive(ctx, id, false), "Department not found!")
}

func (s *DepartmentService) Stats(ctx context.Context) (types.DepartmentStats, error) {
	return s.repo.Stats(ctx, topDepartmentsByDiseases)
}

func applyDepartment(dept *types.Department, in DepartmentInput) {
	if in.Name != nil {
		dept.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		dept.Description = strings.TrimSpace(*in.Description)
	}
	if in.DetailedInfo != nil {
		dept.DetailedInfo = *in.DetailedInfo
	}
	if in.HeadOfDepartment != nil {
		dept.HeadOfDepartment = strings.TrimSpace(*in.HeadOfDepartment)
	}
	if in.Services != nil {
		dept.Services = trimAll(in.Services)
	}
	if in.Facilities != nil {
		dept.Facilities = trimAll(in.Facilities)
	}
	if in.CommonDiseases != nil {
		dept.CommonDiseases = in.CommonDiseases
	}
	if in.ContactInfo != nil {
		dept.ContactInfo = *in.ContactInfo
	}
	if in.WorkingHours != nil {
		dept.WorkingHours = *in.WorkingHours
	}
	dept.WorkingHours = dept.WorkingHours.WithDefaults()
	if dept.Services == nil {
		dept.Services = []string{}
	}
	if dept.Facilities == nil {
		dept.Facilities = []string{}
	}
	if dept.CommonDiseases == nil {
		dept.CommonDiseases = []types.Disease{}
	}
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
