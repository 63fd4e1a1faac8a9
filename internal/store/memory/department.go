package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaan-hospital/apiserver/internal/store"
	"github.com/shaan-hospital/apiserver/types"
)

// DepartmentRepository stores departments in memory.
type DepartmentRepository struct {
	mu          sync.RWMutex
	departments map[string]*entry[types.Department]
	seq         int64
}

func NewDepartmentRepository() *DepartmentRepository {
	return &DepartmentRepository{departments: make(map[string]*entry[types.Department])}
}

func cloneDepartment(d types.Department) types.Department {
	d.Services = cloneStrings(d.Services)
	d.Facilities = cloneStrings(d.Facilities)
	diseases := make([]types.Disease, 0, len(d.CommonDiseases))
	for _, disease := range d.CommonDiseases {
		disease.Symptoms = cloneStrings(disease.Symptoms)
		disease.Treatments = cloneStrings(disease.Treatments)
		diseases = append(diseases, disease)
	}
	d.CommonDiseases = diseases
	d.Image = cloneImage(d.Image)
	return d
}

func (r *DepartmentRepository) List(_ context.Context, includeInactive bool) ([]types.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	departments := newestFirst(r.departments, func(d types.Department) bool {
		return includeInactive || d.IsActive
	})
	for i := range departments {
		departments[i] = cloneDepartment(departments[i])
	}
	return departments, nil
}

func (r *DepartmentRepository) Get(_ context.Context, id string) (types.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.departments[id]
	if !ok {
		return types.Department{}, store.ErrNotFound
	}
	return cloneDepartment(e.value), nil
}

func (r *DepartmentRepository) GetActiveByName(_ context.Context, name string) (types.Department, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, d := range newestFirst(r.departments, nil) {
		if d.IsActive && strings.EqualFold(d.Name, name) {
			return cloneDepartment(d), nil
		}
	}
	return types.Department{}, store.ErrNotFound
}

func (r *DepartmentRepository) Create(_ context.Context, dept types.Department) (types.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nameTaken(dept.Name, "") {
		return types.Department{}, &store.DuplicateKeyError{Field: "name"}
	}

	now := time.Now().UTC()
	dept.ID = uuid.NewString()
	dept.CreatedAt = now
	dept.UpdatedAt = now
	r.seq++
	r.departments[dept.ID] = &entry[types.Department]{value: cloneDepartment(dept), seq: r.seq}
	return dept, nil
}

func (r *DepartmentRepository) Update(_ context.Context, dept types.Department) (types.Department, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.departments[dept.ID]
	if !ok {
		return types.Department{}, store.ErrNotFound
	}
	if r.nameTaken(dept.Name, dept.ID) {
		return types.Department{}, &store.DuplicateKeyError{Field: "name"}
	}

	dept.CreatedAt = e.value.CreatedAt
	dept.UpdatedAt = time.Now().UTC()
	e.value = cloneDepartment(dept)
	return cloneDepartment(dept), nil
}

func (r *DepartmentRepository) SetActive(_ context.Context, id string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.departments[id]
	if !ok {
		return store.ErrNotFound
	}
	e.value.IsActive = active
	e.value.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *DepartmentRepository) Stats(_ context.Context, top int) (types.DepartmentStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stats := types.DepartmentStats{DepartmentsWithDiseases: make([]types.DepartmentDiseaseCount, 0, top)}
	for _, e := range r.departments {
		d := e.value
		if !d.IsActive {
			stats.InactiveDepartments++
			continue
		}
		stats.TotalDepartments++
		stats.DepartmentsWithDiseases = append(stats.DepartmentsWithDiseases, types.DepartmentDiseaseCount{
			ID:           d.ID,
			Name:         d.Name,
			DiseaseCount: len(d.CommonDiseases),
		})
	}

	ranked := stats.DepartmentsWithDiseases
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].DiseaseCount != ranked[j].DiseaseCount {
			return ranked[i].DiseaseCount > ranked[j].DiseaseCount
		}
		return ranked[i].Name < ranked[j].Name
	})
	if len(ranked) > top {
		stats.DepartmentsWithDiseases = ranked[:top]
	}
	return stats, nil
}

// nameTaken reports an exact name collision, matching the unique constraint.
func (r *DepartmentRepository) nameTaken(name, exceptID string) bool {
	for id, e := range r.departments {
		if id != exceptID && e.value.Name == name {
			return true
		}
	}
	return false
}
