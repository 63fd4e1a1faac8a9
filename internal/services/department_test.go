package services

import (
	"context"
	"testing"

	"github.com/shaan-hospital/apiserver/internal/apperr"
	"github.com/shaan-hospital/apiserver/internal/store/memory"
	"github.com/shaan-hospital/apiserver/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDepartmentService() (*DepartmentService, *recordingCleaner) {
	cleaner := &recordingCleaner{}
	return NewDepartmentService(memory.NewDepartmentRepository(), NewImages(newFakeObjects(), cleaner)), cleaner
}

func departmentInput(name string) DepartmentInput {
	return DepartmentInput{
		Name:         ptr(name),
		Description:  ptr(name + " department"),
		DetailedInfo: ptr("Everything about " + name),
		Services:     []string{" ECG ", "", "Angiography"},
	}
}

func TestCreateDepartmentDefaults(t *testing.T) {
	svc, _ := newDepartmentService()

	dept, err := svc.Create(context.Background(), departmentInput("Cardiology"), nil)
	require.NoError(t, err)
	assert.True(t, dept.IsActive)
	assert.Equal(t, []string{"ECG", "Angiography"}, dept.Services)
	assert.Equal(t, []string{}, dept.Facilities)
	assert.Equal(t, types.DefaultWeekdayHours, dept.WorkingHours.Weekdays)
	assert.Equal(t, types.DefaultWeekendHours, dept.WorkingHours.Weekends)
}

func TestCreateDepartmentRequiresFields(t *testing.T) {
	svc, _ := newDepartmentService()
	ctx := context.Background()

	in := departmentInput("Neurology")
	in.DetailedInfo = nil
	_, err := svc.Create(ctx, in, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please provide all required fields!")

	in = departmentInput("Neurology")
	in.CommonDiseases = []types.Disease{{Name: "Migraine"}}
	_, err = svc.Create(ctx, in, nil)
	assert.Equal(t, apperr.KindValidation, kindOf(err))
}

func TestCreateDepartmentDuplicateName(t *testing.T) {
	svc, _ := newDepartmentService()
	ctx := context.Background()

	_, err := svc.Create(ctx, departmentInput("Oncology"), nil)
	require.NoError(t, err)

	_, err = svc.Create(ctx, departmentInput("Oncology"), nil)
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindDuplicateKey, appErr.Kind)
	assert.Equal(t, "name", appErr.Field)
}

func TestSoftDeletedDepartmentHiddenFromPublic(t *testing.T) {
	svc, _ := newDepartmentService()
	ctx := context.Background()

	dept, err := svc.Create(ctx, departmentInput("Radiology"), nil)
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, dept.ID))

	_, err = svc.Get(ctx, dept.ID, false)
	assert.Equal(t, apperr.KindNotFound, kindOf(err))

	got, err := svc.Get(ctx, dept.ID, true)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	active, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	_, err = svc.GetByName(ctx, "radiology")
	assert.Equal(t, apperr.KindNotFound, kindOf(err))
}

func TestGetDepartmentByNameIgnoresCase(t *testing.T) {
	svc, _ := newDepartmentService()
	ctx := context.Background()

	dept, err := svc.Create(ctx, departmentInput("Pediatrics"), nil)
	require.NoError(t, err)

	got, err := svc.GetByName(ctx, "PEDIATRICS")
	require.NoError(t, err)
	assert.Equal(t, dept.ID, got.ID)
}

func TestUpdateDepartmentKeepsAbsentFields(t *testing.T) {
	svc, cleaner := newDepartmentService()
	ctx := context.Background()

	in := departmentInput("Orthopedics")
	in.CommonDiseases = []types.Disease{{Name: "Arthritis", Description: "Joint inflammation"}}
	dept, err := svc.Create(ctx, in, pngUpload())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, dept.ID, DepartmentInput{HeadOfDepartment: ptr("Dr. Bones")}, pngUpload())
	require.NoError(t, err)
	assert.Equal(t, "Dr. Bones", updated.HeadOfDepartment)
	assert.Equal(t, dept.Services, updated.Services)
	assert.Len(t, updated.CommonDiseases, 1)
	assert.NotEqual(t, dept.Image.PublicID, updated.Image.PublicID)
	assert.Equal(t, []string{dept.Image.PublicID}, cleaner.ids())
}

func TestDepartmentStatsRanksByDiseaseCount(t *testing.T) {
	svc, _ := newDepartmentService()
	ctx := context.Background()

	for i, name := range []string{"A-Dept", "B-Dept", "C-Dept"} {
		in := departmentInput(name)
		for j := 0; j <= i; j++ {
			in.CommonDiseases = append(in.CommonDiseases, types.Disease{Name: "d", Description: "d"})
		}
		_, err := svc.Create(ctx, in, nil)
		require.NoError(t, err)
	}
	inactive := departmentInput("D-Dept")
	inactive.IsActive = ptr(false)
	_, err := svc.Create(ctx, inactive, nil)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalDepartments)
	assert.Equal(t, 1, stats.InactiveDepartments)
	require.Len(t, stats.DepartmentsWithDiseases, 3)
	assert.Equal(t, "C-Dept", stats.DepartmentsWithDiseases[0].Name)
	assert.Equal(t, 3, stats.DepartmentsWithDiseases[0].DiseaseCount)
}
