package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDepartmentFromMultipart(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	fields := map[string]string{
		"name":           "Cardiology",
		"description":    "Heart care",
		"detailedInfo":   "Diagnosis and treatment of heart disease.",
		"services":       "ECG, Echo , Angioplasty",
		"commonDiseases": `[{"name":"Arrhythmia","description":"Irregular heartbeat","symptoms":["palpitations"]}]`,
		"contactInfo":    `{"phone":"03001234567","email":"cardio@hospital.com","location":"Block A"}`,
	}
	res := env.multipart(t, http.MethodPost, "/department/create", admin, fields, &upload{
		field: "image", filename: "heart.png", contentType: "application/octet-stream", data: pngHeader,
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)
	assert.Equal(t, "Department created successfully!", res.body["message"])

	dept := res.body["department"].(map[string]any)
	assert.Equal(t, []any{"ECG", "Echo", "Angioplasty"}, dept["services"])
	assert.Equal(t, true, dept["isActive"])
	diseases := dept["commonDiseases"].([]any)
	require.Len(t, diseases, 1)
	assert.Equal(t, "Arrhythmia", diseases[0].(map[string]any)["name"])
	assert.Equal(t, "Block A", dept["contactInfo"].(map[string]any)["location"])
	assert.NotNil(t, dept["image"])
	assert.Equal(t, 1, env.objects.count())

	res = env.json(t, http.MethodGet, "/department/name/cardiology", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, dept["_id"], res.body["department"].(map[string]any)["_id"])
}

func TestCreateDepartmentRejectsBadImage(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	res := env.multipart(t, http.MethodPost, "/department/create", admin, map[string]string{
		"name":         "Neurology",
		"description":  "Brain care",
		"detailedInfo": "Nervous system disorders.",
	}, &upload{field: "image", filename: "notes.txt", contentType: "text/plain", data: []byte("plain text")})
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "File Format Not Supported!", res.body["message"])
	assert.Zero(t, env.objects.count())
}

func TestDepartmentLifecycle(t *testing.T) {
	env := newTestEnv(t)
	admin := env.adminToken(t)

	res := env.json(t, http.MethodPost, "/department/create", admin, map[string]any{
		"name":         "Orthopedics",
		"description":  "Bones and joints",
		"detailedInfo": "Fractures and joint replacement.",
	})
	require.Equal(t, http.StatusCreated, res.code, res.body)
	id := res.body["department"].(map[string]any)["_id"].(string)

	res = env.json(t, http.MethodPost, "/department/create", admin, map[string]any{
		"name":         "Orthopedics",
		"description":  "Again",
		"detailedInfo": "Again.",
	})
	assert.Equal(t, http.StatusBadRequest, res.code)

	res = env.json(t, http.MethodPut, "/department/update/"+id, admin, map[string]any{
		"headOfDepartment": "Dr. Bone",
	})
	require.Equal(t, http.StatusOK, res.code, res.body)
	dept := res.body["department"].(map[string]any)
	assert.Equal(t, "Dr. Bone", dept["headOfDepartment"])
	assert.Equal(t, "Bones and joints", dept["description"])

	res = env.json(t, http.MethodDelete, "/department/delete/"+id, admin, nil)
	require.Equal(t, http.StatusOK, res.code)

	res = env.json(t, http.MethodGet, "/department/all", "", nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Empty(t, res.body["departments"])

	res = env.json(t, http.MethodGet, "/department/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, res.code)

	res = env.json(t, http.MethodGet, "/department/"+id, admin, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Equal(t, false, res.body["department"].(map[string]any)["isActive"])

	res = env.json(t, http.MethodGet, "/department/admin/all", admin, nil)
	require.Equal(t, http.StatusOK, res.code)
	assert.Len(t, res.body["departments"], 1)

	res = env.json(t, http.MethodGet, "/department/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.code)
	assert.Equal(t, "Invalid _id", res.body["message"])
}

func TestDepartmentWritesRequireAdmin(t *testing.T) {
	env := newTestEnv(t)
	patient := env.registerPatient(t, "dora@example.com")

	res := env.json(t, http.MethodPost, "/department/create", patient, map[string]any{"name": "X"})
	assert.Equal(t, http.StatusForbidden, res.code)
	assert.Equal(t, "Patient not authorized for this resource!", res.body["message"])
}
