package core_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/capperstack/capperstack/core"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("accumulates messages per field", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		verr.Add("email", "email is required")
		verr.Add("password", "password must be at least 8 characters")
		verr.Add("password", "password must contain a digit")

		assert.Equal(t, "email is required", verr.Get("email"))
		assert.Equal(t, "password must be at least 8 characters", verr.Get("password"))
		assert.Empty(t, verr.Get("name"))
	})

	t.Run("error string", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "validation failed", core.NewValidationError().Error())

		verr := core.NewValidationError()
		verr.Add("plan_id", "plan_id must be a valid UUID")
		assert.Equal(t, "validation error: plan_id: plan_id must be a valid UUID", verr.Error())
	})

	t.Run("renders as 422 with per-field details", func(t *testing.T) {
		t.Parallel()

		verr := core.NewValidationError()
		verr.Add("price_cents", "price_cents must be at least 100")

		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		core.Render(rec, req, core.JSONError(verr))

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var body struct {
			Code  string `json:"code"`
			Error struct {
				Code    string              `json:"code"`
				Details map[string][]string `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "validation_error", body.Code)
		assert.Equal(t, []string{"price_cents must be at least 100"}, body.Error.Details["price_cents"])
	})
}
