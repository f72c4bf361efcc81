package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

func newPermissionRouter(permission models.Permission, claims *models.Claims) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/guarded/:id", func(c *gin.Context) {
		if claims != nil {
			c.Set(ContextUserKey, claims)
		}
		c.Next()
	}, RequirePermission(permission), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func perform(r *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestRequirePermissionWithoutClaims(t *testing.T) {
	r := newPermissionRouter(models.PermManageProjects, nil)
	w := perform(r, "/guarded/x")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequirePermissionDeniesFieldWorker(t *testing.T) {
	claims := &models.Claims{UserID: "u1", CompanyID: "c1", Role: models.RoleFieldWorker}
	r := newPermissionRouter(models.PermManageProjects, claims)
	w := perform(r, "/guarded/x")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequirePermissionAllowsOwner(t *testing.T) {
	claims := &models.Claims{UserID: "u1", CompanyID: "c1", Role: models.RoleOwner}
	r := newPermissionRouter(models.PermManageProjects, claims)
	w := perform(r, "/guarded/x")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionAllowsForemanCrewTime(t *testing.T) {
	claims := &models.Claims{UserID: "u1", CompanyID: "c1", Role: models.RoleForeman}
	r := newPermissionRouter(models.PermViewCrewTime, claims)
	w := perform(r, "/guarded/x")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequirePermissionOrSelf(t *testing.T) {
	gin.SetMode(gin.TestMode)
	claims := &models.Claims{UserID: "u1", CompanyID: "c1", Role: models.RoleFieldWorker}
	r := gin.New()
	r.GET("/users/:id", func(c *gin.Context) {
		c.Set(ContextUserKey, claims)
		c.Next()
	}, RequirePermissionOrSelf(models.PermManageUsers), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	own := perform(r, "/users/u1")
	assert.Equal(t, http.StatusOK, own.Code)

	other := perform(r, "/users/u2")
	assert.Equal(t, http.StatusForbidden, other.Code)
}
