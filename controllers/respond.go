package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"storefront-bff/fault"
	"storefront-bff/logger"
)

var validate = validator.New()

// respondError maps a fault to an HTTP response. Backend validation and
// business messages pass through verbatim; unknown failures get a generic
// upstream message. A 401 additionally carries a login redirect hint unless
// the caller is already on the login route, mirroring the gateway's
// clear-session side effect.
func respondError(c *gin.Context, err error) {
	f := fault.Of(err)

	if f.Status >= http.StatusInternalServerError {
		logger.Error(c, "Request failed", err)
	}

	body := gin.H{"error": f.Message}
	if len(f.Details) > 0 {
		body["validationErrors"] = f.Details
	}
	if f.Status == http.StatusUnauthorized && !strings.HasPrefix(c.FullPath(), "/auth/login") {
		body["redirect"] = "/login"
	}

	c.AbortWithStatusJSON(f.Status, body)
}

// bindAndValidate decodes the JSON body into out and applies its validation
// tags, rejecting bad input before any backend round trip.
func bindAndValidate(c *gin.Context, out interface{}) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		respondError(c, fault.New(http.StatusBadRequest, "Invalid request body", err))
		return false
	}
	if err := validate.Struct(out); err != nil {
		respondError(c, fault.New(http.StatusBadRequest, err.Error(), err))
		return false
	}
	return true
}
