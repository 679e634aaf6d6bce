package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	jwttoken "passgate/internal/jwt_token"
	"passgate/internal/policy/models"
	"passgate/internal/policy/service"
	"passgate/internal/policy/store"
)

const adminToken = "test-admin-token"

// Handler tests run against the real service and an in-memory store;
// only the HTTP boundary is under test here.
type HandlerSuite struct {
	suite.Suite
	router     chi.Router
	jwtService *jwttoken.JWTService
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc, err := service.New(store.NewInMemory(), service.WithLogger(logger))
	s.Require().NoError(err)

	s.jwtService = jwttoken.NewJWTService("test-signing-key", "passgate", "passgate-clients")

	h := New(svc, logger, jwttoken.NewJWTServiceAdapter(s.jwtService), adminToken)
	s.router = chi.NewRouter()
	h.Register(s.router)
}

func (s *HandlerSuite) bearerToken() string {
	token, err := s.jwtService.GenerateServiceToken("signup-service", "web-client", time.Hour)
	s.Require().NoError(err)
	return "Bearer " + token
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func jsonBody(s *HandlerSuite, v any) *bytes.Buffer {
	raw, err := json.Marshal(v)
	s.Require().NoError(err)
	return bytes.NewBuffer(raw)
}

// ====== POST /policy/validate ======

func (s *HandlerSuite) TestValidate() {
	s.Run("missing token is unauthorized", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(s, models.ValidatePasswordRequest{Password: "potato12"}))
		req.Header.Set("Content-Type", "application/json")

		rr := s.do(req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("garbage token is unauthorized", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(s, models.ValidatePasswordRequest{Password: "potato12"}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer not-a-token")

		rr := s.do(req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("accepts a conforming password", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(s, models.ValidatePasswordRequest{Password: "potato12"}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", s.bearerToken())

		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp models.ValidatePasswordResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
		s.True(resp.Valid)
		s.Empty(resp.Errors)
		s.NotEmpty(resp.Requirements)
	})

	s.Run("reports every violation of a failing password", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(s, models.ValidatePasswordRequest{Password: "pp"}))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", s.bearerToken())

		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp models.ValidatePasswordResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
		s.False(resp.Valid)
		s.Contains(resp.Errors, models.ErrTooShort)
		s.Contains(resp.Errors, models.ErrInsufficientCharacteristics)
	})

	s.Run("rejects non-json content type", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			bytes.NewBufferString("password=potato12"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Authorization", s.bearerToken())

		rr := s.do(req)
		s.Equal(http.StatusUnsupportedMediaType, rr.Code)
	})

	s.Run("rejects a malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/policy/validate",
			bytes.NewBufferString("{not json"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", s.bearerToken())

		rr := s.do(req)
		s.Equal(http.StatusBadRequest, rr.Code)
	})
}

// ====== GET /policy/requirements ======

func (s *HandlerSuite) TestRequirements() {
	s.Run("is readable without authentication", func() {
		req := httptest.NewRequest(http.MethodGet, "/policy/requirements", nil)

		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp models.RequirementsResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
		s.NotEmpty(resp.Requirements)
		for _, row := range resp.Requirements {
			s.True(row.Satisfied)
			s.NotEmpty(row.Text)
		}
	})
}

// ====== /admin/policy ======

func (s *HandlerSuite) TestAdminPolicy() {
	updateReq := models.UpdatePolicyRequest{
		MinLength:              10,
		CharacterRules:         "UpperCase:1,LowerCase:1,Digit:1,Special:1",
		MinCharacteristics:     3,
		MaxRepeatingCharacters: 4,
	}

	s.Run("get without admin token is unauthorized", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/policy", nil)
		rr := s.do(req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("get with wrong admin token is unauthorized", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/policy", nil)
		req.Header.Set("X-Admin-Token", "wrong")
		rr := s.do(req)
		s.Equal(http.StatusUnauthorized, rr.Code)
	})

	s.Run("get returns the active policy", func() {
		req := httptest.NewRequest(http.MethodGet, "/admin/policy", nil)
		req.Header.Set("X-Admin-Token", adminToken)

		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp models.PolicyResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
		s.Equal(8, resp.MinLength)
	})

	s.Run("put replaces the active policy", func() {
		req := httptest.NewRequest(http.MethodPut, "/admin/policy", jsonBody(s, updateReq))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Token", adminToken)
		req.Header.Set("X-Admin-Subject", "admin@example.com")

		rr := s.do(req)
		s.Require().Equal(http.StatusOK, rr.Code)

		var resp models.PolicyResponse
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&resp))
		s.Equal(10, resp.MinLength)

		// The replacement applies to subsequent validations.
		validate := httptest.NewRequest(http.MethodPost, "/policy/validate",
			jsonBody(s, models.ValidatePasswordRequest{Password: "potato12"}))
		validate.Header.Set("Content-Type", "application/json")
		validate.Header.Set("Authorization", s.bearerToken())

		vrr := s.do(validate)
		s.Require().Equal(http.StatusOK, vrr.Code)

		var vresp models.ValidatePasswordResponse
		s.Require().NoError(json.NewDecoder(vrr.Body).Decode(&vresp))
		s.False(vresp.Valid)
	})

	s.Run("put with an invalid config is a bad request", func() {
		bad := updateReq
		bad.MinLength = 30
		bad.MaxLength = 10

		req := httptest.NewRequest(http.MethodPut, "/admin/policy", jsonBody(s, bad))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Admin-Token", adminToken)

		rr := s.do(req)
		s.Equal(http.StatusBadRequest, rr.Code)

		var body map[string]string
		s.Require().NoError(json.NewDecoder(rr.Body).Decode(&body))
		s.Equal("invalid_config", body["error"])
	})
}
