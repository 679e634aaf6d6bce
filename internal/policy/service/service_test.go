package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"passgate/internal/policy/config"
	"passgate/internal/policy/models"
	"passgate/internal/policy/store"
	dErrors "passgate/pkg/domain-errors"
	"passgate/pkg/platform/audit/publisher"
	auditmemory "passgate/pkg/platform/audit/store/memory"
)

type ServiceSuite struct {
	suite.Suite
	store      *store.InMemoryStore
	auditStore *auditmemory.InMemoryStore
	publisher  *publisher.Publisher
	svc        *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.store = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.publisher = publisher.NewPublisher(s.auditStore)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := New(s.store,
		WithLogger(logger),
		WithAuditPublisher(s.publisher),
	)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *ServiceSuite) TearDownTest() {
	s.publisher.Close()
}

// ====== Construction ======

func (s *ServiceSuite) TestNew() {
	s.Run("requires a store", func() {
		_, err := New(nil)
		s.Error(err)
	})

	s.Run("starts on the default policy", func() {
		active := s.svc.Active(context.Background())
		s.Equal(8, active.MinLength)
		s.Equal(2, active.MinCharacteristics)
	})

	s.Run("rejects an invalid default config", func() {
		bad := config.Default()
		bad.MinLength = -1
		_, err := New(s.store, WithDefaultConfig(bad))
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidConfig))
	})
}

// ====== Load ======

func (s *ServiceSuite) TestLoad() {
	ctx := context.Background()

	s.Run("empty store keeps the defaults", func() {
		s.NoError(s.svc.Load(ctx))
		s.Equal(8, s.svc.Active(ctx).MinLength)
	})

	s.Run("stored policy becomes active", func() {
		cfg := config.Default()
		cfg.MinLength = 12
		_, err := s.store.Save(ctx, cfg, "admin")
		s.Require().NoError(err)

		s.NoError(s.svc.Load(ctx))
		s.Equal(12, s.svc.Active(ctx).MinLength)
	})

	s.Run("unreadable dictionary source fails the load and keeps the old policy", func() {
		cfg := config.Default()
		cfg.DictionarySources = []string{filepath.Join(s.T().TempDir(), "missing.txt")}
		_, err := s.store.Save(ctx, cfg, "admin")
		s.Require().NoError(err)

		err = s.svc.Load(ctx)
		s.Error(err)
		s.Equal(12, s.svc.Active(ctx).MinLength)
	})
}

// ====== Evaluate ======

func (s *ServiceSuite) TestEvaluate() {
	ctx := context.Background()

	s.Run("accepts a password meeting the default policy", func() {
		resp, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{Password: "potato12"}, "client-service")
		s.NoError(err)
		s.True(resp.Valid)
		s.Empty(resp.Errors)
		s.NotEmpty(resp.Requirements)
		for _, req := range resp.Requirements {
			s.True(req.Satisfied)
		}
	})

	s.Run("reports violations and marks the failing rows", func() {
		resp, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{Password: "shor1"}, "client-service")
		s.NoError(err)
		s.False(resp.Valid)
		s.Equal([]models.ErrorKind{models.ErrTooShort}, resp.Errors)
	})

	s.Run("rejections are audited without the password", func() {
		s.auditStore.Clear()

		_, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{Password: "tiny1"}, "client-service")
		s.NoError(err)

		events, err := s.auditStore.ListRecent(ctx, 10)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal("password_rejected", events[0].Action)
		s.Equal("client-service", events[0].Subject)
		s.Contains(events[0].Reason, "TOO_SHORT")
		s.NotContains(events[0].Reason, "tiny1")
	})

	s.Run("expiration uses the supplied last-modified time", func() {
		cfg := config.Default()
		cfg.ExpirationDays = 365
		_, err := s.store.Save(ctx, cfg, "admin")
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Load(ctx))

		old := time.Now().AddDate(0, 0, -400)
		resp, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{
			Password:     "potato12",
			LastModified: &old,
		}, "client-service")
		s.NoError(err)
		s.Equal([]models.ErrorKind{models.ErrExpired}, resp.Errors)
	})

	s.Run("oversized request is rejected before evaluation", func() {
		_, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{
			Password: strings.Repeat("a", 5000),
		}, "client-service")
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeValidation))
	})
}

// ====== Requirements ======

func (s *ServiceSuite) TestRequirements() {
	resp := s.svc.Requirements(context.Background())
	s.NotEmpty(resp.Requirements)
	for _, req := range resp.Requirements {
		s.True(req.Satisfied)
		s.NotEmpty(req.Text)
	}
}

// ====== Update ======

func (s *ServiceSuite) TestUpdate() {
	ctx := context.Background()

	request := models.UpdatePolicyRequest{
		MinLength:              10,
		CharacterRules:         "UpperCase:1,LowerCase:1,Digit:1,Special:1",
		MinCharacteristics:     3,
		MaxRepeatingCharacters: 4,
	}

	s.Run("persists and activates the new policy", func() {
		resp, err := s.svc.Update(ctx, request, "admin@example.com")
		s.NoError(err)
		s.Equal(10, resp.MinLength)
		s.Len(resp.CharacterRules, 4)

		record, err := s.store.Active(ctx)
		s.NoError(err)
		s.Require().NotNil(record)
		s.Equal("admin@example.com", record.UpdatedBy)

		// The new minimum applies immediately.
		evalResp, err := s.svc.Evaluate(ctx, models.ValidatePasswordRequest{Password: "Potato12!"}, "client-service")
		s.NoError(err)
		s.False(evalResp.Valid)
		s.Contains(evalResp.Errors, models.ErrTooShort)
	})

	s.Run("update is audited", func() {
		events, err := s.auditStore.ListRecent(ctx, 100)
		s.Require().NoError(err)

		var found bool
		for _, event := range events {
			if event.Action == "policy_updated" && event.Subject == "admin@example.com" {
				found = true
			}
		}
		s.True(found)
	})

	s.Run("invalid config is rejected and the active policy is untouched", func() {
		bad := request
		bad.MinLength = 20
		bad.MaxLength = 10

		_, err := s.svc.Update(ctx, bad, "admin@example.com")
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidConfig))
		s.Equal(10, s.svc.Active(ctx).MinLength)
	})

	s.Run("malformed character rules are rejected", func() {
		bad := request
		bad.CharacterRules = "Emoji:1"

		_, err := s.svc.Update(ctx, bad, "admin@example.com")
		s.Error(err)
		s.True(dErrors.Is(err, dErrors.CodeInvalidConfig))
	})

	s.Run("unreadable dictionary source blocks the save", func() {
		bad := request
		bad.DictionarySources = []string{filepath.Join(s.T().TempDir(), "missing.txt")}

		before, err := s.store.Active(ctx)
		s.Require().NoError(err)

		_, err = s.svc.Update(ctx, bad, "admin@example.com")
		s.Error(err)

		after, err := s.store.Active(ctx)
		s.Require().NoError(err)
		s.Equal(before.ID, after.ID)
	})
}
