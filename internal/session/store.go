// Package session keeps the authenticated identity obtained through phone OTP verification.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"foodcourt/internal/api"
	"foodcourt/internal/common/logger"
	"foodcourt/internal/domain"
	"foodcourt/internal/storage"
)

// AuthAPI is the part of the backend the session needs.
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string, role domain.Role) error
	VerifyOTP(ctx context.Context, req domain.VerifyOTPRequest) (domain.AccountDTO, error)
	CheckUser(ctx context.Context, phone string, role domain.Role) (api.CheckResult, error)
}

type StoreInterface interface {
	RequestCode(ctx context.Context, identity string, role domain.Role) error
	VerifyCode(ctx context.Context, identity, code, displayName string, role domain.Role) (domain.Session, error)
	CheckIdentity(ctx context.Context, identity string, role domain.Role) (api.CheckResult, error)
	Logout()
	Current() (domain.Session, bool)
	IsAuthenticated() bool
	IsAdmin() bool
}

type Store struct {
	mu      sync.Mutex
	current *domain.Session
	api     AuthAPI
	st      storage.Store
	lg      *logger.Logger
	cc      string
}

// NewStore rehydrates a persisted session. A snapshot that fails to decode or validate is discarded.
func NewStore(a AuthAPI, st storage.Store, lg *logger.Logger, countryCode string) *Store {
	if lg == nil {
		lg = logger.Nop()
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}
	s := &Store{api: a, st: st, lg: lg, cc: countryCode}

	var saved domain.Session
	ok, err := storage.LoadJSON(st, storage.KeyUser, &saved)
	if !ok && err == nil {
		return s
	}
	if err == nil {
		saved.Identity = NormalizePhone(saved.Identity, countryCode)
		if saved.Role == "" {
			saved.Role = domain.RoleCustomer
		}
		if err = ValidatePhone(saved.Identity); err == nil {
			err = validateRole(saved.Role)
		}
	}
	if err != nil {
		lg.Warn("session_rehydrate_discarded", map[string]any{"error": err.Error()})
		if rmErr := st.Remove(storage.KeyUser); rmErr != nil {
			lg.Error("session_remove_failed", rmErr, nil)
		}
		return s
	}
	s.current = &saved
	lg.Debug("session_rehydrated", map[string]any{"role": saved.Role})
	return s
}

func (s *Store) RequestCode(ctx context.Context, identity string, role domain.Role) error {
	phone := NormalizePhone(identity, s.cc)
	if err := ValidatePhone(phone); err != nil {
		return err
	}
	if err := validateRole(role); err != nil {
		return err
	}
	if err := s.api.SendOTP(ctx, phone, role); err != nil {
		s.lg.Error("otp_request_failed", err, map[string]any{"role": role})
		return err
	}
	s.lg.Info("otp_requested", map[string]any{"role": role})
	return nil
}

// VerifyCode exchanges the code for a session. A backend rejection is reported as domain.ErrInvalidCode.
func (s *Store) VerifyCode(ctx context.Context, identity, code, displayName string, role domain.Role) (domain.Session, error) {
	phone := NormalizePhone(identity, s.cc)
	if err := ValidatePhone(phone); err != nil {
		return domain.Session{}, err
	}
	if err := ValidateCode(code); err != nil {
		return domain.Session{}, err
	}
	if err := validateRole(role); err != nil {
		return domain.Session{}, err
	}
	if displayName != "" && strings.TrimSpace(displayName) == "" {
		return domain.Session{}, domain.Invalid("name", "name must not be blank")
	}

	acct, err := s.api.VerifyOTP(ctx, domain.VerifyOTPRequest{
		Phone: phone,
		OTP:   code,
		Name:  strings.TrimSpace(displayName),
		Role:  role,
	})
	if err != nil {
		s.lg.Error("otp_verify_failed", err, map[string]any{"role": role})
		var rej *domain.RejectedError
		if errors.As(err, &rej) {
			return domain.Session{}, fmt.Errorf("%w: %s", domain.ErrInvalidCode, rej.Message)
		}
		return domain.Session{}, err
	}

	sess := domain.Session{Identity: phone, DisplayName: acct.Name, Role: role}
	if acct.Phone != "" {
		sess.Identity = NormalizePhone(acct.Phone, s.cc)
	}

	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()

	if err := storage.SaveJSON(s.st, storage.KeyUser, sess); err != nil {
		s.lg.Error("session_persist_failed", err, nil)
	}
	s.lg.Info("login", map[string]any{"role": role})
	return sess, nil
}

func (s *Store) CheckIdentity(ctx context.Context, identity string, role domain.Role) (api.CheckResult, error) {
	phone := NormalizePhone(identity, s.cc)
	if err := ValidatePhone(phone); err != nil {
		return api.CheckResult{}, err
	}
	if err := validateRole(role); err != nil {
		return api.CheckResult{}, err
	}
	return s.api.CheckUser(ctx, phone, role)
}

func (s *Store) Logout() {
	s.mu.Lock()
	was := s.current != nil
	s.current = nil
	s.mu.Unlock()

	if err := s.st.Remove(storage.KeyUser); err != nil {
		s.lg.Error("session_remove_failed", err, nil)
	}
	if was {
		s.lg.Info("logout", nil)
	}
}

func (s *Store) Current() (domain.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return domain.Session{}, false
	}
	return *s.current, true
}

func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

func (s *Store) IsAdmin() bool {
	sess, ok := s.Current()
	return ok && sess.Role == domain.RoleAdmin
}
