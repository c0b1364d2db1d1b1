package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fitcoach/internal/domain"
	"fitcoach/internal/metrics"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
)

const (
	tokenIssuer    = "fitcoach"
	coachSubject   = "coach"
	loginResultBad = "not_recognized"
)

type AuthService interface {
	Login(ctx context.Context, identifier string) (token string, session Session, err error)
	ParseToken(token string) (Session, error)
}

// authService implements the AuthService interface.
type authService struct {
	resolver      *IdentityResolver
	jwtSecret     string
	jwtExpiration time.Duration
	metrics       *metrics.Manager
	now           func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(resolver *IdentityResolver, jwtSecret string, jwtExpiration time.Duration, m *metrics.Manager) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	if m == nil {
		m = metrics.NewTestManager()
	}
	return &authService{
		resolver:      resolver,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		metrics:       m,
		now:           time.Now,
	}
}

// Login resolves the identifier and issues a session token for it.
func (s *authService) Login(_ context.Context, identifier string) (string, Session, error) {
	session, err := s.resolver.Resolve(identifier)
	if err != nil {
		s.metrics.CounterLogins.WithLabelValues(loginResultBad).Inc()
		log.Infoln("login rejected, identification not recognized")
		return "", Session{}, err
	}
	s.metrics.CounterLogins.WithLabelValues(string(session.Role)).Inc()

	token, err := s.generateJWT(session)
	if err != nil {
		log.WithError(err).Errorln("sign session token")
		return "", Session{}, ErrTokenGeneration
	}
	return token, session, nil
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	StudentID string      `json:"sid,omitempty"`
	Role      domain.Role `json:"role"`
	Demo      bool        `json:"demo,omitempty"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(session Session) (string, error) {
	now := s.now()
	subject := session.StudentID
	if session.IsCoach() {
		subject = coachSubject
	}
	claims := &jwtClaims{
		StudentID: session.StudentID,
		Role:      session.Role,
		Demo:      session.Demo,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// ParseToken validates a token and returns the session it carries.
func (s *authService) ParseToken(tokenString string) (Session, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, fmt.Errorf("%w: token has expired", ErrInvalidToken)
		}
		return Session{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return Session{}, ErrInvalidToken
	}

	switch claims.Role {
	case domain.RoleCoach:
	case domain.RoleStudent:
		if claims.StudentID == "" {
			return Session{}, fmt.Errorf("%w: missing student id", ErrInvalidToken)
		}
	default:
		return Session{}, fmt.Errorf("%w: missing role", ErrInvalidToken)
	}
	return Session{Role: claims.Role, StudentID: claims.StudentID, Demo: claims.Demo}, nil
}
