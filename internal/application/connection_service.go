package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/postpilot/internal/linkedin"
	"github.com/example/postpilot/internal/oauthstate"
	"github.com/example/postpilot/internal/persistence"
)

// StateCodec signs and verifies OAuth state tokens.
type StateCodec interface {
	Create(userID string, ttl time.Duration) (string, error)
	Verify(state string) (oauthstate.Payload, error)
}

// OAuthClient covers the provider calls needed to complete a connect flow.
type OAuthClient interface {
	AuthCodeURL(state string) string
	ExchangeCode(ctx context.Context, code string) (linkedin.Token, error)
	FetchUserInfo(ctx context.Context, accessToken string) (linkedin.UserInfo, error)
}

// ConnectionService manages the per-user LinkedIn OAuth connection.
type ConnectionService struct {
	connections persistence.ConnectionRepository
	oauth       OAuthClient
	states      StateCodec
	now         func() time.Time
	logger      *slog.Logger
}

// NewConnectionService wires dependencies for connection operations.
func NewConnectionService(connections persistence.ConnectionRepository, oauth OAuthClient, states StateCodec, now func() time.Time, logger *slog.Logger) *ConnectionService {
	if now == nil {
		now = time.Now
	}
	return &ConnectionService{
		connections: connections,
		oauth:       oauth,
		states:      states,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ConnectionService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ConnectionService", operation, attrs...)
}

// BeginConnect issues a signed state token bound to the caller and
// returns the provider authorization URL to redirect to.
func (s *ConnectionService) BeginConnect(ctx context.Context, principal Principal) (string, error) {
	if s == nil {
		return "", fmt.Errorf("ConnectionService is nil")
	}

	state, err := s.states.Create(principal.UserID, oauthstate.DefaultTTL)
	if err != nil {
		s.loggerWith(ctx, "BeginConnect", "user_id", principal.UserID).
			ErrorContext(ctx, "state creation failed", "error", err)
		return "", err
	}

	return s.oauth.AuthCodeURL(state), nil
}

// CompleteConnect finishes the OAuth round-trip: it verifies the state
// token, exchanges the authorization code, fetches the member profile,
// and upserts the connection row. State verification failures surface
// as the oauthstate sentinels.
func (s *ConnectionService) CompleteConnect(ctx context.Context, params CompleteConnectParams) (conn persistence.LinkedInConnection, err error) {
	if s == nil {
		return persistence.LinkedInConnection{}, fmt.Errorf("ConnectionService is nil")
	}

	logger := s.loggerWith(ctx, "CompleteConnect")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "connect failed", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("user_id", conn.UserID, "member_id", conn.MemberID).
			InfoContext(ctx, "linkedin account connected")
	}()

	payload, err := s.states.Verify(params.State)
	if err != nil {
		return persistence.LinkedInConnection{}, err
	}

	if params.Code == "" {
		vErr := &ValidationError{}
		vErr.add("code", "authorization code is required")
		err = vErr
		return
	}

	token, err := s.oauth.ExchangeCode(ctx, params.Code)
	if err != nil {
		return persistence.LinkedInConnection{}, err
	}

	info, err := s.oauth.FetchUserInfo(ctx, token.AccessToken)
	if err != nil {
		return persistence.LinkedInConnection{}, err
	}

	conn = persistence.LinkedInConnection{
		UserID:        payload.UserID,
		MemberID:      info.Sub,
		AccessToken:   token.AccessToken,
		ExpiresAt:     s.now().Add(time.Duration(token.ExpiresIn) * time.Second),
		MemberName:    info.Name,
		MemberEmail:   info.Email,
		MemberPicture: info.Picture,
	}
	if token.RefreshToken != "" {
		refresh := token.RefreshToken
		conn.RefreshToken = &refresh
	}

	conn, err = s.connections.UpsertConnection(ctx, conn)
	if err != nil {
		err = mapConnectionRepoError(err)
		return persistence.LinkedInConnection{}, err
	}
	return conn, nil
}

// Status reports whether the caller has a LinkedIn connection and its
// profile snapshot. A missing row is not an error.
func (s *ConnectionService) Status(ctx context.Context, principal Principal) (ConnectionStatus, error) {
	if s == nil {
		return ConnectionStatus{}, fmt.Errorf("ConnectionService is nil")
	}

	conn, err := s.connections.GetConnection(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ConnectionStatus{}, nil
		}
		return ConnectionStatus{}, mapConnectionRepoError(err)
	}

	return ConnectionStatus{
		Connected:     true,
		MemberID:      conn.MemberID,
		MemberName:    conn.MemberName,
		MemberEmail:   conn.MemberEmail,
		MemberPicture: conn.MemberPicture,
		ExpiresAt:     conn.ExpiresAt,
		Expired:       !conn.ExpiresAt.After(s.now()),
	}, nil
}

// Disconnect removes the caller's connection row.
func (s *ConnectionService) Disconnect(ctx context.Context, principal Principal) error {
	if s == nil {
		return fmt.Errorf("ConnectionService is nil")
	}

	logger := s.loggerWith(ctx, "Disconnect", "user_id", principal.UserID)

	if err := s.connections.DeleteConnection(ctx, principal.UserID); err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return ErrNoConnection
		}
		err = mapConnectionRepoError(err)
		logger.ErrorContext(ctx, "disconnect failed", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "linkedin account disconnected")
	return nil
}

// mapConnectionRepoError translates persistence sentinels into application errors.
func mapConnectionRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrForeignKeyViolation):
		return ErrNotFound
	default:
		return err
	}
}
