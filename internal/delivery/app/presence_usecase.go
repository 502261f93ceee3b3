package app

import (
	"context"

	"chat_delivery_service/internal/delivery/domain"
	"chat_delivery_service/internal/delivery/repository"
	errprocess "chat_delivery_service/pkg/err"
	"chat_delivery_service/pkg/logger"
	t_token "chat_delivery_service/pkg/token"

	"go.uber.org/zap"
)

// PresenceHub hub operations the beacon needs
type PresenceHub interface {
	Unregister(ctx context.Context, user string, conn Conn) bool
	Online(user string) bool
}

// PresenceUseCase explicit presence reports and presence lookup
type PresenceUseCase struct {
	hub             PresenceHub
	presence        repository.PresenceRepository
	allowUnverified bool
}

// NewPresenceUseCase create PresenceUseCase.
// allowUnverified accepts beacon tokens whose signature cannot be checked.
func NewPresenceUseCase(hub PresenceHub, presence repository.PresenceRepository, allowUnverified bool) *PresenceUseCase {
	return &PresenceUseCase{
		hub:             hub,
		presence:        presence,
		allowUnverified: allowUnverified,
	}
}

// Report handle a beacon body {token, is_online}.
// Offline closes any live connection and marks the user offline.
// Online only refreshes a user who still has a live connection here.
func (uc *PresenceUseCase) Report(ctx context.Context, body []byte) (string, error) {
	report, err := domain.ParsePresenceReport(body)
	if err != nil {
		return "", err
	}

	user, err := uc.identify(report.Token)
	if err != nil {
		return "", err
	}

	if !report.IsOnline {
		uc.hub.Unregister(ctx, user, nil)
		return user, nil
	}

	if !uc.hub.Online(user) {
		logger.Log.Debug("online beacon without live connection ignored", zap.String("user", user))
		return user, nil
	}
	if err := uc.presence.SetOnline(ctx, user); err != nil {
		return "", err
	}
	return user, nil
}

func (uc *PresenceUseCase) identify(token string) (string, error) {
	claims, err := t_token.ParseJWT(token)
	if err != nil && uc.allowUnverified {
		logger.Log.Warn("beacon token not verified, using unverified claims", zap.Error(err))
		claims, err = t_token.ParseUnverified(token)
	}
	if err != nil {
		return "", errprocess.Wrap(errprocess.KindAuth, err, "invalid token")
	}
	user := claims.User()
	if user == "" {
		return "", errprocess.New(errprocess.KindAuth, "token has no user")
	}
	return user, nil
}

// Snapshot presence of users, unknown users come back offline
func (uc *PresenceUseCase) Snapshot(ctx context.Context, users []string) ([]domain.PresenceRecord, error) {
	if len(users) == 0 {
		return nil, errprocess.New(errprocess.KindValidation, "users is required")
	}
	found, err := uc.presence.FindMany(ctx, users)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PresenceRecord, 0, len(users))
	for _, u := range users {
		rec, ok := found[u]
		if !ok {
			rec = domain.PresenceRecord{Username: u}
		}
		out = append(out, rec)
	}
	return out, nil
}
