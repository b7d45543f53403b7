package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/xela07ax/instavibe/internal/domain"
)

type fakeKeyRepo struct {
	keys []domain.ServiceKey
	err  error
}

func (f *fakeKeyRepo) GetActiveServiceKeys(context.Context) ([]domain.ServiceKey, error) {
	return f.keys, f.err
}

func hashKey(t *testing.T, raw string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func TestVerifyAcceptsKnownKey(t *testing.T) {
	repo := &fakeKeyRepo{keys: []domain.ServiceKey{
		{ID: "k1", Name: "ally-agent", KeyHash: hashKey(t, "sk-live-1"), Active: true},
	}}
	svc := NewAPIKeyService(repo, zap.NewNop())
	require.NoError(t, svc.Refresh(context.Background()))

	key, err := svc.Verify("sk-live-1")
	require.NoError(t, err)
	assert.Equal(t, "ally-agent", key.Name)
}

func TestVerifyRejectsUnknownKey(t *testing.T) {
	repo := &fakeKeyRepo{keys: []domain.ServiceKey{
		{ID: "k1", Name: "ally-agent", KeyHash: hashKey(t, "sk-live-1"), Active: true},
	}}
	svc := NewAPIKeyService(repo, zap.NewNop())
	require.NoError(t, svc.Refresh(context.Background()))

	_, err := svc.Verify("sk-live-2")
	assert.ErrorIs(t, err, ErrBadAPIKey)

	_, err = svc.Verify("")
	assert.ErrorIs(t, err, ErrBadAPIKey)
}

func TestVerifySkipsInactiveKeys(t *testing.T) {
	repo := &fakeKeyRepo{keys: []domain.ServiceKey{
		{ID: "k1", Name: "revoked", KeyHash: hashKey(t, "sk-old"), Active: false},
	}}
	svc := NewAPIKeyService(repo, zap.NewNop())
	require.NoError(t, svc.Refresh(context.Background()))

	_, err := svc.Verify("sk-old")
	assert.ErrorIs(t, err, ErrBadAPIKey)
}

func TestRefreshPropagatesStorageError(t *testing.T) {
	svc := NewAPIKeyService(&fakeKeyRepo{err: errors.New("connection refused")}, zap.NewNop())
	assert.Error(t, svc.Refresh(context.Background()))
}
