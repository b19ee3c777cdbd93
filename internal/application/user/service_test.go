package user

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bike-resale-api/internal/application/image"
	"github.com/bike-resale-api/internal/domain"
	"github.com/bike-resale-api/internal/infrastructure/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- mocks ---

type mockImages struct{ mock.Mock }

func (m *mockImages) Store(ctx context.Context, folder string, up image.Upload) (string, error) {
	args := m.Called(ctx, folder, up)
	return args.String(0), args.Error(1)
}
func (m *mockImages) StoreAll(ctx context.Context, folder string, ups []image.Upload) ([]string, error) {
	args := m.Called(ctx, folder, ups)
	urls, _ := args.Get(0).([]string)
	return urls, args.Error(1)
}
func (m *mockImages) Remove(ctx context.Context, folder string, urls []string) image.CleanupResult {
	args := m.Called(ctx, folder, urls)
	res, _ := args.Get(0).(image.CleanupResult)
	return res
}

func seedUser(t *testing.T, repo *memory.UserRepo, password string, avatar *string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	reset := "123456"
	require.NoError(t, repo.Put(context.Background(), &domain.User{
		UserID:       "u1",
		FullName:     "Ram Thapa",
		Email:        "ram@example.com",
		PasswordHash: string(hash),
		IsVerified:   true,
		ResetOTP:     &reset,
		Avatar:       avatar,
	}))
}

// --- Profile ---

func TestProfile_NotFound(t *testing.T) {
	svc := NewService(ServiceDeps{UserRepo: memory.NewUserRepo()})
	_, err := svc.Profile(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestProfile_Found(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "secret1", nil)
	svc := NewService(ServiceDeps{UserRepo: repo})
	u, err := svc.Profile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "ram@example.com", u.Email)
}

// --- ChangePassword ---

func TestChangePassword_MissingFields(t *testing.T) {
	svc := NewService(ServiceDeps{UserRepo: memory.NewUserRepo()})
	err := svc.ChangePassword(context.Background(), "u1", domain.ChangePasswordRequest{NewPassword: "newpass"})
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "secret1", nil)
	svc := NewService(ServiceDeps{UserRepo: repo, BcryptCost: bcrypt.MinCost})
	err := svc.ChangePassword(context.Background(), "u1", domain.ChangePasswordRequest{CurrentPassword: "wrong", NewPassword: "newpass"})
	assert.True(t, errors.Is(err, domain.ErrInvalidCredentials))
}

func TestChangePassword_Success(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "secret1", nil)
	svc := NewService(ServiceDeps{UserRepo: repo, BcryptCost: bcrypt.MinCost})
	require.NoError(t, svc.ChangePassword(context.Background(), "u1", domain.ChangePasswordRequest{CurrentPassword: "secret1", NewPassword: "newpass"}))

	u, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("newpass")))
	assert.Nil(t, u.ResetOTP)
}

// --- UploadAvatar ---

func TestUploadAvatar_NoImage(t *testing.T) {
	svc := NewService(ServiceDeps{UserRepo: memory.NewUserRepo(), Images: &mockImages{}})
	_, err := svc.UploadAvatar(context.Background(), "u1", nil)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestUploadAvatar_ReplacesAndRemovesOld(t *testing.T) {
	repo := memory.NewUserRepo()
	old := "https://cdn/avatars/old.png"
	seedUser(t, repo, "secret1", &old)
	imgs := &mockImages{}
	up := image.Upload{Reader: strings.NewReader("png"), Filename: "me.png"}
	imgs.On("Store", mock.Anything, image.FolderAvatars, up).Return("https://cdn/avatars/new.png", nil)
	imgs.On("Remove", mock.Anything, image.FolderAvatars, []string{old}).Return(image.CleanupResult{Deleted: []string{old}})

	svc := NewService(ServiceDeps{UserRepo: repo, Images: imgs})
	u, err := svc.UploadAvatar(context.Background(), "u1", &up)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/avatars/new.png", *u.Avatar)

	stored, _ := repo.Get(context.Background(), "u1")
	assert.Equal(t, "https://cdn/avatars/new.png", *stored.Avatar)
	imgs.AssertExpectations(t)
}

func TestUploadAvatar_StoreFailureLeavesProfile(t *testing.T) {
	repo := memory.NewUserRepo()
	seedUser(t, repo, "secret1", nil)
	imgs := &mockImages{}
	imgs.On("Store", mock.Anything, image.FolderAvatars, mock.Anything).Return("", domain.ErrValidation)

	svc := NewService(ServiceDeps{UserRepo: repo, Images: imgs})
	_, err := svc.UploadAvatar(context.Background(), "u1", &image.Upload{Reader: strings.NewReader("gif"), Filename: "a.gif"})
	assert.True(t, errors.Is(err, domain.ErrValidation))

	stored, _ := repo.Get(context.Background(), "u1")
	assert.Nil(t, stored.Avatar)
	imgs.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything, mock.Anything)
}
