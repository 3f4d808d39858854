package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/pos-api/internal/application/auth"
	"github.com/jhoicas/pos-api/internal/application/dto"
	"github.com/jhoicas/pos-api/internal/domain"
	"github.com/jhoicas/pos-api/internal/domain/entity"
	pkgjwt "github.com/jhoicas/pos-api/pkg/jwt"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*entity.User)
	return u, args.Error(1)
}

const secret = "secret-de-prueba"

func newCashier(t *testing.T, status string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("clave-segura"), bcrypt.MinCost)
	require.NoError(t, err)
	return &entity.User{
		ID:             "u-1",
		OrganizationID: "org-1",
		BranchID:       "br-1",
		Email:          "caja@tienda.co",
		PasswordHash:   string(hash),
		Role:           entity.RoleCajero,
		Status:         status,
	}
}

func TestLogin_EmiteTokenConSucursal(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", mock.Anything, "caja@tienda.co").Return(newCashier(t, "active"), nil)
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 5, Issuer: "pos"})

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: " Caja@Tienda.co ", Password: "clave-segura"})
	require.NoError(t, err)

	sub, err := pkgjwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "org-1", sub.OrganizationID)
	assert.Equal(t, "br-1", sub.BranchID)
	assert.Equal(t, entity.RoleCajero, sub.Role)
	assert.Equal(t, "u-1", out.User.ID)
	repo.AssertExpectations(t)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", mock.Anything, "caja@tienda.co").Return(newCashier(t, "active"), nil)
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 5})

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "caja@tienda.co", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInactivo(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", mock.Anything, "caja@tienda.co").Return(newCashier(t, "suspended"), nil)
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 5})

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "caja@tienda.co", Password: "clave-segura"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_UsuarioNoExiste(t *testing.T) {
	repo := new(mockUserRepo)
	repo.On("FindByEmail", mock.Anything, "nadie@tienda.co").Return(nil, nil)
	uc := auth.NewAuthUseCase(repo, auth.JWTConfig{Secret: secret, ExpMinutes: 5})

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@tienda.co", Password: "x"})
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}
