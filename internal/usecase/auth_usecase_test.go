package usecase_test

import (
	"context"
	"net/http"
	"testing"

	"app/internal/commerce"
	"app/internal/domain/model"
	"app/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockAuthGateway struct {
	mock.Mock
}

func (m *MockAuthGateway) Login(ctx context.Context, username string, password string) (commerce.TokenResponse, error) {
	args := m.Called(ctx, username, password)
	return args.Get(0).(commerce.TokenResponse), args.Error(1)
}

func (m *MockAuthGateway) ValidateToken(ctx context.Context, token string) (commerce.ValidatedUser, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(commerce.ValidatedUser), args.Error(1)
}

func (m *MockAuthGateway) CreateCustomer(ctx context.Context, in commerce.CustomerInput) (model.Customer, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Customer), args.Error(1)
}

func (m *MockAuthGateway) CustomerByEmail(ctx context.Context, email string) (model.Customer, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(model.Customer), args.Error(1)
}

func (m *MockAuthGateway) UpdateCustomer(ctx context.Context, id int64, fields map[string]any) (model.Customer, error) {
	args := m.Called(ctx, id, fields)
	return args.Get(0).(model.Customer), args.Error(1)
}

func validatedUser() commerce.ValidatedUser {
	return commerce.ValidatedUser{
		ID:          7,
		Login:       "aicha",
		Email:       "aicha@example.com",
		DisplayName: "Aicha",
		Roles:       []string{"customer"},
	}
}

// =====================
// Test: ログイン
// =====================

func TestAuthUsecase_Login(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("Login", mock.Anything, "aicha", "secret123").
		Return(commerce.TokenResponse{Token: "jwt-token"}, nil)
	gw.On("ValidateToken", mock.Anything, "jwt-token").
		Return(validatedUser(), nil)
	gw.On("CustomerByEmail", mock.Anything, "aicha@example.com").
		Return(model.Customer{ID: 7, FirstName: "Aicha", LastName: "Mint Ahmed"}, nil)

	out, err := u.Login(context.Background(), usecase.LoginInput{Username: "aicha", Password: "secret123"})

	assert.NoError(t, err)
	assert.Equal(t, "jwt-token", out.Token)
	assert.Equal(t, int64(7), out.User.ID)
	assert.Equal(t, "Aicha", out.User.FirstName)
	assert.Equal(t, "customer", out.User.Role)
	gw.AssertExpectations(t)
}

func TestAuthUsecase_Login_CustomerLookupFailureIsTolerated(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("Login", mock.Anything, "aicha", "secret123").
		Return(commerce.TokenResponse{Token: "jwt-token"}, nil)
	gw.On("ValidateToken", mock.Anything, "jwt-token").
		Return(validatedUser(), nil)
	gw.On("CustomerByEmail", mock.Anything, mock.Anything).
		Return(model.Customer{}, commerce.ErrNotFound)

	out, err := u.Login(context.Background(), usecase.LoginInput{Username: "aicha", Password: "secret123"})

	// 顧客レコードが無くてもログインは成立する（氏名が空なだけ）
	assert.NoError(t, err)
	assert.Empty(t, out.User.FirstName)
	assert.Equal(t, "aicha@example.com", out.User.Email)
}

func TestAuthUsecase_Login_BadCredentials(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("Login", mock.Anything, "aicha", "wrong").
		Return(commerce.TokenResponse{}, &commerce.APIError{
			Code:    "[jwt_auth] incorrect_password",
			Message: "Mot de passe incorrect",
			Status:  403,
		})

	_, err := u.Login(context.Background(), usecase.LoginInput{Username: "aicha", Password: "wrong"})

	assertHTTPError(t, err, http.StatusUnauthorized, "Mot de passe incorrect")
}

func TestAuthUsecase_Login_EmptyInput(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	_, err := u.Login(context.Background(), usecase.LoginInput{Username: "  ", Password: "x"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid input")

	_, err = u.Login(context.Background(), usecase.LoginInput{Username: "aicha", Password: ""})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid input")

	gw.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
}

// =====================
// Test: 会員登録
// =====================

func TestAuthUsecase_Register(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("CreateCustomer", mock.Anything, commerce.CustomerInput{
		Username:  "aicha",
		Email:     "aicha@example.com",
		Password:  "secret123",
		FirstName: "Aicha",
		LastName:  "Mint Ahmed",
	}).Return(model.Customer{ID: 7}, nil)
	gw.On("Login", mock.Anything, "aicha", "secret123").
		Return(commerce.TokenResponse{Token: "jwt-token"}, nil)
	gw.On("ValidateToken", mock.Anything, "jwt-token").
		Return(validatedUser(), nil)
	gw.On("CustomerByEmail", mock.Anything, "aicha@example.com").
		Return(model.Customer{ID: 7, FirstName: "Aicha"}, nil)

	out, err := u.Register(context.Background(), usecase.RegisterInput{
		Username:  "aicha",
		Email:     "aicha@example.com",
		Password:  "secret123",
		FirstName: "Aicha",
		LastName:  "Mint Ahmed",
	})

	assert.NoError(t, err)
	assert.Equal(t, "jwt-token", out.Token)
	gw.AssertExpectations(t)
}

func TestAuthUsecase_Register_InvalidInput(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	_, err := u.Register(context.Background(), usecase.RegisterInput{Email: "a@b.c", Password: "secret123"})
	assertHTTPError(t, err, http.StatusBadRequest, "username is required")

	_, err = u.Register(context.Background(), usecase.RegisterInput{Username: "a", Email: "pas-un-email", Password: "secret123"})
	assertHTTPError(t, err, http.StatusBadRequest, "invalid email")

	_, err = u.Register(context.Background(), usecase.RegisterInput{Username: "a", Email: "a@b.c", Password: "court"})
	assertHTTPError(t, err, http.StatusBadRequest, "password too short")

	gw.AssertNotCalled(t, "CreateCustomer", mock.Anything, mock.Anything)
}

func TestAuthUsecase_Register_DuplicateEmail(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("CreateCustomer", mock.Anything, mock.Anything).
		Return(model.Customer{}, &commerce.APIError{
			Code:    "registration-error-email-exists",
			Message: "Un compte est déjà enregistré avec votre adresse e-mail.",
			Status:  400,
		})

	_, err := u.Register(context.Background(), usecase.RegisterInput{
		Username: "aicha",
		Email:    "aicha@example.com",
		Password: "secret123",
	})

	assertHTTPError(t, err, http.StatusBadRequest, "Un compte est déjà enregistré avec votre adresse e-mail.")
}

// =====================
// Test: プロフィール
// =====================

func TestAuthUsecase_Me_InvalidToken(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("ValidateToken", mock.Anything, "bad-token").
		Return(commerce.ValidatedUser{}, &commerce.APIError{Code: "jwt_auth_invalid_token", Message: "Signature invalide", Status: 403})

	_, err := u.Me(context.Background(), "bad-token")

	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestAuthUsecase_Me_EmptyToken(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	_, err := u.Me(context.Background(), " ")

	assertHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
	gw.AssertNotCalled(t, "ValidateToken", mock.Anything, mock.Anything)
}

func TestAuthUsecase_UpdateProfile(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("ValidateToken", mock.Anything, "jwt-token").
		Return(validatedUser(), nil)
	gw.On("CustomerByEmail", mock.Anything, "aicha@example.com").
		Return(model.Customer{ID: 7, FirstName: "Aicha"}, nil)
	gw.On("UpdateCustomer", mock.Anything, int64(7), map[string]any{"first_name": "Fatimetou"}).
		Return(model.Customer{ID: 7, FirstName: "Fatimetou", LastName: "Mint Ahmed"}, nil)

	user, err := u.UpdateProfile(context.Background(), "jwt-token", usecase.UpdateProfileInput{FirstName: "Fatimetou"})

	assert.NoError(t, err)
	assert.Equal(t, "Fatimetou", user.FirstName)
	gw.AssertExpectations(t)
}

func TestAuthUsecase_UpdateProfile_NoFields(t *testing.T) {
	gw := new(MockAuthGateway)
	u := usecase.NewAuthUsecase(gw)

	gw.On("ValidateToken", mock.Anything, "jwt-token").
		Return(validatedUser(), nil)
	gw.On("CustomerByEmail", mock.Anything, "aicha@example.com").
		Return(model.Customer{ID: 7, FirstName: "Aicha"}, nil)

	user, err := u.UpdateProfile(context.Background(), "jwt-token", usecase.UpdateProfileInput{})

	assert.NoError(t, err)
	assert.Equal(t, "Aicha", user.FirstName)
	gw.AssertNotCalled(t, "UpdateCustomer", mock.Anything, mock.Anything, mock.Anything)
}
