package usecase

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"app/internal/commerce"
	"app/internal/domain/model"
)

// AuthGateway は認証・顧客管理のプラットフォーム窓口。
type AuthGateway interface {
	Login(ctx context.Context, username string, password string) (commerce.TokenResponse, error)
	ValidateToken(ctx context.Context, token string) (commerce.ValidatedUser, error)
	CreateCustomer(ctx context.Context, in commerce.CustomerInput) (model.Customer, error)
	CustomerByEmail(ctx context.Context, email string) (model.Customer, error)
	UpdateCustomer(ctx context.Context, id int64, fields map[string]any) (model.Customer, error)
}

// AuthUsecase は会員まわり。パスワードもトークン発行もプラットフォーム側の仕事で、
// ここは入力検証と応答の組み立てだけ。
type AuthUsecase struct {
	gateway AuthGateway
}

// DI
func NewAuthUsecase(gateway AuthGateway) *AuthUsecase {
	return &AuthUsecase{gateway: gateway}
}

type LoginInput struct {
	Username string
	Password string
}

type LoginOutput struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Login は認証サービスへ委譲してトークンとユーザー情報を返す。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (LoginOutput, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" || in.Password == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid input")
	}

	tok, err := u.gateway.Login(ctx, username, in.Password)
	if err != nil {
		// 認証失敗のメッセージはプラットフォームのものをそのまま見せる
		if ae, ok := commerce.AsAPIError(err); ok {
			return LoginOutput{}, NewHTTPError(http.StatusUnauthorized, ae.Message)
		}
		return LoginOutput{}, upstreamError(err)
	}

	user, err := u.userInfo(ctx, tok.Token)
	if err != nil {
		return LoginOutput{}, err
	}

	return LoginOutput{Token: tok.Token, User: user}, nil
}

type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register は顧客を作成してそのままログインする。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (LoginOutput, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	if username == "" {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "username is required")
	}
	if !isEmailLike(email) {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	// パスワード最低文字数（MVP: 8）
	if len(in.Password) < 8 {
		return LoginOutput{}, NewHTTPError(http.StatusBadRequest, "password too short")
	}

	_, err := u.gateway.CreateCustomer(ctx, commerce.CustomerInput{
		Username:  username,
		Email:     email,
		Password:  in.Password,
		FirstName: in.FirstName,
		LastName:  in.LastName,
	})
	if err != nil {
		// email重複などはプラットフォームのメッセージで返す
		if ae, ok := commerce.AsAPIError(err); ok {
			return LoginOutput{}, NewHTTPError(http.StatusBadRequest, ae.Message)
		}
		return LoginOutput{}, upstreamError(err)
	}

	return u.Login(ctx, LoginInput{Username: username, Password: in.Password})
}

// Me はトークンからユーザー情報を引く。
func (u *AuthUsecase) Me(ctx context.Context, token string) (model.User, error) {
	if strings.TrimSpace(token) == "" {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.userInfo(ctx, token)
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
}

// UpdateProfile は氏名を更新する。
func (u *AuthUsecase) UpdateProfile(ctx context.Context, token string, in UpdateProfileInput) (model.User, error) {
	user, err := u.Me(ctx, token)
	if err != nil {
		return model.User{}, err
	}

	fields := map[string]any{}
	if in.FirstName != "" {
		fields["first_name"] = in.FirstName
	}
	if in.LastName != "" {
		fields["last_name"] = in.LastName
	}
	if len(fields) == 0 {
		return user, nil
	}

	customer, err := u.gateway.CustomerByEmail(ctx, user.Email)
	if err != nil {
		return model.User{}, upstreamError(err)
	}

	updated, err := u.gateway.UpdateCustomer(ctx, customer.ID, fields)
	if err != nil {
		return model.User{}, upstreamError(err)
	}

	user.FirstName = updated.FirstName
	user.LastName = updated.LastName
	return user, nil
}

// introspection + 顧客レコードからユーザー情報を組み立てる。
// 顧客レコードが引けなくてもログイン自体は成立させる（氏名が空になるだけ）。
func (u *AuthUsecase) userInfo(ctx context.Context, token string) (model.User, error) {
	vu, err := u.gateway.ValidateToken(ctx, token)
	if err != nil {
		return model.User{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	role := "customer"
	if len(vu.Roles) > 0 {
		role = vu.Roles[0]
	}

	user := model.User{
		ID:          vu.ID,
		Username:    vu.Login,
		Email:       vu.Email,
		DisplayName: vu.DisplayName,
		Role:        role,
	}

	if customer, err := u.gateway.CustomerByEmail(ctx, vu.Email); err == nil {
		user.FirstName = customer.FirstName
		user.LastName = customer.LastName
	}

	return user, nil
}

// 簡易メール形式をチェック
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

func isEmailLike(s string) bool {
	return emailRe.MatchString(s)
}
