package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"app/internal/domain/model"
)

// jwt-auth プラグインのトークン発行レスポンス
type TokenResponse struct {
	Token           string `json:"token"`
	UserEmail       string `json:"user_email"`
	UserNicename    string `json:"user_nicename"`
	UserDisplayName string `json:"user_display_name"`
}

// introspection（token/validate）で返るユーザー
type ValidatedUser struct {
	ID          int64
	Login       string
	Email       string
	DisplayName string
	Roles       []string
}

// Login は認証サービスへユーザー名/パスワードを送りトークンを得る。
// consumer key/secret は付けない（jwt-authは素のエンドポイント）。
func (c *Client) Login(ctx context.Context, username string, password string) (TokenResponse, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return TokenResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/wp-json/jwt-auth/v1/token", bytes.NewReader(body))
	if err != nil {
		return TokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return TokenResponse{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return TokenResponse{}, decodeAPIError(resp)
	}

	var out TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return TokenResponse{}, err
	}
	return out, nil
}

// ValidateToken はトークンの introspection。有効ならユーザー情報を返す。
func (c *Client) ValidateToken(ctx context.Context, token string) (ValidatedUser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/wp-json/jwt-auth/v1/token/validate", nil)
	if err != nil {
		return ValidatedUser{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return ValidatedUser{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return ValidatedUser{}, decodeAPIError(resp)
	}

	var body struct {
		Code string `json:"code"`
		Data struct {
			User struct {
				ID          int64    `json:"ID"`
				Login       string   `json:"user_login"`
				Email       string   `json:"user_email"`
				DisplayName string   `json:"display_name"`
				Roles       []string `json:"roles"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return ValidatedUser{}, err
	}

	u := body.Data.User
	return ValidatedUser{
		ID:          u.ID,
		Login:       u.Login,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Roles:       u.Roles,
	}, nil
}

// 顧客作成の入力
type CustomerInput struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// CreateCustomer は顧客レコードを作る（会員登録）。
func (c *Client) CreateCustomer(ctx context.Context, in CustomerInput) (model.Customer, error) {
	var out model.Customer
	if err := c.post(ctx, "/wp-json/wc/v3/customers", in, &out); err != nil {
		return model.Customer{}, err
	}
	return out, nil
}

// CustomerByEmail はメールアドレスで顧客を引く。無ければ ErrNotFound。
func (c *Client) CustomerByEmail(ctx context.Context, email string) (model.Customer, error) {
	v := url.Values{}
	v.Set("email", email)

	var items []model.Customer
	if err := c.get(ctx, "/wp-json/wc/v3/customers", v, &items); err != nil {
		return model.Customer{}, err
	}
	if len(items) == 0 {
		return model.Customer{}, ErrNotFound
	}
	return items[0], nil
}

// UpdateCustomer は顧客情報を部分更新する。
func (c *Client) UpdateCustomer(ctx context.Context, id int64, fields map[string]any) (model.Customer, error) {
	var out model.Customer
	if err := c.put(ctx, fmt.Sprintf("/wp-json/wc/v3/customers/%d", id), fields, &out); err != nil {
		return model.Customer{}, err
	}
	return out, nil
}
