package acceptance

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/floodwatch/auth-bridge/internal/dto"
)

func (s *Suite) postJSON(path string, body any, bearer string) *http.Response {
	s.T().Helper()

	payload, err := json.Marshal(body)
	s.Require().NoError(err)

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+path, bytes.NewReader(payload))
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) getJSON(path, bearer string) *http.Response {
	s.T().Helper()

	req, err := http.NewRequest(http.MethodGet, s.BaseURL+path, nil)
	s.Require().NoError(err)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

func (s *Suite) decode(resp *http.Response, out any) {
	s.T().Helper()
	defer resp.Body.Close()
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(out))
}

func (s *Suite) syncUser(externalID, email string) dto.UserResponse {
	s.T().Helper()

	resp := s.postJSON("/api/v1/auth/sync", dto.SyncUserRequest{
		ExternalID: externalID,
		Email:      email,
	}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var user dto.UserResponse
	s.decode(resp, &user)
	return user
}

func (s *Suite) issueToken(externalID string, minutes int) dto.TokenResponse {
	s.T().Helper()

	resp := s.postJSON("/api/v1/auth/tokens", dto.IssueTokenRequest{
		ExternalID:       externalID,
		ExpiresInMinutes: minutes,
	}, "")
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	var token dto.TokenResponse
	s.decode(resp, &token)
	return token
}

func (s *Suite) signSessionToken(externalID string) string {
	s.T().Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": externalID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(sessionSecret))
	s.Require().NoError(err)
	return signed
}

func (s *Suite) expireToken(value string) {
	s.T().Helper()

	_, err := s.Postgres.DB.Exec(
		`UPDATE user_tokens SET expires_at = $1 WHERE value = $2`,
		time.Now().UTC().Add(-time.Minute), value,
	)
	s.Require().NoError(err)
}

func (s *Suite) TestSync_CreatesAndUpdates() {
	first := s.syncUser("ext-1", "a@x.com")
	s.NotEmpty(first.ID)
	s.Equal("ext-1", first.ExternalID)
	s.Equal("a@x.com", first.Email)

	second := s.syncUser("ext-1", "renamed@x.com")
	s.Equal(first.ID, second.ID)
	s.Equal(first.CreatedAt, second.CreatedAt)
	s.Equal("renamed@x.com", second.Email)
}

func (s *Suite) TestSync_MissingEmail() {
	resp := s.postJSON("/api/v1/auth/sync", dto.SyncUserRequest{ExternalID: "ext-1"}, "")
	defer resp.Body.Close()
	s.Equal(http.StatusBadRequest, resp.StatusCode)
}

func (s *Suite) TestSync_EmailConflict() {
	s.syncUser("ext-1", "a@x.com")

	resp := s.postJSON("/api/v1/auth/sync", dto.SyncUserRequest{
		ExternalID: "ext-2",
		Email:      "a@x.com",
	}, "")
	s.Equal(http.StatusConflict, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("conflict", errResp.Code)
}

func (s *Suite) TestIssueToken_RequiresSyncFirst() {
	resp := s.postJSON("/api/v1/auth/tokens", dto.IssueTokenRequest{ExternalID: "ext-unknown"}, "")
	s.Equal(http.StatusNotFound, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("not_found", errResp.Code)
}

func (s *Suite) TestTokenLifecycle() {
	user := s.syncUser("ext-1", "a@x.com")

	issued := s.issueToken("ext-1", 0)
	s.NotEmpty(issued.Token)
	s.Equal(user.ID, issued.User.ID)

	expiresAt, err := time.Parse(time.RFC3339, issued.ExpiresAt)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(1440*time.Minute), expiresAt, 30*time.Second)

	// The newest valid token is the one just issued.
	resp := s.getJSON("/api/v1/auth/tokens/current", issued.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var current dto.TokenResponse
	s.decode(resp, &current)
	s.Equal(issued.Token, current.Token)

	// Validation resolves the owning user.
	resp = s.postJSON("/api/v1/auth/tokens/verify", dto.VerifyTokenRequest{Token: issued.Token}, "")
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var verdict dto.VerifyTokenResponse
	s.decode(resp, &verdict)
	s.True(verdict.Valid)
	s.Equal(user.ID, verdict.User.ID)
}

func (s *Suite) TestIssueToken_ClampsTTL() {
	s.syncUser("ext-1", "a@x.com")

	issued := s.issueToken("ext-1", 999999)

	expiresAt, err := time.Parse(time.RFC3339, issued.ExpiresAt)
	s.Require().NoError(err)
	s.WithinDuration(time.Now().Add(10080*time.Minute), expiresAt, 30*time.Second)
}

func (s *Suite) TestIssueToken_MultipleValidTokensCoexist() {
	s.syncUser("ext-1", "a@x.com")

	first := s.issueToken("ext-1", 0)
	second := s.issueToken("ext-1", 0)
	s.NotEqual(first.Token, second.Token)

	for _, value := range []string{first.Token, second.Token} {
		resp := s.postJSON("/api/v1/auth/tokens/verify", dto.VerifyTokenRequest{Token: value}, "")
		s.Equal(http.StatusOK, resp.StatusCode)
		resp.Body.Close()
	}
}

func (s *Suite) TestVerify_UnknownToken() {
	resp := s.postJSON("/api/v1/auth/tokens/verify", dto.VerifyTokenRequest{Token: "never-issued"}, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("invalid_token", errResp.Code)
}

func (s *Suite) TestVerify_ExpiredToken() {
	s.syncUser("ext-1", "a@x.com")
	issued := s.issueToken("ext-1", 0)
	s.expireToken(issued.Token)

	resp := s.postJSON("/api/v1/auth/tokens/verify", dto.VerifyTokenRequest{Token: issued.Token}, "")
	s.Equal(http.StatusUnauthorized, resp.StatusCode)

	var errResp dto.ErrorResponse
	s.decode(resp, &errResp)
	s.Equal("expired_token", errResp.Code)

	// The expired token no longer counts as current either.
	getResp := s.getJSON("/api/v1/auth/tokens/current", s.signSessionToken("ext-1"))
	defer getResp.Body.Close()
	s.Equal(http.StatusNotFound, getResp.StatusCode)
}

func (s *Suite) TestGetMe_WithBridgeToken() {
	user := s.syncUser("ext-1", "a@x.com")
	issued := s.issueToken("ext-1", 0)

	resp := s.getJSON("/api/v1/auth/me", issued.Token)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var me dto.UserResponse
	s.decode(resp, &me)
	s.Equal(user.ID, me.ID)
}

func (s *Suite) TestGetMe_WithProviderSessionToken() {
	user := s.syncUser("ext-1", "a@x.com")

	resp := s.getJSON("/api/v1/auth/me", s.signSessionToken("ext-1"))
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	var me dto.UserResponse
	s.decode(resp, &me)
	s.Equal(user.ID, me.ID)
}

func (s *Suite) TestGetMe_RejectsGarbageCredential() {
	resp := s.getJSON("/api/v1/auth/me", "garbage")
	defer resp.Body.Close()
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}
