package auth

import (
	"Recall_1.0/backend/go/internal/apperr"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	tok, err := tk.GenerateToken("alice")
	if err != nil {
		t.Fatal(err)
	}
	user, err := tk.VerifyToken(tok)
	if err != nil || user != "alice" {
		t.Fatalf("VerifyToken = %q, %v", user, err)
	}
}

func TestVerifyTokenRejects(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	other := NewTokens("other", time.Hour)
	foreign, _ := other.GenerateToken("alice")

	expired := NewTokens("secret", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _ := expired.GenerateToken("alice")

	noExp, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{ClaimUserID: "alice"}).SignedString([]byte("secret"))
	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{ClaimUserID: "alice", "exp": time.Now().Add(time.Hour).Unix()}).SignedString([]byte("secret"))

	tests := map[string]string{
		"empty":       "",
		"garbage":     "not-a-token",
		"wrong key":   foreign,
		"expired":     old,
		"missing exp": noExp,
		"hs512":       hs512,
	}
	for name, tok := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := tk.VerifyToken(tok)
			if apperr.KindOf(err) != apperr.KindUnauthorized {
				t.Fatalf("err = %v", err)
			}
		})
	}
}

func TestGenerateTokenRequiresUser(t *testing.T) {
	if _, err := NewTokens("", 0).GenerateToken(" "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("err = %v", err)
	}
}

func newRouter(tk *Tokens) *gin.Engine {
	r := gin.New()
	r.POST("/auth/token", IssueHandler(tk))
	r.POST("/whoami", RequireUser(tk), func(c *gin.Context) {
		var body struct {
			User string `json:"user"`
		}
		_ = c.ShouldBindJSON(&body)
		owner, err := Owner(c, body.User)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": owner})
	})
	return r
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	tk := NewTokens("secret", time.Hour)
	r := newRouter(tk)

	w := do(r, http.MethodPost, "/auth/token", "", `{"user":"alice"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("issue status %d", w.Code)
	}
	var issued struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &issued)

	if w := do(r, http.MethodPost, "/whoami", "", `{}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/whoami", "bogus", `{}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: %d", w.Code)
	}
	if w := do(r, http.MethodPost, "/whoami", issued.Token, `{"user":"bob"}`); w.Code != http.StatusForbidden {
		t.Fatalf("mismatched user: %d", w.Code)
	}
	w = do(r, http.MethodPost, "/whoami", issued.Token, `{}`)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"alice"`) {
		t.Fatalf("valid token: %d %s", w.Code, w.Body.String())
	}
}

func TestIssueHandlerMissingUser(t *testing.T) {
	r := newRouter(NewTokens("secret", time.Hour))
	if w := do(r, http.MethodPost, "/auth/token", "", `{}`); w.Code != http.StatusBadRequest {
		t.Fatalf("status %d", w.Code)
	}
}
