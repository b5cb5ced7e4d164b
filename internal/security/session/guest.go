package session

import (
	"crypto/sha256"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
)

const guestKey = "guest_cart_id"

// GuestStore 游客购物车 id 存放在签名 cookie 中
type GuestStore struct {
	store *sessions.CookieStore
	name  string
}

func NewGuestStore(secret, name string, maxAge int, secure bool) *GuestStore {
	key := sha256.Sum256([]byte(secret))
	st := sessions.NewCookieStore(key[:])
	st.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return &GuestStore{store: st, name: name}
}

// GuestID 读取已有 id，没有返回空串
func (g *GuestStore) GuestID(r *http.Request) string {
	s, err := g.store.Get(r, g.name)
	if err != nil {
		return ""
	}
	id, _ := s.Values[guestKey].(string)
	return id
}

// Ensure 读取或生成 id 并写回 cookie
func (g *GuestStore) Ensure(w http.ResponseWriter, r *http.Request) (string, error) {
	s, _ := g.store.Get(r, g.name)
	if id, ok := s.Values[guestKey].(string); ok && id != "" {
		return id, nil
	}
	id := uuid.NewString()
	s.Values[guestKey] = id
	if err := s.Save(r, w); err != nil {
		return "", err
	}
	return id, nil
}

// Forget 合并到用户购物车后清掉游客 id
func (g *GuestStore) Forget(w http.ResponseWriter, r *http.Request) error {
	s, _ := g.store.Get(r, g.name)
	if _, ok := s.Values[guestKey]; !ok {
		return nil
	}
	delete(s.Values, guestKey)
	return s.Save(r, w)
}
