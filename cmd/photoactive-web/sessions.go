package main

import (
	"net/http"
	"sync"

	"github.com/google/uuid"

	"github.com/photoactive-studio/photoactive/internal/session"
)

const sessionCookie = "photoactive_session"

// sessionRegistry maps browser cookies to sessions. One Session per browser;
// the session's own lock enforces the single-in-flight rule within it.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*session.Session)}
}

// sessionFor returns the caller's session, creating it (and its cookie) on
// first contact.
func (r *sessionRegistry) sessionFor(w http.ResponseWriter, req *http.Request) *session.Session {
	var id string
	if c, err := req.Cookie(sessionCookie); err == nil && c.Value != "" {
		id = c.Value
	} else {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = session.New()
		r.sessions[id] = s
	}
	return s
}
