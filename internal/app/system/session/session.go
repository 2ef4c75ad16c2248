// Package session keeps each operator's desk id in a signed cookie.
//
// There is no login: the desk id only tells apart the browsers sharing one
// matchdesk instance, so each gets its own selection, panels and toasts.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

const (
	// DefaultName is the cookie name used when none is configured.
	DefaultName = "matchdesk-session"

	deskIDKey = "desk_id"

	minKeyLen = 32
)

type ctxKey string

const deskCtxKey ctxKey = "deskID"

// SessionManager reads and writes the desk session cookie.
type SessionManager struct {
	store *sessions.CookieStore
	name  string
	log   *zap.Logger
}

// Options configures NewSessionManager.
type Options struct {
	Key    string
	Name   string
	Domain string
	MaxAge time.Duration
	// Secure marks cookies Secure with SameSite=None; otherwise Lax.
	Secure bool
	// Dev allows a missing or short key: a random one is generated, so
	// sessions do not survive a restart.
	Dev bool
}

// NewSessionManager builds the cookie store. Outside dev mode the key must
// be at least 32 characters.
func NewSessionManager(opts Options, logger *zap.Logger) (*SessionManager, error) {
	key := []byte(opts.Key)
	if len(key) < minKeyLen {
		if !opts.Dev {
			return nil, fmt.Errorf("session key must be at least %d characters (got %d)", minKeyLen, len(key))
		}
		key = securecookie.GenerateRandomKey(minKeyLen)
		if key == nil {
			return nil, errors.New("session key: random generation failed")
		}
		logger.Warn("session key missing or short; using a random key for this run",
			zap.Int("length", len(opts.Key)))
	}

	name := opts.Name
	if name == "" {
		name = DefaultName
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Domain:   opts.Domain,
		Path:     "/",
		MaxAge:   int(opts.MaxAge.Seconds()),
		Secure:   opts.Secure,
		HttpOnly: true,
	}
	if opts.Secure {
		store.Options.SameSite = http.SameSiteNoneMode
	} else {
		store.Options.SameSite = http.SameSiteLaxMode
	}

	logger.Info("session store initialized",
		zap.String("name", name),
		zap.Bool("secure", opts.Secure),
		zap.String("domain", opts.Domain))

	return &SessionManager{store: store, name: name, log: logger}, nil
}

// LoadDesk makes sure the request carries a desk id, issuing a new one (and
// its cookie) on first contact or when the cookie cannot be decoded.
func (m *SessionManager) LoadDesk(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := m.store.Get(r, m.name)
		if err != nil {
			var scErr securecookie.Error
			if errors.As(err, &scErr) && scErr.IsDecode() {
				m.log.Debug("session cookie invalid, issuing a fresh desk", zap.Error(err))
			} else {
				m.log.Warn("session store error, issuing a fresh desk", zap.Error(err))
			}
		}

		id, _ := sess.Values[deskIDKey].(string)
		if _, perr := uuid.Parse(id); perr != nil {
			id = uuid.NewString()
			sess.Values[deskIDKey] = id
			if err := sess.Save(r, w); err != nil {
				m.log.Error("failed to save session", zap.Error(err))
			}
		}

		next.ServeHTTP(w, WithDeskID(r, id))
	})
}

// DeskID returns the desk id set by LoadDesk.
func DeskID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(deskCtxKey).(string)
	return id, ok && id != ""
}

// WithDeskID returns r carrying deskID, as LoadDesk does.
func WithDeskID(r *http.Request, deskID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), deskCtxKey, deskID))
}
