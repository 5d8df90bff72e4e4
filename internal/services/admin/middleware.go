package admin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/notifyops/notify-admin/internal/identity"
	"github.com/notifyops/notify-admin/internal/notify"
	"github.com/notifyops/notify-admin/internal/platform/requestctx"
	admini18n "github.com/notifyops/notify-admin/internal/services/admin/i18n"
	"github.com/notifyops/notify-admin/internal/services/admin/routepath"
	"github.com/notifyops/notify-admin/internal/services/admin/templates"
	"github.com/notifyops/notify-admin/internal/session"
)

// requestState is everything the pipeline resolves before a handler runs.
// It hangs off the request context and never outlives the request.
type requestState struct {
	session      *session.Session
	user         *identity.User
	service      *notify.Service
	organisation *notify.Organisation
	tag          language.Tag
	printer      *message.Printer
	nonce        string
	callerIP     string
	startedAt    time.Time
}

type stateKey struct{}

func stateFromRequest(r *http.Request) *requestState {
	if state, ok := r.Context().Value(stateKey{}).(*requestState); ok {
		return state
	}
	return &requestState{session: session.New(), tag: language.English, printer: admini18n.Printer(language.English)}
}

// withRequestState is the before-request half of the pipeline: caller IP,
// request id, session, nonce and locale.
func (s *Server) withRequestState(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		state := &requestState{
			startedAt: time.Now(),
			callerIP:  callerIP(r),
		}

		ctx := requestctx.WithRequestID(r.Context(), uuid.NewString())

		static := routepath.IsStatic(r.URL.Path)
		if !static {
			state.nonce = newNonce()
			ctx = requestctx.WithNonce(ctx, state.nonce)
		}

		state.session = s.sessions.Load(r)
		if !static && state.session.CSRFToken == "" {
			state.session.CSRFToken = newNonce()
		}

		tag, persist := admini18n.ResolveTag(r, state.session)
		state.tag = tag
		state.printer = admini18n.Printer(tag)
		if persist {
			state.session.UserLang = tag.String()
		}

		ctx = context.WithValue(ctx, stateKey{}, state)
		r = r.WithContext(ctx)

		// Refreshing on every page view is what makes the session permanent.
		if !static {
			if err := s.sessions.Save(ctx, w, state.session); err != nil {
				log.Printf("WARN: save session: %v", err)
			}
		}

		next.ServeHTTP(w, r)

		if !static {
			log.Printf("%s %s from %s in %s", r.Method, r.URL.Path, state.callerIP, time.Since(state.startedAt))
		}
	})
}

// newNonce returns a 256-bit URL-safe nonce.
func newNonce() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(buf)
}

// callerIP picks the client address, preferring the first X-Forwarded-For
// hop set by the load balancer.
func callerIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// pageContext builds the template context for the current request and
// drains pending flashes.
func (s *Server) pageContext(r *http.Request) templates.PageContext {
	state := stateFromRequest(r)
	pageCtx := templates.PageContext{
		Lang:        state.tag.String(),
		Loc:         state.printer,
		Nonce:       state.nonce,
		CurrentPath: r.URL.Path,
		SignedIn:    state.session.SignedIn(),
		CSRFToken:   state.session.CSRFToken,
	}
	if flashes := state.drainFlashes(); len(flashes) > 0 {
		pageCtx.Flashes = flashes
		s.persistSession(r)
	}
	return pageCtx
}

// Flashes ride in the session between a redirect and the next render.
func (state *requestState) drainFlashes() []templates.Flash {
	if state.session == nil || len(state.session.Flashes) == 0 {
		return nil
	}
	flashes := make([]templates.Flash, 0, len(state.session.Flashes))
	for _, flash := range state.session.Flashes {
		flashes = append(flashes, templates.Flash{Level: flash.Level, Message: flash.Message})
	}
	state.session.Flashes = nil
	return flashes
}

func (s *Server) flash(r *http.Request, level, message string) {
	state := stateFromRequest(r)
	state.session.Flashes = append(state.session.Flashes, session.Flash{Level: level, Message: message})
	s.persistSession(r)
}

func (s *Server) persistSession(r *http.Request) {
	state := stateFromRequest(r)
	if err := s.sessions.Persist(r.Context(), state.session); err != nil {
		log.Printf("WARN: persist session: %v", err)
	}
}
