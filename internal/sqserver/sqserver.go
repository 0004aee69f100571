// Package sqserver exposes a running grammar as an HTTP API: create a
// session, push tokens to it, read its current stats and grammar, and
// freeze it to persistent storage. It follows the same
// httpEndpoint-wrapper-plus-chi-router shape as server/api, trimmed down
// to the one resource (sessions) this domain has.
package sqserver

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/dekarrin/sequitur"
	"github.com/dekarrin/sequitur/internal/sqcodec"
	"github.com/dekarrin/sequitur/internal/sqresult"
	"github.com/dekarrin/sequitur/internal/sqstore"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// PathPrefix is mounted in front of every route the API serves.
const PathPrefix = "/api/v1"

// API holds everything a running server needs to handle requests. Use New
// to construct one; the zero API is not usable.
type API struct {
	Store       sqstore.Store
	Secret      []byte
	UnauthDelay time.Duration

	callers  *callerRegistry
	sessions *sessionRegistry
}

// New returns an API backed by store, signing tokens with secret.
func New(store sqstore.Store, secret []byte) *API {
	return &API{
		Store:       store,
		Secret:      secret,
		UnauthDelay: 250 * time.Millisecond,
		callers:     newCallerRegistry(),
		sessions:    newSessionRegistry(),
	}
}

// Router builds the chi.Mux that serves the API.
func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Route(PathPrefix, func(r chi.Router) {
		r.Post("/callers", a.handle(a.createCaller))

		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)
			r.Post("/sessions", a.handle(a.createSession))
			r.Post("/sessions/{id}/tokens", a.handle(a.pushTokens))
			r.Get("/sessions/{id}/stats", a.handle(a.sessionStats))
			r.Get("/sessions/{id}/grammar", a.handle(a.sessionGrammar))
			r.Delete("/sessions/{id}", a.handle(a.freezeSession))
		})
	})
	return r
}

type endpointFunc func(req *http.Request) sqresult.Result

// handle wraps an endpointFunc with panic recovery and access logging,
// the same division of responsibility as httpEndpoint in server/api.
func (a *API) handle(ep endpointFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer a.recoverPanic(w, req)

		r := ep(req)
		if r.Status == 0 {
			log.Printf("ERROR %s %s: endpoint result was never populated", req.Method, req.URL.Path)
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}

		if r.Status == http.StatusUnauthorized || r.Status == http.StatusForbidden || r.Status == http.StatusInternalServerError {
			time.Sleep(a.UnauthDelay)
		}

		level := "INFO"
		if r.IsErr {
			level = "ERROR"
		}
		log.Printf("%s %s %s %d: %s", level, req.Method, req.URL.Path, r.Status, r.InternalMsg)

		r.WriteResponse(w)
	}
}

func (a *API) recoverPanic(w http.ResponseWriter, req *http.Request) {
	if rec := recover(); rec != nil {
		log.Printf("PANIC %s %s: %v\n%s", req.Method, req.URL.Path, rec, debug.Stack())
		sqresult.InternalServerError("panic: %v", rec).WriteResponse(w)
	}
}

func (a *API) unauthorized(w http.ResponseWriter, reason string) {
	time.Sleep(a.UnauthDelay)
	sqresult.Unauthorized("", reason).WriteResponse(w)
}

// --- caller endpoint ---

type callerResponse struct {
	ID    string `json:"id"`
	Token string `json:"token"`
}

func (a *API) createCaller(req *http.Request) sqresult.Result {
	id, hash, err := a.callers.create()
	if err != nil {
		return sqresult.InternalServerError("create caller: %s", err)
	}

	tok, err := a.generateJWT(id, hash)
	if err != nil {
		return sqresult.InternalServerError("sign token: %s", err)
	}

	return sqresult.Created(callerResponse{ID: id.String(), Token: tok}, "created caller %s", id)
}

// --- session endpoints ---

type sessionResponse struct {
	ID string `json:"id"`
}

func (a *API) createSession(req *http.Request) sqresult.Result {
	owner, _ := callerFromContext(req.Context())

	id := a.sessions.create(owner)
	return sqresult.Created(sessionResponse{ID: id.String()}, "created session %s for caller %s", id, owner)
}

type pushRequest struct {
	Value  string `json:"value"`
	Values string `json:"values"`
}

func (a *API) pushTokens(req *http.Request) sqresult.Result {
	sess, res, ok := a.ownedSession(req)
	if !ok {
		return res
	}

	var body pushRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return sqresult.BadRequest("malformed JSON request body", "decode push request: %s", err)
	}

	switch {
	case body.Values != "":
		sess.engine.Extend([]rune(body.Values)...)
	case body.Value != "":
		r := []rune(body.Value)
		if len(r) != 1 {
			return sqresult.BadRequest("value must be exactly one character", "value %q is not a single rune", body.Value)
		}
		sess.engine.Push(r[0])
	default:
		return sqresult.BadRequest("one of value or values is required", "push request had neither value nor values")
	}

	return sqresult.OK(statsResponse(sess.engine.Stats()), "pushed tokens to session")
}

type statsBody struct {
	InputLength      int     `json:"input_length"`
	RuleCount        int     `json:"rule_count"`
	SymbolCount      int     `json:"symbol_count"`
	CompressionRatio float64 `json:"compression_ratio"`
}

func statsResponse(s sequitur.Stats) statsBody {
	return statsBody{
		InputLength:      s.InputLength,
		RuleCount:        s.RuleCount,
		SymbolCount:      s.SymbolCount,
		CompressionRatio: s.CompressionRatio,
	}
}

func (a *API) sessionStats(req *http.Request) sqresult.Result {
	sess, res, ok := a.ownedSession(req)
	if !ok {
		return res
	}
	return sqresult.OK(statsResponse(sess.engine.Stats()), "fetched stats")
}

type grammarResponse struct {
	Grammar string `json:"grammar"`
}

func (a *API) sessionGrammar(req *http.Request) sqresult.Result {
	sess, res, ok := a.ownedSession(req)
	if !ok {
		return res
	}

	text := sqcodec.Text(sess.engine.Rules(), nil, 100)
	return sqresult.OK(grammarResponse{Grammar: text}, "fetched grammar")
}

func (a *API) freezeSession(req *http.Request) sqresult.Result {
	sess, res, ok := a.ownedSession(req)
	if !ok {
		return res
	}

	data, err := sqcodec.Binary(sess.engine.Rules(), nil)
	if err != nil {
		return sqresult.InternalServerError("encode grammar: %s", err)
	}

	_, err = a.Store.Snapshots().Create(req.Context(), sqstore.Snapshot{ID: sess.id, Data: data})
	if err != nil {
		return sqresult.InternalServerError("persist snapshot: %s", err)
	}

	a.sessions.delete(sess.id)
	return sqresult.NoContent("froze and discarded session %s", sess.id)
}

// ownedSession resolves the {id} path param to a live session and checks
// that the calling caller owns it. It returns the zero session and a
// ready-to-return Result when resolution fails.
func (a *API) ownedSession(req *http.Request) (*liveSession, sqresult.Result, bool) {
	idStr := chi.URLParam(req, "id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, sqresult.BadRequest("id is not a valid session id", "parse session id %q: %s", idStr, err), false
	}

	sess, ok := a.sessions.get(id)
	if !ok {
		return nil, sqresult.NotFound("session %s not found", id), false
	}

	caller, _ := callerFromContext(req.Context())
	if sess.owner != caller {
		return nil, sqresult.Forbidden("caller %s does not own session %s", caller, id), false
	}

	return sess, sqresult.Result{}, true
}

// --- session registry ---

type liveSession struct {
	id     uuid.UUID
	owner  uuid.UUID
	engine *sequitur.Engine[rune]
}

type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*liveSession
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[uuid.UUID]*liveSession)}
}

func (r *sessionRegistry) create(owner uuid.UUID) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.sessions[id] = &liveSession{id: id, owner: owner, engine: sequitur.NewRunes()}
	return id
}

func (r *sessionRegistry) get(id uuid.UUID) (*liveSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	return s, ok
}

func (r *sessionRegistry) delete(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
}
