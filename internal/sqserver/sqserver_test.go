package sqserver_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dekarrin/sequitur/internal/sqserver"
	"github.com/dekarrin/sequitur/internal/sqstore/inmem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI() *sqserver.API {
	return sqserver.New(inmem.NewDatastore(), []byte("test-secret"))
}

func createCaller(t *testing.T, r http.Handler) string {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/callers", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		ID    string `json:"id"`
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	return body.Token
}

func authed(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func Test_createCaller_returnsUsableToken(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)
	assert.NotEmpty(t, tok)
}

func Test_createSession_requiresAuth(t *testing.T) {
	r := newTestAPI().Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func Test_createSession_succeedsWithToken(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.ID)
}

func createSession(t *testing.T, r http.Handler, tok string) string {
	t.Helper()

	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.ID
}

func Test_pushTokens_updatesStats(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)
	id := createSession(t, r, tok)

	push := func(values string) map[string]interface{} {
		payload, _ := json.Marshal(map[string]string{"values": values})
		req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/tokens", bytes.NewReader(payload)), tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		return body
	}

	body := push("abcabc")
	assert.Equal(t, float64(6), body["input_length"])
	assert.Greater(t, body["rule_count"], float64(0))
}

func Test_pushTokens_rejectsEmptyBody(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)
	id := createSession(t, r, tok)

	payload, _ := json.Marshal(map[string]string{})
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/tokens", bytes.NewReader(payload)), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func Test_sessionGrammar_reflectsPushedTokens(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)
	id := createSession(t, r, tok)

	payload, _ := json.Marshal(map[string]string{"values": "abcabcabc"})
	pushReq := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/tokens", bytes.NewReader(payload)), tok)
	r.ServeHTTP(httptest.NewRecorder(), pushReq)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/grammar", nil), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Grammar string `json:"grammar"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Grammar)
}

func Test_sessionAccess_deniedForNonOwner(t *testing.T) {
	r := newTestAPI().Router()
	ownerTok := createCaller(t, r)
	id := createSession(t, r, ownerTok)

	otherTok := createCaller(t, r)
	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/stats", nil), otherTok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func Test_sessionAccess_notFoundForUnknownID(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)

	req := authed(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/00000000-0000-0000-0000-000000000000/stats", nil), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func Test_freezeSession_persistsAndDiscards(t *testing.T) {
	r := newTestAPI().Router()
	tok := createCaller(t, r)
	id := createSession(t, r, tok)

	payload, _ := json.Marshal(map[string]string{"values": "abab"})
	pushReq := authed(httptest.NewRequest(http.MethodPost, "/api/v1/sessions/"+id+"/tokens", bytes.NewReader(payload)), tok)
	r.ServeHTTP(httptest.NewRecorder(), pushReq)

	delReq := authed(httptest.NewRequest(http.MethodDelete, "/api/v1/sessions/"+id, nil), tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, delReq)
	require.Equal(t, http.StatusNoContent, w.Code)

	getReq := authed(httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+id+"/stats", nil), tok)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, getReq)
	assert.Equal(t, http.StatusNotFound, w2.Code)
}

func Test_requireAuth_rejectsMalformedToken(t *testing.T) {
	r := newTestAPI().Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
