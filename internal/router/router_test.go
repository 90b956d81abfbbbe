package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"prescription-ledger/internal/adapters/auth/jwtsession"
	"prescription-ledger/internal/adapters/credentials/bcrypt"
	"prescription-ledger/internal/domain/actors"
	"prescription-ledger/internal/platform/config"
	"prescription-ledger/internal/router"

	"github.com/go-chi/chi/v5"
	xbcrypt "golang.org/x/crypto/bcrypt"
)

// clock permite mover el tiempo del issuer entre requests.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var seed = []actors.SeedActor{
	{Role: "prescriber", Name: "Dr. A", Email: "a@rx.test", Password: "pw-a"},
	{Role: "prescriber", Name: "Dr. Z", Email: "z@rx.test", Password: "pw-z"},
	{Role: "dispenser", Name: "B", Email: "b@rx.test", Password: "pw-b"},
	{Role: "dispenser", Name: "C", Email: "c@rx.test", Password: "pw-c"},
}

func newServer(t *testing.T, policy config.Policy) (*httptest.Server, *clock) {
	t.Helper()

	h, clk := newHandler(t, policy)
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts, clk
}

func newHandler(t *testing.T, policy config.Policy) (http.Handler, *clock) {
	t.Helper()

	clk := &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	issuer, err := jwtsession.NewIssuer(jwtsession.Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Issuer: "test",
		TTL:    72 * time.Hour,
		Now:    clk.Now,
	})
	if err != nil {
		t.Fatalf("new issuer: %v", err)
	}

	h, err := router.NewRouter(router.Options{
		Sessions: issuer,
		Hasher:   bcrypt.NewHasher(xbcrypt.MinCost),
		Policy:   policy,
		Seed:     seed,
	})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	return h, clk
}

type session struct {
	ID    string
	Token string
}

func TestHTTP_EndToEnd_IssueAndFill(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")
	b := login(t, ts.URL, "dispensers", "b@rx.test", "pw-b")
	c := login(t, ts.URL, "dispensers", "c@rx.test", "pw-c")

	// 1) A emite una receta
	rxID := issue(t, ts.URL, a.Token, map[string]any{
		"drug":     "X",
		"dosage":   "10mg",
		"quantity": 30,
	})

	// 2) sin dispensar: filled_by null
	{
		st, body := doReq(t, ts.URL, "GET", "/prescriptions/"+rxID, a.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get prescription, got %d body=%s", st, string(body))
		}
		var rx rxResp
		_ = json.Unmarshal(body, &rx)
		if rx.IssuedBy == nil || rx.IssuedBy.ID != a.ID || rx.IssuedBy.Name != "Dr. A" {
			t.Fatalf("expected issued_by to embed A, got %s", string(body))
		}
		if rx.FilledBy != nil {
			t.Fatalf("expected filled_by null before fill, got %s", string(body))
		}
	}

	// 3) B dispensa
	{
		st, body := doReq(t, ts.URL, "PATCH", "/prescriptions/"+rxID+"/fill", b.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 fill by B, got %d body=%s", st, string(body))
		}
		var rx rxResp
		_ = json.Unmarshal(body, &rx)
		if rx.FilledBy == nil || rx.FilledBy.ID != b.ID {
			t.Fatalf("expected filled_by B, got %s", string(body))
		}
	}

	// 4) un segundo fill (C o B de nuevo) => 409, el dispensador no cambia
	for _, s := range []session{c, b} {
		st, body := doReq(t, ts.URL, "PATCH", "/prescriptions/"+rxID+"/fill", s.Token, nil)
		if st != http.StatusConflict {
			t.Fatalf("expected 409 on second fill, got %d body=%s", st, string(body))
		}
	}
	{
		_, body := doReq(t, ts.URL, "GET", "/prescriptions/"+rxID, c.Token, nil)
		var rx rxResp
		_ = json.Unmarshal(body, &rx)
		if rx.FilledBy == nil || rx.FilledBy.ID != b.ID {
			t.Fatalf("expected filler to remain B, got %s", string(body))
		}
	}

	// 5) historial de A y listado del prescriptor incluyen la receta
	{
		st, body := doReq(t, ts.URL, "GET", "/prescription-history", a.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 history, got %d", st)
		}
		var items []rxResp
		_ = json.Unmarshal(body, &items)
		if len(items) != 1 || items[0].ID != rxID {
			t.Fatalf("expected history with %s, got %s", rxID, string(body))
		}
	}
	{
		st, body := doReq(t, ts.URL, "GET", "/prescribers/"+a.ID, b.Token, nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 get prescriber, got %d", st)
		}
		var p struct {
			Issued []string `json:"issued_prescriptions"`
		}
		_ = json.Unmarshal(body, &p)
		if len(p.Issued) != 1 || p.Issued[0] != rxID {
			t.Fatalf("expected issued_prescriptions=[%s], got %s", rxID, string(body))
		}
	}
}

func TestHTTP_Login(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	st, body := doReq(t, ts.URL, "POST", "/login/prescribers", "", map[string]any{
		"email": "A@RX.test", "password": "pw-a",
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login, got %d body=%s", st, string(body))
	}
	var resp struct {
		User struct {
			ID   string `json:"id"`
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"user"`
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" || resp.User.Type != "prescriber" || resp.User.Name != "Dr. A" {
		t.Fatalf("unexpected login response: %s", string(body))
	}
	if strings.Contains(string(body), "password") || strings.Contains(string(body), "$2a$") {
		t.Fatalf("login response leaks credentials: %s", string(body))
	}

	// contraseña incorrecta, email desconocido y pool equivocado responden igual
	bad := []struct{ path, email, pw string }{
		{"/login/prescribers", "a@rx.test", "nope"},
		{"/login/prescribers", "ghost@rx.test", "pw-a"},
		{"/login/dispensers", "a@rx.test", "pw-a"},
	}
	var first string
	for _, tc := range bad {
		st, body := doReq(t, ts.URL, "POST", tc.path, "", map[string]any{"email": tc.email, "password": tc.pw})
		if st != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %s %s, got %d", tc.path, tc.email, st)
		}
		if first == "" {
			first = string(body)
		} else if string(body) != first {
			t.Fatalf("expected identical failure bodies, got %q vs %q", first, string(body))
		}
	}

	st, _ = doReq(t, ts.URL, "POST", "/login/prescribers", "", "{not json")
	if st != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad json, got %d", st)
	}
}

func TestHTTP_DispenserCannotIssue(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")
	b := login(t, ts.URL, "dispensers", "b@rx.test", "pw-b")

	st, body := doReq(t, ts.URL, "POST", "/prescriptions", b.Token, map[string]any{"drug": "X"})
	if st != http.StatusUnauthorized {
		t.Fatalf("expected 401 issue by dispenser, got %d", st)
	}
	if errMsg(body) != "incorrect user type" {
		t.Fatalf("expected incorrect user type, got %s", string(body))
	}

	// un prescriptor tampoco puede dispensar
	rxID := issue(t, ts.URL, a.Token, map[string]any{"drug": "X"})
	st, body = doReq(t, ts.URL, "PATCH", "/prescriptions/"+rxID+"/fill", a.Token, nil)
	if st != http.StatusUnauthorized || errMsg(body) != "incorrect user type" {
		t.Fatalf("expected 401 incorrect user type on fill by prescriber, got %d %s", st, string(body))
	}

	// solo existe la receta emitida por A
	_, body = doReq(t, ts.URL, "GET", "/prescriptions", a.Token, nil)
	var items []rxResp
	_ = json.Unmarshal(body, &items)
	if len(items) != 1 || items[0].ID != rxID {
		t.Fatalf("expected only A's prescription, got %s", string(body))
	}
}

func TestHTTP_Session(t *testing.T) {
	ts, clk := newServer(t, config.Policy{})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")

	cases := map[string]string{
		"missing":  "",
		"garbage":  "not-a-token",
		"tampered": a.Token + "A",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, "GET", "/prescriptions", tok, nil)
			if st != http.StatusUnauthorized || errMsg(body) != "unauthorized" {
				t.Fatalf("expected 401 unauthorized, got %d %s", st, string(body))
			}
		})
	}

	// vigente justo antes de las 72h, vencido al llegar
	clk.Advance(72*time.Hour - time.Second)
	if st, _ := doReq(t, ts.URL, "GET", "/prescriptions", a.Token, nil); st != http.StatusOK {
		t.Fatalf("expected 200 before expiry, got %d", st)
	}
	clk.Advance(time.Second)
	if st, _ := doReq(t, ts.URL, "GET", "/prescriptions", a.Token, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 at expiry, got %d", st)
	}

	// las rutas públicas no exigen token
	if st, _ := doReq(t, ts.URL, "GET", "/health", "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 health, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "GET", "/metrics", "", nil); st != http.StatusOK {
		t.Fatalf("expected 200 metrics, got %d", st)
	}
}

func TestHTTP_IssueValidationAndNotFound(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")
	b := login(t, ts.URL, "dispensers", "b@rx.test", "pw-b")

	if st, _ := doReq(t, ts.URL, "POST", "/prescriptions", a.Token, map[string]any{"dosage": "1"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 without drug, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "POST", "/prescriptions", a.Token, map[string]any{"drug": "X", "issued_by": "someone"}); st != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", st)
	}

	if st, _ := doReq(t, ts.URL, "GET", "/prescriptions/missing", a.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 get missing, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "PATCH", "/prescriptions/missing/fill", b.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 fill missing, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/prescriptions/missing", a.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 delete missing, got %d", st)
	}
}

func TestHTTP_DeletePrescription(t *testing.T) {
	ts, _ := newServer(t, config.Policy{PrescriptionDeleteRole: "prescriber"})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")
	b := login(t, ts.URL, "dispensers", "b@rx.test", "pw-b")

	rxID := issue(t, ts.URL, a.Token, map[string]any{"drug": "X"})

	if st, _ := doReq(t, ts.URL, "DELETE", "/prescriptions/"+rxID, b.Token, nil); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 delete by dispenser under policy, got %d", st)
	}

	st, body := doReq(t, ts.URL, "DELETE", "/prescriptions/"+rxID, a.Token, nil)
	if st != http.StatusOK || !strings.Contains(string(body), `"success":true`) {
		t.Fatalf("expected 200 success delete, got %d %s", st, string(body))
	}
	if st, _ := doReq(t, ts.URL, "GET", "/prescriptions/"+rxID, a.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", st)
	}
}

func TestHTTP_ActorsCRUD(t *testing.T) {
	ts, _ := newServer(t, config.Policy{ActorAdminRole: "prescriber"})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")
	b := login(t, ts.URL, "dispensers", "b@rx.test", "pw-b")

	// la política restringe el alta a prescriptores
	if st, _ := doReq(t, ts.URL, "POST", "/dispensers", b.Token, map[string]any{
		"name": "D", "email": "d@rx.test", "password": "pw-d",
	}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 create by dispenser under policy, got %d", st)
	}

	st, body := doReq(t, ts.URL, "POST", "/dispensers", a.Token, map[string]any{
		"name": "D", "email": "d@rx.test", "password": "pw-d",
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201 create dispenser, got %d body=%s", st, string(body))
	}
	var created struct {
		ID   string `json:"id"`
		Type string `json:"type"`
	}
	_ = json.Unmarshal(body, &created)
	if created.ID == "" || created.Type != "dispenser" {
		t.Fatalf("unexpected create response: %s", string(body))
	}

	// el nuevo dispensador puede loguearse
	_ = login(t, ts.URL, "dispensers", "d@rx.test", "pw-d")

	// email duplicado (aun en el otro pool) => 409
	if st, _ := doReq(t, ts.URL, "POST", "/prescribers", a.Token, map[string]any{
		"name": "Dup", "email": "d@rx.test", "password": "pw",
	}); st != http.StatusConflict {
		t.Fatalf("expected 409 duplicate email, got %d", st)
	}

	// un dispensador no es visible bajo /prescribers
	if st, _ := doReq(t, ts.URL, "GET", "/prescribers/"+created.ID, a.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 cross-pool get, got %d", st)
	}

	if st, body := doReq(t, ts.URL, "PATCH", "/dispensers/"+created.ID, a.Token, map[string]any{"name": "D2"}); st != http.StatusOK || !strings.Contains(string(body), `"name":"D2"`) {
		t.Fatalf("expected 200 rename, got %d %s", st, string(body))
	}

	// listado: los 2 sembrados + el nuevo
	_, body = doReq(t, ts.URL, "GET", "/dispensers", b.Token, nil)
	var list []map[string]any
	_ = json.Unmarshal(body, &list)
	if len(list) != 3 {
		t.Fatalf("expected 3 dispensers, got %d body=%s", len(list), string(body))
	}
	if strings.Contains(string(body), "password") {
		t.Fatalf("actor listing leaks password data: %s", string(body))
	}

	// borrar un actor referenciado por una receta => 409
	_ = issue(t, ts.URL, a.Token, map[string]any{"drug": "X"})
	if st, _ := doReq(t, ts.URL, "DELETE", "/prescribers/"+a.ID, a.Token, nil); st != http.StatusConflict {
		t.Fatalf("expected 409 delete referenced actor, got %d", st)
	}

	if st, _ := doReq(t, ts.URL, "DELETE", "/dispensers/"+created.ID, a.Token, nil); st != http.StatusOK {
		t.Fatalf("expected 200 delete dispenser, got %d", st)
	}
	if st, _ := doReq(t, ts.URL, "DELETE", "/dispensers/"+created.ID, a.Token, nil); st != http.StatusNotFound {
		t.Fatalf("expected 404 second delete, got %d", st)
	}
}

func TestHTTP_DeletedActorTokenCannotIssue(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	z := login(t, ts.URL, "prescribers", "z@rx.test", "pw-z")

	if st, _ := doReq(t, ts.URL, "DELETE", "/prescribers/"+z.ID, z.Token, nil); st != http.StatusOK {
		t.Fatalf("expected 200 delete unreferenced prescriber, got %d", st)
	}

	// el token sigue vigente pero el actor ya no existe
	if st, _ := doReq(t, ts.URL, "POST", "/prescriptions", z.Token, map[string]any{"drug": "X"}); st != http.StatusNotFound {
		t.Fatalf("expected 404 issue by deleted prescriber, got %d", st)
	}
}

func TestHTTP_UnknownFieldsRejected(t *testing.T) {
	ts, _ := newServer(t, config.Policy{})

	a := login(t, ts.URL, "prescribers", "a@rx.test", "pw-a")

	st, body := doReq(t, ts.URL, "POST", "/login/prescribers", "", map[string]any{
		"email": "a@rx.test", "password": "pw-a", "role": "dispenser",
	})
	if st != http.StatusBadRequest || errMsg(body) != "invalid json" {
		t.Fatalf("expected 400 invalid json on login with extra field, got %d %s", st, string(body))
	}

	st, body = doReq(t, ts.URL, "POST", "/dispensers", a.Token, map[string]any{
		"name": "E", "email": "e@rx.test", "password": "pw-e", "type": "prescriber",
	})
	if st != http.StatusBadRequest || errMsg(body) != "invalid json" {
		t.Fatalf("expected 400 invalid json on create with extra field, got %d %s", st, string(body))
	}

	// nada se creó
	if st, _ := doReq(t, ts.URL, "POST", "/login/dispensers", "", map[string]any{
		"email": "e@rx.test", "password": "pw-e",
	}); st != http.StatusUnauthorized {
		t.Fatalf("expected 401 login of rejected actor, got %d", st)
	}
}

func TestHTTP_SwaggerDocCoversEveryRoute(t *testing.T) {
	h, _ := newHandler(t, config.Policy{})
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	st, body := doReq(t, ts.URL, "GET", "/swagger/doc.json", "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 swagger doc, got %d", st)
	}
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		t.Fatalf("decode swagger doc: %v", err)
	}

	routes, ok := h.(chi.Routes)
	if !ok {
		t.Fatalf("router does not expose chi.Routes")
	}
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if route == "/metrics" || strings.HasPrefix(route, "/swagger/") {
			return nil
		}
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		if _, ok := doc.Paths[route][strings.ToLower(method)]; !ok {
			t.Errorf("route %s %s missing from swagger doc", method, route)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk routes: %v", err)
	}
}

// -------------------------
// Helpers
// -------------------------

type actorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type rxResp struct {
	ID       string        `json:"id"`
	Drug     string        `json:"drug"`
	IssuedBy *actorSummary `json:"issued_by"`
	FilledBy *actorSummary `json:"filled_by"`
}

func login(t *testing.T, baseURL, pool, email, password string) session {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/login/"+pool, "", map[string]any{
		"email":    email,
		"password": password,
	})
	if st != http.StatusOK {
		t.Fatalf("expected 200 login %s, got %d body=%s", email, st, string(body))
	}

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	_ = json.Unmarshal(body, &resp)
	if resp.Token == "" || resp.User.ID == "" {
		t.Fatalf("login: missing token body=%s", string(body))
	}
	return session{ID: resp.User.ID, Token: resp.Token}
}

func issue(t *testing.T, baseURL, token string, payload map[string]any) string {
	t.Helper()

	st, body := doReq(t, baseURL, "POST", "/prescriptions", token, payload)
	if st != http.StatusCreated {
		t.Fatalf("expected 201 issue prescription, got %d body=%s", st, string(body))
	}

	var resp rxResp
	_ = json.Unmarshal(body, &resp)
	if resp.ID == "" {
		t.Fatalf("issue: missing id body=%s", string(body))
	}
	return resp.ID
}

func errMsg(body []byte) string {
	var resp struct {
		Error string `json:"error"`
	}
	_ = json.Unmarshal(body, &resp)
	return resp.Error
}

// doReq manda body como JSON; un string se manda crudo.
func doReq(t *testing.T, baseURL, method, path, token string, body any) (int, []byte) {
	t.Helper()

	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("json marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL+path, rdr)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	respBody, _ := io.ReadAll(res.Body)
	return res.StatusCode, respBody
}
