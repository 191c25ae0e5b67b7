package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pawwalk/pawwalk/internal/api"
	"github.com/pawwalk/pawwalk/internal/app"
	iauth "github.com/pawwalk/pawwalk/internal/auth"
	sharedtestutil "github.com/pawwalk/pawwalk/internal/database/testutil"
	"github.com/pawwalk/pawwalk/internal/integrations/storage"
	"github.com/pawwalk/pawwalk/internal/integrations/weather"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/services"
)

const testSecret = "test-suite-super-secret-key-32-bytes!!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T         *testing.T
	DB        *gorm.DB
	Router    *gin.Engine
	Verifier  *iauth.JWTVerifier
	Services  *services.Registry
	Generator *StubGenerator
	Fetcher   *StubFetcher
	Storage   *StubStorage
}

// NewEnv provisions a fresh handler test environment with migrations applied
// and stub collaborators for advice, weather and storage.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	verifier, err := iauth.NewJWTVerifier(iauth.JWTConfig{
		Secret: testSecret,
		Issuer: "test-suite",
		TTL:    time.Hour,
	})
	require.NoError(t, err)

	resolver, err := iauth.NewResolver(verifier)
	require.NoError(t, err)

	env := &Env{
		T:         t,
		DB:        db,
		Verifier:  verifier,
		Generator: &StubGenerator{},
		Fetcher:   &StubFetcher{},
		Storage:   &StubStorage{},
	}

	env.Services, err = services.NewRegistry(db, services.Collaborators{
		Generator: env.Generator,
		Fetcher:   env.Fetcher,
		Storage:   env.Storage,
	})
	require.NoError(t, err)

	cfg := &app.Config{
		Server: app.ServerConfig{
			RateLimit: app.RateLimitConfig{Requests: 10000, Window: time.Minute},
		},
		Auth: app.AuthConfig{
			Provider:      app.AuthProviderJWT,
			JWT:           app.JWTSettings{Secret: testSecret, Issuer: "test-suite"},
			AutoProvision: true,
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
			Health:     app.HealthConfig{Enabled: true},
		},
	}

	env.Router, err = api.NewRouter(api.Dependencies{
		DB:       db,
		Config:   cfg,
		Resolver: resolver,
		Services: env.Services,
	})
	require.NoError(t, err)

	return env
}

// CreateUser inserts a user and returns it with a bearer token for its subject.
func (e *Env) CreateUser(nickname string) (*models.User, string) {
	e.T.Helper()
	user := sharedtestutil.MustCreateUser(e.T, e.DB, nickname)
	return user, e.TokenFor(user.FirebaseUID, user.Email)
}

// CreatePet creates a family owned by owner with one pet.
func (e *Env) CreatePet(owner *models.User, name string) (*models.Family, *models.Pet) {
	e.T.Helper()
	return sharedtestutil.MustCreatePet(e.T, e.DB, owner, name)
}

// AddMember joins user to family as a regular member.
func (e *Env) AddMember(family *models.Family, user *models.User) {
	e.T.Helper()
	sharedtestutil.MustAddMember(e.T, e.DB, family, user, models.FamilyRoleMember)
}

// TokenFor issues an identity token for an arbitrary subject.
func (e *Env) TokenFor(subject, email string) string {
	e.T.Helper()
	token, err := e.Verifier.IssueToken(iauth.IssueInput{Subject: subject, Email: email})
	require.NoError(e.T, err)
	return token
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, target string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, target, reader)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Upload posts a multipart form with a single file field.
func (e *Env) Upload(target, field, filename, contentType string, data []byte, fields map[string]string, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for key, value := range fields {
		require.NoError(e.T, writer.WriteField(key, value))
	}
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(e.T, err)
		_, err = part.Write(data)
		require.NoError(e.T, err)
	}
	require.NoError(e.T, writer.Close())

	req, err := http.NewRequest(http.MethodPost, target, &buf)
	require.NoError(e.T, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}

// Envelope is a decoded response envelope. Payload keys stay raw so tests can
// decode the ones they care about.
type Envelope struct {
	Success bool
	Status  int
	Code    string
	Reason  string
	Fields  map[string]json.RawMessage
}

// DecodeResponse parses the response envelope from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields), w.Body.String())

	env := Envelope{Fields: fields}
	decodeOptional(t, fields, "success", &env.Success)
	decodeOptional(t, fields, "status", &env.Status)
	decodeOptional(t, fields, "code", &env.Code)
	decodeOptional(t, fields, "reason", &env.Reason)
	return env
}

// DecodeField unmarshals one top-level payload key into dest.
func DecodeField[T any](t *testing.T, env Envelope, key string, dest *T) {
	t.Helper()
	raw, ok := env.Fields[key]
	require.Truef(t, ok, "response has no %q field", key)
	require.NoError(t, json.Unmarshal(raw, dest))
}

// RequireError asserts the recorder holds an error envelope with the given status and code.
func RequireError(t *testing.T, w *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	env := DecodeResponse(t, w)
	require.False(t, env.Success)
	require.Equal(t, code, env.Code, w.Body.String())
}

func decodeOptional(t *testing.T, fields map[string]json.RawMessage, key string, dest any) {
	t.Helper()
	if raw, ok := fields[key]; ok {
		require.NoError(t, json.Unmarshal(raw, dest))
	}
}

// StubGenerator replies with a fixed completion.
type StubGenerator struct {
	mu      sync.Mutex
	Reply   string
	Err     error
	Prompts []string
}

// Respond sets the next completion.
func (g *StubGenerator) Respond(reply string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Reply, g.Err = reply, err
}

// Generate implements services.AdviceGenerator.
func (g *StubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.Prompts = append(g.Prompts, prompt)
	return g.Reply, g.Err
}

// StubFetcher returns a fixed observation.
type StubFetcher struct {
	mu  sync.Mutex
	Obs *weather.Observation
	Err error
}

// Set replaces the observation returned by Fetch.
func (f *StubFetcher) Set(obs *weather.Observation, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Obs, f.Err = obs, err
}

// Fetch implements services.WeatherFetcher.
func (f *StubFetcher) Fetch(context.Context, float64, float64) (*weather.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	if f.Obs == nil {
		return nil, weather.ErrUnavailable
	}
	obs := *f.Obs
	return &obs, nil
}

// StubStorage keeps uploaded objects in memory.
type StubStorage struct {
	mu      sync.Mutex
	Objects []storage.Object
	Bodies  [][]byte
}

// Upload implements services.ObjectStorage.
func (s *StubStorage) Upload(_ context.Context, obj storage.Object) (string, error) {
	data, err := io.ReadAll(obj.Body)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Objects = append(s.Objects, obj)
	s.Bodies = append(s.Bodies, data)
	return "https://cdn.test/" + path.Join(obj.Folder, obj.Name), nil
}
