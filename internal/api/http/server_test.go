package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alijeyrad/clinicflow_backend/config"
	"github.com/Alijeyrad/clinicflow_backend/internal/api/http/router"
	"github.com/Alijeyrad/clinicflow_backend/internal/repo"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/apitoken"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/appointment"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/auth"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/membership"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/patient"
	"github.com/Alijeyrad/clinicflow_backend/internal/service/rbac"
	"github.com/Alijeyrad/clinicflow_backend/pkg/authorize"
	"github.com/Alijeyrad/clinicflow_backend/pkg/constants"
	"github.com/Alijeyrad/clinicflow_backend/pkg/events"
	pasetotoken "github.com/Alijeyrad/clinicflow_backend/pkg/paseto"
	"github.com/Alijeyrad/clinicflow_backend/pkg/util/codes"
)

// ---------------------------------------------------------------------------
// In-memory store
// ---------------------------------------------------------------------------

type world struct {
	mu            sync.Mutex
	clinics       map[uuid.UUID]*repo.Clinic
	members       []*repo.UserClinic
	roles         []*repo.UserRole
	patients      map[uuid.UUID]*repo.Patient
	professionals map[uuid.UUID]*repo.Professional
	appointments  map[uuid.UUID]*repo.Appointment
	tokens        map[uuid.UUID]*repo.APIToken
	sessions      map[string]uuid.UUID
}

func newWorld() *world {
	return &world{
		clinics:       map[uuid.UUID]*repo.Clinic{},
		patients:      map[uuid.UUID]*repo.Patient{},
		professionals: map[uuid.UUID]*repo.Professional{},
		appointments:  map[uuid.UUID]*repo.Appointment{},
		tokens:        map[uuid.UUID]*repo.APIToken{},
		sessions:      map[string]uuid.UUID{},
	}
}

func (w *world) addClinic(name string) uuid.UUID {
	id := uuid.New()
	w.clinics[id] = &repo.Clinic{ID: id, Name: name, CreatedAt: time.Now()}
	return id
}

// addUser creates a member of clinicID with role and returns its session bearer.
func (w *world) addUser(clinicID uuid.UUID, role authorize.ClinicRole) (uuid.UUID, string) {
	userID := uuid.New()
	w.members = append(w.members, &repo.UserClinic{
		ID: uuid.New(), UserID: userID, ClinicID: clinicID, Role: string(role),
		RoleType: repo.RoleTypeMember, CreatedAt: time.Now(),
	})
	if role != "" {
		w.roles = append(w.roles, &repo.UserRole{ID: uuid.New(), UserID: userID, ClinicID: clinicID, Role: role})
	}
	bearer := "session-" + userID.String()
	w.sessions[bearer] = userID
	return userID, bearer
}

func (w *world) addProfessional(clinicID uuid.UUID, name string) uuid.UUID {
	id := uuid.New()
	w.professionals[id] = &repo.Professional{ID: id, ClinicID: clinicID, Name: name, Specialty: "Psicologia", Color: "#3B82F6"}
	return id
}

func (w *world) addPatient(clinicID uuid.UUID, name string) uuid.UUID {
	id := uuid.New()
	w.patients[id] = &repo.Patient{ID: id, ClinicID: clinicID, Name: name, CPF: "98765432100"}
	return id
}

type clinicStore struct{ *world }

func (s clinicStore) Create(_ context.Context, c *repo.Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = uuid.New()
	s.clinics[c.ID] = c
	return nil
}

func (s clinicStore) Get(_ context.Context, id uuid.UUID) (*repo.Clinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clinics[id]; ok {
		return c, nil
	}
	return nil, repo.ErrNotFound
}

func (s clinicStore) Update(_ context.Context, c *repo.Clinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clinics[c.ID] = c
	return nil
}

func (s clinicStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clinics, id)
	return nil
}

type memberStore struct{ *world }

func (s memberStore) Create(_ context.Context, m *repo.UserClinic) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members = append(s.members, m)
	return nil
}

func (s memberStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*repo.ClinicMembership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repo.ClinicMembership
	for _, m := range s.members {
		if m.UserID == userID {
			out = append(out, &repo.ClinicMembership{UserClinic: *m, Clinic: *s.clinics[m.ClinicID]})
		}
	}
	return out, nil
}

func (s memberStore) Get(_ context.Context, userID, clinicID uuid.UUID) (*repo.UserClinic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.members {
		if m.UserID == userID && m.ClinicID == clinicID {
			return m, nil
		}
	}
	return nil, repo.ErrNotFound
}

type roleStore struct{ *world }

func (s roleStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*repo.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repo.UserRole
	for _, r := range s.roles {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s roleStore) GetForUser(_ context.Context, userID, clinicID uuid.UUID) (*repo.UserRole, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.roles {
		if r.UserID == userID && r.ClinicID == clinicID {
			return r, nil
		}
	}
	return nil, repo.ErrNotFound
}

type patientStore struct{ *world }

func (s patientStore) List(_ context.Context, clinicID uuid.UUID) ([]*repo.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*repo.Patient{}
	for _, p := range s.patients {
		if p.ClinicID == clinicID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s patientStore) Get(_ context.Context, clinicID, id uuid.UUID) (*repo.Patient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.patients[id]; ok && p.ClinicID == clinicID {
		return p, nil
	}
	return nil, repo.ErrNotFound
}

func (s patientStore) Exists(ctx context.Context, clinicID, id uuid.UUID) (bool, error) {
	_, err := s.Get(ctx, clinicID, id)
	return err == nil, nil
}

func (s patientStore) CountByCPF(_ context.Context, clinicID uuid.UUID, cpf string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range s.patients {
		if p.ClinicID == clinicID && p.CPF == cpf {
			n++
		}
	}
	return n, nil
}

func (s patientStore) Create(_ context.Context, p *repo.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	s.patients[p.ID] = p
	return nil
}

func (s patientStore) Update(_ context.Context, p *repo.Patient) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.patients[p.ID]; !ok || old.ClinicID != p.ClinicID {
		return repo.ErrNotFound
	}
	s.patients[p.ID] = p
	return nil
}

func (s patientStore) Delete(_ context.Context, clinicID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.patients[id]; !ok || p.ClinicID != clinicID {
		return repo.ErrNotFound
	}
	delete(s.patients, id)
	return nil
}

type professionalRefs struct{ *world }

func (s professionalRefs) Exists(_ context.Context, clinicID, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.professionals[id]
	return ok && p.ClinicID == clinicID, nil
}

type appointmentStore struct{ *world }

func (s appointmentStore) detail(a *repo.Appointment) *repo.AppointmentDetail {
	d := &repo.AppointmentDetail{Appointment: *a}
	if p, ok := s.patients[a.PatientID]; ok {
		d.Patient = repo.PatientSummary{ID: p.ID, Name: p.Name, CPF: p.CPF}
	}
	if p, ok := s.professionals[a.ProfessionalID]; ok {
		d.Professional = repo.ProfessionalSummary{ID: p.ID, Name: p.Name, Specialty: p.Specialty, Color: p.Color}
	}
	return d
}

func (s appointmentStore) List(_ context.Context, clinicID uuid.UUID, _ repo.AppointmentFilter) ([]*repo.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*repo.AppointmentDetail{}
	for _, a := range s.appointments {
		if a.ClinicID == clinicID {
			out = append(out, s.detail(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s appointmentStore) Get(_ context.Context, clinicID, id uuid.UUID) (*repo.AppointmentDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.appointments[id]; ok && a.ClinicID == clinicID {
		return s.detail(a), nil
	}
	return nil, repo.ErrNotFound
}

func (s appointmentStore) Create(_ context.Context, a *repo.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.ID = uuid.New()
	s.appointments[a.ID] = a
	return nil
}

func (s appointmentStore) Update(_ context.Context, a *repo.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.appointments[a.ID]; !ok || old.ClinicID != a.ClinicID {
		return repo.ErrNotFound
	}
	s.appointments[a.ID] = a
	return nil
}

func (s appointmentStore) Delete(_ context.Context, clinicID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.appointments[id]; !ok || a.ClinicID != clinicID {
		return repo.ErrNotFound
	}
	delete(s.appointments, id)
	return nil
}

type tokenStore struct{ *world }

func (s tokenStore) Create(_ context.Context, t *repo.APIToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	s.tokens[t.ID] = t
	return nil
}

func (s tokenStore) GetByHash(_ context.Context, hash string) (*repo.APIToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.TokenHash == hash {
			return t, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (s tokenStore) TouchLastUsed(context.Context, uuid.UUID, time.Time) error { return nil }

func (s tokenStore) List(_ context.Context, userID, clinicID uuid.UUID) ([]*repo.APIToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*repo.APIToken
	for _, t := range s.tokens {
		if t.UserID == userID && t.ClinicID == clinicID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s tokenStore) Delete(_ context.Context, userID, clinicID, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tokens[id]; !ok || t.UserID != userID || t.ClinicID != clinicID {
		return repo.ErrNotFound
	}
	delete(s.tokens, id)
	return nil
}

// sessionAuth accepts the bearers handed out by world.addUser.
type sessionAuth struct{ *world }

func (s sessionAuth) Register(context.Context, auth.RegisterRequest) (*repo.UserWithProfile, error) {
	return nil, auth.ErrInvalidCredentials
}

func (s sessionAuth) Login(context.Context, auth.LoginRequest) (*auth.AuthTokens, error) {
	return nil, auth.ErrInvalidCredentials
}

func (s sessionAuth) RefreshTokens(context.Context, string) (*auth.AuthTokens, error) {
	return nil, auth.ErrInvalidToken
}

func (s sessionAuth) Logout(context.Context, uuid.UUID) error { return nil }

func (s sessionAuth) Me(context.Context, uuid.UUID) (*repo.UserWithProfile, error) {
	return nil, auth.ErrUserNotFound
}

func (s sessionAuth) Authenticate(_ context.Context, token string) (*pasetotoken.Claims, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	sid := uuid.New()
	return &pasetotoken.Claims{Type: pasetotoken.TokenTypeAccess, UserID: userID, SessionID: &sid}, nil
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

func seededAuthorization(t *testing.T) authorize.IAuthorization {
	t.Helper()
	e, err := authorize.NewFileEnforcer("", filepath.Join(t.TempDir(), "policy.csv"))
	require.NoError(t, err)
	a, err := authorize.NewAuthorization(e)
	require.NoError(t, err)
	require.NoError(t, authorize.SeedDefaultPolicies(context.Background(), a))
	return a
}

func newTestApp(t *testing.T, w *world) *fiber.App {
	t.Helper()
	app, _ := newTestServer(t, w, events.Nop{})
	return app
}

func newTestServer(t *testing.T, w *world, stream events.Subscriber) (*fiber.App, *router.Router) {
	t.Helper()
	bus := events.Nop{}
	cfg := &config.Config{}

	r := router.NewRouter(router.Params{
		Cfg:            cfg,
		AuthSvc:        sessionAuth{w},
		APITokenSvc:    apitoken.New(tokenStore{w}, bus),
		MembershipSvc:  membership.New(clinicStore{w}, memberStore{w}, roleStore{w}, bus),
		RBACSvc:        rbac.New(seededAuthorization(t), nil, nil, nil, nil, bus),
		PatientSvc:     patient.New(patientStore{w}, bus, patient.Config{}),
		AppointmentSvc: appointment.New(appointmentStore{w}, patientStore{w}, professionalRefs{w}, bus),
		Events:         stream,
	})
	app := NewApp(cfg, nil, false)
	r.Register(app)
	return app, r
}

// streamBus hands every subscriber one event and counts releases.
type streamBus struct {
	mu       sync.Mutex
	subjects []string
	released int
}

func (b *streamBus) Subscribe(subject string, fn func(events.Event)) (events.Subscription, error) {
	b.mu.Lock()
	b.subjects = append(b.subjects, subject)
	b.mu.Unlock()
	fn(events.Event{Entity: events.EntityPatient, Op: events.OpCreated, ID: uuid.New()})
	return streamSub{b}, nil
}

type streamSub struct{ b *streamBus }

func (s streamSub) Unsubscribe() error {
	s.b.mu.Lock()
	defer s.b.mu.Unlock()
	s.b.released++
	return nil
}

type reply struct {
	status int
	body   map[string]any
}

func call(t *testing.T, app *fiber.App, method, path, bearer string, body any, headers ...string) reply {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+bearer)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	out := reply{status: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out.body), string(raw))
	}
	return out
}

func data(t *testing.T, r reply) map[string]any {
	t.Helper()
	d, ok := r.body["data"].(map[string]any)
	require.True(t, ok, "response has no data object: %v", r.body)
	return d
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCreateAndReadPatient(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	_, admin := w.addUser(clinic, authorize.ClinicRoleAdmin)
	app := newTestApp(t, w)

	res := call(t, app, fiber.MethodPost, "/patients-api", admin, map[string]any{
		"name": "Maria Silva",
		"cpf":  "12345678901",
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.body)
	assert.Equal(t, true, res.body["success"])
	id, _ := data(t, res)["id"].(string)
	require.NotEmpty(t, id)

	res = call(t, app, fiber.MethodGet, "/patients-api/"+id, admin, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.body)
	got := data(t, res)
	assert.Equal(t, "Maria Silva", got["name"])
	assert.Equal(t, "12345678901", got["cpf"])
	assert.Equal(t, clinic.String(), got["clinic_id"])
}

func TestCurrentClinic(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	owner, admin := w.addUser(clinic, authorize.ClinicRoleAdmin)
	_, receptionist := w.addUser(clinic, authorize.ClinicRoleReceptionist)
	for _, m := range w.members {
		if m.UserID == owner {
			m.RoleType = repo.RoleTypeMaster
		}
	}
	app := newTestApp(t, w)

	tests := []struct {
		name   string
		bearer string
		role   authorize.ClinicRole
		master bool
	}{
		{"creator", admin, authorize.ClinicRoleAdmin, true},
		{"member", receptionist, authorize.ClinicRoleReceptionist, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, app, fiber.MethodGet, "/clinics/current", tt.bearer, nil)
			require.Equal(t, fiber.StatusOK, res.status, res.body)
			got := data(t, res)
			assert.Equal(t, clinic.String(), got["id"])
			assert.Equal(t, "Clínica Sol", got["name"])
			assert.Equal(t, string(tt.role), got["role"])
			assert.Equal(t, tt.master, got["is_master"])
		})
	}
}

func TestAPITokenLifecycle(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	_, admin := w.addUser(clinic, authorize.ClinicRoleAdmin)
	w.addPatient(clinic, "João")
	app := newTestApp(t, w)

	res := call(t, app, fiber.MethodPost, "/api-tokens-management", admin, map[string]any{
		"name":          "n8n",
		"expiresInDays": 30.5,
	})
	require.Equal(t, fiber.StatusCreated, res.status, res.body)
	issued := data(t, res)
	token, _ := issued["token"].(string)
	require.Len(t, token, 64)
	assert.True(t, apitoken.IsAPITokenFormat(token))
	assert.NotNil(t, issued["expires_at"])
	assert.Equal(t, true, issued["is_active"])

	res = call(t, app, fiber.MethodGet, "/api-tokens-management", admin, nil)
	require.Equal(t, fiber.StatusOK, res.status, res.body)
	list, ok := res.body["data"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	row := list[0].(map[string]any)
	assert.Equal(t, "****"+codes.SHA256Hex(token)[60:], row["token_preview"])
	assert.NotContains(t, row, "token")
	assert.Equal(t, true, row["is_active"])

	t.Run("token reaches patients", func(t *testing.T) {
		res := call(t, app, fiber.MethodGet, "/patients-api", token, nil)
		require.Equal(t, fiber.StatusOK, res.status, res.body)
		assert.Len(t, res.body["data"], 1)
	})

	t.Run("token ignores the clinic header", func(t *testing.T) {
		other := w.addClinic("Outra")
		res := call(t, app, fiber.MethodGet, "/patients-api", token, nil, constants.HeaderClinicID, other.String())
		require.Equal(t, fiber.StatusOK, res.status, res.body)
		assert.Len(t, res.body["data"], 1)
	})

	t.Run("token cannot reach session routes", func(t *testing.T) {
		res := call(t, app, fiber.MethodGet, "/appointments-api", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, res.status)
		res = call(t, app, fiber.MethodPost, "/api-tokens-management", token, map[string]any{"name": "again"})
		assert.Equal(t, fiber.StatusUnauthorized, res.status)
	})

	t.Run("revoked token is rejected", func(t *testing.T) {
		res := call(t, app, fiber.MethodDelete, "/api-tokens-management/"+row["id"].(string), admin, nil)
		require.Equal(t, fiber.StatusOK, res.status, res.body)

		res = call(t, app, fiber.MethodGet, "/patients-api", token, nil)
		assert.Equal(t, fiber.StatusUnauthorized, res.status)
		assert.Equal(t, "Invalid token", res.body["error"])
	})
}

func TestReceptionistCannotIssueTokens(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	_, recep := w.addUser(clinic, authorize.ClinicRoleReceptionist)
	app := newTestApp(t, w)

	res := call(t, app, fiber.MethodPost, "/api-tokens-management", recep, map[string]any{"name": "n8n"})
	assert.Equal(t, fiber.StatusForbidden, res.status)
	assert.Equal(t, rbac.ReasonDenied, res.body["error"])
	assert.Empty(t, w.tokens)
}

func TestCreateAppointment(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	otherClinic := w.addClinic("Outra")
	_, recep := w.addUser(clinic, authorize.ClinicRoleReceptionist)
	p := w.addPatient(clinic, "Maria")
	q := w.addProfessional(clinic, "Dra. Ana")
	foreign := w.addProfessional(otherClinic, "Dr. Beto")
	app := newTestApp(t, w)

	body := func(professional uuid.UUID, start, end string) map[string]any {
		return map[string]any{
			"title":           "Consulta",
			"patient_id":      p.String(),
			"professional_id": professional.String(),
			"start_time":      start,
			"end_time":        end,
		}
	}

	res := call(t, app, fiber.MethodPost, "/appointments-api", recep,
		body(q, "2025-01-01T09:00:00Z", "2025-01-01T10:00:00Z"))
	require.Equal(t, fiber.StatusCreated, res.status, res.body)
	created := data(t, res)
	assert.Equal(t, "scheduled", created["status"])
	assert.Equal(t, "scheduled", created["attendance_status"])
	assert.Equal(t, "Maria", created["patients"].(map[string]any)["name"])
	assert.Equal(t, "Dra. Ana", created["professionals"].(map[string]any)["name"])

	res = call(t, app, fiber.MethodPost, "/appointments-api", recep,
		body(foreign, "2025-01-01T09:00:00Z", "2025-01-01T10:00:00Z"))
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, appointment.ErrForeignProfessional.Message, res.body["error"])

	res = call(t, app, fiber.MethodPost, "/appointments-api", recep,
		body(q, "2025-01-01T10:00:00Z", "2025-01-01T10:00:00Z"))
	assert.Equal(t, fiber.StatusBadRequest, res.status)
	assert.Equal(t, appointment.ErrInvalidRange.Message, res.body["error"])

	id := created["id"].(string)
	res = call(t, app, fiber.MethodPatch, "/appointments-api/"+id+"/attendance", recep,
		map[string]any{"attendance_status": "no_show"})
	require.Equal(t, fiber.StatusOK, res.status, res.body)
	assert.Equal(t, "no_show", data(t, res)["attendance_status"])

	res = call(t, app, fiber.MethodPatch, "/appointments-api/"+id+"/attendance", recep,
		map[string]any{"attendance_status": "late"})
	assert.Equal(t, fiber.StatusBadRequest, res.status)
}

func TestErrorResponses(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	other := w.addClinic("Outra")
	_, admin := w.addUser(clinic, authorize.ClinicRoleAdmin)
	_, roleless := w.addUser(clinic, "")
	app := newTestApp(t, w)

	tests := []struct {
		name    string
		method  string
		path    string
		bearer  string
		headers []string
		status  int
		message string
	}{
		{"missing credential", fiber.MethodGet, "/patients-api", "", nil, fiber.StatusUnauthorized, ""},
		{"unknown session", fiber.MethodGet, "/patients-api", "session-nope", nil, fiber.StatusUnauthorized, ""},
		{"unknown path", fiber.MethodGet, "/nope", "", nil, fiber.StatusNotFound, ""},
		{"unknown method", fiber.MethodPatch, "/patients-api/" + uuid.NewString(), admin, nil, fiber.StatusMethodNotAllowed, ""},
		{"foreign clinic header", fiber.MethodGet, "/patients-api", admin, []string{constants.HeaderClinicID, other.String()}, fiber.StatusForbidden, rbac.ReasonNotMember},
		{"bad clinic header", fiber.MethodGet, "/patients-api", admin, []string{constants.HeaderClinicID, "x"}, fiber.StatusBadRequest, ""},
		{"member without role", fiber.MethodGet, "/patients-api", roleless, nil, fiber.StatusForbidden, rbac.ReasonNoRole},
		{"bad id", fiber.MethodGet, "/patients-api/123", admin, nil, fiber.StatusBadRequest, "invalid id"},
		{"missing patient", fiber.MethodGet, "/patients-api/" + uuid.NewString(), admin, nil, fiber.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, app, tt.method, tt.path, tt.bearer, nil, tt.headers...)
			assert.Equal(t, tt.status, res.status, res.body)
			require.Contains(t, res.body, "error")
			if tt.message != "" {
				assert.Equal(t, tt.message, res.body["error"])
			}
		})
	}
}

func TestEventStreamEndsOnShutdown(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	_, receptionist := w.addUser(clinic, authorize.ClinicRoleReceptionist)
	bus := &streamBus{}
	app, r := newTestServer(t, w, bus)

	r.CloseStreams()
	r.CloseStreams()

	req := httptest.NewRequest(fiber.MethodGet, "/events", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+receptionist)
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 5 * time.Second})
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(fiber.HeaderContentType))
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "retry: 5000")

	bus.mu.Lock()
	defer bus.mu.Unlock()
	assert.Equal(t, []string{events.ClinicSubjects(clinic)}, bus.subjects)
	assert.Equal(t, 1, bus.released)
}

func TestEventStreamDisabled(t *testing.T) {
	w := newWorld()
	clinic := w.addClinic("Clínica Sol")
	_, receptionist := w.addUser(clinic, authorize.ClinicRoleReceptionist)
	app := newTestApp(t, w)

	res := call(t, app, fiber.MethodGet, "/events", receptionist, nil)
	assert.Equal(t, fiber.StatusServiceUnavailable, res.status)
}

func TestHealthProbes(t *testing.T) {
	app := newTestApp(t, newWorld())
	for _, path := range []string{"/livez", "/readyz", "/startupz"} {
		req := httptest.NewRequest(fiber.MethodGet, path, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
}
