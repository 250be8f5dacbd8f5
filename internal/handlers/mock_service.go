package handlers

import (
	"context"
	"net/http"
	"time"

	"thermostat_control/internal/models"
	"thermostat_control/internal/service"
	"thermostat_control/internal/thermostat"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockControl struct {
	applyResp    *thermostat.CommandTransition
	applyErr     error
	configureErr error

	lastSample  service.SampleParams
	lastConfig  service.ConfigParams
	applyCalls  int
	configCalls int
}

func (m *mockControl) ApplySample(ctx context.Context, p service.SampleParams) (*thermostat.CommandTransition, error) {
	m.applyCalls++
	m.lastSample = p
	return m.applyResp, m.applyErr
}
func (m *mockControl) Configure(ctx context.Context, p service.ConfigParams) error {
	m.configCalls++
	m.lastConfig = p
	return m.configureErr
}

type mockMonitoring struct {
	state models.ThermostatState
	err   error
}

func (m *mockMonitoring) GetState(ctx context.Context) (models.ThermostatState, error) {
	return m.state, m.err
}

type mockEventLog struct {
	resp     []models.TransitionEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.TransitionEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
