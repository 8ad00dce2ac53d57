/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/tomoncle/baserepo/config"
	"github.com/tomoncle/baserepo/database"
	"github.com/tomoncle/baserepo/middleware"
	"github.com/tomoncle/baserepo/modules/users"
)

type fixedHealth struct{ healthy bool }

func (h fixedHealth) GetHealthStatus(context.Context) *database.HealthStatus {
	status := &database.HealthStatus{Healthy: h.healthy, Connected: h.healthy}
	if !h.healthy {
		status.LastError = "connection refused"
	}
	return status
}

func newTestApp(t *testing.T, health HealthChecker, rateLimit int) *App {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.NewCreateTable().Model((*users.User)(nil)).Exec(context.Background())
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Server.RateLimit = rateLimit
	return New(cfg, db, health)
}

func get(t *testing.T, a *App, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := a.Fiber.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealth(t *testing.T) {
	resp, body := get(t, newTestApp(t, fixedHealth{healthy: true}, 0), "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderXRequestID))

	resp, body = get(t, newTestApp(t, fixedHealth{healthy: false}, 0), "/health")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "connection refused")
}

func TestUsersMountedUnderAPI(t *testing.T) {
	resp, body := get(t, newTestApp(t, nil, 0), "/api/users")
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"total":0`)
}

func TestRequestIDIsEchoed(t *testing.T) {
	a := newTestApp(t, nil, 0)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(fiber.HeaderXRequestID, "req-42")
	resp, err := a.Fiber.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-42", resp.Header.Get(fiber.HeaderXRequestID))
}

func TestPanicsBecomeServerErrors(t *testing.T) {
	a := newTestApp(t, nil, 0)
	a.Fiber.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })

	resp, body := get(t, a, "/boom")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var errResp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, "internal server error", errResp.Message)
}

func TestRateLimit(t *testing.T) {
	a := newTestApp(t, nil, 2)
	for i := 0; i < 2; i++ {
		resp, _ := get(t, a, "/health")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	resp, _ := get(t, a, "/health")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	resp, body := get(t, newTestApp(t, nil, 0), "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var errResp middleware.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &errResp))
	assert.Equal(t, http.StatusNotFound, errResp.Code)
}
