package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"github.com/thereayou/presence-relay/internal/config"
)

func TestNewServer_WithoutArchive(t *testing.T) {
	req := require.New(t)
	cfg := config.Config{
		Port:              "0",
		MaxStoredMessages: 10,
		MaxMessageLength:  100,
		SendBufferSize:    8,
		ArchiveDriver:     config.ArchiveNone,
	}

	srv, err := NewServer(t.Context(), cfg, logs.GetLoggerFromLevel(slog.LevelDebug))
	req.NoError(err)
	req.Nil(srv.Archiver)
	req.Nil(srv.Redis)
	req.Nil(srv.DB)

	for _, path := range []string{"/health", "/api/v1/messages", "/api/v1/users", "/api/v1/rooms"} {
		w := httptest.NewRecorder()
		srv.Router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		req.Equal(http.StatusOK, w.Code, path)
	}

	req.NoError(srv.Shutdown(t.Context()))
}
