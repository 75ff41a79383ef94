package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestValidateHTTPSRequirement(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{
			name:    "valid HTTPS URL",
			baseURL: "https://meetfinder.example.com",
			wantErr: false,
		},
		{
			name:    "valid HTTP localhost",
			baseURL: "http://localhost:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP 127.0.0.1",
			baseURL: "http://127.0.0.1:8080",
			wantErr: false,
		},
		{
			name:    "valid HTTP ::1 (IPv6 loopback)",
			baseURL: "http://[::1]:8080",
			wantErr: false,
		},
		{
			name:    "invalid HTTP non-localhost",
			baseURL: "http://meetfinder.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with localhost substring",
			baseURL: "http://localhost.example.com",
			wantErr: true,
		},
		{
			name:    "invalid HTTP with 127.0.0.1 in domain",
			baseURL: "http://127.0.0.1.example.com",
			wantErr: true,
		},
		{
			name:    "empty URL",
			baseURL: "",
			wantErr: true,
		},
		{
			name:    "invalid URL format",
			baseURL: "not a url",
			wantErr: true,
		},
		{
			name:    "invalid scheme",
			baseURL: "ftp://example.com",
			wantErr: true,
		},
		{
			name:    "HTTPS with path",
			baseURL: "https://meetfinder.example.com/api",
			wantErr: false,
		},
		{
			name:    "HTTPS with port",
			baseURL: "https://meetfinder.example.com:8443",
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateHTTPSRequirement(tt.baseURL)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateHTTPSRequirement() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResponseWriter(t *testing.T) {
	t.Run("captures status code", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)

		rw.WriteHeader(http.StatusNotFound)

		if rw.statusCode != http.StatusNotFound {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusNotFound)
		}
	})

	t.Run("defaults to 200", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)

		// Don't call WriteHeader, check default
		if rw.statusCode != http.StatusOK {
			t.Errorf("statusCode = %d, want %d", rw.statusCode, http.StatusOK)
		}
	})

	t.Run("passes write header to underlying writer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)

		rw.WriteHeader(http.StatusCreated)

		if recorder.Code != http.StatusCreated {
			t.Errorf("recorder.Code = %d, want %d", recorder.Code, http.StatusCreated)
		}
	})

	t.Run("passes flush to underlying writer", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		rw := newResponseWriter(recorder)

		rw.Flush()

		if !recorder.Flushed {
			t.Error("expected flush to reach the underlying writer")
		}
	})
}

func TestInstrumentationMiddleware(t *testing.T) {
	t.Run("calls next handler when no metrics", func(t *testing.T) {
		server := &OAuthHTTPServer{} // No metrics set
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		})

		handler := server.instrumentationMiddleware(next)
		req := httptest.NewRequest("GET", "/test", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if !called {
			t.Error("expected next handler to be called")
		}
	})
}

func TestOAuthInstrumentationWrapper(t *testing.T) {
	t.Run("calls next handler when no metrics", func(t *testing.T) {
		server := &OAuthHTTPServer{} // No metrics set
		called := false
		next := http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			called = true
		})

		handler := server.oauthInstrumentationWrapper(next)
		req := httptest.NewRequest("GET", "/oauth/token", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if !called {
			t.Error("expected next handler to be called")
		}
	})

	t.Run("preserves handler response when no metrics", func(t *testing.T) {
		server := &OAuthHTTPServer{}
		next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		handler := server.oauthInstrumentationWrapper(next)
		req := httptest.NewRequest("POST", "/oauth/token", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestNewOAuthHTTPServerWithHandler(t *testing.T) {
	srv, err := NewOAuthHTTPServerWithHandler(nil, "streamable-http", nil, true)
	if err != nil {
		t.Fatalf("NewOAuthHTTPServerWithHandler() error = %v", err)
	}
	if srv.serverType != "streamable-http" {
		t.Errorf("serverType = %q, want %q", srv.serverType, "streamable-http")
	}
	if !srv.disableStreaming {
		t.Error("disableStreaming should be true")
	}
}

func TestOAuthHTTPServer_ShutdownWithoutStart(t *testing.T) {
	srv := &OAuthHTTPServer{}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
