package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/test", handler)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	return env
}

func TestOK(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		OK(c, gin.H{"value": 42})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}

	env := decode(t, w)
	if !env.Success {
		t.Error("success should be true")
	}
	if env.Error != nil {
		t.Errorf("error should be null, got %q", *env.Error)
	}
	if env.Timestamp == "" {
		t.Error("timestamp should be set")
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, gin.H{"id": "abc"})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", w.Code)
	}
	if env := decode(t, w); !env.Success {
		t.Error("success should be true")
	}
}

func TestFail_AppErrorStatus(t *testing.T) {
	cases := []struct {
		name string
		err  *AppError
		want int
		msg  string
	}{
		{"validation", NewValidation("name is required"), http.StatusBadRequest, "name is required"},
		{"unauthorized", NewUnauthorized(), http.StatusUnauthorized, "Unauthorized"},
		{"forbidden", NewForbidden(), http.StatusForbidden, "Insufficient permissions"},
		{"not found", NewNotFound("Project not found"), http.StatusNotFound, "Project not found"},
		{"rate limited", NewRateLimited(), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"internal", NewInternal(), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Fail(c, tc.err)
			})

			if w.Code != tc.want {
				t.Errorf("expected status %d, got %d", tc.want, w.Code)
			}

			env := decode(t, w)
			if env.Success {
				t.Error("success should be false")
			}
			if env.Error == nil || *env.Error != tc.msg {
				t.Errorf("error = %v, expected %q", env.Error, tc.msg)
			}
		})
	}
}

func TestFail_GenericErrorIsMasked(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused on 10.0.0.5"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}

	env := decode(t, w)
	if env.Error == nil || *env.Error != "Internal server error" {
		t.Errorf("internal detail must not leak, got %v", env.Error)
	}
}

func TestAbortFail_StopsChain(t *testing.T) {
	router := gin.New()
	reached := false
	router.GET("/test", func(c *gin.Context) {
		AbortFail(c, NewForbidden())
	}, func(c *gin.Context) {
		reached = true
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected status 403, got %d", w.Code)
	}
	if reached {
		t.Error("handler after abort should not run")
	}
}
