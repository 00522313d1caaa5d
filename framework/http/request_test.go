package http_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	gohttp "github.com/km-arc/go-beans/framework/http"
)

// ── helpers ──────────────────────────────────────────────────────────────────

func newJSONRequest(t *testing.T, body string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return gohttp.NewRequest(req)
}

func newGetRequest(t *testing.T, rawQuery string) *gohttp.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/?"+rawQuery, nil)
	return gohttp.NewRequest(req)
}

type overrides struct {
	Types []string `json:"types" validate:"omitempty,dive,required"`
	Args  []any    `json:"args"`
}

// ── Bind JSON ────────────────────────────────────────────────────────────────

func TestRequest_BindJSON(t *testing.T) {
	req := newJSONRequest(t, `{"types":["string"],"args":["test", 3]}`)

	var o overrides
	if err := req.Bind(&o); err != nil {
		t.Fatalf("Bind error: %v", err)
	}
	if len(o.Types) != 1 || o.Types[0] != "string" {
		t.Errorf("Types: got %v", o.Types)
	}
	if len(o.Args) != 2 || o.Args[0] != "test" || o.Args[1] != float64(3) {
		t.Errorf("Args: got %v", o.Args)
	}
}

func TestRequest_BindJSON_EmptyBody(t *testing.T) {
	for _, body := range []string{"", "  \n"} {
		req := newJSONRequest(t, body)

		var o overrides
		if err := req.Bind(&o); !errors.Is(err, gohttp.ErrEmptyBody) {
			t.Errorf("body %q: got %v want ErrEmptyBody", body, err)
		}
	}
}

func TestRequest_BindJSON_UnknownField(t *testing.T) {
	req := newJSONRequest(t, `{"arguments":[]}`)

	var o overrides
	if err := req.Bind(&o); err == nil {
		t.Error("expected an error for an unknown field")
	}
}

func TestRequest_BindJSON_Malformed(t *testing.T) {
	req := newJSONRequest(t, `{"types":`)

	var o overrides
	if err := req.Bind(&o); err == nil || errors.Is(err, gohttp.ErrEmptyBody) {
		t.Errorf("expected a decoding error, got %v", err)
	}
}

func TestRequest_Validate(t *testing.T) {
	req := newJSONRequest(t, `{"types":[""]}`)

	var o overrides
	if err := req.Bind(&o); err != nil {
		t.Fatal(err)
	}
	if errs := req.Validate(&o); errs.First("types[0]") == "" {
		t.Errorf("expected an error on types[0], got %+v", errs)
	}
}

// ── Input helpers ────────────────────────────────────────────────────────────

func TestRequest_Query(t *testing.T) {
	req := newGetRequest(t, "scope=singleton")

	if got := req.Query("scope"); got != "singleton" {
		t.Errorf("got %q want singleton", got)
	}
	if got := req.Query("missing", "fallback"); got != "fallback" {
		t.Errorf("got %q want fallback", got)
	}
}

func TestRequest_RouteParam(t *testing.T) {
	r := chi.NewRouter()
	var got string
	r.Get("/beans/{id}", func(w http.ResponseWriter, raw *http.Request) {
		got = gohttp.NewRequest(raw).RouteParam("id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/beans/clock", nil))
	if got != "clock" {
		t.Errorf("got %q want clock", got)
	}
}

func TestRequest_Metadata(t *testing.T) {
	raw := httptest.NewRequest(http.MethodPost, "/beans/a/instances", nil)
	raw.Header.Set("X-Trace", "abc")
	req := gohttp.NewRequest(raw)

	if req.Method() != http.MethodPost {
		t.Errorf("Method: got %q", req.Method())
	}
	if req.Path() != "/beans/a/instances" {
		t.Errorf("Path: got %q", req.Path())
	}
	if req.Header("X-Trace") != "abc" {
		t.Errorf("Header: got %q", req.Header("X-Trace"))
	}
	if req.Raw() != raw {
		t.Error("Raw() should return the wrapped request")
	}
}
