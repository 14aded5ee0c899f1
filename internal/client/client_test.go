package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient(t *testing.T) {

	tt := []struct {
		name    string
		base    string
		path    string
		payload string
		keyID   string
		secret  string
		err     string
	}{
		{name: "happy", base: "/api", path: "manifests", payload: `{"foo":"bar"}`, keyID: "foo", secret: "bar"},
		{name: "leading_slash", base: "/api/", path: "/manifests", keyID: "foo", secret: "bar"},
		{name: "unhappy", base: "/api", path: "manifests", err: "missing credentials"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

				if r.URL.Path != "/api/manifests" {
					t.Errorf("wrong target path: %v", r.URL.Path)
				}

				ct := r.Header.Get("Content-Type")
				if tc.payload != "" && ct != "application/json" {
					t.Errorf("wrong content type: %v", ct)
				}

				if id := r.Header.Get(KeyIDHeader); id != "foo" {
					t.Errorf("wrong key id header: %v", id)
				}
				if s := r.Header.Get(KeySecretHeader); s != "bar" {
					t.Errorf("wrong key secret header: %v", s)
				}

				body, err := io.ReadAll(r.Body)
				if err != nil {
					t.Errorf("could not read request body: %v", err)
				}
				if string(body) != tc.payload {
					t.Errorf("expected %v, got %v", tc.payload, string(body))
				}

				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"m-1"}`))
			}))
			defer testSrv.Close()

			c, err := New(testSrv.URL+tc.base, tc.keyID, tc.secret, &http.Client{Timeout: 5 * time.Second})
			if err != nil {
				t.Fatalf("could not make client: %v", err)
			}

			var body []byte
			if tc.payload != "" {
				body = []byte(tc.payload)
			}

			req, err := c.NewRequest(context.Background(), http.MethodPost, tc.path, body)
			if err != nil {
				if msg := err.Error(); !strings.Contains(msg, tc.err) || tc.err == "" {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}

			var out struct {
				ID string `json:"id"`
			}
			if err := c.Do(req, &out); err != nil {
				t.Fatalf("call failed: %v", err)
			}
			if out.ID != "m-1" {
				t.Errorf("expected id m-1, got %v", out.ID)
			}
		})
	}
}

func TestDoStatus(t *testing.T) {

	testSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte("manifest is closed\n"))
	}))
	defer testSrv.Close()

	c, err := New(testSrv.URL, "foo", "bar", testSrv.Client())
	if err != nil {
		t.Fatalf("could not make client: %v", err)
	}

	err = c.Call(context.Background(), http.MethodPost, "manifests/m-1/notify", nil, nil)
	var serr *StatusError
	if !errors.As(err, &serr) {
		t.Fatalf("expected a StatusError, got %v", err)
	}
	if serr.StatusCode != http.StatusConflict {
		t.Errorf("expected status 409, got %v", serr.StatusCode)
	}
	if serr.Body != "manifest is closed" {
		t.Errorf("unexpected body: %q", serr.Body)
	}
}

func TestNew(t *testing.T) {

	if _, err := New("", "foo", "bar", http.DefaultClient); err == nil {
		t.Errorf("expected error for empty base url")
	}
	if _, err := New("://bad", "foo", "bar", http.DefaultClient); err == nil {
		t.Errorf("expected error for unparsable base url")
	}
}
