package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPClient_ListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/v1/users" {
			t.Errorf("path = %q", r.URL.Path)
		}

		users := []wireUser{
			{
				ID:                    "user_1",
				FirstName:             "Ada",
				LastName:              "Lovelace",
				ImageURL:              "https://img.example/ada.png",
				PrimaryEmailAddressID: "em_2",
				EmailAddresses: []wireEmail{
					{ID: "em_1", EmailAddress: "old@example.com"},
					{ID: "em_2", EmailAddress: "ada@example.com"},
				},
			},
			{
				ID:             "user_2",
				FirstName:      "Grace",
				EmailAddresses: []wireEmail{{ID: "em_3", EmailAddress: "grace@example.com"}},
			},
		}
		json.NewEncoder(w).Encode(users)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "sk_test")
	users, err := client.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("got %d users, want 2", len(users))
	}
	if users[0].Email != "ada@example.com" {
		t.Errorf("primary email = %q, want ada@example.com", users[0].Email)
	}
	if users[1].Email != "grace@example.com" {
		t.Errorf("fallback email = %q, want grace@example.com", users[1].Email)
	}
}

func TestHTTPClient_ListUsers_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"message":"invalid key"}]}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "sk_bad")
	if _, err := client.ListUsers(context.Background()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}
