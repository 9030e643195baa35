package netx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetch(t *testing.T) {
	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			w.Header().Set("Content-Type", "audio/mpeg")
			_, _ = w.Write([]byte("ID3-audio"))
		}))
		defer ts.Close()

		obj, err := Fetch(context.Background(), ts.Client(), ts.URL+"/song.mp3", 1024)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Fatalf("method = %q, want GET", gotMethod)
		}
		if string(obj.Body) != "ID3-audio" {
			t.Fatalf("body = %q", string(obj.Body))
		}
		if obj.ContentType != "audio/mpeg" {
			t.Fatalf("content type = %q", obj.ContentType)
		}
	})

	t.Run("non-200 -> error with status and body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("no such object"))
		}))
		defer ts.Close()

		_, err := Fetch(context.Background(), ts.Client(), ts.URL, 0)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "404") || !strings.Contains(err.Error(), "no such object") {
			t.Fatalf("unexpected error text: %v", err)
		}
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
		}))
		defer ts.Close()

		_, err := Fetch(context.Background(), ts.Client(), ts.URL, 16)
		if !errors.Is(err, ErrTooLarge) {
			t.Fatalf("want ErrTooLarge, got %v", err)
		}
	})

	t.Run("content type is sniffed when missing", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header()["Content-Type"] = nil
			_, _ = w.Write([]byte("\x89PNG\r\n\x1a\n0000"))
		}))
		defer ts.Close()

		obj, err := Fetch(context.Background(), ts.Client(), ts.URL, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if obj.ContentType != "image/png" {
			t.Fatalf("content type = %q, want image/png", obj.ContentType)
		}
	})

	t.Run("bad url", func(t *testing.T) {
		if _, err := Fetch(context.Background(), nil, "://bad", 0); err == nil {
			t.Fatal("expected error for malformed url")
		}
	})
}
