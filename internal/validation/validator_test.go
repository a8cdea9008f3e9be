package validation

import (
	"errors"
	"testing"
)

type credentialsPayload struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type watchlistPayload struct {
	MovieID    string  `json:"movie_id" validate:"required"`
	MovieTitle string  `json:"movie_title" validate:"required"`
	Poster     *string `json:"movie_poster,omitempty" validate:"omitempty,url"`
}

func TestStructValid(t *testing.T) {
	if err := Struct(credentialsPayload{Username: "alice", Password: "password1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestStructReportsJSONFieldNames(t *testing.T) {
	err := Struct(watchlistPayload{MovieTitle: "Heat"})

	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("expected *Error got %T", err)
	}
	if !verr.Has("movie_id", "required") {
		t.Fatalf("expected movie_id required failure, got %v", verr.Fields)
	}
	if verr.Has("movie_title", "required") {
		t.Fatal("movie_title was supplied")
	}
}

func TestStructOptionalURL(t *testing.T) {
	bad := "not a url"
	err := Struct(watchlistPayload{MovieID: "1", MovieTitle: "Heat", Poster: &bad})

	var verr *Error
	if !errors.As(err, &verr) || !verr.Has("movie_poster", "url") {
		t.Fatalf("expected url failure got %v", err)
	}

	good := "https://image.tmdb.org/t/p/w500/heat.jpg"
	if err := Struct(watchlistPayload{MovieID: "1", MovieTitle: "Heat", Poster: &good}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidatorIsShared(t *testing.T) {
	if Validator() != Validator() {
		t.Fatal("expected a single validator instance")
	}
}
