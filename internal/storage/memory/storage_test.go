package memory

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/gamehub-console/internal/model"
	"github.com/mcoot/gamehub-console/internal/storage"
	"github.com/mcoot/gamehub-console/internal/storage/storagetest"
)

func TestStorageSuite(t *testing.T) {
	suite.Run(t, &storagetest.Suite{
		New: func() storage.Storage { return New() },
	})
}

func TestGetSessionReturnsCopy(t *testing.T) {
	s := New()
	ctx := t.Context()

	err := s.SaveSession(ctx, &model.AuthSession{ID: "sess-1", User: model.User{Username: "alice"}})
	if err != nil {
		t.Fatal(err)
	}

	got, _ := s.GetSession(ctx, "sess-1")
	got.User.Username = "mallory"

	again, _ := s.GetSession(ctx, "sess-1")
	if again.User.Username != "alice" {
		t.Fatalf("stored session was mutated through a returned pointer: %q", again.User.Username)
	}
}
