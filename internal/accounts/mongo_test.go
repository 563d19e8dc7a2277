package accounts

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/hyperjump/buscador/internal/models"
)

func accountDoc(user, pass, role string, perms bson.D) bson.D {
	return bson.D{
		{Key: "usuario", Value: user},
		{Key: "password", Value: pass},
		{Key: "rol", Value: role},
		{Key: "permisos", Value: perms},
	}
}

func TestMongoRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ns := "proyecto_bigData.usuario_roles"
	ctx := context.Background()

	mt.Run("find", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			accountDoc("ana", "pw", "Admin", bson.D{{Key: "login", Value: true}, {Key: "admin_usuarios", Value: true}})))
		acc, err := repo.Find(ctx, "ana")
		if err != nil {
			mt.Fatal(err)
		}
		if acc.Username != "ana" || acc.Password != "pw" || acc.Role != "Admin" {
			mt.Errorf("got %+v", acc)
		}
		if !acc.Permissions.Has(models.PermAdminUsers) {
			mt.Errorf("permissions not decoded: %v", acc.Permissions)
		}
	})

	mt.Run("find missing", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))
		_, err := repo.Find(ctx, "ghost")
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("list", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "usuario", Value: "ana"}, {Key: "rol", Value: "Admin"}},
			bson.D{{Key: "usuario", Value: "bo"}},
		))
		accs, err := repo.List(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		if len(accs) != 2 || accs[0].Username != "ana" || accs[1].Username != "bo" {
			mt.Errorf("got %+v", accs)
		}
	})

	mt.Run("insert duplicate", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		err := repo.Insert(ctx, models.Account{Username: "ana", Password: "pw"})
		if !errors.Is(err, models.ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("replace missing", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: int32(0)},
			bson.E{Key: "nModified", Value: int32(0)},
		))
		err := repo.Replace(ctx, "ghost", models.Account{Username: "ghost"})
		if !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}),
		)
		if err := repo.Delete(ctx, "ana"); err != nil {
			mt.Fatal(err)
		}
		if err := repo.Delete(ctx, "ana"); !errors.Is(err, models.ErrNotFound) {
			mt.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("count", func(mt *mtest.T) {
		repo := NewMongoRepositoryFromCollection(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			bson.D{{Key: "n", Value: int32(3)}}))
		n, err := repo.Count(ctx)
		if err != nil {
			mt.Fatal(err)
		}
		if n != 3 {
			mt.Errorf("count = %d, want 3", n)
		}
	})

	mt.Run("service create conflict", func(mt *mtest.T) {
		svc := NewService(NewMongoRepositoryFromCollection(mt.Coll))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			accountDoc("ana", "pw", "", bson.D{})))
		_, err := svc.CreateAccount(ctx, models.AccountInput{Username: "ana", Password: "x"})
		if !errors.Is(err, models.ErrConflict) {
			mt.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	mt.Run("service validate", func(mt *mtest.T) {
		svc := NewService(NewMongoRepositoryFromCollection(mt.Coll))
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
			accountDoc("ana", "pw", "", bson.D{{Key: "login", Value: true}})))
		acc, err := svc.ValidateCredentials(ctx, "ana", "pw")
		if err != nil {
			mt.Fatal(err)
		}
		if acc == nil || acc.Role != models.DefaultRole {
			mt.Errorf("got %+v", acc)
		}
	})
}
