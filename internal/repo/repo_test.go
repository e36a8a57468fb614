package repo

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"checklist-api/internal/core/database"
	"checklist-api/internal/domain"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := database.NewGorm(database.Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent", Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type fixture struct {
	set  Set
	logs *observer.ObservedLogs
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return fixture{set: NewGormSet(openTestDB(t), zap.New(core)), logs: logs}
}

func (f fixture) user(t *testing.T, name string) *domain.User {
	t.Helper()
	u, err := f.set.Users.Insert(context.Background(), &domain.User{Username: name, PasswordHash: "h"})
	if err != nil {
		t.Fatalf("insert user %s: %v", name, err)
	}
	return u
}

func (f fixture) checklist(t *testing.T, owner *domain.User, members ...string) *domain.Checklist {
	t.Helper()
	c, err := f.set.Checklists.Insert(context.Background(), &domain.Checklist{
		Name:        "groceries",
		Users:       domain.UserRefs(append([]string{owner.ID}, members...)),
		IsActive:    true,
		CreatedByID: owner.ID,
	})
	if err != nil {
		t.Fatalf("insert checklist: %v", err)
	}
	return c
}

func mustNotFound(t *testing.T, err error) {
	t.Helper()
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestChecklistInsertPopulates(t *testing.T) {
	f := newFixture(t)
	u1 := f.user(t, "u1")

	before := time.Now().Add(-time.Second)
	c := f.checklist(t, u1)

	if c.ID == "" {
		t.Fatal("expected id to be assigned")
	}
	if c.Created.Before(before) || time.Since(c.Created) > time.Minute {
		t.Errorf("created not set to insert time: %v", c.Created)
	}
	if c.Items == nil || len(c.Items) != 0 {
		t.Errorf("expected items resolved to empty list, got %#v", c.Items)
	}
	if len(c.Users) != 1 || c.Users[0].Username != "u1" {
		t.Errorf("expected users populated, got %+v", c.Users)
	}
	if c.CreatedBy == nil || c.CreatedBy.ID != u1.ID {
		t.Errorf("expected createdBy populated, got %+v", c.CreatedBy)
	}
	if !c.IsActive {
		t.Error("expected isActive")
	}
}

func TestChecklistUpdateRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "u1")
	c := f.checklist(t, u1)

	inactive := false
	mod := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := f.set.Checklists.Update(ctx, c.ID, domain.ChecklistPatch{
		IsActive: &inactive, Modified: &mod, ModifiedBy: &u1.ID,
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.IsActive {
		t.Error("expected isActive == false")
	}
	if !got.Created.Equal(c.Created) {
		t.Errorf("created changed: %v -> %v", c.Created, got.Created)
	}
	if got.Name != c.Name || len(got.Users) != len(c.Users) {
		t.Errorf("untouched fields changed: %+v", got)
	}
	if got.Modified == nil || !got.Modified.Equal(mod) {
		t.Errorf("modified: %v", got.Modified)
	}
	if got.ModifiedBy == nil || got.ModifiedBy.ID != u1.ID {
		t.Errorf("modifiedBy not populated: %+v", got.ModifiedBy)
	}
}

func TestChecklistReplaceMembers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2, u3 := f.user(t, "u1"), f.user(t, "u2"), f.user(t, "u3")
	c := f.checklist(t, u1, u2.ID)

	got, err := f.set.Checklists.Update(ctx, c.ID, domain.ChecklistPatch{Users: []string{u1.ID, u3.ID, u3.ID}})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(got.Users) != 2 || got.HasMember(u2.ID) || !got.HasMember(u3.ID) {
		t.Fatalf("unexpected members: %+v", got.UserIDs())
	}
	if _, err := f.set.Checklists.FindAllByUser(ctx, u2.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("u2 should no longer see the checklist: %v", err)
	}
}

func TestChecklistFindByIDIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	c := f.checklist(t, f.user(t, "u1"))

	a, err := f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	b, err := f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID || a.Name != b.Name || a.IsActive != b.IsActive || !a.Created.Equal(b.Created) ||
		len(a.Items) != len(b.Items) || len(a.Users) != len(b.Users) {
		t.Fatalf("reads differ:\n%+v\n%+v", a, b)
	}
}

func TestMissingIDsAreNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	name := "x"

	_, err := f.set.Checklists.FindByID(ctx, "nope")
	mustNotFound(t, err)
	_, err = f.set.Checklists.Update(ctx, "nope", domain.ChecklistPatch{Name: &name})
	mustNotFound(t, err)
	_, err = f.set.Checklists.Delete(ctx, "nope")
	mustNotFound(t, err)

	_, err = f.set.Users.FindByID(ctx, "nope")
	mustNotFound(t, err)
	_, err = f.set.Users.FindByUsername(ctx, "nobody")
	mustNotFound(t, err)
	_, err = f.set.Users.Update(ctx, "nope", domain.UserPatch{Role: &name})
	mustNotFound(t, err)
	_, err = f.set.Users.Delete(ctx, "nope")
	mustNotFound(t, err)

	_, err = f.set.Items.FindByID(ctx, "nope")
	mustNotFound(t, err)
	_, err = f.set.Items.Update(ctx, "c", "nope", domain.ItemPatch{Text: &name})
	mustNotFound(t, err)
	_, err = f.set.Items.Delete(ctx, "c", "nope")
	mustNotFound(t, err)
}

func TestFindAllEmptyIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "u1")

	_, err := f.set.Checklists.FindAllByUser(ctx, u1.ID)
	mustNotFound(t, err)
	_, err = f.set.Items.FindAllByChecklist(ctx, "none")
	mustNotFound(t, err)
	_, err = f.set.Users.FindAllByChecklist(ctx, "none")
	mustNotFound(t, err)
}

func TestFindAllByUserAndChecklist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1, u2 := f.user(t, "u1"), f.user(t, "u2")
	f.checklist(t, u1)
	shared := f.checklist(t, u1, u2.ID)

	mine, err := f.set.Checklists.FindAllByUser(ctx, u1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mine) != 2 {
		t.Errorf("u1 expected 2 checklists, got %d", len(mine))
	}
	theirs, err := f.set.Checklists.FindAllByUser(ctx, u2.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(theirs) != 1 || theirs[0].ID != shared.ID {
		t.Errorf("u2 expected only the shared checklist, got %+v", theirs)
	}
	if len(theirs[0].Users) != 2 {
		t.Errorf("expected members populated in findAll, got %d", len(theirs[0].Users))
	}

	members, err := f.set.Users.FindAllByChecklist(ctx, shared.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(members) != 2 || members[0].Username != "u1" || members[1].Username != "u2" {
		t.Errorf("members: %+v", members)
	}
}

func TestItemLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "u1")
	c := f.checklist(t, u1)
	other := f.checklist(t, u1)

	it, err := f.set.Items.Insert(ctx, &domain.Item{ChecklistID: c.ID, Text: "milk", IsActive: true, CreatedByID: u1.ID})
	if err != nil {
		t.Fatalf("insert item: %v", err)
	}
	if it.ID == "" || it.Created.IsZero() || it.ChecklistID != c.ID {
		t.Fatalf("unexpected item: %+v", it)
	}

	got, err := f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Items) != 1 || got.Items[0].Text != "milk" {
		t.Fatalf("expected populated item, got %+v", got.Items)
	}

	checked := true
	if _, err := f.set.Items.Update(ctx, other.ID, it.ID, domain.ItemPatch{IsChecked: &checked}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("update via wrong checklist should be NotFound, got %v", err)
	}
	upd, err := f.set.Items.Update(ctx, c.ID, it.ID, domain.ItemPatch{IsChecked: &checked})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !upd.IsChecked || upd.Text != "milk" || !upd.Created.Equal(it.Created) {
		t.Errorf("update round trip: %+v", upd)
	}

	items, err := f.set.Items.FindAllByChecklist(ctx, c.ID)
	if err != nil || len(items) != 1 {
		t.Fatalf("findAll: %v %d", err, len(items))
	}

	if _, err := f.set.Items.Delete(ctx, other.ID, it.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("delete via wrong checklist should be NotFound, got %v", err)
	}
	prior, err := f.set.Items.Delete(ctx, c.ID, it.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if prior.ID != it.ID || !prior.IsChecked {
		t.Errorf("delete should return prior state, got %+v", prior)
	}
	_, err = f.set.Items.FindByID(ctx, it.ID)
	mustNotFound(t, err)
}

func TestItemInsertIntoMissingChecklist(t *testing.T) {
	f := newFixture(t)
	_, err := f.set.Items.Insert(context.Background(), &domain.Item{ChecklistID: "missing", Text: "x"})
	var re *domain.RepoError
	if !errors.As(err, &re) || re.Kind != domain.ErrNotFound || re.Entity != "checklist" {
		t.Fatalf("expected checklist NotFound, got %v", err)
	}
}

func TestChecklistDeleteReturnsPriorAndRemovesItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u1 := f.user(t, "u1")
	c := f.checklist(t, u1)
	it, err := f.set.Items.Insert(ctx, &domain.Item{ChecklistID: c.ID, Text: "eggs", CreatedByID: u1.ID})
	if err != nil {
		t.Fatal(err)
	}

	prior, err := f.set.Checklists.Delete(ctx, c.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if prior.ID != c.ID || len(prior.Items) != 1 || len(prior.Users) != 1 {
		t.Errorf("expected populated prior state, got %+v", prior)
	}

	_, err = f.set.Checklists.FindByID(ctx, c.ID)
	mustNotFound(t, err)
	_, err = f.set.Items.FindByID(ctx, it.ID)
	mustNotFound(t, err)
	_, err = f.set.Users.FindAllByChecklist(ctx, c.ID)
	mustNotFound(t, err)
}

func TestUserLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	if u.Role != domain.RoleUser || u.CreatedAt.IsZero() {
		t.Errorf("defaults not applied: %+v", u)
	}

	byName, err := f.set.Users.FindByUsername(ctx, "alice")
	if err != nil || byName.ID != u.ID {
		t.Fatalf("find by username: %v %+v", err, byName)
	}

	admin := domain.RoleAdmin
	upd, err := f.set.Users.Update(ctx, u.ID, domain.UserPatch{Role: &admin})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Role != domain.RoleAdmin || upd.Username != "alice" || upd.PasswordHash != "h" {
		t.Errorf("update round trip: %+v", upd)
	}

	if _, err := f.set.Users.Delete(ctx, u.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, err = f.set.Users.FindByID(ctx, u.ID)
	mustNotFound(t, err)
}

func TestDuplicateUsernameIsPersistenceError(t *testing.T) {
	f := newFixture(t)
	f.user(t, "alice")
	_, err := f.set.Users.Insert(context.Background(), &domain.User{Username: "alice", PasswordHash: "h"})
	if !errors.Is(err, domain.ErrPersistence) || !errors.Is(err, domain.ErrDuplicate) {
		t.Fatalf("expected duplicate persistence error, got %v", err)
	}
	var re *domain.RepoError
	if !errors.As(err, &re) || re.Entity != "user" || re.Op != "insert" {
		t.Errorf("expected RepoError context, got %#v", err)
	}
}

func TestInsertUnobservableIsNotFoundAfterWrite(t *testing.T) {
	db := openTestDB(t)
	c := newCrud[domain.User](db, nil, "user")
	_, err := c.insert(context.Background(), "ghost", func(*gorm.DB) error { return nil })
	if !errors.Is(err, domain.ErrNotFoundAfterWrite) {
		t.Fatalf("expected ErrNotFoundAfterWrite, got %v", err)
	}
}

func TestOperationsAreLogged(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	u := f.user(t, "alice")
	_, _ = f.set.Users.FindByID(ctx, "missing")

	infos := f.logs.FilterMessage("user insert ok").FilterField(zap.String("id", u.ID))
	if infos.Len() != 1 {
		t.Errorf("expected info log for insert, got %+v", f.logs.All())
	}
	errs := f.logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("user findById failed")
	if errs.Len() != 1 {
		t.Fatalf("expected error log for missing id, got %+v", f.logs.All())
	}
	if _, ok := errs.All()[0].ContextMap()["error"]; !ok {
		t.Error("error log should carry the cause")
	}
}

func TestFailedRollbackIsLogged(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	o := oplog{log: zap.New(core), entity: "item"}

	o.compensate("insert", "i1", func() error { return nil })
	if logs.Len() != 0 {
		t.Fatalf("successful rollback should stay quiet: %+v", logs.All())
	}

	o.compensate("insert", "i1", func() error { return errors.New("connection reset") }, zap.String("checklist", "c1"))
	got := logs.FilterLevelExact(zapcore.ErrorLevel).FilterMessage("item insert rollback failed").All()
	if len(got) != 1 {
		t.Fatalf("expected one rollback error log, got %+v", logs.All())
	}
	fields := got[0].ContextMap()
	if fields["id"] != "i1" || fields["checklist"] != "c1" || fields["error"] != "connection reset" {
		t.Errorf("fields: %v", fields)
	}
}

func TestDeletingChecklistCreatorIsRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice, bob := f.user(t, "alice"), f.user(t, "bob")
	c := f.checklist(t, alice, bob.ID)

	_, err := f.set.Users.Delete(ctx, alice.ID)
	if !errors.Is(err, domain.ErrPersistence) {
		t.Fatalf("expected foreign key failure, got %v", err)
	}
	got, err := f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.HasMember(alice.ID) || got.CreatedBy == nil || got.CreatedBy.ID != alice.ID {
		t.Errorf("failed delete should leave membership and creator intact: %+v", got)
	}

	if _, err := f.set.Users.Delete(ctx, bob.ID); err != nil {
		t.Fatalf("plain member can be deleted: %v", err)
	}
	got, err = f.set.Checklists.FindByID(ctx, c.ID)
	if err != nil || got.HasMember(bob.ID) {
		t.Errorf("membership should be removed with the user: %v %+v", err, got)
	}
}
