package database

import (
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestNormalizeMySQLDSN(t *testing.T) {
	cases := []struct {
		name, in, user, pass, want string
	}{
		{"empty", "", "", "", ""},
		{"native dsn untouched", "u:p@tcp(db:3306)/app?parseTime=true", "x", "y", "u:p@tcp(db:3306)/app?parseTime=true"},
		{"url form", "mysql://u:p@db:3306/app", "", "", "u:p@tcp(db:3306)/app?charset=utf8mb4&parseTime=true"},
		{"jdbc with overrides", "jdbc:mysql://db:3306/app?useSSL=false", "root", "pw", "root:pw@tcp(db:3306)/app?charset=utf8mb4&parseTime=true&tls=false"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := normalizeMySQLDSN(tc.in, tc.user, tc.pass); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNewGormUnsupportedDriver(t *testing.T) {
	if _, err := NewGorm(Opts{Driver: "oracle"}); err != ErrUnsupportedDriver {
		t.Fatalf("expected ErrUnsupportedDriver, got %v", err)
	}
}

func TestNewGormSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "app.db")
	db, err := NewGorm(Opts{Driver: "sqlite", DSN: dsn, LogLevel: "silent", Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("NewGorm: %v", err)
	}
	var one int
	if err := db.Raw("SELECT 1").Scan(&one).Error; err != nil {
		t.Fatalf("select: %v", err)
	}
	if one != 1 {
		t.Errorf("expected 1, got %d", one)
	}

	var fk int
	if err := db.Raw("PRAGMA foreign_keys").Scan(&fk).Error; err != nil {
		t.Fatalf("pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("foreign keys should be enforced, got %d", fk)
	}
}

func TestSQLiteDSNEnablesForeignKeys(t *testing.T) {
	cases := map[string]string{
		"app.db":                         "app.db?_pragma=foreign_keys(1)",
		"app.db?_pragma=busy_timeout(5)": "app.db?_pragma=busy_timeout(5)&_pragma=foreign_keys(1)",
		"app.db?_pragma=foreign_keys(0)": "app.db?_pragma=foreign_keys(0)",
	}
	for in, want := range cases {
		if got := sqliteDSN(in); got != want {
			t.Errorf("sqliteDSN(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNewMongoRequiresURI(t *testing.T) {
	if _, _, err := NewMongo(t.Context(), MongoOpts{}); err == nil {
		t.Fatal("expected error for empty options")
	}
}
