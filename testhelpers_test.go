package oramcp_test

import (
	"os"
	"path/filepath"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	oramcp "github.com/kutsushitaneko/mcp-server-for-oracle-database"
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).Level(zerolog.Disabled)
}

func defaultConfig() oramcp.Config {
	return oramcp.Config{
		Pool: oramcp.PoolConfig{MaxConns: 5},
		Query: oramcp.QueryConfig{
			DefaultTimeoutSeconds:       30,
			ListTablesTimeoutSeconds:    10,
			DescribeTableTimeoutSeconds: 10,
			MaxSQLLength:                100000,
			MaxResultLength:             100000,
			MaxRows:                     1000,
		},
	}
}

// newMockInstance creates an OracleMcp over a sqlmock database handle.
// Tests declare expected statements and canned rows on the returned
// mock; nothing touches a real Oracle instance.
func newMockInstance(t *testing.T, config oramcp.Config, opts ...oramcp.Option) (*oramcp.OracleMcp, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	p, err := oramcp.NewWithDB(db, config, testLogger(), opts...)
	if err != nil {
		t.Fatalf("failed to create OracleMcp: %v", err)
	}
	return p, mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sqlmock expectations: %v", err)
	}
}

func hookScript(name string) string {
	return filepath.Join("testdata", "hooks", name)
}
