package ledger

import (
	"strings"
	"testing"
)

func TestSchemasDeclareEveryRecordColumn(t *testing.T) {
	columns := strings.Split(recordColumns, ", ")
	for name, schema := range map[string]string{"sqlite": sqliteSchema, "mysql": mysqlSchema} {
		stmts := splitStatements(schema)
		var jobs string
		for _, stmt := range stmts {
			if strings.Contains(stmt, "TABLE IF NOT EXISTS jobs") {
				jobs = stmt
			}
		}
		if jobs == "" {
			t.Fatalf("%s schema has no jobs table in %d statements", name, len(stmts))
		}
		for _, col := range columns {
			if !strings.Contains(jobs, "\n    "+col+" ") {
				t.Errorf("%s jobs table is missing column %q", name, col)
			}
		}
		if !strings.Contains(schema, "schema_version") {
			t.Errorf("%s schema has no schema_version table", name)
		}
	}
}

func TestTableExistsQueryPerDialect(t *testing.T) {
	mysql := (&Store{dialect: dialectMySQL}).tableExistsQuery()
	if !strings.Contains(mysql, "information_schema.tables") || !strings.Contains(mysql, "DATABASE()") {
		t.Fatalf("unexpected mysql query %q", mysql)
	}
	sqlite := (&Store{dialect: dialectSQLite}).tableExistsQuery()
	if !strings.Contains(sqlite, "sqlite_master") {
		t.Fatalf("unexpected sqlite query %q", sqlite)
	}
}

func TestSQLiteDSNCarriesPragmas(t *testing.T) {
	dsn := sqliteDSN("/var/lib/shothook/jobs.db")
	for _, want := range []string{"file:/var/lib/shothook/jobs.db?", "_pragma=busy_timeout(5000)", "_pragma=journal_mode(WAL)"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestSplitStatementsDropsBlanks(t *testing.T) {
	got := splitStatements("CREATE TABLE a (x INT);\n\n ;CREATE TABLE b (y INT);\n")
	if len(got) != 2 || got[0] != "CREATE TABLE a (x INT)" || got[1] != "CREATE TABLE b (y INT)" {
		t.Fatalf("unexpected statements %q", got)
	}
}
