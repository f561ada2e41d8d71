// Package db wires the execution core to database/sql, grounded on the
// teacher's internal/database/database.go connection-by-ID registry and
// driver-name switch (sql.Open(dbType, dsn)). The teacher used these
// drivers for scanning third-party databases for misconfiguration; here
// they back four native functions any Lucore program can call
// (db_open/db_query/db_exec/db_close), which is the only way this
// domain dependency group can get exercised from inside the VM's own
// calling convention rather than from a separate security-tooling
// package that never runs Lucore bytecode at all.
package db

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"lucore/internal/value"
)

// registry maps an opaque handle returned to Lucore code back to the
// *sql.DB it names — Lucore values only ever see the string id, never a
// raw Go pointer, matching the teacher's Connections map keyed by ID.
type registry struct {
	mu    sync.Mutex
	conns map[string]*sql.DB
	next  int
}

var global = &registry{conns: make(map[string]*sql.DB)}

func (r *registry) add(conn *sql.DB) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	id := fmt.Sprintf("db#%d", r.next)
	r.conns[id] = conn
	return id
}

func (r *registry) get(id string) (*sql.DB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, id)
}

// driverFor maps the teacher's informal type names onto the driver name
// database/sql was registered with by each blank import.
func driverFor(dbType string) (string, bool) {
	switch dbType {
	case "mysql":
		return "mysql", true
	case "postgres", "postgresql":
		return "postgres", true
	case "sqlite3":
		return "sqlite3", true
	case "sqlite":
		return "sqlite", true
	case "sqlserver", "mssql":
		return "sqlserver", true
	default:
		return "", false
	}
}

// Register installs db_open/db_query/db_exec/db_close as globals on h.
func Register(h interface{ SetGlobal(string, value.Value) }) {
	h.SetGlobal("db_open", value.NativeVal(&value.NativeFunc{Name: "db_open", Fn: dbOpen}))
	h.SetGlobal("db_query", value.NativeVal(&value.NativeFunc{Name: "db_query", Fn: dbQuery}))
	h.SetGlobal("db_exec", value.NativeVal(&value.NativeFunc{Name: "db_exec", Fn: dbExec}))
	h.SetGlobal("db_close", value.NativeVal(&value.NativeFunc{Name: "db_close", Fn: dbClose}))
}

// dbOpen(dbType, dsn) -> handle string, or raises on a bad driver name or
// a connection that fails to ping.
func dbOpen(host value.Host) (int, error) {
	dbType := host.GetValue(1).AsString()
	dsn := host.GetValue(2).AsString()

	driver, ok := driverFor(dbType)
	if !ok {
		return 0, fmt.Errorf("db_open: unsupported database type %q", dbType)
	}
	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return 0, err
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return 0, err
	}
	host.Push(value.Str(global.add(conn)))
	return 1, nil
}

// dbQuery(handle, query) -> table of row-tables, each a table of
// column-name -> value. Integers, floats, booleans and NULL keep their
// type; byte slices and strings become strings; anything else is
// stringified.
func dbQuery(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	query := host.GetValue(2).AsString()

	conn, ok := global.get(id)
	if !ok {
		return 0, fmt.Errorf("db_query: unknown handle %q", id)
	}
	rows, err := conn.Query(query)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return 0, err
	}

	result := value.NewTable(0, 0)
	idx := int64(0)
	for rows.Next() {
		raw := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return 0, err
		}
		row := value.NewTable(0, len(cols))
		for i, col := range cols {
			row.Set(value.Str(col), scanValue(raw[i]))
		}
		idx++
		result.SetInt(idx, value.TableVal(row))
	}
	host.Push(value.TableVal(result))
	return 1, nil
}

func scanValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Nil()
	case []byte:
		return value.Str(string(t))
	case string:
		return value.Str(t)
	case int64:
		return value.Int(t)
	case float64:
		return value.Float(t)
	case bool:
		return value.Bool(t)
	default:
		return value.Str(fmt.Sprint(t))
	}
}

// dbExec(handle, statement) -> rows affected as an Integer.
func dbExec(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	stmt := host.GetValue(2).AsString()

	conn, ok := global.get(id)
	if !ok {
		return 0, fmt.Errorf("db_exec: unknown handle %q", id)
	}
	res, err := conn.Exec(stmt)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	host.Push(value.Int(n))
	return 1, nil
}

// dbClose(handle) closes and forgets the connection.
func dbClose(host value.Host) (int, error) {
	id := host.GetValue(1).AsString()
	conn, ok := global.get(id)
	if !ok {
		return 0, nil
	}
	global.remove(id)
	return 0, conn.Close()
}
