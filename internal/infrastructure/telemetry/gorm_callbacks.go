package telemetry

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// queryStartKey is the context key for the query start time. Each plugin uses
// its own key so that either can be registered without the other.
type queryStartKey string

// gormOperation names one GORM callback chain and the SQL verb it issues
type gormOperation struct {
	chain string
	verb  string
}

var gormOperations = []gormOperation{
	{"create", "INSERT"},
	{"query", "SELECT"},
	{"update", "UPDATE"},
	{"delete", "DELETE"},
	{"row", ""},
	{"raw", ""},
}

// registerAroundCallbacks registers before and after hooks on every GORM
// callback chain. The before hook stamps the start time under key; after
// receives the elapsed time and the SQL verb.
func registerAroundCallbacks(db *gorm.DB, prefix string, key queryStartKey, after func(db *gorm.DB, verb string, elapsed time.Duration)) error {
	before := func(db *gorm.DB) {
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		db.Statement.Context = context.WithValue(ctx, key, time.Now())
	}

	callbacks := db.Callback()
	for _, op := range gormOperations {
		op := op
		processor := callbacks.Create()
		switch op.chain {
		case "query":
			processor = callbacks.Query()
		case "update":
			processor = callbacks.Update()
		case "delete":
			processor = callbacks.Delete()
		case "row":
			processor = callbacks.Row()
		case "raw":
			processor = callbacks.Raw()
		}
		gormName := "gorm:" + op.chain

		if err := processor.Before(gormName).Register(fmt.Sprintf("%s:before_%s", prefix, op.chain), before); err != nil {
			return err
		}
		afterFn := func(db *gorm.DB) {
			verb := op.verb
			if verb == "" {
				verb = detectOperationType(db.Statement.SQL.String())
			}
			var elapsed time.Duration
			if db.Statement.Context != nil {
				if start, ok := db.Statement.Context.Value(key).(time.Time); ok {
					elapsed = time.Since(start)
				}
			}
			after(db, verb, elapsed)
		}
		if err := processor.After(gormName).Register(fmt.Sprintf("%s:after_%s", prefix, op.chain), afterFn); err != nil {
			return err
		}
	}
	return nil
}

// detectOperationType returns the SQL verb of a raw statement
func detectOperationType(sql string) string {
	sql = strings.TrimSpace(strings.ToUpper(sql))

	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(sql, verb) {
			return verb
		}
	}
	return "OTHER"
}
