package api

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/meshql/mongodbc/pkg/connection"
	"github.com/meshql/mongodbc/pkg/cursor"
	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/handles"
	"github.com/meshql/mongodbc/pkg/metadata"
	"github.com/meshql/mongodbc/pkg/translate"
	"github.com/meshql/mongodbc/pkg/types"
)

// loadTranslateLibrary is swapped out by tests; production resolves the
// shared library through the loader.
var loadTranslateLibrary = translate.Load

// buildQueryCursor compiles and runs sql, returning the cursor over its
// results. Atlas Data Federation clusters run SQL server-side through the
// $sql aggregation stage; Enterprise clusters translate client-side
// through the shared library; Community clusters have neither path.
func (d *Driver) buildQueryCursor(ctx context.Context, conn *handles.Conn, sql string) (cursor.Cursor, error) {
	conn.Mu.RLock()
	mongoConn := conn.Mongo
	mode := conn.TypeMode
	conn.Mu.RUnlock()

	if mongoConn == nil {
		return nil, errors.ConnectionNotOpen()
	}
	db := mongoConn.CurrentDB
	if db == "" {
		return nil, errors.General(fmt.Errorf("no current database; set DATABASE in the connection string or SQL_ATTR_CURRENT_CATALOG"))
	}

	switch mongoConn.Cluster {
	case connection.ClusterAtlasDataFederation:
		return d.runFederatedQuery(ctx, mongoConn, db, sql, mode)
	case connection.ClusterEnterprise:
		return d.runTranslatedQuery(ctx, mongoConn, db, sql, mode)
	}
	return nil, errors.UnsupportedCluster("SQL queries require Atlas Data Federation or an Enterprise cluster")
}

// runFederatedQuery asks the cluster for the statement's result schema,
// then streams the statement through the $sql stage.
func (d *Driver) runFederatedQuery(ctx context.Context, mongoConn *connection.Connection, db, sql string, mode types.Mode) (cursor.Cursor, error) {
	schemaResp, err := mongoConn.RunCommand(ctx, db, bson.D{
		{Key: "sqlGetResultSchema", Value: 1},
		{Key: "query", Value: sql},
		{Key: "schemaVersion", Value: 1},
	})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Schema struct {
			JSONSchema *metadata.JSONSchema `bson:"jsonSchema"`
		} `bson:"schema"`
	}
	if err := bson.Unmarshal(schemaResp, &parsed); err != nil {
		return nil, errors.General(fmt.Errorf("undecodable result schema: %w", err))
	}
	if parsed.Schema.JSONSchema == nil {
		return nil, errors.General(fmt.Errorf("result schema response carries no jsonSchema"))
	}

	cols, err := metadata.ResultColumns(db, parsed.Schema.JSONSchema, mode)
	if err != nil {
		return nil, err
	}

	pipeline := bson.A{bson.D{{Key: "$sql", Value: bson.D{
		{Key: "statement", Value: sql},
		{Key: "format", Value: "odbc"},
		{Key: "formatVersion", Value: 1},
		{Key: "dialect", Value: "mongosql"},
	}}}}
	cur, err := mongoConn.Aggregate(ctx, db, "", pipeline)
	if err != nil {
		return nil, err
	}
	return cursor.NewQuery(cols, &cursor.MongoSource{C: cur}), nil
}

// runTranslatedQuery compiles sql with the translation library and runs
// the produced pipeline against the target namespace.
func (d *Driver) runTranslatedQuery(ctx context.Context, mongoConn *connection.Connection, db, sql string, mode types.Mode) (cursor.Cursor, error) {
	lib, err := loadTranslateLibrary()
	if err != nil {
		return nil, err
	}

	compatible, err := lib.CheckDriverVersion(DriverVersion)
	if err != nil {
		return nil, err
	}
	if !compatible {
		return nil, errors.UnsupportedCluster("translation library does not support this driver version")
	}

	result, err := lib.Translate(translate.TranslateOptions{SQL: sql, DB: db})
	if err != nil {
		return nil, err
	}

	cols, err := metadata.ResultColumns(db, result.ResultSetSchema, mode)
	if err != nil {
		return nil, err
	}

	cur, err := mongoConn.Aggregate(ctx, result.TargetDB, result.TargetCollection, result.Pipeline)
	if err != nil {
		return nil, err
	}
	return cursor.NewQuery(cols, &cursor.MongoSource{C: cur}), nil
}
