// Package connection manages the MongoDB client a connected handle owns:
// dialing, cluster-edition detection, catalog round trips, and the
// execution entry points the statement layer builds cursors from.
package connection

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/meshql/mongodbc/pkg/cursor"
	"github.com/meshql/mongodbc/pkg/errors"
)

// ClusterType classifies the server the driver connected to; the execution
// strategy differs per edition.
type ClusterType int

const (
	ClusterCommunity ClusterType = iota
	ClusterEnterprise
	ClusterAtlasDataFederation
)

func (c ClusterType) String() string {
	switch c {
	case ClusterEnterprise:
		return "enterprise"
	case ClusterAtlasDataFederation:
		return "atlas-data-federation"
	}
	return "community"
}

// Connection wraps a live MongoDB client together with the session state a
// connected ODBC handle carries.
type Connection struct {
	ID        uuid.UUID
	Cluster   ClusterType
	CurrentDB string

	// OperationTimeout bounds individual statement operations; zero means
	// no driver-imposed deadline.
	OperationTimeout time.Duration

	client *mongo.Client
	logger zerolog.Logger
}

// Connect dials the server described by cfg, verifies it is reachable, and
// detects the cluster edition. The context bounds the whole handshake.
func Connect(ctx context.Context, cfg *Config, logger zerolog.Logger) (*Connection, error) {
	uri, err := cfg.MongoURI()
	if err != nil {
		return nil, err
	}

	opts := options.Client().ApplyURI(uri).SetAppName("mongodbc")
	if cfg.LoginTimeout > 0 {
		opts.SetConnectTimeout(cfg.LoginTimeout)
		opts.SetServerSelectionTimeout(cfg.LoginTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.UnableToConnect(err)
	}

	id := uuid.New()
	conn := &Connection{
		ID:        id,
		CurrentDB: cfg.Database,
		client:    client,
		logger:    logger.With().Str("connection_id", id.String()).Logger(),
	}

	buildInfo, err := conn.RunCommand(ctx, "admin", bson.D{{Key: "buildInfo", Value: 1}})
	if err != nil {
		_ = client.Disconnect(context.Background())
		if mongo.IsTimeout(err) {
			return nil, errors.TimeoutExpired(err)
		}
		return nil, errors.UnableToConnect(err)
	}
	conn.Cluster = DetectClusterType(buildInfo)

	conn.logger.Info().
		Str("cluster_type", conn.Cluster.String()).
		Str("database", conn.CurrentDB).
		Msg("connection established")

	return conn, nil
}

// DetectClusterType classifies the server from its buildInfo response:
// a dataLake section means Atlas Data Federation, an enterprise module
// means Enterprise, anything else is Community.
func DetectClusterType(buildInfo bson.Raw) ClusterType {
	if _, err := buildInfo.LookupErr("dataLake"); err == nil {
		return ClusterAtlasDataFederation
	}
	if modules, err := buildInfo.LookupErr("modules"); err == nil {
		if arr, ok := modules.ArrayOK(); ok {
			values, _ := arr.Values()
			for _, v := range values {
				if s, ok := v.StringValueOK(); ok && s == "enterprise" {
					return ClusterEnterprise
				}
			}
		}
	}
	return ClusterCommunity
}

// RunCommand runs a database command and returns the raw response.
func (c *Connection) RunCommand(ctx context.Context, db string, cmd interface{}) (bson.Raw, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	var raw bson.Raw
	if err := c.client.Database(db).RunCommand(ctx, cmd).Decode(&raw); err != nil {
		return nil, wrapServerError(err)
	}
	return raw, nil
}

// Aggregate runs an aggregation pipeline against a collection; an empty
// collection name addresses the database-level aggregate used by the SQL
// stage.
func (c *Connection) Aggregate(ctx context.Context, db, coll string, pipeline interface{}) (*mongo.Cursor, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	database := c.client.Database(db)
	var cur *mongo.Cursor
	var err error
	if coll == "" {
		cur, err = database.Aggregate(ctx, pipeline)
	} else {
		cur, err = database.Collection(coll).Aggregate(ctx, pipeline)
	}
	if err != nil {
		return nil, wrapServerError(err)
	}
	return cur, nil
}

// ListDatabaseNames lists databases, omitting the internal ones ODBC
// applications have no use for.
func (c *Connection) ListDatabaseNames(ctx context.Context) ([]string, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	names, err := c.client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, wrapServerError(err)
	}
	out := names[:0]
	for _, n := range names {
		switch n {
		case "admin", "config", "local":
			continue
		}
		out = append(out, n)
	}
	return out, nil
}

// ListCollections lists one database's collections as listing specs.
func (c *Connection) ListCollections(ctx context.Context, db string) ([]cursor.CollectionSpec, error) {
	ctx, cancel := c.opContext(ctx)
	defer cancel()

	cur, err := c.client.Database(db).ListCollections(ctx, bson.D{})
	if err != nil {
		return nil, wrapServerError(err)
	}
	defer cur.Close(ctx)

	var specs []cursor.CollectionSpec
	for cur.Next(ctx) {
		var spec struct {
			Name string `bson:"name"`
			Type string `bson:"type"`
		}
		if err := cur.Decode(&spec); err != nil {
			return nil, errors.General(err)
		}
		specs = append(specs, cursor.CollectionSpec{Name: spec.Name, Type: spec.Type})
	}
	if err := cur.Err(); err != nil {
		return nil, wrapServerError(err)
	}
	return specs, nil
}

// Disconnect tears the client down.
func (c *Connection) Disconnect(ctx context.Context) error {
	c.logger.Info().Msg("disconnecting")
	if err := c.client.Disconnect(ctx); err != nil {
		return errors.General(err)
	}
	return nil
}

// Logger exposes the connection-scoped logger for the statement layer.
func (c *Connection) Logger() zerolog.Logger { return c.logger }

func (c *Connection) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.OperationTimeout > 0 {
		return context.WithTimeout(ctx, c.OperationTimeout)
	}
	return ctx, func() {}
}

func wrapServerError(err error) error {
	if mongo.IsTimeout(err) {
		return errors.TimeoutExpired(err)
	}
	var ce mongo.CommandError
	if stderrors.As(err, &ce) {
		return errors.Database(fmt.Errorf("%s", ce.Message), ce.Code)
	}
	return errors.Database(err, 0)
}
