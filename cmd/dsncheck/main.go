// Package main provides dsncheck, a command-line probe for MongoDB ODBC
// connection strings. It exercises the same connection, catalog, and type
// machinery the driver uses, without a driver manager in the way.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"

	"github.com/meshql/mongodbc/pkg/api"
	"github.com/meshql/mongodbc/pkg/connection"
	"github.com/meshql/mongodbc/pkg/cursor"
	"github.com/meshql/mongodbc/pkg/odbc"
	"github.com/meshql/mongodbc/pkg/pattern"
	"github.com/meshql/mongodbc/pkg/types"
)

var rootCmd = &cobra.Command{
	Use:   "dsncheck",
	Short: "MongoDB ODBC connection string checker",
	Long: `Validate a MongoDB ODBC connection string and inspect what the
driver would see through it.

Example:
  dsncheck check -s "DRIVER=mongodbc;SERVER=localhost:27017;DATABASE=sales"
  dsncheck databases -s "DRIVER=mongodbc;URI={mongodb://localhost}"
  dsncheck typeinfo --simple-types`,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse the connection string, connect, and report the cluster",
	RunE:  runCheck,
}

var databasesCmd = &cobra.Command{
	Use:   "databases [pattern]",
	Short: "List the databases visible through the connection",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDatabases,
}

var tablesCmd = &cobra.Command{
	Use:   "tables [pattern]",
	Short: "List collections across the visible databases",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTables,
}

var typeinfoCmd = &cobra.Command{
	Use:   "typeinfo",
	Short: "Print the driver's SQL type catalog (no connection needed)",
	RunE:  runTypeInfo,
}

func init() {
	rootCmd.PersistentFlags().StringP("connection-string", "s", "", "ODBC connection string")
	rootCmd.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Duration("timeout", 15*time.Second, "connection and command timeout")
	typeinfoCmd.Flags().Bool("simple-types", false, "report the simplified type mapping")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	if err := viper.BindPFlags(typeinfoCmd.Flags()); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	viper.SetEnvPrefix("MONGODBC")
	viper.AutomaticEnv()

	rootCmd.AddCommand(checkCmd, databasesCmd, tablesCmd, typeinfoCmd)
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mongodbc dsncheck\nDriver Version: %s\n", api.DriverVersion)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).With().Timestamp().Logger()
}

// connect dials the cluster described by the --connection-string flag.
func connect(ctx context.Context) (*connection.Connection, error) {
	raw := viper.GetString("connection-string")
	if raw == "" {
		return nil, fmt.Errorf("a connection string is required; pass -s or set MONGODBC_CONNECTION_STRING")
	}
	cfg, err := connection.ParseConnectionString(raw)
	if err != nil {
		return nil, err
	}
	if cfg.LoginTimeout == 0 {
		cfg.LoginTimeout = viper.GetDuration("timeout")
	}
	return connection.Connect(ctx, cfg, newLogger())
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect(context.Background())

	fmt.Printf("Connection:  OK\n")
	fmt.Printf("Cluster:     %s\n", conn.Cluster)
	if conn.CurrentDB != "" {
		fmt.Printf("Database:    %s\n", conn.CurrentDB)
	} else {
		fmt.Printf("Database:    (none; SQL execution needs DATABASE=...)\n")
	}
	switch conn.Cluster {
	case connection.ClusterCommunity:
		fmt.Printf("SQL support: none (Community clusters cannot run SQL)\n")
	case connection.ClusterEnterprise:
		fmt.Printf("SQL support: client-side translation\n")
	case connection.ClusterAtlasDataFederation:
		fmt.Printf("SQL support: server-side ($sql)\n")
	}
	return nil
}

func runDatabases(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect(context.Background())

	names, err := conn.ListDatabaseNames(ctx)
	if err != nil {
		return err
	}
	match, err := compileArg(args)
	if err != nil {
		return err
	}
	return printRows(ctx, cursor.Databases(names, match), 1)
}

func runTables(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("timeout"))
	defer cancel()

	conn, err := connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Disconnect(context.Background())

	names, err := conn.ListDatabaseNames(ctx)
	if err != nil {
		return err
	}
	match, err := compileArg(args)
	if err != nil {
		return err
	}
	return printRows(ctx, cursor.NewTables(names, conn.ListCollections, match, ""), 4)
}

func runTypeInfo(cmd *cobra.Command, args []string) error {
	mode := types.ModeStandard
	if viper.GetBool("simple-types") {
		mode = types.ModeSimple
	}
	// TYPE_NAME, DATA_TYPE, COLUMN_SIZE, NULLABLE
	return printRows(context.Background(), cursor.TypeInfo(odbc.SQLUnknownType, mode), 1, 2, 3, 7)
}

func compileArg(args []string) (*pattern.Matcher, error) {
	if len(args) == 0 {
		return pattern.Compile("%")
	}
	return pattern.Compile(args[0])
}

// printRows walks a cursor and prints the selected 1-based columns,
// tab-separated.
func printRows(ctx context.Context, cur cursor.Cursor, cols ...uint16) error {
	defer cur.Close(context.Background())
	for {
		moved, warnings, err := cur.Next(ctx)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w.DiagMessage())
		}
		if !moved {
			return nil
		}
		for i, col := range cols {
			v, err := cur.Value(col)
			if err != nil {
				return err
			}
			if i > 0 {
				fmt.Print("\t")
			}
			fmt.Print(renderValue(v))
		}
		fmt.Println()
	}
}

func renderValue(v bson.RawValue) string {
	switch v.Type {
	case bsontype.String:
		return v.StringValue()
	case bsontype.Int32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case bsontype.Int64:
		return strconv.FormatInt(v.Int64(), 10)
	case bsontype.Null, bsontype.Undefined:
		return ""
	}
	return v.String()
}
