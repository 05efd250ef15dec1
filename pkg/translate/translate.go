// Package translate binds the mongosqltranslate shared library, which
// compiles SQL text into aggregation pipelines for clusters that have no
// server-side SQL support. Commands cross the boundary as BSON documents
// of the form {"command": <name>, "options": {...}} and come back the same
// way; a response carrying an error field is a command failure.
package translate

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/meshql/mongodbc/pkg/errors"
	"github.com/meshql/mongodbc/pkg/metadata"
)

const (
	cmdTranslate          = "translate"
	cmdGetNamespaces      = "getNamespaces"
	cmdGetVersion         = "getMongosqlTranslateVersion"
	cmdCheckDriverVersion = "checkDriverVersion"
)

// runner executes one raw command round trip: marshalled command document
// in, copied response document out. The production runner calls through
// the shared library; tests substitute their own.
type runner func(command []byte) ([]byte, error)

// Library is a loaded translation library.
type Library struct {
	run runner
}

// runCommand marshals the command envelope, executes it, and surfaces the
// library's error convention as a driver error.
func (l *Library) runCommand(name string, options interface{}) (bson.Raw, error) {
	cmd, err := bson.Marshal(bson.D{
		{Key: "command", Value: name},
		{Key: "options", Value: options},
	})
	if err != nil {
		return nil, errors.General(err)
	}

	out, err := l.run(cmd)
	if err != nil {
		return nil, errors.TranslateFailed(name, err.Error(), true)
	}

	resp := bson.Raw(out)
	if err := resp.Validate(); err != nil {
		return nil, errors.TranslateFailed(name, fmt.Sprintf("malformed response document: %v", err), true)
	}

	if msgVal, lookupErr := resp.LookupErr("error"); lookupErr == nil {
		msg, _ := msgVal.StringValueOK()
		internal := false
		if iv, err := resp.LookupErr("error_is_internal"); err == nil {
			internal, _ = iv.BooleanOK()
		}
		return nil, errors.TranslateFailed(name, msg, internal)
	}
	return resp, nil
}

// Namespace identifies one collection a query reads from.
type Namespace struct {
	Database   string `bson:"database"`
	Collection string `bson:"collection"`
}

// TranslateResult is the compiled form of a SQL statement.
type TranslateResult struct {
	TargetDB         string               `bson:"target_db"`
	TargetCollection string               `bson:"target_collection"`
	Pipeline         bson.A               `bson:"pipeline"`
	ResultSetSchema  *metadata.JSONSchema `bson:"result_set_schema"`
	SelectOrder      [][]string           `bson:"select_order"`
}

// TranslateOptions carries the translate command's inputs.
type TranslateOptions struct {
	SQL                 string `bson:"sql"`
	DB                  string `bson:"db"`
	ExcludeNamespaces   bool   `bson:"excludeNamespaces"`
	RelaxSchemaChecking bool   `bson:"relaxSchemaChecking"`
}

// Translate compiles SQL into an aggregation pipeline plus result-set
// schema.
func (l *Library) Translate(opts TranslateOptions) (*TranslateResult, error) {
	resp, err := l.runCommand(cmdTranslate, opts)
	if err != nil {
		return nil, err
	}
	var result TranslateResult
	if err := bson.Unmarshal(resp, &result); err != nil {
		return nil, errors.TranslateFailed(cmdTranslate, fmt.Sprintf("undecodable response: %v", err), true)
	}
	if result.ResultSetSchema == nil {
		return nil, errors.TranslateFailed(cmdTranslate, "response carries no result_set_schema", true)
	}
	return &result, nil
}

// GetNamespaces reports the collections a statement references, used to
// gather schema information before translation.
func (l *Library) GetNamespaces(sql, db string) ([]Namespace, error) {
	resp, err := l.runCommand(cmdGetNamespaces, bson.D{
		{Key: "sql", Value: sql},
		{Key: "db", Value: db},
	})
	if err != nil {
		return nil, err
	}
	var out struct {
		Namespaces []Namespace `bson:"namespaces"`
	}
	if err := bson.Unmarshal(resp, &out); err != nil {
		return nil, errors.TranslateFailed(cmdGetNamespaces, fmt.Sprintf("undecodable response: %v", err), true)
	}
	return out.Namespaces, nil
}

// Version reports the library's own version string.
func (l *Library) Version() (string, error) {
	resp, err := l.runCommand(cmdGetVersion, bson.D{})
	if err != nil {
		return "", err
	}
	v, lookupErr := resp.LookupErr("version")
	if lookupErr != nil {
		return "", errors.TranslateFailed(cmdGetVersion, "response carries no version", true)
	}
	s, _ := v.StringValueOK()
	return s, nil
}

// CheckDriverVersion asks the library whether it supports this driver
// version; a false answer means the pairing is unsupported and the
// connection must not proceed down the translation path.
func (l *Library) CheckDriverVersion(driverVersion string) (bool, error) {
	resp, err := l.runCommand(cmdCheckDriverVersion, bson.D{
		{Key: "odbcDriver", Value: true},
		{Key: "driverVersion", Value: driverVersion},
	})
	if err != nil {
		return false, err
	}
	v, lookupErr := resp.LookupErr("compatible")
	if lookupErr != nil {
		return false, errors.TranslateFailed(cmdCheckDriverVersion, "response carries no compatible flag", true)
	}
	ok, _ := v.BooleanOK()
	return ok, nil
}
