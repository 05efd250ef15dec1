package connection

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meshql/mongodbc/pkg/errors"
)

// Config is the parsed form of an ODBC connection string. Keys are
// case-insensitive; values may be brace-delimited to carry semicolons or
// equals signs, with }} escaping a literal closing brace.
type Config struct {
	Driver   string
	DSN      string
	User     string
	Password string
	Server   string
	Database string
	URI      string

	LoginTimeout time.Duration
	SimpleTypes  bool
	LogLevel     string

	// Extra holds recognized-but-unmapped attributes so diagnostics can
	// echo what the application sent.
	Extra map[string]string
}

// canonical key aliases.
var keyAliases = map[string]string{
	"USER":     "UID",
	"PASSWORD": "PWD",
}

// ParseConnectionString splits a semicolon-separated attribute list into a
// Config. The string must name either a DRIVER or a DSN.
func ParseConnectionString(s string) (*Config, error) {
	attrs, err := splitAttributes(s)
	if err != nil {
		return nil, err
	}

	cfg := &Config{Extra: map[string]string{}}
	for key, value := range attrs {
		switch key {
		case "DRIVER":
			cfg.Driver = value
		case "DSN":
			cfg.DSN = value
		case "UID":
			cfg.User = value
		case "PWD":
			cfg.Password = value
		case "SERVER":
			cfg.Server = value
		case "DATABASE":
			cfg.Database = value
		case "URI":
			cfg.URI = value
		case "LOGLEVEL":
			cfg.LogLevel = value
		case "SIMPLE_TYPES":
			cfg.SimpleTypes = isTruthy(value)
		case "LOGIN_TIMEOUT":
			secs, err := strconv.Atoi(value)
			if err != nil || secs < 0 {
				return nil, errors.InvalidAttrValue("LOGIN_TIMEOUT")
			}
			cfg.LoginTimeout = time.Duration(secs) * time.Second
		default:
			cfg.Extra[key] = value
		}
	}

	if cfg.Driver == "" && cfg.DSN == "" {
		return nil, errors.MissingDriverOrDSN()
	}
	return cfg, nil
}

func isTruthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}

// splitAttributes walks the string manually; values enclosed in braces may
// contain separators and escape a closing brace by doubling it.
func splitAttributes(s string) (map[string]string, error) {
	attrs := map[string]string{}
	i := 0
	n := len(s)
	for i < n {
		// Skip separators and whitespace between attributes.
		for i < n && (s[i] == ';' || s[i] == ' ') {
			i++
		}
		if i >= n {
			break
		}

		eq := strings.IndexByte(s[i:], '=')
		if eq < 0 {
			return nil, errors.General(fmt.Errorf("connection string attribute %q has no value", s[i:]))
		}
		key := strings.ToUpper(strings.TrimSpace(s[i : i+eq]))
		if alias, ok := keyAliases[key]; ok {
			key = alias
		}
		i += eq + 1

		var value string
		if i < n && s[i] == '{' {
			i++
			var sb strings.Builder
			closed := false
			for i < n {
				if s[i] == '}' {
					if i+1 < n && s[i+1] == '}' {
						sb.WriteByte('}')
						i += 2
						continue
					}
					i++
					closed = true
					break
				}
				sb.WriteByte(s[i])
				i++
			}
			if !closed {
				return nil, errors.General(fmt.Errorf("unterminated brace-delimited value for %s", key))
			}
			value = sb.String()
		} else {
			end := strings.IndexByte(s[i:], ';')
			if end < 0 {
				value = s[i:]
				i = n
			} else {
				value = s[i : i+end]
				i += end + 1
			}
		}
		attrs[key] = value
	}
	return attrs, nil
}

// MongoURI assembles the MongoDB connection URI from the parsed attributes.
// An explicit URI attribute wins, with user, password, and login timeout
// merged in when the URI itself does not carry them.
func (c *Config) MongoURI() (string, error) {
	var base *url.URL
	var err error

	switch {
	case c.URI != "":
		base, err = url.Parse(c.URI)
		if err != nil {
			return "", errors.UnableToConnect(fmt.Errorf("invalid URI attribute: %w", err))
		}
		if base.Scheme != "mongodb" && base.Scheme != "mongodb+srv" {
			return "", errors.UnableToConnect(fmt.Errorf("URI scheme %q is not a MongoDB scheme", base.Scheme))
		}
	case c.Server != "":
		base = &url.URL{Scheme: "mongodb", Host: c.Server}
	default:
		return "", errors.UnableToConnect(fmt.Errorf("connection string carries neither URI nor SERVER"))
	}

	if base.User == nil && c.User != "" {
		base.User = url.UserPassword(c.User, c.Password)
	}

	q := base.Query()
	if c.LoginTimeout > 0 && q.Get("connectTimeoutMS") == "" {
		q.Set("connectTimeoutMS", strconv.FormatInt(c.LoginTimeout.Milliseconds(), 10))
	}
	base.RawQuery = q.Encode()

	return base.String(), nil
}
