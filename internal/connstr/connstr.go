// Package connstr parses postgres:// connection strings into structured
// fields and serializes stored fields back into a connection string.
package connstr

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// DefaultPort is assumed when the URL carries no explicit port.
const DefaultPort = 5432

// ErrInvalid is wrapped by every parse failure so callers can classify
// with errors.Is.
var ErrInvalid = errors.New("invalid connection string")

// ConnInfo is the structured form of a Postgres connection string.
type ConnInfo struct {
	Host     string
	Port     int
	Database string
	Username string
	Password string
}

// Parse validates raw and extracts its components.  It fails when the
// input is not a well-formed URL, the scheme is not postgres/postgresql,
// or username, password, host or database path segment is empty.
func Parse(raw string) (ConnInfo, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ConnInfo{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return ConnInfo{}, fmt.Errorf("%w: scheme must be postgres:// or postgresql://", ErrInvalid)
	}

	info := ConnInfo{
		Host:     u.Hostname(),
		Port:     DefaultPort,
		Database: strings.TrimPrefix(u.Path, "/"),
	}
	if u.User != nil {
		info.Username = u.User.Username()
		info.Password, _ = u.User.Password()
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 || n > 65535 {
			return ConnInfo{}, fmt.Errorf("%w: invalid port %q", ErrInvalid, p)
		}
		info.Port = n
	}

	if info.Username == "" || info.Password == "" || info.Host == "" || info.Database == "" {
		return ConnInfo{}, fmt.Errorf("%w: must contain username, password, host and database", ErrInvalid)
	}
	return info, nil
}

// String serializes the info back into a postgres:// URL, URL-encoding
// the username and password.  Serialize(Parse(s)) denotes the same
// logical connection for any valid s, modulo default-port normalization.
// JoinHostPort re-brackets IPv6 literals, which Hostname() strips.
func (ci ConnInfo) String() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(ci.Username, ci.Password),
		Host:   net.JoinHostPort(ci.Host, strconv.Itoa(ci.Port)),
		Path:   "/" + ci.Database,
	}
	return u.String()
}
