package shard

import (
	"database/sql"
	"hash/fnv"

	"idrepo/internal/apperror"
)

// Context is the storage partition resolved for one identifier. It is passed
// explicitly through every repository call so that all operations for a given
// identifier run against the same shard; there is no process-wide current
// shard.
type Context struct {
	Name string
	DB   *sql.DB
}

// Router maps an identifier onto one of the configured shards. Resolution is
// a pure function of the identifier, so repeated calls for the same
// identifier always land on the same shard.
type Router struct {
	shards []Context
}

// NewRouter creates a Router over the given shard contexts, in order.
func NewRouter(shards []Context) *Router {
	return &Router{shards: shards}
}

// Resolve returns the shard context for the identifier.
func (r *Router) Resolve(identifier string) (Context, error) {
	if identifier == "" {
		return Context{}, apperror.New(apperror.KindShardResolution, "identifier is empty")
	}
	if len(r.shards) == 0 {
		return Context{}, apperror.New(apperror.KindShardResolution, "no shards configured")
	}
	h := fnv.New32a()
	h.Write([]byte(identifier))
	return r.shards[h.Sum32()%uint32(len(r.shards))], nil
}
