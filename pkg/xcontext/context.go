package xcontext

import (
	"context"
	"net/http"
	"time"

	"github.com/bountyhub-lab/backend/config"
	"github.com/bountyhub-lab/backend/pkg/logger"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type (
	dbKey            struct{}
	rootDBKey        struct{}
	nestedTxKey      struct{}
	loggerKey        struct{}
	configsKey       struct{}
	requestUserIDKey struct{}
	httpRequestKey   struct{}
	startTimeKey     struct{}
	snowflakeKey     struct{}
	responseKey      struct{}
	errorKey         struct{}
)

func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

func DB(ctx context.Context) *gorm.DB {
	db, ok := ctx.Value(dbKey{}).(*gorm.DB)
	if !ok {
		return nil
	}

	return db.WithContext(ctx)
}

// WithDBTransaction begins a transaction and replaces the DB in context by it. If the context is
// already inside a transaction, the returned context joins the outer one and the commit or
// rollback of this level is a no-op.
func WithDBTransaction(ctx context.Context) context.Context {
	if ctx.Value(rootDBKey{}) != nil {
		return context.WithValue(ctx, nestedTxKey{}, true)
	}

	root := ctx.Value(dbKey{}).(*gorm.DB)
	tx := root.WithContext(ctx).Begin()
	ctx = context.WithValue(ctx, rootDBKey{}, root)
	ctx = context.WithValue(ctx, nestedTxKey{}, false)
	return WithDB(ctx, tx)
}

// WithCommitDBTransaction commits the transaction started by WithDBTransaction and returns a
// context using the original DB.
func WithCommitDBTransaction(ctx context.Context) (context.Context, error) {
	root, ok := ctx.Value(rootDBKey{}).(*gorm.DB)
	if !ok {
		return ctx, nil
	}

	if nested, _ := ctx.Value(nestedTxKey{}).(bool); nested {
		return ctx, nil
	}

	if err := DB(ctx).Commit().Error; err != nil {
		return ctx, err
	}

	ctx = context.WithValue(ctx, rootDBKey{}, nil)
	return WithDB(ctx, root), nil
}

// WithRollbackDBTransaction is safe to be deferred right after WithDBTransaction, rolling back a
// committed transaction does nothing.
func WithRollbackDBTransaction(ctx context.Context) context.Context {
	root, ok := ctx.Value(rootDBKey{}).(*gorm.DB)
	if !ok {
		return ctx
	}

	if nested, _ := ctx.Value(nestedTxKey{}).(bool); nested {
		return ctx
	}

	DB(ctx).Rollback()
	ctx = context.WithValue(ctx, rootDBKey{}, nil)
	return WithDB(ctx, root)
}

func InTransaction(ctx context.Context) bool {
	return ctx.Value(rootDBKey{}) != nil
}

func WithLogger(ctx context.Context, logger logger.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func Logger(ctx context.Context) logger.Logger {
	l, ok := ctx.Value(loggerKey{}).(logger.Logger)
	if !ok {
		return logger.NewLogger(logger.SILENCE)
	}

	return l
}

func WithConfigs(ctx context.Context, cfg config.Configs) context.Context {
	return context.WithValue(ctx, configsKey{}, cfg)
}

func Configs(ctx context.Context) config.Configs {
	cfg, ok := ctx.Value(configsKey{}).(config.Configs)
	if !ok {
		return config.Default()
	}

	return cfg
}

func WithRequestUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, requestUserIDKey{}, userID)
}

func RequestUserID(ctx context.Context) string {
	id, _ := ctx.Value(requestUserIDKey{}).(string)
	return id
}

func WithHTTPRequest(ctx context.Context, req *http.Request) context.Context {
	return context.WithValue(ctx, httpRequestKey{}, req)
}

func HTTPRequest(ctx context.Context) *http.Request {
	req, _ := ctx.Value(httpRequestKey{}).(*http.Request)
	return req
}

func WithStartTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, startTimeKey{}, t)
}

func StartTime(ctx context.Context) time.Time {
	t, _ := ctx.Value(startTimeKey{}).(time.Time)
	return t
}

func WithSnowFlake(ctx context.Context, node *snowflake.Node) context.Context {
	return context.WithValue(ctx, snowflakeKey{}, node)
}

func SnowFlake(ctx context.Context) *snowflake.Node {
	node, _ := ctx.Value(snowflakeKey{}).(*snowflake.Node)
	return node
}

func WithResponse(ctx context.Context, resp any) context.Context {
	return context.WithValue(ctx, responseKey{}, resp)
}

func GetResponse(ctx context.Context) any {
	return ctx.Value(responseKey{})
}

func WithError(ctx context.Context, err error) context.Context {
	return context.WithValue(ctx, errorKey{}, err)
}

func Error(ctx context.Context) error {
	err, _ := ctx.Value(errorKey{}).(error)
	return err
}
