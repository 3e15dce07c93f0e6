package common

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/bountyhub-lab/backend/pkg/errorx"
	"github.com/bountyhub-lab/backend/pkg/xcontext"
)

// Level derives a talent level from accumulated xp. Every level costs xpPerLevel xp and the first
// level is 1.
func Level(xp, xpPerLevel int64) int {
	if xpPerLevel <= 0 || xp < 0 {
		return 1
	}

	return int(xp/xpPerLevel) + 1
}

// Paginate clamps offset and limit by the api server configs.
func Paginate(ctx context.Context, offset, limit int) (int, int, error) {
	apiCfg := xcontext.Configs(ctx).ApiServer
	if offset < 0 {
		return 0, 0, errorx.New(errorx.BadRequest, "Offset must not be negative")
	}

	if limit == 0 {
		limit = apiCfg.DefaultLimit
	}

	if limit < 0 {
		return 0, 0, errorx.New(errorx.BadRequest, "Limit must be positive")
	}

	if limit > apiCfg.MaxLimit {
		return 0, 0, errorx.New(errorx.BadRequest, "Exceed the maximum of limit (%d)", apiCfg.MaxLimit)
	}

	return offset, limit, nil
}

func IsValidURL(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("empty url")
	}

	u, err := url.ParseRequestURI(s)
	if err != nil {
		return err
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("url must use http or https scheme")
	}

	if u.Host == "" {
		return errors.New("url must contain a host")
	}

	return nil
}
