package utils

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	apperrors "pem-system/pkg/errors"
	"pem-system/pkg/types"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseFilterFromQuery разбирает search, sort[..], filter[..], limit, page, offset.
func ParseFilterFromQuery(values url.Values) types.Filter {
	filterReq := types.Filter{
		Sort:   make(map[string]string),
		Filter: make(map[string]interface{}),
		Limit:  DefaultLimit,
		Page:   1,
	}

	if limitStr := values.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				filterReq.Limit = MaxLimit
			} else {
				filterReq.Limit = l
			}
		}
	}

	if pageStr := values.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			filterReq.Page = p
		}
	}

	if offsetStr := values.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filterReq.Offset = o
		}
	} else {
		filterReq.Offset = (filterReq.Page - 1) * filterReq.Limit
	}

	filterReq.WithPagination = values.Get("withPagination") != "false"

	for key, vals := range values {
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		switch {
		case strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]"):
			filterReq.Filter[key[7:len(key)-1]] = vals[0]
		case strings.HasPrefix(key, "sort[") && strings.HasSuffix(key, "]"):
			direction := strings.ToLower(vals[0])
			if direction != "asc" {
				direction = "desc"
			}
			filterReq.Sort[key[5:len(key)-1]] = direction
		}
	}

	// короткие формы ?status=shipped&search=...
	if status := values.Get("status"); status != "" {
		filterReq.Filter["status"] = status
	}
	filterReq.Search = strings.TrimSpace(values.Get("search"))

	return filterReq
}

func ParseIDParam(ctx echo.Context, name string) (uint64, error) {
	raw := ctx.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.NewHttpError(http.StatusBadRequest, "ID inválido", apperrors.ErrBadRequest, map[string]interface{}{"param": raw})
	}
	return id, nil
}

// ClientMeta возвращает IP и User-Agent для журнала аудита.
func ClientMeta(ctx echo.Context) (string, string) {
	return ctx.RealIP(), ctx.Request().UserAgent()
}
