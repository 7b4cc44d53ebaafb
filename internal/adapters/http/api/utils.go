package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/okian/eventops/pkg/errkind"
)

// parseList splits a comma separated query parameter and rejects values
// valid does not accept. A missing parameter yields nil, meaning no filter.
func parseList[T ~string](q url.Values, key string, valid func(T) bool) ([]T, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return nil, nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		v := T(strings.TrimSpace(part))
		if v == "" {
			continue
		}
		if !valid(v) {
			return nil, fmt.Errorf("%w: invalid %s %q", ErrBadRequest, key, v)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseLimit reads ?limit. Missing means maxLimit; anything outside
// [1, maxLimit] is rejected.
func parseLimit(r *http.Request, op string, maxLimit int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return maxLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errkind.New(op, ErrBadRequest)
	}
	if n > maxLimit {
		return 0, errkind.Wrap(op, ErrBadRequest, fmt.Errorf("limit exceeds %d", maxLimit))
	}
	return n, nil
}
