package middleware

import (
	"strconv"

	domainerrors "gatekeeper/internal/domain/errors"
	"gatekeeper/internal/errors"

	"github.com/labstack/echo/v4"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// NewIPRateLimiter returns middleware that limits requests per client IP using
// an in-memory store. rateFormatted follows the limiter format ("20-M",
// "1000-H"); an empty rate disables limiting.
func NewIPRateLimiter(rateFormatted string) (echo.MiddlewareFunc, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}

	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, errors.Wrapf(err, "parse rate limit %q", rateFormatted)
	}

	return ipLimitMiddleware(limiter.New(memory.NewStore(), rate)), nil
}

func ipLimitMiddleware(instance *limiter.Limiter) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lctx, err := instance.Increment(c.Request().Context(), "ip:"+c.RealIP(), 1)
			if err != nil {
				return next(c)
			}

			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			header.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			if lctx.Reset > 0 {
				header.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))
			}

			if lctx.Reached {
				return domainerrors.ErrRateLimited
			}

			return next(c)
		}
	}
}

func noopMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
