package middleware

import (
	"context"
	"net/http"

	authcore "github.com/veridianlabs/authcore"
)

// TicketHeader is the request header carrying the session ticket id.
const TicketHeader = "X-Ticket"

type ticketContextKey struct{}

// TicketFromContext returns the ticket resolved by [Guard] for the
// current request.
func TicketFromContext(ctx context.Context) (*authcore.TicketInfo, bool) {
	info, ok := ctx.Value(ticketContextKey{}).(*authcore.TicketInfo)
	return info, ok
}

// Guard rejects requests without a live session ticket. The resolved
// ticket is injected into the request context.
func Guard(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, false)
}

// GuardRenewing behaves like [Guard] but extends the ticket deadline on
// every request, keeping active sessions alive.
func GuardRenewing(engine *authcore.Engine) func(http.Handler) http.Handler {
	return guard(engine, true)
}

func guard(engine *authcore.Engine, renew bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ticketID := r.Header.Get(TicketHeader)
			if ticketID == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			var (
				info *authcore.TicketInfo
				err  error
			)
			if renew {
				info, err = engine.RenewTicket(r.Context(), ticketID)
			} else {
				info, err = engine.LookupTicket(r.Context(), ticketID)
			}
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ticketContextKey{}, info)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
