// internal/requestinfo/requestinfo.go
//
// Per-request visitor metadata for landing-page analytics.
//
/*
Context
--------
The public landing-page handler wants to know two things about each hit:
is it a crawler (so the visit counter skips it), and roughly where the
visitor is (best-effort country and city for the visit log).  This package
parses the User-Agent with uasurfer and looks the client IP up in a local
MaxMind database, then stashes the result in the request context so the
handler stays a one-liner.

Geo lookup degrades to empty fields when the database file is absent; a
missing GeoLite2 file must never stop the site from serving.

Notes
-----
  • The client IP honours X-Forwarded-For, first hop only; we sit behind a
    single trusted proxy.
  • Oxford commas, two spaces after periods.
*/
package requestinfo

import (
	"context"
	"net"
	"net/http"
	"strings"

	surfer "github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// Visitor is what the analytics path needs, nothing more.  It carries no
// handles or large buffers, so it is safe to log or JSON-encode.
type Visitor struct {
	IP         net.IP
	IsBot      bool
	Browser    string
	Device     string // "Desktop", "Mobile", "Tablet", or "Other"
	CountryISO string // "" when geo is unavailable
	City       string // "" when geo is unavailable
}

var geoReader *geoip2.Reader

// InitGeo opens the GeoLite2 database.  Call it once from main; a missing
// file is logged and geo fields stay empty.
func InitGeo(dbPath string) {
	if dbPath == "" {
		return
	}
	r, err := geoip2.Open(dbPath)
	if err != nil {
		zap.S().Warnw("geo database unavailable", "path", dbPath, "err", err)
		return
	}
	geoReader = r
}

type ctxKey struct{}

// FromContext returns the Visitor stored by Enrich, or nil.
func FromContext(ctx context.Context) *Visitor {
	v, _ := ctx.Value(ctxKey{}).(*Visitor)
	return v
}

// Enrich parses the request and attaches a Visitor to the context.
func Enrich(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		v := inspect(r)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, v)))
	})
}

func inspect(r *http.Request) *Visitor {
	ua := surfer.Parse(r.UserAgent())

	v := &Visitor{
		IP:      clientIP(r),
		IsBot:   ua.IsBot(),
		Browser: ua.Browser.Name.String(),
	}
	switch ua.DeviceType {
	case surfer.DeviceComputer:
		v.Device = "Desktop"
	case surfer.DeviceTablet:
		v.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		v.Device = "Mobile"
	default:
		v.Device = "Other"
	}

	if geoReader != nil && v.IP != nil {
		if rec, err := geoReader.City(v.IP); err == nil {
			v.CountryISO = rec.Country.IsoCode
			v.City = rec.City.Names["en"]
		}
	}
	return v
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the
// socket address.
func clientIP(r *http.Request) net.IP {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if ip := net.ParseIP(first); ip != nil {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return net.ParseIP(r.RemoteAddr)
	}
	return net.ParseIP(host)
}
