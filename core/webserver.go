package core

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"time"
)

var blockedUserAgents = []string{
	"scrubby", "Yandex", "MJ12bot", "AhrefsBot",
}

// clientIP retorna l'adreça del client sense port.
func clientIP(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	ip, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return ip.Unmap(), true
}

func (a *App) isBlocked(ip netip.Addr) bool {
	for _, s := range a.Config.BlockedIPs {
		if blocked, err := netip.ParseAddr(s); err == nil && blocked.Unmap() == ip {
			return true
		}
		if prefix, err := netip.ParsePrefix(s); err == nil && prefix.Contains(ip) {
			return true
		}
	}
	return false
}

// BlockIPs rebutja les IPs de BLOCKED_IPS (adreces o prefixos CIDR).
func (a *App) BlockIPs(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, ok := clientIP(r)
		if !ok {
			http.Error(w, "IP invàlida", http.StatusBadRequest)
			return
		}
		if a.isBlocked(ip) {
			Infof("Accés denegat per IP bloquejada: %s", ip)
			http.Error(w, "Accés denegat", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitSweep és l'interval mínim entre neteges de la taula d'IPs.
const rateLimitSweep = time.Minute

// allow registra la petició i diu si respecta l'interval mínim per IP. Dues
// peticions simultànies de la mateixa IP no poden passar alhora.
func (a *App) allow(ip string, now time.Time) bool {
	interval := a.Config.RateLimit
	if interval <= 0 {
		return true
	}
	a.sweepRateLimiter(now, interval)
	for {
		val, loaded := a.rateLimiter.LoadOrStore(ip, now)
		if !loaded {
			return true
		}
		last := val.(time.Time)
		if now.Sub(last) < interval {
			return false
		}
		if a.rateLimiter.CompareAndSwap(ip, last, now) {
			return true
		}
	}
}

// sweepRateLimiter esborra les IPs que ja tornen a estar permeses.
func (a *App) sweepRateLimiter(now time.Time, interval time.Duration) {
	every := rateLimitSweep
	if interval > every {
		every = interval
	}
	prev := a.lastSweep.Load()
	if now.UnixNano()-prev < int64(every) || !a.lastSweep.CompareAndSwap(prev, now.UnixNano()) {
		return
	}
	a.rateLimiter.Range(func(key, val any) bool {
		if now.Sub(val.(time.Time)) >= interval {
			a.rateLimiter.CompareAndDelete(key, val)
		}
		return true
	})
}

// RateLimit limita les peticions per IP segons RATE_LIMIT_MS.
func (a *App) RateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip, ok := clientIP(r)
		if ok && !a.allow(ip.String(), time.Now()) {
			http.Error(w, "Massa peticions", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecureHeaders afegeix les capçaleres de seguretat per a respostes JSON.
func (a *App) SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		if a.Config.Env != "development" {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("X-Robots-Tag", "noindex, nofollow")

		userAgent := r.UserAgent()
		for _, agent := range blockedUserAgents {
			if strings.Contains(userAgent, agent) {
				Infof("Scraper bloquejat: %s", userAgent)
				http.Error(w, "Accés denegat", http.StatusForbidden)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
